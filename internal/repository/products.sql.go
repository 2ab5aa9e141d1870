package repository

import (
	"context"

	"github.com/lib/pq"
)

const productColumns = `id, slug, name, description, category, price_cents, colors, image_key, active, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanProduct(row rowScanner) (Product, error) {
	var i Product
	err := row.Scan(
		&i.ID,
		&i.Slug,
		&i.Name,
		&i.Description,
		&i.Category,
		&i.PriceCents,
		pq.Array(&i.Colors),
		&i.ImageKey,
		&i.Active,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

func (q *Queries) collectProducts(ctx context.Context, query string, args ...interface{}) ([]Product, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Product{}
	for rows.Next() {
		i, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getActiveProductsBySlugs = `-- name: GetActiveProductsBySlugs :many
SELECT ` + productColumns + ` FROM products
WHERE active AND slug = ANY($1::text[])
`

func (q *Queries) GetActiveProductsBySlugs(ctx context.Context, slugs []string) ([]Product, error) {
	return q.collectProducts(ctx, getActiveProductsBySlugs, pq.Array(slugs))
}

const getProductBySlug = `-- name: GetProductBySlug :one
SELECT ` + productColumns + ` FROM products
WHERE slug = $1
`

func (q *Queries) GetProductBySlug(ctx context.Context, slug string) (Product, error) {
	row := q.db.QueryRowContext(ctx, getProductBySlug, slug)
	return scanProduct(row)
}

const listActiveProducts = `-- name: ListActiveProducts :many
SELECT ` + productColumns + ` FROM products
WHERE active
ORDER BY category, price_cents, name
`

func (q *Queries) ListActiveProducts(ctx context.Context) ([]Product, error) {
	return q.collectProducts(ctx, listActiveProducts)
}

const listActiveProductsByCategory = `-- name: ListActiveProductsByCategory :many
SELECT ` + productColumns + ` FROM products
WHERE active AND category = $1
ORDER BY price_cents, name
`

func (q *Queries) ListActiveProductsByCategory(ctx context.Context, category string) ([]Product, error) {
	return q.collectProducts(ctx, listActiveProductsByCategory, category)
}
