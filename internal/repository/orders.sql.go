package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/sqlc-dev/pqtype"
)

const orderColumns = `id, customer_name, customer_phone, notes, items, total_cents, currency, status, created_at, updated_at`

func scanOrder(row rowScanner) (Order, error) {
	var i Order
	err := row.Scan(
		&i.ID,
		&i.CustomerName,
		&i.CustomerPhone,
		&i.Notes,
		&i.Items,
		&i.TotalCents,
		&i.Currency,
		&i.Status,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

func (q *Queries) collectOrders(ctx context.Context, query string, args ...interface{}) ([]Order, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Order{}
	for rows.Next() {
		i, err := scanOrder(rows)
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

const countOrdersByStatus = `-- name: CountOrdersByStatus :many
SELECT status, COUNT(*)::bigint AS count
FROM orders
GROUP BY status
`

type CountOrdersByStatusRow struct {
	Status string `json:"status"`
	Count  int64  `json:"count"`
}

func (q *Queries) CountOrdersByStatus(ctx context.Context) ([]CountOrdersByStatusRow, error) {
	rows, err := q.db.QueryContext(ctx, countOrdersByStatus)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []CountOrdersByStatusRow{}
	for rows.Next() {
		var i CountOrdersByStatusRow
		if err := rows.Scan(&i.Status, &i.Count); err != nil {
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

const createOrder = `-- name: CreateOrder :one
INSERT INTO orders (id, customer_name, customer_phone, notes, items, total_cents, currency, status)
VALUES ($1, $2, $3, $4, $5, $6, $7, 'pending')
RETURNING ` + orderColumns

type CreateOrderParams struct {
	ID            uuid.UUID             `json:"id"`
	CustomerName  string                `json:"customer_name"`
	CustomerPhone string                `json:"customer_phone"`
	Notes         sql.NullString        `json:"notes"`
	Items         pqtype.NullRawMessage `json:"items"`
	TotalCents    int64                 `json:"total_cents"`
	Currency      string                `json:"currency"`
}

func (q *Queries) CreateOrder(ctx context.Context, arg CreateOrderParams) (Order, error) {
	row := q.db.QueryRowContext(ctx, createOrder,
		arg.ID,
		arg.CustomerName,
		arg.CustomerPhone,
		arg.Notes,
		arg.Items,
		arg.TotalCents,
		arg.Currency,
	)
	return scanOrder(row)
}

const getOrderByID = `-- name: GetOrderByID :one
SELECT ` + orderColumns + ` FROM orders
WHERE id = $1
`

func (q *Queries) GetOrderByID(ctx context.Context, id uuid.UUID) (Order, error) {
	row := q.db.QueryRowContext(ctx, getOrderByID, id)
	return scanOrder(row)
}

const listOrders = `-- name: ListOrders :many
SELECT ` + orderColumns + ` FROM orders
ORDER BY created_at DESC
LIMIT $1
`

func (q *Queries) ListOrders(ctx context.Context, limit int32) ([]Order, error) {
	return q.collectOrders(ctx, listOrders, limit)
}

const listOrdersByStatus = `-- name: ListOrdersByStatus :many
SELECT ` + orderColumns + ` FROM orders
WHERE status = $1
ORDER BY created_at DESC
LIMIT $2
`

type ListOrdersByStatusParams struct {
	Status string `json:"status"`
	Limit  int32  `json:"limit"`
}

func (q *Queries) ListOrdersByStatus(ctx context.Context, arg ListOrdersByStatusParams) ([]Order, error) {
	return q.collectOrders(ctx, listOrdersByStatus, arg.Status, arg.Limit)
}

const sumOrderRevenue = `-- name: SumOrderRevenue :one
SELECT COALESCE(SUM(total_cents), 0)::bigint AS revenue
FROM orders
WHERE status <> 'cancelled'
`

func (q *Queries) SumOrderRevenue(ctx context.Context) (int64, error) {
	row := q.db.QueryRowContext(ctx, sumOrderRevenue)
	var revenue int64
	err := row.Scan(&revenue)
	return revenue, err
}

const updateOrderStatus = `-- name: UpdateOrderStatus :one
UPDATE orders
SET status = $1, updated_at = NOW()
WHERE id = $2 AND status = $3
RETURNING ` + orderColumns

type UpdateOrderStatusParams struct {
	Status     string    `json:"status"`
	ID         uuid.UUID `json:"id"`
	FromStatus string    `json:"from_status"`
}

// UpdateOrderStatus returns sql.ErrNoRows when the order does not exist or
// its status is no longer FromStatus.
func (q *Queries) UpdateOrderStatus(ctx context.Context, arg UpdateOrderStatusParams) (Order, error) {
	row := q.db.QueryRowContext(ctx, updateOrderStatus, arg.Status, arg.ID, arg.FromStatus)
	return scanOrder(row)
}
