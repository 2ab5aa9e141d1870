package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/DukeRupert/drapery/internal/domain"
	"github.com/DukeRupert/drapery/internal/repository"
)

// CatalogService defines read access to the curtain catalog.
type CatalogService interface {
	// List returns active products, filtered by category when one is given.
	List(ctx context.Context, category domain.ProductCategory) ([]domain.Product, error)

	// Get returns an active product by slug.
	// Returns domain.ENOTFOUND for unknown or inactive products.
	Get(ctx context.Context, slug string) (*domain.Product, error)
}

type catalogService struct {
	queries repository.Querier
	logger  *slog.Logger
}

// NewCatalogService creates a new CatalogService.
func NewCatalogService(queries repository.Querier, logger *slog.Logger) CatalogService {
	return &catalogService{
		queries: queries,
		logger:  logger,
	}
}

// List implements CatalogService.
func (s *catalogService) List(ctx context.Context, category domain.ProductCategory) ([]domain.Product, error) {
	const op = "catalog.list"

	var (
		rows []repository.Product
		err  error
	)
	if category == "" {
		rows, err = s.queries.ListActiveProducts(ctx)
	} else {
		if !category.IsValid() {
			return nil, domain.Invalid(op, "unknown product category")
		}
		rows, err = s.queries.ListActiveProductsByCategory(ctx, category.String())
	}
	if err != nil {
		return nil, domain.Internal(err, op, "failed to list products")
	}

	products := make([]domain.Product, len(rows))
	for i, row := range rows {
		products[i] = *productFromRow(row)
	}
	return products, nil
}

// Get implements CatalogService.
func (s *catalogService) Get(ctx context.Context, slug string) (*domain.Product, error) {
	const op = "catalog.get"

	if slug == "" {
		return nil, domain.NotFound(op, "product", slug)
	}

	row, err := s.queries.GetProductBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound(op, "product", slug)
		}
		return nil, domain.Internal(err, op, "failed to get product")
	}
	if !row.Active {
		return nil, domain.NotFound(op, "product", slug)
	}

	return productFromRow(row), nil
}

// productFromRow converts a repository product to the domain type.
func productFromRow(row repository.Product) *domain.Product {
	colors := row.Colors
	if colors == nil {
		colors = []string{}
	}
	return &domain.Product{
		ID:          row.ID,
		Slug:        row.Slug,
		Name:        row.Name,
		Description: row.Description,
		Category:    domain.ProductCategory(row.Category),
		PriceCents:  row.PriceCents,
		Colors:      colors,
		ImageKey:    domain.NullStringValue(row.ImageKey),
		Active:      row.Active,
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
	}
}
