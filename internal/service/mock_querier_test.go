package service

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"

	"github.com/DukeRupert/drapery/internal/repository"
	"github.com/google/uuid"
)

// mockQuerier implements repository.Querier for testing.
// Unset funcs return an error so tests fail loudly on unexpected calls.
type mockQuerier struct {
	CountOrdersByStatusFunc          func(ctx context.Context) ([]repository.CountOrdersByStatusRow, error)
	CreateOrderFunc                  func(ctx context.Context, arg repository.CreateOrderParams) (repository.Order, error)
	GetActiveProductsBySlugsFunc     func(ctx context.Context, slugs []string) ([]repository.Product, error)
	GetOrderByIDFunc                 func(ctx context.Context, id uuid.UUID) (repository.Order, error)
	GetProductBySlugFunc             func(ctx context.Context, slug string) (repository.Product, error)
	ListActiveProductsFunc           func(ctx context.Context) ([]repository.Product, error)
	ListActiveProductsByCategoryFunc func(ctx context.Context, category string) ([]repository.Product, error)
	ListOrdersFunc                   func(ctx context.Context, limit int32) ([]repository.Order, error)
	ListOrdersByStatusFunc           func(ctx context.Context, arg repository.ListOrdersByStatusParams) ([]repository.Order, error)
	SumOrderRevenueFunc              func(ctx context.Context) (int64, error)
	UpdateOrderStatusFunc            func(ctx context.Context, arg repository.UpdateOrderStatusParams) (repository.Order, error)
}

var _ repository.Querier = (*mockQuerier)(nil)

var errUnexpectedCall = errors.New("unexpected call")

func (m *mockQuerier) CountOrdersByStatus(ctx context.Context) ([]repository.CountOrdersByStatusRow, error) {
	if m.CountOrdersByStatusFunc != nil {
		return m.CountOrdersByStatusFunc(ctx)
	}
	return nil, errUnexpectedCall
}

func (m *mockQuerier) CreateOrder(ctx context.Context, arg repository.CreateOrderParams) (repository.Order, error) {
	if m.CreateOrderFunc != nil {
		return m.CreateOrderFunc(ctx, arg)
	}
	return repository.Order{}, errUnexpectedCall
}

func (m *mockQuerier) GetActiveProductsBySlugs(ctx context.Context, slugs []string) ([]repository.Product, error) {
	if m.GetActiveProductsBySlugsFunc != nil {
		return m.GetActiveProductsBySlugsFunc(ctx, slugs)
	}
	return nil, errUnexpectedCall
}

func (m *mockQuerier) GetOrderByID(ctx context.Context, id uuid.UUID) (repository.Order, error) {
	if m.GetOrderByIDFunc != nil {
		return m.GetOrderByIDFunc(ctx, id)
	}
	return repository.Order{}, sql.ErrNoRows
}

func (m *mockQuerier) GetProductBySlug(ctx context.Context, slug string) (repository.Product, error) {
	if m.GetProductBySlugFunc != nil {
		return m.GetProductBySlugFunc(ctx, slug)
	}
	return repository.Product{}, sql.ErrNoRows
}

func (m *mockQuerier) ListActiveProducts(ctx context.Context) ([]repository.Product, error) {
	if m.ListActiveProductsFunc != nil {
		return m.ListActiveProductsFunc(ctx)
	}
	return nil, errUnexpectedCall
}

func (m *mockQuerier) ListActiveProductsByCategory(ctx context.Context, category string) ([]repository.Product, error) {
	if m.ListActiveProductsByCategoryFunc != nil {
		return m.ListActiveProductsByCategoryFunc(ctx, category)
	}
	return nil, errUnexpectedCall
}

func (m *mockQuerier) ListOrders(ctx context.Context, limit int32) ([]repository.Order, error) {
	if m.ListOrdersFunc != nil {
		return m.ListOrdersFunc(ctx, limit)
	}
	return nil, errUnexpectedCall
}

func (m *mockQuerier) ListOrdersByStatus(ctx context.Context, arg repository.ListOrdersByStatusParams) ([]repository.Order, error) {
	if m.ListOrdersByStatusFunc != nil {
		return m.ListOrdersByStatusFunc(ctx, arg)
	}
	return nil, errUnexpectedCall
}

func (m *mockQuerier) SumOrderRevenue(ctx context.Context) (int64, error) {
	if m.SumOrderRevenueFunc != nil {
		return m.SumOrderRevenueFunc(ctx)
	}
	return 0, errUnexpectedCall
}

func (m *mockQuerier) UpdateOrderStatus(ctx context.Context, arg repository.UpdateOrderStatusParams) (repository.Order, error) {
	if m.UpdateOrderStatusFunc != nil {
		return m.UpdateOrderStatusFunc(ctx, arg)
	}
	return repository.Order{}, errUnexpectedCall
}

// =============================================================================
// Fixtures
// =============================================================================

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fixtureProducts() []repository.Product {
	return []repository.Product{
		{
			ID:         uuid.MustParse("11111111-1111-1111-1111-111111111111"),
			Slug:       "midnight-blackout",
			Name:       "Midnight Blackout",
			Category:   "blackout",
			PriceCents: 6900,
			Colors:     []string{"charcoal", "navy", "ivory"},
			ImageKey:   sql.NullString{String: "fabrics/midnight-blackout.jpg", Valid: true},
			Active:     true,
		},
		{
			ID:         uuid.MustParse("22222222-2222-2222-2222-222222222222"),
			Slug:       "linen-breeze",
			Name:       "Linen Breeze",
			Category:   "linen",
			PriceCents: 4500,
			Colors:     []string{"natural", "sage", "terracotta", "white"},
			ImageKey:   sql.NullString{String: "fabrics/linen-breeze.jpg", Valid: true},
			Active:     true,
		},
	}
}

// productsBySlug answers GetActiveProductsBySlugs from fixtureProducts.
func productsBySlug(_ context.Context, slugs []string) ([]repository.Product, error) {
	var out []repository.Product
	for _, p := range fixtureProducts() {
		for _, s := range slugs {
			if p.Slug == s {
				out = append(out, p)
			}
		}
	}
	return out, nil
}
