package repository

import (
	"context"

	"github.com/google/uuid"
)

type Querier interface {
	CountOrdersByStatus(ctx context.Context) ([]CountOrdersByStatusRow, error)
	CreateOrder(ctx context.Context, arg CreateOrderParams) (Order, error)
	GetActiveProductsBySlugs(ctx context.Context, slugs []string) ([]Product, error)
	GetOrderByID(ctx context.Context, id uuid.UUID) (Order, error)
	GetProductBySlug(ctx context.Context, slug string) (Product, error)
	ListActiveProducts(ctx context.Context) ([]Product, error)
	ListActiveProductsByCategory(ctx context.Context, category string) ([]Product, error)
	ListOrders(ctx context.Context, limit int32) ([]Order, error)
	ListOrdersByStatus(ctx context.Context, arg ListOrdersByStatusParams) ([]Order, error)
	SumOrderRevenue(ctx context.Context) (int64, error)
	UpdateOrderStatus(ctx context.Context, arg UpdateOrderStatusParams) (Order, error)
}

var _ Querier = (*Queries)(nil)
