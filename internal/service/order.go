// Package service contains the business logic layer.
//
// This file implements checkout and the admin order dashboard. The cart
// lives in the browser, so every submitted line is re-priced from the
// catalog before an order is stored.
package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/DukeRupert/drapery/internal/domain"
	"github.com/DukeRupert/drapery/internal/email"
	"github.com/DukeRupert/drapery/internal/metrics"
	"github.com/DukeRupert/drapery/internal/repository"
	"github.com/google/uuid"
	"github.com/sqlc-dev/pqtype"
)

// DefaultOrderListLimit caps the dashboard order list.
const DefaultOrderListLimit int32 = 100

// =============================================================================
// Interface Definition
// =============================================================================

// OrderService defines the interface for order operations.
type OrderService interface {
	// Checkout validates and prices a cart, stores a pending order and
	// returns the WhatsApp link for it.
	// Returns domain.EINVALID for validation errors.
	Checkout(ctx context.Context, params domain.CheckoutParams) (*domain.CheckoutResult, error)

	// List returns orders newest first, optionally filtered by status.
	List(ctx context.Context, params domain.ListOrdersParams) ([]domain.Order, error)

	// Stats returns counts per status and revenue of non-cancelled orders.
	Stats(ctx context.Context) (*domain.OrderStats, error)

	// Get returns a single order.
	// Returns domain.ENOTFOUND if the order does not exist.
	Get(ctx context.Context, id uuid.UUID) (*domain.Order, error)

	// UpdateStatus moves an order to a new status.
	// Returns domain.EINVALID for transitions the lifecycle does not allow
	// and domain.ECONFLICT if the order changed concurrently.
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.OrderStatus) (*domain.Order, error)
}

// =============================================================================
// Implementation
// =============================================================================

type orderService struct {
	queries  repository.Querier
	whatsapp *WhatsAppLinker
	notifier email.Notifier
	baseURL  string
	currency string
	logger   *slog.Logger
}

// NewOrderService creates a new OrderService.
//
// Parameters:
// - queries: Repository queries for database access
// - whatsapp: Builds the checkout deep link
// - notifier: Emails the shop owner about new orders, nil disables it
// - baseURL: Public URL used for the dashboard link in notifications
// - logger: Structured logger for operation logging
func NewOrderService(
	queries repository.Querier,
	whatsapp *WhatsAppLinker,
	notifier email.Notifier,
	baseURL string,
	logger *slog.Logger,
) OrderService {
	return &orderService{
		queries:  queries,
		whatsapp: whatsapp,
		notifier: notifier,
		baseURL:  strings.TrimSuffix(baseURL, "/"),
		currency: whatsapp.money.Currency(),
		logger:   logger,
	}
}

// =============================================================================
// Checkout
// =============================================================================

// Checkout implements OrderService.
func (s *orderService) Checkout(ctx context.Context, params domain.CheckoutParams) (*domain.CheckoutResult, error) {
	const op = "order.checkout"

	params.CustomerName = strings.TrimSpace(params.CustomerName)
	params.CustomerPhone = strings.TrimSpace(params.CustomerPhone)
	params.Notes = strings.TrimSpace(params.Notes)

	if err := validateCheckoutParams(params); err != nil {
		return nil, err
	}

	items, err := s.priceLines(ctx, params.Lines)
	if err != nil {
		return nil, err
	}
	total := domain.SumItems(items)

	itemsJSON, err := json.Marshal(items)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to encode order items")
	}

	row, err := s.queries.CreateOrder(ctx, repository.CreateOrderParams{
		ID:            uuid.New(),
		CustomerName:  params.CustomerName,
		CustomerPhone: params.CustomerPhone,
		Notes:         domain.ToNullString(params.Notes),
		Items:         pqtype.NullRawMessage{RawMessage: itemsJSON, Valid: true},
		TotalCents:    total,
		Currency:      s.currency,
	})
	if err != nil {
		return nil, domain.Internal(err, op, "failed to create order")
	}

	order, err := orderFromRow(row)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to decode order")
	}

	metrics.OrderPlaced(order.TotalCents)

	s.logger.Info("order created",
		"order_id", order.ID,
		"reference", order.Reference(),
		"lines", len(order.Items),
		"total_cents", order.TotalCents,
	)

	s.notify(ctx, order)

	return &domain.CheckoutResult{
		Order:       order,
		WhatsAppURL: s.whatsapp.URL(order),
	}, nil
}

// notify emails the shop owner. The order is already stored, so a failed
// email is logged and does not fail checkout.
func (s *orderService) notify(ctx context.Context, order *domain.Order) {
	if s.notifier == nil {
		return
	}

	notice := email.OrderPlaced{
		Reference:     order.Reference(),
		CustomerName:  order.CustomerName,
		CustomerPhone: order.CustomerPhone,
		Notes:         order.Notes,
		Total:         s.whatsapp.money.Format(order.TotalCents),
		AdminURL:      fmt.Sprintf("%s/admin/orders/%s", s.baseURL, order.ID),
	}
	for _, item := range order.Items {
		notice.Lines = append(notice.Lines, email.OrderLine{
			Name:     item.Name,
			Color:    item.Color,
			Size:     item.SizeLabel(),
			Quantity: item.Quantity,
			Amount:   s.whatsapp.money.Format(item.LineTotalCents()),
		})
	}

	if err := s.notifier.SendOrderPlaced(ctx, notice); err != nil {
		s.logger.Warn("order notification failed",
			"order_id", order.ID,
			"error", err,
		)
	}
}

// validateCheckoutParams checks everything that does not need the catalog.
func validateCheckoutParams(params domain.CheckoutParams) error {
	const op = "order.validate"

	if params.CustomerName == "" {
		return domain.Invalid(op, "name is required")
	}
	if utf8.RuneCountInString(params.CustomerName) > 100 {
		return domain.Invalid(op, "name must be 100 characters or less")
	}
	if params.CustomerPhone == "" {
		return domain.Invalid(op, "phone is required")
	}
	if countDigits(params.CustomerPhone) < 6 || len(params.CustomerPhone) > 30 {
		return domain.Invalid(op, "phone number is not valid")
	}
	if utf8.RuneCountInString(params.Notes) > domain.MaxNotesLength {
		return domain.Invalid(op, fmt.Sprintf("notes must be %d characters or less", domain.MaxNotesLength))
	}

	if len(params.Lines) == 0 {
		return domain.Invalid(op, "cart is empty")
	}
	if len(params.Lines) > domain.MaxCheckoutLines {
		return domain.Invalid(op, fmt.Sprintf("cart may contain at most %d lines", domain.MaxCheckoutLines))
	}

	for i, line := range params.Lines {
		if strings.TrimSpace(line.Slug) == "" {
			return domain.Invalid(op, fmt.Sprintf("line %d: product is required", i+1))
		}
		if line.Quantity < 1 || line.Quantity > domain.MaxLineQuantity {
			return domain.Invalid(op, fmt.Sprintf("line %d: quantity must be between 1 and %d", i+1, domain.MaxLineQuantity))
		}
		if err := validateDimensions(line.WidthCm, line.HeightCm); err != nil {
			return domain.Invalid(op, fmt.Sprintf("line %d: %s", i+1, err))
		}
	}

	return nil
}

// validateDimensions accepts both zero (size not given) or both in range.
func validateDimensions(width, height int) error {
	if width == 0 && height == 0 {
		return nil
	}
	if width == 0 || height == 0 {
		return errors.New("width and height must be given together")
	}
	if width < domain.MinDimensionCm || width > domain.MaxDimensionCm ||
		height < domain.MinDimensionCm || height > domain.MaxDimensionCm {
		return fmt.Errorf("width and height must be between %d and %d cm", domain.MinDimensionCm, domain.MaxDimensionCm)
	}
	return nil
}

func countDigits(s string) int {
	n := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			n++
		}
	}
	return n
}

// priceLines loads every referenced product and builds priced order items.
func (s *orderService) priceLines(ctx context.Context, lines []domain.CheckoutLine) ([]domain.OrderItem, error) {
	const op = "order.price"

	slugs := make([]string, 0, len(lines))
	seen := make(map[string]bool, len(lines))
	for _, line := range lines {
		slug := strings.TrimSpace(line.Slug)
		if !seen[slug] {
			seen[slug] = true
			slugs = append(slugs, slug)
		}
	}

	rows, err := s.queries.GetActiveProductsBySlugs(ctx, slugs)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to load products")
	}

	bySlug := make(map[string]*domain.Product, len(rows))
	for _, row := range rows {
		bySlug[row.Slug] = productFromRow(row)
	}

	items := make([]domain.OrderItem, 0, len(lines))
	for i, line := range lines {
		product, ok := bySlug[strings.TrimSpace(line.Slug)]
		if !ok {
			return nil, domain.Invalid(op, fmt.Sprintf("line %d: product %q is not available", i+1, line.Slug))
		}

		color := strings.ToLower(strings.TrimSpace(line.Color))
		if color == "" {
			color = product.DefaultColor()
		} else if !product.HasColor(color) {
			return nil, domain.Invalid(op, fmt.Sprintf("line %d: %s is not available in %s", i+1, product.Name, color))
		}

		items = append(items, domain.OrderItem{
			ProductID:      product.ID,
			Slug:           product.Slug,
			Name:           product.Name,
			Color:          color,
			WidthCm:        line.WidthCm,
			HeightCm:       line.HeightCm,
			Quantity:       line.Quantity,
			UnitPriceCents: product.PriceCents,
		})
	}

	return items, nil
}

// =============================================================================
// Dashboard
// =============================================================================

// List implements OrderService.
func (s *orderService) List(ctx context.Context, params domain.ListOrdersParams) ([]domain.Order, error) {
	const op = "order.list"

	limit := params.Limit
	if limit <= 0 || limit > DefaultOrderListLimit {
		limit = DefaultOrderListLimit
	}

	var (
		rows []repository.Order
		err  error
	)
	if params.Status == "" {
		rows, err = s.queries.ListOrders(ctx, limit)
	} else {
		if !params.Status.IsValid() {
			return nil, domain.Invalid(op, "unknown order status")
		}
		rows, err = s.queries.ListOrdersByStatus(ctx, repository.ListOrdersByStatusParams{
			Status: params.Status.String(),
			Limit:  limit,
		})
	}
	if err != nil {
		return nil, domain.Internal(err, op, "failed to list orders")
	}

	orders := make([]domain.Order, 0, len(rows))
	for _, row := range rows {
		order, err := orderFromRow(row)
		if err != nil {
			return nil, domain.Internal(err, op, "failed to decode order")
		}
		orders = append(orders, *order)
	}
	return orders, nil
}

// Stats implements OrderService.
func (s *orderService) Stats(ctx context.Context) (*domain.OrderStats, error) {
	const op = "order.stats"

	counts, err := s.queries.CountOrdersByStatus(ctx)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to count orders")
	}

	revenue, err := s.queries.SumOrderRevenue(ctx)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to sum revenue")
	}

	stats := &domain.OrderStats{
		CountByStatus: make(map[domain.OrderStatus]int64, len(domain.AllOrderStatuses())),
		RevenueCents:  revenue,
	}
	for _, status := range domain.AllOrderStatuses() {
		stats.CountByStatus[status] = 0
	}
	for _, row := range counts {
		stats.CountByStatus[domain.OrderStatus(row.Status)] = row.Count
	}

	return stats, nil
}

// Get implements OrderService.
func (s *orderService) Get(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	const op = "order.get"

	row, err := s.queries.GetOrderByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound(op, "order", id.String())
		}
		return nil, domain.Internal(err, op, "failed to get order")
	}

	order, err := orderFromRow(row)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to decode order")
	}
	return order, nil
}

// UpdateStatus implements OrderService.
func (s *orderService) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.OrderStatus) (*domain.Order, error) {
	const op = "order.update_status"

	order, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	from := order.Status
	if err := order.TransitionTo(status); err != nil {
		return nil, err
	}

	row, err := s.queries.UpdateOrderStatus(ctx, repository.UpdateOrderStatusParams{
		Status:     status.String(),
		ID:         id,
		FromStatus: from.String(),
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.Conflict(op, "order was changed by someone else, reload and try again")
		}
		return nil, domain.Internal(err, op, "failed to update order status")
	}

	updated, err := orderFromRow(row)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to decode order")
	}

	metrics.OrderStatusChanged(status.String())

	s.logger.Info("order status updated",
		"order_id", id,
		"from", from,
		"to", status,
	)

	return updated, nil
}

// =============================================================================
// Helpers
// =============================================================================

// orderFromRow converts a repository order to the domain type.
func orderFromRow(row repository.Order) (*domain.Order, error) {
	items := []domain.OrderItem{}
	if row.Items.Valid && len(row.Items.RawMessage) > 0 {
		if err := json.Unmarshal(row.Items.RawMessage, &items); err != nil {
			return nil, fmt.Errorf("decode items of order %s: %w", row.ID, err)
		}
	}

	return &domain.Order{
		ID:            row.ID,
		CustomerName:  row.CustomerName,
		CustomerPhone: row.CustomerPhone,
		Notes:         domain.NullStringValue(row.Notes),
		Items:         items,
		TotalCents:    row.TotalCents,
		Currency:      row.Currency,
		Status:        domain.OrderStatus(row.Status),
		CreatedAt:     row.CreatedAt,
		UpdatedAt:     row.UpdatedAt,
	}, nil
}
