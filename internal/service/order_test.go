package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/DukeRupert/drapery/internal/domain"
	"github.com/DukeRupert/drapery/internal/email"
	"github.com/DukeRupert/drapery/internal/repository"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestOrderService(t *testing.T, q *mockQuerier) OrderService {
	t.Helper()
	money, err := NewMoneyFormatter("USD", "en-US")
	require.NoError(t, err)
	return NewOrderService(q, NewWhatsAppLinker("15551234567", "Drapery", money), nil, "", discardLogger())
}

// mockNotifier implements email.Notifier for testing.
type mockNotifier struct {
	SendOrderPlacedFunc func(ctx context.Context, order email.OrderPlaced) error
	sent                []email.OrderPlaced
}

func (m *mockNotifier) SendOrderPlaced(ctx context.Context, order email.OrderPlaced) error {
	m.sent = append(m.sent, order)
	if m.SendOrderPlacedFunc != nil {
		return m.SendOrderPlacedFunc(ctx, order)
	}
	return nil
}

// echoCreateOrder returns what was inserted, as Postgres RETURNING would.
func echoCreateOrder(captured *repository.CreateOrderParams) func(context.Context, repository.CreateOrderParams) (repository.Order, error) {
	return func(_ context.Context, arg repository.CreateOrderParams) (repository.Order, error) {
		*captured = arg
		now := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
		return repository.Order{
			ID:            arg.ID,
			CustomerName:  arg.CustomerName,
			CustomerPhone: arg.CustomerPhone,
			Notes:         arg.Notes,
			Items:         arg.Items,
			TotalCents:    arg.TotalCents,
			Currency:      arg.Currency,
			Status:        "pending",
			CreatedAt:     now,
			UpdatedAt:     now,
		}, nil
	}
}

func validCheckout() domain.CheckoutParams {
	return domain.CheckoutParams{
		CustomerName:  "Ana Souza",
		CustomerPhone: "+1 555 987 6543",
		Notes:         "Deliver after 5pm",
		Lines: []domain.CheckoutLine{
			{Slug: "linen-breeze", Quantity: 2, Color: "Sage", WidthCm: 140, HeightCm: 260},
			{Slug: "midnight-blackout", Quantity: 1},
		},
	}
}

func TestOrderService_Checkout(t *testing.T) {
	var created repository.CreateOrderParams
	q := &mockQuerier{
		GetActiveProductsBySlugsFunc: productsBySlug,
		CreateOrderFunc:              echoCreateOrder(&created),
	}
	svc := newTestOrderService(t, q)

	result, err := svc.Checkout(context.Background(), validCheckout())
	require.NoError(t, err)

	order := result.Order
	assert.Equal(t, domain.OrderStatusPending, order.Status)
	assert.Equal(t, int64(2*4500+6900), order.TotalCents)
	assert.Equal(t, "USD", created.Currency)
	assert.Equal(t, "Deliver after 5pm", created.Notes.String)
	require.Len(t, order.Items, 2)

	// Colour normalised, default colour filled in
	assert.Equal(t, "sage", order.Items[0].Color)
	assert.Equal(t, "charcoal", order.Items[1].Color)

	var stored []domain.OrderItem
	require.NoError(t, json.Unmarshal(created.Items.RawMessage, &stored))
	assert.Equal(t, int64(4500), stored[0].UnitPriceCents)

	assert.True(t, strings.HasPrefix(result.WhatsAppURL, "https://wa.me/15551234567?text="))
	parsed, err := url.Parse(result.WhatsAppURL)
	require.NoError(t, err)
	text := parsed.Query().Get("text")
	assert.Contains(t, text, "#"+order.Reference())
	assert.Contains(t, text, "2 x Linen Breeze (sage), 140x260 cm")
	assert.Contains(t, text, "90.00")
	assert.Contains(t, text, "159.00")
	assert.Contains(t, text, "Name: Ana Souza")
	assert.Contains(t, text, "Notes: Deliver after 5pm")
	assert.NotContains(t, result.WhatsAppURL, "+", "spaces must be percent-encoded")
}

func TestOrderService_Checkout_IgnoresClientPrices(t *testing.T) {
	var created repository.CreateOrderParams
	q := &mockQuerier{
		GetActiveProductsBySlugsFunc: productsBySlug,
		CreateOrderFunc:              echoCreateOrder(&created),
	}
	svc := newTestOrderService(t, q)

	params := validCheckout()
	params.Lines = []domain.CheckoutLine{{Slug: "linen-breeze", Quantity: 3}}

	result, err := svc.Checkout(context.Background(), params)
	require.NoError(t, err)
	assert.Equal(t, int64(13500), result.Order.TotalCents)
	assert.Equal(t, int64(13500), created.TotalCents)
}

func TestOrderService_Checkout_NotifiesOwner(t *testing.T) {
	var created repository.CreateOrderParams
	q := &mockQuerier{
		GetActiveProductsBySlugsFunc: productsBySlug,
		CreateOrderFunc:              echoCreateOrder(&created),
	}
	money, err := NewMoneyFormatter("USD", "en-US")
	require.NoError(t, err)
	notifier := &mockNotifier{}
	svc := NewOrderService(q, NewWhatsAppLinker("15551234567", "Drapery", money), notifier, "https://shop.example.com/", discardLogger())

	result, err := svc.Checkout(context.Background(), validCheckout())
	require.NoError(t, err)
	require.Len(t, notifier.sent, 1)

	notice := notifier.sent[0]
	assert.Equal(t, result.Order.Reference(), notice.Reference)
	assert.Equal(t, "Ana Souza", notice.CustomerName)
	assert.Equal(t, money.Format(15900), notice.Total)
	assert.Equal(t, "https://shop.example.com/admin/orders/"+result.Order.ID.String(), notice.AdminURL)
	require.Len(t, notice.Lines, 2)
	assert.Equal(t, email.OrderLine{Name: "Linen Breeze", Color: "sage", Size: "140x260 cm", Quantity: 2, Amount: money.Format(9000)}, notice.Lines[0])
}

func TestOrderService_Checkout_NotificationFailureKeepsOrder(t *testing.T) {
	var created repository.CreateOrderParams
	q := &mockQuerier{
		GetActiveProductsBySlugsFunc: productsBySlug,
		CreateOrderFunc:              echoCreateOrder(&created),
	}
	money, err := NewMoneyFormatter("USD", "en-US")
	require.NoError(t, err)
	notifier := &mockNotifier{
		SendOrderPlacedFunc: func(context.Context, email.OrderPlaced) error {
			return errors.New("smtp unavailable")
		},
	}
	svc := NewOrderService(q, NewWhatsAppLinker("15551234567", "Drapery", money), notifier, "", discardLogger())

	result, err := svc.Checkout(context.Background(), validCheckout())
	require.NoError(t, err)
	assert.NotEmpty(t, result.WhatsAppURL)
	assert.Len(t, notifier.sent, 1)
}

func TestOrderService_Checkout_Validation(t *testing.T) {
	tooMany := make([]domain.CheckoutLine, domain.MaxCheckoutLines+1)
	for i := range tooMany {
		tooMany[i] = domain.CheckoutLine{Slug: "linen-breeze", Quantity: 1}
	}

	tests := []struct {
		name   string
		modify func(p *domain.CheckoutParams)
	}{
		{"missing name", func(p *domain.CheckoutParams) { p.CustomerName = "  " }},
		{"missing phone", func(p *domain.CheckoutParams) { p.CustomerPhone = "" }},
		{"phone without digits", func(p *domain.CheckoutParams) { p.CustomerPhone = "call me" }},
		{"notes too long", func(p *domain.CheckoutParams) { p.Notes = strings.Repeat("a", domain.MaxNotesLength+1) }},
		{"empty cart", func(p *domain.CheckoutParams) { p.Lines = nil }},
		{"too many lines", func(p *domain.CheckoutParams) { p.Lines = tooMany }},
		{"zero quantity", func(p *domain.CheckoutParams) { p.Lines[0].Quantity = 0 }},
		{"quantity too large", func(p *domain.CheckoutParams) { p.Lines[0].Quantity = domain.MaxLineQuantity + 1 }},
		{"width only", func(p *domain.CheckoutParams) { p.Lines[0].HeightCm = 0 }},
		{"too narrow", func(p *domain.CheckoutParams) { p.Lines[0].WidthCm = 10 }},
		{"too tall", func(p *domain.CheckoutParams) { p.Lines[0].HeightCm = 601 }},
		{"unknown product", func(p *domain.CheckoutParams) { p.Lines[0].Slug = "paper-blinds" }},
		{"unavailable colour", func(p *domain.CheckoutParams) { p.Lines[0].Color = "purple" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := &mockQuerier{
				GetActiveProductsBySlugsFunc: productsBySlug,
				CreateOrderFunc: func(context.Context, repository.CreateOrderParams) (repository.Order, error) {
					t.Fatal("CreateOrder must not be called for invalid input")
					return repository.Order{}, nil
				},
			}
			svc := newTestOrderService(t, q)

			params := validCheckout()
			tt.modify(&params)

			_, err := svc.Checkout(context.Background(), params)
			require.Error(t, err)
			assert.Equal(t, domain.EINVALID, domain.ErrorCode(err))
		})
	}
}

func TestOrderService_Stats(t *testing.T) {
	q := &mockQuerier{
		CountOrdersByStatusFunc: func(context.Context) ([]repository.CountOrdersByStatusRow, error) {
			return []repository.CountOrdersByStatusRow{
				{Status: "pending", Count: 3},
				{Status: "cancelled", Count: 1},
			}, nil
		},
		SumOrderRevenueFunc: func(context.Context) (int64, error) { return 42000, nil },
	}
	svc := newTestOrderService(t, q)

	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.CountByStatus[domain.OrderStatusPending])
	assert.Equal(t, int64(0), stats.CountByStatus[domain.OrderStatusShipped])
	assert.Len(t, stats.CountByStatus, len(domain.AllOrderStatuses()))
	assert.Equal(t, int64(4), stats.Total())
	assert.Equal(t, int64(42000), stats.RevenueCents)
}

func TestOrderService_List(t *testing.T) {
	var gotLimit int32
	var gotStatus string
	q := &mockQuerier{
		ListOrdersFunc: func(_ context.Context, limit int32) ([]repository.Order, error) {
			gotLimit = limit
			return []repository.Order{{ID: uuid.New(), Status: "pending"}}, nil
		},
		ListOrdersByStatusFunc: func(_ context.Context, arg repository.ListOrdersByStatusParams) ([]repository.Order, error) {
			gotStatus = arg.Status
			return nil, nil
		},
	}
	svc := newTestOrderService(t, q)

	orders, err := svc.List(context.Background(), domain.ListOrdersParams{Limit: 5000})
	require.NoError(t, err)
	assert.Len(t, orders, 1)
	assert.Empty(t, orders[0].Items)
	assert.Equal(t, DefaultOrderListLimit, gotLimit)

	_, err = svc.List(context.Background(), domain.ListOrdersParams{Status: domain.OrderStatusShipped})
	require.NoError(t, err)
	assert.Equal(t, "shipped", gotStatus)

	_, err = svc.List(context.Background(), domain.ListOrdersParams{Status: "lost"})
	assert.Equal(t, domain.EINVALID, domain.ErrorCode(err))
}

func TestOrderService_Get_NotFound(t *testing.T) {
	svc := newTestOrderService(t, &mockQuerier{})

	_, err := svc.Get(context.Background(), uuid.New())
	assert.Equal(t, domain.ENOTFOUND, domain.ErrorCode(err))
}

func TestOrderService_UpdateStatus(t *testing.T) {
	id := uuid.New()

	t.Run("allowed transition", func(t *testing.T) {
		var got repository.UpdateOrderStatusParams
		q := &mockQuerier{
			GetOrderByIDFunc: func(context.Context, uuid.UUID) (repository.Order, error) {
				return repository.Order{ID: id, Status: "pending"}, nil
			},
			UpdateOrderStatusFunc: func(_ context.Context, arg repository.UpdateOrderStatusParams) (repository.Order, error) {
				got = arg
				return repository.Order{ID: id, Status: arg.Status}, nil
			},
		}
		svc := newTestOrderService(t, q)

		order, err := svc.UpdateStatus(context.Background(), id, domain.OrderStatusConfirmed)
		require.NoError(t, err)
		assert.Equal(t, domain.OrderStatusConfirmed, order.Status)
		assert.Equal(t, "pending", got.FromStatus)
		assert.Equal(t, "confirmed", got.Status)
	})

	t.Run("disallowed transition", func(t *testing.T) {
		q := &mockQuerier{
			GetOrderByIDFunc: func(context.Context, uuid.UUID) (repository.Order, error) {
				return repository.Order{ID: id, Status: "delivered"}, nil
			},
		}
		svc := newTestOrderService(t, q)

		_, err := svc.UpdateStatus(context.Background(), id, domain.OrderStatusPending)
		assert.Equal(t, domain.EINVALID, domain.ErrorCode(err))
	})

	t.Run("concurrent change", func(t *testing.T) {
		q := &mockQuerier{
			GetOrderByIDFunc: func(context.Context, uuid.UUID) (repository.Order, error) {
				return repository.Order{ID: id, Status: "confirmed"}, nil
			},
			UpdateOrderStatusFunc: func(context.Context, repository.UpdateOrderStatusParams) (repository.Order, error) {
				return repository.Order{}, sql.ErrNoRows
			},
		}
		svc := newTestOrderService(t, q)

		_, err := svc.UpdateStatus(context.Background(), id, domain.OrderStatusShipped)
		assert.Equal(t, domain.ECONFLICT, domain.ErrorCode(err))
	})
}

func TestMoneyFormatter(t *testing.T) {
	money, err := NewMoneyFormatter("USD", "en-US")
	require.NoError(t, err)
	assert.Equal(t, "USD", money.Currency())
	assert.Contains(t, money.Format(6900), "69.00")
	assert.Contains(t, money.Format(6900), "$")

	_, err = NewMoneyFormatter("ZZZ", "en-US")
	assert.Error(t, err)
}
