package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/DukeRupert/drapery/internal/domain"
	"github.com/DukeRupert/drapery/internal/service"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testOrder(status domain.OrderStatus) *domain.Order {
	items := []domain.OrderItem{
		{Slug: "linen-breeze", Name: "Linen Breeze", Color: "ivory", WidthCm: 140, HeightCm: 250, Quantity: 2, UnitPriceCents: 4500},
		{Slug: "midnight-blackout", Name: "Midnight Blackout", Color: "navy", Quantity: 1, UnitPriceCents: 7900},
	}
	created := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	return &domain.Order{
		ID:            uuid.MustParse("3f2a9c1e-0000-4000-8000-000000000001"),
		CustomerName:  "Ana Souza",
		CustomerPhone: "+55 (11) 98765-4321",
		Items:         items,
		TotalCents:    domain.SumItems(items),
		Currency:      "USD",
		Status:        status,
		CreatedAt:     created,
		UpdatedAt:     created,
	}
}

func newTestAdminHandler(orders *mockOrderService) (*AdminHandler, *mockRenderer) {
	renderer := &mockRenderer{}
	return NewAdminHandler(orders, plainMoney{}, &mockSheetGenerator{}, "Drapery", renderer, newTestLogger(), false), renderer
}

func serveAdmin(h *AdminHandler, req *http.Request) *httptest.ResponseRecorder {
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func newStatusRequest(id uuid.UUID, status string) *http.Request {
	form := url.Values{"status": {status}}
	req := httptest.NewRequest("POST", "/admin/orders/"+id.String()+"/status", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

// =============================================================================
// Index and Dashboard
// =============================================================================

func TestAdminIndex_RedirectsToDashboard(t *testing.T) {
	h, _ := newTestAdminHandler(&mockOrderService{})

	for _, path := range []string{"/admin", "/admin/"} {
		rec := serveAdmin(h, httptest.NewRequest("GET", path, nil))
		assert.Equal(t, http.StatusFound, rec.Code, path)
		assert.Equal(t, AdminHomePath, rec.Header().Get("Location"), path)
	}
}

func TestDashboard_ListsOrdersWithStats(t *testing.T) {
	order := testOrder(domain.OrderStatusPending)
	var listed domain.ListOrdersParams

	orders := &mockOrderService{
		ListFunc: func(ctx context.Context, params domain.ListOrdersParams) ([]domain.Order, error) {
			listed = params
			return []domain.Order{*order}, nil
		},
		StatsFunc: func(ctx context.Context) (*domain.OrderStats, error) {
			return &domain.OrderStats{
				CountByStatus: map[domain.OrderStatus]int64{
					domain.OrderStatusPending:   1,
					domain.OrderStatusConfirmed: 2,
				},
				RevenueCents: 16900,
			}, nil
		},
	}
	h, renderer := newTestAdminHandler(orders)

	rec := serveAdmin(h, httptest.NewRequest("GET", "/admin/dashboard", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, domain.OrderStatus(""), listed.Status)
	assert.Equal(t, service.DefaultOrderListLimit, listed.Limit)

	call := renderer.last()
	require.Equal(t, "admin/dashboard", call.name)
	data := call.data.(DashboardPageData)

	assert.Equal(t, int64(3), data.Total)
	assert.Equal(t, "$169.00", data.Revenue)
	require.Len(t, data.Orders, 1)
	assert.Equal(t, "3F2A9C1E", data.Orders[0].Reference)
	assert.Equal(t, "$169.00", data.Orders[0].Total)
	assert.Equal(t, 3, data.Orders[0].ItemCount)

	require.Len(t, data.Statuses, len(domain.AllOrderStatuses()))
	assert.Equal(t, domain.OrderStatusPending, data.Statuses[0].Status)
	assert.Equal(t, int64(2), data.Statuses[1].Count)
	for _, s := range data.Statuses {
		assert.False(t, s.Active, "no filter should mark no status active")
	}
}

func TestDashboard_FiltersByStatus(t *testing.T) {
	var listed domain.ListOrdersParams
	orders := &mockOrderService{
		ListFunc: func(ctx context.Context, params domain.ListOrdersParams) ([]domain.Order, error) {
			listed = params
			return nil, nil
		},
		StatsFunc: func(ctx context.Context) (*domain.OrderStats, error) {
			return &domain.OrderStats{CountByStatus: map[domain.OrderStatus]int64{}}, nil
		},
	}
	h, renderer := newTestAdminHandler(orders)

	rec := serveAdmin(h, httptest.NewRequest("GET", "/admin/dashboard?status=shipped", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, domain.OrderStatusShipped, listed.Status)
	data := renderer.last().data.(DashboardPageData)
	assert.Equal(t, domain.OrderStatusShipped, data.Filter)
	for _, s := range data.Statuses {
		assert.Equal(t, s.Status == domain.OrderStatusShipped, s.Active, s.Status)
	}
}

func TestDashboard_UnknownStatusFilter(t *testing.T) {
	h, renderer := newTestAdminHandler(&mockOrderService{})

	rec := serveAdmin(h, httptest.NewRequest("GET", "/admin/dashboard?status=lost", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, renderer.calls)
}

// =============================================================================
// Order Detail
// =============================================================================

func TestOrderDetail_RendersOrder(t *testing.T) {
	order := testOrder(domain.OrderStatusPending)
	orders := &mockOrderService{
		GetFunc: func(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
			if id != order.ID {
				return nil, domain.NotFound("order.get", "order", id.String())
			}
			return order, nil
		},
	}
	h, renderer := newTestAdminHandler(orders)

	rec := serveAdmin(h, httptest.NewRequest("GET", "/admin/orders/"+order.ID.String(), nil))
	require.Equal(t, http.StatusOK, rec.Code)

	call := renderer.last()
	require.Equal(t, "admin/order", call.name)
	data := call.data.(OrderPageData)

	assert.Equal(t, "https://wa.me/5511987654321", data.Order.ContactURL)
	assert.Equal(t, []domain.OrderStatus{domain.OrderStatusConfirmed, domain.OrderStatusCancelled}, data.NextStatuses)
	assert.Equal(t, "140x250 cm", data.Order.Items[0].Size)
	assert.Equal(t, "$90.00", data.Order.Items[0].LineTotal)
	assert.Empty(t, data.Order.Items[1].Size)
	assert.NotEmpty(t, data.Page.CSRFToken)
	assert.Nil(t, data.Page.Flash)
}

func TestOrderDetail_UpdatedFlash(t *testing.T) {
	order := testOrder(domain.OrderStatusConfirmed)
	orders := &mockOrderService{
		GetFunc: func(ctx context.Context, id uuid.UUID) (*domain.Order, error) { return order, nil },
	}
	h, renderer := newTestAdminHandler(orders)

	serveAdmin(h, httptest.NewRequest("GET", "/admin/orders/"+order.ID.String()+"?updated=confirmed", nil))
	flash := renderer.last().data.(OrderPageData).Page.Flash
	require.NotNil(t, flash)
	assert.Equal(t, "success", flash.Type)
	assert.Contains(t, flash.Message, "confirmed")

	serveAdmin(h, httptest.NewRequest("GET", "/admin/orders/"+order.ID.String()+"?updated=%3Cscript%3E", nil))
	assert.Nil(t, renderer.last().data.(OrderPageData).Page.Flash)
}

func TestOrderDetail_NotFound(t *testing.T) {
	orders := &mockOrderService{
		GetFunc: func(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
			return nil, domain.NotFound("order.get", "order", id.String())
		},
	}
	h, _ := newTestAdminHandler(orders)

	tests := []struct {
		name string
		path string
	}{
		{"malformed id", "/admin/orders/not-a-uuid"},
		{"unknown id", "/admin/orders/" + uuid.NewString()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serveAdmin(h, httptest.NewRequest("GET", tt.path, nil))
			assert.Equal(t, http.StatusNotFound, rec.Code)
		})
	}
}

// =============================================================================
// Status Update
// =============================================================================

func TestUpdateStatus_RedirectsToOrder(t *testing.T) {
	order := testOrder(domain.OrderStatusPending)
	var gotStatus domain.OrderStatus
	orders := &mockOrderService{
		UpdateStatusFunc: func(ctx context.Context, id uuid.UUID, status domain.OrderStatus) (*domain.Order, error) {
			gotStatus = status
			updated := *order
			updated.Status = status
			return &updated, nil
		},
	}
	h, _ := newTestAdminHandler(orders)

	rec := serveAdmin(h, newStatusRequest(order.ID, "confirmed"))

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, domain.OrderStatusConfirmed, gotStatus)
	assert.Equal(t, "/admin/orders/"+order.ID.String()+"?updated=confirmed", rec.Header().Get("Location"))
}

func TestUpdateStatus_RefusedTransitionRerendersOrder(t *testing.T) {
	order := testOrder(domain.OrderStatusDelivered)
	orders := &mockOrderService{
		UpdateStatusFunc: func(ctx context.Context, id uuid.UUID, status domain.OrderStatus) (*domain.Order, error) {
			return nil, order.TransitionTo(status)
		},
		GetFunc: func(ctx context.Context, id uuid.UUID) (*domain.Order, error) { return order, nil },
	}
	h, renderer := newTestAdminHandler(orders)

	rec := serveAdmin(h, newStatusRequest(order.ID, "pending"))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	call := renderer.last()
	require.Equal(t, "admin/order", call.name)
	data := call.data.(OrderPageData)
	require.NotNil(t, data.Page.Flash)
	assert.Equal(t, "error", data.Page.Flash.Type)
	assert.Contains(t, data.Page.Flash.Message, "cannot transition")
	assert.Empty(t, data.NextStatuses, "delivered orders have no next status")
}

func TestUpdateStatus_ConcurrentChange(t *testing.T) {
	order := testOrder(domain.OrderStatusConfirmed)
	orders := &mockOrderService{
		UpdateStatusFunc: func(ctx context.Context, id uuid.UUID, status domain.OrderStatus) (*domain.Order, error) {
			return nil, domain.Conflict("order.update_status", "Order was changed by someone else")
		},
		GetFunc: func(ctx context.Context, id uuid.UUID) (*domain.Order, error) { return order, nil },
	}
	h, renderer := newTestAdminHandler(orders)

	rec := serveAdmin(h, newStatusRequest(order.ID, "confirmed"))

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "admin/order", renderer.last().name)
}

func TestUpdateStatus_JSONClientGetsError(t *testing.T) {
	order := testOrder(domain.OrderStatusDelivered)
	orders := &mockOrderService{
		UpdateStatusFunc: func(ctx context.Context, id uuid.UUID, status domain.OrderStatus) (*domain.Order, error) {
			return nil, order.TransitionTo(status)
		},
	}
	h, renderer := newTestAdminHandler(orders)

	req := newStatusRequest(order.ID, "pending")
	req.Header.Set("Accept", "application/json")
	rec := serveAdmin(h, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")
	assert.Empty(t, renderer.calls)
}

func TestUpdateStatus_MissingOrder(t *testing.T) {
	orders := &mockOrderService{
		UpdateStatusFunc: func(ctx context.Context, id uuid.UUID, status domain.OrderStatus) (*domain.Order, error) {
			return nil, domain.NotFound("order.update_status", "order", id.String())
		},
	}
	h, _ := newTestAdminHandler(orders)

	rec := serveAdmin(h, newStatusRequest(uuid.New(), "confirmed"))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// =============================================================================
// Order Sheet
// =============================================================================

func TestAdminHandler_OrderSheet(t *testing.T) {
	order := testOrder(domain.OrderStatusConfirmed)
	orders := &mockOrderService{
		GetFunc: func(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
			return order, nil
		},
	}
	sheets := &mockSheetGenerator{}
	h := NewAdminHandler(orders, plainMoney{}, sheets, "Drapery", &mockRenderer{}, newTestLogger(), false)

	rec := serveAdmin(h, httptest.NewRequest("GET", "/admin/orders/"+order.ID.String()+"/sheet", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Equal(t, `inline; filename="order-3F2A9C1E.pdf"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "%PDF-sheet", rec.Body.String())

	require.NotNil(t, sheets.last)
	assert.Equal(t, "Drapery", sheets.last.StoreName)
	assert.Equal(t, "$169.00", sheets.last.Total)
	assert.Equal(t, "$90.00", sheets.last.Lines[0].Amount)
}

func TestAdminHandler_OrderSheet_Errors(t *testing.T) {
	order := testOrder(domain.OrderStatusPending)

	t.Run("missing order", func(t *testing.T) {
		orders := &mockOrderService{
			GetFunc: func(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
				return nil, domain.NotFound("order.get", "order", id.String())
			},
		}
		h, _ := newTestAdminHandler(orders)
		rec := serveAdmin(h, httptest.NewRequest("GET", "/admin/orders/"+order.ID.String()+"/sheet", nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("bad id", func(t *testing.T) {
		h, _ := newTestAdminHandler(&mockOrderService{})
		rec := serveAdmin(h, httptest.NewRequest("GET", "/admin/orders/not-a-uuid/sheet", nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("generator failure", func(t *testing.T) {
		orders := &mockOrderService{
			GetFunc: func(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
				return order, nil
			},
		}
		sheets := &mockSheetGenerator{err: errors.New("font missing")}
		h := NewAdminHandler(orders, plainMoney{}, sheets, "Drapery", &mockRenderer{}, newTestLogger(), false)
		req := httptest.NewRequest("GET", "/admin/orders/"+order.ID.String()+"/sheet", nil)
		req.Header.Set("Accept", "application/json")

		rec := serveAdmin(h, req)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.NotContains(t, rec.Header().Get("Content-Type"), "pdf")
		assert.NotContains(t, rec.Body.String(), "font missing")
	})
}
