package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"

	"github.com/DukeRupert/drapery/internal/ai"
	"github.com/DukeRupert/drapery/internal/domain"
	"github.com/DukeRupert/drapery/internal/report"
	"github.com/DukeRupert/drapery/internal/service"
	"github.com/google/uuid"
)

// =============================================================================
// Mock Services
// =============================================================================

// mockAdminAuthService implements service.AdminAuthService for testing.
type mockAdminAuthService struct {
	LoginFunc func(ctx context.Context, submitted string) service.LoginOutcome
}

func (m *mockAdminAuthService) Login(ctx context.Context, submitted string) service.LoginOutcome {
	if m.LoginFunc != nil {
		return m.LoginFunc(ctx, submitted)
	}
	return service.LoginOutcome{Reason: service.LoginFailedReason, Err: errors.New("LoginFunc not implemented")}
}

// mockOrderService implements service.OrderService for testing.
type mockOrderService struct {
	CheckoutFunc     func(ctx context.Context, params domain.CheckoutParams) (*domain.CheckoutResult, error)
	ListFunc         func(ctx context.Context, params domain.ListOrdersParams) ([]domain.Order, error)
	StatsFunc        func(ctx context.Context) (*domain.OrderStats, error)
	GetFunc          func(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	UpdateStatusFunc func(ctx context.Context, id uuid.UUID, status domain.OrderStatus) (*domain.Order, error)
}

func (m *mockOrderService) Checkout(ctx context.Context, params domain.CheckoutParams) (*domain.CheckoutResult, error) {
	if m.CheckoutFunc != nil {
		return m.CheckoutFunc(ctx, params)
	}
	return nil, errors.New("CheckoutFunc not implemented")
}

func (m *mockOrderService) List(ctx context.Context, params domain.ListOrdersParams) ([]domain.Order, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, params)
	}
	return nil, errors.New("ListFunc not implemented")
}

func (m *mockOrderService) Stats(ctx context.Context) (*domain.OrderStats, error) {
	if m.StatsFunc != nil {
		return m.StatsFunc(ctx)
	}
	return nil, errors.New("StatsFunc not implemented")
}

func (m *mockOrderService) Get(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, id)
	}
	return nil, errors.New("GetFunc not implemented")
}

func (m *mockOrderService) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.OrderStatus) (*domain.Order, error) {
	if m.UpdateStatusFunc != nil {
		return m.UpdateStatusFunc(ctx, id, status)
	}
	return nil, errors.New("UpdateStatusFunc not implemented")
}

// mockCatalogService implements service.CatalogService for testing.
type mockCatalogService struct {
	ListFunc func(ctx context.Context, category domain.ProductCategory) ([]domain.Product, error)
	GetFunc  func(ctx context.Context, slug string) (*domain.Product, error)
}

func (m *mockCatalogService) List(ctx context.Context, category domain.ProductCategory) ([]domain.Product, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, category)
	}
	return nil, errors.New("ListFunc not implemented")
}

func (m *mockCatalogService) Get(ctx context.Context, slug string) (*domain.Product, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, slug)
	}
	return nil, errors.New("GetFunc not implemented")
}

// mockDesignService implements service.DesignService for testing.
type mockDesignService struct {
	AdviceFunc func(ctx context.Context, req service.AdviceRequest) (*ai.DesignAdvice, error)
	MockupFunc func(ctx context.Context, req service.MockupRequest) (*service.MockupOutput, error)
}

func (m *mockDesignService) Advice(ctx context.Context, req service.AdviceRequest) (*ai.DesignAdvice, error) {
	if m.AdviceFunc != nil {
		return m.AdviceFunc(ctx, req)
	}
	return nil, errors.New("AdviceFunc not implemented")
}

func (m *mockDesignService) Mockup(ctx context.Context, req service.MockupRequest) (*service.MockupOutput, error) {
	if m.MockupFunc != nil {
		return m.MockupFunc(ctx, req)
	}
	return nil, errors.New("MockupFunc not implemented")
}

// =============================================================================
// Mock Renderer
// =============================================================================

type renderCall struct {
	name   string
	status int
	data   interface{}
}

// mockRenderer records what would have been rendered.
type mockRenderer struct {
	calls []renderCall
}

func (m *mockRenderer) RenderHTTP(w http.ResponseWriter, name string, data interface{}) {
	m.RenderHTTPStatus(w, http.StatusOK, name, data)
}

func (m *mockRenderer) RenderHTTPStatus(w http.ResponseWriter, status int, name string, data interface{}) {
	m.calls = append(m.calls, renderCall{name: name, status: status, data: data})
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = fmt.Fprintf(w, "<rendered %s>", name)
}

func (m *mockRenderer) last() renderCall {
	if len(m.calls) == 0 {
		return renderCall{}
	}
	return m.calls[len(m.calls)-1]
}

// =============================================================================
// Test Helpers
// =============================================================================

// plainMoney formats cents as "$12.34" without locale rules.
type plainMoney struct{}

func (plainMoney) Format(cents int64) string {
	return fmt.Sprintf("$%d.%02d", cents/100, cents%100)
}

// newTestLogger creates a logger that only prints errors.
func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelError, // Only show errors in tests
	}))
}

func findCookie(cookies []*http.Cookie, name string) *http.Cookie {
	for _, c := range cookies {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func testProducts() []domain.Product {
	return []domain.Product{
		{
			ID:         uuid.New(),
			Slug:       "linen-breeze",
			Name:       "Linen Breeze",
			Category:   domain.CategoryLinen,
			PriceCents: 4500,
			Colors:     []string{"ivory", "sand"},
			Active:     true,
		},
		{
			ID:         uuid.New(),
			Slug:       "midnight-blackout",
			Name:       "Midnight Blackout",
			Category:   domain.CategoryBlackout,
			PriceCents: 7900,
			Colors:     []string{"navy", "charcoal"},
			Active:     true,
		},
	}
}

// mockSheetGenerator implements report.Generator for testing.
type mockSheetGenerator struct {
	err  error
	last *report.OrderSheet
}

func (m *mockSheetGenerator) Generate(ctx context.Context, sheet *report.OrderSheet, w io.Writer) (int64, error) {
	m.last = sheet
	if m.err != nil {
		return 0, m.err
	}
	n, err := io.WriteString(w, "%PDF-sheet")
	return int64(n), err
}

func (m *mockSheetGenerator) ContentType() string {
	return report.PDFContentType
}
