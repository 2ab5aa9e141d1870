package handler

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/DukeRupert/drapery/internal/csrf"
	"github.com/DukeRupert/drapery/internal/domain"
	"github.com/DukeRupert/drapery/internal/report"
	"github.com/DukeRupert/drapery/internal/service"
	"github.com/google/uuid"
)

// AdminHandler serves the order dashboard. Every route sits under /admin
// and is only reached through the access guard.
type AdminHandler struct {
	orders    service.OrderService
	money     Money
	sheets    report.Generator
	storeName string
	renderer  TemplateRenderer
	logger    *slog.Logger
	isSecure  bool
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(
	orders service.OrderService,
	money Money,
	sheets report.Generator,
	storeName string,
	renderer TemplateRenderer,
	logger *slog.Logger,
	isSecure bool,
) *AdminHandler {
	return &AdminHandler{
		orders:    orders,
		money:     money,
		sheets:    sheets,
		storeName: storeName,
		renderer:  renderer,
		logger:    logger,
		isSecure:  isSecure,
	}
}

// RegisterRoutes registers the admin routes.
func (h *AdminHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /admin", h.Index)
	mux.HandleFunc("GET /admin/{$}", h.Index)
	mux.HandleFunc("GET /admin/dashboard", h.Dashboard)
	mux.HandleFunc("GET /admin/orders/{id}", h.OrderDetail)
	mux.HandleFunc("GET /admin/orders/{id}/sheet", h.OrderSheet)
	mux.HandleFunc("POST /admin/orders/{id}/status", h.UpdateStatus)
}

// Index redirects to the dashboard.
func (h *AdminHandler) Index(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, AdminHomePath, http.StatusFound)
}

// Dashboard lists the newest orders with per-status counts and revenue.
//
// Query Parameters:
// - status (optional): only list orders in this status
func (h *AdminHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	filter := domain.OrderStatus(r.URL.Query().Get("status"))
	if filter != "" && !filter.IsValid() {
		ErrorResponse(w, r, h.logger, domain.Invalid("admin.dashboard", fmt.Sprintf("Unknown order status %q", filter)))
		return
	}

	orders, err := h.orders.List(r.Context(), domain.ListOrdersParams{
		Status: filter,
		Limit:  service.DefaultOrderListLimit,
	})
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	stats, err := h.orders.Stats(r.Context())
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	statuses := make([]StatusCount, 0, len(domain.AllOrderStatuses()))
	for _, status := range domain.AllOrderStatuses() {
		statuses = append(statuses, StatusCount{
			Status: status,
			Count:  stats.CountByStatus[status],
			Active: status == filter,
		})
	}

	views := make([]OrderView, 0, len(orders))
	for i := range orders {
		views = append(views, orderView(&orders[i], h.money))
	}

	h.renderer.RenderHTTP(w, "admin/dashboard", DashboardPageData{
		Page:     Page{CurrentPath: r.URL.Path},
		Orders:   views,
		Statuses: statuses,
		Filter:   filter,
		Total:    stats.Total(),
		Revenue:  h.money.Format(stats.RevenueCents),
	})
}

// OrderDetail shows one order with buttons for its next statuses.
func (h *AdminHandler) OrderDetail(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		NotFoundResponse(w, r, h.logger)
		return
	}

	order, err := h.orders.Get(r.Context(), id)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	var flash *Flash
	if updated := r.URL.Query().Get("updated"); domain.OrderStatus(updated).IsValid() {
		flash = &Flash{Type: "success", Message: fmt.Sprintf("Order marked as %s.", updated)}
	}

	h.renderOrder(w, r, http.StatusOK, order, flash)
}

// OrderSheet returns the printable workroom sheet for an order.
func (h *AdminHandler) OrderSheet(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		NotFoundResponse(w, r, h.logger)
		return
	}

	order, err := h.orders.Get(r.Context(), id)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	// Render fully before writing so a failure can still return a 500
	var buf bytes.Buffer
	if _, err := h.sheets.Generate(r.Context(), report.NewOrderSheet(h.storeName, order, h.money.Format), &buf); err != nil {
		InternalErrorResponse(w, r, h.logger, err)
		return
	}

	w.Header().Set("Content-Type", h.sheets.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf(`inline; filename="order-%s.pdf"`, order.Reference()))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.Header().Set("Cache-Control", "no-store")
	_, _ = buf.WriteTo(w)
}

// UpdateStatus moves an order to the submitted status and redirects back
// to the detail page. CSRF is checked by middleware before this runs.
//
// Form Fields:
// - status (required): the target status
func (h *AdminHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		NotFoundResponse(w, r, h.logger)
		return
	}

	if err := r.ParseForm(); err != nil {
		ErrorResponse(w, r, h.logger, domain.Invalid("admin.update_status", "Invalid form submission"))
		return
	}
	target := domain.OrderStatus(r.PostFormValue("status"))

	order, err := h.orders.UpdateStatus(r.Context(), id, target)
	if err != nil {
		code := domain.ErrorCode(err)
		if acceptsJSON(r) || (code != domain.EINVALID && code != domain.ECONFLICT) {
			ErrorResponse(w, r, h.logger, err)
			return
		}

		// Show the order as it is now, with the reason the change was refused
		current, getErr := h.orders.Get(r.Context(), id)
		if getErr != nil {
			ErrorResponse(w, r, h.logger, getErr)
			return
		}
		h.logger.Info("order status change refused", "order_id", id, "target", target, "code", code)
		h.renderOrder(w, r, ErrorCodeToHTTPStatus(code), current, &Flash{
			Type:    "error",
			Message: domain.ErrorMessage(err),
		})
		return
	}

	h.logger.Info("order status updated", "order_id", order.ID, "status", order.Status)

	redirect := fmt.Sprintf("/admin/orders/%s?updated=%s", order.ID, url.QueryEscape(order.Status.String()))
	http.Redirect(w, r, redirect, http.StatusSeeOther)
}

func (h *AdminHandler) renderOrder(w http.ResponseWriter, r *http.Request, status int, order *domain.Order, flash *Flash) {
	token, err := csrf.EnsureToken(w, r, h.isSecure)
	if err != nil {
		InternalErrorResponse(w, r, h.logger, err)
		return
	}

	h.renderer.RenderHTTPStatus(w, status, "admin/order", OrderPageData{
		Page: Page{
			CurrentPath: r.URL.Path,
			CSRFToken:   token,
			Flash:       flash,
		},
		Order:        orderView(order, h.money),
		NextStatuses: order.Status.NextStatuses(),
	})
}
