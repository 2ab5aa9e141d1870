package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/DukeRupert/drapery/internal/domain"
	"github.com/DukeRupert/drapery/internal/service"
	"github.com/google/uuid"
)

// maxCheckoutBody bounds the checkout request, form or JSON.
const maxCheckoutBody = 64 * 1024

// CheckoutResponse is the JSON reply to a successful checkout.
type CheckoutResponse struct {
	OrderID     uuid.UUID `json:"orderId"`
	Reference   string    `json:"reference"`
	WhatsAppURL string    `json:"whatsappUrl"`
	TotalCents  int64     `json:"totalCents"`
}

// CheckoutHandler turns a browser cart into a pending order and hands the
// customer over to WhatsApp.
type CheckoutHandler struct {
	orders   service.OrderService
	renderer TemplateRenderer
	logger   *slog.Logger
}

// NewCheckoutHandler creates a new CheckoutHandler.
func NewCheckoutHandler(orders service.OrderService, renderer TemplateRenderer, logger *slog.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		orders:   orders,
		renderer: renderer,
		logger:   logger,
	}
}

// RegisterRoutes registers the checkout route.
func (h *CheckoutHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /checkout", h.Checkout)
}

// Checkout accepts either a JSON body (domain.CheckoutParams) or the cart
// form.
//
// Form Fields:
// - customer_name, customer_phone (required)
// - notes (optional)
// - cart (required): JSON array of {slug, quantity, color, widthCm, heightCm}
//
// JSON clients get 201 with a CheckoutResponse. Form posts are redirected
// (303) to the WhatsApp link. Prices submitted by the client are ignored.
func (h *CheckoutHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxCheckoutBody)

	isJSON := strings.Contains(r.Header.Get("Content-Type"), "application/json")

	var (
		params domain.CheckoutParams
		err    error
	)
	if isJSON {
		err = decodeJSONCheckout(r, &params)
	} else {
		err = decodeFormCheckout(r, &params)
	}
	if err != nil {
		h.fail(w, r, params, err)
		return
	}

	result, err := h.orders.Checkout(r.Context(), params)
	if err != nil {
		h.fail(w, r, params, err)
		return
	}

	if acceptsJSON(r) {
		writeJSON(w, http.StatusCreated, CheckoutResponse{
			OrderID:     result.Order.ID,
			Reference:   result.Order.Reference(),
			WhatsAppURL: result.WhatsAppURL,
			TotalCents:  result.Order.TotalCents,
		})
		return
	}

	http.Redirect(w, r, result.WhatsAppURL, http.StatusSeeOther)
}

func decodeJSONCheckout(r *http.Request, params *domain.CheckoutParams) error {
	const op = "checkout.decode"

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(params); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return domain.TooLarge(op, "Order is too large")
		}
		return domain.Invalid(op, "Invalid JSON body")
	}
	return nil
}

func decodeFormCheckout(r *http.Request, params *domain.CheckoutParams) error {
	const op = "checkout.decode"

	if err := r.ParseForm(); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return domain.TooLarge(op, "Order is too large")
		}
		return domain.Invalid(op, "Invalid form submission")
	}

	params.CustomerName = r.PostFormValue("customer_name")
	params.CustomerPhone = r.PostFormValue("customer_phone")
	params.Notes = r.PostFormValue("notes")

	cart := strings.TrimSpace(r.PostFormValue("cart"))
	if cart == "" {
		return domain.Invalid(op, "Your cart is empty")
	}
	if err := json.Unmarshal([]byte(cart), &params.Lines); err != nil {
		return domain.Invalid(op, "Your cart could not be read. Please add the items again.")
	}
	return nil
}

// fail answers JSON clients with the error and re-renders the cart form
// for browsers when the input was at fault.
func (h *CheckoutHandler) fail(w http.ResponseWriter, r *http.Request, params domain.CheckoutParams, err error) {
	if acceptsJSON(r) || domain.ErrorCode(err) != domain.EINVALID {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	h.logger.Info("checkout rejected", "error", err)
	h.renderer.RenderHTTPStatus(w, http.StatusBadRequest, "shop/cart", CartPageData{
		Page: Page{
			CurrentPath: "/cart",
			Flash:       &Flash{Type: "error", Message: domain.ErrorMessage(err)},
		},
		Form: CheckoutForm{
			CustomerName:  params.CustomerName,
			CustomerPhone: params.CustomerPhone,
			Notes:         params.Notes,
		},
	})
}
