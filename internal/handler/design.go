package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/DukeRupert/drapery/internal/ai"
	"github.com/DukeRupert/drapery/internal/domain"
	"github.com/DukeRupert/drapery/internal/service"
	"github.com/DukeRupert/drapery/internal/templ/partials"
	"github.com/a-h/templ"
)

const (
	// maxAdviceBody bounds the advice request.
	maxAdviceBody = 16 * 1024

	// multipartOverhead leaves room for form fields next to the photo.
	multipartOverhead = 1 << 20
)

// AdviceResponse is the JSON reply to POST /design/advice.
type AdviceResponse struct {
	Summary         string                   `json:"summary"`
	Recommendations []RecommendationResponse `json:"recommendations"`
	CareTips        []string                 `json:"careTips"`
}

// RecommendationResponse is one suggested curtain in an AdviceResponse.
type RecommendationResponse struct {
	Category    string `json:"category"`
	Color       string `json:"color"`
	ProductSlug string `json:"productSlug"`
	Reason      string `json:"reason"`
}

// MockupResponse is the JSON reply to POST /design/mockup.
type MockupResponse struct {
	URL     string `json:"url"`
	Product string `json:"product"`
	Color   string `json:"color"`
	Width   int    `json:"width"`
	Height  int    `json:"height"`
}

// adviceRequestJSON is the JSON body accepted by POST /design/advice.
type adviceRequestJSON struct {
	RoomType      string   `json:"roomType"`
	Style         string   `json:"style"`
	Colors        []string `json:"colors"`
	LightExposure string   `json:"lightExposure"`
	Notes         string   `json:"notes"`
}

// DesignHandler serves the design assistant: AI advice and room mockups.
//
// Routes handled:
// - GET  /design         -> ShowDesign
// - POST /design/advice  -> Advice (rate limited)
// - POST /design/mockup  -> Mockup (rate limited)
type DesignHandler struct {
	design   service.DesignService
	catalog  service.CatalogService
	money    Money
	renderer TemplateRenderer
	logger   *slog.Logger
}

// NewDesignHandler creates a new DesignHandler.
func NewDesignHandler(
	design service.DesignService,
	catalog service.CatalogService,
	money Money,
	renderer TemplateRenderer,
	logger *slog.Logger,
) *DesignHandler {
	return &DesignHandler{
		design:   design,
		catalog:  catalog,
		money:    money,
		renderer: renderer,
		logger:   logger,
	}
}

// RegisterRoutes registers the design routes. limit wraps the AI
// endpoints, typically with a per-IP rate limiter.
func (h *DesignHandler) RegisterRoutes(mux *http.ServeMux, limit func(http.Handler) http.Handler) {
	mux.HandleFunc("GET /design", h.ShowDesign)
	mux.Handle("POST /design/advice", limit(http.HandlerFunc(h.Advice)))
	mux.Handle("POST /design/mockup", limit(http.HandlerFunc(h.Mockup)))
}

// =============================================================================
// GET /design
// =============================================================================

// ShowDesign renders the advice and mockup forms.
//
// Query Parameters:
// - product (optional): slug preselected in the mockup form
func (h *DesignHandler) ShowDesign(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.List(r.Context(), "")
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	h.renderer.RenderHTTP(w, "shop/design", DesignPageData{
		Page:       Page{CurrentPath: r.URL.Path},
		Products:   productViews(r.Context(), products, h.money, nil),
		Lights:     []ai.LightExposure{ai.LightLow, ai.LightMedium, ai.LightHigh},
		Selected:   r.URL.Query().Get("product"),
		MaxPhotoMB: service.MaxRoomPhotoSize >> 20,
	})
}

// =============================================================================
// POST /design/advice
// =============================================================================

// Advice asks the design assistant for curtain recommendations.
//
// Form Fields (or the matching JSON keys):
// - room_type (required)
// - style, notes (optional)
// - colors (optional): comma-separated
// - light (optional): low, medium or high
func (h *DesignHandler) Advice(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxAdviceBody)

	req, err := decodeAdviceRequest(r)
	if err != nil {
		h.designError(w, r, err)
		return
	}

	advice, err := h.design.Advice(r.Context(), req)
	if err != nil {
		h.designError(w, r, err)
		return
	}

	if acceptsJSON(r) {
		writeJSON(w, http.StatusOK, adviceResponse(advice))
		return
	}

	h.renderComponent(w, r, http.StatusOK, partials.AdviceResult(h.adviceResultData(r, advice)))
}

func decodeAdviceRequest(r *http.Request) (service.AdviceRequest, error) {
	const op = "design.decode_advice"

	if strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		var body adviceRequestJSON
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			return service.AdviceRequest{}, domain.Invalid(op, "Invalid JSON body")
		}
		return service.AdviceRequest{
			RoomType:      body.RoomType,
			Style:         body.Style,
			Colors:        body.Colors,
			LightExposure: ai.ParseLightExposure(body.LightExposure),
			Notes:         body.Notes,
		}, nil
	}

	if err := r.ParseForm(); err != nil {
		return service.AdviceRequest{}, domain.Invalid(op, "Invalid form submission")
	}
	return service.AdviceRequest{
		RoomType:      r.PostFormValue("room_type"),
		Style:         r.PostFormValue("style"),
		Colors:        strings.Split(r.PostFormValue("colors"), ","),
		LightExposure: ai.ParseLightExposure(r.PostFormValue("light")),
		Notes:         r.PostFormValue("notes"),
	}, nil
}

func adviceResponse(advice *ai.DesignAdvice) AdviceResponse {
	resp := AdviceResponse{
		Summary:         advice.Summary,
		Recommendations: make([]RecommendationResponse, 0, len(advice.Recommendations)),
		CareTips:        advice.CareTips,
	}
	if resp.CareTips == nil {
		resp.CareTips = []string{}
	}
	for _, rec := range advice.Recommendations {
		resp.Recommendations = append(resp.Recommendations, RecommendationResponse{
			Category:    rec.Category,
			Color:       rec.Color,
			ProductSlug: rec.ProductSlug,
			Reason:      rec.Reason,
		})
	}
	return resp
}

// adviceResultData attaches product names and prices to recommendations
// that name a catalog product.
func (h *DesignHandler) adviceResultData(r *http.Request, advice *ai.DesignAdvice) partials.AdviceResultData {
	products := make(map[string]domain.Product)
	if list, err := h.catalog.List(r.Context(), ""); err == nil {
		for _, p := range list {
			products[p.Slug] = p
		}
	} else {
		h.logger.Warn("failed to load catalog for advice links", "error", err)
	}

	data := partials.AdviceResultData{
		Summary:  advice.Summary,
		CareTips: advice.CareTips,
	}
	for _, rec := range advice.Recommendations {
		display := partials.RecommendationDisplay{
			Category: rec.Category,
			Color:    rec.Color,
			Reason:   rec.Reason,
		}
		if p, ok := products[rec.ProductSlug]; ok {
			display.ProductName = p.Name
			display.ProductURL = "/products/" + p.Slug
			display.Price = h.money.Format(p.PriceCents)
		}
		data.Recommendations = append(data.Recommendations, display)
	}
	return data
}

// =============================================================================
// POST /design/mockup
// =============================================================================

// Mockup renders curtains into an uploaded room photo.
//
// Form Fields (multipart):
// - photo (required): JPEG, PNG or GIF up to service.MaxRoomPhotoSize
// - product (required): product slug
// - color (optional): defaults to the product's first colour
func (h *DesignHandler) Mockup(w http.ResponseWriter, r *http.Request) {
	const op = "design.mockup_upload"

	r.Body = http.MaxBytesReader(w, r.Body, service.MaxRoomPhotoSize+multipartOverhead)

	if err := r.ParseMultipartForm(multipartOverhead); err != nil {
		h.designError(w, r, uploadError(op, err))
		return
	}
	defer func() {
		_ = r.MultipartForm.RemoveAll()
	}()

	file, header, err := r.FormFile("photo")
	if err != nil {
		h.designError(w, r, domain.Invalid(op, "Please choose a photo of your window"))
		return
	}
	defer file.Close()

	photo, err := io.ReadAll(file)
	if err != nil {
		h.designError(w, r, uploadError(op, err))
		return
	}

	out, err := h.design.Mockup(r.Context(), service.MockupRequest{
		ProductSlug:     r.FormValue("product"),
		Color:           r.FormValue("color"),
		RoomImage:       photo,
		RoomContentType: header.Header.Get("Content-Type"),
	})
	if err != nil {
		h.designError(w, r, err)
		return
	}

	if acceptsJSON(r) {
		writeJSON(w, http.StatusOK, MockupResponse{
			URL:     out.URL,
			Product: out.Product.Slug,
			Color:   out.Color,
			Width:   out.Width,
			Height:  out.Height,
		})
		return
	}

	h.renderComponent(w, r, http.StatusOK, partials.MockupResult(partials.MockupResultData{
		ImageURL:    out.URL,
		ProductName: out.Product.Name,
		ProductURL:  "/products/" + out.Product.Slug,
		Color:       out.Color,
		Width:       out.Width,
		Height:      out.Height,
	}))
}

func uploadError(op string, err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return domain.TooLarge(op, "Photo is too large. The limit is 10 MB.")
	}
	return domain.Invalid(op, "Upload failed. Please try another photo.")
}

// =============================================================================
// Response Helpers
// =============================================================================

// designError answers API clients with JSON and htmx with an alert
// fragment carrying the same status.
func (h *DesignHandler) designError(w http.ResponseWriter, r *http.Request, err error) {
	if acceptsJSON(r) {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	code := domain.ErrorCode(err)
	status := ErrorCodeToHTTPStatus(code)
	logError(h.logger, r, err, code, domain.ErrorOp(err), status)

	h.renderComponent(w, r, status, partials.Alert(partials.AlertError, domain.ErrorMessage(err)))
}

func (h *DesignHandler) renderComponent(w http.ResponseWriter, r *http.Request, status int, c templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := c.Render(r.Context(), w); err != nil {
		h.logger.Error("failed to render fragment", "path", r.URL.Path, "error", err)
	}
}
