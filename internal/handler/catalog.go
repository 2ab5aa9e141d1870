package handler

import (
	"log/slog"
	"net/http"

	"github.com/DukeRupert/drapery/internal/domain"
	"github.com/DukeRupert/drapery/internal/service"
)

// featuredCount is how many products the home page shows.
const featuredCount = 6

// CatalogHandler serves the public storefront pages.
//
// Routes handled:
// - GET /                 -> Home
// - GET /products         -> Products
// - GET /products/{slug}  -> Product
// - GET /cart             -> Cart
type CatalogHandler struct {
	catalog  service.CatalogService
	money    Money
	images   ImageURLer
	renderer TemplateRenderer
	logger   *slog.Logger
}

// NewCatalogHandler creates a new CatalogHandler.
func NewCatalogHandler(
	catalog service.CatalogService,
	money Money,
	images ImageURLer,
	renderer TemplateRenderer,
	logger *slog.Logger,
) *CatalogHandler {
	return &CatalogHandler{
		catalog:  catalog,
		money:    money,
		images:   images,
		renderer: renderer,
		logger:   logger,
	}
}

// RegisterRoutes registers the storefront routes.
func (h *CatalogHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", h.Home)
	mux.HandleFunc("GET /products", h.Products)
	mux.HandleFunc("GET /products/{slug}", h.Product)
	mux.HandleFunc("GET /cart", h.Cart)
}

// Home renders the landing page with featured products.
func (h *CatalogHandler) Home(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.List(r.Context(), "")
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	if len(products) > featuredCount {
		products = products[:featuredCount]
	}

	h.renderer.RenderHTTP(w, "shop/home", HomePageData{
		Page:       Page{CurrentPath: r.URL.Path},
		Featured:   productViews(r.Context(), products, h.money, h.images),
		Categories: domain.AllCategories(),
	})
}

// Products lists active products.
//
// Query Parameters:
// - category (optional): blackout, sheer, linen or velvet
func (h *CatalogHandler) Products(w http.ResponseWriter, r *http.Request) {
	category, err := domain.ParseCategory(r.URL.Query().Get("category"))
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	products, err := h.catalog.List(r.Context(), category)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	h.renderer.RenderHTTP(w, "shop/products", ProductsPageData{
		Page:       Page{CurrentPath: r.URL.Path},
		Products:   productViews(r.Context(), products, h.money, h.images),
		Categories: domain.AllCategories(),
		Selected:   category,
	})
}

// Product renders one product with the add-to-cart form.
func (h *CatalogHandler) Product(w http.ResponseWriter, r *http.Request) {
	product, err := h.catalog.Get(r.Context(), r.PathValue("slug"))
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	h.renderer.RenderHTTP(w, "shop/product", ProductPageData{
		Page:         Page{CurrentPath: r.URL.Path},
		Product:      productView(r.Context(), product, h.money, h.images),
		MaxQuantity:  domain.MaxLineQuantity,
		MinDimension: domain.MinDimensionCm,
		MaxDimension: domain.MaxDimensionCm,
	})
}

// Cart renders the checkout form. The cart itself is kept in the browser.
func (h *CatalogHandler) Cart(w http.ResponseWriter, r *http.Request) {
	h.renderer.RenderHTTP(w, "shop/cart", CartPageData{
		Page: Page{CurrentPath: r.URL.Path},
	})
}
