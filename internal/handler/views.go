package handler

import (
	"context"
	"time"

	"github.com/DukeRupert/drapery/internal/ai"
	"github.com/DukeRupert/drapery/internal/domain"
	"github.com/google/uuid"
)

// =============================================================================
// Common Page Data
// =============================================================================

// Flash represents a flash message to display to the user.
//
// The Type field determines styling in templates:
// - "success" -> green background
// - "error"   -> red background
// - "info"    -> blue background
type Flash struct {
	Type    string // "success", "error", or "info"
	Message string
}

// Page carries the fields every layout reads.
type Page struct {
	CurrentPath string // Current URL path for navigation highlighting
	CSRFToken   string // CSRF token for form protection
	Flash       *Flash // Flash message to display
}

// ImageURLer resolves storage keys to browser URLs. storage.Storage
// satisfies it.
type ImageURLer interface {
	URL(ctx context.Context, key string, expires time.Duration) (string, error)
}

// catalogImageExpiry is how long fabric image links on catalog pages stay valid.
const catalogImageExpiry = 6 * time.Hour

// =============================================================================
// Storefront Page Data
// =============================================================================

// ProductView is a product prepared for templates.
type ProductView struct {
	Slug         string
	Name         string
	Description  string
	Category     domain.ProductCategory
	PriceCents   int64
	Price        string
	Colors       []string
	DefaultColor string
	ImageURL     string
}

// HomePageData is passed to shop/home.
type HomePageData struct {
	Page
	Featured   []ProductView
	Categories []domain.ProductCategory
}

// ProductsPageData is passed to shop/products.
type ProductsPageData struct {
	Page
	Products   []ProductView
	Categories []domain.ProductCategory
	Selected   domain.ProductCategory
}

// ProductPageData is passed to shop/product.
type ProductPageData struct {
	Page
	Product      ProductView
	MaxQuantity  int
	MinDimension int
	MaxDimension int
}

// CheckoutForm re-populates the cart form after a failed checkout.
type CheckoutForm struct {
	CustomerName  string
	CustomerPhone string
	Notes         string
}

// CartPageData is passed to shop/cart.
type CartPageData struct {
	Page
	Form CheckoutForm
}

// DesignPageData is passed to shop/design.
type DesignPageData struct {
	Page
	Products   []ProductView
	Lights     []ai.LightExposure
	Selected   string // Product slug preselected in the mockup form
	MaxPhotoMB int
}

// =============================================================================
// Admin Page Data
// =============================================================================

// LoginPageData is passed to admin/login.
type LoginPageData struct {
	Page
	Error string
}

// OrderItemView is one order line prepared for templates.
type OrderItemView struct {
	Name      string
	Color     string
	Size      string
	Quantity  int
	UnitPrice string
	LineTotal string
}

// OrderView is an order prepared for templates.
type OrderView struct {
	ID            uuid.UUID
	Reference     string
	CustomerName  string
	CustomerPhone string
	ContactURL    string // wa.me link to the customer, empty if the phone has no digits
	Notes         string
	Status        domain.OrderStatus
	Items         []OrderItemView
	ItemCount     int
	Total         string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// StatusCount is one entry of the dashboard status filter.
type StatusCount struct {
	Status domain.OrderStatus
	Count  int64
	Active bool
}

// DashboardPageData is passed to admin/dashboard.
type DashboardPageData struct {
	Page
	Orders   []OrderView
	Statuses []StatusCount
	Filter   domain.OrderStatus
	Total    int64
	Revenue  string
}

// OrderPageData is passed to admin/order.
type OrderPageData struct {
	Page
	Order        OrderView
	NextStatuses []domain.OrderStatus
}

// =============================================================================
// Conversion Helpers
// =============================================================================

// Money formats minor units for display. *service.MoneyFormatter satisfies it.
type Money interface {
	Format(cents int64) string
}

func productView(ctx context.Context, p *domain.Product, money Money, images ImageURLer) ProductView {
	v := ProductView{
		Slug:         p.Slug,
		Name:         p.Name,
		Description:  p.Description,
		Category:     p.Category,
		PriceCents:   p.PriceCents,
		Price:        money.Format(p.PriceCents),
		Colors:       p.Colors,
		DefaultColor: p.DefaultColor(),
	}
	if p.ImageKey != "" && images != nil {
		// A missing image only costs the picture
		if url, err := images.URL(ctx, p.ImageKey, catalogImageExpiry); err == nil {
			v.ImageURL = url
		}
	}
	return v
}

func productViews(ctx context.Context, products []domain.Product, money Money, images ImageURLer) []ProductView {
	views := make([]ProductView, 0, len(products))
	for i := range products {
		views = append(views, productView(ctx, &products[i], money, images))
	}
	return views
}

func orderView(o *domain.Order, money Money) OrderView {
	items := make([]OrderItemView, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, OrderItemView{
			Name:      item.Name,
			Color:     item.Color,
			Size:      item.SizeLabel(),
			Quantity:  item.Quantity,
			UnitPrice: money.Format(item.UnitPriceCents),
			LineTotal: money.Format(item.LineTotalCents()),
		})
	}

	return OrderView{
		ID:            o.ID,
		Reference:     o.Reference(),
		CustomerName:  o.CustomerName,
		CustomerPhone: o.CustomerPhone,
		ContactURL:    contactURL(o.CustomerPhone),
		Notes:         o.Notes,
		Status:        o.Status,
		Items:         items,
		ItemCount:     o.ItemCount(),
		Total:         money.Format(o.TotalCents),
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
	}
}

// contactURL links to a WhatsApp chat with the customer.
func contactURL(phone string) string {
	digits := make([]rune, 0, len(phone))
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			digits = append(digits, r)
		}
	}
	if len(digits) == 0 {
		return ""
	}
	return "https://wa.me/" + string(digits)
}
