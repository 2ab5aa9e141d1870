package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DukeRupert/drapery/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockImages resolves keys to fake URLs; keys listed in missing fail.
type mockImages struct {
	missing map[string]bool
}

func (m *mockImages) URL(ctx context.Context, key string, expires time.Duration) (string, error) {
	if m.missing[key] {
		return "", errors.New("no such object")
	}
	return "https://cdn.example.com/" + key, nil
}

func newTestCatalogHandler(catalog *mockCatalogService) (*CatalogHandler, *mockRenderer) {
	renderer := &mockRenderer{}
	return NewCatalogHandler(catalog, plainMoney{}, &mockImages{}, renderer, newTestLogger()), renderer
}

func serveCatalog(h *CatalogHandler, req *http.Request) *httptest.ResponseRecorder {
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestHome_ShowsFeaturedProducts(t *testing.T) {
	var products []domain.Product
	for i := 0; i < featuredCount+3; i++ {
		products = append(products, testProducts()[i%2])
	}
	catalog := &mockCatalogService{
		ListFunc: func(ctx context.Context, category domain.ProductCategory) ([]domain.Product, error) {
			return products, nil
		},
	}
	h, renderer := newTestCatalogHandler(catalog)

	rec := serveCatalog(h, httptest.NewRequest("GET", "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	call := renderer.last()
	require.Equal(t, "shop/home", call.name)
	data := call.data.(HomePageData)
	assert.Len(t, data.Featured, featuredCount)
	assert.Equal(t, domain.AllCategories(), data.Categories)
	assert.Equal(t, "$45.00", data.Featured[0].Price)
	assert.Equal(t, "ivory", data.Featured[0].DefaultColor)
}

func TestHome_OnlyExactRoot(t *testing.T) {
	h, _ := newTestCatalogHandler(&mockCatalogService{})

	rec := serveCatalog(h, httptest.NewRequest("GET", "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestProducts_FiltersByCategory(t *testing.T) {
	var gotCategory domain.ProductCategory
	catalog := &mockCatalogService{
		ListFunc: func(ctx context.Context, category domain.ProductCategory) ([]domain.Product, error) {
			gotCategory = category
			return testProducts()[:1], nil
		},
	}
	h, renderer := newTestCatalogHandler(catalog)

	rec := serveCatalog(h, httptest.NewRequest("GET", "/products?category=Linen", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, domain.CategoryLinen, gotCategory)
	data := renderer.last().data.(ProductsPageData)
	assert.Equal(t, domain.CategoryLinen, data.Selected)
	assert.Len(t, data.Products, 1)
}

func TestProducts_UnknownCategory(t *testing.T) {
	h, renderer := newTestCatalogHandler(&mockCatalogService{})

	rec := serveCatalog(h, httptest.NewRequest("GET", "/products?category=silk", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, renderer.calls)
}

func TestProduct_RendersDetail(t *testing.T) {
	product := testProducts()[0]
	product.ImageKey = "catalog/linen-breeze.jpg"
	catalog := &mockCatalogService{
		GetFunc: func(ctx context.Context, slug string) (*domain.Product, error) {
			if slug != product.Slug {
				return nil, domain.NotFound("catalog.get", "product", slug)
			}
			return &product, nil
		},
	}
	h, renderer := newTestCatalogHandler(catalog)

	rec := serveCatalog(h, httptest.NewRequest("GET", "/products/linen-breeze", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	data := renderer.last().data.(ProductPageData)
	assert.Equal(t, "Linen Breeze", data.Product.Name)
	assert.Equal(t, "https://cdn.example.com/catalog/linen-breeze.jpg", data.Product.ImageURL)
	assert.Equal(t, domain.MaxLineQuantity, data.MaxQuantity)
	assert.Equal(t, domain.MinDimensionCm, data.MinDimension)
	assert.Equal(t, domain.MaxDimensionCm, data.MaxDimension)

	rec = serveCatalog(h, httptest.NewRequest("GET", "/products/velvet-dream", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestProductView_MissingImage(t *testing.T) {
	product := testProducts()[0]
	product.ImageKey = "catalog/gone.jpg"

	v := productView(context.Background(), &product, plainMoney{}, &mockImages{missing: map[string]bool{"catalog/gone.jpg": true}})

	assert.Empty(t, v.ImageURL)
	assert.Equal(t, "Linen Breeze", v.Name)
}

func TestCart_RendersForm(t *testing.T) {
	h, renderer := newTestCatalogHandler(&mockCatalogService{})

	rec := serveCatalog(h, httptest.NewRequest("GET", "/cart", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "shop/cart", renderer.last().name)
}

func TestContactURL(t *testing.T) {
	tests := []struct {
		phone string
		want  string
	}{
		{"+55 (11) 98765-4321", "https://wa.me/5511987654321"},
		{"5511987654321", "https://wa.me/5511987654321"},
		{"call me", ""},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, contactURL(tt.phone), tt.phone)
	}
}
