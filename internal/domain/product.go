// Package domain contains core business types and interfaces.
//
// This file defines the Product domain type for the curtain catalog.
package domain

import (
	"database/sql"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// Product Category
// =============================================================================

// ProductCategory groups curtains by fabric family.
type ProductCategory string

const (
	CategoryBlackout ProductCategory = "blackout"
	CategorySheer    ProductCategory = "sheer"
	CategoryLinen    ProductCategory = "linen"
	CategoryVelvet   ProductCategory = "velvet"
)

// AllCategories returns categories in display order.
func AllCategories() []ProductCategory {
	return []ProductCategory{CategoryBlackout, CategorySheer, CategoryLinen, CategoryVelvet}
}

// String returns the string representation of the category.
func (c ProductCategory) String() string {
	return string(c)
}

// IsValid returns true if the category is a recognized value.
func (c ProductCategory) IsValid() bool {
	switch c {
	case CategoryBlackout, CategorySheer, CategoryLinen, CategoryVelvet:
		return true
	}
	return false
}

// ParseCategory normalizes user input. An empty string yields "" with no
// error, meaning "all categories".
func ParseCategory(s string) (ProductCategory, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return "", nil
	}
	c := ProductCategory(s)
	if !c.IsValid() {
		return "", Invalid("product.parse_category", "Unknown product category")
	}
	return c, nil
}

// =============================================================================
// Product Domain Type
// =============================================================================

// Product is a curtain model sold per panel.
type Product struct {
	ID          uuid.UUID
	Slug        string
	Name        string
	Description string
	Category    ProductCategory
	PriceCents  int64    // Price per panel
	Colors      []string // Available colour names, lower case
	ImageKey    string   // Storage key of the fabric swatch
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// HasColor reports whether the colour is offered, ignoring case.
func (p *Product) HasColor(color string) bool {
	color = strings.ToLower(strings.TrimSpace(color))
	return slices.Contains(p.Colors, color)
}

// DefaultColor returns the first listed colour, or "".
func (p *Product) DefaultColor() string {
	if len(p.Colors) == 0 {
		return ""
	}
	return p.Colors[0]
}

// =============================================================================
// Null helpers
// =============================================================================

// NullStringValue safely extracts a string from sql.NullString.
func NullStringValue(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

// ToNullString converts a string to sql.NullString.
// Empty strings are converted to NULL.
func ToNullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{Valid: false}
	}
	return sql.NullString{String: s, Valid: true}
}
