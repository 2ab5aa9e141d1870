// Package domain contains core business types and interfaces.
//
// This file defines the Order domain type. Orders are created at checkout
// and then followed up by the shop over WhatsApp; the admin dashboard moves
// them through their lifecycle.
package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// Order Status
// =============================================================================

// OrderStatus represents the lifecycle state of an order.
type OrderStatus string

const (
	// OrderStatusPending is set at checkout, before the shop has replied.
	OrderStatusPending OrderStatus = "pending"

	// OrderStatusConfirmed means payment and measurements were agreed.
	OrderStatusConfirmed OrderStatus = "confirmed"

	// OrderStatusShipped means the curtains left the workshop.
	OrderStatusShipped OrderStatus = "shipped"

	// OrderStatusDelivered is terminal.
	OrderStatusDelivered OrderStatus = "delivered"

	// OrderStatusCancelled is terminal.
	OrderStatusCancelled OrderStatus = "cancelled"
)

// AllOrderStatuses returns statuses in lifecycle order.
func AllOrderStatuses() []OrderStatus {
	return []OrderStatus{
		OrderStatusPending,
		OrderStatusConfirmed,
		OrderStatusShipped,
		OrderStatusDelivered,
		OrderStatusCancelled,
	}
}

// String returns the string representation of the status.
func (s OrderStatus) String() string {
	return string(s)
}

// IsValid returns true if the status is a recognized value.
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// IsTerminal returns true if no further transitions are possible.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// CanTransitionTo checks if the order can move to the target status.
//
// Valid transitions:
// - pending -> confirmed | cancelled
// - confirmed -> shipped | cancelled
// - shipped -> delivered
func (s OrderStatus) CanTransitionTo(target OrderStatus) bool {
	switch s {
	case OrderStatusPending:
		return target == OrderStatusConfirmed || target == OrderStatusCancelled
	case OrderStatusConfirmed:
		return target == OrderStatusShipped || target == OrderStatusCancelled
	case OrderStatusShipped:
		return target == OrderStatusDelivered
	}
	return false
}

// NextStatuses lists the statuses reachable from s, for rendering actions.
func (s OrderStatus) NextStatuses() []OrderStatus {
	var next []OrderStatus
	for _, target := range AllOrderStatuses() {
		if s.CanTransitionTo(target) {
			next = append(next, target)
		}
	}
	return next
}

// =============================================================================
// Order Domain Type
// =============================================================================

// OrderItem is one priced line of an order. Prices are copied from the
// catalog at checkout so later price changes do not alter placed orders.
type OrderItem struct {
	ProductID      uuid.UUID `json:"productId"`
	Slug           string    `json:"slug"`
	Name           string    `json:"name"`
	Color          string    `json:"color"`
	WidthCm        int       `json:"widthCm,omitempty"`
	HeightCm       int       `json:"heightCm,omitempty"`
	Quantity       int       `json:"quantity"`
	UnitPriceCents int64     `json:"unitPriceCents"`
}

// LineTotalCents returns quantity times unit price.
func (i OrderItem) LineTotalCents() int64 {
	return int64(i.Quantity) * i.UnitPriceCents
}

// SizeLabel returns "WxH cm" or "" when no size was given.
func (i OrderItem) SizeLabel() string {
	if i.WidthCm == 0 || i.HeightCm == 0 {
		return ""
	}
	return fmt.Sprintf("%dx%d cm", i.WidthCm, i.HeightCm)
}

// Order is a checkout request recorded before it is handed off to WhatsApp.
type Order struct {
	ID            uuid.UUID
	CustomerName  string
	CustomerPhone string
	Notes         string
	Items         []OrderItem
	TotalCents    int64
	Currency      string
	Status        OrderStatus
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Reference is the short human-facing order code.
func (o *Order) Reference() string {
	return OrderReference(o.ID)
}

// OrderReference returns the first 8 hex characters of the ID, upper case.
func OrderReference(id uuid.UUID) string {
	return strings.ToUpper(id.String()[:8])
}

// ItemCount returns the number of panels across all lines.
func (o *Order) ItemCount() int {
	n := 0
	for _, item := range o.Items {
		n += item.Quantity
	}
	return n
}

// TransitionTo moves the order to target, or returns an EINVALID error and
// leaves the status unchanged.
func (o *Order) TransitionTo(target OrderStatus) error {
	if !target.IsValid() {
		return Invalid("order.transition", fmt.Sprintf("unknown order status %q", target))
	}
	if !o.Status.CanTransitionTo(target) {
		return Invalid("order.transition", fmt.Sprintf("cannot transition order from %s to %s", o.Status, target))
	}
	o.Status = target
	return nil
}

// SumItems returns the total of all lines.
func SumItems(items []OrderItem) int64 {
	var total int64
	for _, item := range items {
		total += item.LineTotalCents()
	}
	return total
}

// =============================================================================
// Order Service Parameters
// =============================================================================

// CheckoutLine is one untrusted cart line submitted by the browser.
type CheckoutLine struct {
	Slug     string `json:"slug"`
	Quantity int    `json:"quantity"`
	Color    string `json:"color"`
	WidthCm  int    `json:"widthCm"`
	HeightCm int    `json:"heightCm"`
}

// CheckoutParams contains the cart and contact details submitted at checkout.
type CheckoutParams struct {
	CustomerName  string         `json:"customerName"`
	CustomerPhone string         `json:"customerPhone"`
	Notes         string         `json:"notes"`
	Lines         []CheckoutLine `json:"lines"`
}

// Checkout limits.
const (
	MaxCheckoutLines = 20
	MaxLineQuantity  = 20
	MinDimensionCm   = 30
	MaxDimensionCm   = 600
	MaxNotesLength   = 1000
)

// CheckoutResult is returned after an order has been persisted.
type CheckoutResult struct {
	Order       *Order
	WhatsAppURL string
}

// ListOrdersParams filters the admin order list.
type ListOrdersParams struct {
	Status OrderStatus // Empty for all statuses
	Limit  int32
}

// OrderStats summarizes orders for the dashboard.
type OrderStats struct {
	CountByStatus map[OrderStatus]int64
	RevenueCents  int64 // Sum of totals of orders that were not cancelled
}

// Total returns the number of orders across all statuses.
func (s OrderStats) Total() int64 {
	var n int64
	for _, c := range s.CountByStatus {
		n += c
	}
	return n
}
