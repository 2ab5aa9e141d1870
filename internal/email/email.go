// Package email sends the shop owner a notice for every order placed.
//
// The storefront hands customers off to WhatsApp, so the email is the
// owner's record of the order even if the chat is never sent.
package email

import (
	"context"
)

// =============================================================================
// Interface Definition
// =============================================================================

// Notifier defines the interface for order notifications.
type Notifier interface {
	// SendOrderPlaced emails the shop owner the details of a new order.
	SendOrderPlaced(ctx context.Context, order OrderPlaced) error
}

// =============================================================================
// Email Data Types
// =============================================================================

// Email represents a single email message.
type Email struct {
	To       string // Recipient email address
	Subject  string // Email subject line
	HTMLBody string // HTML content of the email
	TextBody string // Plain text fallback content
}

// OrderPlaced carries an order with prices already formatted for display.
type OrderPlaced struct {
	Reference     string
	CustomerName  string
	CustomerPhone string
	Notes         string
	Lines         []OrderLine
	Total         string
	AdminURL      string // Link to the order in the admin dashboard
}

// OrderLine is one line of an OrderPlaced.
type OrderLine struct {
	Name     string
	Color    string
	Size     string // "140x250 cm" or empty
	Quantity int
	Amount   string
}

// =============================================================================
// Configuration Types
// =============================================================================

// SMTPConfig holds SMTP server configuration.
type SMTPConfig struct {
	Host     string // SMTP server hostname (e.g., "localhost" for Mailhog)
	Port     int    // SMTP server port (e.g., 1025 for Mailhog)
	Username string // SMTP authentication username (empty for Mailhog)
	Password string // SMTP authentication password (empty for Mailhog)
	From     string // Sender email address
	FromName string // Sender display name
	To       string // Shop owner address that receives order notices
}

const (
	// DefaultFromEmail is the sender used when SMTP_FROM is not set.
	DefaultFromEmail = "orders@drapery.local"

	// DefaultFromName is the sender display name used when none is given.
	DefaultFromName = "Drapery"
)
