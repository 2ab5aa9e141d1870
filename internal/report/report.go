// Package report renders printable order sheets for the workroom.
//
// A sheet lists what to sew for one order: every line with its fabric,
// colour and finished size, plus the customer contact and notes.
package report

import (
	"context"
	"io"
	"time"

	"github.com/DukeRupert/drapery/internal/domain"
)

// =============================================================================
// Generator Interface
// =============================================================================

// Generator defines the interface for order sheet generators.
type Generator interface {
	// Generate writes the sheet to w and returns the number of bytes written.
	Generate(ctx context.Context, sheet *OrderSheet, w io.Writer) (int64, error)

	// ContentType is the MIME type of the generated document.
	ContentType() string
}

// =============================================================================
// Sheet Data
// =============================================================================

// OrderSheet is an order with every amount already formatted.
type OrderSheet struct {
	StoreName     string
	Reference     string
	Status        string
	CreatedAt     time.Time
	CustomerName  string
	CustomerPhone string
	Notes         string
	Lines         []SheetLine
	Panels        int
	Total         string
}

// SheetLine is one line of an OrderSheet.
type SheetLine struct {
	Name      string
	Color     string
	Size      string
	Quantity  int
	UnitPrice string
	Amount    string
}

// NewOrderSheet builds the sheet for an order. format renders cents in the
// store currency.
func NewOrderSheet(storeName string, order *domain.Order, format func(int64) string) *OrderSheet {
	sheet := &OrderSheet{
		StoreName:     storeName,
		Reference:     order.Reference(),
		Status:        order.Status.String(),
		CreatedAt:     order.CreatedAt,
		CustomerName:  order.CustomerName,
		CustomerPhone: order.CustomerPhone,
		Notes:         order.Notes,
		Panels:        order.ItemCount(),
		Total:         format(order.TotalCents),
	}

	for _, item := range order.Items {
		size := item.SizeLabel()
		if size == "" {
			size = "Standard"
		}
		sheet.Lines = append(sheet.Lines, SheetLine{
			Name:      item.Name,
			Color:     item.Color,
			Size:      size,
			Quantity:  item.Quantity,
			UnitPrice: format(item.UnitPriceCents),
			Amount:    format(item.LineTotalCents()),
		})
	}

	return sheet
}

// =============================================================================
// Brand Colors
// =============================================================================

// BrandColors defines the color palette for sheets.
var BrandColors = struct {
	Primary    string // Header bar
	TextDark   string // Primary text
	TextMuted  string // Secondary text
	Border     string // Table rules
	Background string // Table header fill
}{
	Primary:    "#3F3A36",
	TextDark:   "#1F2937",
	TextMuted:  "#6B7280",
	Border:     "#E5E7EB",
	Background: "#F5F1EB",
}

// =============================================================================
// Color Conversion Helpers
// =============================================================================

// HexToRGB converts a hex color string to RGB values.
// Input format: "#RRGGBB" or "RRGGBB"
func HexToRGB(hex string) (r, g, b int) {
	if len(hex) > 0 && hex[0] == '#' {
		hex = hex[1:]
	}
	if len(hex) != 6 {
		return 0, 0, 0
	}

	r = hexToDec(hex[0:2])
	g = hexToDec(hex[2:4])
	b = hexToDec(hex[4:6])
	return
}

// hexToDec converts a 2-character hex string to decimal.
func hexToDec(hex string) int {
	val := 0
	for _, c := range hex {
		val *= 16
		switch {
		case c >= '0' && c <= '9':
			val += int(c - '0')
		case c >= 'a' && c <= 'f':
			val += int(c - 'a' + 10)
		case c >= 'A' && c <= 'F':
			val += int(c - 'A' + 10)
		}
	}
	return val
}

// =============================================================================
// Text Formatting Helpers
// =============================================================================

// TruncateText shortens text to maxLen runes, adding an ellipsis if needed.
func TruncateText(text string, maxLen int) string {
	runes := []rune(text)
	if len(runes) <= maxLen {
		return text
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}

// FormatDateTime formats a datetime for display on a sheet.
func FormatDateTime(t time.Time) string {
	return t.Format("January 2, 2006 at 3:04 PM")
}
