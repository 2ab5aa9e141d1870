package service

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/DukeRupert/drapery/internal/domain"
)

// WhatsAppLinker turns a placed order into a wa.me deep link that opens a
// chat with the store, pre-filled with the order summary.
type WhatsAppLinker struct {
	number    string // Digits only, international format without "+"
	storeName string
	money     *MoneyFormatter
}

// NewWhatsAppLinker creates a linker for the store's WhatsApp number.
func NewWhatsAppLinker(number, storeName string, money *MoneyFormatter) *WhatsAppLinker {
	return &WhatsAppLinker{
		number:    number,
		storeName: storeName,
		money:     money,
	}
}

// Message builds the chat text for an order.
func (l *WhatsAppLinker) Message(order *domain.Order) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Hello %s! I would like to place order #%s:\n\n", l.storeName, order.Reference())

	for _, item := range order.Items {
		fmt.Fprintf(&b, "- %d x %s", item.Quantity, item.Name)
		if item.Color != "" {
			fmt.Fprintf(&b, " (%s)", item.Color)
		}
		if size := item.SizeLabel(); size != "" {
			fmt.Fprintf(&b, ", %s", size)
		}
		fmt.Fprintf(&b, ": %s\n", l.money.Format(item.LineTotalCents()))
	}

	fmt.Fprintf(&b, "\nTotal: %s\n", l.money.Format(order.TotalCents))
	fmt.Fprintf(&b, "Name: %s\n", order.CustomerName)
	if order.CustomerPhone != "" {
		fmt.Fprintf(&b, "Phone: %s\n", order.CustomerPhone)
	}
	if order.Notes != "" {
		fmt.Fprintf(&b, "Notes: %s\n", order.Notes)
	}

	return strings.TrimRight(b.String(), "\n")
}

// URL returns https://wa.me/<number>?text=<message>.
func (l *WhatsAppLinker) URL(order *domain.Order) string {
	// wa.me does not decode "+" as a space.
	text := strings.ReplaceAll(url.QueryEscape(l.Message(order)), "+", "%20")
	return "https://wa.me/" + l.number + "?text=" + text
}
