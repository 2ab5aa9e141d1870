package service

import (
	"fmt"
	"math"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// MoneyFormatter renders amounts held in minor units (cents) for one store
// currency and language.
type MoneyFormatter struct {
	unit    currency.Unit
	scale   int
	printer *message.Printer
}

// NewMoneyFormatter parses an ISO 4217 code and a BCP 47 language tag.
func NewMoneyFormatter(currencyCode, lang string) (*MoneyFormatter, error) {
	unit, err := currency.ParseISO(currencyCode)
	if err != nil {
		return nil, fmt.Errorf("parse currency %q: %w", currencyCode, err)
	}
	tag, err := language.Parse(lang)
	if err != nil {
		return nil, fmt.Errorf("parse language %q: %w", lang, err)
	}

	scale, _ := currency.Standard.Rounding(unit)

	return &MoneyFormatter{
		unit:    unit,
		scale:   scale,
		printer: message.NewPrinter(tag),
	}, nil
}

// Currency returns the ISO code, e.g. "USD".
func (f *MoneyFormatter) Currency() string {
	return f.unit.String()
}

// Format renders cents with the currency symbol, e.g. "$ 69.00".
func (f *MoneyFormatter) Format(cents int64) string {
	amount := float64(cents) / math.Pow10(f.scale)
	return f.printer.Sprint(currency.Symbol(f.unit.Amount(amount)))
}
