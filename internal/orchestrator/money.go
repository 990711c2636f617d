package orchestrator

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// ParseMinorUnits converts a decimal amount string (already normalized
// by the model, e.g. "20000" or "20000.50") into integer minor currency
// units: the value times 100, truncated.
func ParseMinorUnits(amount string) (int64, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(amount))
	if err != nil {
		return 0, fmt.Errorf("ParseMinorUnits: parsing amount %q: %w", amount, err)
	}
	return d.Mul(decimal.NewFromInt(100)).IntPart(), nil
}

// Formatter renders minor-unit amounts as locale-formatted currency
// strings with grouping, two decimal places, and a prefixed symbol.
// Amounts stay in minor units everywhere else; this is presentation only.
type Formatter struct {
	printer *message.Printer
	symbol  string
}

// NewFormatter creates a formatter for the given BCP 47 locale and
// currency symbol. An unparseable locale falls back to Indonesian.
func NewFormatter(locale, symbol string) *Formatter {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.Indonesian
	}
	return &Formatter{
		printer: message.NewPrinter(tag),
		symbol:  symbol,
	}
}

// Format renders minor units as a currency string, e.g. 2000000 ->
// "Rp20.000,00" under the id locale. Negative amounts carry a leading
// minus sign before the symbol.
func (f *Formatter) Format(minor int64) string {
	sign := ""
	if minor < 0 {
		sign = "-"
		minor = -minor
	}
	major := float64(minor) / 100
	return sign + f.symbol + f.printer.Sprintf("%.2f", major)
}
