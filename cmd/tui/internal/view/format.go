package view

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const defaultLocale = "es-MX"

// Formatter renders amounts with the operator's locale grouping.
type Formatter struct {
	printer *message.Printer
}

func NewFormatter(locale string) *Formatter {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.MustParse(defaultLocale)
	}

	return &Formatter{printer: message.NewPrinter(tag)}
}

// Amount formats d as currency with two decimals, e.g. $1,250.50.
func (f *Formatter) Amount(d decimal.Decimal) string {
	return f.printer.Sprintf("$%.2f", d.Round(2).InexactFloat64())
}

// FormatDate formats a time.Time into YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format("2006-01-02")
}

// LedgerCtx bounds one ledger round trip. The HTTP client carries its own timeout as well.
func LedgerCtx(timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), timeout)
}
