package render

import (
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"revdash/internal/core"
)

// Formatter renders amounts for display in one locale.
type Formatter struct {
	printer *message.Printer
	symbol  string
}

// NewFormatter returns a formatter for a BCP 47 locale tag and currency
// symbol.
func NewFormatter(locale, symbol string) (*Formatter, error) {
	tag, err := language.Parse(locale)
	if err != nil {
		return nil, fmt.Errorf("parse locale %q: %w", locale, err)
	}
	return &Formatter{printer: message.NewPrinter(tag), symbol: symbol}, nil
}

// DefaultFormatter formats US dollars.
func DefaultFormatter() *Formatter {
	return &Formatter{printer: message.NewPrinter(language.AmericanEnglish), symbol: "$"}
}

// Number groups digits; whole amounts print without decimals.
func (f *Formatter) Number(d decimal.Decimal) string {
	if d.Equal(d.Truncate(0)) {
		return f.printer.Sprintf("%d", d.IntPart())
	}
	return f.printer.Sprintf("%.2f", d.Round(2).InexactFloat64())
}

// Currency prefixes Number with the currency symbol, e.g. "$57,254".
func (f *Formatter) Currency(d decimal.Decimal) string {
	if d.IsNegative() {
		return "-" + f.symbol + f.Number(d.Neg())
	}
	return f.symbol + f.Number(d)
}

// Percent formats a whole percentage, e.g. "46%".
func Percent(p int) string {
	return fmt.Sprintf("%d%%", p)
}

// Share is a distribution row normalized against the grand total.
type Share struct {
	Category string
	Value    decimal.Decimal
	Percent  int
}

// Shares normalizes distribution rows. Every share is 0 when the total is
// zero.
func Shares(rows []core.DistributionRow) []Share {
	total := decimal.Zero
	for _, r := range rows {
		total = total.Add(r.Value)
	}
	out := make([]Share, len(rows))
	for i, r := range rows {
		out[i] = Share{Category: r.Category, Value: r.Value, Percent: core.Percent(r.Value, total)}
	}
	return out
}

// KPI is one headline widget.
type KPI struct {
	Title string `json:"title"`
	Value string `json:"value"`
}

const (
	KPITotalRevenue   = "Total Revenue"
	KPIActiveProducts = "Active Products"
	KPIProductFocus   = "Product Focus"
	KPITotalProducts  = "Total Products"
)

// KPIs lays out the summary as the four dashboard widgets.
func (f *Formatter) KPIs(s core.Summary) []KPI {
	return []KPI{
		{Title: KPITotalRevenue, Value: f.Currency(s.FocusedRevenue)},
		{Title: KPIActiveProducts, Value: s.ActiveLabel},
		{Title: KPIProductFocus, Value: Percent(s.FocusRatioPercent)},
		{Title: KPITotalProducts, Value: fmt.Sprintf("%d", s.CategoryCount)},
	}
}
