package core

import "github.com/shopspring/decimal"

// Summary holds the headline numbers of the dashboard.
type Summary struct {
	FocusedRevenue    decimal.Decimal
	GrandTotal        decimal.Decimal
	ActiveLabel       string
	FocusRatioPercent int
	CategoryCount     int
}

var hundred = decimal.NewFromInt(100)

// Summarize computes the summary for a selection over aggregate rows.
//
// With nothing selected the focused revenue is the grand total. A selection
// that matches no row focuses on zero revenue. The focus ratio is 0 when the
// grand total is zero.
func Summarize(sel Selection, rows []AggregateRow) Summary {
	grand := GrandTotal(rows)

	focused := grand
	if name, ok := sel.Category(); ok {
		focused = decimal.Zero
		for _, r := range rows {
			if r.Category == name {
				focused = r.Total
				break
			}
		}
	}

	return Summary{
		FocusedRevenue:    focused,
		GrandTotal:        grand,
		ActiveLabel:       sel.Label(),
		FocusRatioPercent: Percent(focused, grand),
		CategoryCount:     len(rows),
	}
}

// Percent returns round(100*part/whole), halves rounded away from zero, or 0
// when whole is zero.
func Percent(part, whole decimal.Decimal) int {
	if whole.IsZero() {
		return 0
	}
	return int(part.Mul(hundred).Div(whole).Round(0).IntPart())
}
