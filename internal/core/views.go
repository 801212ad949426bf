package core

import "github.com/shopspring/decimal"

type (
	// SeriesValue is one category's value within a projected period.
	SeriesValue struct {
		Category string
		Value    decimal.Decimal
	}

	// ProjectedPoint is a period restricted to the plotted categories.
	ProjectedPoint struct {
		Label  string
		Values []SeriesValue
	}

	// TimeSeries is the per-period view. Series lists the plotted categories
	// in category order; every point carries exactly those keys.
	TimeSeries struct {
		Series []string
		Points []ProjectedPoint
	}

	// AggregateRow is a category's total across all periods.
	AggregateRow struct {
		Category string
		Total    decimal.Decimal
	}

	// DistributionRow carries the same totals as AggregateRow, read as
	// shares of the whole by the renderer.
	DistributionRow struct {
		Category string
		Value    decimal.Decimal
	}
)

// Value returns the value plotted for category in this period.
func (p ProjectedPoint) Value(category string) (decimal.Decimal, bool) {
	for _, v := range p.Values {
		if v.Category == category {
			return v.Value, true
		}
	}
	return decimal.Zero, false
}

// Project restricts every period to the selected category, or keeps all
// categories when nothing is selected. A selection naming an unknown category
// yields periods with no plotted series.
func Project(d Dataset, sel Selection) TimeSeries {
	series := make([]string, 0, len(d.categories))
	if name, ok := sel.Category(); ok {
		if d.categories.Contains(name) {
			series = append(series, name)
		}
	} else {
		series = append(series, d.categories...)
	}

	points := make([]ProjectedPoint, len(d.points))
	for i, p := range d.points {
		values := make([]SeriesValue, 0, len(series))
		for _, c := range series {
			values = append(values, SeriesValue{Category: c, Value: p.Values[c]})
		}
		points[i] = ProjectedPoint{Label: p.Label, Values: values}
	}
	return TimeSeries{Series: series, Points: points}
}

// Aggregate sums each category over every period, in category order. It never
// looks at the selection.
func Aggregate(d Dataset) []AggregateRow {
	rows := make([]AggregateRow, len(d.categories))
	for i, c := range d.categories {
		total := decimal.Zero
		for _, p := range d.points {
			total = total.Add(p.Values[c])
		}
		rows[i] = AggregateRow{Category: c, Total: total}
	}
	return rows
}

// Distribute relabels aggregate rows for the distribution chart. Values are
// raw totals; proportions are the renderer's job.
func Distribute(rows []AggregateRow) []DistributionRow {
	out := make([]DistributionRow, len(rows))
	for i, r := range rows {
		out[i] = DistributionRow{Category: r.Category, Value: r.Total}
	}
	return out
}

// GrandTotal sums the aggregate rows.
func GrandTotal(rows []AggregateRow) decimal.Decimal {
	total := decimal.Zero
	for _, r := range rows {
		total = total.Add(r.Total)
	}
	return total
}
