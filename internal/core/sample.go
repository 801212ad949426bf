package core

import "github.com/shopspring/decimal"

// SampleCategories are the product lines of the built-in dataset.
var SampleCategories = []string{"Product A", "Product B", "Product C"}

// SampleDataset returns the built-in six month revenue dataset.
func SampleDataset() Dataset {
	row := func(label string, a, b, c int64) DataPoint {
		return DataPoint{
			Label: label,
			Values: map[string]decimal.Decimal{
				"Product A": decimal.NewFromInt(a),
				"Product B": decimal.NewFromInt(b),
				"Product C": decimal.NewFromInt(c),
			},
		}
	}
	return MustDataset(SampleCategories, []DataPoint{
		row("Jan", 4000, 2400, 1800),
		row("Feb", 3000, 1398, 2800),
		row("Mar", 2000, 9800, 3200),
		row("Apr", 2780, 3908, 1908),
		row("May", 1890, 4800, 2400),
		row("Jun", 2390, 3800, 2980),
	})
}
