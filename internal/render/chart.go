package render

import (
	"bytes"
	"errors"
	"fmt"
	"html"
	"io"

	"github.com/shopspring/decimal"
	"github.com/wcharczuk/go-chart/v2"

	"revdash/internal/core"
	"revdash/internal/dashboard"
)

// ChartKind names one of the dashboard charts.
type ChartKind string

const (
	ChartTimeSeries   ChartKind = "timeseries"
	ChartAggregate    ChartKind = "aggregate"
	ChartDistribution ChartKind = "distribution"
)

// ChartKinds lists every chart in page order.
var ChartKinds = []ChartKind{ChartTimeSeries, ChartAggregate, ChartDistribution}

var (
	ErrUnknownChart = errors.New("unknown chart")
	// ErrNothingToPlot is returned when the data cannot produce a chart, such
	// as a zero grand total or an empty series list.
	ErrNothingToPlot = errors.New("nothing to plot")
)

// ParseChartKind validates a chart name.
func ParseChartKind(s string) (ChartKind, error) {
	for _, k := range ChartKinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownChart, s)
}

// Title is the heading shown above the chart.
func (k ChartKind) Title() string {
	switch k {
	case ChartTimeSeries:
		return "Product Performance Over Time"
	case ChartAggregate:
		return "Total Product Performance"
	case ChartDistribution:
		return "Product Distribution"
	default:
		return string(k)
	}
}

// ChartRenderer draws dashboard snapshots as SVG.
type ChartRenderer struct {
	width   int
	height  int
	palette Palette
	format  *Formatter
}

// NewChartRenderer returns a renderer producing width x height SVGs.
func NewChartRenderer(width, height int, palette Palette, format *Formatter) *ChartRenderer {
	if format == nil {
		format = DefaultFormatter()
	}
	return &ChartRenderer{width: width, height: height, palette: palette, format: format}
}

// Render writes the SVG of one chart for snap. Nothing is written on error.
func (r *ChartRenderer) Render(w io.Writer, kind ChartKind, snap dashboard.Snapshot) error {
	var buf bytes.Buffer
	var err error
	switch kind {
	case ChartTimeSeries:
		err = r.timeSeries(&buf, snap.TimeSeries)
	case ChartAggregate:
		err = r.aggregate(&buf, snap.Aggregate, snap.Selection)
	case ChartDistribution:
		err = r.distribution(&buf, snap.Distribution, snap.Selection)
	default:
		err = fmt.Errorf("%w: %q", ErrUnknownChart, kind)
	}
	if err != nil {
		return err
	}
	_, err = buf.WriteTo(w)
	return err
}

// Fallback writes the placeholder shown in place of kind after a render
// failure caused by cause.
func (r *ChartRenderer) Fallback(w io.Writer, kind ChartKind, cause error) error {
	msg := "Chart unavailable"
	if errors.Is(cause, ErrNothingToPlot) {
		msg = "No revenue to display"
	}
	return r.Placeholder(w, kind.Title(), msg)
}

// Placeholder writes a plain SVG box with a title and message.
func (r *ChartRenderer) Placeholder(w io.Writer, title, msg string) error {
	_, err := fmt.Fprintf(w,
		`<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">`+
			`<rect width="100%%" height="100%%" fill="#f9fafb" stroke="#e5e7eb"/>`+
			`<text x="50%%" y="24" text-anchor="middle" font-family="sans-serif" font-size="14" fill="#1f2937">%s</text>`+
			`<text x="50%%" y="50%%" text-anchor="middle" font-family="sans-serif" font-size="12" fill="#6b7280">%s</text>`+
			`</svg>`,
		r.width, r.height, r.width, r.height, html.EscapeString(title), html.EscapeString(msg))
	return err
}

func (r *ChartRenderer) valueFormatter(v interface{}) string {
	if f, ok := v.(float64); ok {
		return r.format.Number(decimal.NewFromFloat(f).Round(0))
	}
	return fmt.Sprint(v)
}

func (r *ChartRenderer) timeSeries(w io.Writer, ts core.TimeSeries) error {
	if len(ts.Series) == 0 || len(ts.Points) < 2 {
		return fmt.Errorf("%w: %d series over %d periods", ErrNothingToPlot, len(ts.Series), len(ts.Points))
	}

	xs := make([]float64, len(ts.Points))
	ticks := make([]chart.Tick, len(ts.Points))
	for i, p := range ts.Points {
		xs[i] = float64(i)
		ticks[i] = chart.Tick{Value: float64(i), Label: p.Label}
	}

	peak := 0.0
	series := make([]chart.Series, 0, len(ts.Series))
	for i, name := range ts.Series {
		ys := make([]float64, len(ts.Points))
		for j, p := range ts.Points {
			v, _ := p.Value(name)
			ys[j] = v.InexactFloat64()
			if ys[j] > peak {
				peak = ys[j]
			}
		}
		col := drawingColor(r.palette.At(i), 1)
		series = append(series, chart.ContinuousSeries{
			Name:    name,
			XValues: xs,
			YValues: ys,
			Style: chart.Style{
				StrokeColor: col,
				StrokeWidth: 2,
				DotColor:    col,
				DotWidth:    3,
			},
		})
	}
	if peak == 0 {
		return fmt.Errorf("%w: all values are zero", ErrNothingToPlot)
	}

	ch := chart.Chart{
		Title:      ChartTimeSeries.Title(),
		Width:      r.width,
		Height:     r.height,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		XAxis:      chart.XAxis{Ticks: ticks},
		YAxis: chart.YAxis{
			Range:          &chart.ContinuousRange{Min: 0, Max: peak * 1.1},
			ValueFormatter: r.valueFormatter,
		},
		Series: series,
	}
	ch.Elements = []chart.Renderable{chart.Legend(&ch)}
	return ch.Render(chart.SVG, w)
}

func (r *ChartRenderer) aggregate(w io.Writer, rows []core.AggregateRow, sel core.Selection) error {
	if core.GrandTotal(rows).IsZero() {
		return fmt.Errorf("%w: grand total is zero", ErrNothingToPlot)
	}

	bars := make([]chart.Value, len(rows))
	for i, row := range rows {
		e := r.palette.Segment(i, row.Category, sel)
		col := drawingColor(e.Color, e.Opacity)
		bars[i] = chart.Value{
			Label: row.Category,
			Value: row.Total.InexactFloat64(),
			Style: chart.Style{FillColor: col, StrokeColor: col, StrokeWidth: 1},
		}
	}

	bc := chart.BarChart{
		Title:      ChartAggregate.Title(),
		Width:      r.width,
		Height:     r.height,
		BarWidth:   r.width / (2*len(bars) + 1),
		Background: chart.Style{Padding: chart.Box{Top: 40}},
		YAxis:      chart.YAxis{ValueFormatter: r.valueFormatter},
		Bars:       bars,
	}
	return bc.Render(chart.SVG, w)
}

func (r *ChartRenderer) distribution(w io.Writer, rows []core.DistributionRow, sel core.Selection) error {
	shares := Shares(rows)
	total := decimal.Zero
	for _, s := range shares {
		total = total.Add(s.Value)
	}
	if total.IsZero() {
		return fmt.Errorf("%w: grand total is zero", ErrNothingToPlot)
	}

	values := make([]chart.Value, len(shares))
	for i, s := range shares {
		e := r.palette.Segment(i, s.Category, sel)
		col := drawingColor(e.Color, e.Opacity)
		values[i] = chart.Value{
			Label: fmt.Sprintf("%s %s", s.Category, Percent(s.Percent)),
			Value: s.Value.InexactFloat64(),
			Style: chart.Style{FillColor: col, StrokeColor: drawingColor("#ffffff", 1), StrokeWidth: 1},
		}
	}

	pc := chart.PieChart{
		Title:  ChartDistribution.Title(),
		Width:  r.width,
		Height: r.height,
		Values: values,
	}
	return pc.Render(chart.SVG, w)
}
