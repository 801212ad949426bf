package render

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"revdash/internal/dashboard"
)

// Terminal prints dashboard snapshots as tables.
type Terminal struct {
	out      io.Writer
	format   *Formatter
	selected *color.Color
	dimmed   *color.Color
	heading  *color.Color
}

// NewTerminal returns a terminal renderer writing to out. With useColor false
// no escape codes are emitted.
func NewTerminal(out io.Writer, format *Formatter, useColor bool) *Terminal {
	if format == nil {
		format = DefaultFormatter()
	}
	t := &Terminal{
		out:      out,
		format:   format,
		selected: color.New(color.FgGreen, color.Bold),
		dimmed:   color.New(color.FgHiBlack),
		heading:  color.New(color.FgCyan, color.Bold),
	}
	for _, c := range []*color.Color{t.selected, t.dimmed, t.heading} {
		if useColor {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return t
}

// Render prints the KPI block, the per-category totals and the time series.
func (t *Terminal) Render(snap dashboard.Snapshot) error {
	if err := t.Summary(snap); err != nil {
		return err
	}
	if err := t.Totals(snap); err != nil {
		return err
	}
	return t.TimeSeries(snap)
}

// Summary prints the four KPI widgets.
func (t *Terminal) Summary(snap dashboard.Snapshot) error {
	fmt.Fprintln(t.out, t.heading.Sprint("Dashboard"))

	table := tablewriter.NewWriter(t.out)
	table.Header([]string{"Metric", "Value"})
	data := [][]string{}
	for _, k := range t.format.KPIs(snap.Summary) {
		data = append(data, []string{k.Title, k.Value})
	}
	if err := table.Bulk(data); err != nil {
		return fmt.Errorf("summary table: %w", err)
	}
	return table.Render()
}

// Totals prints each category's total and share, highlighting the selected
// row and dimming the rest while a selection is active.
func (t *Terminal) Totals(snap dashboard.Snapshot) error {
	fmt.Fprintln(t.out, t.heading.Sprint(ChartAggregate.Title()))

	table := tablewriter.NewWriter(t.out)
	table.Header([]string{"Product", "Revenue", "Share"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	segments := NewPalette().Segments(snap.Categories, snap.Selection)
	shares := Shares(snap.Distribution)
	data := [][]string{}
	for i, s := range shares {
		row := []string{s.Category, t.format.Currency(s.Value), Percent(s.Percent)}
		if i < len(segments) {
			row = t.emphasize(row, segments[i])
		}
		data = append(data, row)
	}
	if err := table.Bulk(data); err != nil {
		return fmt.Errorf("totals table: %w", err)
	}
	return table.Render()
}

// TimeSeries prints one row per period with a column per plotted category.
func (t *Terminal) TimeSeries(snap dashboard.Snapshot) error {
	fmt.Fprintln(t.out, t.heading.Sprint(ChartTimeSeries.Title()))

	ts := snap.TimeSeries
	table := tablewriter.NewWriter(t.out)
	table.Header(append([]string{"Period"}, ts.Series...))
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	data := make([][]string, 0, len(ts.Points))
	for _, p := range ts.Points {
		row := []string{p.Label}
		for _, v := range p.Values {
			row = append(row, t.format.Number(v.Value))
		}
		data = append(data, row)
	}
	if err := table.Bulk(data); err != nil {
		return fmt.Errorf("time series table: %w", err)
	}
	return table.Render()
}

func (t *Terminal) emphasize(row []string, e Emphasis) []string {
	var c *color.Color
	switch {
	case e.Selected:
		c = t.selected
	case e.Dimmed():
		c = t.dimmed
	default:
		return row
	}
	out := make([]string, len(row))
	for i, cell := range row {
		out[i] = c.Sprint(cell)
	}
	return out
}
