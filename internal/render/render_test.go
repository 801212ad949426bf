package render

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"revdash/internal/core"
	"revdash/internal/dashboard"
)

func sampleSnapshot(t *testing.T, clicks ...string) dashboard.Snapshot {
	t.Helper()
	d := dashboard.New(core.SampleDataset())
	for _, c := range clicks {
		d.Activate(context.Background(), c)
	}
	return d.Snapshot()
}

func zeroSnapshot(t *testing.T) dashboard.Snapshot {
	t.Helper()
	zero := func(label string) core.DataPoint {
		return core.DataPoint{Label: label, Values: map[string]decimal.Decimal{
			"North": decimal.Zero,
			"South": decimal.Zero,
		}}
	}
	data, err := core.NewDataset([]string{"North", "South"}, []core.DataPoint{zero("Q1"), zero("Q2")})
	require.NoError(t, err)
	return dashboard.New(data).Snapshot()
}

func TestPaletteSegments(t *testing.T) {
	p := NewPalette()

	none := p.Segments(core.SampleCategories, core.NoSelection)
	require.Len(t, none, 3)
	assert.Equal(t, "#0088FE", none[0].Color)
	assert.Equal(t, "#00C49F", none[1].Color)
	assert.Equal(t, "#FFBB28", none[2].Color)
	for _, e := range none {
		assert.False(t, e.Dimmed())
		assert.False(t, e.Selected)
	}

	sel := p.Segments(core.SampleCategories, core.Select("Product B"))
	assert.Equal(t, SelectedColor, sel[1].Color)
	assert.True(t, sel[1].Selected)
	assert.Equal(t, 1.0, sel[1].Opacity)
	assert.Equal(t, DimOpacity, sel[0].Opacity)
	assert.Equal(t, DimOpacity, sel[2].Opacity)
	assert.Equal(t, "#0088FE", sel[0].Color)

	assert.Equal(t, "#0088FE", p.At(5))
	assert.Equal(t, "#111111", NewPalette("#111111").At(3))
}

func TestFormatter(t *testing.T) {
	f := DefaultFormatter()
	assert.Equal(t, "$57,254", f.Currency(decimal.NewFromInt(57254)))
	assert.Equal(t, "$0", f.Currency(decimal.Zero))
	assert.Equal(t, "1,234.50", f.Number(decimal.RequireFromString("1234.5")))
	assert.Equal(t, "-$12", f.Currency(decimal.NewFromInt(-12)))
	assert.Equal(t, "46%", Percent(46))

	eur, err := NewFormatter("en-GB", "€")
	require.NoError(t, err)
	assert.Equal(t, "€26,106", eur.Currency(decimal.NewFromInt(26106)))

	_, err = NewFormatter("??", "$")
	assert.Error(t, err)
}

func TestShares(t *testing.T) {
	snap := sampleSnapshot(t)
	shares := Shares(snap.Distribution)
	require.Len(t, shares, 3)
	assert.Equal(t, 28, shares[0].Percent)
	assert.Equal(t, 46, shares[1].Percent)
	assert.Equal(t, 26, shares[2].Percent)

	for _, s := range Shares(zeroSnapshot(t).Distribution) {
		assert.Equal(t, 0, s.Percent)
	}
}

func TestKPIs(t *testing.T) {
	f := DefaultFormatter()

	kpis := f.KPIs(sampleSnapshot(t).Summary)
	assert.Equal(t, []KPI{
		{Title: KPITotalRevenue, Value: "$57,254"},
		{Title: KPIActiveProducts, Value: "All"},
		{Title: KPIProductFocus, Value: "100%"},
		{Title: KPITotalProducts, Value: "3"},
	}, kpis)

	kpis = f.KPIs(sampleSnapshot(t, "Product B").Summary)
	assert.Equal(t, "$26,106", kpis[0].Value)
	assert.Equal(t, "Product B", kpis[1].Value)
	assert.Equal(t, "46%", kpis[2].Value)
}

func TestParseChartKind(t *testing.T) {
	for _, k := range ChartKinds {
		got, err := ParseChartKind(string(k))
		require.NoError(t, err)
		assert.Equal(t, k, got)
		assert.NotEmpty(t, k.Title())
	}
	_, err := ParseChartKind("scatter")
	assert.ErrorIs(t, err, ErrUnknownChart)
}

func TestChartRendererRendersEveryChart(t *testing.T) {
	r := NewChartRenderer(640, 320, NewPalette(), nil)

	for _, snap := range []dashboard.Snapshot{sampleSnapshot(t), sampleSnapshot(t, "Product A")} {
		for _, k := range ChartKinds {
			var buf bytes.Buffer
			require.NoError(t, r.Render(&buf, k, snap), "chart %s selection %s", k, snap.Selection)
			out := buf.String()
			assert.True(t, strings.HasPrefix(out, "<svg"), "chart %s", k)
			assert.Contains(t, out, "</svg>")
		}
	}
}

func TestChartRendererZeroTotalFallsBack(t *testing.T) {
	r := NewChartRenderer(640, 320, NewPalette(), nil)
	snap := zeroSnapshot(t)

	for _, k := range ChartKinds {
		var buf bytes.Buffer
		err := r.Render(&buf, k, snap)
		assert.ErrorIs(t, err, ErrNothingToPlot, "chart %s", k)
		assert.Zero(t, buf.Len(), "nothing is written on error")

		require.NoError(t, r.Fallback(&buf, k, err))
		assert.Contains(t, buf.String(), "No revenue to display")
		assert.Contains(t, buf.String(), k.Title())
	}
}

func TestChartRendererUnknownSelectionAndKind(t *testing.T) {
	r := NewChartRenderer(640, 320, NewPalette(), nil)
	snap := sampleSnapshot(t, "Product Z")

	var buf bytes.Buffer
	err := r.Render(&buf, ChartTimeSeries, snap)
	assert.True(t, errors.Is(err, ErrNothingToPlot))

	buf.Reset()
	require.NoError(t, r.Render(&buf, ChartAggregate, snap))

	buf.Reset()
	err = r.Render(&buf, ChartKind("radar"), snap)
	assert.ErrorIs(t, err, ErrUnknownChart)
	require.NoError(t, r.Fallback(&buf, ChartKind("radar"), err))
	assert.Contains(t, buf.String(), "Chart unavailable")
}

func TestPlaceholderEscapes(t *testing.T) {
	r := NewChartRenderer(100, 50, NewPalette(), nil)
	var buf bytes.Buffer
	require.NoError(t, r.Placeholder(&buf, "<b>", "a & b"))
	assert.Contains(t, buf.String(), "&lt;b&gt;")
	assert.Contains(t, buf.String(), "a &amp; b")
}

func TestTerminalRender(t *testing.T) {
	var buf bytes.Buffer
	term := NewTerminal(&buf, DefaultFormatter(), false)

	require.NoError(t, term.Render(sampleSnapshot(t, "Product B")))
	out := buf.String()

	assert.NotContains(t, out, "\x1b[")
	for _, want := range []string{"$26,106", "46%", "Product B", "$16,060", "$15,088", "9,800", "Jun"} {
		assert.Contains(t, out, want)
	}
	assert.NotContains(t, out, "4,000", "time series only shows the selected product")
}

func TestTerminalHighlightsSelection(t *testing.T) {
	var buf bytes.Buffer
	term := NewTerminal(&buf, DefaultFormatter(), true)

	require.NoError(t, term.Totals(sampleSnapshot(t, "Product A")))
	assert.Contains(t, buf.String(), "\x1b[")

	buf.Reset()
	plain := NewTerminal(&buf, DefaultFormatter(), true)
	require.NoError(t, plain.Totals(sampleSnapshot(t)))
	for _, line := range strings.Split(buf.String(), "\n") {
		if strings.Contains(line, "Product A") || strings.Contains(line, "Product B") {
			assert.NotContains(t, line, "\x1b[", "no emphasis without a selection")
		}
	}
}
