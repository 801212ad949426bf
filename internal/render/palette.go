package render

import (
	"strings"

	"github.com/wcharczuk/go-chart/v2/drawing"

	"revdash/internal/core"
)

// DefaultColors is the category palette, assigned in category order.
var DefaultColors = []string{"#0088FE", "#00C49F", "#FFBB28", "#FF8042", "#8884D8"}

const (
	// SelectedColor fills the segment of the selected category.
	SelectedColor = "#82ca9d"
	// DimOpacity applies to every other segment while a selection is active.
	DimOpacity = 0.3
)

// Palette maps positions to colors, cycling when it runs out.
type Palette struct {
	colors []string
}

// NewPalette builds a palette; with no colors it uses DefaultColors.
func NewPalette(colors ...string) Palette {
	if len(colors) == 0 {
		colors = DefaultColors
	}
	return Palette{colors: append([]string(nil), colors...)}
}

// At returns the color for position i.
func (p Palette) At(i int) string {
	if len(p.colors) == 0 {
		p = NewPalette()
	}
	if i < 0 {
		i = -i
	}
	return p.colors[i%len(p.colors)]
}

// Emphasis is how one category segment is drawn for a selection.
type Emphasis struct {
	Category string
	Color    string
	Opacity  float64
	Selected bool
}

// Dimmed reports whether the segment is drawn faded.
func (e Emphasis) Dimmed() bool {
	return e.Opacity < 1
}

// Segment returns the emphasis for the category at index i.
func (p Palette) Segment(i int, category string, sel core.Selection) Emphasis {
	e := Emphasis{Category: category, Color: p.At(i), Opacity: 1}
	switch {
	case sel.Matches(category):
		e.Color = SelectedColor
		e.Selected = true
	case !sel.IsNone():
		e.Opacity = DimOpacity
	}
	return e
}

// Segments returns the emphasis of every category, in order.
func (p Palette) Segments(categories []string, sel core.Selection) []Emphasis {
	out := make([]Emphasis, len(categories))
	for i, c := range categories {
		out[i] = p.Segment(i, c, sel)
	}
	return out
}

// drawingColor converts a "#RRGGBB" color with an opacity to a chart color.
func drawingColor(hex string, opacity float64) drawing.Color {
	c := drawing.ColorFromHex(strings.TrimPrefix(hex, "#"))
	if opacity < 1 {
		if opacity < 0 {
			opacity = 0
		}
		c = c.WithAlpha(uint8(opacity * 255))
	}
	return c
}
