package http

import (
	"encoding/json"

	"github.com/shopspring/decimal"

	"revdash/internal/core"
	"revdash/internal/dashboard"
	"revdash/internal/render"
)

// selectionRequest is the body of POST /api/selection.
type selectionRequest struct {
	Category string `json:"category" validate:"required,max=200"`
}

type pointResponse struct {
	Label  string                 `json:"label"`
	Values map[string]json.Number `json:"values"`
}

type timeSeriesResponse struct {
	Series []string        `json:"series"`
	Points []pointResponse `json:"points"`
}

type aggregateResponse struct {
	Category string      `json:"category"`
	Total    json.Number `json:"total"`
}

type distributionResponse struct {
	Category     string      `json:"category"`
	Value        json.Number `json:"value"`
	SharePercent int         `json:"share_percent"`
}

type summaryResponse struct {
	FocusedRevenue    json.Number  `json:"focused_revenue"`
	GrandTotal        json.Number  `json:"grand_total"`
	ActiveLabel       string       `json:"active_label"`
	FocusRatioPercent int          `json:"focus_ratio_percent"`
	CategoryCount     int          `json:"category_count"`
	KPIs              []render.KPI `json:"kpis"`
}

type snapshotResponse struct {
	Version      uint64                 `json:"version"`
	Selection    core.Selection         `json:"selection"`
	Categories   []string               `json:"categories"`
	TimeSeries   timeSeriesResponse     `json:"time_series"`
	Aggregate    []aggregateResponse    `json:"aggregate"`
	Distribution []distributionResponse `json:"distribution"`
	Summary      summaryResponse        `json:"summary"`
}

func number(d decimal.Decimal) json.Number {
	return json.Number(d.String())
}

func newSnapshotResponse(snap dashboard.Snapshot, format *render.Formatter) snapshotResponse {
	resp := snapshotResponse{
		Version:    snap.Version,
		Selection:  snap.Selection,
		Categories: append([]string{}, snap.Categories...),
		TimeSeries: timeSeriesResponse{
			Series: append([]string{}, snap.TimeSeries.Series...),
			Points: make([]pointResponse, 0, len(snap.TimeSeries.Points)),
		},
		Aggregate:    make([]aggregateResponse, 0, len(snap.Aggregate)),
		Distribution: make([]distributionResponse, 0, len(snap.Distribution)),
		Summary: summaryResponse{
			FocusedRevenue:    number(snap.Summary.FocusedRevenue),
			GrandTotal:        number(snap.Summary.GrandTotal),
			ActiveLabel:       snap.Summary.ActiveLabel,
			FocusRatioPercent: snap.Summary.FocusRatioPercent,
			CategoryCount:     snap.Summary.CategoryCount,
			KPIs:              format.KPIs(snap.Summary),
		},
	}

	for _, p := range snap.TimeSeries.Points {
		values := make(map[string]json.Number, len(p.Values))
		for _, v := range p.Values {
			values[v.Category] = number(v.Value)
		}
		resp.TimeSeries.Points = append(resp.TimeSeries.Points, pointResponse{Label: p.Label, Values: values})
	}
	for _, row := range snap.Aggregate {
		resp.Aggregate = append(resp.Aggregate, aggregateResponse{Category: row.Category, Total: number(row.Total)})
	}
	for _, s := range render.Shares(snap.Distribution) {
		resp.Distribution = append(resp.Distribution, distributionResponse{
			Category:     s.Category,
			Value:        number(s.Value),
			SharePercent: s.Percent,
		})
	}
	return resp
}
