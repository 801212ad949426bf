package http

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"revdash/internal/dashboard"
	"revdash/internal/log"
	"revdash/internal/render"
)

var validate = validator.New()

const pageTitle = "Dashboard"

type chartView struct {
	Kind  render.ChartKind
	Title string
	URL   string
}

type legendItem struct {
	Category string
	Color    string
	Opacity  string
	Selected bool
}

type pageData struct {
	Title        string
	KPIs         []render.KPI
	Legend       []legendItem
	Charts       []chartView
	HasSelection bool
	Version      uint64
	ChartWidth   int
	ChartHeight  int
}

func (s *Server) pageData(snap dashboard.Snapshot) pageData {
	data := pageData{
		Title:        pageTitle,
		KPIs:         s.format.KPIs(snap.Summary),
		HasSelection: !snap.Selection.IsNone(),
		Version:      snap.Version,
		ChartWidth:   s.cfg.ChartWidth,
		ChartHeight:  s.cfg.ChartHeight,
	}
	for _, e := range s.palette.Segments(snap.Categories, snap.Selection) {
		data.Legend = append(data.Legend, legendItem{
			Category: e.Category,
			Color:    e.Color,
			Opacity:  strconv.FormatFloat(e.Opacity, 'f', -1, 64),
			Selected: e.Selected,
		})
	}
	for _, k := range render.ChartKinds {
		data.Charts = append(data.Charts, chartView{
			Kind:  k,
			Title: k.Title(),
			// The version busts browser caches after every selection change.
			URL: fmt.Sprintf("/charts/%s.svg?v=%d", k, snap.Version),
		})
	}
	return data
}

// executeTemplate renders into memory so a failing template never leaves a
// half-written response.
func (s *Server) executeTemplate(name string, data any) ([]byte, error) {
	if s.templates == nil {
		return nil, errors.New("templates not loaded")
	}
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return nil, fmt.Errorf("execute template %s: %w", name, err)
	}
	return buf.Bytes(), nil
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if s.templates == nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Templates not loaded", log.FieldPath, r.URL.Path)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}
	s.writePage(w, r, "index.html", s.dash.Snapshot())
}

// handleSummaryPartial renders the KPI cards for the current selection.
func (s *Server) handleSummaryPartial(w http.ResponseWriter, r *http.Request) {
	s.writePage(w, r, "summary_cards", s.dash.Snapshot())
}

func (s *Server) writePage(w http.ResponseWriter, r *http.Request, name string, snap dashboard.Snapshot) {
	body, err := s.executeTemplate(name, s.pageData(snap))
	if err != nil {
		s.structured.LogError(r.Context(), "Template execution failed", err, log.ComponentTemplate, log.OpRender,
			log.NewFields().WithTemplate(name))
		InternalServerError("Error rendering dashboard").Write(w)
		return
	}
	NewHTMXResponse().BodyHTML(body).Write(w)
}

// handleSelect toggles the posted category. htmx requests get the refreshed
// dashboard body; plain form posts are redirected back to the page.
func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		s.metrics.validationErrs.Inc()
		BadRequestError("Invalid request format").Write(w)
		return
	}

	category := p.Get("category")
	if err := validate.Var(category, "required,max=200"); err != nil {
		s.metrics.validationErrs.Inc()
		UnprocessableEntityError("A product is required").Write(w)
		return
	}
	if !s.dash.Categories().Contains(category) {
		s.metrics.validationErrs.Inc()
		log.FromContext(r.Context()).WarnContext(r.Context(), "Unknown category selected", log.FieldCategory, category)
		UnprocessableEntityError("Unknown product: " + category).Write(w)
		return
	}

	snap := s.dash.Activate(r.Context(), category)
	s.respondSelection(w, r, snap)
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	snap := s.dash.Clear(r.Context())
	s.respondSelection(w, r, snap)
}

func (s *Server) respondSelection(w http.ResponseWriter, r *http.Request, snap dashboard.Snapshot) {
	if !isHTMX(r) {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	body, err := s.executeTemplate("dashboard_body", s.pageData(snap))
	if err != nil {
		s.structured.LogError(r.Context(), "Template execution failed", err, log.ComponentTemplate, log.OpRender,
			log.NewFields().WithTemplate("dashboard_body"))
		InternalServerError("Error rendering dashboard").
			TriggerErrorNotification("Could not refresh the dashboard").
			Write(w)
		return
	}

	var selection *string
	if name, ok := snap.Selection.Category(); ok {
		selection = &name
	}
	NewHTMXResponse().
		BodyHTML(body).
		TriggerSelectionChanged(selection, snap.Version).
		Write(w)
}

// handleChart serves one chart as SVG. Renders are memoized per chart and
// selection; a failing chart is answered with a placeholder image.
func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	kind, err := render.ParseChartKind(chi.URLParam(r, "chart"))
	if err != nil {
		NotFoundError("Unknown chart").Write(w)
		return
	}

	snap := s.dash.Snapshot()
	logger := log.FromContext(r.Context())

	svg, hit, err := s.chartCache.Get(chartCacheKey(kind, snap.Selection), func() ([]byte, error) {
		var buf bytes.Buffer
		if err := s.charts.Render(&buf, kind, snap); err != nil {
			return nil, err
		}
		s.metrics.chartRenders.WithLabelValues(string(kind)).Inc()
		return buf.Bytes(), nil
	})
	if err != nil {
		if errors.Is(err, render.ErrNothingToPlot) {
			s.metrics.chartFailures.WithLabelValues(string(kind), "nothing_to_plot").Inc()
			logger.InfoContext(r.Context(), "Chart has nothing to plot", log.FieldChart, kind, log.FieldError, err)
		} else {
			s.metrics.chartFailures.WithLabelValues(string(kind), "error").Inc()
			s.structured.LogError(r.Context(), "Chart render failed", err, log.ComponentRender, log.OpRender,
				log.NewFields().WithChart(string(kind)))
		}
		var buf bytes.Buffer
		if perr := s.charts.Fallback(&buf, kind, err); perr != nil {
			InternalServerError("Chart unavailable").Write(w)
			return
		}
		svg = buf.Bytes()
		w.Header().Set("X-Chart-Fallback", "true")
	} else {
		logger.DebugContext(r.Context(), "Chart served", log.FieldChart, kind, log.FieldCacheHit, hit)
	}

	cacheStatus := "MISS"
	if hit {
		cacheStatus = "HIT"
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("X-Cache", cacheStatus)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(svg)
}
