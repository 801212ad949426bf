// Package http serves the revenue dashboard: the HTML page and its partials,
// the rendered charts, a JSON API and the operational endpoints.
package http

import (
	"context"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/unrolled/secure"

	"revdash/internal/amqp"
	"revdash/internal/cache"
	"revdash/internal/config"
	"revdash/internal/dashboard"
	"revdash/internal/log"
	"revdash/internal/render"
	appweb "revdash/web"
)

type Server struct {
	http.Server

	cfg        *config.Config
	dash       *dashboard.Dashboard
	templates  *template.Template
	static     fs.FS
	charts     *render.ChartRenderer
	format     *render.Formatter
	palette    render.Palette
	chartCache *cache.Memo[[]byte]
	cacheMgr   *cache.Manager

	logger     *log.Logger
	structured *log.StructuredLogger
	metrics    *Metrics
	amqpStats  func() amqp.Stats
	started    time.Time

	shutdownOnce sync.Once
}

// Option customizes a Server.
type Option func(*Server)

// WithTemplates replaces the embedded templates, mainly for tests.
func WithTemplates(fsys fs.FS) Option {
	return func(s *Server) {
		t, err := template.ParseFS(fsys, "templates/*.html")
		if err != nil {
			s.logger.Warn("Failed parsing templates", log.FieldError, err)
		}
		s.templates = t
	}
}

// WithAMQPStats exposes selection publisher counters on /metrics.
func WithAMQPStats(stats func() amqp.Stats) Option {
	return func(s *Server) { s.amqpStats = stats }
}

// NewServer configures routes and templates, returning a ready-to-run
// http.Server.
func NewServer(cfg *config.Config, dash *dashboard.Dashboard, logger *log.Logger, opts ...Option) (*Server, error) {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	format, err := render.NewFormatter(cfg.Locale, cfg.CurrencySymbol)
	if err != nil {
		return nil, fmt.Errorf("create formatter: %w", err)
	}
	palette := render.NewPalette()

	s := &Server{
		Server: http.Server{
			Addr:         cfg.Addr(),
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
			IdleTimeout:  cfg.IdleTimeout,
		},
		cfg:        cfg,
		dash:       dash,
		format:     format,
		palette:    palette,
		charts:     render.NewChartRenderer(cfg.ChartWidth, cfg.ChartHeight, palette, format),
		chartCache: cache.NewMemo(cache.NewLRUCache[[]byte](cfg.ChartCacheSize, cfg.ChartCacheTTL)),
		cacheMgr:   cache.NewManager(logger),
		logger:     logger,
		structured: log.NewStructuredLogger(logger),
		metrics:    NewMetrics(),
		started:    time.Now(),
	}
	s.cacheMgr.Register(s.chartCache.Cache())
	s.metrics.ObserveDashboard(dash, s.started)
	s.metrics.ObserveCache("chart", s.chartCache.Cache().Stats)

	// Parse embedded templates at startup.
	t, err := template.ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		logger.Warn("Failed parsing templates", log.FieldError, err)
	}
	s.templates = t

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		s.static = sub
	} else {
		logger.Warn("Failed to mount embedded static FS", log.FieldError, err)
	}

	for _, opt := range opts {
		opt(s)
	}
	if s.amqpStats != nil {
		s.metrics.ObserveAMQP(s.amqpStats)
	}

	s.Handler = s.routes()
	return s, nil
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	secureMiddleware := secure.New(secure.Options{
		FrameDeny:             true,
		ContentTypeNosniff:    true,
		BrowserXssFilter:      true,
		ReferrerPolicy:        "strict-origin-when-cross-origin",
		ContentSecurityPolicy: "default-src 'self'; script-src 'self' https://unpkg.com; style-src 'self' 'unsafe-inline'; img-src 'self' data:; connect-src 'self'",
		SSLRedirect:           s.cfg.IsProduction(),
		SSLProxyHeaders:       map[string]string{"X-Forwarded-Proto": "https"},
		IsDevelopment:         !s.cfg.IsProduction(),
	})

	r.Use(
		middleware.RequestID,
		log.Middleware(s.logger),
		log.RequestIDMiddleware(func(r *http.Request) string { return middleware.GetReqID(r.Context()) }),
		log.AccessLogMiddleware(extractClientIP),
		middleware.Recoverer,
		middleware.Timeout(s.cfg.WriteTimeout),
		secureMiddleware.Handler,
		s.metrics.Middleware,
		s.flagSuspicious,
	)

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	if s.static != nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(s.static)))
		r.Get("/static/*", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Cache-Control", "public, max-age=3600, immutable")
			static.ServeHTTP(w, r)
		})
	}

	r.Get("/", s.handleIndex)
	r.Get("/ui/summary", s.handleSummaryPartial)
	r.Get("/charts/{chart}.svg", s.handleChart)
	r.Get("/api/dashboard", s.handleAPIDashboard)

	r.Group(func(gr chi.Router) {
		gr.Use(newSelectionLimiter(s.cfg.SelectionRateLimit, s.metrics.rateLimitHits))
		gr.Post("/selection", s.handleSelect)
		gr.Post("/selection/clear", s.handleClear)
		gr.Post("/api/selection", s.handleAPISelect)
		gr.Delete("/api/selection", s.handleAPIClear)
	})

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		MethodNotAllowedError(allowedMethods(r)).Write(w)
	})
	return r
}

// Start runs the cache cleanup loop and serves until the listener fails.
// http.ErrServerClosed is not reported.
func (s *Server) Start(ctx context.Context) error {
	go func() { _ = s.cacheMgr.Run(ctx, s.cfg.ChartCacheTTL) }()

	s.logger.Info("HTTP server listening", "addr", s.Addr)
	if err := s.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("listen: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server and cleanup routines
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.logger.Info("HTTP server shutting down", log.FieldOperation, log.OpShutdown)
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// flagSuspicious logs requests for known scanner paths. They are still
// served; the router answers 404 for anything unknown.
func (s *Server) flagSuspicious(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if detectSuspiciousRequest(r) {
			s.metrics.suspicious.Inc()
			log.FromContext(r.Context()).WarnContext(r.Context(), "Suspicious request",
				log.FieldPath, r.URL.Path,
				log.FieldClientIP, extractClientIP(r),
				log.FieldUserAgent, r.UserAgent())
		}
		next.ServeHTTP(w, r)
	})
}

func allowedMethods(r *http.Request) string {
	switch r.URL.Path {
	case "/api/selection":
		return "POST, DELETE"
	case "/selection", "/selection/clear":
		return "POST"
	default:
		return "GET"
	}
}
