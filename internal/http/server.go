// Package http serves the card pages, the JSON ranking report and the
// health probes.
package http

import (
	"context"
	"html/template"
	"io/fs"
	"net/http"
	"net/url"
	"strconv"

	"wallet/internal/core"
	applog "wallet/internal/log"
	"wallet/internal/middleware/ratelimit"
	"wallet/internal/middleware/security"
	"wallet/internal/middleware/trace"
	appweb "wallet/web"
)

// CardManager is the card service consumed by the handlers.
type CardManager interface {
	Overview(ctx context.Context) ([]core.Card, []core.CategoryBest)
	GetCard(ctx context.Context, name string) (core.Card, bool)
	AllCategories(ctx context.Context) []string
	BestPerCategory(ctx context.Context) []core.CategoryBest
	AddCard(ctx context.Context, data core.CardData) (core.Card, error)
	UpdateCard(ctx context.Context, originalName string, data core.CardData) (core.Card, error)
	DeleteCard(ctx context.Context, name string) error
}

type Server struct {
	http.Server
	templates   *template.Template
	cards       CardManager
	logger      *applog.Logger
	rateLimiter *ratelimit.Limiter
	tracer      *trace.Middleware
}

var templateFuncs = template.FuncMap{
	"pathEscape": url.PathEscape,
	"num":        formatNumber,
	"cents": func(dollars float64) string {
		return strconv.FormatFloat(dollars*100, 'f', 2, 64) + "¢"
	},
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// NewServer configures routes and templates, returning a ready-to-run http.Server.
func NewServer(addr string, cards CardManager, logger *applog.Logger) *Server {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	logger = logger.WithComponent(applog.ComponentHTTP)

	mux := http.NewServeMux()
	s := &Server{
		cards:       cards,
		logger:      logger,
		rateLimiter: ratelimit.NewLimiter(ratelimit.DefaultConfig()),
		tracer:      trace.NewMiddleware(security.ClientIP, logger),
	}

	t, err := template.New("").Funcs(templateFuncs).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		logger.Warn("Failed parsing templates", applog.FieldError, err)
	} else {
		s.templates = t
	}

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("GET /static/", security.StaticAssetMiddleware(3600)(static))
	} else {
		logger.Warn("Failed to mount embedded static FS", applog.FieldError, err)
	}

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /card/new", s.handleNewCardForm)
	mux.HandleFunc("POST /card/new", s.handleCreateCard)
	mux.HandleFunc("GET /card/edit/{name...}", s.handleEditCardForm)
	mux.HandleFunc("POST /card/edit/{name...}", s.handleUpdateCard)
	mux.HandleFunc("POST /card/delete/{name...}", s.handleDeleteCard)
	mux.HandleFunc("GET /api/best", s.handleBestReport)
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	var handler http.Handler = mux
	handler = applog.Middleware(logger)(handler)
	handler = s.rateLimiter.Middleware(security.ClientIP)(handler)
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)
	handler = s.tracer.Middleware(handler)

	s.Server = http.Server{
		Addr:    addr,
		Handler: handler,
	}
	return s
}

// Shutdown stops background work and gracefully shuts the server down.
func (s *Server) Shutdown(ctx context.Context) error {
	s.rateLimiter.Stop()
	return s.Server.Shutdown(ctx)
}

// Metrics exposes the request counters collected by the trace middleware.
func (s *Server) Metrics() trace.Metrics {
	return s.tracer.GetMetrics()
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.templates == nil {
		http.Error(w, "templates not loaded", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
