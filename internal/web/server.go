package web

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/hpungsan/statustracker/internal/chart"
	"github.com/hpungsan/statustracker/internal/config"
	"github.com/hpungsan/statustracker/internal/metrics"
	"github.com/hpungsan/statustracker/internal/ops"
	"github.com/hpungsan/statustracker/internal/store"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static/*
var staticFS embed.FS

// Deps are the collaborators the web UI reads from and writes to.
type Deps struct {
	Source  ops.Source
	Store   *store.Store
	Config  *config.Config
	Metrics *metrics.Metrics
}

// NewHandler builds the routed handler for the statustracker web UI.
func NewHandler(deps Deps, version string) http.Handler {
	// Create sub-FS for templates (strip "templates/" prefix)
	templateSub, err := fs.Sub(templateFS, "templates")
	if err != nil {
		panic(fmt.Sprintf("template sub-FS: %v", err))
	}

	// Create sub-FS for static files (strip "static/" prefix)
	staticSub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(fmt.Sprintf("static sub-FS: %v", err))
	}

	st := deps.Store
	if st == nil {
		st = store.New()
	}
	cfg := deps.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	h := &Handlers{
		src:      deps.Source,
		store:    st,
		cfg:      cfg,
		metrics:  deps.Metrics,
		renderer: NewRenderer(templateSub, version),
		now:      time.Now,
	}
	m := deps.Metrics

	mux := http.NewServeMux()
	route := func(pattern, name string, fn http.HandlerFunc) {
		mux.Handle(pattern, m.WrapHandler(name, fn))
	}

	// Routes using Go 1.22+ pattern syntax
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/counts", http.StatusFound)
	})
	route("GET /counts", "/counts", h.HandleCounts)
	route("GET /counts/chart.png", "/counts/chart", h.HandleCountsChart(chart.PNG))
	route("GET /counts/chart.svg", "/counts/chart", h.HandleCountsChart(chart.SVG))
	route("GET /players", "/players", h.HandlePlayerLookup)
	route("GET /players/{name}", "/players/{name}", h.HandlePlayer)
	route("GET /players/{name}/chart.png", "/players/{name}/chart", h.HandlePlayerChart)
	route("GET /latest", "/latest", h.HandleLatest)
	mux.Handle("GET /metrics", m.Handler())

	// Static file server
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(staticSub)))

	// Wrap with security headers
	return securityHeaders(mux)
}

// NewServer creates and configures the HTTP server for the web UI.
func NewServer(deps Deps, version, bind string, port int) *http.Server {
	return &http.Server{
		Addr:              fmt.Sprintf("%s:%d", bind, port),
		Handler:           NewHandler(deps, version),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// securityHeaders adds security-related HTTP headers to all responses.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Security-Policy", "default-src 'self'; img-src 'self'; style-src 'self'")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		next.ServeHTTP(w, r)
	})
}

// Run starts the HTTP server and handles graceful shutdown on SIGINT/SIGTERM.
func Run(srv *http.Server) error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	slog.Info("statustracker UI running", "url", "http://"+srv.Addr)

	if strings.HasPrefix(srv.Addr, "0.0.0.0") || strings.Contains(srv.Addr, "::") {
		slog.Warn("server is binding to all interfaces and may be accessible from the network")
	}

	select {
	case err := <-errCh:
		return err
	case <-sigCh:
		slog.Info("shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(ctx)
	}
}
