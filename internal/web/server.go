// Package web provides the HTTP surface of the status-file exchange:
// export download, import upload and a JSON view of the loaded dataset.
package web

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/campusops/gradefile/internal/config"
	"github.com/campusops/gradefile/internal/status"
	"github.com/campusops/gradefile/internal/store"
	"github.com/campusops/gradefile/internal/tablefile"
)

// Server is the HTTP server for the status-file exchange.
type Server struct {
	store   *store.Postgres
	pool    *pgxpool.Pool
	cfg     *config.Config
	router  *chi.Mux
	server  *http.Server
	imports *importLimiter
}

// NewServer creates a new Server instance.
func NewServer(pool *pgxpool.Pool, cfg *config.Config) *Server {
	s := &Server{
		store:   store.New(pool),
		pool:    pool,
		cfg:     cfg,
		router:  chi.NewRouter(),
		imports: newImportLimiter(cfg.Exchange.MaxConcurrentImports, cfg.Exchange.ImportWaitTimeout),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
	s.router.Use(middleware.Timeout(s.cfg.Server.RequestTimeout))
	s.router.Use(securityHeaders)
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.Route("/assignments/{assignmentID}", func(r chi.Router) {
			// Status dataset as JSON
			r.Get("/status", s.handleStatus)

			// Status file exchange
			r.Get("/status-file", s.handleExport)
			r.Post("/status-file", s.handleImport)
		})
	})
}

// newEngine creates a request-scoped engine. The export format can be
// overridden per request via ?format=csv|xlsx.
func (s *Server) newEngine(r *http.Request) *status.Engine {
	format := s.cfg.ExportFormat()
	if name := r.URL.Query().Get("format"); name != "" {
		if f, err := tablefile.ParseFormat(name); err == nil {
			format = f
		}
	}

	eng := status.NewEngine(s.store, format)
	eng.AllowPlagiarismUpdate = s.cfg.Exchange.AllowPlagiarismUpdate
	return eng
}

// Start begins listening for HTTP requests.
func (s *Server) Start(addr string) error {
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}

	slog.Info("starting server", "addr", addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server, waiting for in-flight imports
// to finish applying before closing the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	if err := s.imports.drain(ctx); err != nil {
		slog.Warn("shutdown with imports still in flight", "active", s.imports.activeCount())
	}
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// securityHeaders adds security headers to all responses.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSONStatus(w, statusCode, map[string]string{"error": message})
}

// writeJSON encodes v as JSON and writes it to w.
// Logs encoding errors since headers are already sent.
func writeJSON(w http.ResponseWriter, v any) {
	writeJSONStatus(w, http.StatusOK, v)
}

// writeJSONStatus writes a JSON body with an explicit status code. The
// Content-Type header must go out before WriteHeader or it is dropped.
func writeJSONStatus(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode error", "error", err)
	}
}
