// Package api exposes the reconciliation workflow over HTTP.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/eshaffer321/ledger-reconcile/internal/adapters/statement"
	"github.com/eshaffer321/ledger-reconcile/internal/api/handlers"
	"github.com/eshaffer321/ledger-reconcile/internal/api/middleware"
	"github.com/eshaffer321/ledger-reconcile/internal/application/reconciliation"
	"github.com/eshaffer321/ledger-reconcile/internal/infrastructure/config"
	"github.com/eshaffer321/ledger-reconcile/internal/infrastructure/metrics"
)

// Config holds API server configuration.
type Config struct {
	Host           string
	Port           int
	AllowedOrigins []string
	DefaultFormat  statement.Format
	MaxUploadBytes int64
	MetricsEnabled bool
	MetricsPath    string
}

// DefaultConfig returns sensible defaults for the API server.
func DefaultConfig() Config {
	return Config{
		Host:           "127.0.0.1",
		Port:           8085,
		AllowedOrigins: []string{"http://localhost:3000"},
		DefaultFormat:  statement.FormatOFX,
		MaxUploadBytes: 10 << 20,
		MetricsEnabled: true,
		MetricsPath:    "/metrics",
	}
}

// ConfigFrom maps the application config onto server settings. An
// unrecognised import format falls back to OFX.
func ConfigFrom(cfg *config.Config) Config {
	format, err := statement.ParseFormat(cfg.Import.DefaultFormat)
	if err != nil {
		format = statement.FormatOFX
	}
	return Config{
		Host:           cfg.API.Host,
		Port:           cfg.API.Port,
		AllowedOrigins: cfg.API.AllowedOrigins,
		DefaultFormat:  format,
		MaxUploadBytes: int64(cfg.Import.MaxUploadMB) << 20,
		MetricsEnabled: cfg.Observability.Metrics.Enabled,
		MetricsPath:    cfg.Observability.Metrics.Path,
	}
}

// Address returns host:port
func (c Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Server is the HTTP API server.
type Server struct {
	config     Config
	router     chi.Router
	httpServer *http.Server
	logger     *slog.Logger
	svc        *reconciliation.Service
}

// NewServer creates a new API server.
func NewServer(cfg Config, svc *reconciliation.Service, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		config: cfg,
		router: chi.NewRouter(),
		logger: logger,
		svc:    svc,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// setupMiddleware configures global middleware.
func (s *Server) setupMiddleware() {
	s.router.Use(chimw.RequestID)
	s.router.Use(chimw.RealIP)
	s.router.Use(chimw.Recoverer)

	// CORS
	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowedOrigins = s.config.AllowedOrigins
	s.router.Use(middleware.CORS(corsConfig))

	// Request logging
	s.router.Use(middleware.Logging(s.logger))
}

// setupRoutes configures all API routes.
func (s *Server) setupRoutes() {
	// Health check (no /api prefix - for load balancers)
	healthHandler := handlers.NewHealthHandler()
	s.router.Get("/health", healthHandler.ServeHTTP)

	if s.config.MetricsEnabled {
		path := s.config.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		s.router.Handle(path, metrics.Handler())
	}

	base := handlers.NewBase(s.svc, s.logger)

	s.router.Route("/api", func(r chi.Router) {
		// Accounts
		statementsHandler := handlers.NewStatementsHandler(base, s.config.DefaultFormat, s.config.MaxUploadBytes)
		transactionsHandler := handlers.NewTransactionsHandler(base)
		r.Route("/accounts/{accountID}", func(r chi.Router) {
			r.Get("/statement-lines", statementsHandler.List)
			r.Post("/statements", statementsHandler.Import)
			r.Post("/transactions", transactionsHandler.Create)
		})

		// Statement lines and their session
		sessionsHandler := handlers.NewSessionsHandler(base)
		r.Route("/statement-lines/{id}", func(r chi.Router) {
			r.Get("/candidates", sessionsHandler.Candidates)
			r.Post("/session", sessionsHandler.Open)
			r.Get("/session", sessionsHandler.Get)
			r.Delete("/session", sessionsHandler.Discard)
			r.Post("/session/select", sessionsHandler.Select)
			r.Post("/session/deselect", sessionsHandler.Deselect)
			r.Post("/session/toggle", sessionsHandler.Toggle)
			r.Put("/session/adjustment", sessionsHandler.Adjust)
			r.Post("/session/resolve", sessionsHandler.Resolve)
		})

		// Committed reconciliations
		reconciliationsHandler := handlers.NewReconciliationsHandler(base)
		r.Get("/reconciliations/{id}", reconciliationsHandler.Get)
	})
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := s.config.Address()

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("starting API server", "addr", addr)

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down API server")

	if s.httpServer == nil {
		return nil
	}

	return s.httpServer.Shutdown(ctx)
}

// Router returns the chi router for testing.
func (s *Server) Router() chi.Router {
	return s.router
}
