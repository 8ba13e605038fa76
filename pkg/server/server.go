package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"

	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"strategos-hq/verdict/pkg/audit"
	"strategos-hq/verdict/pkg/condition/engine"
	"strategos-hq/verdict/pkg/config"
	"strategos-hq/verdict/pkg/ruleset"
	"strategos-hq/verdict/pkg/ruleset/source"
	"strategos-hq/verdict/pkg/server/middleware"
	"strategos-hq/verdict/pkg/telemetry/health"
	"strategos-hq/verdict/pkg/telemetry/metrics"
)

// RuleSets is the view of the rule-set source the server needs.
// *source.Manager implements it.
type RuleSets interface {
	Current() (*ruleset.Bundle, error)
	Reload(ctx context.Context) (*ruleset.Bundle, error)
	Status() source.Status
}

// Server is the HTTP evaluation service.
type Server struct {
	config    *config.ServerConfig
	rules     RuleSets
	evaluator *engine.Evaluator
	checker   *health.Checker
	metrics   *metrics.Collector
	metricsAt string
	audit     audit.Storage
	tracer    trace.Tracer
	logger    *slog.Logger
	version   string
	commit    string

	httpServer   *http.Server
	shutdownOnce sync.Once
	mu           sync.Mutex
	running      bool
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics serves the collector's registry at path and records per-route
// request metrics.
func WithMetrics(c *metrics.Collector, path string) Option {
	return func(s *Server) {
		s.metrics = c
		s.metricsAt = path
	}
}

// WithAudit exposes recorded passes at GET /v1/audit/passes.
func WithAudit(storage audit.Storage) Option {
	return func(s *Server) { s.audit = storage }
}

// WithTracer sets the tracer used for request spans.
func WithTracer(tracer trace.Tracer) Option {
	return func(s *Server) {
		if tracer != nil {
			s.tracer = tracer
		}
	}
}

// WithHealth replaces the readiness checker.
func WithHealth(checker *health.Checker) Option {
	return func(s *Server) {
		if checker != nil {
			s.checker = checker
		}
	}
}

// WithVersion sets the build information reported at /version.
func WithVersion(version, commit string) Option {
	return func(s *Server) {
		s.version = version
		s.commit = commit
	}
}

// New creates a server. A "ruleset" readiness check that fails until a rule
// set is loaded is always registered.
func New(cfg *config.ServerConfig, rules RuleSets, evaluator *engine.Evaluator, opts ...Option) *Server {
	s := &Server{
		config:    cfg,
		rules:     rules,
		evaluator: evaluator,
		checker:   health.New(0),
		tracer:    noop.NewTracerProvider().Tracer(""),
		logger:    slog.Default(),
		version:   "dev",
	}
	for _, opt := range opts {
		opt(s)
	}

	s.checker.RegisterCheck("ruleset", func(context.Context) error {
		_, err := s.rules.Current()
		return err
	})
	if s.audit != nil {
		s.checker.RegisterCheck("audit", func(ctx context.Context) error {
			_, err := s.audit.Count(ctx, &audit.Query{Limit: 1})
			return err
		})
	}

	return s
}

// Handler returns the routed handler wrapped in the middleware chain.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	s.route(mux, "POST /v1/evaluate", s.handleEvaluate)
	s.route(mux, "GET /v1/conditions", s.handleConditions)
	s.route(mux, "GET /v1/ruleset", s.handleRuleSet)
	s.route(mux, "POST /v1/ruleset/reload", s.handleReload)
	s.route(mux, "GET /v1/audit/passes", s.handleAudit)

	mux.Handle("/health", s.checker.LivenessHandler())
	mux.Handle("/ready", s.checker.ReadinessHandler())
	mux.Handle("/version", health.VersionHandler(s.version, s.commit, ""))
	if s.metrics != nil && s.metricsAt != "" {
		mux.Handle("GET "+s.metricsAt, s.metrics.Handler())
	}

	var handler http.Handler = mux
	handler = middleware.Tracing(s.tracer)(handler)
	handler = middleware.RequestID(handler)
	handler = middleware.Logging(s.logger)(handler)
	handler = middleware.Recovery(s.logger)(handler)
	return handler
}

func (s *Server) route(mux *http.ServeMux, pattern string, h http.HandlerFunc) {
	var handler http.Handler = h
	if s.metrics != nil {
		handler = s.metrics.Middleware(pattern, handler)
	}
	mux.Handle(pattern, handler)
}

// ListenAndServe listens on the configured address and serves until ctx is
// cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.ListenAddress)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.config.ListenAddress, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled or the server fails.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		_ = ln.Close()
		return errors.New("server is already running")
	}
	s.running = true
	s.httpServer = &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
		ErrorLog:     slog.NewLogLogger(s.logger.Handler(), slog.LevelWarn),
	}
	s.mu.Unlock()

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("starting evaluation server", "address", ln.Addr().String())
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("server error: %w", err)
		}
		close(errChan)
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("context cancelled, initiating shutdown")
		return s.Shutdown(context.Background())
	case err, ok := <-errChan:
		if !ok {
			return nil
		}
		return err
	}
}

// Shutdown gracefully stops the server, waiting up to ShutdownTimeout for
// in-flight requests. It is safe to call more than once.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.mu.Lock()
		srv := s.httpServer
		s.mu.Unlock()
		if srv == nil {
			return
		}

		s.logger.Info("initiating graceful shutdown", "timeout", s.config.ShutdownTimeout.String())

		shutdownCtx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("error during server shutdown", "error", err)
			shutdownErr = fmt.Errorf("server shutdown error: %w", err)
		}

		s.mu.Lock()
		s.running = false
		s.mu.Unlock()

		s.logger.Info("evaluation server stopped")
	})

	return shutdownErr
}
