// Package http serves health checks, a JSON month summary and the XLSX export.
package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"gastos/internal/log"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const (
	exportRequestsPerMinute = 10
	rateLimitCleanup        = 5 * time.Minute
)

type Server struct {
	http.Server
	ledger  Ledger
	logger  *log.Logger
	limiter *rateLimiter
}

func NewServer(addr string, ledger Ledger, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default(log.ComponentHTTP)
	}
	s := &Server{
		ledger:  ledger,
		logger:  logger,
		limiter: newRateLimiter(exportRequestsPerMinute),
	}
	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(log.RequestLogger(s.logger))
	r.Use(middleware.Recoverer)
	r.Use(securityHeaders)

	r.Get("/healthz", handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Get("/api/summary", s.handleSummary)
	r.With(s.limiter.middleware).Get("/export.xlsx", s.handleExport)
	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	go s.limiter.startCleanup(rateLimitCleanup)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server starting", log.FieldAddr, s.Addr)
		if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		s.limiter.stop()
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.Shutdown(shutdownCtx)
}

// Shutdown stops the rate limiter janitor and the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.limiter.stop()
	s.logger.Info("HTTP server shutting down")
	return s.Server.Shutdown(ctx)
}
