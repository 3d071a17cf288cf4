// Package server assembles the HTTP router from controllers and manages
// the listener's lifecycle.
//
// ASSEMBLY ORDER
// ──────────────
//  1. every controller is called and its entry registered
//  2. the registry is drained (closing it)
//  3. every entry is mounted on the root router at its prefix
//
// All registration finishes before the drain, so no controller's routes
// can be left out.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/aanand-mishra/accounts-api/internal/config"
	"github.com/aanand-mishra/accounts-api/internal/http/middleware"
	"github.com/aanand-mishra/accounts-api/internal/registry"
)

// NewRouter builds the root router from controllers.
func NewRouter(logger *slog.Logger, controllers ...registry.Controller) (http.Handler, error) {
	routes := registry.New(logger)
	for _, c := range controllers {
		if err := routes.Register(c()); err != nil {
			return nil, fmt.Errorf("register routes: %w", err)
		}
	}

	entries, err := routes.Drain()
	if err != nil {
		return nil, fmt.Errorf("drain routes: %w", err)
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recoverer(logger))

	for _, e := range entries {
		r.Mount(e.Prefix, e.Router())
		logger.Info("routes mounted",
			slog.String("prefix", e.Prefix),
			slog.Int("endpoints", len(e.Endpoints)))
	}

	return r, nil
}

// ShutdownFunc stops a component during graceful shutdown.
type ShutdownFunc func(ctx context.Context) error

// Server wraps http.Server with graceful shutdown.
type Server struct {
	httpServer      *http.Server
	shutdownTimeout time.Duration
	logger          *slog.Logger

	mu            sync.Mutex
	shutdownFuncs []ShutdownFunc
}

// New creates a server for handler using the listener settings in cfg.
func New(cfg config.HTTPServer, handler http.Handler, logger *slog.Logger) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:         cfg.Addr,
			Handler:      handler,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
			IdleTimeout:  cfg.IdleTimeout,
		},
		shutdownTimeout: cfg.ShutdownTimeout,
		logger:          logger,
	}
}

// OnShutdown registers fn to run after the HTTP server has stopped.
// Functions run in reverse registration order.
func (s *Server) OnShutdown(name string, fn ShutdownFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shutdownFuncs = append(s.shutdownFuncs, func(ctx context.Context) error {
		if err := fn(ctx); err != nil {
			s.logger.Error("component shutdown error", slog.String("name", name), slog.String("error", err.Error()))
			return fmt.Errorf("shutdown %s: %w", name, err)
		}
		s.logger.Info("component stopped", slog.String("name", name))
		return nil
	})
}

// Run serves until ctx is cancelled or the listener fails, then shuts down
// gracefully. A clean shutdown returns nil.
func (s *Server) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.Info("server started", slog.String("address", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		return s.shutdown()
	})

	return g.Wait()
}

func (s *Server) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()

	s.logger.Info("stopping server", slog.Duration("timeout", s.shutdownTimeout))

	var errs []error
	if err := s.httpServer.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("http shutdown: %w", err))
	}

	s.mu.Lock()
	funcs := s.shutdownFuncs
	s.mu.Unlock()

	for i := len(funcs) - 1; i >= 0; i-- {
		if err := funcs[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}

	if err := errors.Join(errs...); err != nil {
		return err
	}

	s.logger.Info("server stopped gracefully")
	return nil
}
