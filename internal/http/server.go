// Package http arma el router chi y el ciclo de vida del servidor.
package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dropDatabas3/boardhole/internal/http/handlers"
	"github.com/dropDatabas3/boardhole/internal/http/middlewares"
	"github.com/dropDatabas3/boardhole/internal/observability/logger"
)

// ServerDeps agrupa las dependencias del router.
type ServerDeps struct {
	Verification *handlers.VerificationHandler
	Outbox       *handlers.OutboxHandler
	Health       *handlers.HealthHandler
}

// Server envuelve http.Server con router y apagado ordenado.
type Server struct {
	srv *http.Server
}

// NewServer construye el router con middlewares base y todas las rutas.
func NewServer(addr string, deps ServerDeps) *Server {
	r := chi.NewRouter()

	r.Use(func(next http.Handler) http.Handler {
		return middlewares.Chain(next,
			middlewares.WithRequestID(),
			middlewares.WithLogging(),
		)
	})

	if deps.Health != nil {
		deps.Health.Register(r)
	}
	if deps.Verification != nil {
		deps.Verification.Register(r)
	}
	if deps.Outbox != nil {
		deps.Outbox.Register(r)
	}
	r.Handle("/metrics", promhttp.Handler())

	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           r,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
	}
}

// ListenAndServe bloquea hasta que el server cierre. ErrServerClosed no
// se reporta como fallo.
func (s *Server) ListenAndServe() error {
	logger.L().Info("http server listening", logger.String("addr", s.srv.Addr))
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown apaga el server dejando terminar los requests en vuelo.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
