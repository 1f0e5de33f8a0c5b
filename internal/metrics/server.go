package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

type ServerDependencies struct {
	Address string
	Metrics *Metrics
	Logger  zerolog.Logger
}

// Server exposes the registry on /metrics.
type Server struct {
	server *http.Server
	logger zerolog.Logger
}

func NewServer(deps ServerDependencies) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(deps.Metrics.Registry, promhttp.HandlerOpts{}))

	return &Server{
		server: &http.Server{
			Addr:              deps.Address,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		},
		logger: deps.Logger,
	}
}

func (s *Server) Start() {
	go func() {
		s.logger.Info().Str("address", s.server.Addr).Msg("Metrics server listening")

		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error().Err(err).Msg("Metrics server failed")
		}
	}()
}

func (s *Server) Close(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
