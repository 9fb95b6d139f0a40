package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/zhulik/pal"

	"baerhub/internal/config"
)

// HTTPServer serves /metrics and /health while the chat runs. It does nothing when no address
// is configured.
type HTTPServer struct {
	Logger *slog.Logger
	Config *config.Config

	server *http.Server
}

func (s *HTTPServer) RunConfig() *pal.RunConfig {
	return &pal.RunConfig{
		Wait: false,
	}
}

func (s *HTTPServer) Init(_ context.Context) error {
	s.Logger = s.Logger.With("component", "metrics.HTTPServer")

	if s.Config.MetricsAddr == "" {
		return nil
	}

	s.server = &http.Server{
		Handler:           Handler(),
		Addr:              s.Config.MetricsAddr,
		ReadHeaderTimeout: time.Second,
	}

	return nil
}

func (s *HTTPServer) Run(ctx context.Context) error {
	if s.server == nil {
		return nil
	}

	s.Logger.Info("Starting metrics server", "addr", s.server.Addr)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		s.server.Shutdown(shutdownCtx) //nolint:errcheck
	}()

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Handler routes /metrics and /health.
func Handler() http.Handler {
	r := chi.NewMux()
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return r
}
