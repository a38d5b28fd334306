package app

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"

	"signal-backtest-lab/internal/observability"
)

// MetricsServer exposes /metrics and /health while a long command runs.
type MetricsServer struct {
	srv  *http.Server
	ln   net.Listener
	deps *Dependencies
}

// StartMetricsServer listens on addr and serves in the background.
func StartMetricsServer(deps *Dependencies, addr string) (*MetricsServer, error) {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", observability.Handler(deps.Registry))

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	s := &MetricsServer{
		srv:  &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second},
		ln:   ln,
		deps: deps,
	}
	deps.Log.Info("Starting metrics server", zap.String("addr", ln.Addr().String()))
	go func() {
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			deps.Log.Error("Metrics server stopped", zap.Error(err))
		}
	}()
	return s, nil
}

// Addr returns the bound address, useful when addr was ":0".
func (s *MetricsServer) Addr() string {
	return s.ln.Addr().String()
}

// Stop shuts the server down, waiting at most 10 seconds for open requests.
func (s *MetricsServer) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.srv.Shutdown(ctx); err != nil {
		s.deps.Log.Warn("Timeout while stopping metrics server", zap.Error(err))
		return err
	}
	return nil
}
