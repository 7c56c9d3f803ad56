// Package telemetry wires tracing and the prometheus metrics endpoint.
package telemetry

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/umafamily/affinity/pkg/logger"
)

// MetricsServer exposes the default prometheus registry on /metrics while a
// search runs.
type MetricsServer struct {
	srv      *http.Server
	listener net.Listener
	done     chan struct{}
}

// StartMetricsServer listens on addr and serves /metrics in the background.
func StartMetricsServer(addr string, log logger.Logger) (*MetricsServer, error) {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	m := &MetricsServer{
		srv:      &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second},
		listener: lis,
		done:     make(chan struct{}),
	}

	go func() {
		defer close(m.done)
		if err := m.srv.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server stopped", zap.Error(err))
		}
	}()

	log.Info("serving prometheus metrics", zap.String("addr", lis.Addr().String()))
	return m, nil
}

// Addr returns the address the server listens on.
func (m *MetricsServer) Addr() string {
	return m.listener.Addr().String()
}

// Shutdown stops the server and waits for it to exit.
func (m *MetricsServer) Shutdown(ctx context.Context) error {
	err := m.srv.Shutdown(ctx)
	<-m.done
	return err
}
