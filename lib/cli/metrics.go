// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsShutdownTimeout = 5 * time.Second

// MetricsHandler returns the /metrics handler for gatherer.
func MetricsHandler(gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	return mux
}

// ServeMetrics listens on address and serves gatherer at /metrics
// until ctx is cancelled. The listener is bound before ServeMetrics
// returns, so a bad address fails the command at startup; serving
// continues on a background goroutine. The returned channel receives
// the serve error (nil after a clean shutdown) and is then closed.
func ServeMetrics(ctx context.Context, address string, gatherer prometheus.Gatherer, logger *slog.Logger) (net.Addr, <-chan error, error) {
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return nil, nil, fmt.Errorf("listening for metrics on %s: %w", address, err)
	}
	server := &http.Server{
		Handler:           MetricsHandler(gatherer),
		ReadHeaderTimeout: 10 * time.Second,
	}
	result := make(chan error, 1)
	go func() {
		defer close(result)
		err := server.Serve(listener)
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		result <- err
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), metricsShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Warn("metrics server shutdown failed", "error", err)
		}
	}()
	logger.Info("serving metrics", "address", listener.Addr().String())
	return listener.Addr(), result, nil
}
