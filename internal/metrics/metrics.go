// Package metrics exposes controller counters on an optional /metrics endpoint.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/codeyourweb/go-win-msg-notify/internal/logger"
)

var (
	Registry = prometheus.NewRegistry()

	SignalsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "msgnotify_signals_total",
		Help: "New-message signals received from the hook module.",
	})
	IgnoredBytesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "msgnotify_ignored_bytes_total",
		Help: "Bytes received on the pipe with a reserved value.",
	})
	InjectionsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "msgnotify_injections_total",
		Help: "Successful hook installations.",
	})
	ChannelConnectsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "msgnotify_channel_connects_total",
		Help: "Hook module connections accepted on the pipe.",
	})
	ChannelDisconnectsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "msgnotify_channel_disconnects_total",
		Help: "Pipe connections dropped after a read error.",
	})
	TargetRunning = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "msgnotify_target_running",
		Help: "1 while the target process is present and hooked.",
	})
)

func init() {
	Registry.MustRegister(
		SignalsTotal,
		IgnoredBytesTotal,
		InjectionsTotal,
		ChannelConnectsTotal,
		ChannelDisconnectsTotal,
		TargetRunning,
	)
}

// Serve exposes Registry on addr until quit is closed.
func Serve(addr string, quit <-chan struct{}) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(Registry, promhttp.HandlerOpts{}))
	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()
	logger.LogMessage(logger.LOGLEVEL_INFO, fmt.Sprintf("Metrics endpoint listening on %s/metrics", addr))

	select {
	case err := <-errCh:
		return fmt.Errorf("metrics server failed: %w", err)
	case <-quit:
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("metrics server shutdown: %w", err)
		}
		return nil
	}
}
