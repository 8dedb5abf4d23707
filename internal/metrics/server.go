package metrics

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/liftedinit/chainstore/internal/metrics/collectors"
)

// CreateMetricsServer registers the chain collectors and serves them on
// addr under /metrics. The listener is bound before returning so address
// errors are reported to the caller.
func CreateMetricsServer(db *sql.DB, addr string) (*http.Server, error) {
	cs, err := collectors.DefaultRegistry.CreateCollectors(db)
	if err != nil {
		return nil, fmt.Errorf("failed to create collectors: %w", err)
	}

	registry := prometheus.NewRegistry()
	for _, c := range cs {
		if err := registry.Register(c); err != nil {
			return nil, fmt.Errorf("failed to register collector: %w", err)
		}
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	server := &http.Server{Addr: addr, Handler: mux}
	go func() {
		slog.Info("Starting Prometheus metrics server", "addr", addr)
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Failed to start metrics server", "error", err)
		}
	}()

	return server, nil
}
