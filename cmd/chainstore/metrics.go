package chainstore

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/liftedinit/chainstore/internal/config"
	"github.com/liftedinit/chainstore/internal/metrics"
)

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Serve chain table metrics for Prometheus",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		metricsConfig := config.LoadMetricsConfigFromCLI()
		if err := metricsConfig.Validate(); err != nil {
			return fmt.Errorf("invalid metrics configuration: %w", err)
		}

		h, _, err := newHarness()
		if err != nil {
			return err
		}
		defer h.Close()

		conn, err := h.DB()
		if err != nil {
			return err
		}

		server, err := metrics.CreateMetricsServer(conn, metricsConfig.Addr)
		if err != nil {
			return fmt.Errorf("failed to start metrics server: %w", err)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return serveUntilDone(ctx, server)
	},
}

func init() {
	metricsCmd.Flags().String("prometheus-addr", "0.0.0.0:2112", "Address and port of the Prometheus metrics server")
	if err := viper.BindPFlags(metricsCmd.Flags()); err != nil {
		slog.Error("Failed to bind metricsCmd flags", "error", err)
	}
}

// serveUntilDone blocks until ctx is done, then shuts server down.
func serveUntilDone(ctx context.Context, server *http.Server) error {
	<-ctx.Done()
	slog.Info("Shutting down metrics server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
