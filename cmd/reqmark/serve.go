package main

import (
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/c360studio/reqmark/service"
	"github.com/spf13/cobra"
)

// stopTimeout bounds graceful shutdown of the validation service.
const stopTimeout = 10 * time.Second

func serveCmd() *cobra.Command {
	var (
		natsURL     string
		subject     string
		metricsAddr string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the NATS validation service",
		Long: `Serve connects to NATS and answers validation requests on the
configured subject. Requests carry document content plus tenant,
project, and slug identifiers; replies carry the ValidationResult.
Prometheus metrics are exposed on the metrics address.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			// CLI flags override config file values.
			if natsURL != "" {
				cfg.NATS.URL = natsURL
			}
			if subject != "" {
				cfg.NATS.Subject = subject
			}
			if metricsAddr != "" {
				cfg.Metrics.Addr = metricsAddr
			}

			svc := service.New(service.Config{
				URL:         cfg.NATS.URL,
				Subject:     cfg.NATS.Subject,
				Queue:       cfg.NATS.Queue,
				MetricsAddr: cfg.Metrics.Addr,
			}, analyzerFromConfig(cfg), slog.Default())

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if err := svc.Start(ctx); err != nil {
				return fmt.Errorf("start service: %w", err)
			}

			<-ctx.Done()
			slog.Info("Shutting down")
			return svc.Stop(stopTimeout)
		},
	}

	cmd.Flags().StringVar(&natsURL, "nats-url", "", "NATS server URL (overrides config)")
	cmd.Flags().StringVar(&subject, "subject", "", "Request subject to listen on (overrides config)")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Listen address for /metrics (overrides config)")

	return cmd
}
