// Package main provides the reqmark binary entry point.
// Reqmark parses and validates requirement documents written in the
// directive grammar (::: requirement blocks embedded in markdown).
package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/c360studio/reqmark/config"
	"github.com/c360studio/reqmark/document"
	"github.com/c360studio/reqmark/quality"
	"github.com/spf13/cobra"
)

const (
	// Version is the binary version.
	Version = "0.1.0"
	// BuildTime is overridden at build time.
	BuildTime = "dev"

	appName = "reqmark"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var logLevel string

	cmd := &cobra.Command{
		Use:   appName,
		Short: "Requirement document parser and validator",
		Long: `Reqmark turns human-edited markdown documents into machine-readable
requirement records. Documents embed requirements in directive blocks:

    :::requirement{#SYS-1 title="Audit log"}
    The system shall log all security events.
    :::

The parse command extracts requirements, sections, and frontmatter
metadata; the validate command reports structural errors and advisory
warnings; the serve command exposes validation over NATS request/reply.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			configureLogging(logLevel)
		},
	}

	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	cmd.AddCommand(parseCmd())
	cmd.AddCommand(validateCmd())
	cmd.AddCommand(serveCmd())
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("%s version %s (build: %s)\n", appName, Version, BuildTime)
		},
	})

	return cmd
}

// configureLogging sets the default slog logger.
func configureLogging(logLevel string) {
	level := slog.LevelInfo
	switch strings.ToLower(logLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
}

// loadConfig loads the layered configuration.
func loadConfig() (*config.Config, error) {
	cfg, err := config.NewLoader(slog.Default()).Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// analyzerFromConfig builds the quality analyzer client, or nil when
// the quality gate is disabled.
func analyzerFromConfig(cfg *config.Config) document.Analyzer {
	if !cfg.Analyzer.Enabled {
		return nil
	}

	retry := quality.DefaultRetryConfig()
	if cfg.Analyzer.MaxAttempts > 0 {
		retry.MaxAttempts = cfg.Analyzer.MaxAttempts
	}

	return quality.NewClient(cfg.Analyzer.Endpoint,
		quality.WithHTTPClient(&http.Client{Timeout: cfg.Analyzer.GetAnalyzerTimeout()}),
		quality.WithRetryConfig(retry),
		quality.WithLogger(slog.Default()))
}
