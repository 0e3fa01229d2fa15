package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/c360studio/reqmark/config"
	"github.com/c360studio/reqmark/document"
	"github.com/c360studio/reqmark/watcher"
	"github.com/spf13/cobra"
)

// fileValidationResult pairs a document path with its validation output.
type fileValidationResult struct {
	Path   string                     `json:"path"`
	Result *document.ValidationResult `json:"result"`
}

func validateCmd() *cobra.Command {
	var (
		jsonOutput bool
		watch      bool
	)

	cmd := &cobra.Command{
		Use:   "validate <pattern>...",
		Short: "Report structural errors and warnings for documents",
		Long: `Validate runs the directive grammar in diagnostic mode and reports
structural errors (unclosed blocks, duplicate IDs, empty requirements,
nested block markers) and advisory warnings (missing IDs, low quality
scores). The exit code is non-zero when any document is invalid.

With --watch, reqmark stays running and re-validates documents as they
change on disk.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			analyzer := analyzerFromConfig(cfg)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			paths, err := expandPatterns(args)
			if err != nil {
				return err
			}

			invalid, err := validatePaths(ctx, paths, analyzer, jsonOutput)
			if err != nil {
				return err
			}

			if watch {
				return watchAndRevalidate(ctx, cfg, paths, analyzer, jsonOutput)
			}

			if invalid > 0 {
				return fmt.Errorf("%d of %d documents invalid", invalid, len(paths))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit results as JSON")
	cmd.Flags().BoolVar(&watch, "watch", false, "Re-validate documents when they change")

	return cmd
}

// validatePaths validates each path and prints results. It returns the
// number of invalid documents.
func validatePaths(ctx context.Context, paths []string, analyzer document.Analyzer, jsonOutput bool) (int, error) {
	invalid := 0
	results := make([]fileValidationResult, 0, len(paths))

	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return 0, fmt.Errorf("read %s: %w", path, err)
		}

		res, err := document.Validate(ctx, string(data), analyzer)
		if err != nil {
			return 0, fmt.Errorf("validate %s: %w", path, err)
		}
		if !res.Valid {
			invalid++
		}

		if jsonOutput {
			results = append(results, fileValidationResult{Path: path, Result: res})
		} else {
			printResult(path, res)
		}
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(results); err != nil {
			return 0, err
		}
	}
	return invalid, nil
}

// printResult writes one document's diagnostics in compiler style.
func printResult(path string, res *document.ValidationResult) {
	status := "OK"
	if !res.Valid {
		status = "INVALID"
	}
	fmt.Printf("%s: %s (%d errors, %d warnings)\n", path, status, len(res.Errors), len(res.Warnings))

	for _, d := range res.Errors {
		fmt.Printf("%s:%d: %s %s: %s\n", path, d.Line, d.Severity, d.Code, d.Message)
	}
	for _, d := range res.Warnings {
		fmt.Printf("%s:%d: %s %s: %s\n", path, d.Line, d.Severity, d.Code, d.Message)
	}
}

// watchAndRevalidate re-runs validation for documents as they change,
// until the context is cancelled.
func watchAndRevalidate(ctx context.Context, cfg *config.Config, paths []string, analyzer document.Analyzer, jsonOutput bool) error {
	root, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("get working directory: %w", err)
	}

	watched := make(map[string]bool, len(paths))
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			continue
		}
		watched[abs] = true
	}

	w, err := watcher.New(watcher.Config{
		DebounceDelay:  cfg.Watch.GetDebounceDelay(),
		FileExtensions: cfg.Watch.FileExtensions,
		ExcludeDirs:    cfg.Watch.ExcludeDirs,
	}, root, slog.Default())
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer w.Stop()

	if err := w.Start(ctx); err != nil {
		return fmt.Errorf("start watcher: %w", err)
	}

	slog.Info("Watching for document changes", "root", root, "documents", len(watched))

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events():
			if !ok {
				return nil
			}
			if ev.Op == watcher.OpDelete || !watched[ev.AbsPath] {
				continue
			}
			if _, err := validatePaths(ctx, []string{ev.AbsPath}, analyzer, jsonOutput); err != nil {
				slog.Error("Re-validation failed", "path", ev.Path, "error", err)
			}
		}
	}
}
