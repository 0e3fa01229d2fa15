package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/c360studio/reqmark/document"
	"github.com/spf13/cobra"
)

// fileParseResult pairs a document path with its parse output.
type fileParseResult struct {
	Path   string                `json:"path"`
	Result *document.ParseResult `json:"result"`
}

func parseCmd() *cobra.Command {
	var (
		tenant     string
		projectKey string
	)

	cmd := &cobra.Command{
		Use:   "parse <pattern>...",
		Short: "Extract requirements, sections, and metadata from documents",
		Long: `Parse reads the given documents (glob patterns with ** are supported)
and prints the extracted requirements, sections, and frontmatter
metadata as JSON. Parsing is best-effort: malformed blocks are omitted
silently. Run validate to see structural problems.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			paths, err := expandPatterns(args)
			if err != nil {
				return err
			}

			results := make([]fileParseResult, 0, len(paths))
			for _, path := range paths {
				data, err := os.ReadFile(path)
				if err != nil {
					return fmt.Errorf("read %s: %w", path, err)
				}

				res := document.Parse(string(data), document.ParseContext{
					Tenant:       tenant,
					ProjectKey:   projectKey,
					DocumentSlug: slugForPath(path),
				})
				results = append(results, fileParseResult{Path: path, Result: res})
			}

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(results)
		},
	}

	cmd.Flags().StringVar(&tenant, "tenant", "", "Tenant identifier passed through to the parser context")
	cmd.Flags().StringVar(&projectKey, "project", "", "Project key passed through to the parser context")

	return cmd
}

// expandPatterns resolves glob patterns (with ** support) to a
// de-duplicated path list, preserving argument order.
func expandPatterns(patterns []string) ([]string, error) {
	var paths []string
	seen := make(map[string]bool)

	for _, pattern := range patterns {
		matches, err := doublestar.FilepathGlob(pattern)
		if err != nil {
			return nil, fmt.Errorf("bad pattern %q: %w", pattern, err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("no files match %q", pattern)
		}

		for _, m := range matches {
			if info, err := os.Stat(m); err == nil && info.IsDir() {
				continue
			}
			if !seen[m] {
				seen[m] = true
				paths = append(paths, m)
			}
		}
	}

	if len(paths) == 0 {
		return nil, fmt.Errorf("no documents found")
	}
	return paths, nil
}

// slugForPath derives a document slug from the base filename.
func slugForPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
