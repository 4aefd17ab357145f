package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/nvandessel/rbmjitter/internal/pathutil"
	"github.com/spf13/cobra"
)

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the jitter time series to an Arrow IPC file",
		Long: `Run the analysis and write the full jitter time series as an Apache
Arrow IPC file: a "time" column plus one "axis_<i>" column per jitter axis,
in milliarcseconds.

Without --out the file goes to .rbmjitter/exports/jitter-<timestamp>.arrow
under --root. The standard deviation summary is printed as for run.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out, _ := cmd.Flags().GetString("out")
			if out == "" {
				root, _ := cmd.Flags().GetString("root")
				dir := pathutil.ExportDir(root)
				if err := os.MkdirAll(dir, 0755); err != nil {
					return fmt.Errorf("failed to create export directory: %w", err)
				}
				out = defaultExportPath(dir, time.Now())
			}
			return runAnalysis(cmd, out)
		},
	}

	addAnalysisFlags(cmd)
	cmd.Flags().StringP("out", "o", "", "Output Arrow file (default .rbmjitter/exports/jitter-<timestamp>.arrow)")

	return cmd
}

// defaultExportPath names an export file by its UTC creation time.
func defaultExportPath(dir string, now time.Time) string {
	return filepath.Join(dir, "jitter-"+now.UTC().Format("20060102-150405")+".arrow")
}

// exportSummary is printed by inspect for an existing export.
type exportSummary struct {
	Path  string `json:"path"`
	Steps int    `json:"steps"`
	Axes  int    `json:"axes"`
}

func printExportSummary(cmd *cobra.Command, s exportSummary) error {
	jsonOut, _ := cmd.Flags().GetBool("json")
	if jsonOut {
		return json.NewEncoder(cmd.OutOrStdout()).Encode(s)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Export %s: %d steps x %d axes\n", s.Path, s.Steps, s.Axes)
	return nil
}
