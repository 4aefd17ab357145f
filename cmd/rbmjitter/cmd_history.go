package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/nvandessel/rbmjitter/internal/constants"
	"github.com/nvandessel/rbmjitter/internal/jitter"
	"github.com/nvandessel/rbmjitter/internal/pathutil"
	"github.com/nvandessel/rbmjitter/internal/store"
	"github.com/spf13/cobra"
)

// historyItem is the --json form of a recorded run.
type historyItem struct {
	store.Run
	StdDev []*float64 `json:"std_dev"`
}

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "List recorded analyses, newest first",
		Long: `Show analyses recorded in .rbmjitter/runs.db under --root.

With a run ID, show only that run.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			root, _ := cmd.Flags().GetString("root")
			limit, _ := cmd.Flags().GetInt("limit")

			dbPath := filepath.Join(root, constants.StateDirName, constants.RunsDBName)
			if _, err := os.Stat(dbPath); os.IsNotExist(err) {
				if jsonOut {
					return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]interface{}{
						"runs":  []historyItem{},
						"count": 0,
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded yet.")
				return nil
			}

			runStore, err := store.OpenSQLiteRunStore(dbPath)
			if err != nil {
				return fmt.Errorf("failed to open run store: %w", err)
			}
			defer runStore.Close()

			var runs []store.Run
			if len(args) == 1 {
				run, err := runStore.GetRun(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				runs = []store.Run{*run}
			} else {
				runs, err = runStore.ListRuns(cmd.Context(), limit)
				if err != nil {
					return fmt.Errorf("failed to list runs: %w", err)
				}
			}

			if jsonOut {
				items := make([]historyItem, 0, len(runs))
				for _, r := range runs {
					items = append(items, historyItem{Run: r, StdDev: store.Nullable(r.StdDev)})
				}
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]interface{}{
					"runs":  items,
					"count": len(items),
				})
			}

			w := cmd.OutOrStdout()
			if len(runs) == 0 {
				fmt.Fprintln(w, "No runs recorded yet.")
				return nil
			}
			for _, r := range runs {
				fmt.Fprintf(w, "%s  %s\n", r.ID, r.CreatedAt.Local().Format("2006-01-02 15:04:05"))
				fmt.Fprintf(w, "  record:   %s\n", pathutil.RedactPath(r.RecordPath))
				fmt.Fprintf(w, "  transfer: %s [%s]\n", pathutil.RedactPath(r.TransferPath), r.TransferKey)
				fmt.Fprintf(w, "  channels: %s\n", strings.Join(r.Channels, ", "))
				fmt.Fprintf(w, "  window:   %d of %d steps (skip %d)\n", r.Samples, r.Steps, r.Skip)
				fmt.Fprintf(w, "  std mas:  %s\n", jitter.FormatVector(r.StdDev))
			}
			return nil
		},
	}

	cmd.Flags().Int("limit", constants.DefaultHistoryLimit, "Maximum number of runs to show")

	return cmd
}
