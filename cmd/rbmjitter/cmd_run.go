package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/nvandessel/rbmjitter/internal/config"
	"github.com/nvandessel/rbmjitter/internal/constants"
	"github.com/nvandessel/rbmjitter/internal/export"
	"github.com/nvandessel/rbmjitter/internal/jitter"
	"github.com/nvandessel/rbmjitter/internal/logging"
	"github.com/nvandessel/rbmjitter/internal/pathutil"
	"github.com/nvandessel/rbmjitter/internal/store"
	"github.com/spf13/cobra"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Compute jitter and print the per-axis standard deviation",
		Long: `Load the wind-load record and the transfer matrix, compute the
line-of-sight jitter in milliarcseconds and print its standard deviation per
axis over the steps after --skip.

Flags override ~/.rbmjitter/config.yaml and RBMJITTER_* environment variables.

Examples:
  rbmjitter run
  rbmjitter run --record windloading.pkl --transfer linear_jitter.npz
  rbmjitter run --skip 0 --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			exportPath, _ := cmd.Flags().GetString("export")
			return runAnalysis(cmd, exportPath)
		},
	}

	addAnalysisFlags(cmd)
	cmd.Flags().String("export", "", "Also write the jitter time series to this Arrow file")

	return cmd
}

// addAnalysisFlags registers the flags that override the configured inputs.
func addAnalysisFlags(cmd *cobra.Command) {
	cmd.Flags().String("record", "", "Pickled wind-load record (default from config)")
	cmd.Flags().String("transfer", "", "npz archive holding the transfer matrix (default from config)")
	cmd.Flags().String("key", "", "Array name inside the archive (default from config)")
	cmd.Flags().StringSlice("channels", nil, "Channels to stack, in column order (default from config)")
	cmd.Flags().Int("skip", 0, "Warm-up steps excluded from the statistics (default from config)")
	cmd.Flags().String("mismatch", "", "Step-count mismatch policy: error or truncate (default from config)")
	cmd.Flags().Bool("no-history", false, "Do not record this run in .rbmjitter/runs.db")
}

// loadConfig loads the configuration and applies the analysis flags that
// were explicitly set on cmd.
func loadConfig(cmd *cobra.Command) (*config.JitterConfig, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	flags := cmd.Flags()
	if flags.Changed("record") {
		cfg.Inputs.Record, _ = flags.GetString("record")
	}
	if flags.Changed("transfer") {
		cfg.Inputs.Transfer, _ = flags.GetString("transfer")
	}
	if flags.Changed("key") {
		cfg.Inputs.TransferKey, _ = flags.GetString("key")
	}
	if flags.Changed("channels") {
		cfg.Inputs.Channels, _ = flags.GetStringSlice("channels")
	}
	if flags.Changed("skip") {
		cfg.Analysis.Skip, _ = flags.GetInt("skip")
	}
	if flags.Changed("mismatch") {
		v, _ := flags.GetString("mismatch")
		cfg.Analysis.Mismatch = constants.MismatchPolicy(v)
	}
	if noHistory, _ := flags.GetBool("no-history"); noHistory {
		cfg.History.Enabled = false
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// analysisOptions builds pipeline options from a validated config.
func analysisOptions(cfg *config.JitterConfig, logger *slog.Logger, trace *logging.StageLogger) jitter.Options {
	return jitter.Options{
		RecordPath:   cfg.Inputs.Record,
		TransferPath: cfg.Inputs.Transfer,
		TransferKey:  cfg.Inputs.TransferKey,
		Channels:     cfg.Inputs.Channels,
		Skip:         cfg.Analysis.Skip,
		Mismatch:     cfg.Analysis.Mismatch,
		Logger:       logger,
		Trace:        trace,
	}
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	sigChan := make(chan os.Signal, 1)
	notifySignals(sigChan)
	go func() {
		select {
		case <-sigChan:
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigChan)
	}()
	return ctx, cancel
}

// runOutput is the --json form of a completed analysis.
type runOutput struct {
	StdDev     []*float64 `json:"std_dev"`
	Samples    int        `json:"samples"`
	Skip       int        `json:"skip"`
	Steps      int        `json:"steps"`
	Channels   []string   `json:"channels"`
	RunID      string     `json:"run_id,omitempty"`
	ExportPath string     `json:"export_path,omitempty"`
}

// runAnalysis runs the full pipeline with cmd's configuration, records it,
// optionally exports the time series, and prints the summary.
func runAnalysis(cmd *cobra.Command, exportPath string) error {
	jsonOut, _ := cmd.Flags().GetBool("json")
	root, _ := cmd.Flags().GetString("root")

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	logger := logging.NewLogger(cfg.Logging.Level, cmd.ErrOrStderr())
	trace := logging.NewStageLogger(filepath.Join(root, constants.StateDirName), cfg.Logging.Level)
	defer trace.Close()

	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	opts := analysisOptions(cfg, logger, trace)
	start := time.Now()
	res, err := jitter.Analyze(ctx, opts)
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}
	logger.Debug("analysis complete", "elapsed", time.Since(start))

	out := runOutput{
		StdDev:   store.Nullable(res.Summary.StdDev),
		Samples:  res.Summary.Samples,
		Skip:     res.Summary.Skip,
		Channels: opts.Channels,
	}
	_, out.Steps = res.Jitter.Dims()

	if cfg.History.Enabled {
		id, err := recordRun(ctx, root, res.Run(opts))
		if err != nil {
			// Recording is best effort.
			logger.Warn("failed to record run", "error", err)
		} else {
			out.RunID = id
			logger.Debug("recorded run", "id", id)
		}
	}

	if exportPath != "" {
		if err := export.WriteArrow(exportPath, res.Times, res.Jitter); err != nil {
			return fmt.Errorf("export failed: %w", err)
		}
		out.ExportPath = exportPath
		logger.Info("exported jitter", "path", pathutil.RedactPath(exportPath))
	}

	if jsonOut {
		return json.NewEncoder(cmd.OutOrStdout()).Encode(out)
	}
	fmt.Fprintln(cmd.OutOrStdout(), res.Summary.String())
	return nil
}

// recordRun appends run to the project's SQLite history.
func recordRun(ctx context.Context, root string, run store.Run) (string, error) {
	runStore, err := store.NewSQLiteRunStore(root)
	if err != nil {
		return "", err
	}
	defer runStore.Close()
	return runStore.AddRun(ctx, run)
}
