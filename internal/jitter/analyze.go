package jitter

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nvandessel/rbmjitter/internal/constants"
	"github.com/nvandessel/rbmjitter/internal/logging"
	"github.com/nvandessel/rbmjitter/internal/store"
	"github.com/nvandessel/rbmjitter/internal/transfer"
	"github.com/nvandessel/rbmjitter/internal/windload"
	"gonum.org/v1/gonum/mat"
)

// Options configures one analysis run.
type Options struct {
	RecordPath   string
	TransferPath string
	TransferKey  string
	Channels     []string
	Skip         int
	Mismatch     constants.MismatchPolicy

	// Logger receives operational output. Nil discards it.
	Logger *slog.Logger

	// Trace receives per-stage events. Nil is allowed.
	Trace *logging.StageLogger
}

// Result holds everything an analysis produced.
type Result struct {
	// Jitter is (axes × steps), in milliarcseconds.
	Jitter *mat.Dense

	// Times are the timestamps of the first channel, one per jitter column.
	Times []float64

	// Channels describes the stacked channels in column order.
	Channels []windload.ChannelInfo

	Summary Summary
}

// Analyze runs the full pipeline: load the record, extract and stack the
// channels, load the transfer matrix, compute jitter and summarize it.
func Analyze(ctx context.Context, opts Options) (*Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	if len(opts.Channels) == 0 {
		return nil, ErrNoChannels
	}

	start := time.Now()
	rec, err := windload.LoadRecord(opts.RecordPath)
	if err != nil {
		return nil, err
	}
	logger.Debug("loaded record", "channels", len(rec.Names()), "elapsed", time.Since(start))
	opts.Trace.Stage("load_record", time.Since(start), map[string]any{"channels": rec.Names()})

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start = time.Now()
	parts := make([]mat.Matrix, 0, len(opts.Channels))
	infos := make([]windload.ChannelInfo, 0, len(opts.Channels))
	var times []float64
	for i, name := range opts.Channels {
		ch, err := rec.Channel(name)
		if err != nil {
			return nil, err
		}
		m, err := ch.Matrix()
		if err != nil {
			return nil, err
		}
		if i == 0 {
			times = ch.Times()
		}
		parts = append(parts, m)
		infos = append(infos, windload.ChannelInfo{Name: name, Steps: ch.Len(), Dim: ch.Dim()})
	}

	motion, err := Stack(opts.Mismatch, parts...)
	if err != nil {
		return nil, err
	}
	steps, dofs := motion.Dims()
	times = times[:steps]
	logger.Debug("stacked motion", "steps", steps, "dofs", dofs)
	opts.Trace.Stage("stack", time.Since(start), map[string]any{"steps": steps, "dofs": dofs, "policy": opts.Mismatch.String()})

	start = time.Now()
	tm, err := transfer.Load(opts.TransferPath, opts.TransferKey)
	if err != nil {
		return nil, err
	}
	axes, _ := tm.Dims()
	logger.Debug("loaded transfer matrix", "key", opts.TransferKey, "axes", axes)
	opts.Trace.Stage("load_transfer", time.Since(start), map[string]any{"key": opts.TransferKey, "axes": axes})

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start = time.Now()
	j, err := Compute(tm, motion)
	if err != nil {
		return nil, err
	}
	summary, err := Summarize(j, opts.Skip)
	if err != nil {
		return nil, err
	}
	logger.Log(ctx, logging.LevelTrace, "jitter summary", "std_dev", summary.StdDev, "samples", summary.Samples)
	opts.Trace.Stage("summarize", time.Since(start), map[string]any{"std_dev": store.Nullable(summary.StdDev), "samples": summary.Samples})

	if summary.Samples == 0 {
		logger.Warn("statistics window is empty", "skip", opts.Skip, "steps", steps)
	}

	return &Result{
		Jitter:   j,
		Times:    times,
		Channels: infos,
		Summary:  summary,
	}, nil
}

// String formats the std vector the way the reference script prints it.
func (s Summary) String() string {
	return FormatVector(s.StdDev)
}

// FormatVector renders v as "[a b c]".
func FormatVector(v []float64) string {
	return fmt.Sprint(v)
}
