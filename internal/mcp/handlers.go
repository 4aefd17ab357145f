package mcp

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/nvandessel/rbmjitter/internal/constants"
	"github.com/nvandessel/rbmjitter/internal/export"
	"github.com/nvandessel/rbmjitter/internal/jitter"
	"github.com/nvandessel/rbmjitter/internal/pathutil"
	"github.com/nvandessel/rbmjitter/internal/store"
)

// registerTools registers the jitter tools with the server.
func (s *Server) registerTools() {
	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "jitter_analyze",
		Description: "Compute line-of-sight jitter from a wind-load record and a linear transfer matrix, and report the per-axis standard deviation in milliarcseconds",
	}, s.handleJitterAnalyze)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "jitter_history",
		Description: "List previously recorded jitter analyses, newest first",
	}, s.handleJitterHistory)
}

// handleJitterAnalyze implements the jitter_analyze tool.
func (s *Server) handleJitterAnalyze(ctx context.Context, req *sdk.CallToolRequest, args AnalyzeInput) (_ *sdk.CallToolResult, _ AnalyzeOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool("jitter_analyze", start, retErr, map[string]any{
			"record":   args.Record != "",
			"transfer": args.Transfer != "",
			"export":   args.Export,
		})
	}()

	if err := s.limits.Check("jitter_analyze"); err != nil {
		return nil, AnalyzeOutput{}, err
	}

	opts, err := s.analyzeOptions(args)
	if err != nil {
		return nil, AnalyzeOutput{}, err
	}

	res, err := jitter.Analyze(ctx, opts)
	if err != nil {
		return nil, AnalyzeOutput{}, fmt.Errorf("analysis failed: %w", err)
	}

	out := AnalyzeOutput{
		StdDev:   store.Nullable(res.Summary.StdDev),
		Samples:  res.Summary.Samples,
		Channels: opts.Channels,
	}
	_, out.Steps = res.Jitter.Dims()

	if s.defaults.History.Enabled {
		id, err := s.store.AddRun(ctx, res.Run(opts))
		if err != nil {
			return nil, AnalyzeOutput{}, fmt.Errorf("failed to record run: %w", err)
		}
		out.RunID = id
	}

	if args.Export {
		dir := pathutil.ExportDir(s.root)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, AnalyzeOutput{}, fmt.Errorf("failed to create export directory: %w", err)
		}
		name := out.RunID
		if name == "" {
			name = start.UTC().Format("20060102-150405")
		}
		out.ExportPath = filepath.Join(dir, name+".arrow")
		if err := export.WriteArrow(out.ExportPath, res.Times, res.Jitter); err != nil {
			return nil, AnalyzeOutput{}, fmt.Errorf("export failed: %w", err)
		}
	}

	out.Message = fmt.Sprintf("jitter std (mas) over %d samples: %s", out.Samples, res.Summary.String())
	return nil, out, nil
}

// analyzeOptions merges tool arguments over the configured defaults.
// Client-supplied paths must stay inside the project root; configured
// defaults are trusted.
func (s *Server) analyzeOptions(args AnalyzeInput) (jitter.Options, error) {
	in := s.defaults.Inputs
	opts := jitter.Options{
		RecordPath:   in.Record,
		TransferPath: in.Transfer,
		TransferKey:  in.TransferKey,
		Channels:     in.Channels,
		Skip:         s.defaults.Analysis.Skip,
		Mismatch:     s.defaults.Analysis.Mismatch,
		Logger:       s.logger,
		Trace:        s.trace,
	}

	allowed := pathutil.ProjectDirs(s.root)
	if args.Record != "" {
		p, err := pathutil.ResolveIn(s.root, args.Record, allowed)
		if err != nil {
			return opts, fmt.Errorf("record path rejected: %w", err)
		}
		opts.RecordPath = p
	} else if !filepath.IsAbs(opts.RecordPath) {
		opts.RecordPath = filepath.Join(s.root, opts.RecordPath)
	}
	if args.Transfer != "" {
		p, err := pathutil.ResolveIn(s.root, args.Transfer, allowed)
		if err != nil {
			return opts, fmt.Errorf("transfer path rejected: %w", err)
		}
		opts.TransferPath = p
	}
	if args.TransferKey != "" {
		opts.TransferKey = args.TransferKey
	}
	if len(args.Channels) > 0 {
		opts.Channels = args.Channels
	}
	if args.Skip != nil {
		if *args.Skip < 0 {
			return opts, fmt.Errorf("skip must be non-negative, got %d", *args.Skip)
		}
		opts.Skip = *args.Skip
	}
	if opts.Mismatch == "" {
		opts.Mismatch = constants.MismatchError
	}
	return opts, nil
}

// handleJitterHistory implements the jitter_history tool.
func (s *Server) handleJitterHistory(ctx context.Context, req *sdk.CallToolRequest, args HistoryInput) (_ *sdk.CallToolResult, _ HistoryOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool("jitter_history", start, retErr, map[string]any{
			"id":    args.ID != "",
			"limit": args.Limit,
		})
	}()

	if err := s.limits.Check("jitter_history"); err != nil {
		return nil, HistoryOutput{}, err
	}

	var runs []store.Run
	if args.ID != "" {
		run, err := s.store.GetRun(ctx, args.ID)
		if err != nil {
			return nil, HistoryOutput{}, err
		}
		runs = []store.Run{*run}
	} else {
		limit := args.Limit
		if limit <= 0 {
			limit = constants.DefaultHistoryLimit
		}
		var err error
		runs, err = s.store.ListRuns(ctx, limit)
		if err != nil {
			return nil, HistoryOutput{}, fmt.Errorf("failed to list runs: %w", err)
		}
	}

	out := HistoryOutput{Runs: make([]RunSummary, 0, len(runs))}
	for _, r := range runs {
		out.Runs = append(out.Runs, RunSummary{
			ID:          r.ID,
			CreatedAt:   r.CreatedAt,
			Record:      pathutil.RedactPath(r.RecordPath),
			Transfer:    pathutil.RedactPath(r.TransferPath),
			TransferKey: r.TransferKey,
			Channels:    r.Channels,
			Skip:        r.Skip,
			Samples:     r.Samples,
			StdDev:      store.Nullable(r.StdDev),
		})
	}
	out.Count = len(out.Runs)
	return nil, out, nil
}

// auditTool records a tool invocation to the slog logger and the stage trace.
// Only presence flags and small scalars are passed in params, never paths.
func (s *Server) auditTool(tool string, start time.Time, err error, params map[string]any) {
	elapsed := time.Since(start)
	status := "success"
	if err != nil {
		status = "error"
		s.logger.Warn("tool call failed", "tool", tool, "error", err)
	} else {
		s.logger.Debug("tool call", "tool", tool, "elapsed", elapsed)
	}

	fields := make(map[string]any, len(params)+2)
	for k, v := range params {
		fields[k] = v
	}
	fields["tool"] = tool
	fields["status"] = status
	s.trace.Stage("mcp_tool", elapsed, fields)
}
