// Package logging provides leveled logging and stage tracing for rbmjitter.
// It offers two complementary outputs:
//   - A leveled slog.Logger for stderr (operational output)
//   - A StageLogger for structured JSONL pipeline traces (.rbmjitter/trace.jsonl)
package logging

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/nvandessel/rbmjitter/internal/constants"
)

// LevelTrace is a custom slog level below Debug for full content logging.
// At this level, per-axis vectors and matrix shapes of every stage are included.
const LevelTrace = slog.LevelDebug - 4

// ParseLevel maps a string level name to a slog.Level.
// Supported values: "info", "debug", "trace" (case-insensitive).
// Unknown values default to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "trace":
		return LevelTrace
	default:
		return slog.LevelInfo
	}
}

// NewLogger creates a leveled slog.Logger writing to w.
func NewLogger(level string, w io.Writer) *slog.Logger {
	lvl := ParseLevel(level)
	opts := &slog.HandlerOptions{
		Level: lvl,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			// Label the custom trace level
			if a.Key == slog.LevelKey {
				if lvl, ok := a.Value.Any().(slog.Level); ok && lvl == LevelTrace {
					a.Value = slog.StringValue("TRACE")
				}
			}
			return a
		},
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// StageLogger writes structured pipeline stage events to a JSONL file.
// It is safe for concurrent use. A nil StageLogger is safe to use;
// all methods are no-ops on nil receiver.
type StageLogger struct {
	mu   sync.Mutex
	file *os.File
}

// NewStageLogger creates a stage logger writing to dir/trace.jsonl.
// At "info" level (the default), returns nil and no file is created.
// At "debug" or "trace" level, the file is opened for append.
// Returns nil if the file cannot be opened. All methods are nil-safe.
func NewStageLogger(dir string, level string) *StageLogger {
	lvl := ParseLevel(level)
	if lvl == slog.LevelInfo {
		return nil
	}

	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil
	}

	path := filepath.Join(dir, constants.TraceFileName)
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return nil
	}

	return &StageLogger{file: f}
}

// Log writes an event as a single JSONL line.
// A "time" field is added automatically. The caller's map is not mutated.
// Safe to call on nil receiver.
func (sl *StageLogger) Log(event map[string]any) {
	if sl == nil || sl.file == nil {
		return
	}

	entry := make(map[string]any, len(event)+1)
	for k, v := range event {
		entry[k] = v
	}
	entry["time"] = time.Now().UTC().Format(time.RFC3339Nano)

	sl.mu.Lock()
	defer sl.mu.Unlock()

	data, err := json.Marshal(entry)
	if err != nil {
		return
	}
	data = append(data, '\n')
	_, _ = sl.file.Write(data)
}

// Stage records one completed pipeline stage with its duration.
// Safe to call on nil receiver.
func (sl *StageLogger) Stage(name string, elapsed time.Duration, fields map[string]any) {
	if sl == nil {
		return
	}
	event := make(map[string]any, len(fields)+2)
	for k, v := range fields {
		event[k] = v
	}
	event["stage"] = name
	event["elapsed_ms"] = float64(elapsed.Microseconds()) / 1000
	sl.Log(event)
}

// Close closes the underlying file. Safe to call on nil receiver.
func (sl *StageLogger) Close() {
	if sl == nil || sl.file == nil {
		return
	}

	sl.mu.Lock()
	defer sl.mu.Unlock()

	sl.file.Close()
	sl.file = nil
}
