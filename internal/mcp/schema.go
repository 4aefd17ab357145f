package mcp

import "time"

// AnalyzeInput defines the input for the jitter_analyze tool.
type AnalyzeInput struct {
	Record      string   `json:"record,omitempty" jsonschema:"Pickled wind-load record, relative to the project root (default: configured record)"`
	Transfer    string   `json:"transfer,omitempty" jsonschema:"npz archive holding the transfer matrix, relative to the project root (default: configured archive)"`
	TransferKey string   `json:"transfer_key,omitempty" jsonschema:"Array name inside the archive (default: D_tt)"`
	Channels    []string `json:"channels,omitempty" jsonschema:"Channels to stack, in column order (default: OSSM1Lcl, MCM2RB6D)"`
	Skip        *int     `json:"skip,omitempty" jsonschema:"Warm-up steps excluded from the statistics (default: 3000)"`
	Export      bool     `json:"export,omitempty" jsonschema:"Also write the jitter time series as an Arrow file under .rbmjitter/exports"`
}

// AnalyzeOutput defines the output for the jitter_analyze tool.
type AnalyzeOutput struct {
	RunID      string     `json:"run_id,omitempty" jsonschema:"ID of the recorded run"`
	StdDev     []*float64 `json:"std_dev" jsonschema:"Per-axis jitter standard deviation in mas; null when the window is empty"`
	Samples    int        `json:"samples" jsonschema:"Number of time steps in the statistics window"`
	Steps      int        `json:"steps" jsonschema:"Total number of time steps"`
	Channels   []string   `json:"channels" jsonschema:"Channels stacked, in column order"`
	ExportPath string     `json:"export_path,omitempty" jsonschema:"Arrow file written when export was requested"`
	Message    string     `json:"message" jsonschema:"Human-readable result message"`
}

// HistoryInput defines the input for the jitter_history tool.
type HistoryInput struct {
	ID    string `json:"id,omitempty" jsonschema:"Return only the run with this ID"`
	Limit int    `json:"limit,omitempty" jsonschema:"Maximum number of runs, newest first (default: 20)"`
}

// HistoryOutput defines the output for the jitter_history tool.
type HistoryOutput struct {
	Runs  []RunSummary `json:"runs" jsonschema:"Recorded runs, newest first"`
	Count int          `json:"count" jsonschema:"Number of runs returned"`
}

// RunSummary is the wire form of a recorded run.
type RunSummary struct {
	ID          string     `json:"id"`
	CreatedAt   time.Time  `json:"created_at"`
	Record      string     `json:"record"`
	Transfer    string     `json:"transfer"`
	TransferKey string     `json:"transfer_key"`
	Channels    []string   `json:"channels"`
	Skip        int        `json:"skip"`
	Samples     int        `json:"samples"`
	StdDev      []*float64 `json:"std_dev"`
}
