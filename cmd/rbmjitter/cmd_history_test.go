package main

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestHistoryCmd_Empty(t *testing.T) {
	tmpDir := t.TempDir()
	isolateHome(t, tmpDir)

	out, err := execute(t, "history", "--root", tmpDir)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !strings.Contains(out, "No runs recorded yet.") {
		t.Errorf("output = %q, want empty notice", out)
	}
}

func TestHistoryCmd_ListsRuns(t *testing.T) {
	tmpDir := t.TempDir()
	isolateHome(t, tmpDir)
	record, transfer := writeInputs(t, tmpDir)

	for i := 0; i < 2; i++ {
		if _, err := execute(t, "--root", tmpDir, "--record", record, "--transfer", transfer, "--skip", "0"); err != nil {
			t.Fatalf("run %d error = %v", i, err)
		}
	}
	// An empty window stores NaN entries that must survive the JSON listing.
	if _, err := execute(t, "--root", tmpDir, "--record", record, "--transfer", transfer); err != nil {
		t.Fatalf("empty-window run error = %v", err)
	}

	out, err := execute(t, "history", "--json", "--root", tmpDir)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	var got struct {
		Runs []struct {
			ID      string     `json:"id"`
			Samples int        `json:"samples"`
			StdDev  []*float64 `json:"std_dev"`
		} `json:"runs"`
		Count int `json:"count"`
	}
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("invalid JSON %q: %v", out, err)
	}
	if got.Count != 3 {
		t.Fatalf("Count = %d, want 3", got.Count)
	}
	if got.Runs[0].Samples != 0 || got.Runs[0].StdDev[0] != nil {
		t.Errorf("newest run = %+v, want the empty-window run", got.Runs[0])
	}

	out, err = execute(t, "history", "--root", tmpDir, "--limit", "1")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if n := strings.Count(out, "record:"); n != 1 {
		t.Errorf("--limit 1 printed %d runs:\n%s", n, out)
	}

	out, err = execute(t, "history", got.Runs[1].ID, "--root", tmpDir)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !strings.HasPrefix(out, got.Runs[1].ID) {
		t.Errorf("output = %q, want run %s", out, got.Runs[1].ID)
	}
}

func TestHistoryCmd_UnknownID(t *testing.T) {
	tmpDir := t.TempDir()
	isolateHome(t, tmpDir)
	record, transfer := writeInputs(t, tmpDir)

	if _, err := execute(t, "--root", tmpDir, "--record", record, "--transfer", transfer, "--skip", "0"); err != nil {
		t.Fatalf("run error = %v", err)
	}
	if _, err := execute(t, "history", "missing", "--root", tmpDir); err == nil {
		t.Error("expected error for unknown run ID")
	}
}
