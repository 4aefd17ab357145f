package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nvandessel/rbmjitter/internal/constants"
	"github.com/nvandessel/rbmjitter/internal/testutil"
)

func TestInspectCmd_Text(t *testing.T) {
	tmpDir := t.TempDir()
	isolateHome(t, tmpDir)
	record, transfer := writeInputs(t, tmpDir)

	out, err := execute(t, "inspect", "--record", record, "--transfer", transfer)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	for _, want := range []string{"2 channels", constants.ChannelM1RBM, constants.ChannelM2RBM, "1 arrays", constants.DefaultTransferKey} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestInspectCmd_JSON(t *testing.T) {
	tmpDir := t.TempDir()
	isolateHome(t, tmpDir)
	record, transfer := writeInputs(t, tmpDir)

	out, err := execute(t, "inspect", "--json", "--record", record, "--transfer", transfer)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	var got inspectOutput
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("invalid JSON %q: %v", out, err)
	}
	if len(got.Channels) != 2 {
		t.Fatalf("Channels = %v, want 2", got.Channels)
	}
	for _, ch := range got.Channels {
		if ch.Steps != 2 || ch.Dim != 1 {
			t.Errorf("channel %s = %d x %d, want 2 x 1", ch.Name, ch.Steps, ch.Dim)
		}
	}
	if len(got.Arrays) != 1 || got.Arrays[0].Key != constants.DefaultTransferKey || formatShape(got.Arrays[0].Shape) != "2 x 2" {
		t.Errorf("Arrays = %+v, want one 2x2 %s", got.Arrays, constants.DefaultTransferKey)
	}
}

func TestInspectCmd_MixedRankArchive(t *testing.T) {
	tmpDir := t.TempDir()
	isolateHome(t, tmpDir)

	archive := filepath.Join(tmpDir, "mixed.npz")
	testutil.WriteArrays(t, archive, map[string]interface{}{
		constants.DefaultTransferKey: testutil.Identity(2),
		"times":                      []float64{0, 0.5, 1},
		"gain":                       2.5,
	})

	out, err := execute(t, "inspect", "--transfer", archive)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	for _, want := range []string{"3 arrays", "2 x 2", "times", "gain", "scalar"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestFormatShape(t *testing.T) {
	tests := []struct {
		dims []int
		want string
	}{
		{nil, "scalar"},
		{[]int{4}, "4"},
		{[]int{2, 3}, "2 x 3"},
		{[]int{2, 3, 4}, "2 x 3 x 4"},
	}
	for _, tt := range tests {
		if got := formatShape(tt.dims); got != tt.want {
			t.Errorf("formatShape(%v) = %q, want %q", tt.dims, got, tt.want)
		}
	}
}

func TestInspectCmd_RecordOnly(t *testing.T) {
	tmpDir := t.TempDir()
	isolateHome(t, tmpDir)
	record, _ := writeInputs(t, tmpDir)

	out, err := execute(t, "inspect", "--record", record)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if strings.Contains(out, "Archive") {
		t.Errorf("output should not describe an archive:\n%s", out)
	}
}

func TestExportCmd_AndInspectArrow(t *testing.T) {
	tmpDir := t.TempDir()
	isolateHome(t, tmpDir)
	record, transfer := writeInputs(t, tmpDir)
	arrowPath := filepath.Join(tmpDir, "jitter.arrow")

	if _, err := execute(t, "export", "--root", tmpDir, "--no-history", "--record", record, "--transfer", transfer, "--skip", "0", "--out", arrowPath); err != nil {
		t.Fatalf("export error = %v", err)
	}
	if _, err := os.Stat(arrowPath); err != nil {
		t.Fatalf("export file missing: %v", err)
	}

	out, err := execute(t, "inspect", "--arrow", arrowPath)
	if err != nil {
		t.Fatalf("inspect error = %v", err)
	}
	if !strings.Contains(out, "2 steps x 2 axes") {
		t.Errorf("output = %q, want shape summary", out)
	}
}

func TestExportCmd_DefaultPath(t *testing.T) {
	tmpDir := t.TempDir()
	isolateHome(t, tmpDir)
	record, transfer := writeInputs(t, tmpDir)

	out, err := execute(t, "export", "--json", "--root", tmpDir, "--no-history", "--record", record, "--transfer", transfer)
	if err != nil {
		t.Fatalf("export error = %v", err)
	}

	var got runOutput
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("invalid JSON %q: %v", out, err)
	}
	wantDir := filepath.Join(tmpDir, ".rbmjitter", "exports")
	if filepath.Dir(got.ExportPath) != wantDir {
		t.Errorf("ExportPath = %q, want it under %q", got.ExportPath, wantDir)
	}
	if _, err := os.Stat(got.ExportPath); err != nil {
		t.Errorf("export file missing: %v", err)
	}
}

func TestDefaultExportPath(t *testing.T) {
	now := time.Date(2021, 2, 25, 14, 47, 0, 0, time.UTC)
	got := defaultExportPath("/exports", now)
	want := filepath.Join("/exports", "jitter-20210225-144700.arrow")
	if got != want {
		t.Errorf("defaultExportPath() = %q, want %q", got, want)
	}
}
