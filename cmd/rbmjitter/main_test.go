package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/nvandessel/rbmjitter/internal/constants"
	"github.com/nvandessel/rbmjitter/internal/testutil"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// isolateHome sets HOME to a temp directory to avoid touching the real
// ~/.rbmjitter/config.yaml. MUST be called by every test that loads config.
func isolateHome(t *testing.T, tmpDir string) {
	t.Helper()
	tmpHome := filepath.Join(tmpDir, "home")
	if err := os.MkdirAll(tmpHome, 0700); err != nil {
		t.Fatalf("Failed to create temp home: %v", err)
	}
	t.Setenv("HOME", tmpHome)
}

// writeInputs writes a two-step record with the default channels and an
// identity transfer matrix into dir.
func writeInputs(t *testing.T, dir string) (recordPath, transferPath string) {
	t.Helper()
	recordPath = filepath.Join(dir, "record.pkl")
	testutil.WriteRecord(t, recordPath, testutil.LayoutPairs,
		testutil.ChannelData{Name: constants.ChannelM1RBM, Times: []float64{0, 0.05}, Values: [][]float64{{1}, {2}}},
		testutil.ChannelData{Name: constants.ChannelM2RBM, Times: []float64{0, 0.05}, Values: [][]float64{{3}, {4}}},
	)
	transferPath = filepath.Join(dir, "linear_jitter.npz")
	testutil.WriteTransfer(t, transferPath, map[string]*mat.Dense{
		constants.DefaultTransferKey: testutil.Identity(2),
	})
	return recordPath, transferPath
}

// parseVector reads a single "[a b ...]" output line.
func parseVector(t *testing.T, out string) []float64 {
	t.Helper()
	line := strings.TrimSuffix(out, "\n")
	if strings.Contains(line, "\n") || !strings.HasPrefix(line, "[") || !strings.HasSuffix(line, "]") {
		t.Fatalf("output = %q, want one bracketed line", out)
	}
	fields := strings.Fields(strings.Trim(line, "[]"))
	v := make([]float64, len(fields))
	for i, f := range fields {
		x, err := strconv.ParseFloat(f, 64)
		if err != nil {
			t.Fatalf("output field %q: %v", f, err)
		}
		v[i] = x
	}
	return v
}

// execute runs the root command with args and returns its stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRootCmd_PrintsStdVector(t *testing.T) {
	tmpDir := t.TempDir()
	isolateHome(t, tmpDir)
	record, transfer := writeInputs(t, tmpDir)

	out, err := execute(t, "--root", tmpDir, "--record", record, "--transfer", transfer, "--skip", "0")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	got := parseVector(t, out)
	want := []float64{0.5 * constants.RadToMas, 0.5 * constants.RadToMas}
	if !floats.EqualApprox(got, want, 1e-9) {
		t.Errorf("output = %q, want %v", out, want)
	}

	if _, err := os.Stat(filepath.Join(tmpDir, ".rbmjitter", "runs.db")); err != nil {
		t.Errorf("run was not recorded: %v", err)
	}
}

func TestRunCmd_JSON(t *testing.T) {
	tmpDir := t.TempDir()
	isolateHome(t, tmpDir)
	record, transfer := writeInputs(t, tmpDir)

	out, err := execute(t, "run", "--json", "--root", tmpDir, "--record", record, "--transfer", transfer, "--skip", "0", "--no-history")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	var got runOutput
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("invalid JSON %q: %v", out, err)
	}
	if len(got.StdDev) != 2 || got.StdDev[0] == nil {
		t.Fatalf("StdDev = %v, want two values", got.StdDev)
	}
	if got.Samples != 2 || got.Steps != 2 {
		t.Errorf("Samples, Steps = %d, %d, want 2, 2", got.Samples, got.Steps)
	}
	if got.RunID != "" {
		t.Errorf("RunID = %q, want empty with --no-history", got.RunID)
	}
	if _, err := os.Stat(filepath.Join(tmpDir, ".rbmjitter", "runs.db")); !os.IsNotExist(err) {
		t.Error("runs.db should not exist with --no-history")
	}
}

func TestRunCmd_DefaultSkipEmptyWindow(t *testing.T) {
	tmpDir := t.TempDir()
	isolateHome(t, tmpDir)
	record, transfer := writeInputs(t, tmpDir)

	out, err := execute(t, "run", "--json", "--root", tmpDir, "--record", record, "--transfer", transfer)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	var got runOutput
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("invalid JSON %q: %v", out, err)
	}
	if got.Skip != constants.DefaultSkip || got.Samples != 0 {
		t.Errorf("Skip, Samples = %d, %d, want %d, 0", got.Skip, got.Samples, constants.DefaultSkip)
	}
	for i, v := range got.StdDev {
		if v != nil {
			t.Errorf("StdDev[%d] = %g, want null", i, *v)
		}
	}
}

func TestRunCmd_EnvOverride(t *testing.T) {
	tmpDir := t.TempDir()
	isolateHome(t, tmpDir)
	record, transfer := writeInputs(t, tmpDir)
	t.Setenv("RBMJITTER_RECORD", record)
	t.Setenv("RBMJITTER_TRANSFER", transfer)
	t.Setenv("RBMJITTER_SKIP", "1")
	t.Setenv("RBMJITTER_HISTORY", "false")

	out, err := execute(t, "run", "--json", "--root", tmpDir)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	var got runOutput
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("invalid JSON %q: %v", out, err)
	}
	if got.Skip != 1 || got.Samples != 1 {
		t.Errorf("Skip, Samples = %d, %d, want 1, 1", got.Skip, got.Samples)
	}
}

func TestRunCmd_Errors(t *testing.T) {
	tmpDir := t.TempDir()
	isolateHome(t, tmpDir)
	record, transfer := writeInputs(t, tmpDir)

	tests := []struct {
		name        string
		args        []string
		errContains string
	}{
		{"missing record", []string{"--record", filepath.Join(tmpDir, "missing.pkl"), "--transfer", transfer}, "missing.pkl"},
		{"missing archive", []string{"--record", record, "--transfer", filepath.Join(tmpDir, "missing.npz")}, "missing.npz"},
		{"unknown channel", []string{"--record", record, "--transfer", transfer, "--channels", "OSSM1Lcl,NOPE"}, "channel not found"},
		{"unknown key", []string{"--record", record, "--transfer", transfer, "--key", "D_xx"}, "array not found"},
		{"negative skip", []string{"--record", record, "--transfer", transfer, "--skip", "-1"}, "skip must be non-negative"},
		{"bad policy", []string{"--record", record, "--transfer", transfer, "--mismatch", "pad"}, "invalid mismatch policy"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"run", "--root", tmpDir, "--no-history"}, tt.args...)
			_, err := execute(t, args...)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.errContains) {
				t.Errorf("error = %v, want it to contain %q", err, tt.errContains)
			}
		})
	}
}

func TestRootCmd_HelpDocumentsHistoryFile(t *testing.T) {
	isolateHome(t, t.TempDir())

	out, err := execute(t, "--help")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	for _, want := range []string{".rbmjitter/runs.db", "--no-history", "RBMJITTER_HISTORY=false"} {
		if !strings.Contains(out, want) {
			t.Errorf("help missing %q:\n%s", want, out)
		}
	}
}

func TestRootCmd_NoHistoryLeavesProjectUntouched(t *testing.T) {
	tmpDir := t.TempDir()
	isolateHome(t, tmpDir)
	record, transfer := writeInputs(t, tmpDir)

	if _, err := execute(t, "--root", tmpDir, "--record", record, "--transfer", transfer, "--no-history"); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(tmpDir, ".rbmjitter")); !os.IsNotExist(err) {
		t.Errorf(".rbmjitter exists after --no-history run (stat err = %v)", err)
	}
}

func TestRootCmd_RejectsArgs(t *testing.T) {
	tmpDir := t.TempDir()
	isolateHome(t, tmpDir)

	if _, err := execute(t, "bogus"); err == nil {
		t.Error("expected error for unknown command")
	}
}

func TestVersionCmd(t *testing.T) {
	out, err := execute(t, "version")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !strings.Contains(out, "rbmjitter version "+version) {
		t.Errorf("output = %q, want version line", out)
	}

	out, err = execute(t, "version", "--json")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	var got map[string]string
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("invalid JSON %q: %v", out, err)
	}
	if got["version"] != version || got["commit"] != commit {
		t.Errorf("version JSON = %v", got)
	}
}
