package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nvandessel/rbmjitter/internal/config"
	"github.com/nvandessel/rbmjitter/internal/constants"
)

func TestConfigSetGet(t *testing.T) {
	tmpDir := t.TempDir()
	isolateHome(t, tmpDir)

	if _, err := execute(t, "config", "set", "analysis.skip", "100"); err != nil {
		t.Fatalf("config set error = %v", err)
	}
	if _, err := execute(t, "config", "set", "inputs.channels", "MCM2RB6D, OSSM1Lcl"); err != nil {
		t.Fatalf("config set error = %v", err)
	}

	out, err := execute(t, "config", "get", "analysis.skip")
	if err != nil {
		t.Fatalf("config get error = %v", err)
	}
	if out != "analysis.skip = 100\n" {
		t.Errorf("output = %q", out)
	}

	out, err = execute(t, "config", "get", "inputs.channels", "--json")
	if err != nil {
		t.Fatalf("config get error = %v", err)
	}
	var got map[string]interface{}
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("invalid JSON %q: %v", out, err)
	}
	if got["value"] != "MCM2RB6D,OSSM1Lcl" {
		t.Errorf("value = %v, want swapped channels", got["value"])
	}

	cfg, err := config.LoadFromFile(filepath.Join(tmpDir, "home", ".rbmjitter", "config.yaml"))
	if err != nil {
		t.Fatalf("LoadFromFile() error = %v", err)
	}
	if cfg.Analysis.Skip != 100 || cfg.Inputs.TransferKey != constants.DefaultTransferKey {
		t.Errorf("saved config = %+v", cfg)
	}
}

func TestConfigSet_DoesNotPersistEnv(t *testing.T) {
	tmpDir := t.TempDir()
	isolateHome(t, tmpDir)
	t.Setenv("RBMJITTER_TRANSFER_KEY", "D_env")

	if _, err := execute(t, "config", "set", "analysis.skip", "10"); err != nil {
		t.Fatalf("config set error = %v", err)
	}

	data, err := os.ReadFile(filepath.Join(tmpDir, "home", ".rbmjitter", "config.yaml"))
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if strings.Contains(string(data), "D_env") {
		t.Errorf("environment override was persisted:\n%s", data)
	}
}

func TestConfigSet_Errors(t *testing.T) {
	tmpDir := t.TempDir()
	isolateHome(t, tmpDir)

	tests := []struct {
		name        string
		key, value  string
		errContains string
	}{
		{"unknown key", "llm.provider", "x", "unknown configuration key"},
		{"bad skip", "analysis.skip", "many", "invalid skip"},
		{"negative skip", "analysis.skip", "-5", "non-negative"},
		{"bad policy", "analysis.mismatch", "pad", "invalid mismatch policy"},
		{"bad level", "logging.level", "loud", "invalid log level"},
		{"no channels", "inputs.channels", " , ", "at least one channel"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, "config", "set", "--", tt.key, tt.value)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.errContains) {
				t.Errorf("error = %v, want it to contain %q", err, tt.errContains)
			}
		})
	}

	if _, err := os.Stat(filepath.Join(tmpDir, "home", ".rbmjitter", "config.yaml")); !os.IsNotExist(err) {
		t.Error("rejected values should not write a config file")
	}
}

func TestConfigList(t *testing.T) {
	tmpDir := t.TempDir()
	isolateHome(t, tmpDir)

	out, err := execute(t, "config", "list")
	if err != nil {
		t.Fatalf("config list error = %v", err)
	}
	for _, key := range configKeys {
		if !strings.Contains(out, key+":") {
			t.Errorf("output missing %s:\n%s", key, out)
		}
	}

	out, err = execute(t, "config", "list", "--json")
	if err != nil {
		t.Fatalf("config list error = %v", err)
	}
	var cfg config.JitterConfig
	if err := json.Unmarshal([]byte(out), &cfg); err != nil {
		t.Fatalf("invalid JSON %q: %v", out, err)
	}
	if cfg.Analysis.Skip != constants.DefaultSkip {
		t.Errorf("Skip = %d, want %d", cfg.Analysis.Skip, constants.DefaultSkip)
	}
}

func TestConfigGet_UnknownKey(t *testing.T) {
	tmpDir := t.TempDir()
	isolateHome(t, tmpDir)

	if _, err := execute(t, "config", "get", "nope"); err == nil {
		t.Error("expected error for unknown key")
	}
}

func TestConfigSet_NegativeValueNeedsSeparator(t *testing.T) {
	tmpDir := t.TempDir()
	isolateHome(t, tmpDir)

	// Without "--" the value is parsed as a shorthand flag.
	if _, err := execute(t, "config", "set", "analysis.skip", "-5"); err == nil || strings.Contains(err.Error(), "non-negative") {
		t.Errorf("error = %v, want a flag parsing error", err)
	}

	_, err := execute(t, "config", "set", "--", "analysis.skip", "-5")
	if err == nil || !strings.Contains(err.Error(), "non-negative") {
		t.Errorf("error = %v, want it to contain %q", err, "non-negative")
	}
}
