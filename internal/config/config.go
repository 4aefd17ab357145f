// Package config provides unified configuration loading for rbmjitter.
// It supports loading from YAML files and environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/nvandessel/rbmjitter/internal/constants"
	"gopkg.in/yaml.v3"
)

// JitterConfig contains all rbmjitter configuration settings.
type JitterConfig struct {
	// Inputs names the simulation record, the transfer archive and the channels to stack.
	Inputs InputsConfig `json:"inputs" yaml:"inputs"`

	// Analysis contains settings for the jitter statistics.
	Analysis AnalysisConfig `json:"analysis" yaml:"analysis"`

	// History controls run recording.
	History HistoryConfig `json:"history" yaml:"history"`

	// Logging contains settings for operational and stage logging.
	Logging LoggingConfig `json:"logging" yaml:"logging"`
}

// InputsConfig locates the data the analysis reads.
type InputsConfig struct {
	// Record is the pickled simulation record. Relative paths resolve
	// against the working directory. Supports ${VAR} syntax.
	Record string `json:"record" yaml:"record"`

	// Transfer is the npz archive holding the transfer matrix. Supports ${VAR} syntax.
	Transfer string `json:"transfer" yaml:"transfer"`

	// TransferKey is the array name inside the archive.
	TransferKey string `json:"transfer_key" yaml:"transfer_key"`

	// Channels are stacked column-wise in this order.
	Channels []string `json:"channels" yaml:"channels"`
}

// AnalysisConfig configures the trailing-window statistics.
type AnalysisConfig struct {
	// Skip is the number of leading time steps dropped before the std.
	Skip int `json:"skip" yaml:"skip"`

	// Mismatch is applied when channels have different step counts:
	// "error" (default) or "truncate".
	Mismatch constants.MismatchPolicy `json:"mismatch" yaml:"mismatch"`
}

// HistoryConfig configures the SQLite run history.
type HistoryConfig struct {
	// Enabled records every completed analysis under <root>/.rbmjitter/runs.db.
	Enabled bool `json:"enabled" yaml:"enabled"`
}

// LoggingConfig configures rbmjitter's logging behavior.
type LoggingConfig struct {
	// Level sets the log verbosity: "info" (default), "debug", or "trace".
	// "debug" enables stage tracing to .rbmjitter/trace.jsonl.
	Level string `json:"level" yaml:"level"`
}

// Default returns a JitterConfig reproducing the original wind-load case.
func Default() *JitterConfig {
	return &JitterConfig{
		Inputs: InputsConfig{
			Record:      constants.DefaultRecordFile,
			Transfer:    filepath.Join(constants.DefaultTransferDir, constants.DefaultTransferFile),
			TransferKey: constants.DefaultTransferKey,
			Channels:    constants.DefaultChannels(),
		},
		Analysis: AnalysisConfig{
			Skip:     constants.DefaultSkip,
			Mismatch: constants.MismatchError,
		},
		History: HistoryConfig{
			Enabled: true,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// DefaultPath returns ~/.rbmjitter/config.yaml.
func DefaultPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, constants.StateDirName, "config.yaml"), nil
}

// Load loads configuration from the default locations and environment variables.
// Order: defaults -> ~/.rbmjitter/config.yaml -> environment variables
func Load() (*JitterConfig, error) {
	config := Default()

	configPath, err := DefaultPath()
	if err == nil {
		if _, statErr := os.Stat(configPath); statErr == nil {
			fileConfig, loadErr := LoadFromFile(configPath)
			if loadErr != nil {
				return nil, fmt.Errorf("loading config file: %w", loadErr)
			}
			config = fileConfig
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// LoadFromFile loads configuration from a specific YAML file.
func LoadFromFile(path string) (*JitterConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	config.Inputs.Record = expandEnvVars(config.Inputs.Record)
	config.Inputs.Transfer = expandEnvVars(config.Inputs.Transfer)

	return config, nil
}

// Save writes the configuration to path, creating parent directories.
func Save(config *JitterConfig, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// Validate checks that the configuration is valid.
func (c *JitterConfig) Validate() error {
	if c.Inputs.Record == "" {
		return fmt.Errorf("inputs.record must be set")
	}

	if c.Inputs.Transfer == "" {
		return fmt.Errorf("inputs.transfer must be set")
	}

	if c.Inputs.TransferKey == "" {
		return fmt.Errorf("inputs.transfer_key must be set")
	}

	if len(c.Inputs.Channels) == 0 {
		return fmt.Errorf("inputs.channels must name at least one channel")
	}

	seen := make(map[string]bool, len(c.Inputs.Channels))
	for _, name := range c.Inputs.Channels {
		if name == "" {
			return fmt.Errorf("inputs.channels contains an empty name")
		}
		if seen[name] {
			return fmt.Errorf("inputs.channels lists %s twice", name)
		}
		seen[name] = true
	}

	if c.Analysis.Skip < 0 {
		return fmt.Errorf("skip must be non-negative, got %d", c.Analysis.Skip)
	}

	if !c.Analysis.Mismatch.Valid() {
		return fmt.Errorf("invalid mismatch policy: %s (valid: error, truncate)", c.Analysis.Mismatch)
	}

	validLevels := map[string]bool{"info": true, "debug": true, "trace": true}
	if c.Logging.Level != "" && !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s (valid: info, debug, trace, or empty for default)", c.Logging.Level)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides to the config.
func applyEnvOverrides(config *JitterConfig) {
	if v := os.Getenv("RBMJITTER_RECORD"); v != "" {
		config.Inputs.Record = v
	}

	if v := os.Getenv("RBMJITTER_TRANSFER"); v != "" {
		config.Inputs.Transfer = v
	}

	if v := os.Getenv("RBMJITTER_TRANSFER_KEY"); v != "" {
		config.Inputs.TransferKey = v
	}

	if v := os.Getenv("RBMJITTER_CHANNELS"); v != "" {
		config.Inputs.Channels = SplitChannels(v)
	}

	if v := os.Getenv("RBMJITTER_SKIP"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.Analysis.Skip = n
		}
	}

	if v := os.Getenv("RBMJITTER_MISMATCH"); v != "" {
		config.Analysis.Mismatch = constants.MismatchPolicy(v)
	}

	if v := os.Getenv("RBMJITTER_HISTORY"); v != "" {
		config.History.Enabled = v == "true" || v == "1"
	}

	if v := os.Getenv("RBMJITTER_LOG_LEVEL"); v != "" {
		config.Logging.Level = v
	}
}

// SplitChannels parses a comma-separated channel list, dropping blanks.
func SplitChannels(s string) []string {
	var channels []string
	for _, part := range strings.Split(s, ",") {
		if name := strings.TrimSpace(part); name != "" {
			channels = append(channels, name)
		}
	}
	return channels
}

// expandEnvVars expands ${VAR} patterns in a string with environment variable values.
func expandEnvVars(s string) string {
	if !strings.Contains(s, "${") {
		return s
	}
	return os.Expand(s, os.Getenv)
}
