package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/nvandessel/rbmjitter/internal/config"
	"github.com/nvandessel/rbmjitter/internal/constants"
	"github.com/spf13/cobra"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage rbmjitter configuration",
		Long: `View and modify rbmjitter configuration settings.

Configuration is stored in ~/.rbmjitter/config.yaml. RBMJITTER_* environment
variables override file values.

Examples:
  rbmjitter config list                                  # Show all settings
  rbmjitter config get inputs.transfer_key               # Get a specific setting
  rbmjitter config set analysis.skip 3000                # Set a setting
  rbmjitter config set inputs.channels OSSM1Lcl,MCM2RB6D`,
	}

	cmd.AddCommand(
		newConfigListCmd(),
		newConfigGetCmd(),
		newConfigSetCmd(),
	)

	return cmd
}

// configKeys lists every dot-notation key in display order.
var configKeys = []string{
	"inputs.record",
	"inputs.transfer",
	"inputs.transfer_key",
	"inputs.channels",
	"analysis.skip",
	"analysis.mismatch",
	"history.enabled",
	"logging.level",
}

func newConfigListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all configuration settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(cfg)
			}

			w := cmd.OutOrStdout()
			fmt.Fprintln(w, "Configuration (~/.rbmjitter/config.yaml):")
			for _, key := range configKeys {
				value, _ := getConfigValue(cfg, key)
				fmt.Fprintf(w, "  %-22s %v\n", key+":", value)
			}
			return nil
		},
	}
}

func newConfigGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Get a configuration value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			key := args[0]

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			value, found := getConfigValue(cfg, key)
			if !found {
				return fmt.Errorf("unknown configuration key: %s (valid: %s)", key, strings.Join(configKeys, ", "))
			}

			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]interface{}{
					"key":   key,
					"value": value,
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s = %v\n", key, value)
			return nil
		},
	}
}

func newConfigSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Long: `Set a configuration value in ~/.rbmjitter/config.yaml.

Values starting with "-" must follow "--" so they are not read as flags:
  rbmjitter config set -- analysis.skip -1`,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			key, value := args[0], args[1]

			path, err := config.DefaultPath()
			if err != nil {
				return err
			}

			// Start from the file alone so environment overrides are not persisted.
			cfg, err := config.LoadFromFile(path)
			if errors.Is(err, os.ErrNotExist) {
				cfg = config.Default()
			} else if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			if err := setConfigValue(cfg, key, value); err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			if err := config.Save(cfg, path); err != nil {
				return fmt.Errorf("failed to save config: %w", err)
			}

			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]interface{}{
					"status": "updated",
					"key":    key,
					"value":  value,
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %s\n", key, value)
			return nil
		},
	}
}

// getConfigValue retrieves a configuration value by dot-notation key.
func getConfigValue(cfg *config.JitterConfig, key string) (interface{}, bool) {
	switch key {
	case "inputs.record":
		return cfg.Inputs.Record, true
	case "inputs.transfer":
		return cfg.Inputs.Transfer, true
	case "inputs.transfer_key":
		return cfg.Inputs.TransferKey, true
	case "inputs.channels":
		return strings.Join(cfg.Inputs.Channels, ","), true
	case "analysis.skip":
		return cfg.Analysis.Skip, true
	case "analysis.mismatch":
		return cfg.Analysis.Mismatch.String(), true
	case "history.enabled":
		return cfg.History.Enabled, true
	case "logging.level":
		return cfg.Logging.Level, true
	default:
		return nil, false
	}
}

// setConfigValue sets a configuration value by dot-notation key.
func setConfigValue(cfg *config.JitterConfig, key, value string) error {
	switch key {
	case "inputs.record":
		cfg.Inputs.Record = value
	case "inputs.transfer":
		cfg.Inputs.Transfer = value
	case "inputs.transfer_key":
		cfg.Inputs.TransferKey = value
	case "inputs.channels":
		cfg.Inputs.Channels = config.SplitChannels(value)
	case "analysis.skip":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid skip: %s (must be an integer)", value)
		}
		cfg.Analysis.Skip = n
	case "analysis.mismatch":
		policy := constants.MismatchPolicy(value)
		if !policy.Valid() {
			return fmt.Errorf("invalid mismatch policy: %s (valid: error, truncate)", value)
		}
		cfg.Analysis.Mismatch = policy
	case "history.enabled":
		cfg.History.Enabled = value == "true" || value == "1"
	case "logging.level":
		cfg.Logging.Level = value
	default:
		return fmt.Errorf("unknown configuration key: %s", key)
	}
	return nil
}
