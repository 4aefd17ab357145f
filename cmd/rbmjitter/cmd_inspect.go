package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/nvandessel/rbmjitter/internal/config"
	"github.com/nvandessel/rbmjitter/internal/export"
	"github.com/nvandessel/rbmjitter/internal/transfer"
	"github.com/nvandessel/rbmjitter/internal/windload"
	"github.com/spf13/cobra"
)

// arrayInfo describes one array in a transfer archive.
type arrayInfo struct {
	Key   string `json:"key"`
	DType string `json:"dtype"`
	Shape []int  `json:"shape"`
}

// inspectOutput is the --json form of inspect.
type inspectOutput struct {
	Record   string                 `json:"record,omitempty"`
	Channels []windload.ChannelInfo `json:"channels,omitempty"`
	Transfer string                 `json:"transfer,omitempty"`
	Arrays   []arrayInfo            `json:"arrays,omitempty"`
}

func newInspectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Show channel shapes in a record and array shapes in an archive",
		Long: `Describe the inputs without running the analysis.

With no flags, both configured inputs are inspected. --record or --transfer
restricts the report to the given file. --arrow describes an exported file.

Examples:
  rbmjitter inspect
  rbmjitter inspect --record windloading.pkl
  rbmjitter inspect --arrow .rbmjitter/exports/jitter-20210225-144700.arrow`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			recordPath, _ := cmd.Flags().GetString("record")
			transferPath, _ := cmd.Flags().GetString("transfer")
			arrowPath, _ := cmd.Flags().GetString("arrow")

			if arrowPath != "" {
				times, j, err := export.ReadArrow(arrowPath)
				if err != nil {
					return err
				}
				axes, _ := j.Dims()
				return printExportSummary(cmd, exportSummary{Path: arrowPath, Steps: len(times), Axes: axes})
			}

			if recordPath == "" && transferPath == "" {
				cfg, err := config.Load()
				if err != nil {
					return fmt.Errorf("failed to load config: %w", err)
				}
				recordPath = cfg.Inputs.Record
				transferPath = cfg.Inputs.Transfer
			}

			var out inspectOutput
			if recordPath != "" {
				rec, err := windload.LoadRecord(recordPath)
				if err != nil {
					return err
				}
				out.Record = recordPath
				out.Channels = rec.Describe()
			}
			if transferPath != "" {
				arrays, err := describeArchive(transferPath)
				if err != nil {
					return err
				}
				out.Transfer = transferPath
				out.Arrays = arrays
			}

			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(out)
			}

			w := cmd.OutOrStdout()
			if out.Record != "" {
				fmt.Fprintf(w, "Record %s (%d channels):\n", out.Record, len(out.Channels))
				for _, ch := range out.Channels {
					fmt.Fprintf(w, "  %-24s %6d steps x %d\n", ch.Name, ch.Steps, ch.Dim)
				}
			}
			if out.Transfer != "" {
				if out.Record != "" {
					fmt.Fprintln(w)
				}
				fmt.Fprintf(w, "Archive %s (%d arrays):\n", out.Transfer, len(out.Arrays))
				for _, a := range out.Arrays {
					fmt.Fprintf(w, "  %-24s %s %s\n", a.Key, formatShape(a.Shape), a.DType)
				}
			}
			return nil
		},
	}

	cmd.Flags().String("record", "", "Pickled wind-load record to describe")
	cmd.Flags().String("transfer", "", "npz archive to describe")
	cmd.Flags().String("arrow", "", "Exported Arrow file to describe")

	return cmd
}

// describeArchive reports each array's shape from its npy header, so
// members of any rank are listed without being decoded.
func describeArchive(path string) ([]arrayInfo, error) {
	shapes, err := transfer.Shapes(path)
	if err != nil {
		return nil, err
	}
	arrays := make([]arrayInfo, 0, len(shapes))
	for _, s := range shapes {
		arrays = append(arrays, arrayInfo{Key: s.Key, DType: s.DType, Shape: s.Dims})
	}
	return arrays, nil
}

func formatShape(dims []int) string {
	if len(dims) == 0 {
		return "scalar"
	}
	parts := make([]string, len(dims))
	for i, d := range dims {
		parts[i] = strconv.Itoa(d)
	}
	return strings.Join(parts, " x ")
}
