package jitter

import (
	"github.com/nvandessel/rbmjitter/internal/store"
)

// Run converts a completed analysis into a store.Run ready for AddRun.
// ID and CreatedAt are left for the store to assign.
func (r *Result) Run(opts Options) store.Run {
	steps := 0
	if r.Jitter != nil {
		_, steps = r.Jitter.Dims()
	}
	return store.Run{
		RecordPath:   opts.RecordPath,
		TransferPath: opts.TransferPath,
		TransferKey:  opts.TransferKey,
		Channels:     append([]string(nil), opts.Channels...),
		Skip:         r.Summary.Skip,
		Steps:        steps,
		Samples:      r.Summary.Samples,
		StdDev:       append([]float64(nil), r.Summary.StdDev...),
	}
}
