// Package constants provides named constants used throughout rbmjitter.
// This centralizes the dataset names and numeric parameters of the analysis.
package constants

import "math"

// Input defaults reproduce the wind-loading case the tool was written for.
const (
	// DefaultRecordFile is the pickled simulation record, relative to the working directory.
	DefaultRecordFile = "windloading.20210225_1447_MT_mount_v202102_ASM_wind2.pkl"

	// DefaultTransferDir holds the precomputed linear jitter model.
	DefaultTransferDir = "/home/rconan/Documents/GMT/CFD/Python/CFD/"

	// DefaultTransferFile is the npz archive holding the transfer matrices.
	DefaultTransferFile = "linear_jitter.npz"

	// DefaultTransferKey names the tip-tilt transfer matrix inside the archive.
	DefaultTransferKey = "D_tt"
)

// Channel names in the simulation record.
const (
	// ChannelM1RBM is the M1 segment rigid-body motion channel.
	ChannelM1RBM = "OSSM1Lcl"

	// ChannelM2RBM is the M2 segment rigid-body motion channel.
	ChannelM2RBM = "MCM2RB6D"
)

// DefaultChannels returns the channels stacked into the motion matrix, in column order.
func DefaultChannels() []string {
	return []string{ChannelM1RBM, ChannelM2RBM}
}

// Sample layout inside a channel's data list.
const (
	// SampleTimeIndex is the position of the timestamp in a sample tuple.
	SampleTimeIndex = 0

	// SampleValuesIndex is the position of the RBM vector in a sample tuple.
	SampleValuesIndex = 1

	// DataField is the attribute holding a channel's samples.
	DataField = "data"
)

// Analysis parameters.
const (
	// DefaultSkip is the number of leading time steps discarded as warm-up
	// before computing statistics.
	DefaultSkip = 3000

	// RadToMas converts radians to milliarcseconds.
	RadToMas = 180 * 3600e3 / math.Pi
)

// Project-local state.
const (
	// StateDirName is the per-project state directory.
	StateDirName = ".rbmjitter"

	// RunsDBName is the SQLite run history file inside StateDirName.
	RunsDBName = "runs.db"

	// TraceFileName is the JSONL stage trace written at debug level.
	TraceFileName = "trace.jsonl"

	// ExportDirName is where Arrow exports land by default, inside StateDirName.
	ExportDirName = "exports"
)

// DefaultHistoryLimit is the number of runs listed when no limit is given.
const DefaultHistoryLimit = 20
