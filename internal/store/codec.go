package store

import (
	"encoding/json"
	"math"
	"time"

	"github.com/google/uuid"
)

// prepareRun fills in the ID and timestamp of a new run.
func prepareRun(run Run) Run {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	return run
}

// Nullable maps NaN and Inf entries to nil, the form the std vector takes
// in JSON and in the runs table.
func Nullable(v []float64) []*float64 {
	out := make([]*float64, len(v))
	for i := range v {
		if math.IsNaN(v[i]) || math.IsInf(v[i], 0) {
			continue
		}
		x := v[i]
		out[i] = &x
	}
	return out
}

// encodeStdDev writes the vector as JSON through Nullable.
func encodeStdDev(v []float64) (string, error) {
	data, err := json.Marshal(Nullable(v))
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// decodeStdDev reverses encodeStdDev; nulls become NaN.
func decodeStdDev(s string) ([]float64, error) {
	var raw []*float64
	if err := json.Unmarshal([]byte(s), &raw); err != nil {
		return nil, err
	}
	out := make([]float64, len(raw))
	for i, x := range raw {
		if x == nil {
			out[i] = math.NaN()
			continue
		}
		out[i] = *x
	}
	return out, nil
}

func copyRun(run Run) Run {
	run.Channels = append([]string(nil), run.Channels...)
	run.StdDev = append([]float64(nil), run.StdDev...)
	return run
}
