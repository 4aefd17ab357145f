package jitter

import (
	"errors"
	"fmt"
	"math"

	"github.com/nvandessel/rbmjitter/internal/constants"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// ErrShape is returned when the transfer matrix and motion matrix do not conform.
var ErrShape = errors.New("transfer and motion matrices do not conform")

// Compute returns transfer · motionᵀ scaled from radians to milliarcseconds.
// transfer is (axes × dofs) and motion is (steps × dofs); the result is
// (axes × steps).
func Compute(transfer, motion mat.Matrix) (*mat.Dense, error) {
	axes, dofs := transfer.Dims()
	steps, motionDofs := motion.Dims()
	if dofs != motionDofs {
		return nil, fmt.Errorf("%w: transfer is %d×%d, motion has %d columns", ErrShape, axes, dofs, motionDofs)
	}

	out := mat.NewDense(axes, steps, nil)
	out.Mul(transfer, motion.T())
	out.Scale(constants.RadToMas, out)
	return out, nil
}

// Summary is the per-axis jitter statistic over the trailing window.
type Summary struct {
	// StdDev is the population standard deviation of each axis, in mas.
	// Entries are NaN when the window is empty.
	StdDev []float64 `json:"std_dev"`

	// Samples is the number of time steps in the window.
	Samples int `json:"samples"`

	// Skip is the number of leading steps discarded.
	Skip int `json:"skip"`
}

// Summarize computes the population standard deviation of every row of
// jitter over columns [skip:]. A skip at or past the last column leaves an
// empty window: no error is returned, Samples is 0 and every entry is NaN.
func Summarize(jitter mat.Matrix, skip int) (Summary, error) {
	if skip < 0 {
		return Summary{}, fmt.Errorf("skip must be non-negative, got %d", skip)
	}

	axes, steps := jitter.Dims()
	s := Summary{StdDev: make([]float64, axes), Skip: skip}
	if skip >= steps {
		for i := range s.StdDev {
			s.StdDev[i] = math.NaN()
		}
		return s, nil
	}

	s.Samples = steps - skip
	row := make([]float64, steps)
	for i := 0; i < axes; i++ {
		mat.Row(row, i, jitter)
		s.StdDev[i] = math.Sqrt(stat.PopVariance(row[skip:], nil))
	}
	return s, nil
}
