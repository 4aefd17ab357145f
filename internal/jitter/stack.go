package jitter

import (
	"errors"
	"fmt"

	"github.com/nvandessel/rbmjitter/internal/constants"
	"gonum.org/v1/gonum/mat"
)

var (
	// ErrStepMismatch is returned when stacked channels disagree on time steps.
	ErrStepMismatch = errors.New("channels have different numbers of time steps")

	// ErrNoChannels is returned when there is nothing to stack.
	ErrNoChannels = errors.New("no channels to stack")
)

// Stack concatenates motion matrices column-wise, in argument order.
// Every matrix has one row per time step. When row counts differ, policy
// decides between failing with ErrStepMismatch and keeping the leading
// rows common to all inputs.
func Stack(policy constants.MismatchPolicy, parts ...mat.Matrix) (*mat.Dense, error) {
	if len(parts) == 0 {
		return nil, ErrNoChannels
	}

	steps, _ := parts[0].Dims()
	cols := 0
	for i, p := range parts {
		r, c := p.Dims()
		if r != steps {
			if policy != constants.MismatchTruncate {
				return nil, fmt.Errorf("%w: input 0 has %d, input %d has %d", ErrStepMismatch, steps, i, r)
			}
			steps = min(steps, r)
		}
		cols += c
	}

	out := mat.NewDense(steps, cols, nil)
	offset := 0
	for _, p := range parts {
		_, c := p.Dims()
		dst := out.Slice(0, steps, offset, offset+c).(*mat.Dense)
		dst.Copy(p)
		offset += c
	}
	return out, nil
}
