package windload

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

var (
	// ErrEmptyChannel is returned when a channel has no samples to extract.
	ErrEmptyChannel = errors.New("channel has no samples")

	// ErrRaggedChannel is returned when sample vectors differ in length.
	ErrRaggedChannel = errors.New("channel samples differ in dimension")
)

// Sample is one time step of a channel.
type Sample struct {
	Time   float64
	Values []float64
}

// Channel is a named time series of rigid-body-motion vectors.
type Channel struct {
	Name    string
	Samples []Sample
}

// Len returns the number of time steps.
func (c *Channel) Len() int {
	return len(c.Samples)
}

// Dim returns the vector length of the first sample, or 0 for an empty channel.
func (c *Channel) Dim() int {
	if len(c.Samples) == 0 {
		return 0
	}
	return len(c.Samples[0].Values)
}

// Times returns the sample timestamps.
func (c *Channel) Times() []float64 {
	times := make([]float64, len(c.Samples))
	for i, s := range c.Samples {
		times[i] = s.Time
	}
	return times
}

// Matrix returns the channel as a (steps × dim) matrix, one row per sample.
func (c *Channel) Matrix() (*mat.Dense, error) {
	steps, dim := c.Len(), c.Dim()
	if steps == 0 || dim == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyChannel, c.Name)
	}

	data := make([]float64, 0, steps*dim)
	for i, s := range c.Samples {
		if len(s.Values) != dim {
			return nil, fmt.Errorf("%w: %s sample %d has %d values, want %d", ErrRaggedChannel, c.Name, i, len(s.Values), dim)
		}
		data = append(data, s.Values...)
	}
	return mat.NewDense(steps, dim, data), nil
}
