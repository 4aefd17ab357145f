// Package export writes jitter time series for downstream tooling.
package export

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"
	"github.com/apache/arrow/go/v17/arrow/ipc"
	"github.com/apache/arrow/go/v17/arrow/memory"
	"gonum.org/v1/gonum/mat"
)

// TimeColumn names the timestamp column.
const TimeColumn = "time"

// ErrLengthMismatch is returned when timestamps and jitter columns disagree.
var ErrLengthMismatch = errors.New("time and jitter lengths differ")

// ErrSchema is returned when an Arrow file does not hold float64 columns.
var ErrSchema = errors.New("not a jitter export")

// AxisColumn returns the column name of jitter axis i.
func AxisColumn(i int) string {
	return fmt.Sprintf("axis_%d", i)
}

// Schema returns the Arrow schema for a jitter matrix with the given number of axes.
func Schema(axes int) *arrow.Schema {
	fields := make([]arrow.Field, 0, axes+1)
	fields = append(fields, arrow.Field{Name: TimeColumn, Type: arrow.PrimitiveTypes.Float64})
	for i := 0; i < axes; i++ {
		fields = append(fields, arrow.Field{Name: AxisColumn(i), Type: arrow.PrimitiveTypes.Float64})
	}
	md := arrow.NewMetadata([]string{"units"}, []string{"mas"})
	return arrow.NewSchema(fields, &md)
}

// WriteArrow writes jitter (axes × steps) with its timestamps as a single
// record batch in an Arrow IPC file at path.
func WriteArrow(path string, times []float64, jitter mat.Matrix) error {
	axes, steps := jitter.Dims()
	if len(times) != steps {
		return fmt.Errorf("%w: %d timestamps, %d steps", ErrLengthMismatch, len(times), steps)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating export directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating export file: %w", err)
	}
	defer f.Close()

	mem := memory.NewGoAllocator()
	schema := Schema(axes)

	b := array.NewRecordBuilder(mem, schema)
	defer b.Release()

	b.Field(0).(*array.Float64Builder).AppendValues(times, nil)
	row := make([]float64, steps)
	for i := 0; i < axes; i++ {
		mat.Row(row, i, jitter)
		b.Field(i+1).(*array.Float64Builder).AppendValues(row, nil)
	}

	rec := b.NewRecord()
	defer rec.Release()

	w, err := ipc.NewFileWriter(f, ipc.WithSchema(schema), ipc.WithAllocator(mem))
	if err != nil {
		return fmt.Errorf("creating arrow writer: %w", err)
	}
	if err := w.Write(rec); err != nil {
		w.Close()
		return fmt.Errorf("writing record batch: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("closing arrow writer: %w", err)
	}

	return f.Close()
}

// ReadArrow reads a file written by WriteArrow back into timestamps and an
// (axes × steps) jitter matrix.
func ReadArrow(path string) ([]float64, *mat.Dense, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening export file: %w", err)
	}
	defer f.Close()

	mem := memory.NewGoAllocator()
	r, err := ipc.NewFileReader(f, ipc.WithAllocator(mem))
	if err != nil {
		return nil, nil, fmt.Errorf("creating arrow reader: %w", err)
	}
	defer r.Close()

	schema := r.Schema()
	axes := schema.NumFields() - 1
	if axes < 1 {
		return nil, nil, fmt.Errorf("%w: no jitter columns", ErrSchema)
	}
	for _, field := range schema.Fields() {
		if field.Type.ID() != arrow.FLOAT64 {
			return nil, nil, fmt.Errorf("%w: column %q is %s, want float64", ErrSchema, field.Name, field.Type)
		}
	}

	var times []float64
	cols := make([][]float64, axes)
	for i := 0; i < r.NumRecords(); i++ {
		rec, err := r.Record(i)
		if err != nil {
			return nil, nil, fmt.Errorf("reading record batch %d: %w", i, err)
		}
		for k := 0; k <= axes; k++ {
			col, ok := rec.Column(k).(*array.Float64)
			if !ok {
				return nil, nil, fmt.Errorf("%w: column %q is %T", ErrSchema, schema.Field(k).Name, rec.Column(k))
			}
			if k == 0 {
				times = append(times, col.Float64Values()...)
			} else {
				cols[k-1] = append(cols[k-1], col.Float64Values()...)
			}
		}
	}

	if len(times) == 0 {
		return nil, nil, fmt.Errorf("export has no rows")
	}

	data := make([]float64, 0, axes*len(times))
	for _, c := range cols {
		data = append(data, c...)
	}
	return times, mat.NewDense(axes, len(times), data), nil
}
