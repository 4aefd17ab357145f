package testutil

import (
	"testing"

	"github.com/sbinet/npyio/npz"
	"gonum.org/v1/gonum/mat"
)

// WriteTransfer writes an npz archive at path holding each matrix under its name.
func WriteTransfer(t testing.TB, path string, arrays map[string]*mat.Dense) {
	t.Helper()

	values := make(map[string]interface{}, len(arrays))
	for name, m := range arrays {
		values[name] = m
	}
	WriteArrays(t, path, values)
}

// WriteArrays writes arbitrary npy-encodable values (slices, scalars,
// matrices) to an npz archive at path.
func WriteArrays(t testing.TB, path string, arrays map[string]interface{}) {
	t.Helper()

	w, err := npz.Create(path)
	if err != nil {
		t.Fatalf("failed to create npz: %v", err)
	}
	for name, v := range arrays {
		if err := w.Write(name+".npy", v); err != nil {
			w.Close()
			t.Fatalf("failed to write %s: %v", name, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("failed to close npz: %v", err)
	}
}

// Identity returns an n×n identity matrix.
func Identity(n int) *mat.Dense {
	m := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		m.Set(i, i, 1)
	}
	return m
}
