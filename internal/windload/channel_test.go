package windload

import (
	"bytes"
	"errors"
	"testing"

	"github.com/nvandessel/rbmjitter/internal/testutil"
)

func TestChannel_Matrix(t *testing.T) {
	ch := &Channel{
		Name: "OSSM1Lcl",
		Samples: []Sample{
			{Time: 0, Values: []float64{1, 2, 3}},
			{Time: 1, Values: []float64{4, 5, 6}},
		},
	}

	m, err := ch.Matrix()
	if err != nil {
		t.Fatalf("Matrix failed: %v", err)
	}
	r, c := m.Dims()
	if r != 2 || c != 3 {
		t.Fatalf("Dims() = (%d, %d), want (2, 3)", r, c)
	}
	if m.At(1, 0) != 4 || m.At(0, 2) != 3 {
		t.Errorf("unexpected values: At(1,0)=%v At(0,2)=%v", m.At(1, 0), m.At(0, 2))
	}
}

func TestChannel_MatrixDoesNotAlias(t *testing.T) {
	ch := &Channel{Name: "A", Samples: []Sample{{Values: []float64{1, 2}}}}
	m, err := ch.Matrix()
	if err != nil {
		t.Fatalf("Matrix failed: %v", err)
	}
	m.Set(0, 0, 99)
	if ch.Samples[0].Values[0] != 1 {
		t.Error("Matrix() shares storage with the channel samples")
	}
}

func TestChannel_MatrixErrors(t *testing.T) {
	tests := []struct {
		name string
		ch   *Channel
		want error
	}{
		{
			name: "no samples",
			ch:   &Channel{Name: "A"},
			want: ErrEmptyChannel,
		},
		{
			name: "zero-length vectors",
			ch:   &Channel{Name: "A", Samples: []Sample{{Values: []float64{}}}},
			want: ErrEmptyChannel,
		},
		{
			name: "ragged",
			ch: &Channel{Name: "A", Samples: []Sample{
				{Values: []float64{1, 2}},
				{Values: []float64{3}},
			}},
			want: ErrRaggedChannel,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.ch.Matrix()
			if !errors.Is(err, tt.want) {
				t.Errorf("Matrix() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestChannel_MatrixShapeFromRecord(t *testing.T) {
	data := testutil.EncodeRecord(testutil.LayoutDict,
		testutil.ChannelData{Name: "OSSM1Lcl", Values: testutil.Constant(5000, 6, 0.1)},
		testutil.ChannelData{Name: "MCM2RB6D", Values: testutil.Constant(5000, 42, 0.2)},
	)
	rec, err := DecodeRecord(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("DecodeRecord failed: %v", err)
	}

	for name, dim := range map[string]int{"OSSM1Lcl": 6, "MCM2RB6D": 42} {
		ch, err := rec.Channel(name)
		if err != nil {
			t.Fatalf("Channel(%s) failed: %v", name, err)
		}
		m, err := ch.Matrix()
		if err != nil {
			t.Fatalf("Matrix(%s) failed: %v", name, err)
		}
		if r, c := m.Dims(); r != 5000 || c != dim {
			t.Errorf("%s Dims() = (%d, %d), want (5000, %d)", name, r, c, dim)
		}
	}
}
