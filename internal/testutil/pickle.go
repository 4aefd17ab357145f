// Package testutil writes small simulation records and transfer archives for tests.
package testutil

import (
	"bytes"
	"encoding/binary"
	"math"
	"os"
	"testing"
)

// Protocol-2 opcodes used by the writer.
const (
	opProto      = 0x80
	opStop       = '.'
	opMark       = '('
	opEmptyDict  = '}'
	opEmptyList  = ']'
	opSetItems   = 'u'
	opAppends    = 'e'
	opBinUnicode = 'X'
	opBinFloat   = 'G'
	opNone       = 'N'
	opTuple2     = 0x86
)

// ChannelData is the samples of one channel: Values[i] is the vector of step i.
// Times defaults to the step index when nil. A nil Values with Null set
// writes data=None.
type ChannelData struct {
	Name   string
	Times  []float64
	Values [][]float64
	Null   bool
}

// Layout selects the top-level shape of the written record.
type Layout int

const (
	// LayoutDict writes {name: {"data": [...]}, ...}.
	LayoutDict Layout = iota
	// LayoutPairs writes [(name, {"data": [...]}), ...], the list form
	// Python's dict() turns into a record.
	LayoutPairs
)

// EncodeRecord returns the pickle bytes of a record holding channels.
func EncodeRecord(layout Layout, channels ...ChannelData) []byte {
	var buf bytes.Buffer
	buf.Write([]byte{opProto, 2})

	switch layout {
	case LayoutPairs:
		buf.WriteByte(opEmptyList)
		if len(channels) > 0 {
			buf.WriteByte(opMark)
			for _, ch := range channels {
				writeChannel(&buf, ch)
				buf.WriteByte(opTuple2)
			}
			buf.WriteByte(opAppends)
		}
	default:
		buf.WriteByte(opEmptyDict)
		if len(channels) > 0 {
			buf.WriteByte(opMark)
			for _, ch := range channels {
				writeChannel(&buf, ch)
			}
			buf.WriteByte(opSetItems)
		}
	}

	buf.WriteByte(opStop)
	return buf.Bytes()
}

// WriteRecord writes a pickled record to path.
func WriteRecord(t testing.TB, path string, layout Layout, channels ...ChannelData) {
	t.Helper()
	if err := os.WriteFile(path, EncodeRecord(layout, channels...), 0600); err != nil {
		t.Fatalf("failed to write record: %v", err)
	}
}

// writeChannel pushes the name and the {"data": ...} dict of one channel.
func writeChannel(buf *bytes.Buffer, ch ChannelData) {
	writeString(buf, ch.Name)

	buf.WriteByte(opEmptyDict)
	buf.WriteByte(opMark)
	writeString(buf, "data")
	if ch.Null {
		buf.WriteByte(opNone)
	} else {
		buf.WriteByte(opEmptyList)
		if len(ch.Values) > 0 {
			buf.WriteByte(opMark)
			for i, v := range ch.Values {
				t := float64(i)
				if ch.Times != nil {
					t = ch.Times[i]
				}
				writeFloat(buf, t)
				writeFloats(buf, v)
				buf.WriteByte(opTuple2)
			}
			buf.WriteByte(opAppends)
		}
	}
	buf.WriteByte(opSetItems)
}

func writeFloats(buf *bytes.Buffer, values []float64) {
	buf.WriteByte(opEmptyList)
	if len(values) == 0 {
		return
	}
	buf.WriteByte(opMark)
	for _, v := range values {
		writeFloat(buf, v)
	}
	buf.WriteByte(opAppends)
}

func writeString(buf *bytes.Buffer, s string) {
	buf.WriteByte(opBinUnicode)
	var n [4]byte
	binary.LittleEndian.PutUint32(n[:], uint32(len(s)))
	buf.Write(n[:])
	buf.WriteString(s)
}

func writeFloat(buf *bytes.Buffer, f float64) {
	buf.WriteByte(opBinFloat)
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], math.Float64bits(f))
	buf.Write(b[:])
}

// Constant returns steps vectors of length dim all equal to v.
func Constant(steps, dim int, v float64) [][]float64 {
	rows := make([][]float64, steps)
	for i := range rows {
		rows[i] = make([]float64, dim)
		for j := range rows[i] {
			rows[i][j] = v
		}
	}
	return rows
}

// Ramp returns steps vectors of length dim where entry (i, j) is
// scale*(i+1) + j, which keeps every column distinct and non-constant.
func Ramp(steps, dim int, scale float64) [][]float64 {
	rows := make([][]float64, steps)
	for i := range rows {
		rows[i] = make([]float64, dim)
		for j := range rows[i] {
			rows[i][j] = scale*float64(i+1) + float64(j)
		}
	}
	return rows
}
