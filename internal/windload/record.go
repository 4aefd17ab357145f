package windload

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/nlpodyssey/gopickle/pickle"
	"github.com/nlpodyssey/gopickle/types"
	"github.com/nvandessel/rbmjitter/internal/constants"
	"github.com/nvandessel/rbmjitter/internal/pathutil"
)

var (
	// ErrChannelNotFound is returned when a record has no channel of the requested name.
	ErrChannelNotFound = errors.New("channel not found")

	// ErrMalformedRecord is returned when the pickle does not have the expected layout.
	ErrMalformedRecord = errors.New("malformed record")
)

// readBufferSize matches the buffered reader the simulation tooling reads records with.
const readBufferSize = 100_000

// Record is a decoded simulation record: channels by name, in file order.
type Record struct {
	channels map[string]*Channel
	order    []string
}

// ChannelInfo summarizes one channel without materializing its matrix.
type ChannelInfo struct {
	Name  string `json:"name"`
	Steps int    `json:"steps"`
	Dim   int    `json:"dim"`
}

// LoadRecord reads and decodes the pickle at path.
func LoadRecord(path string) (*Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening record %s: %w", pathutil.RedactPath(path), err)
	}
	defer f.Close()

	rec, err := DecodeRecord(bufio.NewReaderSize(f, readBufferSize))
	if err != nil {
		return nil, fmt.Errorf("decoding record %s: %w", pathutil.RedactPath(path), err)
	}
	return rec, nil
}

// DecodeRecord decodes a pickled record from r.
func DecodeRecord(r io.Reader) (*Record, error) {
	u := pickle.NewUnpickler(r)
	obj, err := u.Load()
	if err != nil {
		return nil, fmt.Errorf("unpickling: %w", err)
	}

	rec := &Record{channels: make(map[string]*Channel)}

	switch root := obj.(type) {
	case *types.Dict:
		if err := rec.addEntries(root); err != nil {
			return nil, err
		}
	case *types.List:
		for i, item := range *root {
			if err := rec.addPair(i, item); err != nil {
				return nil, err
			}
		}
	default:
		return nil, fmt.Errorf("%w: top-level object is %T, want dict or list", ErrMalformedRecord, obj)
	}

	return rec, nil
}

func (r *Record) addEntries(d *types.Dict) error {
	for _, entry := range *d {
		name, ok := entry.Key.(string)
		if !ok {
			return fmt.Errorf("%w: channel key is %T, want string", ErrMalformedRecord, entry.Key)
		}
		if err := r.add(name, entry.Value); err != nil {
			return err
		}
	}
	return nil
}

// addPair adds one (name, channel) item of a list record, the shape
// Python's dict() accepts.
func (r *Record) addPair(i int, item interface{}) error {
	pair, err := sequence(item)
	if err != nil || len(pair) != 2 {
		return fmt.Errorf("%w: list item %d is %T, want (name, channel) pair", ErrMalformedRecord, i, item)
	}
	name, ok := pair[0].(string)
	if !ok {
		return fmt.Errorf("%w: list item %d name is %T, want string", ErrMalformedRecord, i, pair[0])
	}
	return r.add(name, pair[1])
}

// add decodes one channel; a repeated name replaces the earlier channel
// but keeps its position.
func (r *Record) add(name string, v interface{}) error {
	ch, err := decodeChannel(name, v)
	if err != nil {
		return err
	}
	if _, dup := r.channels[name]; !dup {
		r.order = append(r.order, name)
	}
	r.channels[name] = ch
	return nil
}

// Channel returns the named channel.
func (r *Record) Channel(name string) (*Channel, error) {
	ch, ok := r.channels[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrChannelNotFound, name)
	}
	return ch, nil
}

// Names returns channel names in file order.
func (r *Record) Names() []string {
	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}

// Describe returns the shape of every channel, in file order.
func (r *Record) Describe() []ChannelInfo {
	infos := make([]ChannelInfo, 0, len(r.order))
	for _, name := range r.order {
		ch := r.channels[name]
		infos = append(infos, ChannelInfo{Name: name, Steps: ch.Len(), Dim: ch.Dim()})
	}
	return infos
}

func decodeChannel(name string, v interface{}) (*Channel, error) {
	ch := &Channel{Name: name}

	fields, ok := v.(*types.Dict)
	if !ok {
		return nil, fmt.Errorf("%w: channel %s is %T, want dict with %q", ErrMalformedRecord, name, v, constants.DataField)
	}
	data, ok := fields.Get(constants.DataField)
	if !ok {
		return nil, fmt.Errorf("%w: channel %s has no %q field", ErrMalformedRecord, name, constants.DataField)
	}
	if data == nil {
		return ch, nil
	}

	items, err := sequence(data)
	if err != nil {
		return nil, fmt.Errorf("%w: channel %s data: %v", ErrMalformedRecord, name, err)
	}

	ch.Samples = make([]Sample, 0, len(items))
	for i, item := range items {
		s, err := decodeSample(item)
		if err != nil {
			return nil, fmt.Errorf("%w: channel %s sample %d: %v", ErrMalformedRecord, name, i, err)
		}
		ch.Samples = append(ch.Samples, s)
	}
	return ch, nil
}

func decodeSample(v interface{}) (Sample, error) {
	fields, err := sequence(v)
	if err != nil {
		return Sample{}, err
	}
	if len(fields) <= constants.SampleValuesIndex {
		return Sample{}, fmt.Errorf("sample has %d fields, want at least %d", len(fields), constants.SampleValuesIndex+1)
	}

	t, err := number(fields[constants.SampleTimeIndex])
	if err != nil {
		return Sample{}, fmt.Errorf("time: %w", err)
	}

	raw, err := sequence(fields[constants.SampleValuesIndex])
	if err != nil {
		return Sample{}, fmt.Errorf("values: %w", err)
	}
	values := make([]float64, len(raw))
	for i, x := range raw {
		if values[i], err = number(x); err != nil {
			return Sample{}, fmt.Errorf("values[%d]: %w", i, err)
		}
	}

	return Sample{Time: t, Values: values}, nil
}

// sequence unwraps the pickle list and tuple types.
func sequence(v interface{}) ([]interface{}, error) {
	switch s := v.(type) {
	case *types.List:
		return *s, nil
	case *types.Tuple:
		return *s, nil
	case []interface{}:
		return s, nil
	default:
		return nil, fmt.Errorf("got %T, want list or tuple", v)
	}
}

func number(v interface{}) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case bool:
		if n {
			return 1, nil
		}
		return 0, nil
	default:
		return 0, fmt.Errorf("got %T, want number", v)
	}
}
