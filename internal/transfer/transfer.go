// Package transfer loads linear transfer matrices from numpy npz archives.
package transfer

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/nvandessel/rbmjitter/internal/pathutil"
	"github.com/sbinet/npyio/npz"
	"gonum.org/v1/gonum/mat"
)

// ErrKeyNotFound is returned when the archive has no array of the requested name.
var ErrKeyNotFound = errors.New("array not found in archive")

const npySuffix = ".npy"

// Load reads the 2-D array stored under key in the npz archive at path.
// key may be given with or without the ".npy" member suffix.
func Load(path, key string) (*mat.Dense, error) {
	r, err := npz.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening archive %s: %w", pathutil.RedactPath(path), err)
	}
	defer r.Close()

	member, ok := resolve(r.Keys(), key)
	if !ok {
		return nil, fmt.Errorf("%w: %s (available: %s)", ErrKeyNotFound, key, strings.Join(trimKeys(r.Keys()), ", "))
	}

	var m mat.Dense
	if err := r.Read(member, &m); err != nil {
		return nil, fmt.Errorf("reading %s from %s: %w", key, pathutil.RedactPath(path), err)
	}
	return &m, nil
}

// Keys lists the array names in the archive, without the ".npy" suffix, sorted.
func Keys(path string) ([]string, error) {
	r, err := npz.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening archive %s: %w", pathutil.RedactPath(path), err)
	}
	defer r.Close()

	keys := trimKeys(r.Keys())
	sort.Strings(keys)
	return keys, nil
}

// Shape describes one archive member from its npy header.
type Shape struct {
	Key   string
	DType string
	Dims  []int
}

// Shapes reports the dtype and dimensions of every array in the archive,
// sorted by key, without decoding the array data.
func Shapes(path string) ([]Shape, error) {
	r, err := npz.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening archive %s: %w", pathutil.RedactPath(path), err)
	}
	defer r.Close()

	shapes := make([]Shape, 0, len(r.Keys()))
	for _, member := range r.Keys() {
		hdr := r.Header(member)
		if hdr == nil {
			return nil, fmt.Errorf("reading header of %s in %s", member, pathutil.RedactPath(path))
		}
		shapes = append(shapes, Shape{
			Key:   strings.TrimSuffix(member, npySuffix),
			DType: hdr.Descr.Type,
			Dims:  append([]int(nil), hdr.Descr.Shape...),
		})
	}
	sort.Slice(shapes, func(i, j int) bool { return shapes[i].Key < shapes[j].Key })
	return shapes, nil
}

// resolve finds the archive member matching key.
func resolve(members []string, key string) (string, bool) {
	want := strings.TrimSuffix(key, npySuffix)
	for _, m := range members {
		if strings.TrimSuffix(m, npySuffix) == want {
			return m, true
		}
	}
	return "", false
}

func trimKeys(members []string) []string {
	keys := make([]string, len(members))
	for i, m := range members {
		keys[i] = strings.TrimSuffix(m, npySuffix)
	}
	return keys
}
