// Package vectorindex implements a flat exact nearest-neighbor index over
// float32 vectors using squared Euclidean distance.
//
// On-disk layout (little endian):
//
//	magic   [4]byte "CIVX"
//	version uint32  (1)
//	dim     uint32
//	count   uint64
//	data    [count*dim]float32, row major
package vectorindex

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
)

// NoMatch marks an unfilled neighbor slot.
const NoMatch = -1

const (
	formatVersion uint32 = 1
	// maxElements guards against allocating from a corrupt header.
	maxElements = 1 << 31
)

var magic = [4]byte{'C', 'I', 'V', 'X'}

var (
	ErrBadMagic          = errors.New("vectorindex: not an index file")
	ErrUnsupported       = errors.New("vectorindex: unsupported format version")
	ErrDimensionMismatch = errors.New("vectorindex: dimension mismatch")
	ErrCorrupt           = errors.New("vectorindex: corrupt index")
)

// Neighbor is one search hit. Position is NoMatch when fewer than k rows exist.
type Neighbor struct {
	Position int
	Distance float32
}

// Index is an immutable row-major vector table. Safe for concurrent searches.
type Index struct {
	dim  int
	n    int
	data []float32
}

// New builds an index from vectors, all of which must have length dim.
func New(dim int, vectors [][]float32) (*Index, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("%w: dimension must be positive, got %d", ErrCorrupt, dim)
	}
	data := make([]float32, 0, dim*len(vectors))
	for i, v := range vectors {
		if len(v) != dim {
			return nil, fmt.Errorf("%w: row %d has %d values, want %d", ErrDimensionMismatch, i, len(v), dim)
		}
		data = append(data, v...)
	}
	return &Index{dim: dim, n: len(vectors), data: data}, nil
}

// Len returns the number of stored vectors.
func (x *Index) Len() int {
	if x == nil {
		return 0
	}
	return x.n
}

// Dimension returns the vector width.
func (x *Index) Dimension() int {
	if x == nil {
		return 0
	}
	return x.dim
}

// Vector returns a copy of row i.
func (x *Index) Vector(i int) ([]float32, bool) {
	if x == nil || i < 0 || i >= x.n {
		return nil, false
	}
	out := make([]float32, x.dim)
	copy(out, x.data[i*x.dim:(i+1)*x.dim])
	return out, true
}

// Search returns exactly k neighbors ordered by ascending distance, ties
// broken by position. Slots beyond the stored row count carry NoMatch.
func (x *Index) Search(query []float32, k int) ([]Neighbor, error) {
	if x == nil {
		return nil, errors.New("vectorindex: nil index")
	}
	if len(query) != x.dim {
		return nil, fmt.Errorf("%w: query has %d values, index has %d", ErrDimensionMismatch, len(query), x.dim)
	}
	if k <= 0 {
		return nil, nil
	}

	hits := make([]Neighbor, x.n)
	for i := 0; i < x.n; i++ {
		row := x.data[i*x.dim : (i+1)*x.dim]
		hits[i] = Neighbor{Position: i, Distance: squaredL2(query, row)}
	}
	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Distance < hits[j].Distance
	})

	out := make([]Neighbor, k)
	for i := range out {
		if i < len(hits) {
			out[i] = hits[i]
			continue
		}
		out[i] = Neighbor{Position: NoMatch, Distance: math.MaxFloat32}
	}
	return out, nil
}

func squaredL2(a, b []float32) float32 {
	var sum float32
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}

// Load reads an index file from disk.
func Load(path string) (*Index, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open vector index: %w", err)
	}
	defer file.Close()

	idx, err := Read(bufio.NewReader(file))
	if err != nil {
		return nil, fmt.Errorf("read vector index %s: %w", path, err)
	}
	return idx, nil
}

type header struct {
	Magic   [4]byte
	Version uint32
	Dim     uint32
	Count   uint64
}

// Read decodes an index from r.
func Read(r io.Reader) (*Index, error) {
	var h header
	if err := binary.Read(r, binary.LittleEndian, &h); err != nil {
		return nil, fmt.Errorf("%w: header: %v", ErrCorrupt, err)
	}
	if h.Magic != magic {
		return nil, ErrBadMagic
	}
	if h.Version != formatVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupported, h.Version)
	}
	if h.Dim == 0 {
		return nil, fmt.Errorf("%w: zero dimension", ErrCorrupt)
	}
	total := uint64(h.Dim) * h.Count
	if h.Count > maxElements || total > maxElements {
		return nil, fmt.Errorf("%w: %d rows of %d values is too large", ErrCorrupt, h.Count, h.Dim)
	}

	data := make([]float32, total)
	if err := binary.Read(r, binary.LittleEndian, data); err != nil {
		return nil, fmt.Errorf("%w: expected %d values: %v", ErrCorrupt, total, err)
	}
	return &Index{dim: int(h.Dim), n: int(h.Count), data: data}, nil
}

// Write encodes x to w in the on-disk layout.
func Write(w io.Writer, x *Index) error {
	if x == nil {
		return errors.New("vectorindex: nil index")
	}
	h := header{Magic: magic, Version: formatVersion, Dim: uint32(x.dim), Count: uint64(x.n)}
	if err := binary.Write(w, binary.LittleEndian, h); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if err := binary.Write(w, binary.LittleEndian, x.data); err != nil {
		return fmt.Errorf("write vectors: %w", err)
	}
	return nil
}

// Save writes x to path, replacing any existing file.
func Save(path string, x *Index) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create vector index: %w", err)
	}
	buf := bufio.NewWriter(file)
	if err := Write(buf, x); err != nil {
		file.Close()
		return err
	}
	if err := buf.Flush(); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
