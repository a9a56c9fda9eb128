// Package vectorindex provides an exact inner-product nearest-neighbor
// index over unit-normalized vectors. Search is brute force, O(rows x
// dimension) per query, which is fine up to roughly 10^5 rows. The
// Build/Search/Save/Load surface is deliberately narrow so an
// approximate index could satisfy the same contract later.
package vectorindex

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
)

// Index holds a row-major matrix of vectors. Row order is the identity
// shared with chunk metadata and is preserved exactly by Save/Load.
type Index struct {
	dim  int
	rows int
	data []float32
}

// Hit is a single search result: a row id and its inner-product score.
type Hit struct {
	Row   int
	Score float32
}

// Build constructs an index over the given vectors. All vectors must
// share the same non-zero dimension. No training phase is required.
func Build(vectors [][]float32) (*Index, error) {
	if len(vectors) == 0 {
		return nil, fmt.Errorf("cannot build index from empty vector set")
	}

	dim := len(vectors[0])
	if dim == 0 {
		return nil, fmt.Errorf("cannot build index from zero-dimension vectors")
	}

	data := make([]float32, 0, len(vectors)*dim)
	for i, vector := range vectors {
		if len(vector) != dim {
			return nil, fmt.Errorf("vector %d has dimension %d, want %d", i, len(vector), dim)
		}
		data = append(data, vector...)
	}

	return &Index{dim: dim, rows: len(vectors), data: data}, nil
}

// Rows returns the number of vectors in the index.
func (x *Index) Rows() int {
	return x.rows
}

// Dimension returns the vector dimension.
func (x *Index) Dimension() int {
	return x.dim
}

// Search returns the min(k, rows) nearest rows to query by inner
// product, sorted by descending score. Ties are broken by ascending
// row id so results are deterministic.
func (x *Index) Search(query []float32, k int) ([]Hit, error) {
	if len(query) != x.dim {
		return nil, fmt.Errorf("query dimension %d does not match index dimension %d", len(query), x.dim)
	}
	if k <= 0 {
		return nil, fmt.Errorf("k must be positive, got %d", k)
	}

	hits := make([]Hit, x.rows)
	for row := 0; row < x.rows; row++ {
		offset := row * x.dim
		var score float32
		for i, q := range query {
			score += q * x.data[offset+i]
		}
		hits[row] = Hit{Row: row, Score: score}
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].Row < hits[j].Row
	})

	if k > len(hits) {
		k = len(hits)
	}
	return hits[:k], nil
}

// Binary layout: magic, version, row count, dimension, then row-major
// little-endian float32 data.
const (
	indexMagic   = 0x43505649 // "CPVI"
	indexVersion = 1
)

// Save writes the index to path, creating parent directories as
// needed.
func (x *Index) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create index dir: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create index file: %w", err)
	}
	defer file.Close()

	w := bufio.NewWriter(file)
	header := []uint32{indexMagic, indexVersion, uint32(x.rows), uint32(x.dim)}
	for _, v := range header {
		if err := binary.Write(w, binary.LittleEndian, v); err != nil {
			return fmt.Errorf("write index header: %w", err)
		}
	}

	buf := make([]byte, 4)
	for _, v := range x.data {
		binary.LittleEndian.PutUint32(buf, math.Float32bits(v))
		if _, err := w.Write(buf); err != nil {
			return fmt.Errorf("write index data: %w", err)
		}
	}

	if err := w.Flush(); err != nil {
		return fmt.Errorf("flush index file: %w", err)
	}
	return nil
}

// Load reads an index written by Save. Row order is restored exactly;
// the caller is responsible for validating row count against its
// metadata before using the pair.
func Load(path string) (*Index, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open index file: %w", err)
	}
	defer file.Close()

	r := bufio.NewReader(file)
	var header [4]uint32
	for i := range header {
		if err := binary.Read(r, binary.LittleEndian, &header[i]); err != nil {
			return nil, fmt.Errorf("read index header: %w", err)
		}
	}

	if header[0] != indexMagic {
		return nil, fmt.Errorf("not an index file: bad magic %#x", header[0])
	}
	if header[1] != indexVersion {
		return nil, fmt.Errorf("unsupported index version %d", header[1])
	}

	rows := int(header[2])
	dim := int(header[3])
	if rows <= 0 || dim <= 0 {
		return nil, fmt.Errorf("invalid index shape: %d rows x %d dims", rows, dim)
	}

	data := make([]float32, rows*dim)
	buf := make([]byte, 4)
	for i := range data {
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, fmt.Errorf("read index data: %w", err)
		}
		data[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf))
	}

	return &Index{dim: dim, rows: rows, data: data}, nil
}
