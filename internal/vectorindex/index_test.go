package vectorindex

import (
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"testing"
)

func normalize(v []float32) []float32 {
	var norm float64
	for _, x := range v {
		norm += float64(x) * float64(x)
	}
	norm = math.Sqrt(norm)
	if norm == 0 {
		return v
	}
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out
}

func randomVectors(t *testing.T, n, dim int, seed int64) [][]float32 {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))
	vectors := make([][]float32, n)
	for i := range vectors {
		v := make([]float32, dim)
		for j := range v {
			v[j] = float32(rng.NormFloat64())
		}
		vectors[i] = normalize(v)
	}
	return vectors
}

func TestBuildValidation(t *testing.T) {
	if _, err := Build(nil); err == nil {
		t.Error("Build(nil) should fail")
	}
	if _, err := Build([][]float32{{}}); err == nil {
		t.Error("Build with zero-dimension vector should fail")
	}
	if _, err := Build([][]float32{{1, 0}, {1, 0, 0}}); err == nil {
		t.Error("Build with mixed dimensions should fail")
	}
}

func TestSearchExactMatch(t *testing.T) {
	vectors := randomVectors(t, 100, 16, 1)
	index, err := Build(vectors)
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	if index.Rows() != 100 || index.Dimension() != 16 {
		t.Fatalf("index shape = %dx%d, want 100x16", index.Rows(), index.Dimension())
	}

	// A stored vector must match itself as the top result.
	hits, err := index.Search(vectors[42], 5)
	if err != nil {
		t.Fatalf("Search() error: %v", err)
	}
	if len(hits) != 5 {
		t.Fatalf("got %d hits, want 5", len(hits))
	}
	if hits[0].Row != 42 {
		t.Errorf("top hit row = %d, want 42", hits[0].Row)
	}
	if hits[0].Score < 0.999 {
		t.Errorf("self-similarity = %f, want ~1", hits[0].Score)
	}

	for i := 1; i < len(hits); i++ {
		if hits[i].Score > hits[i-1].Score {
			t.Errorf("hits not sorted by descending score at %d", i)
		}
	}
}

func TestSearchTieBreaking(t *testing.T) {
	// Three identical vectors tie exactly; order must be ascending row id.
	v := []float32{1, 0, 0}
	index, err := Build([][]float32{v, v, v})
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}

	hits, err := index.Search(v, 3)
	if err != nil {
		t.Fatalf("Search() error: %v", err)
	}
	for i, hit := range hits {
		if hit.Row != i {
			t.Errorf("hit %d row = %d, want %d (ascending tie break)", i, hit.Row, i)
		}
	}
}

func TestSearchKClamped(t *testing.T) {
	index, err := Build(randomVectors(t, 3, 8, 2))
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}

	hits, err := index.Search(normalize(make([]float32, 8)), 10)
	if err != nil {
		t.Fatalf("Search() error: %v", err)
	}
	if len(hits) != 3 {
		t.Errorf("got %d hits, want 3 (clamped to row count)", len(hits))
	}

	if _, err := index.Search(normalize(make([]float32, 8)), 0); err == nil {
		t.Error("Search with k=0 should fail")
	}
	if _, err := index.Search(make([]float32, 4), 1); err == nil {
		t.Error("Search with wrong query dimension should fail")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	vectors := randomVectors(t, 50, 12, 3)
	index, err := Build(vectors)
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}

	path := filepath.Join(t.TempDir(), "index.bin")
	if err := index.Save(path); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if loaded.Rows() != index.Rows() || loaded.Dimension() != index.Dimension() {
		t.Fatalf("loaded shape = %dx%d, want %dx%d",
			loaded.Rows(), loaded.Dimension(), index.Rows(), index.Dimension())
	}

	// Same query must return identical ordered row ids from both.
	query := randomVectors(t, 1, 12, 4)[0]
	for _, k := range []int{1, 5, 50} {
		want, err := index.Search(query, k)
		if err != nil {
			t.Fatalf("Search() error: %v", err)
		}
		got, err := loaded.Search(query, k)
		if err != nil {
			t.Fatalf("Search() on loaded index error: %v", err)
		}
		if len(got) != len(want) {
			t.Fatalf("k=%d: got %d hits, want %d", k, len(got), len(want))
		}
		for i := range want {
			if got[i].Row != want[i].Row {
				t.Errorf("k=%d hit %d: row %d, want %d", k, i, got[i].Row, want[i].Row)
			}
		}
	}
}

func TestLoadRejectsGarbage(t *testing.T) {
	dir := t.TempDir()

	if _, err := Load(filepath.Join(dir, "missing.bin")); err == nil {
		t.Error("Load of missing file should fail")
	}

	bad := filepath.Join(dir, "bad.bin")
	if err := os.WriteFile(bad, []byte("definitely not an index"), 0o644); err != nil {
		t.Fatalf("WriteFile() error: %v", err)
	}
	if _, err := Load(bad); err == nil {
		t.Error("Load of garbage file should fail")
	}
}
