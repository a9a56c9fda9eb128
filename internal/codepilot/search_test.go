package codepilot

import (
	"context"
	"errors"
	"hash/fnv"
	"math"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/DreamCats/codepilot/internal/config"
	"github.com/DreamCats/codepilot/internal/vectorindex"
)

// fakeEmbedder returns canned vectors for known texts and a
// deterministic hash-derived unit vector otherwise.
type fakeEmbedder struct {
	mu      sync.Mutex
	calls   int
	vectors map[string][]float32
	failAll bool
}

func (f *fakeEmbedder) vectorFor(text string) []float32 {
	if v, ok := f.vectors[text]; ok {
		out := make([]float32, len(v))
		copy(out, v)
		return out
	}
	h := fnv.New64a()
	h.Write([]byte(text))
	sum := h.Sum64()
	v := make([]float32, 4)
	for i := range v {
		v[i] = float32((sum>>(i*8))&0xff) + 1
	}
	var norm float64
	for _, x := range v {
		norm += float64(x) * float64(x)
	}
	scale := float32(1 / math.Sqrt(norm))
	for i := range v {
		v[i] *= scale
	}
	return v
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.failAll {
		return nil, errors.New("embedding backend down")
	}
	return f.vectorFor(text), nil
}

func (f *fakeEmbedder) EmbedBatchWithProgress(_ context.Context, texts []string, report func(done int)) ([][]float32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.failAll {
		return nil, errors.New("embedding backend down")
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = f.vectorFor(t)
	}
	if report != nil {
		report(len(texts))
	}
	return out, nil
}

func (f *fakeEmbedder) embedCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func newTestService(t *testing.T, embedder Embedder, source FileSource) *Service {
	t.Helper()
	cfg := &config.Config{}
	cfg.ApplyDefaults()
	cfg.Chunking = config.ChunkingConfig{Window: 5, Overlap: 1, MinLines: 1}
	return NewService(cfg, embedder, source, t.TempDir())
}

// unit2 returns a normalized 2-d vector pointing at (x, y).
func unit2(x, y float64) []float32 {
	n := math.Sqrt(x*x + y*y)
	return []float32{float32(x / n), float32(y / n)}
}

func installTestSnapshot(t *testing.T, s *Service, chunks []ChunkMetadata, vectors [][]float32) {
	t.Helper()
	idx, err := vectorindex.Build(vectors)
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	s.install(&Snapshot{Chunks: chunks, Index: idx, InstalledAt: time.Now()})
}

func TestSearchValidatesK(t *testing.T) {
	s := newTestService(t, &fakeEmbedder{}, nil)
	for _, k := range []int{0, -3} {
		_, err := s.Search(context.Background(), "query", SearchOptions{K: k})
		if !errors.Is(err, ErrInvalidArgument) {
			t.Errorf("k=%d: err = %v, want ErrInvalidArgument", k, err)
		}
	}
}

func TestSearchWithoutIndex(t *testing.T) {
	s := newTestService(t, &fakeEmbedder{}, nil)
	_, err := s.Search(context.Background(), "query", SearchOptions{K: 5})
	if !errors.Is(err, ErrIndexUnavailable) {
		t.Errorf("err = %v, want ErrIndexUnavailable", err)
	}
}

func TestSearchReusesCachedVector(t *testing.T) {
	emb := &fakeEmbedder{vectors: map[string][]float32{"find the parser": unit2(1, 0)}}
	s := newTestService(t, emb, nil)
	installTestSnapshot(t, s,
		[]ChunkMetadata{
			{Path: "parser.go", Lang: "go", StartLine: 1, EndLine: 5},
			{Path: "lexer.go", Lang: "go", StartLine: 1, EndLine: 5},
		},
		[][]float32{unit2(1, 0.1), unit2(0.1, 1)},
	)

	first, err := s.Search(context.Background(), "find the parser", SearchOptions{K: 2})
	if err != nil {
		t.Fatalf("Search() error: %v", err)
	}
	second, err := s.Search(context.Background(), "find the parser", SearchOptions{K: 2})
	if err != nil {
		t.Fatalf("Search() error: %v", err)
	}

	if emb.embedCalls() != 1 {
		t.Errorf("embed calls = %d, want 1 (second query served from cache)", emb.embedCalls())
	}
	if !reflect.DeepEqual(pathsOf(first), pathsOf(second)) {
		t.Errorf("cached query changed results: %v vs %v", pathsOf(first), pathsOf(second))
	}
	if first.Latency <= 0 {
		t.Error("latency should be measured")
	}
}

func pathsOf(resp *SearchResponse) []string {
	out := make([]string, len(resp.Results))
	for i, r := range resp.Results {
		out[i] = r.Path
	}
	return out
}

func TestSearchFilters(t *testing.T) {
	emb := &fakeEmbedder{vectors: map[string][]float32{"query": unit2(1, 0)}}
	s := newTestService(t, emb, nil)
	installTestSnapshot(t, s,
		[]ChunkMetadata{
			{Path: "src/Auth/login.py", Lang: "python", StartLine: 1, EndLine: 5},
			{Path: "lib/db.go", Lang: "go", StartLine: 1, EndLine: 5},
			{Path: "src/auth/token.py", Lang: "python", StartLine: 1, EndLine: 5},
		},
		[][]float32{unit2(1, 0), unit2(0.9, 0.3), unit2(0.8, 0.6)},
	)

	resp, err := s.Search(context.Background(), "query", SearchOptions{K: 5, PathContains: "auth"})
	if err != nil {
		t.Fatalf("Search() error: %v", err)
	}
	want := []string{"src/Auth/login.py", "src/auth/token.py"}
	if !reflect.DeepEqual(pathsOf(resp), want) {
		t.Errorf("path filter results = %v, want %v", pathsOf(resp), want)
	}

	resp, err = s.Search(context.Background(), "query", SearchOptions{K: 5, Lang: "go"})
	if err != nil {
		t.Fatalf("Search() error: %v", err)
	}
	if !reflect.DeepEqual(pathsOf(resp), []string{"lib/db.go"}) {
		t.Errorf("lang filter results = %v, want only lib/db.go", pathsOf(resp))
	}

	// Lang matching is exact and case-sensitive.
	resp, err = s.Search(context.Background(), "query", SearchOptions{K: 5, Lang: "Go"})
	if err != nil {
		t.Fatalf("Search() error: %v", err)
	}
	if len(resp.Results) != 0 {
		t.Errorf("Lang \"Go\" matched %v, want nothing", pathsOf(resp))
	}
}

func TestSearchEmptyAfterFilterIsNotError(t *testing.T) {
	emb := &fakeEmbedder{vectors: map[string][]float32{"query": unit2(1, 0)}}
	s := newTestService(t, emb, nil)
	installTestSnapshot(t, s,
		[]ChunkMetadata{{Path: "a.go", Lang: "go", StartLine: 1, EndLine: 5}},
		[][]float32{unit2(1, 0)},
	)

	resp, err := s.Search(context.Background(), "query", SearchOptions{K: 5, Lang: "python"})
	if err != nil {
		t.Fatalf("Search() error: %v", err)
	}
	if len(resp.Results) != 0 {
		t.Errorf("got %v, want empty results", pathsOf(resp))
	}
}

func TestSearchKeywordBoostReorders(t *testing.T) {
	emb := &fakeEmbedder{vectors: map[string][]float32{"alpha handler": unit2(1, 0)}}
	s := newTestService(t, emb, nil)
	installTestSnapshot(t, s,
		[]ChunkMetadata{
			{Path: "other.go", Lang: "go", Text: "nothing relevant here", StartLine: 1, EndLine: 5},
			{Path: "alpha.go", Lang: "go", Text: "func AlphaHandler() {}", StartLine: 1, EndLine: 5},
		},
		[][]float32{unit2(1, 0), unit2(0.95, 0.3122)},
	)

	resp, err := s.Search(context.Background(), "alpha handler", SearchOptions{K: 2})
	if err != nil {
		t.Fatalf("Search() error: %v", err)
	}
	if pathsOf(resp)[0] != "alpha.go" {
		t.Errorf("order = %v, want boosted alpha.go first", pathsOf(resp))
	}
	// One boost regardless of how many tokens matched.
	if diff := resp.Results[0].Score - 0.95 - keywordBoost; diff > 0.01 || diff < -0.01 {
		t.Errorf("boosted score = %f, want ~%f", resp.Results[0].Score, 0.95+keywordBoost)
	}
}

func TestSearchTruncatesToK(t *testing.T) {
	emb := &fakeEmbedder{vectors: map[string][]float32{"query": unit2(1, 0)}}
	s := newTestService(t, emb, nil)
	chunks := make([]ChunkMetadata, 10)
	vectors := make([][]float32, 10)
	for i := range chunks {
		chunks[i] = ChunkMetadata{Path: "f.go", Lang: "go", StartLine: i + 1, EndLine: i + 5}
		vectors[i] = unit2(1, float64(i)*0.05)
	}
	installTestSnapshot(t, s, chunks, vectors)

	resp, err := s.Search(context.Background(), "query", SearchOptions{K: 3})
	if err != nil {
		t.Fatalf("Search() error: %v", err)
	}
	if len(resp.Results) != 3 {
		t.Errorf("len(results) = %d, want 3", len(resp.Results))
	}

	// k larger than the corpus returns everything.
	resp, err = s.Search(context.Background(), "query", SearchOptions{K: 50})
	if err != nil {
		t.Fatalf("Search() error: %v", err)
	}
	if len(resp.Results) != 10 {
		t.Errorf("len(results) = %d, want 10", len(resp.Results))
	}
}

func TestTokenizeQuery(t *testing.T) {
	tests := []struct {
		query string
		want  []string
	}{
		{"How do I parse JSON?", []string{"parse", "json"}},
		{"the a an is", nil},
		{"retry-logic (v2)", []string{"retry", "logic", "v2"}},
		{"x y z", nil},
		{"", nil},
		{"WHERE does the cache live", []string{"cache", "live"}},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			got := tokenizeQuery(tt.query)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("tokenizeQuery(%q) = %v, want %v", tt.query, got, tt.want)
			}
		})
	}
}
