package codepilot

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/DreamCats/codepilot/internal/config"
	"github.com/DreamCats/codepilot/internal/vectorindex"
)

// Embedder turns text into normalized vectors. The embedding service
// satisfies it; tests substitute deterministic fakes.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatchWithProgress(ctx context.Context, texts []string, report func(done int)) ([][]float32, error)
}

// Snapshot is one immutable (metadata, index) generation. Searches
// grab the current snapshot once and work against it unaffected by a
// concurrent re-ingest.
type Snapshot struct {
	Chunks      []ChunkMetadata
	Index       *vectorindex.Index
	InstalledAt time.Time
}

// Service owns the installed snapshot, the query cache and the
// ingestion lock. It is the single entry point for ingest, search and
// status.
type Service struct {
	cfg      *config.Config
	embedder Embedder
	source   FileSource
	paths    DataPaths

	current  atomic.Pointer[Snapshot]
	cache    *QueryCache
	ingestMu sync.Mutex
}

// NewService wires a service against the given data directory. No
// snapshot is installed yet; call LoadFromDisk to pick up persisted
// state from an earlier run.
func NewService(cfg *config.Config, embedder Embedder, source FileSource, dataDir string) *Service {
	return &Service{
		cfg:      cfg,
		embedder: embedder,
		source:   source,
		paths:    NewDataPaths(dataDir),
		cache:    NewQueryCache(cfg.Search.QueryCacheSize),
	}
}

// Paths exposes the on-disk layout the service operates on.
func (s *Service) Paths() DataPaths {
	return s.paths
}

// Current returns the installed snapshot, or nil if none exists.
func (s *Service) Current() *Snapshot {
	return s.current.Load()
}

// install publishes a new generation. Readers holding the previous
// snapshot keep a consistent view until they finish.
func (s *Service) install(snap *Snapshot) {
	s.current.Store(snap)
}

// LoadFromDisk restores the persisted snapshot, if any. A completely
// absent state is normal before the first ingest and reports ok=false
// without error. A present but inconsistent state, such as a metadata
// count that disagrees with the index row count, is an error: serving
// misaligned rows would silently return wrong files.
func (s *Service) LoadFromDisk() (bool, error) {
	if _, err := os.Stat(s.paths.IndexFile); errors.Is(err, os.ErrNotExist) {
		return false, nil
	}

	chunks, err := LoadChunks(s.paths.ChunksFile)
	if err != nil {
		return false, err
	}
	idx, err := vectorindex.Load(s.paths.IndexFile)
	if err != nil {
		return false, err
	}
	if idx.Rows() != len(chunks) {
		return false, fmt.Errorf("index has %d rows but metadata has %d chunks: state is corrupt, re-run ingest", idx.Rows(), len(chunks))
	}

	s.install(&Snapshot{Chunks: chunks, Index: idx, InstalledAt: time.Now()})
	log.Printf("loaded index: %d chunks, dim %d", len(chunks), idx.Dimension())
	return true, nil
}

// Status reports on the installed snapshot.
func (s *Service) Status() Status {
	snap := s.current.Load()
	if snap == nil {
		return Status{}
	}
	return Status{
		Indexed:     true,
		Chunks:      len(snap.Chunks),
		Dimension:   snap.Index.Dimension(),
		InstalledAt: snap.InstalledAt,
	}
}
