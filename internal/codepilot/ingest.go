package codepilot

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/DreamCats/codepilot/internal/chunker"
	"github.com/DreamCats/codepilot/internal/vectorindex"
)

// ProgressFunc is called as embedding batches complete. The CLI hooks
// a progress bar here; library callers pass nil.
type ProgressFunc func(done, total int)

// Ingest rebuilds the index for the repository at root. The run is
// all-or-nothing: on any fatal error the previously installed
// snapshot and its files are left untouched. Unreadable files are
// skipped and counted, never fatal. Concurrent ingests are serialized
// on one lock.
func (s *Service) Ingest(ctx context.Context, root string, opts IngestOptions, progress ProgressFunc) (*IngestStats, error) {
	s.ingestMu.Lock()
	defer s.ingestMu.Unlock()

	start := time.Now()

	params := chunker.Params{
		Window:   opts.Window,
		Overlap:  opts.Overlap,
		MinLines: opts.MinLines,
	}
	if params.Window == 0 {
		params.Window = s.cfg.Chunking.Window
	}
	if params.Overlap == 0 {
		params.Overlap = s.cfg.Chunking.Overlap
	}
	if params.MinLines == 0 {
		params.MinLines = s.cfg.Chunking.MinLines
	}
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve repo root: %w", err)
	}
	repo := filepath.Base(absRoot)

	files, err := s.source.List(absRoot)
	if err != nil {
		return nil, fmt.Errorf("scan repo: %w", err)
	}

	stats := &IngestStats{FilesScanned: len(files)}
	seen := make(map[string]struct{})
	var metas []ChunkMetadata
	totalLines := 0

	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("ingest canceled: %w", err)
		}

		text, err := s.source.Read(absRoot, file.Path)
		if err != nil {
			log.Printf("skip %s: %v", file.Path, err)
			stats.FilesSkipped++
			continue
		}
		stats.FilesRead++

		chunks, err := chunker.ChunkText(text, params)
		if err != nil {
			return nil, fmt.Errorf("chunk %s: %w", file.Path, err)
		}

		for _, c := range chunks {
			hash := chunker.HashText(c.Text)
			if _, dup := seen[hash]; dup {
				continue
			}
			seen[hash] = struct{}{}
			metas = append(metas, ChunkMetadata{
				Repo:      repo,
				Path:      file.Path,
				Lang:      file.Lang,
				StartLine: c.StartLine,
				EndLine:   c.EndLine,
				Text:      c.Text,
				Hash:      hash,
				Preview:   chunker.MakePreview(c.Text),
			})
			totalLines += c.EndLine - c.StartLine + 1
		}
	}

	if len(metas) == 0 {
		return nil, ErrNoChunks
	}

	texts := make([]string, len(metas))
	for i := range metas {
		texts[i] = metas[i].Text
	}

	var report func(done int)
	if progress != nil {
		total := len(texts)
		report = func(done int) { progress(done, total) }
	}
	vectors, err := s.embedder.EmbedBatchWithProgress(ctx, texts, report)
	if err != nil {
		return nil, fmt.Errorf("embed chunks: %w", err)
	}

	idx, err := vectorindex.Build(vectors)
	if err != nil {
		return nil, fmt.Errorf("build index: %w", err)
	}

	if err := s.persist(metas, idx); err != nil {
		return nil, err
	}

	s.install(&Snapshot{Chunks: metas, Index: idx, InstalledAt: time.Now()})

	stats.ChunksTotal = len(metas)
	stats.AvgChunkLines = float64(totalLines) / float64(len(metas))
	stats.Duration = time.Since(start)
	log.Printf("ingest done: %d files read, %d chunks, %s", stats.FilesRead, stats.ChunksTotal, stats.Duration.Round(time.Millisecond))
	return stats, nil
}

// persist writes the new generation's files. Each artifact is staged
// and renamed so a crash mid-write cannot leave a truncated file in
// place of a good one.
func (s *Service) persist(metas []ChunkMetadata, idx *vectorindex.Index) error {
	if err := os.MkdirAll(s.paths.Dir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	if err := SaveChunks(s.paths.ChunksFile, metas); err != nil {
		return err
	}

	tmpIndex := s.paths.IndexFile + ".tmp"
	if err := idx.Save(tmpIndex); err != nil {
		return fmt.Errorf("save index: %w", err)
	}
	if err := os.Rename(tmpIndex, s.paths.IndexFile); err != nil {
		os.Remove(tmpIndex)
		return fmt.Errorf("install index: %w", err)
	}

	if err := rebuildKeywordIndex(s.paths.KeywordDir, metas); err != nil {
		return fmt.Errorf("build keyword index: %w", err)
	}
	return nil
}
