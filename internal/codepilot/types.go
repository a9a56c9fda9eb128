package codepilot

import "time"

// ChunkMetadata is the persisted record for one surviving chunk. The
// position of a record in the metadata array is the row id shared with
// the vector index: row i of the index always describes metadata[i]
// for the lifetime of one installed generation.
type ChunkMetadata struct {
	Repo      string `json:"repo"`
	Path      string `json:"path"`
	Lang      string `json:"lang"`
	StartLine int    `json:"start_line"`
	EndLine   int    `json:"end_line"`
	Text      string `json:"text"`
	Hash      string `json:"hash"`
	Preview   string `json:"preview"`
}

// SourceFile is one file handed to ingestion by a FileSource.
type SourceFile struct {
	Path string // relative to the ingested root
	Lang string
}

// FileSource supplies the files of a repository. Discovery and reading
// are external to the pipeline so tests and alternative acquisition
// strategies can inject their own.
type FileSource interface {
	// List returns the readable source files under root in a stable
	// order. An error means root itself is unusable.
	List(root string) ([]SourceFile, error)
	// Read returns the file's text. An error marks the file as
	// skippable, never fatal to the run.
	Read(root, relPath string) (string, error)
}

// SearchOptions holds the per-query knobs of the search pipeline.
type SearchOptions struct {
	K            int    // number of results, must be positive
	PathContains string // case-insensitive substring filter on path, empty = off
	Lang         string // exact, case-sensitive language filter, empty = off
}

// SearchResult is one ranked hit.
type SearchResult struct {
	Repo      string  `json:"repo"`
	Path      string  `json:"path"`
	Lang      string  `json:"lang"`
	StartLine int     `json:"start_line"`
	EndLine   int     `json:"end_line"`
	Preview   string  `json:"preview"`
	Score     float32 `json:"score"`
}

// SearchResponse is the outcome of one search, with measured latency.
type SearchResponse struct {
	Results []SearchResult `json:"results"`
	Latency time.Duration  `json:"latency"`
}

// IngestOptions overrides chunking parameters for one run. Zero values
// fall back to the configured defaults.
type IngestOptions struct {
	Window   int
	Overlap  int
	MinLines int
}

// IngestStats summarizes one completed ingestion run.
type IngestStats struct {
	FilesScanned  int           `json:"files_scanned"`
	FilesRead     int           `json:"files_read"`
	FilesSkipped  int           `json:"files_skipped"`
	ChunksTotal   int           `json:"chunks_total"`
	AvgChunkLines float64       `json:"avg_chunk_lines"`
	Duration      time.Duration `json:"duration"`
}

// Status describes the currently installed snapshot, if any.
type Status struct {
	Indexed     bool
	Chunks      int
	Dimension   int
	InstalledAt time.Time
}
