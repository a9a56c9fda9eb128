package codepilot

import (
	"path/filepath"

	"github.com/DreamCats/codepilot/internal/config"
	"github.com/DreamCats/codepilot/internal/discovery"
)

// fsSource walks a repository on the local filesystem using the
// configured discovery rules.
type fsSource struct {
	opts     discovery.Options
	maxBytes int64
}

// NewFSSource builds the default FileSource from discovery config.
func NewFSSource(cfg config.DiscoveryConfig) FileSource {
	return &fsSource{
		opts: discovery.Options{
			IncludeExts: cfg.IncludeExts,
			ExcludeDirs: cfg.ExcludeDirs,
			Exclude:     cfg.Exclude,
		},
		maxBytes: cfg.MaxFileBytes,
	}
}

func (s *fsSource) List(root string) ([]SourceFile, error) {
	files, err := discovery.ListSourceFiles(root, s.opts)
	if err != nil {
		return nil, err
	}
	out := make([]SourceFile, len(files))
	for i, f := range files {
		out[i] = SourceFile{Path: f.Path, Lang: f.Lang}
	}
	return out, nil
}

func (s *fsSource) Read(root, relPath string) (string, error) {
	return discovery.ReadTextFile(filepath.Join(root, filepath.FromSlash(relPath)), s.maxBytes)
}
