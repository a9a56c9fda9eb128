package codepilot

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const baseDirName = ".codepilot"

// DataPaths locates the on-disk state of one index generation.
type DataPaths struct {
	Dir        string // data directory root
	ChunksFile string // metadata array, one JSON record per line
	IndexFile  string // vector index blob
	KeywordDir string // bleve keyword index
	RunsDBFile string // ingestion run history
}

// NewDataPaths lays out the state files under dir.
func NewDataPaths(dir string) DataPaths {
	return DataPaths{
		Dir:        dir,
		ChunksFile: filepath.Join(dir, "chunks.jsonl"),
		IndexFile:  filepath.Join(dir, "index.bin"),
		KeywordDir: filepath.Join(dir, "text"),
		RunsDBFile: filepath.Join(dir, "runs.db"),
	}
}

// DefaultDataDir derives a per-repository data directory under the
// user's home, keyed by the repo name and a hash of its absolute path.
func DefaultDataDir(repoRoot string) (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	name := sanitizeRepoName(filepath.Base(repoRoot))
	sum := sha1.Sum([]byte(repoRoot))
	suffix := hex.EncodeToString(sum[:])[:12]
	return filepath.Join(homeDir, baseDirName, "data", name+"-"+suffix), nil
}

// sanitizeRepoName replaces unsafe characters so the name can be used
// as a directory component.
func sanitizeRepoName(name string) string {
	if name == "" || name == "." || name == string(filepath.Separator) {
		return "repo"
	}
	var b strings.Builder
	for _, r := range name {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') ||
			r == '.' || r == '_' || r == '-' {
			b.WriteRune(r)
			continue
		}
		b.WriteByte('_')
	}
	if b.Len() == 0 {
		return "repo"
	}
	return b.String()
}
