// Package discovery finds the readable source files of a repository
// and tags them with a language. It is the boundary the ingestion
// pipeline pulls files from; everything else treats its output as an
// ordered list of (relative path, language) pairs.
package discovery

import (
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/bmatcuk/doublestar/v4"
)

// File is one discovered source file.
type File struct {
	Path string // relative to the scanned root, slash-separated
	Lang string // language tag derived from the extension
}

// Options controls which files are discovered.
type Options struct {
	IncludeExts []string // extensions to include, e.g. [".go", ".py"]
	ExcludeDirs []string // directory names skipped anywhere in the tree
	Exclude     []string // doublestar glob patterns against relative paths
}

// Lockfiles and minified assets carry no searchable content.
var skippedFiles = map[string]bool{
	"package-lock.json": true,
	"yarn.lock":         true,
	"pnpm-lock.yaml":    true,
	"poetry.lock":       true,
	"go.sum":            true,
}

// ListSourceFiles walks root and returns the matching files sorted by
// path for determinism. Symlinks are never followed. An error is
// returned only when root itself is missing or not a directory;
// per-file problems just exclude the file.
func ListSourceFiles(root string, opts Options) ([]File, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("root path is not accessible: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root path is not a directory: %s", root)
	}

	includeExts := make(map[string]bool, len(opts.IncludeExts))
	for _, ext := range opts.IncludeExts {
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		includeExts[strings.ToLower(ext)] = true
	}
	excludeDirs := make(map[string]bool, len(opts.ExcludeDirs))
	for _, dir := range opts.ExcludeDirs {
		excludeDirs[dir] = true
	}

	var files []File
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			return nil // unreadable subtree, skip
		}

		if d.IsDir() {
			if path == root {
				return nil
			}
			if excludeDirs[d.Name()] || isSymlink(path) {
				return filepath.SkipDir
			}
			return nil
		}

		if d.Type()&fs.ModeSymlink != 0 {
			return nil
		}

		name := d.Name()
		if skippedFiles[name] || strings.Contains(name, ".min.") {
			return nil
		}
		if !includeExts[strings.ToLower(filepath.Ext(name))] {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if matchesAny(opts.Exclude, rel) {
			return nil
		}

		files = append(files, File{Path: rel, Lang: DetectLang(rel)})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk repository: %w", err)
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

func matchesAny(patterns []string, rel string) bool {
	for _, pattern := range patterns {
		if matched, _ := doublestar.Match(pattern, rel); matched {
			return true
		}
		if matched, _ := doublestar.Match(pattern, filepath.Base(rel)); matched {
			return true
		}
	}
	return false
}

func isSymlink(path string) bool {
	info, err := os.Lstat(path)
	if err != nil {
		return false
	}
	return info.Mode()&fs.ModeSymlink != 0
}

var langByExt = map[string]string{
	".py":   "python",
	".js":   "javascript",
	".jsx":  "javascript",
	".ts":   "typescript",
	".tsx":  "typescript",
	".go":   "go",
	".java": "java",
	".rb":   "ruby",
	".rs":   "rust",
	".c":    "c",
	".h":    "c",
	".cpp":  "cpp",
	".hpp":  "cpp",
	".cs":   "csharp",
	".php":  "php",
	".md":   "markdown",
}

// DetectLang maps a file path to a language tag by extension.
// Unrecognized extensions yield "unknown".
func DetectLang(path string) string {
	if lang, ok := langByExt[strings.ToLower(filepath.Ext(path))]; ok {
		return lang
	}
	return "unknown"
}

// ReadTextFile reads a file as UTF-8 text. Files above maxBytes, files
// containing NUL bytes, and files that are not valid UTF-8 all return
// an error; callers treat these as skippable, not fatal.
func ReadTextFile(path string, maxBytes int64) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("stat file: %w", err)
	}
	if maxBytes > 0 && info.Size() > maxBytes {
		return "", fmt.Errorf("file too large: %d bytes (limit %d)", info.Size(), maxBytes)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read file: %w", err)
	}

	if bytes.IndexByte(data, 0) >= 0 {
		return "", fmt.Errorf("binary file: contains NUL bytes")
	}
	if !utf8.Valid(data) {
		return "", fmt.Errorf("file is not valid UTF-8")
	}

	return string(data), nil
}
