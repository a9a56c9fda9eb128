package chunker

import (
	"encoding/hex"
	"fmt"
	"hash/fnv"
	"strings"
)

// Chunk is a contiguous line range extracted from one file.
// Line numbers are 1-based and inclusive.
type Chunk struct {
	Text      string
	StartLine int
	EndLine   int
}

// Params controls fixed-window line chunking.
type Params struct {
	Window   int // chunk length in lines
	Overlap  int // lines shared between consecutive chunks, must be < Window
	MinLines int // minimum non-blank lines to keep a chunk
}

// DefaultParams returns the standard chunking parameters.
func DefaultParams() Params {
	return Params{Window: 80, Overlap: 15, MinLines: 10}
}

// Validate checks that the parameters describe a usable window.
func (p Params) Validate() error {
	if p.Window <= 0 {
		return fmt.Errorf("window must be positive, got %d", p.Window)
	}
	if p.Overlap < 0 {
		return fmt.Errorf("overlap must be non-negative, got %d", p.Overlap)
	}
	if p.Overlap >= p.Window {
		return fmt.Errorf("overlap %d must be smaller than window %d", p.Overlap, p.Window)
	}
	if p.MinLines < 0 {
		return fmt.Errorf("min_lines must be non-negative, got %d", p.MinLines)
	}
	return nil
}

// ChunkText splits a file's text into overlapping line windows.
// Windows start at line 1 and advance by window-overlap; the final
// window may be shorter. Windows with fewer than MinLines non-blank
// lines are dropped. The function has no side effects: the output is
// fully determined by text and params.
func ChunkText(text string, params Params) ([]Chunk, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	lines := splitLines(text)
	total := len(lines)
	if total == 0 {
		return nil, nil
	}

	step := params.Window - params.Overlap
	var chunks []Chunk
	for start := 1; start <= total; start += step {
		end := start + params.Window - 1
		if end > total {
			end = total
		}

		window := lines[start-1 : end]
		if countNonBlank(window) < params.MinLines {
			continue
		}

		chunks = append(chunks, Chunk{
			Text:      strings.Join(window, "\n"),
			StartLine: start,
			EndLine:   end,
		})
	}
	return chunks, nil
}

// HashText returns a 16-character hex digest of the text.
// The digest is FNV-64a: it identifies duplicate chunk content within
// a single ingestion run and is not an integrity or security check.
func HashText(text string) string {
	h := fnv.New64a()
	h.Write([]byte(text))
	var sum [8]byte
	copy(sum[:], h.Sum(nil))
	return hex.EncodeToString(sum[:])
}

// PreviewLines is the number of leading lines kept as a chunk preview.
const PreviewLines = 10

// MakePreview returns the first PreviewLines lines of text.
func MakePreview(text string) string {
	lines := splitLines(text)
	if len(lines) > PreviewLines {
		lines = lines[:PreviewLines]
	}
	return strings.Join(lines, "\n")
}

// splitLines splits on \n, treating a single trailing newline as a
// terminator rather than an extra empty line.
func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	text = strings.TrimSuffix(text, "\n")
	return strings.Split(text, "\n")
}

func countNonBlank(lines []string) int {
	count := 0
	for _, line := range lines {
		if strings.TrimSpace(line) != "" {
			count++
		}
	}
	return count
}
