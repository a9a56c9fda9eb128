package codepilot

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
)

// SaveChunks writes the metadata array as JSON Lines, one record per
// line in row order. The write goes through a temp file and rename so
// a reader never sees a half-written array.
func SaveChunks(path string, chunks []ChunkMetadata) error {
	tmpPath := path + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("create chunks file: %w", err)
	}

	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	for i := range chunks {
		if err := enc.Encode(&chunks[i]); err != nil {
			f.Close()
			os.Remove(tmpPath)
			return fmt.Errorf("encode chunk %d: %w", i, err)
		}
	}
	if err := w.Flush(); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("flush chunks file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close chunks file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("install chunks file: %w", err)
	}
	return nil
}

// LoadChunks reads a JSON Lines metadata array back in row order.
func LoadChunks(path string) ([]ChunkMetadata, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open chunks file: %w", err)
	}
	defer f.Close()

	var chunks []ChunkMetadata
	scanner := bufio.NewScanner(f)
	// Chunk text can make a record far larger than the default token
	// limit, so give the scanner room for the biggest ingestible file.
	scanner.Buffer(make([]byte, 0, 64*1024), 8*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}
		var c ChunkMetadata
		if err := json.Unmarshal(raw, &c); err != nil {
			return nil, fmt.Errorf("parse chunks file line %d: %w", line, err)
		}
		chunks = append(chunks, c)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read chunks file: %w", err)
	}
	return chunks, nil
}
