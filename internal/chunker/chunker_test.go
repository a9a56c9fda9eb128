package chunker

import (
	"fmt"
	"strings"
	"testing"
)

func makeText(lines int) string {
	var b strings.Builder
	for i := 1; i <= lines; i++ {
		fmt.Fprintf(&b, "line %d\n", i)
	}
	return b.String()
}

func TestChunkTextWindows(t *testing.T) {
	text := makeText(100)

	chunks, err := ChunkText(text, Params{Window: 20, Overlap: 5, MinLines: 5})
	if err != nil {
		t.Fatalf("ChunkText() error: %v", err)
	}
	if len(chunks) == 0 {
		t.Fatal("expected chunks, got none")
	}

	if chunks[0].StartLine != 1 || chunks[0].EndLine != 20 {
		t.Errorf("first chunk range = [%d, %d], want [1, 20]", chunks[0].StartLine, chunks[0].EndLine)
	}
	if chunks[1].StartLine != 16 {
		t.Errorf("second chunk start = %d, want 16", chunks[1].StartLine)
	}

	// Consecutive chunks overlap by exactly 5 lines and leave no gap.
	for i := 1; i < len(chunks); i++ {
		prev, cur := chunks[i-1], chunks[i]
		overlap := prev.EndLine - cur.StartLine + 1
		if i < len(chunks)-1 && overlap != 5 {
			t.Errorf("chunks %d/%d overlap by %d lines, want 5", i-1, i, overlap)
		}
		if cur.StartLine > prev.EndLine+1 {
			t.Errorf("gap between chunks %d and %d", i-1, i)
		}
	}

	for i, chunk := range chunks {
		if chunk.Text == "" {
			t.Errorf("chunk %d has empty text", i)
		}
	}
}

func TestChunkTextDefaults(t *testing.T) {
	// 100 lines with window=80, overlap=15 yields exactly two chunks:
	// lines 1-80 and lines 66-100 (35 lines, above min_lines=10).
	text := makeText(100)

	chunks, err := ChunkText(text, DefaultParams())
	if err != nil {
		t.Fatalf("ChunkText() error: %v", err)
	}
	if len(chunks) != 2 {
		t.Fatalf("got %d chunks, want 2", len(chunks))
	}
	if chunks[0].StartLine != 1 || chunks[0].EndLine != 80 {
		t.Errorf("first chunk = [%d, %d], want [1, 80]", chunks[0].StartLine, chunks[0].EndLine)
	}
	if chunks[1].StartLine != 66 || chunks[1].EndLine != 100 {
		t.Errorf("second chunk = [%d, %d], want [66, 100]", chunks[1].StartLine, chunks[1].EndLine)
	}
}

func TestChunkTextMinLines(t *testing.T) {
	// 12 lines, 9 of them blank: only 3 non-blank, below min_lines.
	var b strings.Builder
	b.WriteString("one\ntwo\nthree\n")
	for i := 0; i < 9; i++ {
		b.WriteString("\n")
	}

	chunks, err := ChunkText(b.String(), Params{Window: 20, Overlap: 5, MinLines: 5})
	if err != nil {
		t.Fatalf("ChunkText() error: %v", err)
	}
	if len(chunks) != 0 {
		t.Errorf("got %d chunks, want 0 (below min_lines)", len(chunks))
	}
}

func TestChunkTextEmpty(t *testing.T) {
	chunks, err := ChunkText("", DefaultParams())
	if err != nil {
		t.Fatalf("ChunkText() error: %v", err)
	}
	if len(chunks) != 0 {
		t.Errorf("got %d chunks for empty text, want 0", len(chunks))
	}
}

func TestParamsValidate(t *testing.T) {
	tests := []struct {
		name    string
		params  Params
		wantErr bool
	}{
		{"defaults", DefaultParams(), false},
		{"zero window", Params{Window: 0, Overlap: 0, MinLines: 0}, true},
		{"overlap equals window", Params{Window: 10, Overlap: 10, MinLines: 0}, true},
		{"overlap above window", Params{Window: 10, Overlap: 15, MinLines: 0}, true},
		{"negative overlap", Params{Window: 10, Overlap: -1, MinLines: 0}, true},
		{"negative min lines", Params{Window: 10, Overlap: 2, MinLines: -1}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.params.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestHashText(t *testing.T) {
	hash1 := HashText("def hello():\n    pass")
	hash2 := HashText("def hello():\n    pass")
	hash3 := HashText("def world():\n    pass")

	if hash1 != hash2 {
		t.Errorf("same text produced different hashes: %s vs %s", hash1, hash2)
	}
	if hash1 == hash3 {
		t.Errorf("different texts produced same hash: %s", hash1)
	}
	if len(hash1) != 16 {
		t.Errorf("hash length = %d, want 16", len(hash1))
	}
}

func TestMakePreview(t *testing.T) {
	text := makeText(50)

	preview := MakePreview(text)
	lines := strings.Split(preview, "\n")
	if len(lines) != PreviewLines {
		t.Errorf("preview has %d lines, want %d", len(lines), PreviewLines)
	}
	if !strings.Contains(preview, "line 1") {
		t.Error("preview should contain the first line")
	}
	if strings.Contains(preview, "line 11") {
		t.Error("preview should not contain line 11")
	}

	short := "only\ntwo"
	if MakePreview(short) != short {
		t.Errorf("short text preview = %q, want unchanged", MakePreview(short))
	}
}
