package discovery

import (
	"os"
	"path/filepath"
	"sort"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("MkdirAll() error: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile() error: %v", err)
	}
}

func TestListSourceFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "main.py"), "print('hello')")
	writeFile(t, filepath.Join(root, "app.ts"), "console.log('hi')")
	writeFile(t, filepath.Join(root, "notes.txt"), "should not appear")
	writeFile(t, filepath.Join(root, "node_modules", "lib.js"), "module.exports = {}")
	writeFile(t, filepath.Join(root, "src", "util.py"), "def f():\n    pass")
	writeFile(t, filepath.Join(root, "bundle.min.js"), "!function(){}")
	writeFile(t, filepath.Join(root, "package-lock.json"), "{}")

	files, err := ListSourceFiles(root, Options{
		IncludeExts: []string{".py", ".ts", ".js", "json"},
		ExcludeDirs: []string{"node_modules"},
	})
	if err != nil {
		t.Fatalf("ListSourceFiles() error: %v", err)
	}

	paths := make([]string, len(files))
	for i, f := range files {
		paths[i] = f.Path
	}
	want := []string{"app.ts", "main.py", "src/util.py"}
	if len(paths) != len(want) {
		t.Fatalf("got %v, want %v", paths, want)
	}
	for i := range want {
		if paths[i] != want[i] {
			t.Errorf("file %d = %s, want %s (sorted)", i, paths[i], want[i])
		}
	}
	if !sort.StringsAreSorted(paths) {
		t.Error("output is not sorted")
	}

	for _, f := range files {
		if f.Path == "main.py" && f.Lang != "python" {
			t.Errorf("main.py lang = %s, want python", f.Lang)
		}
	}
}

func TestListSourceFilesExcludeGlobs(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "keep.go"), "package main")
	writeFile(t, filepath.Join(root, "gen", "api.pb.go"), "package gen")
	writeFile(t, filepath.Join(root, "handler_test.go"), "package main")

	files, err := ListSourceFiles(root, Options{
		IncludeExts: []string{".go"},
		Exclude:     []string{"**/*.pb.go", "*_test.go"},
	})
	if err != nil {
		t.Fatalf("ListSourceFiles() error: %v", err)
	}
	if len(files) != 1 || files[0].Path != "keep.go" {
		t.Errorf("got %v, want only keep.go", files)
	}
}

func TestListSourceFilesBadRoot(t *testing.T) {
	if _, err := ListSourceFiles(filepath.Join(t.TempDir(), "missing"), Options{}); err == nil {
		t.Error("missing root should fail")
	}

	file := filepath.Join(t.TempDir(), "afile")
	writeFile(t, file, "x")
	if _, err := ListSourceFiles(file, Options{}); err == nil {
		t.Error("root that is a file should fail")
	}
}

func TestDetectLang(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"main.py", "python"},
		{"app.ts", "typescript"},
		{"server.js", "javascript"},
		{"main.go", "go"},
		{"README.md", "markdown"},
		{"unknown.xyz", "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := DetectLang(tt.path); got != tt.want {
				t.Errorf("DetectLang(%q) = %s, want %s", tt.path, got, tt.want)
			}
		})
	}
}

func TestReadTextFile(t *testing.T) {
	dir := t.TempDir()

	good := filepath.Join(dir, "good.py")
	writeFile(t, good, "def hello():\n    return 'world'")
	text, err := ReadTextFile(good, 1<<20)
	if err != nil {
		t.Fatalf("ReadTextFile() error: %v", err)
	}
	if text == "" || text[:3] != "def" {
		t.Errorf("unexpected content: %q", text)
	}

	binary := filepath.Join(dir, "blob.py")
	if err := os.WriteFile(binary, []byte{0x00, 0x01, 0x02}, 0o644); err != nil {
		t.Fatalf("WriteFile() error: %v", err)
	}
	if _, err := ReadTextFile(binary, 1<<20); err == nil {
		t.Error("binary file should fail")
	}

	big := filepath.Join(dir, "big.py")
	writeFile(t, big, "x = 1\n")
	if _, err := ReadTextFile(big, 3); err == nil {
		t.Error("oversized file should fail")
	}

	if _, err := ReadTextFile(filepath.Join(dir, "missing.py"), 1<<20); err == nil {
		t.Error("missing file should fail")
	}
}
