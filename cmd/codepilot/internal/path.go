package internal

import (
	"os/exec"
	"path/filepath"
	"strings"
)

// ResolveRepoRoot resolves the absolute path of the repository root.
// Inside a Git checkout the Git top level wins, so running from a
// subdirectory indexes the whole repository.
func ResolveRepoRoot(repoPath string) (string, error) {
	root := repoPath
	if root == "" {
		root = "."
	}

	absPath, err := filepath.Abs(root)
	if err != nil {
		return "", err
	}

	if gitRoot := gitTopLevel(absPath); gitRoot != "" {
		absPath = gitRoot
	}

	if resolved, err := filepath.EvalSymlinks(absPath); err == nil {
		absPath = resolved
	}

	return absPath, nil
}

func gitTopLevel(dir string) string {
	cmd := exec.Command("git", "rev-parse", "--show-toplevel")
	cmd.Dir = dir
	output, err := cmd.Output()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(output))
}
