package config

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// workspaceMarkers identify a workspace root, checked in order at each
// directory level.
var workspaceMarkers = []string{
	"WORKSPACE",
	"WORKSPACE.bazel",
	"MODULE.bazel",
	FileName,
}

// WorkspaceRoot is the root discovered from the working directory, resolved
// once per process.
var WorkspaceRoot = sync.OnceValues(func() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return DetectWorkspaceRoot(cwd)
})

func ResolveRelative(base, value string) string {
	raw := strings.TrimSpace(value)
	if raw == "" {
		return filepath.Clean(base)
	}
	if filepath.IsAbs(raw) {
		return filepath.Clean(raw)
	}
	return filepath.Clean(filepath.Join(base, raw))
}

// DetectWorkspaceRoot walks up from start to the first directory holding a
// workspace marker. When none is found start itself is returned.
func DetectWorkspaceRoot(start string) (string, error) {
	abs, err := filepath.Abs(start)
	if err != nil {
		return "", err
	}
	root := abs
	if info, err := os.Stat(abs); err == nil && !info.IsDir() {
		root = filepath.Dir(abs)
	}

	for dir := root; ; {
		for _, marker := range workspaceMarkers {
			if _, err := os.Stat(filepath.Join(dir, marker)); err == nil {
				return filepath.Clean(dir), nil
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return filepath.Clean(root), nil
}
