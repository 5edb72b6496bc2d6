package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDetectWorkspaceRoot(t *testing.T) {
	cases := []struct {
		name   string
		marker string
	}{
		{name: "Workspace", marker: "WORKSPACE"},
		{name: "WorkspaceBazel", marker: "WORKSPACE.bazel"},
		{name: "Bzlmod", marker: "MODULE.bazel"},
		{name: "ConfigFile", marker: FileName},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			root := t.TempDir()
			if err := os.WriteFile(filepath.Join(root, tc.marker), nil, 0o644); err != nil {
				t.Fatal(err)
			}
			nested := filepath.Join(root, "400-rest", "src", "main")
			if err := os.MkdirAll(nested, 0o755); err != nil {
				t.Fatal(err)
			}

			got, err := DetectWorkspaceRoot(nested)
			if err != nil {
				t.Fatal(err)
			}
			if got != filepath.Clean(root) {
				t.Fatalf("expected root %q, got %q", root, got)
			}
		})
	}
}

func TestDetectWorkspaceRoot_FromFile(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "WORKSPACE"), nil, 0o644); err != nil {
		t.Fatal(err)
	}
	file := filepath.Join(root, "BUILD")
	if err := os.WriteFile(file, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	got, err := DetectWorkspaceRoot(file)
	if err != nil {
		t.Fatal(err)
	}
	if got != filepath.Clean(root) {
		t.Fatalf("expected root %q, got %q", root, got)
	}
}

func TestResolveRelative(t *testing.T) {
	base := filepath.FromSlash("/repo")
	abs := filepath.FromSlash("/abs/facts.yaml")
	if got := ResolveRelative(base, "facts.yaml"); got != filepath.Join(base, "facts.yaml") {
		t.Fatalf("unexpected relative resolution %q", got)
	}
	if got := ResolveRelative(base, abs); got != abs {
		t.Fatalf("absolute path should be kept, got %q", got)
	}
	if got := ResolveRelative(base, "  "); got != base {
		t.Fatalf("empty value should resolve to base, got %q", got)
	}
}
