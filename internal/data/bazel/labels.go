package bazel

import (
	"path"
	"strconv"
	"strings"
)

// Label is a parsed target label such as //400-rest:module.
type Label struct {
	Package string
	Name    string
}

// ParseLabel accepts //pkg:name, //pkg (name defaults to the last package
// segment) and an optional @repo prefix.
func ParseLabel(s string) (Label, bool) {
	s = strings.TrimSpace(s)
	if idx := strings.Index(s, "//"); idx >= 0 {
		s = s[idx+2:]
	} else {
		return Label{}, false
	}
	pkg, name, found := strings.Cut(s, ":")
	if !found {
		name = path.Base(pkg)
	}
	if name == "" {
		return Label{}, false
	}
	return Label{Package: pkg, Name: name}, true
}

func (l Label) String() string {
	return "//" + l.Package + ":" + l.Name
}

// SourcePath is the workspace-relative path of a file label.
func (l Label) SourcePath() string {
	if l.Package == "" {
		return l.Name
	}
	return l.Package + "/" + l.Name
}

// ModuleIndex derives the layering index of a module label. The leading
// number of the first package segment is the index (400-rest gives 400).
// Test variants sit half a step below their main module, since they depend
// on it. Labels without a number get def.
func ModuleIndex(label string, testSuffixes []string, def float64) float64 {
	l, ok := ParseLabel(label)
	if !ok {
		return def
	}
	first, _, _ := strings.Cut(l.Package, "/")
	digits := 0
	for digits < len(first) && first[digits] >= '0' && first[digits] <= '9' {
		digits++
	}
	if digits == 0 {
		return def
	}
	index, err := strconv.ParseFloat(first[:digits], 64)
	if err != nil {
		return def
	}
	for _, suffix := range testSuffixes {
		if suffix != "" && strings.HasSuffix(l.Name, suffix) {
			return index - 0.5
		}
	}
	return index
}

// ClassName maps a source path to its fully qualified class name using the
// first matching source root, e.g. src/main/java/.
func ClassName(sourcePath string, sourceRoots []string) (string, bool) {
	if !strings.HasSuffix(sourcePath, ".java") {
		return "", false
	}
	for _, root := range sourceRoots {
		root = strings.Trim(root, "/") + "/"
		idx := strings.Index(sourcePath, root)
		if idx < 0 {
			continue
		}
		rel := strings.TrimSuffix(sourcePath[idx+len(root):], ".java")
		if rel == "" {
			return "", false
		}
		return strings.ReplaceAll(rel, "/", "."), true
	}
	return "", false
}

// OuterClass strips nested class suffixes: a.B$C becomes a.B.
func OuterClass(name string) string {
	if idx := strings.Index(name, "$"); idx >= 0 {
		return name[:idx]
	}
	return name
}
