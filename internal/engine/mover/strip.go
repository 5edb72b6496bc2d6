package mover

import (
	"regexp"
	"strings"
)

var identifierRe = regexp.MustCompile(`[A-Za-z_$][A-Za-z0-9_$]*`)

// StripAnnotation removes every use of the named annotation from a Java
// source, its import, and any import that only the removed annotation
// referenced (e.g. the module constant or its enclosing type).
func StripAnnotation(source, annotation string) string {
	lines := strings.SplitAfter(source, "\n")

	kept := make([]string, 0, len(lines))
	removedTokens := make(map[string]bool)
	for i := 0; i < len(lines); i++ {
		trimmed := strings.TrimSpace(lines[i])
		if !isAnnotationUse(trimmed, annotation) {
			kept = append(kept, lines[i])
			continue
		}
		// The argument list may continue on following lines.
		depth := strings.Count(trimmed, "(") - strings.Count(trimmed, ")")
		collectTokens(trimmed, removedTokens)
		for depth > 0 && i+1 < len(lines) {
			i++
			next := strings.TrimSpace(lines[i])
			depth += strings.Count(next, "(") - strings.Count(next, ")")
			collectTokens(next, removedTokens)
		}
	}

	var body strings.Builder
	for _, line := range kept {
		if !isImport(strings.TrimSpace(line)) {
			body.WriteString(line)
		}
	}
	remaining := make(map[string]bool)
	for _, tok := range identifierRe.FindAllString(body.String(), -1) {
		remaining[tok] = true
	}

	var out strings.Builder
	for _, line := range kept {
		trimmed := strings.TrimSpace(line)
		if isImport(trimmed) {
			imported := importedName(trimmed)
			if imported == annotation || (removedTokens[imported] && !remaining[imported]) {
				continue
			}
		}
		out.WriteString(line)
	}
	return out.String()
}

func isAnnotationUse(trimmed, annotation string) bool {
	if !strings.HasPrefix(trimmed, "@") {
		return false
	}
	name := trimmed[1:]
	if idx := strings.IndexAny(name, "( \t"); idx >= 0 {
		name = name[:idx]
	}
	if idx := strings.LastIndex(name, "."); idx >= 0 {
		name = name[idx+1:]
	}
	return name == annotation
}

func collectTokens(line string, into map[string]bool) {
	for _, tok := range identifierRe.FindAllString(line, -1) {
		into[tok] = true
	}
}

func isImport(trimmed string) bool {
	return strings.HasPrefix(trimmed, "import ") && strings.HasSuffix(trimmed, ";")
}

// importedName is the last segment of an import: the type for a type
// import, the member for a static import.
func importedName(trimmed string) string {
	path := strings.TrimSuffix(strings.TrimPrefix(trimmed, "import "), ";")
	path = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(path), "static "))
	if idx := strings.LastIndex(path, "."); idx >= 0 {
		return path[idx+1:]
	}
	return path
}
