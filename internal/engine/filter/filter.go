// Package filter narrows a finding list to what a user asked for, pulling in
// findings about classes that block the ones they asked about.
package filter

import (
	"fmt"
	"strings"

	"github.com/gobwas/glob"

	"moduledeps/internal/engine/rules"
)

// Options are the user-facing filters. Empty values match everything.
type Options struct {
	// Class matches as a substring of the report's class, or as a glob
	// when it contains wildcard characters.
	Class string
	// Module matches modules implicated by the report exactly.
	Module string
	// Root matches modules under a build root, e.g. "product" or "//product".
	Root string
	// Team keeps reports of that team, plus unknown-team reports unless
	// OnlyTeam is set.
	Team           string
	OnlyTeam       bool
	AutoActionable bool
	Kinds          []rules.Kind
}

type matcher struct {
	opts      Options
	classGlob glob.Glob
	roots     []string
	kinds     map[rules.Kind]bool
}

func newMatcher(opts Options) (*matcher, error) {
	m := &matcher{opts: opts}
	if strings.ContainsAny(opts.Class, "*?[") {
		g, err := glob.Compile(opts.Class, '.')
		if err != nil {
			return nil, fmt.Errorf("invalid class pattern %q: %w", opts.Class, err)
		}
		m.classGlob = g
	}
	if root := strings.Trim(strings.TrimSpace(opts.Root), "/"); root != "" {
		m.roots = []string{root + "/", "//" + root + "/"}
	}
	if len(opts.Kinds) > 0 {
		m.kinds = make(map[rules.Kind]bool, len(opts.Kinds))
		for _, k := range opts.Kinds {
			m.kinds[k] = true
		}
	}
	return m, nil
}

// direct reports whether r matches the class, module and root filters on
// its own, without help from the closure.
func (m *matcher) direct(r rules.Report) bool {
	if m.opts.Class != "" {
		if m.classGlob != nil {
			if !m.classGlob.Match(r.ForClass) {
				return false
			}
		} else if !strings.Contains(r.ForClass, m.opts.Class) {
			return false
		}
	}
	if m.opts.Module != "" && !r.InModule(m.opts.Module) {
		return false
	}
	if len(m.roots) > 0 && !m.underRoot(r.ForModules) {
		return false
	}
	return true
}

func (m *matcher) underRoot(modules []string) bool {
	for _, mod := range modules {
		for _, prefix := range m.roots {
			if strings.HasPrefix(mod, prefix) {
				return true
			}
		}
	}
	return false
}

// after applies the filters that never take part in the closure.
func (m *matcher) after(r rules.Report) bool {
	if m.opts.Team != "" {
		if r.ForTeam.Known {
			if r.ForTeam.Name != m.opts.Team {
				return false
			}
		} else if m.opts.OnlyTeam {
			return false
		}
	}
	if m.opts.AutoActionable && !r.HasAction() {
		return false
	}
	if m.kinds != nil && !m.kinds[r.Kind] {
		return false
	}
	return true
}

// Apply returns the reports that match opts directly or concern a class in
// the blocking closure of a direct match. Order is preserved.
func Apply(reports []rules.Report, opts Options) ([]rules.Report, error) {
	m, err := newMatcher(opts)
	if err != nil {
		return nil, err
	}

	closed := Closure(reports, m.direct)

	out := make([]rules.Report, 0, len(reports))
	for _, r := range reports {
		if !m.direct(r) && !(r.ForClass != "" && closed[r.ForClass]) {
			continue
		}
		if !m.after(r) {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

// Closure computes the smallest class set S such that the indirect classes
// of every report that matches, or whose class is in S, are in S. Each pass
// either grows S or stops, so it ends after at most one pass per class.
func Closure(reports []rules.Report, matches func(rules.Report) bool) map[string]bool {
	closed := make(map[string]bool)
	for {
		grew := false
		for _, r := range reports {
			if !matches(r) && !closed[r.ForClass] {
				continue
			}
			for _, c := range r.IndirectClasses {
				if !closed[c] {
					closed[c] = true
					grew = true
				}
			}
		}
		if !grew {
			return closed
		}
	}
}
