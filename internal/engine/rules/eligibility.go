package rules

import (
	"fmt"
	"sort"
	"strings"

	"moduledeps/internal/core/errors"
	"moduledeps/internal/engine/graph"
)

type direction int

const (
	promotion direction = iota
	demotion
)

// move accumulates the outcome of simulating one class relocation.
type move struct {
	class  *graph.Class
	owner  *graph.Module // nil when the class has no source module yet
	target *graph.Module

	conflicts []Report
	notReady  map[string]string // blocking class -> module it must reach first
}

// checkEligibility simulates moving every class with a resolvable target
// module. Promotion goes to an equal or higher index and looks at
// dependencies; demotion goes to a lower index and looks at dependees.
func checkEligibility(g *graph.Graph) ([]Report, error) {
	var out []Report
	for _, class := range g.Classes() {
		if !class.HasTarget() {
			continue
		}
		target, ok := g.Module(class.TargetModule)
		if !ok {
			continue
		}
		owner, owned := g.Owner(class.Name)
		if owned && owner.Name == target.Name {
			continue
		}

		m := &move{class: class, target: target, notReady: make(map[string]string)}
		if owned {
			m.owner = owner
		}

		var err error
		if !owned || owner.Index <= target.Index {
			err = m.simulate(g, promotion)
		} else {
			err = m.simulate(g, demotion)
		}
		if err != nil {
			return nil, err
		}
		out = append(out, m.resolve()...)
	}
	return out, nil
}

func (m *move) simulate(g *graph.Graph, dir direction) error {
	var related []string
	if dir == promotion {
		related = names(m.class.Dependencies)
	} else {
		related = g.Dependees(m.class.Name)
	}

	for _, name := range related {
		if name == m.class.Name {
			continue
		}
		other, ok := g.Class(name)
		if !ok {
			return errors.AddContext(
				errors.Newf(errors.CodeNotFound, "class %s referenced by %s is not in the graph", name, m.class.Name),
				errors.CtxClass, name)
		}
		effective, current, err := placement(g, other)
		if err != nil {
			return err
		}
		if effective == nil {
			// External class without a home; visible from everywhere.
			continue
		}

		if dir == promotion {
			if effective.Name != m.target.Name && !m.target.DependsOn(effective.Name) {
				m.conflict(other, effective, m.class.BreakDependenciesOn[other.Name], dir)
				continue
			}
			if current == nil || current.Index < m.target.Index {
				m.notReady[other.Name] = effective.Name
			}
			continue
		}

		if effective.Name != m.target.Name && !effective.DependsOn(m.target.Name) {
			m.conflict(other, effective, other.BreakDependenciesOn[m.class.Name], dir)
			continue
		}
		if current == nil || current.Index > m.target.Index {
			m.notReady[other.Name] = effective.Name
		}
	}
	return nil
}

// placement returns where a class is expected to end up and where it is
// now. A declared target wins over the current owner.
func placement(g *graph.Graph, c *graph.Class) (effective, current *graph.Module, err error) {
	if owner, ok := g.Owner(c.Name); ok {
		current = owner
	}
	if !c.HasTarget() {
		return current, current, nil
	}
	target, ok := g.Module(c.TargetModule)
	if !ok {
		err = errors.New(errors.CodeNotFound, fmt.Sprintf("target module %s of %s does not exist", c.TargetModule, c.Name))
		err = errors.AddContext(err, errors.CtxModule, c.TargetModule)
		return nil, nil, errors.AddContext(err, errors.CtxClass, c.Name)
	}
	return target, current, nil
}

func (m *move) conflict(other *graph.Class, effective *graph.Module, declaredBreak bool, dir direction) {
	r := Report{
		ForClass:        m.class.Name,
		ForTeam:         m.class.Team,
		IndirectClasses: []string{other.Name},
		ForModules:      m.modules(effective.Name),
	}
	switch {
	case declaredBreak && dir == promotion:
		r.Kind = DevAction
		r.Message = fmt.Sprintf("%s should break dependency on %s to go to %s", m.class.Name, other.Name, m.target.Name)
	case declaredBreak:
		r.Kind = DevAction
		r.Message = fmt.Sprintf("%s should break dependency on %s for it to go to %s", other.Name, m.class.Name, m.target.Name)
	case dir == promotion:
		r.Kind = Error
		r.Message = fmt.Sprintf("%s cannot go to %s: it depends on %s in %s", m.class.Name, m.target.Name, other.Name, effective.Name)
	default:
		r.Kind = Error
		r.Message = fmt.Sprintf("%s cannot go to %s: %s in %s depends on it", m.class.Name, m.target.Name, other.Name, effective.Name)
	}
	m.conflicts = append(m.conflicts, r)
}

func (m *move) resolve() []Report {
	if len(m.conflicts) > 0 {
		return m.conflicts
	}

	if len(m.notReady) == 0 {
		r := Report{
			ForClass:   m.class.Name,
			ForTeam:    m.class.Team,
			ForModules: m.modules(),
		}
		if m.owner != nil {
			r.Kind = AutoAction
			r.Message = fmt.Sprintf("%s is ready to go to %s", m.class.Name, m.target.Name)
			r.Action = MoveCommand(m.owner.Name, m.class.RelativeLocation, m.target.Name)
		} else {
			r.Kind = DevAction
			r.Message = fmt.Sprintf("%s is ready to be created in %s", m.class.Name, m.target.Name)
		}
		return []Report{r}
	}

	blockers := make([]string, 0, len(m.notReady))
	for name := range m.notReady {
		blockers = append(blockers, name)
	}
	sort.Strings(blockers)

	pairs := make([]string, 0, len(blockers))
	extra := make([]string, 0, len(blockers))
	for _, name := range blockers {
		pairs = append(pairs, fmt.Sprintf("%s to %s", name, m.notReady[name]))
		extra = append(extra, m.notReady[name])
	}
	indirect := append(append([]string(nil), blockers...), m.class.Name)
	sort.Strings(indirect)

	return []Report{{
		Kind:            Blocked,
		Message:         fmt.Sprintf("%s is blocked from going to %s: %s", m.class.Name, m.target.Name, strings.Join(pairs, ", ")),
		ForClass:        m.class.Name,
		ForTeam:         m.class.Team,
		IndirectClasses: indirect,
		ForModules:      m.modules(extra...),
	}}
}

func (m *move) modules(extra ...string) []string {
	set := graph.Set(extra...)
	set[m.target.Name] = true
	if m.owner != nil {
		set[m.owner.Name] = true
	}
	return names(set)
}
