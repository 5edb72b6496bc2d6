package rules

import (
	"fmt"
	"strings"

	"moduledeps/internal/engine/graph"
	"moduledeps/internal/shared/util"
)

// Check is a pure function from graph state to findings.
type Check struct {
	Name string
	Run  func(g *graph.Graph) []Report
}

// Checks returns the independent structural checks. Eligibility is run
// separately because it can fail.
func Checks() []Check {
	return []Check{
		{Name: "duplicate_ownership", Run: checkDuplicateOwnership},
		{Name: "module_dependencies", Run: checkModuleDependencies},
		{Name: "module_cycles", Run: checkModuleCycles},
		{Name: "break_dependencies", Run: checkBreakDependencies},
		{Name: "already_in_target", Run: checkAlreadyInTarget},
		{Name: "missing_team", Run: checkMissingTeam},
		{Name: "deprecated_modules", Run: checkDeprecatedModules},
		{Name: "target_modules", Run: checkTargetModules},
	}
}

func checkDuplicateOwnership(g *graph.Graph) []Report {
	var out []Report
	for _, mod := range g.Modules() {
		for _, name := range util.SortedStringKeys(mod.Srcs) {
			class := mod.Srcs[name]
			if class.IsExternal() {
				continue
			}
			owner, ok := g.Owner(name)
			if !ok || owner.Name == mod.Name {
				continue
			}
			out = append(out, Report{
				Kind:       Critical,
				Message:    fmt.Sprintf("%s appears in %s and %s", name, owner.Name, mod.Name),
				ForClass:   name,
				ForTeam:    teamOf(g, name),
				ForModules: names(graph.Set(owner.Name, mod.Name)),
			})
		}
	}
	return out
}

func checkModuleDependencies(g *graph.Graph) []Report {
	var out []Report
	for _, mod := range g.Modules() {
		for _, depName := range util.SortedStringKeys(mod.Dependencies) {
			dep, ok := g.Module(depName)
			if !ok || mod.Index < dep.Index {
				continue
			}
			out = append(out, Report{
				Kind:       Critical,
				Message:    fmt.Sprintf("%s depends on %s that is not above it", mod.Name, dep.Name),
				ForModules: names(graph.Set(mod.Name, dep.Name)),
			})
		}
	}
	return out
}

func checkModuleCycles(g *graph.Graph) []Report {
	var out []Report
	for _, cycle := range g.DetectModuleCycles() {
		path := append(append([]string(nil), cycle...), cycle[0])
		out = append(out, Report{
			Kind:       Critical,
			Message:    "module cycle " + strings.Join(path, " -> "),
			ForModules: names(graph.Set(cycle...)),
		})
	}
	return out
}

func checkBreakDependencies(g *graph.Graph) []Report {
	var out []Report
	for _, class := range g.Classes() {
		for _, dep := range util.SortedStringKeys(class.BreakDependenciesOn) {
			if class.Dependencies[dep] {
				continue
			}
			out = append(out, Report{
				Kind:       Critical,
				Message:    fmt.Sprintf("%s has no dependency on %s", class.Name, dep),
				ForClass:   class.Name,
				ForTeam:    class.Team,
				ForModules: ownerNames(g, class.Name),
			})
		}
	}
	return out
}

func checkAlreadyInTarget(g *graph.Graph) []Report {
	var out []Report
	for _, class := range g.Classes() {
		if !class.HasTarget() {
			continue
		}
		owner, ok := g.Owner(class.Name)
		if !ok || owner.Name != class.TargetModule {
			continue
		}
		out = append(out, Report{
			Kind:       AutoAction,
			Message:    fmt.Sprintf("%s is already in its target module %s", class.Name, owner.Name),
			ForClass:   class.Name,
			ForTeam:    class.Team,
			ForModules: []string{owner.Name},
		})
	}
	return out
}

func checkMissingTeam(g *graph.Graph) []Report {
	var out []Report
	for _, class := range g.Classes() {
		if class.Team.Known || class.IsExternal() {
			continue
		}
		out = append(out, Report{
			Kind:       ToDo,
			Message:    fmt.Sprintf("%s is missing team owner", class.Name),
			ForClass:   class.Name,
			ForModules: ownerNames(g, class.Name),
		})
	}
	return out
}

func checkDeprecatedModules(g *graph.Graph) []Report {
	var out []Report
	for _, class := range g.Classes() {
		if class.HasTarget() {
			continue
		}
		owner, ok := g.Owner(class.Name)
		if !ok || !owner.Deprecated {
			continue
		}
		out = append(out, Report{
			Kind:       ToDo,
			Message:    fmt.Sprintf("%s is in deprecated module %s and has no target module", class.Name, owner.Name),
			ForClass:   class.Name,
			ForTeam:    class.Team,
			ForModules: []string{owner.Name},
		})
	}
	return out
}

func checkTargetModules(g *graph.Graph) []Report {
	var out []Report
	for _, class := range g.Classes() {
		if !class.HasTarget() {
			continue
		}
		if _, ok := g.Module(class.TargetModule); ok {
			continue
		}
		out = append(out, Report{
			Kind:       DevAction,
			Message:    fmt.Sprintf("%s target module %s does not exist, create it first", class.Name, class.TargetModule),
			ForClass:   class.Name,
			ForTeam:    class.Team,
			ForModules: ownerNames(g, class.Name),
		})
	}
	return out
}

func teamOf(g *graph.Graph, className string) graph.Team {
	if c, ok := g.Class(className); ok {
		return c.Team
	}
	return graph.Team{}
}

func ownerNames(g *graph.Graph, className string) []string {
	if owner, ok := g.Owner(className); ok {
		return []string{owner.Name}
	}
	return nil
}
