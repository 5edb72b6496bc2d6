package graph

import (
	"fmt"
	"sort"

	"moduledeps/internal/core/errors"
	"moduledeps/internal/shared/util"
)

// Graph is the read-only result of Build.
type Graph struct {
	modules        map[string]*Module
	classes        map[string]*Class
	classModules   map[string]*Module           // class name -> owning module
	classDependees map[string]map[string]bool // class name -> classes depending on it
}

// Build resolves class ownership and reverse dependencies for modules and
// any external classes that live outside every module. It fails when a
// dependency, a break declaration or a module dependency does not resolve.
func Build(modules []*Module, externals []*Class) (*Graph, error) {
	g := &Graph{
		modules:        make(map[string]*Module, len(modules)),
		classes:        make(map[string]*Class),
		classModules:   make(map[string]*Module),
		classDependees: make(map[string]map[string]bool),
	}

	for _, mod := range modules {
		if _, dup := g.modules[mod.Name]; dup {
			return nil, errors.AddContext(
				errors.New(errors.CodeValidationError, "module declared twice"),
				errors.CtxModule, mod.Name)
		}
		g.modules[mod.Name] = mod
	}

	// Highest index wins, which makes ownership independent of the order
	// modules are visited in.
	for _, mod := range modules {
		for name := range mod.Srcs {
			owner, owned := g.classModules[name]
			if !owned || owner.Index < mod.Index || (owner.Index == mod.Index && owner.Name < mod.Name) {
				g.classModules[name] = mod
			}
		}
	}
	for name, owner := range g.classModules {
		g.classes[name] = owner.Srcs[name]
	}
	for _, ext := range externals {
		if _, known := g.classes[ext.Name]; known {
			continue
		}
		g.classes[ext.Name] = ext
	}

	for _, name := range util.SortedStringKeys(g.classes) {
		class := g.classes[name]
		for dep := range class.Dependencies {
			if dep == name {
				continue
			}
			if _, ok := g.classes[dep]; !ok {
				return nil, unresolved("dependency", name, dep)
			}
			if g.classDependees[dep] == nil {
				g.classDependees[dep] = make(map[string]bool)
			}
			g.classDependees[dep][name] = true
		}
		for dep := range class.BreakDependenciesOn {
			if _, ok := g.classes[dep]; !ok {
				return nil, unresolved("break dependency", name, dep)
			}
		}
	}

	for _, mod := range modules {
		for dep := range mod.Dependencies {
			if _, ok := g.modules[dep]; !ok {
				return nil, errors.AddContext(
					errors.Newf(errors.CodeNotFound, "module %s depends on unknown module %s", mod.Name, dep),
					errors.CtxModule, dep)
			}
		}
	}

	return g, nil
}

func unresolved(kind, from, name string) error {
	err := errors.New(errors.CodeNotFound, fmt.Sprintf("%s %s of %s does not resolve to a known class", kind, name, from))
	return errors.AddContext(err, errors.CtxClass, name)
}

func (g *Graph) Module(name string) (*Module, bool) {
	m, ok := g.modules[name]
	return m, ok
}

func (g *Graph) Class(name string) (*Class, bool) {
	c, ok := g.classes[name]
	return c, ok
}

// Owner returns the module that owns the class after duplicate resolution.
func (g *Graph) Owner(className string) (*Module, bool) {
	m, ok := g.classModules[className]
	return m, ok
}

// Dependees returns the sorted names of classes that depend on className.
func (g *Graph) Dependees(className string) []string {
	return util.SortedStringKeys(g.classDependees[className])
}

// Modules returns all modules sorted by name.
func (g *Graph) Modules() []*Module {
	out := make([]*Module, 0, len(g.modules))
	for _, name := range util.SortedStringKeys(g.modules) {
		out = append(out, g.modules[name])
	}
	return out
}

// Classes returns all classes, owned and external, sorted by name.
func (g *Graph) Classes() []*Class {
	out := make([]*Class, 0, len(g.classes))
	for _, name := range util.SortedStringKeys(g.classes) {
		out = append(out, g.classes[name])
	}
	return out
}

func (g *Graph) ModuleCount() int {
	return len(g.modules)
}

func (g *Graph) ClassCount() int {
	return len(g.classes)
}

// EdgeCount is the number of class dependency edges.
func (g *Graph) EdgeCount() int {
	n := 0
	for _, deps := range g.classDependees {
		n += len(deps)
	}
	return n
}

// SortModules orders modules by index, then name.
func SortModules(mods []*Module) {
	sort.Slice(mods, func(i, j int) bool {
		if mods[i].Index == mods[j].Index {
			return mods[i].Name < mods[j].Name
		}
		return mods[i].Index < mods[j].Index
	})
}
