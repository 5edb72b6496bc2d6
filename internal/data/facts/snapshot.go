// Package facts reads and writes the ingested build facts as a YAML snapshot,
// so analysis can run without a build tool on the machine.
package facts

import (
	"bytes"
	"context"
	"io"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"moduledeps/internal/core/errors"
	"moduledeps/internal/engine/graph"
	"moduledeps/internal/shared/util"
)

type Snapshot struct {
	Modules   []Module `yaml:"modules"`
	Externals []Class  `yaml:"externals,omitempty"`
}

type Module struct {
	Name         string   `yaml:"name"`
	Index        float64  `yaml:"index"`
	Directory    string   `yaml:"directory,omitempty"`
	Deprecated   bool     `yaml:"deprecated,omitempty"`
	Dependencies []string `yaml:"dependencies,omitempty"`
	Classes      []Class  `yaml:"classes,omitempty"`
}

type Class struct {
	Name     string `yaml:"name"`
	Location string `yaml:"location,omitempty"`
	// RelativeLocation defaults to Location with the module directory
	// stripped.
	RelativeLocation    string   `yaml:"relative_location,omitempty"`
	Dependencies        []string `yaml:"dependencies,omitempty"`
	BreakDependenciesOn []string `yaml:"break_dependencies_on,omitempty"`
	TargetModule        string   `yaml:"target_module,omitempty"`
	Team                string   `yaml:"team,omitempty"`
}

// Decode reads a snapshot. Unknown keys are rejected so that typos in
// hand-written snapshots surface instead of silently dropping facts.
func Decode(r io.Reader) (*Snapshot, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var snap Snapshot
	if err := dec.Decode(&snap); err != nil {
		if err == io.EOF {
			return &snap, nil
		}
		return nil, errors.Wrap(err, errors.CodeValidationError, "decode facts snapshot")
	}
	return &snap, nil
}

func Encode(w io.Writer, snap *Snapshot) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(snap); err != nil {
		return errors.Wrap(err, errors.CodeInternal, "encode facts snapshot")
	}
	return enc.Close()
}

func Load(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.AddContext(errors.Wrap(err, errors.CodeIO, "read facts snapshot"), errors.CtxPath, path)
	}
	snap, err := Decode(bytes.NewReader(data))
	if err != nil {
		return nil, errors.AddContext(err, errors.CtxPath, path)
	}
	return snap, nil
}

// File reads facts from a snapshot on disk on every call.
type File string

func (f File) Facts(ctx context.Context) (*Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return Load(string(f))
}

// Save writes snap to path, creating parent directories as needed.
func Save(path string, snap *Snapshot) error {
	var buf bytes.Buffer
	if err := Encode(&buf, snap); err != nil {
		return err
	}
	if err := util.WriteFileWithDirs(path, buf.Bytes(), 0o644); err != nil {
		return errors.AddContext(errors.Wrap(err, errors.CodeIO, "write facts snapshot"), errors.CtxPath, path)
	}
	return nil
}

// Graph converts the snapshot to entities and builds the dependency graph.
func (s *Snapshot) Graph() (*graph.Graph, error) {
	modules, externals := s.Entities()
	return graph.Build(modules, externals)
}

// Entities converts the snapshot to graph entities without building.
func (s *Snapshot) Entities() ([]*graph.Module, []*graph.Class) {
	modules := make([]*graph.Module, 0, len(s.Modules))
	for _, m := range s.Modules {
		mod := &graph.Module{
			Name:         m.Name,
			Index:        m.Index,
			Directory:    m.Directory,
			Deprecated:   m.Deprecated,
			Dependencies: graph.Set(m.Dependencies...),
			Srcs:         make(map[string]*graph.Class, len(m.Classes)),
		}
		for _, c := range m.Classes {
			mod.Srcs[c.Name] = c.entity(m.Directory)
		}
		modules = append(modules, mod)
	}

	externals := make([]*graph.Class, 0, len(s.Externals))
	for _, c := range s.Externals {
		ext := c.entity("")
		if ext.Location == "" {
			ext.Location = graph.NotApplicable
		}
		externals = append(externals, ext)
	}
	return modules, externals
}

func relativeTo(location, moduleDir string) string {
	if moduleDir == "" {
		return location
	}
	return strings.TrimPrefix(location, strings.TrimSuffix(moduleDir, "/")+"/")
}

func (c Class) entity(moduleDir string) *graph.Class {
	rel := c.RelativeLocation
	if rel == "" {
		rel = relativeTo(c.Location, moduleDir)
	}
	return &graph.Class{
		Name:                c.Name,
		Location:            c.Location,
		RelativeLocation:    rel,
		Dependencies:        graph.Set(c.Dependencies...),
		BreakDependenciesOn: graph.Set(c.BreakDependenciesOn...),
		TargetModule:        c.TargetModule,
		Team:                graph.KnownTeam(c.Team),
	}
}

// FromEntities produces a deterministic snapshot of modules and externals.
func FromEntities(modules []*graph.Module, externals []*graph.Class) *Snapshot {
	snap := &Snapshot{}
	sorted := append([]*graph.Module(nil), modules...)
	graph.SortModules(sorted)
	for _, m := range sorted {
		out := Module{
			Name:         m.Name,
			Index:        m.Index,
			Directory:    m.Directory,
			Deprecated:   m.Deprecated,
			Dependencies: sortedKeys(m.Dependencies),
		}
		for _, name := range util.SortedStringKeys(m.Srcs) {
			out.Classes = append(out.Classes, fromClass(m.Srcs[name], m.Directory))
		}
		snap.Modules = append(snap.Modules, out)
	}

	ext := append([]*graph.Class(nil), externals...)
	sort.Slice(ext, func(i, j int) bool { return ext[i].Name < ext[j].Name })
	for _, c := range ext {
		snap.Externals = append(snap.Externals, fromClass(c, ""))
	}
	return snap
}

func fromClass(c *graph.Class, moduleDir string) Class {
	out := Class{
		Name:                c.Name,
		Location:            c.Location,
		Dependencies:        sortedKeys(c.Dependencies),
		BreakDependenciesOn: sortedKeys(c.BreakDependenciesOn),
		TargetModule:        c.TargetModule,
	}
	if c.RelativeLocation != relativeTo(c.Location, moduleDir) {
		out.RelativeLocation = c.RelativeLocation
	}
	if c.Team.Known {
		out.Team = c.Team.Name
	}
	return out
}

func sortedKeys(set map[string]bool) []string {
	if len(set) == 0 {
		return nil
	}
	return util.SortedStringKeys(set)
}
