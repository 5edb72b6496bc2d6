// Package bazel gathers module and class facts from a Bazel workspace:
// module targets and their sources from `bazel query`, class-level edges
// from `jdeps`, and planning annotations from the sources themselves.
package bazel

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gobwas/glob"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"moduledeps/internal/core/errors"
	"moduledeps/internal/core/ports"
	"moduledeps/internal/data/facts"
	"moduledeps/internal/engine/graph"
	"moduledeps/internal/shared/observability"
	"moduledeps/internal/shared/util"
)

// DefaultModuleQuery selects every target named "module".
const DefaultModuleQuery = `attr(name, "^module$", //...)`

func DefaultSourceRoots() []string {
	return []string{"src/main/java", "src/test/java", "src/java"}
}

type Options struct {
	Workspace   string
	Binary      string
	Jdeps       string
	ModuleQuery string
	SourceRoots []string
	// TestSuffixes mark test variants of a module by target name.
	TestSuffixes   []string
	DefaultIndex   float64
	IndexOverrides map[string]float64
	// Deprecated, Exclude and Externals are glob patterns. The first two
	// match module labels, Externals matches class names that are kept as
	// dependencies although no module owns them.
	Deprecated []string
	Exclude    []string
	Externals  []string
	Workers    int
	// Rate limits subprocess starts per second; zero disables limiting.
	Rate  float64
	Burst int
}

// Ingester implements ports.FactSource over a Bazel workspace.
type Ingester struct {
	opts      Options
	run       Runner
	extractor ports.AnnotationExtractor
	limiter   *util.Limiter

	deprecated []glob.Glob
	exclude    []glob.Glob
	externals  []glob.Glob
}

var _ ports.FactSource = (*Ingester)(nil)

type moduleFacts struct {
	module *graph.Module
	edges  map[string]map[string]bool
}

func NewIngester(opts Options, run Runner, extractor ports.AnnotationExtractor) (*Ingester, error) {
	if run == nil {
		run = ExecRunner
	}
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	if opts.Binary == "" {
		opts.Binary = "bazel"
	}
	if opts.Jdeps == "" {
		opts.Jdeps = "jdeps"
	}
	if opts.ModuleQuery == "" {
		opts.ModuleQuery = DefaultModuleQuery
	}
	if len(opts.SourceRoots) == 0 {
		opts.SourceRoots = DefaultSourceRoots()
	}
	in := &Ingester{opts: opts, run: run, extractor: extractor}
	if opts.Rate > 0 {
		burst := opts.Burst
		if burst <= 0 {
			burst = opts.Workers
		}
		in.limiter = util.NewLimiter(opts.Rate, burst)
	}

	var err error
	if in.deprecated, err = compileAll(opts.Deprecated, '/'); err != nil {
		return nil, err
	}
	if in.exclude, err = compileAll(opts.Exclude, '/'); err != nil {
		return nil, err
	}
	if in.externals, err = compileAll(opts.Externals, '.'); err != nil {
		return nil, err
	}
	return in, nil
}

func compileAll(patterns []string, sep rune) ([]glob.Glob, error) {
	out := make([]glob.Glob, 0, len(patterns))
	for _, p := range patterns {
		g, err := glob.Compile(p, sep)
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeValidationError, fmt.Sprintf("invalid pattern %q", p))
		}
		out = append(out, g)
	}
	return out, nil
}

func matchAny(globs []glob.Glob, s string) bool {
	for _, g := range globs {
		if g.Match(s) {
			return true
		}
	}
	return false
}

// Facts queries the workspace. Modules are gathered in parallel and merged
// once every module is done; any failure aborts the whole ingestion.
func (in *Ingester) Facts(ctx context.Context) (*facts.Snapshot, error) {
	ctx, span := observability.Tracer.Start(ctx, "bazel.Facts")
	defer span.End()
	started := time.Now()
	defer func() {
		observability.AnalysisDuration.WithLabelValues("ingest").Observe(time.Since(started).Seconds())
	}()

	out, err := in.exec(ctx, in.opts.Binary, "query", "--output=label", in.opts.ModuleQuery)
	if err != nil {
		return nil, errors.AddContext(err, errors.CtxOperation, "list modules")
	}
	var labels []string
	moduleSet := make(map[string]bool)
	for _, line := range lines(out) {
		l, ok := ParseLabel(line)
		if !ok || matchAny(in.exclude, l.String()) {
			continue
		}
		if !moduleSet[l.String()] {
			moduleSet[l.String()] = true
			labels = append(labels, l.String())
		}
	}
	span.SetAttributes(attribute.Int("modules", len(labels)))
	slog.Debug("modules found", "count", len(labels))

	binDir := sync.OnceValues(func() (string, error) {
		out, err := in.exec(ctx, in.opts.Binary, "info", "bazel-bin")
		if err != nil {
			return "", errors.AddContext(err, errors.CtxOperation, "locate bazel-bin")
		}
		return strings.TrimSpace(string(out)), nil
	})

	results := make([]moduleFacts, len(labels))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(in.opts.Workers)
	for i, label := range labels {
		g.Go(func() error {
			mf, err := in.module(gctx, label, moduleSet, binDir)
			if err != nil {
				return errors.AddContext(err, errors.CtxModule, label)
			}
			results[i] = mf
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	modules, externals := in.merge(results)
	return facts.FromEntities(modules, externals), nil
}

func (in *Ingester) module(ctx context.Context, label string, moduleSet map[string]bool, binDir func() (string, error)) (moduleFacts, error) {
	ctx, span := observability.Tracer.Start(ctx, "bazel.module", trace.WithAttributes(attribute.String("module", label)))
	defer span.End()

	l, _ := ParseLabel(label)
	index, ok := in.opts.IndexOverrides[label]
	if !ok {
		index = ModuleIndex(label, in.opts.TestSuffixes, in.opts.DefaultIndex)
	}
	mod := &graph.Module{
		Name:         label,
		Index:        index,
		Directory:    l.Package,
		Deprecated:   matchAny(in.deprecated, label),
		Srcs:         make(map[string]*graph.Class),
		Dependencies: make(map[string]bool),
	}

	srcs, err := in.exec(ctx, in.opts.Binary, "query", "--output=label", fmt.Sprintf("labels(srcs, %s)", label))
	if err != nil {
		return moduleFacts{}, errors.AddContext(err, errors.CtxOperation, "list sources")
	}
	for _, line := range lines(srcs) {
		src, ok := ParseLabel(line)
		if !ok {
			continue
		}
		location := src.SourcePath()
		name, ok := ClassName(location, in.opts.SourceRoots)
		if !ok {
			continue
		}
		class, err := in.class(name, location, l.Package)
		if err != nil {
			return moduleFacts{}, err
		}
		mod.Srcs[name] = class
	}

	deps, err := in.exec(ctx, in.opts.Binary, "query", "--output=label", fmt.Sprintf("deps(%s)", label))
	if err != nil {
		return moduleFacts{}, errors.AddContext(err, errors.CtxOperation, "list module dependencies")
	}
	for _, line := range lines(deps) {
		dep, ok := ParseLabel(line)
		if ok && dep.String() != label && moduleSet[dep.String()] {
			mod.Dependencies[dep.String()] = true
		}
	}

	mf := moduleFacts{module: mod}
	if len(mod.Srcs) == 0 {
		return mf, nil
	}
	bin, err := binDir()
	if err != nil {
		return moduleFacts{}, err
	}
	jar := filepath.Join(bin, filepath.FromSlash(l.Package), "lib"+l.Name+".jar")
	out, err := in.exec(ctx, in.opts.Jdeps, "-verbose:class", jar)
	if err != nil {
		return moduleFacts{}, errors.AddContext(err, errors.CtxPath, jar)
	}
	mf.edges = ParseJdeps(out)
	return mf, nil
}

func (in *Ingester) class(name, location, moduleDir string) (*graph.Class, error) {
	class := &graph.Class{
		Name:                name,
		Location:            location,
		RelativeLocation:    strings.TrimPrefix(location, moduleDir+"/"),
		Dependencies:        make(map[string]bool),
		BreakDependenciesOn: make(map[string]bool),
	}
	if in.extractor == nil {
		return class, nil
	}

	started := time.Now()
	ann, err := in.extractor.ExtractFile(filepath.Join(in.opts.Workspace, filepath.FromSlash(location)))
	observability.ParsingDuration.WithLabelValues("java").Observe(time.Since(started).Seconds())
	if err != nil {
		return nil, errors.AddContext(err, errors.CtxClass, name)
	}
	class.TargetModule = ann.TargetModule
	class.Team = graph.KnownTeam(ann.Team)
	for _, b := range ann.BreakDependenciesOn {
		class.BreakDependenciesOn[b] = true
	}
	return class, nil
}

// merge restricts class edges to in-scope classes, synthesizing external
// classes for referenced names that match the external patterns.
func (in *Ingester) merge(results []moduleFacts) ([]*graph.Module, []*graph.Class) {
	inScope := make(map[string]bool)
	for _, mf := range results {
		for name := range mf.module.Srcs {
			inScope[name] = true
		}
	}

	modules := make([]*graph.Module, 0, len(results))
	externals := make(map[string]*graph.Class)
	for _, mf := range results {
		for from, targets := range mf.edges {
			class, ok := mf.module.Srcs[from]
			if !ok {
				continue
			}
			for to := range targets {
				switch {
				case inScope[to]:
					class.Dependencies[to] = true
				case matchAny(in.externals, to):
					class.Dependencies[to] = true
					if _, seen := externals[to]; !seen {
						externals[to] = &graph.Class{Name: to, Location: graph.NotApplicable, RelativeLocation: graph.NotApplicable}
					}
				}
			}
		}
		modules = append(modules, mf.module)
	}

	ext := make([]*graph.Class, 0, len(externals))
	for _, name := range util.SortedStringKeys(externals) {
		ext = append(ext, externals[name])
	}
	return modules, ext
}

func (in *Ingester) exec(ctx context.Context, name string, args ...string) ([]byte, error) {
	if in.limiter != nil {
		if err := in.limiter.Wait(ctx); err != nil {
			return nil, errors.Wrap(err, errors.CodeInternal, "rate limiter")
		}
	}
	slog.Debug("exec", "command", name, "args", args)
	return in.run(ctx, in.opts.Workspace, name, args...)
}
