// Package app wires fact sources, the graph builder, the rule engine and
// report filtering into the analysis service used by the CLI.
package app

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"moduledeps/internal/core/errors"
	"moduledeps/internal/core/ports"
	"moduledeps/internal/data/facts"
	"moduledeps/internal/engine/filter"
	"moduledeps/internal/engine/graph"
	"moduledeps/internal/engine/rules"
	"moduledeps/internal/shared/observability"
)

type analysisService struct {
	source ports.FactSource
}

var _ ports.AnalysisService = (*analysisService)(nil)

func NewAnalysisService(source ports.FactSource) ports.AnalysisService {
	return &analysisService{source: source}
}

func (s *analysisService) Snapshot(ctx context.Context) (*facts.Snapshot, error) {
	ctx, span := observability.Tracer.Start(ctx, "analysisService.Snapshot")
	defer span.End()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.source == nil {
		return nil, errors.New(errors.CodeInternal, "fact source is required")
	}

	var snap *facts.Snapshot
	err := timed("ingest", func() error {
		var err error
		snap, err = s.source.Facts(ctx)
		return err
	})
	if err != nil {
		span.RecordError(err)
		return nil, errors.AddContext(err, errors.CtxOperation, "ingest")
	}
	return snap, nil
}

func (s *analysisService) Analyze(ctx context.Context, req ports.AnalyzeRequest) (ports.AnalyzeResult, error) {
	ctx, span := observability.Tracer.Start(ctx, "analysisService.Analyze")
	defer span.End()

	g, err := s.graph(ctx)
	if err != nil {
		return ports.AnalyzeResult{}, err
	}

	var reports []rules.Report
	err = timed("rules", func() error {
		var err error
		reports, err = rules.Analyze(g)
		return err
	})
	if err != nil {
		span.RecordError(err)
		return ports.AnalyzeResult{}, errors.AddContext(err, errors.CtxOperation, "rules")
	}
	recordFindings(reports)

	var filtered []rules.Report
	err = timed("filter", func() error {
		var err error
		filtered, err = filter.Apply(reports, req.Filter)
		return err
	})
	if err != nil {
		return ports.AnalyzeResult{}, errors.Wrap(err, errors.CodeValidationError, "filter reports")
	}
	rules.Sort(filtered)

	span.SetAttributes(
		attribute.Int("findings.total", len(reports)),
		attribute.Int("findings.shown", len(filtered)),
	)
	return ports.AnalyzeResult{
		Reports: filtered,
		Total:   len(reports),
		Modules: g.ModuleCount(),
		Classes: g.ClassCount(),
	}, nil
}

func (s *analysisService) TraceDependency(ctx context.Context, from, to string) ([]string, error) {
	ctx, span := observability.Tracer.Start(ctx, "analysisService.TraceDependency", trace.WithAttributes(
		attribute.String("from", from),
		attribute.String("to", to),
	))
	defer span.End()

	g, err := s.graph(ctx)
	if err != nil {
		return nil, err
	}
	for _, name := range []string{from, to} {
		if _, ok := g.Class(name); !ok {
			return nil, errors.AddContext(errors.New(errors.CodeNotFound, "unknown class"), errors.CtxClass, name)
		}
	}
	chain, ok := g.FindDependencyChain(from, to)
	if !ok {
		err := errors.Newf(errors.CodeNotFound, "%s does not depend on %s", from, to)
		err = errors.AddContext(err, "from", from)
		return nil, errors.AddContext(err, "to", to)
	}
	return chain, nil
}

func (s *analysisService) graph(ctx context.Context) (*graph.Graph, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	var g *graph.Graph
	err = timed("build", func() error {
		var err error
		g, err = snap.Graph()
		return err
	})
	if err != nil {
		return nil, errors.AddContext(err, errors.CtxOperation, "build_graph")
	}
	observability.GraphModules.Set(float64(g.ModuleCount()))
	observability.GraphClasses.Set(float64(g.ClassCount()))
	observability.GraphEdges.Set(float64(g.EdgeCount()))
	return g, nil
}

func timed(stage string, fn func() error) error {
	start := time.Now()
	err := fn()
	observability.AnalysisDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
	return err
}

func recordFindings(reports []rules.Report) {
	counts := rules.Count(reports)
	for _, kind := range rules.AllKinds() {
		observability.FindingsTotal.WithLabelValues(kind.String()).Set(float64(counts[kind]))
	}
}
