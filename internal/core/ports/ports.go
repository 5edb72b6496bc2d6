package ports

import (
	"context"

	"moduledeps/internal/data/facts"
	"moduledeps/internal/engine/filter"
	"moduledeps/internal/engine/parser"
	"moduledeps/internal/engine/rules"
)

// FactSource produces the module and class facts analysis runs on.
type FactSource interface {
	Facts(ctx context.Context) (*facts.Snapshot, error)
}

// AnnotationExtractor reads module-planning annotations from a source file.
type AnnotationExtractor interface {
	ExtractFile(path string) (parser.Annotations, error)
}

// AnalyzeRequest defines an analysis run for driving adapters.
type AnalyzeRequest struct {
	Filter filter.Options
}

// AnalyzeResult carries the filtered findings and graph totals.
type AnalyzeResult struct {
	Reports []rules.Report
	// Total is the number of findings before filtering.
	Total   int
	Modules int
	Classes int
}

// AnalysisService is the driving port used by the CLI.
type AnalysisService interface {
	Analyze(ctx context.Context, req AnalyzeRequest) (AnalyzeResult, error)
	Snapshot(ctx context.Context) (*facts.Snapshot, error)
	// TraceDependency returns the shortest class dependency chain from one
	// class to another.
	TraceDependency(ctx context.Context, from, to string) ([]string, error)
}
