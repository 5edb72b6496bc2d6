package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics definitions
var (
	ParsingDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "moduledeps_parsing_seconds",
		Help:    "Time spent extracting annotations from a source file.",
		Buckets: prometheus.DefBuckets,
	}, []string{"language"})

	GraphModules = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "moduledeps_graph_modules_total",
		Help: "Total number of modules in the dependency graph.",
	})

	GraphClasses = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "moduledeps_graph_classes_total",
		Help: "Total number of classes in the dependency graph.",
	})

	GraphEdges = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "moduledeps_graph_edges_total",
		Help: "Total number of class dependency edges in the graph.",
	})

	AnalysisDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "moduledeps_analysis_seconds",
		Help:    "Time spent on each pipeline stage.",
		Buckets: prometheus.DefBuckets,
	}, []string{"stage"})

	FindingsTotal = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "moduledeps_findings",
		Help: "Number of findings in the last analysis, by kind.",
	}, []string{"kind"})

	SubprocessRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "moduledeps_subprocess_runs_total",
		Help: "Total number of build tool invocations, by tool and outcome.",
	}, []string{"tool", "outcome"})

	MovesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "moduledeps_moves_total",
		Help: "Total number of class moves attempted, by outcome.",
	}, []string{"outcome"})

	WatcherEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "moduledeps_watcher_events_total",
		Help: "Total number of file system events received by the watcher.",
	})
)

// WriteTextfile writes the default registry in the node exporter textfile
// format. An empty path is a no-op.
func WriteTextfile(path string) error {
	if path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, prometheus.DefaultGatherer)
}
