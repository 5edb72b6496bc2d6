package config

import (
	"time"
)

// FileName is the configuration file looked up at the workspace root.
const FileName = "moduledeps.toml"

type Config struct {
	Version       int           `toml:"version"`
	Paths         Paths         `toml:"paths"`
	Bazel         Bazel         `toml:"bazel"`
	Modules       Modules       `toml:"modules"`
	Annotations   Annotations   `toml:"annotations"`
	Filters       Filters       `toml:"filters"`
	Output        Output        `toml:"output"`
	Watch         Watch         `toml:"watch"`
	Observability Observability `toml:"observability"`
}

type Paths struct {
	// Root is the workspace root. Empty means discover it from the
	// working directory.
	Root string `toml:"root"`
	// Facts is a YAML snapshot read instead of querying bazel.
	Facts string `toml:"facts"`
}

type Bazel struct {
	Binary       string   `toml:"binary"`
	Jdeps        string   `toml:"jdeps"`
	ModuleQuery  string   `toml:"module_query"`
	SourceRoots  []string `toml:"source_roots"`
	TestSuffixes []string `toml:"test_suffixes"`
	Workers      int      `toml:"workers"`
	Rate         float64  `toml:"rate"`
	Burst        int      `toml:"burst"`
	// Externals are class name globs kept as dependencies although no
	// module owns them.
	Externals []string `toml:"externals"`
}

type Modules struct {
	Deprecated     []string           `toml:"deprecated"`
	Exclude        []string           `toml:"exclude"`
	DefaultIndex   float64            `toml:"default_index"`
	IndexOverrides map[string]float64 `toml:"index_overrides"`
}

type Annotations struct {
	TargetModule      string `toml:"target_module"`
	BreakDependencyOn string `toml:"break_dependency_on"`
	OwnedBy           string `toml:"owned_by"`
}

type Filters struct {
	Class          string   `toml:"class"`
	Module         string   `toml:"module"`
	Root           string   `toml:"root"`
	Team           string   `toml:"team"`
	OnlyTeam       bool     `toml:"only_team"`
	AutoActionable bool     `toml:"auto_actionable"`
	Kinds          []string `toml:"kinds"`
}

type Output struct {
	Format       string `toml:"format"`
	Color        bool   `toml:"color"`
	ApplyActions bool   `toml:"apply_actions"`
}

type Watch struct {
	Debounce time.Duration `toml:"debounce"`
	// ExcludeDirs are directory name globs skipped when watching sources.
	ExcludeDirs []string `toml:"exclude_dirs"`
}

type Observability struct {
	MetricsTextfile string `toml:"metrics_textfile"`
	MetricsAddr     string `toml:"metrics_addr"`
	OTLPEndpoint    string `toml:"otlp_endpoint"`
	OTLPInsecure    bool   `toml:"otlp_insecure"`
}
