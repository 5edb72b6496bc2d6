package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(string(data))
}

// Parse decodes, defaults and validates a TOML document. Unknown keys are
// rejected.
func Parse(data string) (*Config, error) {
	var cfg Config
	md, err := toml.Decode(data, &cfg)
	if err != nil {
		return nil, err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("unknown config key %q", undecoded[0].String())
	}

	applyDefaults(&cfg)
	normalize(&cfg)

	if errs := Validate(&cfg); len(errs) > 0 {
		return nil, errs[0]
	}
	return &cfg, nil
}

// LoadOrDefault loads path when given, otherwise moduledeps.toml under the
// workspace root when present, otherwise the defaults. Environment
// overrides are applied last. The returned path is the file read, if any.
func LoadOrDefault(path, root string) (*Config, string, error) {
	if strings.TrimSpace(path) == "" && root != "" {
		candidate := filepath.Join(root, FileName)
		if _, err := os.Stat(candidate); err == nil {
			path = candidate
		}
	}

	cfg := Default()
	if path != "" {
		loaded, err := Load(path)
		if err != nil {
			return nil, path, fmt.Errorf("load config %s: %w", path, err)
		}
		cfg = loaded
	}

	ApplyEnvOverrides(cfg)
	normalize(cfg)
	if errs := Validate(cfg); len(errs) > 0 {
		return nil, path, errs[0]
	}
	return cfg, path, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Version == 0 {
		cfg.Version = 1
	}

	if strings.TrimSpace(cfg.Bazel.Binary) == "" {
		cfg.Bazel.Binary = "bazel"
	}
	if strings.TrimSpace(cfg.Bazel.Jdeps) == "" {
		cfg.Bazel.Jdeps = "jdeps"
	}
	if strings.TrimSpace(cfg.Bazel.ModuleQuery) == "" {
		cfg.Bazel.ModuleQuery = `attr(name, "^module$", //...)`
	}
	if len(cfg.Bazel.SourceRoots) == 0 {
		cfg.Bazel.SourceRoots = []string{"src/main/java", "src/test/java", "src/java"}
	}
	if len(cfg.Bazel.TestSuffixes) == 0 {
		cfg.Bazel.TestSuffixes = []string{"_tests", "-tests"}
	}
	if cfg.Bazel.Workers <= 0 {
		cfg.Bazel.Workers = 8
	}
	if cfg.Bazel.Burst <= 0 {
		cfg.Bazel.Burst = cfg.Bazel.Workers
	}

	if cfg.Modules.IndexOverrides == nil {
		cfg.Modules.IndexOverrides = map[string]float64{}
	}

	if strings.TrimSpace(cfg.Annotations.TargetModule) == "" {
		cfg.Annotations.TargetModule = "TargetModule"
	}
	if strings.TrimSpace(cfg.Annotations.BreakDependencyOn) == "" {
		cfg.Annotations.BreakDependencyOn = "BreakDependencyOn"
	}
	if strings.TrimSpace(cfg.Annotations.OwnedBy) == "" {
		cfg.Annotations.OwnedBy = "OwnedBy"
	}

	if strings.TrimSpace(cfg.Output.Format) == "" {
		cfg.Output.Format = "text"
	}

	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = 500 * time.Millisecond
	}
	if len(cfg.Watch.ExcludeDirs) == 0 {
		cfg.Watch.ExcludeDirs = []string{".git", "bazel-*", "node_modules", "target", "out"}
	}
}

func normalize(cfg *Config) {
	cfg.Paths.Root = strings.TrimSpace(cfg.Paths.Root)
	cfg.Paths.Facts = strings.TrimSpace(cfg.Paths.Facts)
	cfg.Output.Format = strings.ToLower(strings.TrimSpace(cfg.Output.Format))
	cfg.Filters.Team = strings.ToUpper(strings.TrimSpace(cfg.Filters.Team))
	cfg.Bazel.Externals = trimAll(cfg.Bazel.Externals)
	cfg.Modules.Deprecated = trimAll(cfg.Modules.Deprecated)
	cfg.Modules.Exclude = trimAll(cfg.Modules.Exclude)
	cfg.Filters.Kinds = trimAll(cfg.Filters.Kinds)
}

func trimAll(values []string) []string {
	if len(values) == 0 {
		return values
	}
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
