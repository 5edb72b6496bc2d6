package config

import (
	"fmt"
	"net"
	"regexp"
	"strings"

	"github.com/gobwas/glob"
)

var (
	outputFormats  = []string{"text", "tsv", "markdown"}
	javaIdentifier = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*$`)
)

func validateVersion(cfg *Config) error {
	if cfg.Version != 1 {
		return fmt.Errorf("unsupported config version %d; supported version is 1", cfg.Version)
	}
	return nil
}

func validateBazel(cfg *Config) error {
	if strings.TrimSpace(cfg.Bazel.Binary) == "" {
		return fmt.Errorf("bazel.binary must not be empty")
	}
	if strings.TrimSpace(cfg.Bazel.Jdeps) == "" {
		return fmt.Errorf("bazel.jdeps must not be empty")
	}
	if cfg.Bazel.Workers < 1 {
		return fmt.Errorf("bazel.workers must be >= 1, got %d", cfg.Bazel.Workers)
	}
	if cfg.Bazel.Rate < 0 {
		return fmt.Errorf("bazel.rate must be >= 0, got %g", cfg.Bazel.Rate)
	}
	if cfg.Bazel.Burst < 0 {
		return fmt.Errorf("bazel.burst must be >= 0, got %d", cfg.Bazel.Burst)
	}
	return validatePatterns("bazel.externals", cfg.Bazel.Externals, '.')
}

func validateModules(cfg *Config) error {
	if cfg.Modules.DefaultIndex < 0 {
		return fmt.Errorf("modules.default_index must be >= 0, got %g", cfg.Modules.DefaultIndex)
	}
	for name, index := range cfg.Modules.IndexOverrides {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("modules.index_overrides contains an empty module name")
		}
		if index < 0 {
			return fmt.Errorf("modules.index_overrides[%q] must be >= 0, got %g", name, index)
		}
	}
	if err := validatePatterns("modules.deprecated", cfg.Modules.Deprecated, '/'); err != nil {
		return err
	}
	return validatePatterns("modules.exclude", cfg.Modules.Exclude, '/')
}

func validatePatterns(field string, patterns []string, separators ...rune) error {
	for i, pattern := range patterns {
		if _, err := glob.Compile(pattern, separators...); err != nil {
			return fmt.Errorf("%s[%d] %q is not a valid pattern: %w", field, i, pattern, err)
		}
	}
	return nil
}

func validateAnnotations(cfg *Config) error {
	names := map[string]string{
		"annotations.target_module":       cfg.Annotations.TargetModule,
		"annotations.break_dependency_on": cfg.Annotations.BreakDependencyOn,
		"annotations.owned_by":            cfg.Annotations.OwnedBy,
	}
	seen := make(map[string]string, len(names))
	for _, field := range []string{"annotations.target_module", "annotations.break_dependency_on", "annotations.owned_by"} {
		name := names[field]
		if !javaIdentifier.MatchString(name) {
			return fmt.Errorf("%s %q is not a valid annotation name", field, name)
		}
		if other, ok := seen[name]; ok {
			return fmt.Errorf("%s and %s both name annotation %q", other, field, name)
		}
		seen[name] = field
	}
	return nil
}

func validateOutput(cfg *Config) error {
	for _, format := range outputFormats {
		if cfg.Output.Format == format {
			return nil
		}
	}
	return fmt.Errorf("output.format must be one of: %s", strings.Join(outputFormats, ", "))
}

func validateWatch(cfg *Config) error {
	if cfg.Watch.Debounce < 0 {
		return fmt.Errorf("watch.debounce must be >= 0, got %s", cfg.Watch.Debounce)
	}
	return validatePatterns("watch.exclude_dirs", cfg.Watch.ExcludeDirs)
}

func validateObservability(cfg *Config) error {
	addr := strings.TrimSpace(cfg.Observability.MetricsAddr)
	if addr == "" {
		return nil
	}
	if _, _, err := net.SplitHostPort(addr); err != nil {
		return fmt.Errorf("observability.metrics_addr %q must be host:port: %w", addr, err)
	}
	return nil
}

// Validate runs every section check and returns all failures.
func Validate(cfg *Config) []error {
	var errs []error
	for _, check := range []func(*Config) error{
		validateVersion,
		validateBazel,
		validateModules,
		validateAnnotations,
		validateOutput,
		validateWatch,
		validateObservability,
	} {
		if err := check(cfg); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}
