package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// ApplyEnvOverrides applies environment variable overrides to the configuration.
// Pattern: MODULEDEPS_[SECTION]_[KEY] (e.g., MODULEDEPS_BAZEL_WORKERS).
func ApplyEnvOverrides(cfg *Config) {
	// Paths
	setEnvString(&cfg.Paths.Root, "MODULEDEPS_PATHS_ROOT")
	setEnvString(&cfg.Paths.Facts, "MODULEDEPS_PATHS_FACTS")

	// Bazel
	setEnvString(&cfg.Bazel.Binary, "MODULEDEPS_BAZEL_BINARY")
	setEnvString(&cfg.Bazel.Jdeps, "MODULEDEPS_BAZEL_JDEPS")
	setEnvString(&cfg.Bazel.ModuleQuery, "MODULEDEPS_BAZEL_MODULE_QUERY")
	setEnvList(&cfg.Bazel.Externals, "MODULEDEPS_BAZEL_EXTERNALS")
	setEnvInt(&cfg.Bazel.Workers, "MODULEDEPS_BAZEL_WORKERS")
	setEnvFloat64(&cfg.Bazel.Rate, "MODULEDEPS_BAZEL_RATE")
	setEnvInt(&cfg.Bazel.Burst, "MODULEDEPS_BAZEL_BURST")

	// Modules
	setEnvList(&cfg.Modules.Deprecated, "MODULEDEPS_MODULES_DEPRECATED")
	setEnvList(&cfg.Modules.Exclude, "MODULEDEPS_MODULES_EXCLUDE")
	setEnvFloat64(&cfg.Modules.DefaultIndex, "MODULEDEPS_MODULES_DEFAULT_INDEX")

	// Filters
	setEnvString(&cfg.Filters.Team, "MODULEDEPS_FILTERS_TEAM")
	setEnvBool(&cfg.Filters.OnlyTeam, "MODULEDEPS_FILTERS_ONLY_TEAM")

	// Output
	setEnvString(&cfg.Output.Format, "MODULEDEPS_OUTPUT_FORMAT")
	setEnvBool(&cfg.Output.Color, "MODULEDEPS_OUTPUT_COLOR")

	// Watch
	setEnvDuration(&cfg.Watch.Debounce, "MODULEDEPS_WATCH_DEBOUNCE")

	// Observability
	setEnvString(&cfg.Observability.MetricsTextfile, "MODULEDEPS_OBSERVABILITY_METRICS_TEXTFILE")
	setEnvString(&cfg.Observability.MetricsAddr, "MODULEDEPS_OBSERVABILITY_METRICS_ADDR")
	setEnvString(&cfg.Observability.OTLPEndpoint, "MODULEDEPS_OBSERVABILITY_OTLP_ENDPOINT")
	setEnvBool(&cfg.Observability.OTLPInsecure, "MODULEDEPS_OBSERVABILITY_OTLP_INSECURE")
}

func setEnvString(target *string, key string) {
	if val, ok := os.LookupEnv(key); ok {
		slog.Debug("applying env override", "key", key, "value", val)
		*target = val
	}
}

// setEnvList splits a comma separated value.
func setEnvList(target *[]string, key string) {
	if val, ok := os.LookupEnv(key); ok {
		slog.Debug("applying env override", "key", key, "value", val)
		*target = trimAll(strings.Split(val, ","))
	}
}

func setEnvInt(target *int, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(val); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = i
		} else {
			slog.Warn("ignoring invalid env override", "key", key, "value", val)
		}
	}
}

func setEnvBool(target *bool, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(strings.ToLower(val)); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = b
		} else {
			slog.Warn("ignoring invalid env override", "key", key, "value", val)
		}
	}
}

func setEnvFloat64(target *float64, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = f
		} else {
			slog.Warn("ignoring invalid env override", "key", key, "value", val)
		}
	}
}

func setEnvDuration(target *time.Duration, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(val); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = d
		} else {
			slog.Warn("ignoring invalid env override", "key", key, "value", val)
		}
	}
}
