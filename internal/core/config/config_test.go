package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestParse(t *testing.T) {
	content := `
[paths]
facts = "facts.yaml"

[bazel]
workers = 2
rate = 5.5
externals = ["com.google.**"]

[modules]
deprecated = ["//*-deprecated:module"]
default_index = 100

[modules.index_overrides]
"//commons:module" = 990

[annotations]
owned_by = "Owner"

[filters]
team = " cdp "
kinds = ["Critical", " Error "]

[output]
format = "Markdown"
apply_actions = true

[watch]
debounce = "1s"
`
	cfg, err := Parse(content)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if cfg.Version != 1 {
		t.Errorf("expected default version 1, got %d", cfg.Version)
	}
	if cfg.Paths.Facts != "facts.yaml" {
		t.Errorf("unexpected facts path %q", cfg.Paths.Facts)
	}
	if cfg.Bazel.Workers != 2 || cfg.Bazel.Burst != 2 {
		t.Errorf("expected workers=2 burst=2, got %d/%d", cfg.Bazel.Workers, cfg.Bazel.Burst)
	}
	if cfg.Bazel.Binary != "bazel" || cfg.Bazel.Jdeps != "jdeps" {
		t.Errorf("expected default binaries, got %q %q", cfg.Bazel.Binary, cfg.Bazel.Jdeps)
	}
	if cfg.Modules.IndexOverrides["//commons:module"] != 990 {
		t.Errorf("unexpected overrides %v", cfg.Modules.IndexOverrides)
	}
	if cfg.Annotations.OwnedBy != "Owner" || cfg.Annotations.TargetModule != "TargetModule" {
		t.Errorf("unexpected annotations %+v", cfg.Annotations)
	}
	if cfg.Filters.Team != "CDP" {
		t.Errorf("expected normalized team CDP, got %q", cfg.Filters.Team)
	}
	if strings.Join(cfg.Filters.Kinds, ",") != "Critical,Error" {
		t.Errorf("unexpected kinds %v", cfg.Filters.Kinds)
	}
	if cfg.Output.Format != "markdown" || !cfg.Output.ApplyActions {
		t.Errorf("unexpected output %+v", cfg.Output)
	}
	if cfg.Watch.Debounce != time.Second {
		t.Errorf("expected debounce 1s, got %v", cfg.Watch.Debounce)
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if errs := Validate(cfg); len(errs) > 0 {
		t.Fatalf("defaults should validate, got %v", errs)
	}
	if cfg.Output.Format != "text" {
		t.Errorf("expected text format, got %q", cfg.Output.Format)
	}
	if cfg.Bazel.ModuleQuery != `attr(name, "^module$", //...)` {
		t.Errorf("unexpected module query %q", cfg.Bazel.ModuleQuery)
	}
	if cfg.Watch.Debounce != 500*time.Millisecond {
		t.Errorf("unexpected debounce %v", cfg.Watch.Debounce)
	}
}

func TestParseErrors(t *testing.T) {
	cases := []struct {
		name    string
		content string
		want    string
	}{
		{name: "UnknownKey", content: "[output]\nstyle = \"x\"\n", want: `unknown config key "output.style"`},
		{name: "Version", content: "version = 3\n", want: "unsupported config version 3"},
		{name: "Format", content: "[output]\nformat = \"html\"\n", want: "output.format must be one of: text, tsv, markdown"},
		{name: "Rate", content: "[bazel]\nrate = -1.0\n", want: "bazel.rate must be >= 0"},
		{name: "ExternalGlob", content: "[bazel]\nexternals = [\"com.[x\"]\n", want: `bazel.externals[0] "com.[x" is not a valid pattern`},
		{name: "ExcludeGlob", content: "[modules]\nexclude = [\"//[a\"]\n", want: "modules.exclude[0]"},
		{name: "OverrideIndex", content: "[modules.index_overrides]\n\"//a:module\" = -4.0\n", want: `modules.index_overrides["//a:module"] must be >= 0`},
		{name: "AnnotationName", content: "[annotations]\nowned_by = \"Owned By\"\n", want: `annotations.owned_by "Owned By" is not a valid annotation name`},
		{name: "AnnotationClash", content: "[annotations]\nowned_by = \"TargetModule\"\n", want: `annotations.target_module and annotations.owned_by both name annotation "TargetModule"`},
		{name: "MetricsAddr", content: "[observability]\nmetrics_addr = \"9090\"\n", want: "observability.metrics_addr"},
		{name: "Syntax", content: "[bazel\n", want: ""},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := Parse(tc.content)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error containing %q, got %v", tc.want, err)
			}
		})
	}
}

func TestLoadOrDefault(t *testing.T) {
	root := t.TempDir()

	cfg, path, err := LoadOrDefault("", root)
	if err != nil {
		t.Fatal(err)
	}
	if path != "" {
		t.Fatalf("expected no config path, got %q", path)
	}
	if cfg.Bazel.Workers != 8 {
		t.Fatalf("expected default workers, got %d", cfg.Bazel.Workers)
	}

	file := filepath.Join(root, FileName)
	if err := os.WriteFile(file, []byte("[bazel]\nworkers = 3\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, path, err = LoadOrDefault("", root)
	if err != nil {
		t.Fatal(err)
	}
	if path != file || cfg.Bazel.Workers != 3 {
		t.Fatalf("expected workspace config to load, got path=%q workers=%d", path, cfg.Bazel.Workers)
	}

	if _, _, err := LoadOrDefault(filepath.Join(root, "missing.toml"), root); err == nil {
		t.Fatal("expected error for explicit missing config")
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("MODULEDEPS_BAZEL_WORKERS", "12")
	t.Setenv("MODULEDEPS_BAZEL_RATE", "not-a-number")
	t.Setenv("MODULEDEPS_MODULES_DEPRECATED", "//a:module, //b:module,")
	t.Setenv("MODULEDEPS_OUTPUT_COLOR", "TRUE")
	t.Setenv("MODULEDEPS_WATCH_DEBOUNCE", "250ms")
	t.Setenv("MODULEDEPS_PATHS_FACTS", "snap.yaml")

	cfg := Default()
	cfg.Bazel.Rate = 2
	ApplyEnvOverrides(cfg)

	if cfg.Bazel.Workers != 12 {
		t.Errorf("expected workers 12, got %d", cfg.Bazel.Workers)
	}
	if cfg.Bazel.Rate != 2 {
		t.Errorf("invalid override should be ignored, got %g", cfg.Bazel.Rate)
	}
	if strings.Join(cfg.Modules.Deprecated, "|") != "//a:module|//b:module" {
		t.Errorf("unexpected deprecated list %v", cfg.Modules.Deprecated)
	}
	if !cfg.Output.Color {
		t.Error("expected color enabled")
	}
	if cfg.Watch.Debounce != 250*time.Millisecond {
		t.Errorf("unexpected debounce %v", cfg.Watch.Debounce)
	}
	if cfg.Paths.Facts != "snap.yaml" {
		t.Errorf("unexpected facts %q", cfg.Paths.Facts)
	}
}
