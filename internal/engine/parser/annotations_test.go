package parser

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const qualifiedSource = `package io.harness.delegate;

import io.harness.annotations.dev.BreakDependencyOn;
import io.harness.annotations.dev.HarnessModule;
import io.harness.annotations.dev.HarnessTeam;
import io.harness.annotations.dev.OwnedBy;
import io.harness.annotations.dev.TargetModule;

@OwnedBy(HarnessTeam.CDP)
@TargetModule(HarnessModule._870_CG_ORCHESTRATION)
@BreakDependencyOn("software.wings.beans.Environment")
@BreakDependencyOn("software.wings.WingsBaseTest")
public class DelegateTaskHelper {
  @TargetModule(HarnessModule._930_DELEGATE_TASKS)
  static class Nested {}
}
`

const staticImportSource = `package io.harness.ng;

import static io.harness.annotations.dev.HarnessModule._955_ACCOUNT_MGMT;
import static io.harness.annotations.dev.HarnessTeam.PL;

import io.harness.annotations.dev.OwnedBy;
import io.harness.annotations.dev.TargetModule;

@Deprecated
@OwnedBy(PL)
@TargetModule(_955_ACCOUNT_MGMT)
public interface AccountClient {
}
`

func TestAnnotationExtractor_Extract(t *testing.T) {
	cases := []struct {
		name   string
		source string
		want   Annotations
	}{
		{
			name:   "QualifiedConstants",
			source: qualifiedSource,
			want: Annotations{
				TargetModule:        "//870-cg-orchestration:module",
				BreakDependenciesOn: []string{"software.wings.beans.Environment", "software.wings.WingsBaseTest"},
				Team:                "CDP",
			},
		},
		{
			name:   "StaticImports",
			source: staticImportSource,
			want: Annotations{
				TargetModule: "//955-account-mgmt:module",
				Team:         "PL",
			},
		},
		{
			name:   "NoAnnotations",
			source: "package a;\n\npublic class Plain {}\n",
			want:   Annotations{},
		},
		{
			name:   "EnumWithArrayBreaks",
			source: "package a;\n\n@BreakDependencyOn({\"x.A\", \"x.B\"})\nenum Color { RED }\n",
			want:   Annotations{BreakDependenciesOn: []string{"x.A", "x.B"}},
		},
	}

	extractor := NewAnnotationExtractor(AnnotationNames{})
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := extractor.Extract([]byte(tc.source))
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestAnnotationExtractor_CustomNames(t *testing.T) {
	src := "package a;\n\n@Owner(\"DX\")\n@MoveTo(Modules._100_CORE)\nclass A {}\n"
	extractor := NewAnnotationExtractor(AnnotationNames{TargetModule: "MoveTo", OwnedBy: "Owner"})

	got, err := extractor.Extract([]byte(src))
	require.NoError(t, err)
	assert.Equal(t, "//100-core:module", got.TargetModule)
	assert.Equal(t, "DX", got.Team)
}

func TestAnnotationExtractor_ExtractFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "DelegateTaskHelper.java")
	require.NoError(t, os.WriteFile(path, []byte(qualifiedSource), 0o644))

	extractor := NewAnnotationExtractor(DefaultAnnotationNames())
	got, err := extractor.ExtractFile(path)
	require.NoError(t, err)
	assert.Equal(t, "CDP", got.Team)

	_, err = extractor.ExtractFile(filepath.Join(dir, "Missing.java"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Missing.java")
}

func TestAnnotationExtractor_Concurrent(t *testing.T) {
	extractor := NewAnnotationExtractor(DefaultAnnotationNames())

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				got, err := extractor.Extract([]byte(staticImportSource))
				if err != nil || got.Team != "PL" {
					t.Errorf("unexpected result %+v, %v", got, err)
					return
				}
			}
		}()
	}
	wg.Wait()
}

func TestModuleLabel(t *testing.T) {
	cases := []struct {
		input    string
		expected string
	}{
		{input: "HarnessModule._870_CG_ORCHESTRATION", expected: "//870-cg-orchestration:module"},
		{input: "_930_DELEGATE_TASKS", expected: "//930-delegate-tasks:module"},
		{input: "CORE", expected: "//core:module"},
		{input: "", expected: ""},
	}
	for _, tc := range cases {
		if got := ModuleLabel(tc.input); got != tc.expected {
			t.Fatalf("ModuleLabel(%q): expected %q, got %q", tc.input, tc.expected, got)
		}
	}
}
