package facts

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"moduledeps/internal/core/errors"
	"moduledeps/internal/engine/graph"
)

const sampleYAML = `modules:
  - name: //10-core:module
    index: 10
    directory: 10-core
  - name: //400-rest:module
    index: 400
    directory: 400-rest
    dependencies: [//10-core:module]
    classes:
      - name: io.harness.Service
        location: 400-rest/src/main/java/io/harness/Service.java
        dependencies: [io.harness.Helper, gen.Proto]
        target_module: //10-core:module
        team: PL
      - name: io.harness.Helper
        location: 400-rest/src/main/java/io/harness/Helper.java
externals:
  - name: gen.Proto
`

func TestDecodeBuildsGraph(t *testing.T) {
	snap, err := Decode(strings.NewReader(sampleYAML))
	require.NoError(t, err)

	g, err := snap.Graph()
	require.NoError(t, err)
	assert.Equal(t, 2, g.ModuleCount())
	assert.Equal(t, 3, g.ClassCount())

	svc, ok := g.Class("io.harness.Service")
	require.True(t, ok)
	assert.Equal(t, "src/main/java/io/harness/Service.java", svc.RelativeLocation)
	assert.Equal(t, graph.KnownTeam("PL"), svc.Team)
	assert.True(t, svc.HasTarget())

	helper, ok := g.Class("io.harness.Helper")
	require.True(t, ok)
	assert.False(t, helper.Team.Known)

	proto, ok := g.Class("gen.Proto")
	require.True(t, ok)
	assert.True(t, proto.IsExternal())

	owner, ok := g.Owner("io.harness.Service")
	require.True(t, ok)
	assert.Equal(t, "//400-rest:module", owner.Name)
}

func TestDecodeRejectsUnknownKeys(t *testing.T) {
	_, err := Decode(strings.NewReader("modules:\n  - name: m\n    indx: 1\n"))
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeValidationError))
}

func TestDecodeEmpty(t *testing.T) {
	snap, err := Decode(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, snap.Modules)
}

func TestGraphFailsOnUnresolvedDependency(t *testing.T) {
	snap := &Snapshot{Modules: []Module{{
		Name:    "m",
		Classes: []Class{{Name: "a.A", Location: "A.java", Dependencies: []string{"a.Missing"}}},
	}}}
	_, err := snap.Graph()
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeNotFound))
	assert.Contains(t, err.Error(), "a.Missing")
}

func TestSaveLoadPreservesEntities(t *testing.T) {
	original, err := Decode(strings.NewReader(sampleYAML))
	require.NoError(t, err)
	mods, exts := original.Entities()

	path := filepath.Join(t.TempDir(), "nested", "facts.yaml")
	require.NoError(t, Save(path, FromEntities(mods, exts)))

	loaded, err := Load(path)
	require.NoError(t, err)
	gotMods, gotExts := loaded.Entities()

	graph.SortModules(mods)
	require.Len(t, gotMods, len(mods))
	for i := range mods {
		assert.Equal(t, mods[i].Name, gotMods[i].Name)
		assert.Equal(t, mods[i].Index, gotMods[i].Index)
		assert.Equal(t, mods[i].Srcs, gotMods[i].Srcs)
	}
	require.Len(t, gotExts, 1)
	assert.Equal(t, graph.NotApplicable, gotExts[0].Location)
}

func TestFromEntitiesIsDeterministic(t *testing.T) {
	snap, err := Decode(strings.NewReader(sampleYAML))
	require.NoError(t, err)
	mods, exts := snap.Entities()

	var first, second bytes.Buffer
	require.NoError(t, Encode(&first, FromEntities(mods, exts)))
	require.NoError(t, Encode(&second, FromEntities(mods, exts)))
	assert.Equal(t, first.String(), second.String())
	assert.Less(t, strings.Index(first.String(), "io.harness.Helper"), strings.Index(first.String(), "io.harness.Service"))
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeIO))
}

func TestFileSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "facts.yaml")
	snap, err := Decode(strings.NewReader(sampleYAML))
	require.NoError(t, err)
	require.NoError(t, Save(path, snap))

	got, err := File(path).Facts(context.Background())
	require.NoError(t, err)
	assert.Len(t, got.Modules, 2)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = File(path).Facts(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
