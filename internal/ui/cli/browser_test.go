package cli

import (
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"moduledeps/internal/core/ports"
	"moduledeps/internal/engine/graph"
	"moduledeps/internal/engine/rules"
)

func sampleResult() ports.AnalyzeResult {
	return ports.AnalyzeResult{
		Reports: []rules.Report{
			{Kind: rules.Critical, ForClass: "a.Dup", ForTeam: graph.KnownTeam("PL"), Message: "a.Dup appears in //1:module and //2:module"},
			{Kind: rules.AutoAction, ForClass: "a.Mover", ForTeam: graph.KnownTeam("PL"), Message: "a.Mover is ready to go to //2:module", Action: moverAction},
			{Kind: rules.ToDo, ForClass: "a.Orphan", Message: "a.Orphan is missing team owner"},
		},
		Total:   3,
		Modules: 2,
		Classes: 3,
	}
}

func key(s string) tea.KeyMsg {
	if s == "tab" {
		return tea.KeyMsg{Type: tea.KeyTab}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(t *testing.T, m model, s string) model {
	t.Helper()
	next, _ := m.Update(key(s))
	out, ok := next.(model)
	require.True(t, ok)
	return out
}

func TestBrowserCyclesKinds(t *testing.T) {
	m := initialModel(sampleResult(), false)
	require.Len(t, m.findings.Items(), 3)

	m = press(t, m, "tab")
	assert.Equal(t, rules.Critical, m.kind)
	require.Len(t, m.findings.Items(), 1)
	assert.Equal(t, "Critical [PL] a.Dup", m.findings.Items()[0].(item).Title())

	for i := 1; i < int(rules.KindCount); i++ {
		m = press(t, m, "tab")
	}
	assert.Equal(t, rules.ToDo, m.kind)
	require.Len(t, m.findings.Items(), 1)
	assert.Equal(t, "ToDo [UNK] a.Orphan", m.findings.Items()[0].(item).Title())

	m = press(t, m, "tab")
	assert.Equal(t, rules.Kind(-1), m.kind)
	assert.Len(t, m.findings.Items(), 3)
}

func TestBrowserTogglesActions(t *testing.T) {
	m := initialModel(sampleResult(), false)
	assert.Equal(t, "a.Mover is ready to go to //2:module", m.findings.Items()[1].(item).Description())

	m = press(t, m, "a")
	assert.True(t, m.showActions)
	assert.Equal(t, moverAction, m.findings.Items()[1].(item).Description())
	assert.Equal(t, "a.Orphan is missing team owner", m.findings.Items()[2].(item).Description(), "findings without an action keep the message")
}

func TestBrowserQuits(t *testing.T) {
	m := initialModel(sampleResult(), false)
	_, cmd := m.Update(key("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestBrowserAppliesUpdates(t *testing.T) {
	m := initialModel(sampleResult(), false)

	next, _ := m.Update(updateMsg{err: errors.New("facts unreadable")})
	m = next.(model)
	assert.Equal(t, "facts unreadable", m.lastErr)
	assert.Len(t, m.findings.Items(), 3, "failed refresh keeps the last findings")
	assert.Contains(t, m.View(), "Refresh failed: facts unreadable")

	next, _ = m.Update(updateMsg{result: ports.AnalyzeResult{Total: 3, Modules: 2}})
	m = next.(model)
	assert.Empty(t, m.lastErr)
	assert.Empty(t, m.findings.Items())
	assert.Contains(t, m.View(), "No findings")
}
