package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"moduledeps/internal/core/errors"
	"moduledeps/internal/engine/graph"
)

func eligibility(t *testing.T, mods []*graph.Module, externals ...*graph.Class) []Report {
	t.Helper()
	reports, err := checkEligibility(mustBuild(t, mods, externals...))
	require.NoError(t, err)
	return reports
}

func TestEligibility_PromotionReady(t *testing.T) {
	reports := eligibility(t, []*graph.Module{
		newModule("M0", 0, []string{"M1"}, newClass(classOpts{name: "A", target: "M1"})),
		newModule("M1", 1, nil),
	})

	require.Len(t, reports, 1)
	r := reports[0]
	assert.Equal(t, AutoAction, r.Kind)
	assert.Equal(t, "A is ready to go to M1", r.Message)
	assert.Equal(t, `move-class --from-module="M0" --from-location=src/main/java/A.java --to-module="M1"`, r.Action)
	assert.Equal(t, []string{"M0", "M1"}, r.ForModules)
	assert.Empty(t, r.IndirectClasses)
}

func TestEligibility_EndToEndScenario(t *testing.T) {
	a := newClass(classOpts{name: "A", target: "M0"})
	a.RelativeLocation = "src/main/java/A.java"
	g := mustBuild(t, []*graph.Module{
		newModule("M0", 0, nil),
		newModule("M1", 1, []string{"M0"}, a),
	})

	reports, err := Analyze(g)
	require.NoError(t, err)

	var ready []Report
	for _, r := range reports {
		if r.Kind == AutoAction {
			ready = append(ready, r)
		}
	}
	require.Len(t, ready, 1)
	assert.Equal(t, "A is ready to go to M0", ready[0].Message)
	assert.Equal(t, `move-class --from-module="M1" --from-location=src/main/java/A.java --to-module="M0"`, ready[0].Action)
}

func TestEligibility_PromotionBlockedByDependency(t *testing.T) {
	reports := eligibility(t, []*graph.Module{
		newModule("M0", 0, []string{"M1"},
			newClass(classOpts{name: "A", target: "M1", deps: []string{"B"}}),
			newClass(classOpts{name: "B", target: "M1"}),
		),
		newModule("M1", 1, nil),
	})

	require.Len(t, reports, 2)
	byClass := map[string]Report{}
	for _, r := range reports {
		byClass[r.ForClass] = r
	}

	blocked := byClass["A"]
	assert.Equal(t, Blocked, blocked.Kind)
	assert.Equal(t, "A is blocked from going to M1: B to M1", blocked.Message)
	assert.Equal(t, []string{"A", "B"}, blocked.IndirectClasses)
	assert.False(t, blocked.HasAction())

	assert.Equal(t, AutoAction, byClass["B"].Kind)
	assert.Equal(t, "B is ready to go to M1", byClass["B"].Message)
}

func TestEligibility_PromotionDependencyAtTargetIndexIsReady(t *testing.T) {
	reports := eligibility(t, []*graph.Module{
		newModule("M0", 0, []string{"X"}, newClass(classOpts{name: "A", target: "T", deps: []string{"D"}})),
		newModule("X", 1, []string{"T2"}, newClass(classOpts{name: "D", target: "T2"})),
		newModule("T", 1, []string{"T2"}),
		newModule("T2", 2, nil),
	})

	var forA []Report
	for _, r := range reports {
		if r.ForClass == "A" {
			forA = append(forA, r)
		}
	}
	require.Len(t, forA, 1, "reports: %v", messages(reports))
	assert.Equal(t, AutoAction, forA[0].Kind)
	assert.Equal(t, "A is ready to go to T", forA[0].Message)
}

func TestEligibility_PromotionConflicts(t *testing.T) {
	cases := []struct {
		name    string
		breaks  []string
		kind    Kind
		message string
	}{
		{
			name:    "TargetDoesNotSeeDependency",
			kind:    Error,
			message: "A cannot go to M1: it depends on C in M0",
		},
		{
			name:    "DeclaredBreak",
			breaks:  []string{"C"},
			kind:    DevAction,
			message: "A should break dependency on C to go to M1",
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			reports := eligibility(t, []*graph.Module{
				newModule("M0", 0, []string{"M1"},
					newClass(classOpts{name: "A", target: "M1", deps: []string{"C", "B"}, breaks: tc.breaks}),
					newClass(classOpts{name: "B", target: "M1"}),
					newClass(classOpts{name: "C"}),
				),
				newModule("M1", 1, nil),
			})

			var forA []Report
			for _, r := range reports {
				if r.ForClass == "A" {
					forA = append(forA, r)
				}
			}
			// The conflict wins over the not-ready dependency on B.
			require.Len(t, forA, 1)
			assert.Equal(t, tc.kind, forA[0].Kind)
			assert.Equal(t, tc.message, forA[0].Message)
			assert.Equal(t, []string{"C"}, forA[0].IndirectClasses)
		})
	}
}

func TestEligibility_MultipleConflictsReportedIndependently(t *testing.T) {
	reports := eligibility(t, []*graph.Module{
		newModule("M0", 0, []string{"M1"},
			newClass(classOpts{name: "A", target: "M1", deps: []string{"C", "D"}}),
			newClass(classOpts{name: "C"}),
			newClass(classOpts{name: "D"}),
		),
		newModule("M1", 1, nil),
	})

	assert.ElementsMatch(t, []string{
		"A cannot go to M1: it depends on C in M0",
		"A cannot go to M1: it depends on D in M0",
	}, messages(reports))
}

func TestEligibility_Demotion(t *testing.T) {
	cases := []struct {
		name     string
		home     string
		dependee classOpts
		kind     Kind
		message  string
	}{
		{
			name:     "DependeeStaysAbove",
			home:     "M1",
			dependee: classOpts{name: "D", deps: []string{"A"}},
			kind:     Error,
			message:  "A cannot go to M0: D in M1 depends on it",
		},
		{
			name:     "DependeeDeclaresBreak",
			home:     "M1",
			dependee: classOpts{name: "D", deps: []string{"A"}, breaks: []string{"A"}},
			kind:     DevAction,
			message:  "D should break dependency on A for it to go to M0",
		},
		{
			name:     "DependeeNotMovedYet",
			home:     "M1",
			dependee: classOpts{name: "D", deps: []string{"A"}, target: "M0"},
			kind:     Blocked,
			message:  "A is blocked from going to M0: D to M0",
		},
		{
			name:     "DependeeHeadingAbove",
			home:     "M1",
			dependee: classOpts{name: "D", deps: []string{"A"}, target: "Top"},
			kind:     Blocked,
			message:  "A is blocked from going to M0: D to Top",
		},
		{
			name:     "DependeeAtTargetIndex",
			home:     "Side",
			dependee: classOpts{name: "D", deps: []string{"A"}, target: "Top"},
			kind:     AutoAction,
			message:  "A is ready to go to M0",
		},
		{
			name:     "DependeeAlreadyCompatible",
			home:     "Top",
			dependee: classOpts{name: "D", deps: []string{"A"}},
			kind:     AutoAction,
			message:  "A is ready to go to M0",
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			mods := map[string]*graph.Module{
				"Top":  newModule("Top", -1, []string{"M0", "M1"}),
				"M0":   newModule("M0", 0, []string{"M1"}),
				"M1":   newModule("M1", 1, nil, newClass(classOpts{name: "A", target: "M0"})),
				"Side": newModule("Side", 0, nil),
			}
			d := newClass(tc.dependee)
			mods[tc.home].Srcs[d.Name] = d

			reports := eligibility(t, []*graph.Module{mods["Top"], mods["M0"], mods["M1"], mods["Side"]})

			var forA []Report
			for _, r := range reports {
				if r.ForClass == "A" {
					forA = append(forA, r)
				}
			}
			require.Len(t, forA, 1, "reports: %v", messages(reports))
			assert.Equal(t, tc.kind, forA[0].Kind)
			assert.Equal(t, tc.message, forA[0].Message)
		})
	}
}

func TestEligibility_UnownedClassIsDevAction(t *testing.T) {
	ext := &graph.Class{Name: "gen.Proto", Location: graph.NotApplicable, TargetModule: "M1"}
	reports := eligibility(t, []*graph.Module{newModule("M1", 1, nil)}, ext)

	require.Len(t, reports, 1)
	assert.Equal(t, DevAction, reports[0].Kind)
	assert.Equal(t, "gen.Proto is ready to be created in M1", reports[0].Message)
	assert.False(t, reports[0].HasAction())
}

func TestEligibility_ExternalDependenciesAreVisible(t *testing.T) {
	ext := &graph.Class{Name: "gen.Proto", Location: graph.NotApplicable}
	reports := eligibility(t, []*graph.Module{
		newModule("M0", 0, []string{"M1"}, newClass(classOpts{name: "A", target: "M1", deps: []string{"gen.Proto"}})),
		newModule("M1", 1, nil),
	}, ext)

	require.Len(t, reports, 1)
	assert.Equal(t, AutoAction, reports[0].Kind)
}

func TestEligibility_UnresolvedDependencyTargetIsFatal(t *testing.T) {
	g := mustBuild(t, []*graph.Module{
		newModule("M0", 0, []string{"M1"},
			newClass(classOpts{name: "A", target: "M1", deps: []string{"B"}}),
			newClass(classOpts{name: "B", target: "Nowhere"}),
		),
		newModule("M1", 1, nil),
	})

	_, err := Analyze(g)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeNotFound))
	assert.Contains(t, err.Error(), "Nowhere")
}

func TestEligibility_Idempotent(t *testing.T) {
	mods := func() []*graph.Module {
		return []*graph.Module{
			newModule("M0", 0, []string{"M1"},
				newClass(classOpts{name: "A", target: "M1"}),
				newClass(classOpts{name: "B", target: "M1", deps: []string{"A"}}),
			),
			newModule("M1", 1, nil),
		}
	}

	first, err := Analyze(mustBuild(t, mods()))
	require.NoError(t, err)
	second, err := Analyze(mustBuild(t, mods()))
	require.NoError(t, err)

	Sort(first)
	Sort(second)
	assert.Equal(t, first, second)
}
