package rules

import (
	"fmt"
	"sort"
	"strings"

	"moduledeps/internal/engine/graph"
)

// Kind is the severity of a report. Lower values are more urgent.
type Kind int

const (
	Critical Kind = iota
	Error
	AutoAction
	DevAction
	Blocked
	ToDo

	// KindCount is the number of kinds; arrays indexed by Kind use it.
	KindCount
)

func (k Kind) String() string {
	switch k {
	case Critical:
		return "Critical"
	case Error:
		return "Error"
	case AutoAction:
		return "AutoAction"
	case DevAction:
		return "DevAction"
	case Blocked:
		return "Blocked"
	case ToDo:
		return "ToDo"
	case KindCount:
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// AllKinds returns every kind in severity order.
func AllKinds() []Kind {
	out := make([]Kind, 0, KindCount)
	for k := Critical; k < KindCount; k++ {
		out = append(out, k)
	}
	return out
}

// ParseKind accepts kind names case-insensitively.
func ParseKind(s string) (Kind, error) {
	for _, k := range AllKinds() {
		if strings.EqualFold(strings.TrimSpace(s), k.String()) {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown report kind %q", s)
}

// Report is a single finding.
type Report struct {
	Kind    Kind
	Message string
	// Action is a literal command that resolves the finding, or empty.
	Action   string
	ForClass string
	ForTeam  graph.Team
	// IndirectClasses are the classes this finding concerns as blockers.
	// Filtering on ForClass pulls their own findings into the result.
	IndirectClasses []string
	ForModules      []string
}

func (r Report) HasAction() bool {
	return r.Action != ""
}

func (r Report) InModule(name string) bool {
	for _, m := range r.ForModules {
		if m == name {
			return true
		}
	}
	return false
}

// Sort orders reports by kind, then message.
func Sort(reports []Report) {
	sort.SliceStable(reports, func(i, j int) bool {
		if reports[i].Kind != reports[j].Kind {
			return reports[i].Kind < reports[j].Kind
		}
		return reports[i].Message < reports[j].Message
	})
}

// Count tallies reports per kind.
func Count(reports []Report) [KindCount]int {
	var counts [KindCount]int
	for _, r := range reports {
		counts[r.Kind]++
	}
	return counts
}

func names(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for n := range set {
		if n != "" {
			out = append(out, n)
		}
	}
	sort.Strings(out)
	return out
}

// MoveCommand formats the relocation action consumed by move-class.
func MoveCommand(fromModule, fromLocation, toModule string) string {
	return fmt.Sprintf("move-class --from-module=%q --from-location=%s --to-module=%q", fromModule, fromLocation, toModule)
}
