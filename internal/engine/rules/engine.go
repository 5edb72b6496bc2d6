package rules

import (
	"moduledeps/internal/engine/graph"
)

// Analyze runs every check and the eligibility simulation over g. The
// returned reports are in generation order; callers sort before rendering.
func Analyze(g *graph.Graph) ([]Report, error) {
	var out []Report
	for _, check := range Checks() {
		out = append(out, check.Run(g)...)
	}
	eligible, err := checkEligibility(g)
	if err != nil {
		return nil, err
	}
	return append(out, eligible...), nil
}
