package bazel

import "strings"

// ParseJdeps reads `jdeps -verbose:class` output into class-level edges.
// Nested classes are folded into their outer class and self edges dropped.
//
//	libmodule.jar -> java.base
//	   io.harness.A   -> io.harness.B   libmodule.jar
func ParseJdeps(out []byte) map[string]map[string]bool {
	edges := make(map[string]map[string]bool)
	for _, raw := range strings.Split(string(out), "\n") {
		// Class lines are indented; archive summary lines are not.
		if raw == "" || (raw[0] != ' ' && raw[0] != '\t') {
			continue
		}
		fields := strings.Fields(raw)
		if len(fields) < 3 || fields[1] != "->" {
			continue
		}
		from := OuterClass(fields[0])
		to := OuterClass(fields[2])
		if from == to {
			continue
		}
		if edges[from] == nil {
			edges[from] = make(map[string]bool)
		}
		edges[from][to] = true
	}
	return edges
}
