package graph

import "moduledeps/internal/shared/util"

// DetectModuleCycles returns every cycle found in the declared module
// dependencies. Traversal runs in name order so results are stable.
func (g *Graph) DetectModuleCycles() [][]string {
	var cycles [][]string
	visited := make(map[string]bool)
	onStack := make(map[string]bool)

	for _, modName := range util.SortedStringKeys(g.modules) {
		if !visited[modName] {
			g.findCycles(modName, visited, onStack, []string{}, &cycles)
		}
	}

	return cycles
}

func (g *Graph) findCycles(curr string, visited, onStack map[string]bool, path []string, cycles *[][]string) {
	visited[curr] = true
	onStack[curr] = true
	path = append(path, curr)

	for _, next := range util.SortedStringKeys(g.modules[curr].Dependencies) {
		if onStack[next] {
			cycleStart := -1
			for i, mod := range path {
				if mod == next {
					cycleStart = i
					break
				}
			}
			if cycleStart != -1 {
				cycle := make([]string, len(path)-cycleStart)
				copy(cycle, path[cycleStart:])
				*cycles = append(*cycles, cycle)
			}
		} else if !visited[next] {
			g.findCycles(next, visited, onStack, path, cycles)
		}
	}

	onStack[curr] = false
}

// FindDependencyChain returns the shortest class dependency path from one
// class to another, inclusive of both ends.
func (g *Graph) FindDependencyChain(from, to string) ([]string, bool) {
	if _, ok := g.classes[from]; !ok {
		return nil, false
	}
	if _, ok := g.classes[to]; !ok {
		return nil, false
	}
	if from == to {
		return []string{from}, true
	}

	queue := []string{from}
	visited := map[string]bool{from: true}
	prev := make(map[string]string)

	for len(queue) > 0 {
		curr := queue[0]
		queue = queue[1:]

		for _, next := range util.SortedStringKeys(g.classes[curr].Dependencies) {
			if visited[next] {
				continue
			}
			if _, ok := g.classes[next]; !ok {
				continue
			}
			visited[next] = true
			prev[next] = curr

			if next == to {
				path := []string{to}
				for node := to; node != from; {
					p, ok := prev[node]
					if !ok {
						return nil, false
					}
					path = append(path, p)
					node = p
				}
				for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
					path[i], path[j] = path[j], path[i]
				}
				return path, true
			}

			queue = append(queue, next)
		}
	}

	return nil, false
}
