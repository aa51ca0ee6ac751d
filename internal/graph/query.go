package graph

import (
	"sort"

	"github.com/seanchatmangpt/sigil/internal/capability"
)

// IsReachable reports whether to is reachable from from over outgoing
// edges. Reachability is reflexive: every node reaches itself.
func (g *Graph) IsReachable(from, to capability.ID) bool {
	if _, ok := g.nodes[from]; !ok {
		return false
	}
	if _, ok := g.nodes[to]; !ok {
		return false
	}
	if from == to {
		return true
	}

	visited := map[capability.ID]bool{from: true}
	frontier := []capability.ID{from}
	for len(frontier) > 0 {
		current := frontier[0]
		frontier = frontier[1:]
		for _, e := range g.out[current] {
			if e.To == to {
				return true
			}
			if !visited[e.To] {
				visited[e.To] = true
				frontier = append(frontier, e.To)
			}
		}
	}
	return false
}

// ShortestPath returns the node sequence of a shortest path from from to
// to (inclusive of both endpoints), or nil if no path exists. Uses BFS
// with parent tracking, so the result is minimal in edge count.
func (g *Graph) ShortestPath(from, to capability.ID) []capability.ID {
	if _, ok := g.nodes[from]; !ok {
		return nil
	}
	if _, ok := g.nodes[to]; !ok {
		return nil
	}
	if from == to {
		return []capability.ID{from}
	}

	parent := map[capability.ID]capability.ID{}
	visited := map[capability.ID]bool{from: true}
	frontier := []capability.ID{from}
	for len(frontier) > 0 {
		current := frontier[0]
		frontier = frontier[1:]
		for _, e := range g.out[current] {
			if visited[e.To] {
				continue
			}
			visited[e.To] = true
			parent[e.To] = current
			if e.To == to {
				return buildPath(parent, from, to)
			}
			frontier = append(frontier, e.To)
		}
	}
	return nil
}

// buildPath reconstructs the path from parent pointers.
func buildPath(parent map[capability.ID]capability.ID, from, to capability.ID) []capability.ID {
	var reversed []capability.ID
	for current := to; ; current = parent[current] {
		reversed = append(reversed, current)
		if current == from {
			break
		}
	}
	path := make([]capability.ID, len(reversed))
	for i, id := range reversed {
		path[len(reversed)-1-i] = id
	}
	return path
}

// FindAllPaths enumerates every simple path from from to to with at most
// maxDepth edges, via bounded DFS. The result is deterministic for a
// given construction order.
func (g *Graph) FindAllPaths(from, to capability.ID, maxDepth int) [][]capability.ID {
	if _, ok := g.nodes[from]; !ok {
		return nil
	}
	if _, ok := g.nodes[to]; !ok {
		return nil
	}

	var paths [][]capability.ID
	onPath := map[capability.ID]bool{from: true}
	current := []capability.ID{from}

	var dfs func(node capability.ID, depth int)
	dfs = func(node capability.ID, depth int) {
		if node == to {
			path := make([]capability.ID, len(current))
			copy(path, current)
			paths = append(paths, path)
			return
		}
		if depth >= maxDepth {
			return
		}
		for _, e := range g.out[node] {
			if onPath[e.To] {
				continue
			}
			onPath[e.To] = true
			current = append(current, e.To)
			dfs(e.To, depth+1)
			current = current[:len(current)-1]
			onPath[e.To] = false
		}
	}
	dfs(from, 0)
	return paths
}

// Dominates reports whether a dominates b: either an explicit Dominates
// edge a→b exists, or a's declared effect set is a strict superset of b's.
func (g *Graph) Dominates(a, b capability.ID) bool {
	nodeA, nodeB := g.nodes[a], g.nodes[b]
	if nodeA == nil || nodeB == nil {
		return false
	}
	for _, e := range g.out[a] {
		if e.Kind == EdgeDominates && e.To == b {
			return true
		}
	}
	return strictSuperset(nodeA.Effects, nodeB.Effects)
}

// strictSuperset reports whether a's effect set strictly contains b's.
func strictSuperset(a, b []capability.EffectType) bool {
	setA := make(map[capability.EffectType]bool, len(a))
	for _, e := range a {
		setA[e] = true
	}
	setB := make(map[capability.EffectType]bool, len(b))
	for _, e := range b {
		setB[e] = true
	}
	if len(setA) <= len(setB) {
		return false
	}
	for e := range setB {
		if !setA[e] {
			return false
		}
	}
	return true
}

// AreEquivalent reports whether an Equivalent edge exists between a and b
// in either direction. The relation is symmetric by construction, not by
// storing both directions.
func (g *Graph) AreEquivalent(a, b capability.ID) bool {
	for _, e := range g.out[a] {
		if e.Kind == EdgeEquivalent && e.To == b {
			return true
		}
	}
	for _, e := range g.out[b] {
		if e.Kind == EdgeEquivalent && e.To == a {
			return true
		}
	}
	return false
}

// EquivalenceClasses partitions all nodes into classes connected by
// Equivalent edges (treated as undirected). Classes and their members are
// sorted for deterministic output.
func (g *Graph) EquivalenceClasses() [][]capability.ID {
	assigned := make(map[capability.ID]bool, len(g.nodes))
	var classes [][]capability.ID

	for _, id := range g.IDs() {
		if assigned[id] {
			continue
		}
		// BFS over Equivalent edges in both directions.
		class := []capability.ID{id}
		assigned[id] = true
		frontier := []capability.ID{id}
		for len(frontier) > 0 {
			current := frontier[0]
			frontier = frontier[1:]
			neighbors := equivalentNeighbors(g, current)
			for _, n := range neighbors {
				if !assigned[n] {
					assigned[n] = true
					class = append(class, n)
					frontier = append(frontier, n)
				}
			}
		}
		sort.Slice(class, func(i, j int) bool { return class[i].Less(class[j]) })
		classes = append(classes, class)
	}
	return classes
}

func equivalentNeighbors(g *Graph, id capability.ID) []capability.ID {
	var neighbors []capability.ID
	for _, e := range g.out[id] {
		if e.Kind == EdgeEquivalent {
			neighbors = append(neighbors, e.To)
		}
	}
	for _, e := range g.in[id] {
		if e.Kind == EdgeEquivalent {
			neighbors = append(neighbors, e.From)
		}
	}
	return neighbors
}

// FindMinimalComposition finds the shortest path between any node whose
// input schema accepts inputSchema and any node whose output schema
// produces outputSchema.
//
// Schema compatibility is exact string match, with "any" on either side
// matching everything. Fails with INVALID_PATH when no accepting or
// producing node exists, or when no path connects them.
func (g *Graph) FindMinimalComposition(inputSchema, outputSchema string) ([]capability.ID, error) {
	var sources, sinks []capability.ID
	for _, id := range g.IDs() {
		n := g.nodes[id]
		if schemaCompatible(n.InputSchema, inputSchema) {
			sources = append(sources, id)
		}
		if schemaCompatible(n.OutputSchema, outputSchema) {
			sinks = append(sinks, id)
		}
	}
	if len(sources) == 0 {
		return nil, &Error{Code: ErrCodeInvalidPath, Message: "no capability accepts input schema " + inputSchema}
	}
	if len(sinks) == 0 {
		return nil, &Error{Code: ErrCodeInvalidPath, Message: "no capability produces output schema " + outputSchema}
	}

	var best []capability.ID
	for _, src := range sources {
		for _, sink := range sinks {
			path := g.ShortestPath(src, sink)
			if path == nil {
				continue
			}
			if best == nil || len(path) < len(best) {
				best = path
			}
		}
	}
	if best == nil {
		return nil, &Error{Code: ErrCodeInvalidPath, Message: "no composition path from " + inputSchema + " to " + outputSchema}
	}
	return best, nil
}

// schemaCompatible reports whether a node schema satisfies a requested
// schema. "any" is a wildcard on either side; otherwise comparison is
// exact.
func schemaCompatible(nodeSchema, requested string) bool {
	if nodeSchema == "any" || requested == "any" {
		return true
	}
	return nodeSchema == requested
}

// DetectCycles returns one representative cycle over non-Equivalent edges
// as a CYCLE_DETECTED error, or nil if the graph (ignoring equivalence
// edges) is acyclic. Composition planning treats dependency cycles as
// configuration mistakes and reports them up front.
func (g *Graph) DetectCycles() error {
	const (
		unvisited = 0
		active    = 1
		done      = 2
	)
	state := make(map[capability.ID]int, len(g.nodes))

	var visit func(id capability.ID) *Error
	visit = func(id capability.ID) *Error {
		state[id] = active
		for _, e := range g.out[id] {
			if e.Kind == EdgeEquivalent {
				continue
			}
			switch state[e.To] {
			case active:
				return &Error{Code: ErrCodeCycleDetected, ID: e.To, Message: "dependency cycle through capability"}
			case unvisited:
				if err := visit(e.To); err != nil {
					return err
				}
			}
		}
		state[id] = done
		return nil
	}

	for _, id := range g.IDs() {
		if state[id] == unvisited {
			if err := visit(id); err != nil {
				return err
			}
		}
	}
	return nil
}
