package graph

import (
	"sort"

	"github.com/seanchatmangpt/sigil/internal/capability"
)

// EdgeKind types the relationship between two capability nodes.
type EdgeKind int

const (
	// EdgeProduces means the source's output feeds the target's input.
	EdgeProduces EdgeKind = iota + 1
	// EdgeRequires means the source cannot run until the target has.
	EdgeRequires
	// EdgeEquivalent means the two capabilities are interchangeable.
	EdgeEquivalent
	// EdgeDominates means the source subsumes the target's effects.
	EdgeDominates
	// EdgeCustom carries a caller-defined relationship via the edge label.
	EdgeCustom
)

// String returns the wire name of the edge kind.
func (k EdgeKind) String() string {
	switch k {
	case EdgeProduces:
		return "produces"
	case EdgeRequires:
		return "requires"
	case EdgeEquivalent:
		return "equivalent"
	case EdgeDominates:
		return "dominates"
	case EdgeCustom:
		return "custom"
	default:
		return "unknown"
	}
}

// Node is a capability vertex with its schemas and effect profile.
type Node struct {
	ID           capability.ID
	Name         string
	InputSchema  string
	OutputSchema string
	Effects      []capability.EffectType
	Cost         int64
	Reliability  float64
}

// Edge is a typed directed edge between two capability nodes.
type Edge struct {
	From  capability.ID
	To    capability.ID
	Kind  EdgeKind
	Label string // only meaningful for EdgeCustom
}

// Graph is a directed graph over registered capabilities.
//
// It answers reachability, path, dominance, and equivalence queries for
// the certificate pipeline and for composition planning. Lookup by ID is
// O(1); adjacency is tracked in both directions.
//
// Mutation happens only through AddNode/AddEdge. The graph is not
// internally synchronized: build it up front, then share it read-only.
type Graph struct {
	nodes map[capability.ID]*Node
	out   map[capability.ID][]Edge
	in    map[capability.ID][]Edge
	order []capability.ID // insertion order, for deterministic iteration
}

// New creates an empty capability graph.
func New() *Graph {
	return &Graph{
		nodes: make(map[capability.ID]*Node),
		out:   make(map[capability.ID][]Edge),
		in:    make(map[capability.ID][]Edge),
	}
}

// AddNode inserts a capability node. Re-adding an existing ID replaces
// its metadata but keeps its edges.
func (g *Graph) AddNode(n Node) {
	if _, exists := g.nodes[n.ID]; !exists {
		g.order = append(g.order, n.ID)
	}
	stored := n
	g.nodes[n.ID] = &stored
}

// AddEdge inserts a typed edge. Both endpoints must already exist.
func (g *Graph) AddEdge(e Edge) error {
	if _, ok := g.nodes[e.From]; !ok {
		return &Error{Code: ErrCodeNodeNotFound, ID: e.From, Message: "edge source not in graph"}
	}
	if _, ok := g.nodes[e.To]; !ok {
		return &Error{Code: ErrCodeNodeNotFound, ID: e.To, Message: "edge target not in graph"}
	}
	g.out[e.From] = append(g.out[e.From], e)
	g.in[e.To] = append(g.in[e.To], e)
	return nil
}

// Node returns the node for an ID, or nil if absent.
func (g *Graph) Node(id capability.ID) *Node {
	return g.nodes[id]
}

// Len returns the number of nodes.
func (g *Graph) Len() int { return len(g.nodes) }

// IDs returns all node IDs in sorted order.
func (g *Graph) IDs() []capability.ID {
	ids := make([]capability.ID, 0, len(g.nodes))
	for id := range g.nodes {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].Less(ids[j]) })
	return ids
}

// AvailableSet returns the node IDs as a set. This is the availability
// set consumed by the certificate pipeline's capability check.
func (g *Graph) AvailableSet() map[capability.ID]struct{} {
	set := make(map[capability.ID]struct{}, len(g.nodes))
	for id := range g.nodes {
		set[id] = struct{}{}
	}
	return set
}

// OutEdges returns the outgoing edges of a node.
func (g *Graph) OutEdges(id capability.ID) []Edge { return g.out[id] }

// InEdges returns the incoming edges of a node.
func (g *Graph) InEdges(id capability.ID) []Edge { return g.in[id] }
