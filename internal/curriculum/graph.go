package curriculum

import (
	"fmt"
	"slices"
	"sort"

	"github.com/sankofa-learn/sankofa/internal/domain"
)

// Graph holds the curriculum DAG with precomputed indices.
// Built once at startup; read-only afterwards.
type Graph struct {
	nodes    []Node
	byCode   map[string]*Node
	byGrade  map[string][]Node
	outgoing map[string][]Edge
	cascades []CascadePath
}

// NewGraph constructs a Graph from nodes, edges, and cascade paths.
// It validates the inputs and precomputes the per-node outgoing edge
// lists ordered by target severity descending.
func NewGraph(nodes []Node, edges []Edge, cascades []CascadePath) (*Graph, error) {
	if err := validate(nodes, edges, cascades); err != nil {
		return nil, err
	}

	g := &Graph{
		nodes:    slices.Clone(nodes),
		byCode:   make(map[string]*Node, len(nodes)),
		byGrade:  make(map[string][]Node),
		outgoing: make(map[string][]Edge),
		cascades: slices.Clone(cascades),
	}

	for i := range g.nodes {
		n := &g.nodes[i]
		g.byCode[n.Code] = n
		g.byGrade[n.Grade] = append(g.byGrade[n.Grade], *n)
	}

	for _, e := range edges {
		g.outgoing[e.Source] = append(g.outgoing[e.Source], e)
	}

	// Order each outgoing list by target severity descending so backward
	// tracing probes the most foundational prerequisite first. Ties keep
	// input order (stable).
	for src, out := range g.outgoing {
		sort.SliceStable(out, func(i, j int) bool {
			return g.byCode[out[i].Target].Severity > g.byCode[out[j].Target].Severity
		})
		g.outgoing[src] = out
	}

	return g, nil
}

// Node returns the node with the given code.
func (g *Graph) Node(code string) (Node, error) {
	n, ok := g.byCode[code]
	if !ok {
		return Node{}, fmt.Errorf("curriculum node not found: %q", code)
	}
	return *n, nil
}

// Has reports whether a node code exists in the graph.
func (g *Graph) Has(code string) bool {
	_, ok := g.byCode[code]
	return ok
}

// Nodes returns all nodes.
func (g *Graph) Nodes() []Node {
	return slices.Clone(g.nodes)
}

// ByGrade returns the nodes belonging to a grade code.
func (g *Graph) ByGrade(grade string) []Node {
	return slices.Clone(g.byGrade[grade])
}

// Prerequisites returns the outgoing prerequisite edges of a node,
// ordered by target severity descending.
func (g *Graph) Prerequisites(code string) []Edge {
	return slices.Clone(g.outgoing[code])
}

// PrerequisiteNodes resolves Prerequisites to their target nodes,
// preserving the severity ordering.
func (g *Graph) PrerequisiteNodes(code string) []Node {
	out := g.outgoing[code]
	nodes := make([]Node, 0, len(out))
	for _, e := range out {
		nodes = append(nodes, *g.byCode[e.Target])
	}
	return nodes
}

// Cascades returns all cascade paths in their defined order.
func (g *Graph) Cascades() []CascadePath {
	return slices.Clone(g.cascades)
}

// CascadeContaining returns the first cascade whose sequence includes
// the node, or false if none does. First match wins; a node belonging
// to several cascades resolves to the earliest defined one.
func (g *Graph) CascadeContaining(code string) (CascadePath, bool) {
	for _, c := range g.cascades {
		if c.Contains(code) {
			return c, true
		}
	}
	return CascadePath{}, false
}

// LowestGrade returns the smallest grade code present in the graph,
// comparing numeric suffixes ("B1" < "B2").
func (g *Graph) LowestGrade() string {
	lowest := ""
	for grade := range g.byGrade {
		if lowest == "" || gradeLess(grade, lowest) {
			lowest = grade
		}
	}
	return lowest
}

func gradeLess(a, b string) bool {
	// Grade codes share a one-letter prefix; compare numeric suffixes,
	// falling back to string order for malformed codes.
	na, errA := domain.GradeNumber(a)
	nb, errB := domain.GradeNumber(b)
	if errA != nil || errB != nil {
		return a < b
	}
	return na < nb
}
