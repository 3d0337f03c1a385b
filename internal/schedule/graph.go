package schedule

import (
	"bytes"
	"sort"

	"github.com/google/uuid"
)

// halfEdge is one directed constraint as seen from one endpoint. node is
// the dense index of the other endpoint: the successor in out-adjacency,
// the predecessor in in-adjacency.
type halfEdge struct {
	node int32
	rel  Relation
	lag  int
}

// Graph is an arena-backed dependency graph for one project. Nodes are
// addressed by dense int32 indices assigned in external-id order, which
// keeps traversal cache-friendly and every pass deterministic. The dense
// arrays are never mutated after Build returns.
type Graph struct {
	ids      []uuid.UUID
	index    map[uuid.UUID]int32
	duration []int
	anchor   []int
	anchored []bool
	locked   []bool
	out      [][]halfEdge
	in       [][]halfEdge
	edges    int
}

// Build materializes the dependency graph for one project. It rejects
// edges referencing unknown node ids (InvalidDependencyError), negative
// durations (DurationNegativeError) and self-loops (CycleDetectedError
// with the single offending id). Duplicate edges are kept; they are
// redundant constraints that still have to hold.
func Build(nodes []NodeInput, edges []EdgeInput) (*Graph, error) {
	ordered := make([]NodeInput, len(nodes))
	copy(ordered, nodes)
	sort.Slice(ordered, func(i, j int) bool {
		return bytes.Compare(ordered[i].ID[:], ordered[j].ID[:]) < 0
	})

	g := &Graph{
		ids:      make([]uuid.UUID, len(ordered)),
		index:    make(map[uuid.UUID]int32, len(ordered)),
		duration: make([]int, len(ordered)),
		anchor:   make([]int, len(ordered)),
		anchored: make([]bool, len(ordered)),
		locked:   make([]bool, len(ordered)),
		out:      make([][]halfEdge, len(ordered)),
		in:       make([][]halfEdge, len(ordered)),
	}

	for i, n := range ordered {
		if n.Duration < 0 {
			return nil, &DurationNegativeError{NodeID: n.ID}
		}
		idx := int32(i)
		g.ids[idx] = n.ID
		g.index[n.ID] = idx
		g.duration[idx] = n.Duration
		if n.AnchorStart != nil {
			g.anchor[idx] = *n.AnchorStart
			g.anchored[idx] = true
		}
		g.locked[idx] = n.BaselineLocked
	}

	for _, e := range edges {
		pred, ok := g.index[e.PredecessorID]
		if !ok {
			return nil, &InvalidDependencyError{DanglingID: e.PredecessorID}
		}
		succ, ok := g.index[e.SuccessorID]
		if !ok {
			return nil, &InvalidDependencyError{DanglingID: e.SuccessorID}
		}
		if pred == succ {
			return nil, &CycleDetectedError{NodeIDs: []uuid.UUID{e.PredecessorID}}
		}
		g.out[pred] = append(g.out[pred], halfEdge{node: succ, rel: e.Relation, lag: e.Lag})
		g.in[succ] = append(g.in[succ], halfEdge{node: pred, rel: e.Relation, lag: e.Lag})
		g.edges++
	}

	// Adjacency in dense-index order so tie-breaking never depends on
	// input edge order.
	for i := range g.out {
		sortHalfEdges(g.out[i])
		sortHalfEdges(g.in[i])
	}

	return g, nil
}

func sortHalfEdges(es []halfEdge) {
	sort.SliceStable(es, func(a, b int) bool { return es[a].node < es[b].node })
}

// Len returns the number of nodes.
func (g *Graph) Len() int { return len(g.ids) }

// EdgeCount returns the number of edges, duplicates included.
func (g *Graph) EdgeCount() int { return g.edges }

// ID maps a dense index back to the external node id.
func (g *Graph) ID(idx int32) uuid.UUID { return g.ids[idx] }
