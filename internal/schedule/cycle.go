package schedule

import "github.com/google/uuid"

// Three-color marks for the iterative depth-first search.
const (
	colorWhite = iota // unvisited
	colorGray         // on the traversal stack
	colorBlack        // finished
)

// dfsFrame tracks one node on the explicit DFS stack together with the
// next out-edge to explore. An explicit stack keeps the detector immune
// to recursion-depth limits on large graphs.
type dfsFrame struct {
	node int32
	next int
}

// FindCycle validates that the graph is a DAG. It returns nil for acyclic
// graphs, including ones with isolated or multi-root components. On the
// first edge into an on-stack node it reconstructs the full cycle and
// returns a CycleDetectedError listing its members in traversal order.
func (g *Graph) FindCycle() *CycleDetectedError {
	color := make([]int8, g.Len())
	stack := make([]dfsFrame, 0, 16)

	for root := int32(0); root < int32(g.Len()); root++ {
		if color[root] != colorWhite {
			continue
		}
		color[root] = colorGray
		stack = append(stack[:0], dfsFrame{node: root})

		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			if top.next < len(g.out[top.node]) {
				succ := g.out[top.node][top.next].node
				top.next++
				switch color[succ] {
				case colorWhite:
					color[succ] = colorGray
					stack = append(stack, dfsFrame{node: succ})
				case colorGray:
					return &CycleDetectedError{NodeIDs: g.cycleFrom(stack, succ)}
				}
				continue
			}
			color[top.node] = colorBlack
			stack = stack[:len(stack)-1]
		}
	}
	return nil
}

// cycleFrom collects the ordered node ids of the cycle closed by an edge
// from the top of the stack back to entry.
func (g *Graph) cycleFrom(stack []dfsFrame, entry int32) []uuid.UUID {
	start := 0
	for i := range stack {
		if stack[i].node == entry {
			start = i
			break
		}
	}
	ids := make([]uuid.UUID, 0, len(stack)-start)
	for _, f := range stack[start:] {
		ids = append(ids, g.ids[f.node])
	}
	return ids
}
