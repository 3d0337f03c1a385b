package schedule

import "fmt"

// forwardPass computes earliest start/finish per node in topological
// order. A node with no predecessors starts at its anchor when present,
// else at period 0. A node with predecessors starts at the maximum
// constraint over all incoming edges; the binding constraint wins, which
// is why there is no notion of "the" predecessor. An anchor on a node
// that has predecessors is ignored with a warning.
func (g *Graph) forwardPass(order []int32, warn *[]string) (es, ef []int) {
	es = make([]int, g.Len())
	ef = make([]int, g.Len())

	for _, n := range order {
		if len(g.in[n]) == 0 {
			if g.anchored[n] {
				es[n] = g.anchor[n]
			} else {
				es[n] = 0
			}
		} else {
			if g.anchored[n] {
				*warn = append(*warn, fmt.Sprintf("anchor on node %s ignored: node has predecessors", g.ids[n]))
			}
			start := 0
			for i, e := range g.in[n] {
				c := forwardConstraint(e, es[e.node], ef[e.node], g.duration[n])
				if i == 0 || c > start {
					start = c
				}
			}
			es[n] = start
		}
		ef[n] = es[n] + g.duration[n]
	}
	return es, ef
}

// forwardConstraint is the earliest start the given incoming edge allows
// the successor, from the predecessor's early dates.
func forwardConstraint(e halfEdge, predES, predEF, succDuration int) int {
	switch e.rel {
	case FinishToStart:
		return predEF + e.lag
	case StartToStart:
		return predES + e.lag
	case FinishToFinish:
		return predEF + e.lag - succDuration
	case StartToFinish:
		return predES + e.lag - succDuration
	}
	// Relations are validated before the graph is built.
	return predEF + e.lag
}
