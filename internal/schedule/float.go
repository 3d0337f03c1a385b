package schedule

import "github.com/google/uuid"

// maxCriticalPaths bounds enumeration on graphs where many chains tie for
// zero float. Hitting the cap surfaces as a warning, not an error.
const maxCriticalPaths = 16

// classify derives total float, free float and the critical flag.
// total_float = LS - ES; since EF = ES + duration and LF = LS + duration
// hold by construction, LF - EF yields the same value (asserted in tests).
// free_float is the minimum successor gap over outgoing edges, generalized
// per relation type; sinks inherit their total float. Critical means
// exactly zero total float, integer equality.
func (g *Graph) classify(es, ef, ls []int) (tf, ff []int, critical []bool) {
	tf = make([]int, g.Len())
	ff = make([]int, g.Len())
	critical = make([]bool, g.Len())

	for n := 0; n < g.Len(); n++ {
		tf[n] = ls[n] - es[n]
		critical[n] = tf[n] == 0

		if len(g.out[n]) == 0 {
			ff[n] = tf[n]
			continue
		}
		slack := 0
		for i, e := range g.out[n] {
			gap := successorGap(e, es[n], ef[n], es[e.node], ef[e.node])
			if i == 0 || gap < slack {
				slack = gap
			}
		}
		ff[n] = slack
	}
	return tf, ff, critical
}

// successorGap is how far the node could slip before the given edge moves
// its successor's relevant early date.
func successorGap(e halfEdge, es, ef, succES, succEF int) int {
	switch e.rel {
	case FinishToStart:
		return succES - (ef + e.lag)
	case StartToStart:
		return succES - (es + e.lag)
	case FinishToFinish:
		return succEF - (ef + e.lag)
	case StartToFinish:
		return succEF - (es + e.lag)
	}
	return succES - (ef + e.lag)
}

// criticalPaths enumerates the maximal chains of critical nodes connected
// by binding edges, each running from a root (no predecessors) to a sink
// (no successors). An edge is binding when its forward constraint equals
// the successor's early start. Enumeration is depth-first in dense-index
// order, so path order is deterministic; it stops at maxCriticalPaths.
func (g *Graph) criticalPaths(es, ef []int, critical []bool, warn *[]string) [][]uuid.UUID {
	var paths [][]uuid.UUID
	truncated := false

	var walk func(n int32, chain []int32)
	walk = func(n int32, chain []int32) {
		if len(paths) >= maxCriticalPaths {
			truncated = true
			return
		}
		chain = append(chain, n)
		if len(g.out[n]) == 0 {
			path := make([]uuid.UUID, len(chain))
			for i, m := range chain {
				path[i] = g.ids[m]
			}
			paths = append(paths, path)
			return
		}
		for _, e := range g.out[n] {
			if !critical[e.node] {
				continue
			}
			if forwardConstraint(e, es[n], ef[n], g.duration[e.node]) != es[e.node] {
				continue
			}
			walk(e.node, chain)
		}
	}

	for n := int32(0); n < int32(g.Len()); n++ {
		if critical[n] && len(g.in[n]) == 0 {
			walk(n, nil)
		}
	}

	if truncated {
		*warn = append(*warn, "critical path enumeration truncated: more than 16 zero-float chains")
	}
	return paths
}
