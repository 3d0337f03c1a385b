package schedule

import "github.com/google/uuid"

// topoOrder returns a topological ordering of all nodes via Kahn's
// algorithm. The ready queue is seeded and drained in dense-index order,
// so the ordering is a pure function of the input set. Leftover nodes
// after the queue empties mean a cycle slipped past FindCycle; that is an
// internal consistency failure, surfaced as a CycleDetectedError over the
// unprocessed nodes rather than a panic.
func (g *Graph) topoOrder() ([]int32, *CycleDetectedError) {
	inDeg := make([]int, g.Len())
	for n := range g.in {
		inDeg[n] = len(g.in[n])
	}

	queue := make([]int32, 0, g.Len())
	for n := int32(0); n < int32(g.Len()); n++ {
		if inDeg[n] == 0 {
			queue = append(queue, n)
		}
	}

	order := make([]int32, 0, g.Len())
	for head := 0; head < len(queue); head++ {
		n := queue[head]
		order = append(order, n)
		for _, e := range g.out[n] {
			inDeg[e.node]--
			if inDeg[e.node] == 0 {
				queue = append(queue, e.node)
			}
		}
	}

	if len(order) != g.Len() {
		seen := make([]bool, g.Len())
		for _, n := range order {
			seen[n] = true
		}
		var stuck []uuid.UUID
		for n := int32(0); n < int32(g.Len()); n++ {
			if !seen[n] {
				stuck = append(stuck, g.ids[n])
			}
		}
		return nil, &CycleDetectedError{NodeIDs: stuck}
	}
	return order, nil
}
