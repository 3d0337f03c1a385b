package schedule

// backwardPass computes latest start/finish per node in reverse
// topological order. Sinks finish at the caller's target when supplied,
// else at the natural project end (maximum early finish among sinks).
// A node with successors finishes at the minimum constraint over all
// outgoing edges, the mirror of the forward rule.
func (g *Graph) backwardPass(order []int32, es, ef []int, target *int) (ls, lf []int) {
	ls = make([]int, g.Len())
	lf = make([]int, g.Len())

	end := 0
	if target != nil {
		end = *target
	} else {
		first := true
		for n := 0; n < g.Len(); n++ {
			if len(g.out[n]) != 0 {
				continue
			}
			if first || ef[n] > end {
				end = ef[n]
			}
			first = false
		}
	}

	for i := len(order) - 1; i >= 0; i-- {
		n := order[i]
		if len(g.out[n]) == 0 {
			lf[n] = end
		} else {
			finish := 0
			for j, e := range g.out[n] {
				c := backwardConstraint(e, ls[e.node], lf[e.node], g.duration[n])
				if j == 0 || c < finish {
					finish = c
				}
			}
			lf[n] = finish
		}
		ls[n] = lf[n] - g.duration[n]
	}
	return ls, lf
}

// backwardConstraint is the latest finish the given outgoing edge allows
// the predecessor, from the successor's late dates.
func backwardConstraint(e halfEdge, succLS, succLF, predDuration int) int {
	switch e.rel {
	case FinishToStart:
		return succLS - e.lag
	case StartToStart:
		return succLS - e.lag + predDuration
	case FinishToFinish:
		return succLF - e.lag
	case StartToFinish:
		return succLF - e.lag + predDuration
	}
	return succLS - e.lag
}
