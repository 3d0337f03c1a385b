package schedule

import (
	"context"
	"fmt"
	"time"
)

// Calculate runs the full critical-path computation over a validated,
// acyclic graph: topological ordering, forward pass, backward pass, float
// classification and critical-path extraction. The context deadline is
// checked between passes; exceeding it aborts with a TimeoutError and no
// result. Callers run FindCycle first — a cycle surfacing here means the
// detector and Kahn's algorithm disagree, and the run still aborts cleanly.
func Calculate(ctx context.Context, g *Graph, opts Options) (*Result, error) {
	started := time.Now()
	warnings := []string{}

	order, cyc := g.topoOrder()
	if cyc != nil {
		return nil, cyc
	}
	if err := checkBudget(ctx, started); err != nil {
		return nil, err
	}

	es, ef := g.forwardPass(order, &warnings)
	if err := checkBudget(ctx, started); err != nil {
		return nil, err
	}

	naturalEnd := 0
	for n := 0; n < g.Len(); n++ {
		if len(g.out[n]) == 0 && ef[n] > naturalEnd {
			naturalEnd = ef[n]
		}
	}
	if opts.TargetFinish != nil && *opts.TargetFinish < naturalEnd {
		warnings = append(warnings, fmt.Sprintf(
			"target finish %d precedes the natural project end %d: some floats are negative",
			*opts.TargetFinish, naturalEnd))
	}

	ls, lf := g.backwardPass(order, es, ef, opts.TargetFinish)
	if err := checkBudget(ctx, started); err != nil {
		return nil, err
	}

	tf, ff, critical := g.classify(es, ef, ls)
	paths := g.criticalPaths(es, ef, critical, &warnings)

	nodes := make([]NodeSchedule, g.Len())
	for n := 0; n < g.Len(); n++ {
		nodes[n] = NodeSchedule{
			ID:             g.ids[n],
			EarlyStart:     es[n],
			EarlyFinish:    ef[n],
			LateStart:      ls[n],
			LateFinish:     lf[n],
			TotalFloat:     tf[n],
			FreeFloat:      ff[n],
			IsCritical:     critical[n],
			BaselineLocked: g.locked[n],
		}
	}

	return &Result{Nodes: nodes, CriticalPaths: paths, Warnings: warnings}, nil
}

func checkBudget(ctx context.Context, started time.Time) error {
	select {
	case <-ctx.Done():
		return &TimeoutError{Reason: "wall-clock budget exceeded", Elapsed: time.Since(started)}
	default:
		return nil
	}
}
