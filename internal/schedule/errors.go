package schedule

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// InvalidDependencyError reports an edge referencing a node id that is not
// among the supplied nodes.
type InvalidDependencyError struct {
	DanglingID uuid.UUID
}

func (e *InvalidDependencyError) Error() string {
	return fmt.Sprintf("dependency references unknown node %s", e.DanglingID)
}

// DurationNegativeError reports a node with a negative duration.
type DurationNegativeError struct {
	NodeID uuid.UUID
}

func (e *DurationNegativeError) Error() string {
	return fmt.Sprintf("node %s has negative duration", e.NodeID)
}

// CycleDetectedError reports a directed cycle in the dependency graph.
// NodeIDs lists the members of the cycle in traversal order; a self-loop
// yields a single id.
type CycleDetectedError struct {
	NodeIDs []uuid.UUID
}

func (e *CycleDetectedError) Error() string {
	ids := make([]string, len(e.NodeIDs))
	for i, id := range e.NodeIDs {
		ids[i] = id.String()
	}
	return fmt.Sprintf("circular dependency among nodes: %s", strings.Join(ids, " -> "))
}

// TimeoutError reports that a run exceeded the node/edge cap or the
// wall-clock budget. No partial state was written.
type TimeoutError struct {
	Reason  string
	Elapsed time.Duration
}

func (e *TimeoutError) Error() string {
	if e.Elapsed > 0 {
		return fmt.Sprintf("calculation aborted: %s after %s", e.Reason, e.Elapsed)
	}
	return fmt.Sprintf("calculation aborted: %s", e.Reason)
}
