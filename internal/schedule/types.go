// Package schedule implements the critical-path-method engine for project
// timelines: dependency graph construction, cycle detection, forward and
// backward passes, and float/critical-path classification. All dates are
// integer period offsets from the project schedule origin (period 0); the
// package performs no I/O and touches no storage.
package schedule

import "github.com/google/uuid"

// Relation is a precedence relationship between two schedulable nodes.
type Relation string

const (
	FinishToStart  Relation = "FS"
	StartToStart   Relation = "SS"
	FinishToFinish Relation = "FF"
	StartToFinish  Relation = "SF"
)

// Valid reports whether r is one of the four standard relation types.
func (r Relation) Valid() bool {
	switch r {
	case FinishToStart, StartToStart, FinishToFinish, StartToFinish:
		return true
	}
	return false
}

// NodeInput is one schedulable unit supplied to a calculation run.
// Duration zero marks a milestone. AnchorStart pins the early start of a
// node that has no predecessors.
type NodeInput struct {
	ID             uuid.UUID
	Duration       int
	AnchorStart    *int
	BaselineLocked bool
}

// EdgeInput is one precedence constraint. Lag may be negative (lead time).
// Duplicate edges are tolerated as redundant constraints.
type EdgeInput struct {
	PredecessorID uuid.UUID
	SuccessorID   uuid.UUID
	Relation      Relation
	Lag           int
}

// NodeSchedule holds the computed dates for one node.
type NodeSchedule struct {
	ID             uuid.UUID `json:"id"`
	EarlyStart     int       `json:"early_start"`
	EarlyFinish    int       `json:"early_finish"`
	LateStart      int       `json:"late_start"`
	LateFinish     int       `json:"late_finish"`
	TotalFloat     int       `json:"total_float"`
	FreeFloat      int       `json:"free_float"`
	IsCritical     bool      `json:"is_critical"`
	BaselineLocked bool      `json:"-"`
}

// Result is the immutable snapshot produced by one calculation run. Nodes
// are ordered by external id so repeated runs over unchanged inputs are
// byte-identical.
type Result struct {
	Nodes         []NodeSchedule `json:"nodes"`
	CriticalPaths [][]uuid.UUID  `json:"critical_path"`
	Warnings      []string       `json:"warnings"`
}

// Schedule returns the computed dates for the given node id, or nil when
// the node was not part of the run.
func (r *Result) Schedule(id uuid.UUID) *NodeSchedule {
	for i := range r.Nodes {
		if r.Nodes[i].ID == id {
			return &r.Nodes[i]
		}
	}
	return nil
}

// Options tune a single calculation run.
type Options struct {
	// TargetFinish, when set, is the late finish imposed on every sink.
	// When nil the natural project end (max early finish among sinks) is
	// used and all floats are non-negative.
	TargetFinish *int
}
