package types

// CalculateRequest is the body of POST /api/v1/schedule/calculate. Dates
// are integer period offsets from the project schedule origin.
type CalculateRequest struct {
	ProjectID           string   `json:"project_id" validate:"required,uuid4"`
	DryRun              bool     `json:"dry_run"`
	TargetFinishDate    *int     `json:"target_finish_date"`
	OverrideBaselineIDs []string `json:"override_baseline_ids" validate:"omitempty,dive,uuid4"`
}

// RecalculateRequest is the body of POST /api/v1/schedule/recalculate,
// which enqueues an asynchronous commit-mode recalculation.
type RecalculateRequest struct {
	ProjectID         string   `json:"project_id" validate:"required,uuid4"`
	TriggeringNodeIDs []string `json:"triggering_node_ids" validate:"omitempty,dive,uuid4"`
}
