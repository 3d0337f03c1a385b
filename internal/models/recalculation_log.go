package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// RecalculationLog is one append-only audit entry written by the
// persistence guard on every committed calculation run. Changes holds the
// before/after date diff for every node whose persisted dates moved;
// Checksum is the sha256 of the canonical result encoding, which makes
// run idempotence observable. Rows are never updated.
type RecalculationLog struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	ProjectID   uuid.UUID      `gorm:"type:uuid;index;not null" json:"project_id"`
	TriggeredBy datatypes.JSON `gorm:"type:jsonb" json:"triggered_by"`
	DryRun      bool           `gorm:"not null;default:false" json:"dry_run"`
	Changes     datatypes.JSON `gorm:"type:jsonb" json:"changes"`
	Checksum    string         `gorm:"type:varchar(64);not null" json:"checksum"`
	CreatedAt   time.Time      `json:"created_at"`
}

// NodeChange is one entry of RecalculationLog.Changes.
type NodeChange struct {
	NodeID  uuid.UUID `json:"node_id"`
	Before  *DateSet  `json:"before"`
	After   DateSet   `json:"after"`
	Skipped bool      `json:"skipped,omitempty"` // baseline-locked, not overridden
}

// DateSet is the persisted computed-date tuple of one node.
type DateSet struct {
	EarlyStart  int  `json:"early_start"`
	EarlyFinish int  `json:"early_finish"`
	LateStart   int  `json:"late_start"`
	LateFinish  int  `json:"late_finish"`
	TotalFloat  int  `json:"total_float"`
	FreeFloat   int  `json:"free_float"`
	IsCritical  bool `json:"is_critical"`
}
