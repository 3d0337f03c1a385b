package models

import (
	"time"

	"github.com/google/uuid"
)

// ScheduleDependency is one precedence constraint between two nodes of
// the same project. Relation is one of FS, SS, FF, SF; Lag is a signed
// period count (negative for lead time). Rows are immutable inputs to a
// calculation run.
type ScheduleDependency struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	ProjectID     uuid.UUID `gorm:"type:uuid;index;not null" json:"project_id" validate:"required"`
	PredecessorID uuid.UUID `gorm:"type:uuid;index;not null" json:"predecessor_id" validate:"required"`
	SuccessorID   uuid.UUID `gorm:"type:uuid;index;not null" json:"successor_id" validate:"required"`
	Relation      string    `gorm:"type:varchar(4);not null;default:'FS'" json:"relation" validate:"required,oneof=FS SS FF SF"`
	Lag           int       `gorm:"not null;default:0" json:"lag"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
