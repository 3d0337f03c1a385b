package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ScheduleNode is one schedulable unit: a budget line item or a milestone
// (duration zero). Identity, duration, anchor and the baseline lock come
// from the surrounding CRUD system; the six computed date fields are owned
// by the engine and written only during a committed calculation run.
// Dates are integer period offsets from the project schedule origin.
type ScheduleNode struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	ProjectID      uuid.UUID `gorm:"type:uuid;index;not null" json:"project_id" validate:"required"`
	Name           string    `gorm:"not null" json:"name" validate:"required"`
	Kind           string    `gorm:"type:varchar(16);not null;default:'cost_item'" json:"kind" validate:"required,oneof=cost_item milestone"`
	Duration       int       `gorm:"not null;default:0" json:"duration" validate:"gte=0"`
	AnchorStart    *int      `json:"anchor_start"`
	BaselineLocked bool      `gorm:"not null;default:false" json:"baseline_locked"`

	EarlyStart   *int       `json:"early_start"`
	EarlyFinish  *int       `json:"early_finish"`
	LateStart    *int       `json:"late_start"`
	LateFinish   *int       `json:"late_finish"`
	TotalFloat   *int       `json:"total_float"`
	FreeFloat    *int       `json:"free_float"`
	IsCritical   bool       `gorm:"not null;default:false" json:"is_critical"`
	CalculatedAt *time.Time `json:"calculated_at"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
