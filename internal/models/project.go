package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Project represents one underwriting project whose timeline the engine
// schedules. Ownership and access control live in the surrounding system.
type Project struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Name        string         `gorm:"not null;uniqueIndex:idx_projects_name" json:"name" validate:"required"`
	Description string         `gorm:"type:text" json:"description"`
	Settings    datatypes.JSON `gorm:"type:jsonb" json:"settings"`
	Archived    bool           `gorm:"not null;default:false;index" json:"archived"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}
