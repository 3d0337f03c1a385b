package main

import (
	"gorm.io/gorm"

	"github.com/proforma-studio/engine/internal/models"
)

// registerModels returns all models that need migration
func registerModels() []interface{} {
	return []interface{}{
		&models.Project{},
		&models.ScheduleNode{},
		&models.ScheduleDependency{},
		&models.RecalculationLog{},
	}
}

// runMigrations executes all database migrations
func runMigrations(db *gorm.DB) error {
	models := registerModels()

	if err := db.AutoMigrate(models...); err != nil {
		return err
	}

	return runCustomMigrations(db)
}

// runCustomMigrations handles schema changes AutoMigrate can't handle
func runCustomMigrations(db *gorm.DB) error {
	migrations := []func(*gorm.DB) error{
		enableUUIDExtension,
		addDependencyIndexes,
		addLogIndexes,
	}

	for _, migration := range migrations {
		if err := migration(db); err != nil {
			return err
		}
	}

	return nil
}

// enableUUIDExtension ensures UUID generation is available
func enableUUIDExtension(db *gorm.DB) error {
	return db.Exec(`CREATE EXTENSION IF NOT EXISTS "pgcrypto"`).Error
}

// addDependencyIndexes makes the per-project edge scan cheap. Duplicate
// edges are tolerated by the engine, so the index is not unique.
func addDependencyIndexes(db *gorm.DB) error {
	return db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_schedule_deps_project_pred_succ
		ON schedule_dependencies(project_id, predecessor_id, successor_id, relation)
	`).Error
}

// addLogIndexes speeds up newest-first log reads per project.
func addLogIndexes(db *gorm.DB) error {
	return db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_recalculation_logs_project_created
		ON recalculation_logs(project_id, created_at DESC)
	`).Error
}
