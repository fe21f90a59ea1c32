package db

import (
	"fmt"

	"gorm.io/gorm"

	types "github.com/yungbote/coursecatalog-backend/internal/domain"
)

func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(types.Models()...)
}

// EnsureCatalogIndexes adds Postgres-only partial indexes that AutoMigrate cannot express.
func EnsureCatalogIndexes(db *gorm.DB) error {
	if db.Dialector.Name() != "postgres" {
		return nil
	}
	// Choice generation scans unresolved rows.
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_requisite_unresolved
		ON requisite(requisite_type, created_at)
		WHERE "json" IS NULL;
	`).Error; err != nil {
		return fmt.Errorf("create idx_requisite_unresolved: %w", err)
	}
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_course_active_group
		ON course(course_group_id)
		WHERE active;
	`).Error; err != nil {
		return fmt.Errorf("create idx_course_active_group: %w", err)
	}
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_job_run_runnable
		ON job_run(created_at)
		WHERE status IN ('queued', 'failed', 'running');
	`).Error; err != nil {
		return fmt.Errorf("create idx_job_run_runnable: %w", err)
	}
	return nil
}

func (s *PostgresService) AutoMigrateAll() error {
	s.log.Info("Auto migrating postgres tables...")
	if err := AutoMigrateAll(s.db); err != nil {
		s.log.Error("Auto migration failed", "error", err)
		return err
	}
	if err := EnsureCatalogIndexes(s.db); err != nil {
		s.log.Error("Catalog index migration failed", "error", err)
		return err
	}
	return nil
}
