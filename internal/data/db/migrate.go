package db

import (
	"fmt"

	"gorm.io/gorm"

	types "github.com/yungbote/meetingdesk-backend/internal/domain"
)

// Models lists every persisted model in dependency order.
func Models() []any {
	return []any{
		&types.Employee{},
		&types.Meeting{},
		&types.Asset{},
		&types.Artefact{},
	}
}

func AutoMigrateAll(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return EnsureIndexes(db)
}

// EnsureIndexes adds indexes gorm tags cannot express. Both statements are
// valid on Postgres and SQLite.
func EnsureIndexes(db *gorm.DB) error {
	if err := db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_employee_email_active
		ON employee(email)
		WHERE deleted_at IS NULL AND email <> '';
	`).Error; err != nil {
		return fmt.Errorf("create idx_employee_email_active: %w", err)
	}
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_artefact_asset_type_latest
		ON artefact(asset_id, type, version DESC);
	`).Error; err != nil {
		return fmt.Errorf("create idx_artefact_asset_type_latest: %w", err)
	}
	return nil
}
