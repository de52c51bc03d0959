package database

import (
	"fmt"

	"gorm.io/gorm"
)

// AddIndexes adds performance-critical indexes to the database
func AddIndexes(db *gorm.DB) error {
	indexes := []struct {
		table   string
		name    string
		columns string
	}{
		// Squad member lookups
		{"squad_members", "idx_squad_members_squad_id", "squad_id"},
		{"squad_members", "idx_squad_members_user_id", "user_id"},

		// Invite lookups by squad and by invitee
		{"squad_invites", "idx_squad_invites_squad_id", "squad_id"},
		{"squad_invites", "idx_squad_invites_invitee_id", "invitee_id"},
		{"squad_invites", "idx_squad_invites_status", "status"},

		// Position and application lookups
		{"open_positions", "idx_open_positions_squad_id", "squad_id"},
		{"open_positions", "idx_open_positions_expires_at", "expires_at"},
		{"applications", "idx_applications_position_id", "position_id"},
		{"applications", "idx_applications_applicant_id", "applicant_id"},
		{"applications", "idx_applications_status", "status"},

		// Notification feed
		{"notifications", "idx_notifications_user_id_read", "user_id, read"},
	}

	for _, idx := range indexes {
		var count int64
		err := db.Raw(`
			SELECT COUNT(*)
			FROM pg_indexes
			WHERE tablename = ? AND indexname = ?
		`, idx.table, idx.name).Count(&count).Error

		if err != nil {
			return fmt.Errorf("failed to check index %s: %w", idx.name, err)
		}

		if count > 0 {
			continue
		}

		sql := fmt.Sprintf("CREATE INDEX %s ON %s (%s)", idx.name, idx.table, idx.columns)
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}

		fmt.Printf("Created index %s on %s(%s)\n", idx.name, idx.table, idx.columns)
	}

	return nil
}

// AddUniquenessBackstops installs partial unique indexes enforcing the
// workflow uniqueness invariants at the storage layer, as a backstop against
// races the transaction boundaries might miss: one pending invite per
// (squad, invitee), one live application per (position, applicant).
func AddUniquenessBackstops(db *gorm.DB) error {
	statements := []string{
		`CREATE UNIQUE INDEX IF NOT EXISTS uniq_pending_invite_per_invitee
			ON squad_invites (squad_id, invitee_id)
			WHERE status = 'PENDING' AND deleted_at IS NULL`,
		`CREATE UNIQUE INDEX IF NOT EXISTS uniq_live_application_per_applicant
			ON applications (position_id, applicant_id)
			WHERE status IN ('PENDING', 'APPROVED') AND deleted_at IS NULL`,
	}

	for _, stmt := range statements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("failed to create uniqueness backstop: %w", err)
		}
	}

	return nil
}

// MigrateDatabase runs the post-AutoMigrate passes. The index passes use
// Postgres catalogs and partial indexes and are skipped for other drivers.
func MigrateDatabase(db *gorm.DB) error {
	if db.Dialector.Name() != "postgres" {
		return nil
	}

	if err := AddIndexes(db); err != nil {
		return fmt.Errorf("failed to add indexes: %w", err)
	}

	if err := AddUniquenessBackstops(db); err != nil {
		return fmt.Errorf("failed to add uniqueness backstops: %w", err)
	}

	return nil
}
