package db

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/formationvault-backend/internal/domain/vault"
)

func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(
		&vault.LedgerEntry{},
		&vault.VaultRecord{},
		&vault.AccessLog{},
	)
}

// EnsureLedgerIndexes adds lookups AutoMigrate cannot express. Both statements
// are valid in Postgres and SQLite.
func EnsureLedgerIndexes(db *gorm.DB) error {
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_ledger_user_company_updated
		ON document_ledger_entry (user_id, company_id, updated_at DESC);
	`).Error; err != nil {
		return fmt.Errorf("create idx_ledger_user_company_updated: %w", err)
	}
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_access_log_requester_created
		ON document_access_log (requester_id, created_at DESC);
	`).Error; err != nil {
		return fmt.Errorf("create idx_access_log_requester_created: %w", err)
	}
	return nil
}

func (s *PostgresService) AutoMigrateAll() error {
	s.log.Info("Auto migrating postgres tables...")
	if err := AutoMigrateAll(s.db); err != nil {
		s.log.Error("Auto migration failed", "error", err)
		return err
	}
	if err := EnsureLedgerIndexes(s.db); err != nil {
		s.log.Error("Ledger index migration failed", "error", err)
		return err
	}
	return nil
}
