package testutil

import (
	"context"
	"testing"

	"gorm.io/gorm"

	"github.com/yungbote/formationvault-backend/internal/domain/vault"
)

func SeedLedgerEntry(tb testing.TB, ctx context.Context, tx *gorm.DB, userID, companyID, documentID, storageKey string) *vault.LedgerEntry {
	tb.Helper()
	e := &vault.LedgerEntry{
		UserID:     userID,
		CompanyID:  companyID,
		DocumentID: documentID,
		Name:       documentID,
		Kind:       "formation",
		StorageKey: storageKey,
		Status:     vault.StatusGenerated,
	}
	if err := tx.WithContext(ctx).Create(e).Error; err != nil {
		tb.Fatalf("seed ledger entry: %v", err)
	}
	return e
}

func SeedVault(tb testing.TB, ctx context.Context, tx *gorm.DB, userID, companyID, vaultPath string) *vault.VaultRecord {
	tb.Helper()
	v := &vault.VaultRecord{
		UserID:      userID,
		CompanyID:   companyID,
		CompanyName: companyID,
		VaultPath:   vaultPath,
	}
	if err := tx.WithContext(ctx).Create(v).Error; err != nil {
		tb.Fatalf("seed vault: %v", err)
	}
	return v
}
