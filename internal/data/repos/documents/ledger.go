package documents

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yungbote/formationvault-backend/internal/domain/vault"
	"github.com/yungbote/formationvault-backend/internal/platform/logger"
)

type LedgerRepo interface {
	GetDocuments(ctx context.Context, tx *gorm.DB, userID string) ([]*vault.LedgerEntry, error)
	GetDocumentsForCompany(ctx context.Context, tx *gorm.DB, userID, companyID string) ([]*vault.LedgerEntry, error)
	GetDocument(ctx context.Context, tx *gorm.DB, userID, companyID, documentID string) (*vault.LedgerEntry, error)
	FindByCompanyDocument(ctx context.Context, tx *gorm.DB, companyID, documentID string) ([]*vault.LedgerEntry, error)
	SaveDocuments(ctx context.Context, tx *gorm.DB, userID, companyID string, entries []*vault.LedgerEntry) error
	UpsertGenerated(ctx context.Context, tx *gorm.DB, entry *vault.LedgerEntry) error
	MarkSigned(ctx context.Context, tx *gorm.DB, userID, companyID, documentID, signedKey string, at time.Time) error
	OwnsKey(ctx context.Context, tx *gorm.DB, userID, key string) (bool, error)
}

type ledgerRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewLedgerRepo(db *gorm.DB, baseLog *logger.Logger) LedgerRepo {
	repoLog := baseLog.With("repo", "LedgerRepo")
	return &ledgerRepo{db: db, log: repoLog}
}

func (r *ledgerRepo) GetDocuments(ctx context.Context, tx *gorm.DB, userID string) ([]*vault.LedgerEntry, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*vault.LedgerEntry
	if strings.TrimSpace(userID) == "" {
		return out, nil
	}
	if err := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("company_id ASC, document_id ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *ledgerRepo) GetDocumentsForCompany(ctx context.Context, tx *gorm.DB, userID, companyID string) ([]*vault.LedgerEntry, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*vault.LedgerEntry
	if strings.TrimSpace(userID) == "" || strings.TrimSpace(companyID) == "" {
		return out, nil
	}
	if err := transaction.WithContext(ctx).
		Where("user_id = ? AND company_id = ?", userID, companyID).
		Order("document_id ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// GetDocument returns nil without error when no entry exists.
func (r *ledgerRepo) GetDocument(ctx context.Context, tx *gorm.DB, userID, companyID, documentID string) (*vault.LedgerEntry, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var out vault.LedgerEntry
	err := transaction.WithContext(ctx).
		Where("user_id = ? AND company_id = ? AND document_id = ?", userID, companyID, documentID).
		Take(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// FindByCompanyDocument ignores ownership. Only staff-facing lookups use it.
func (r *ledgerRepo) FindByCompanyDocument(ctx context.Context, tx *gorm.DB, companyID, documentID string) ([]*vault.LedgerEntry, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*vault.LedgerEntry
	if strings.TrimSpace(companyID) == "" || strings.TrimSpace(documentID) == "" {
		return out, nil
	}
	if err := transaction.WithContext(ctx).
		Where("company_id = ? AND document_id = ?", companyID, documentID).
		Order("updated_at DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// SaveDocuments writes the given entries for one company, replacing any entry
// with the same document id.
func (r *ledgerRepo) SaveDocuments(ctx context.Context, tx *gorm.DB, userID, companyID string, entries []*vault.LedgerEntry) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(entries) == 0 {
		return nil
	}
	for _, e := range entries {
		e.UserID = userID
		e.CompanyID = companyID
	}
	err := transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: ledgerConflictColumns,
			DoUpdates: clause.AssignmentColumns([]string{
				"name",
				"kind",
				"storage_key",
				"signed_storage_key",
				"format",
				"size_bytes",
				"template_id",
				"status",
				"signed_at",
				"updated_at",
			}),
		}).
		Create(&entries).Error
	return translateWriteErr("save ledger entries", err)
}

// UpsertGenerated records a freshly generated artifact. The new artifact
// supersedes any countersigned copy: the signed pointer and signed_at are
// cleared and the entry reads as generated again.
func (r *ledgerRepo) UpsertGenerated(ctx context.Context, tx *gorm.DB, entry *vault.LedgerEntry) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if entry == nil {
		return nil
	}
	entry.Status = vault.StatusGenerated
	entry.SignedStorageKey = ""
	entry.SignedAt = nil
	err := transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: ledgerConflictColumns,
			DoUpdates: clause.AssignmentColumns([]string{
				"name",
				"kind",
				"storage_key",
				"format",
				"size_bytes",
				"template_id",
				"status",
				"signed_storage_key",
				"signed_at",
				"updated_at",
			}),
		}).
		Create(entry).Error
	return translateWriteErr("upsert ledger entry", err)
}

func (r *ledgerRepo) MarkSigned(ctx context.Context, tx *gorm.DB, userID, companyID, documentID, signedKey string, at time.Time) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	res := transaction.WithContext(ctx).
		Model(&vault.LedgerEntry{}).
		Where("user_id = ? AND company_id = ? AND document_id = ?", userID, companyID, documentID).
		Updates(map[string]any{
			"signed_storage_key": signedKey,
			"status":             vault.StatusSigned,
			"signed_at":          at,
			"updated_at":         time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// OwnsKey reports whether key is the generated or signed artifact of any of
// the user's ledger entries.
func (r *ledgerRepo) OwnsKey(ctx context.Context, tx *gorm.DB, userID, key string) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if strings.TrimSpace(userID) == "" || strings.TrimSpace(key) == "" {
		return false, nil
	}
	var count int64
	if err := transaction.WithContext(ctx).
		Model(&vault.LedgerEntry{}).
		Where("user_id = ? AND (storage_key = ? OR signed_storage_key = ?)", userID, key, key).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

var ledgerConflictColumns = []clause.Column{{Name: "user_id"}, {Name: "company_id"}, {Name: "document_id"}}
