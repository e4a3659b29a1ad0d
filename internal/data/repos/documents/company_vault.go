package documents

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yungbote/formationvault-backend/internal/domain/vault"
	"github.com/yungbote/formationvault-backend/internal/platform/logger"
)

type CompanyVaultRepo interface {
	GetByCompany(ctx context.Context, tx *gorm.DB, userID, companyID string) (*vault.VaultRecord, error)
	GetByPath(ctx context.Context, tx *gorm.DB, vaultPath string) (*vault.VaultRecord, error)
	ListByUser(ctx context.Context, tx *gorm.DB, userID string) ([]*vault.VaultRecord, error)
	CreateIfAbsent(ctx context.Context, tx *gorm.DB, rec *vault.VaultRecord) (*vault.VaultRecord, error)
}

type companyVaultRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCompanyVaultRepo(db *gorm.DB, baseLog *logger.Logger) CompanyVaultRepo {
	repoLog := baseLog.With("repo", "CompanyVaultRepo")
	return &companyVaultRepo{db: db, log: repoLog}
}

func (r *companyVaultRepo) GetByCompany(ctx context.Context, tx *gorm.DB, userID, companyID string) (*vault.VaultRecord, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var out vault.VaultRecord
	err := transaction.WithContext(ctx).
		Where("user_id = ? AND company_id = ?", userID, companyID).
		Take(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *companyVaultRepo) GetByPath(ctx context.Context, tx *gorm.DB, vaultPath string) (*vault.VaultRecord, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var out vault.VaultRecord
	err := transaction.WithContext(ctx).
		Where("vault_path = ?", strings.TrimSpace(vaultPath)).
		Take(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *companyVaultRepo) ListByUser(ctx context.Context, tx *gorm.DB, userID string) ([]*vault.VaultRecord, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*vault.VaultRecord
	if strings.TrimSpace(userID) == "" {
		return out, nil
	}
	if err := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// CreateIfAbsent inserts rec unless the company already has a vault, and
// returns whichever record is stored. An existing path is never replaced.
// A vault path already held by another company fails with ErrConflict.
func (r *companyVaultRepo) CreateIfAbsent(ctx context.Context, tx *gorm.DB, rec *vault.VaultRecord) (*vault.VaultRecord, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if rec == nil {
		return nil, errors.New("nil vault record")
	}
	if err := transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "company_id"}},
			DoNothing: true,
		}).
		Create(rec).Error; err != nil {
		return nil, translateWriteErr("create vault", err)
	}
	stored, err := r.GetByCompany(ctx, transaction, rec.UserID, rec.CompanyID)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return stored, nil
}
