package documents

import (
	"context"

	"gorm.io/gorm"

	"github.com/yungbote/formationvault-backend/internal/domain/vault"
	"github.com/yungbote/formationvault-backend/internal/platform/logger"
)

// AccessLogRepo exposes no update or delete.
type AccessLogRepo interface {
	Append(ctx context.Context, tx *gorm.DB, rows ...*vault.AccessLog) error
	ListByRequester(ctx context.Context, tx *gorm.DB, requesterID string, limit int) ([]*vault.AccessLog, error)
}

type accessLogRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAccessLogRepo(db *gorm.DB, baseLog *logger.Logger) AccessLogRepo {
	repoLog := baseLog.With("repo", "AccessLogRepo")
	return &accessLogRepo{db: db, log: repoLog}
}

func (r *accessLogRepo) Append(ctx context.Context, tx *gorm.DB, rows ...*vault.AccessLog) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(rows) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).Create(&rows).Error
}

func (r *accessLogRepo) ListByRequester(ctx context.Context, tx *gorm.DB, requesterID string, limit int) ([]*vault.AccessLog, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var out []*vault.AccessLog
	if err := transaction.WithContext(ctx).
		Where("requester_id = ?", requesterID).
		Order("created_at DESC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
