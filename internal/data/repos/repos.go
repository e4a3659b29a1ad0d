package repos

import (
	"gorm.io/gorm"

	"github.com/yungbote/formationvault-backend/internal/data/repos/documents"
	"github.com/yungbote/formationvault-backend/internal/platform/logger"
)

type LedgerRepo = documents.LedgerRepo
type CompanyVaultRepo = documents.CompanyVaultRepo
type AccessLogRepo = documents.AccessLogRepo

var ErrConflict = documents.ErrConflict

func NewLedgerRepo(db *gorm.DB, baseLog *logger.Logger) LedgerRepo {
	return documents.NewLedgerRepo(db, baseLog)
}
func NewCompanyVaultRepo(db *gorm.DB, baseLog *logger.Logger) CompanyVaultRepo {
	return documents.NewCompanyVaultRepo(db, baseLog)
}
func NewAccessLogRepo(db *gorm.DB, baseLog *logger.Logger) AccessLogRepo {
	return documents.NewAccessLogRepo(db, baseLog)
}
