package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/formationvault-backend/internal/data/repos"
	"github.com/yungbote/formationvault-backend/internal/platform/logger"
)

type Repos struct {
	Ledger    repos.LedgerRepo
	Vaults    repos.CompanyVaultRepo
	AccessLog repos.AccessLogRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Ledger:    repos.NewLedgerRepo(db, log),
		Vaults:    repos.NewCompanyVaultRepo(db, log),
		AccessLog: repos.NewAccessLogRepo(db, log),
	}
}
