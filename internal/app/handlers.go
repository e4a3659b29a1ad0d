package app

import (
	httpH "github.com/yungbote/formationvault-backend/internal/http/handlers"
	"github.com/yungbote/formationvault-backend/internal/platform/logger"
)

type Handlers struct {
	Health    *httpH.HealthHandler
	Formation *httpH.FormationHandler
	Vault     *httpH.VaultHandler
	Document  *httpH.DocumentHandler
}

func wireHandlers(log *logger.Logger, db httpH.Pinger, svc Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:    httpH.NewHealthHandler(db),
		Formation: httpH.NewFormationHandler(log, svc.Generation, svc.Dispatcher),
		Vault:     httpH.NewVaultHandler(svc.Vaults),
		Document:  httpH.NewDocumentHandler(log, svc.Access),
	}
}
