package app

import (
	"fmt"

	temporalsdkclient "go.temporal.io/sdk/client"

	"github.com/yungbote/formationvault-backend/internal/modules/formation/templates"
	"github.com/yungbote/formationvault-backend/internal/observability"
	"github.com/yungbote/formationvault-backend/internal/platform/logger"
	"github.com/yungbote/formationvault-backend/internal/services"
	"github.com/yungbote/formationvault-backend/internal/temporalx/formationdocs"
)

type Services struct {
	Auth       services.AuthService
	Vaults     services.VaultService
	Reconciler services.Reconciler
	Generation services.GenerationService
	Access     services.DocumentAccessService
	Auditor    services.DocumentAuditor
	Dispatcher services.BundleDispatcher
}

func wireServices(log *logger.Logger, cfg Config, clients Clients, reposet Repos, metrics *observability.Metrics, tc temporalsdkclient.Client) (Services, error) {
	log.Info("Wiring services...")

	catalog, err := templates.LoadCatalog(cfg.TemplateCatalogPath)
	if err != nil {
		return Services{}, fmt.Errorf("load template catalog: %w", err)
	}

	vaults := services.NewVaultService(log, reposet.Vaults, clients.Records)
	reconciler := services.NewReconciler(log, reposet.Ledger, clients.Records, cfg.PublicBaseURL, metrics)
	generation := services.NewGenerationService(
		log,
		clients.Records,
		templates.NewSelector(catalog),
		clients.Renderer,
		clients.Converter,
		clients.Bucket,
		vaults,
		reconciler,
		metrics,
		services.GenerationConfig{
			TemplateBaseURL:   cfg.TemplateBaseURL,
			PipelineTimeout:   cfg.PipelineTimeout,
			ConvertTo:         cfg.ConvertTo,
			BundleConcurrency: cfg.BundleConcurrency,
			VaultBucket:       cfg.VaultBucket,
		},
	)
	auditor := services.NewDocumentAuditor(log, reposet.AccessLog, clients.AuditStream, metrics)
	access := services.NewDocumentAccessService(log, reposet.Ledger, vaults, clients.Bucket, clients.Converter, auditor)

	var dispatcher services.BundleDispatcher
	if tc != nil {
		dispatcher = formationdocs.NewStarter(log, tc, cfg.Temporal.TaskQueue)
	} else {
		dispatcher = services.NewInlineDispatcher(log, generation)
	}

	return Services{
		Auth:       services.NewAuthService(log, cfg.JWTSecretKey, cfg.StaffRoles),
		Vaults:     vaults,
		Reconciler: reconciler,
		Generation: generation,
		Access:     access,
		Auditor:    auditor,
		Dispatcher: dispatcher,
	}, nil
}
