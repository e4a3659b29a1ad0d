package app

import (
	"context"
	"fmt"

	temporalsdkclient "go.temporal.io/sdk/client"
	"gorm.io/gorm"

	"github.com/yungbote/formationvault-backend/internal/data/db"
	apphttp "github.com/yungbote/formationvault-backend/internal/http"
	httpMW "github.com/yungbote/formationvault-backend/internal/http/middleware"
	"github.com/yungbote/formationvault-backend/internal/observability"
	"github.com/yungbote/formationvault-backend/internal/platform/envutil"
	"github.com/yungbote/formationvault-backend/internal/platform/logger"
	"github.com/yungbote/formationvault-backend/internal/temporalx"
	"github.com/yungbote/formationvault-backend/internal/temporalx/temporalworker"
)

const serviceName = "formationvault"

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Server   *apphttp.Server
	Cfg      Config
	Clients  Clients
	Repos    Repos
	Services Services
	Metrics  *observability.Metrics

	temporal      temporalsdkclient.Client
	pg            *db.PostgresService
	shutdownTrace func(context.Context) error
	cancel        context.CancelFunc
}

// New wires everything the HTTP server needs. Call Close when done.
func New() (*App, error) {
	log, err := logger.New(envutil.String("LOG_MODE", "development"))
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	log.Info("Loading environment variables...")
	cfg := LoadConfig(log)

	a, err := newCore(log, cfg)
	if err != nil {
		log.Sync()
		return nil, err
	}

	mw := httpMW.NewAuthMiddleware(log, a.Services.Auth)
	h := wireHandlers(log, a.pg, a.Services)
	a.Server = apphttp.NewServer(apphttp.RouterConfig{
		Log:              log,
		Metrics:          a.Metrics,
		ServiceName:      serviceName,
		AllowedOrigins:   cfg.AllowedOrigins,
		AuthMiddleware:   mw,
		WebhookHeader:    cfg.WebhookHeader,
		WebhookSecret:    cfg.WebhookSecret,
		HealthHandler:    h.Health,
		FormationHandler: h.Formation,
		VaultHandler:     h.Vault,
		DocumentHandler:  h.Document,
	})
	return a, nil
}

// NewForCLI wires services without the HTTP surface or a Temporal client, so
// bundle runs from the command line execute in-process.
func NewForCLI(log *logger.Logger) (*App, error) {
	cfg := LoadConfig(log)
	cfg.Temporal.Address = ""
	cfg.RunWorker = false
	return newCore(log, cfg)
}

func newCore(log *logger.Logger, cfg Config) (*App, error) {
	shutdownTrace := observability.InitOTel(context.Background(), log, observability.OtelConfig{
		ServiceName: serviceName,
		Environment: cfg.Environment,
		Version:     cfg.Version,
	})
	metrics := observability.Init(log)

	pg, err := db.NewPostgresService(log)
	if err != nil {
		return nil, fmt.Errorf("init postgres: %w", err)
	}
	if err := pg.AutoMigrateAll(); err != nil {
		_ = pg.Close()
		return nil, fmt.Errorf("postgres automigrate: %w", err)
	}
	theDB := pg.DB()

	clients, err := wireClients(log, cfg)
	if err != nil {
		_ = pg.Close()
		return nil, err
	}
	reposet := wireRepos(theDB, log)

	tc, err := temporalx.NewClient(log, cfg.Temporal)
	if err != nil {
		clients.Close()
		_ = pg.Close()
		return nil, fmt.Errorf("init temporal: %w", err)
	}

	serviceset, err := wireServices(log, cfg, clients, reposet, metrics, tc)
	if err != nil {
		clients.Close()
		_ = pg.Close()
		if tc != nil {
			tc.Close()
		}
		return nil, err
	}

	return &App{
		Log:           log,
		DB:            theDB,
		Cfg:           cfg,
		Clients:       clients,
		Repos:         reposet,
		Services:      serviceset,
		Metrics:       metrics,
		temporal:      tc,
		pg:            pg,
		shutdownTrace: shutdownTrace,
	}, nil
}

// Start launches the background pieces: metrics endpoint and Temporal worker.
func (a *App) Start() error {
	if a == nil || a.cancel != nil {
		return nil
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel

	if a.Metrics != nil {
		a.Metrics.StartServer(ctx, a.Log, a.Cfg.MetricsAddr)
	}
	if a.temporal != nil && a.Cfg.RunWorker {
		runner, err := temporalworker.NewRunner(a.Log, a.Cfg.Temporal, a.temporal, a.Services.Generation)
		if err != nil {
			return err
		}
		if err := runner.Start(ctx); err != nil {
			return fmt.Errorf("start temporal worker: %w", err)
		}
	}
	return nil
}

func (a *App) Run(ctx context.Context) error {
	if a == nil || a.Server == nil {
		return fmt.Errorf("app not initialized")
	}
	addr := ":" + a.Cfg.Port
	a.Log.Info("HTTP server listening", "addr", addr)
	return a.Server.Run(ctx, addr)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	if a.temporal != nil {
		a.temporal.Close()
	}
	a.Clients.Close()
	if a.pg != nil {
		if err := a.pg.Close(); err != nil && a.Log != nil {
			a.Log.Warn("Postgres close failed", "error", err)
		}
	}
	if a.shutdownTrace != nil {
		_ = a.shutdownTrace(context.Background())
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
