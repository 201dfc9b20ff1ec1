package app

import (
	"context"
	"fmt"
	"os"

	temporalsdkclient "go.temporal.io/sdk/client"
	"gorm.io/gorm"

	"github.com/Monetiqai/Monetiq-sub003/internal/data/db"
	apihttp "github.com/Monetiqai/Monetiq-sub003/internal/http"
	"github.com/Monetiqai/Monetiq-sub003/internal/observability"
	"github.com/Monetiqai/Monetiq-sub003/internal/platform/logger"
	"github.com/Monetiqai/Monetiq-sub003/internal/realtime"
	"github.com/Monetiqai/Monetiq-sub003/internal/services"
	"github.com/Monetiqai/Monetiq-sub003/internal/temporalx"
	"github.com/Monetiqai/Monetiq-sub003/internal/temporalx/packgen"
	"github.com/Monetiqai/Monetiq-sub003/internal/temporalx/temporalworker"
)

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Cfg      Config
	Server   *apihttp.Server
	Repos    Repos
	Services Services
	Clients  Clients
	SSEHub   *realtime.SSEHub
	Metrics  *observability.Metrics

	dbService    *db.Service
	temporalCfg  temporalx.Config
	temporal     temporalsdkclient.Client
	inProcess    *services.InProcessDispatcher
	otelShutdown func(context.Context) error
	cancel       context.CancelFunc
}

func New() (*App, error) {
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	log.Info("Loading environment variables...")
	cfg := LoadConfig(log)
	if err := cfg.Validate(); err != nil {
		log.Sync()
		return nil, err
	}

	otelShutdown := observability.InitOTel(context.Background(), log, observability.OtelConfig{
		ServiceName: "adpack-api",
		Environment: cfg.Environment,
		Version:     cfg.Version,
	})
	metrics := observability.Init(log)

	dbService, err := db.NewService(log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init database: %w", err)
	}
	if err := dbService.AutoMigrateAll(); err != nil {
		_ = dbService.Close()
		log.Sync()
		return nil, fmt.Errorf("automigrate: %w", err)
	}
	theDB := dbService.DB()

	clients, err := wireClients(log, cfg)
	if err != nil {
		_ = dbService.Close()
		log.Sync()
		return nil, err
	}

	reposet := wireRepos(theDB, log)
	aggs := wireAggregates(theDB, log, reposet, metrics)
	serviceset, err := wireServices(log, cfg, reposet, aggs, clients, metrics)
	if err != nil {
		clients.Close()
		_ = dbService.Close()
		log.Sync()
		return nil, err
	}

	a := &App{
		Log:          log,
		DB:           theDB,
		Cfg:          cfg,
		Repos:        reposet,
		Clients:      clients,
		Metrics:      metrics,
		dbService:    dbService,
		temporalCfg:  temporalx.LoadConfig(),
		otelShutdown: otelShutdown,
	}

	dispatcher, err := a.wireDispatcher(serviceset.Pipeline)
	if err != nil {
		a.Close()
		return nil, err
	}
	serviceset.AdPack = wireAdPackService(log, cfg, reposet, aggs, serviceset, dispatcher, metrics)
	a.Services = serviceset

	identity, err := wireIdentity(log, cfg)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.SSEHub = realtime.NewSSEHub(log)
	a.Server = wireServer(log, cfg, theDB, serviceset.AdPack, a.SSEHub, identity, metrics)
	return a, nil
}

// wireDispatcher routes generation through Temporal when TEMPORAL_ADDRESS is set.
func (a *App) wireDispatcher(pipeline services.VariantPipeline) (services.GenerationDispatcher, error) {
	tc, err := temporalx.NewClient(a.Log, a.temporalCfg)
	if err != nil {
		return nil, fmt.Errorf("init temporal client: %w", err)
	}
	if tc == nil {
		a.inProcess = services.NewInProcessDispatcher(a.Log, pipeline)
		return a.inProcess, nil
	}
	a.temporal = tc
	return packgen.NewDispatcher(a.Log, tc, a.temporalCfg.TaskQueue), nil
}

// Start launches background work: event forwarding, collectors and the
// Temporal worker.
func (a *App) Start() error {
	if a == nil || a.cancel != nil {
		return nil
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel

	if err := a.Clients.Bus.StartForwarder(ctx, a.SSEHub.Broadcast); err != nil {
		return fmt.Errorf("start pack event forwarder: %w", err)
	}

	a.Metrics.StartServer(ctx, a.Log, a.Cfg.MetricsAddr)
	a.Metrics.StartDBCollector(ctx, a.Log, a.DB)
	a.Metrics.StartRedisCollector(ctx, a.Log, a.Cfg.RedisAddr)

	if a.temporal != nil {
		runner, err := temporalworker.NewRunner(a.Log, a.temporal, a.temporalCfg, a.Services.Pipeline)
		if err != nil {
			return err
		}
		if err := runner.Start(ctx); err != nil {
			return fmt.Errorf("start temporal worker: %w", err)
		}
	}
	return nil
}

func (a *App) Run(ctx context.Context, addr string) error {
	if a == nil || a.Server == nil {
		return fmt.Errorf("app not initialized")
	}
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
	if a.inProcess != nil {
		a.inProcess.Wait()
	}
	if a.temporal != nil {
		a.temporal.Close()
	}
	a.Clients.Close()
	if a.dbService != nil {
		_ = a.dbService.Close()
	}
	if a.otelShutdown != nil {
		_ = a.otelShutdown(context.Background())
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
