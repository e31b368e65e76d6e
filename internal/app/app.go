package app

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/vigil/internal/common"
	"github.com/ternarybob/vigil/internal/handlers"
	"github.com/ternarybob/vigil/internal/interfaces"
	"github.com/ternarybob/vigil/internal/queue"
	"github.com/ternarybob/vigil/internal/services/analysis"
	"github.com/ternarybob/vigil/internal/services/crawler"
	"github.com/ternarybob/vigil/internal/services/events"
	"github.com/ternarybob/vigil/internal/services/ingress"
	"github.com/ternarybob/vigil/internal/services/metrics"
	"github.com/ternarybob/vigil/internal/services/retention"
	"github.com/ternarybob/vigil/internal/storage/postgres"
	"github.com/ternarybob/vigil/internal/workers"
)

// App holds all application components and dependencies
type App struct {
	Config *common.Config
	Logger arbor.ILogger

	ctx       context.Context
	cancelCtx context.CancelFunc

	// Storage and queue backing stores
	JobStorage  interfaces.JobStorage
	RedisClient *redis.Client
	Queue       interfaces.QueueManager
	Dedup       interfaces.DedupStore

	// Services
	Metrics          *metrics.Collector
	Events           *events.Broker
	CrawlerService   *crawler.Service
	AnalysisService  *analysis.Service
	AdmissionService *ingress.Service
	RetentionService *retention.Service

	// Scan execution
	WorkerPool *workers.Pool

	// HTTP handlers
	AnalyzeHandler *handlers.AnalyzeHandler
	ScanHandler    *handlers.ScanHandler
	StatusHandler  *handlers.StatusHandler
	WSHandler      *handlers.WebSocketHandler
}

// New initializes the application with all dependencies
func New(cfg *common.Config, logger arbor.ILogger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	app := &App{
		Config:    cfg,
		Logger:    logger,
		ctx:       ctx,
		cancelCtx: cancel,
	}

	if err := app.initStorage(); err != nil {
		cancel()
		return nil, err
	}
	if err := app.initQueue(); err != nil {
		cancel()
		app.JobStorage.Close()
		return nil, err
	}
	app.initServices()
	app.initHandlers()

	logger.Info().
		Int("workers", cfg.Workers.Concurrency).
		Str("queue", cfg.Queue.Name).
		Msg("Application initialized")

	return app, nil
}

func (a *App) initStorage() error {
	db, err := postgres.Connect(a.Config.Database.URL)
	if err != nil {
		return fmt.Errorf("failed to connect to postgres: %w", err)
	}

	storage, err := postgres.NewJobStorage(a.ctx, db, a.Logger)
	if err != nil {
		db.Close()
		return fmt.Errorf("failed to initialize job storage: %w", err)
	}

	a.JobStorage = storage
	a.Logger.Info().Msg("Job storage initialized")
	return nil
}

func (a *App) initQueue() error {
	client, err := queue.NewClient(a.Config.Redis.URL)
	if err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}
	a.RedisClient = client

	a.Queue = queue.NewManager(client, queue.Options{
		Name:                 a.Config.Queue.Name,
		Attempts:             a.Config.Queue.Attempts,
		BackoffBase:          a.Config.Queue.BackoffBase,
		LockDuration:         a.Config.Queue.LockDuration,
		StalledCheckInterval: a.Config.Queue.StalledCheckInterval,
		CompletedRetention:   a.Config.Queue.CompletedRetention,
		CompletedKeep:        a.Config.Queue.CompletedKeep,
		FailedRetention:      a.Config.Queue.FailedRetention,
	}, a.Logger)
	a.Dedup = queue.NewRedisDedupStore(client)

	a.Logger.Info().Str("queue", a.Config.Queue.Name).Msg("Queue manager initialized")
	return nil
}

func (a *App) initServices() {
	a.Metrics = metrics.NewCollector()

	a.Events = events.NewBroker(a.Logger)
	go a.Events.Run(a.Queue.Events())

	a.CrawlerService = crawler.NewService(a.Config.Crawler, a.Logger)
	a.AnalysisService = analysis.NewService(a.Config.Analysis, a.Logger)

	a.AdmissionService = ingress.NewService(
		a.JobStorage,
		a.Queue,
		a.Dedup,
		ingress.NewNetResolver(),
		a.Metrics,
		a.Config.Dedup.Window,
		a.Logger,
	)

	a.RetentionService = retention.NewService(a.JobStorage, a.Config.Retention.JobMaxAge, a.Logger)

	a.WorkerPool = workers.NewPool(
		a.Queue,
		a.JobStorage,
		a.CrawlerService,
		a.AnalysisService,
		a.Metrics,
		a.Config.Workers.Concurrency,
		a.Config.Queue.LeaseRenewInterval,
		a.Logger,
	)
}

func (a *App) initHandlers() {
	a.AnalyzeHandler = handlers.NewAnalyzeHandler(a.AdmissionService, a.Logger)
	a.ScanHandler = handlers.NewScanHandler(a.JobStorage, a.Logger)
	a.StatusHandler = handlers.NewStatusHandler(a.Config.Service.Name, a.JobStorage, a.Queue, a.Metrics, a.Logger)
	a.WSHandler = handlers.NewWebSocketHandler(a.Events, a.Logger)
}

// Start launches the worker pool and background services. The HTTP server
// is started separately so deployments can run API-only or worker-only
// processes from one binary.
func (a *App) Start() error {
	a.WorkerPool.Start(a.ctx)
	a.Logger.Info().Int("concurrency", a.Config.Workers.Concurrency).Msg("Worker pool started")

	if err := a.RetentionService.Start(a.Config.Retention.Schedule); err != nil {
		return fmt.Errorf("failed to start retention service: %w", err)
	}
	return nil
}

// Close shuts components down in dependency order: workers first so no scan
// is mid-flight when the queue and stores go away.
func (a *App) Close() error {
	if a.WorkerPool != nil {
		a.WorkerPool.Stop()
		a.Logger.Info().Msg("Worker pool stopped")
	}

	a.cancelCtx()

	if a.RetentionService != nil {
		a.RetentionService.Stop()
	}

	if a.Queue != nil {
		if err := a.Queue.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close queue manager")
		}
	}

	if a.Events != nil {
		a.Events.Close()
	}

	if a.RedisClient != nil {
		if err := a.RedisClient.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close redis client")
		}
	}

	if a.JobStorage != nil {
		if err := a.JobStorage.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close job storage")
		}
	}

	a.Logger.Info().Msg("Application shutdown complete")
	return nil
}
