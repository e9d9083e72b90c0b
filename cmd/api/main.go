package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/workflow-service/internal/api/http"
	"github.com/spec-kit/workflow-service/internal/api/http/handlers"
	"github.com/spec-kit/workflow-service/internal/auth"
	"github.com/spec-kit/workflow-service/internal/config"
	"github.com/spec-kit/workflow-service/internal/corbeille"
	"github.com/spec-kit/workflow-service/internal/events"
	"github.com/spec-kit/workflow-service/internal/observability"
	"github.com/spec-kit/workflow-service/internal/persistence"
	"github.com/spec-kit/workflow-service/internal/reference"
	"github.com/spec-kit/workflow-service/internal/repository"
	"github.com/spec-kit/workflow-service/internal/service"
	"github.com/spec-kit/workflow-service/internal/sla"
	"github.com/spec-kit/workflow-service/internal/worker"
	"github.com/spec-kit/workflow-service/internal/workflow"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	pool := pg.PoolHandle()
	var (
		itemRepo      repository.WorkItemRepository
		historyRepo   repository.HistoryRepository
		directoryRepo repository.DirectoryRepository
		clientRepo    repository.ClientRepository
	)
	if pool != nil {
		itemRepo = repository.NewWorkItemRepository(pool)
		historyRepo = repository.NewHistoryRepository(pool)
		directoryRepo = repository.NewDirectoryRepository(pool)
		clientRepo = repository.NewClientRepository(pool)
	} else {
		logger.Warn("running with in-memory repositories; state is not persisted")
		memory := repository.NewMemoryWorkItemRepository()
		itemRepo = memory
		historyRepo = memory
		directoryRepo = repository.NewMemoryDirectoryRepository()
		clientRepo = repository.NewMemoryClientRepository()
	}

	dispatcher := events.NewInMemoryDispatcher()
	machine := workflow.NewMachine()
	bulk := service.NewBulkCoordinator(logger)
	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	metrics := observability.NewMetrics()

	workItemService := service.NewWorkItemService(service.WorkItemDependencies{
		ItemRepo:    itemRepo,
		HistoryRepo: historyRepo,
		ClientRepo:  clientRepo,
		Machine:     machine,
		References:  reference.NewGenerator(),
		SlaCache:    sla.NewCache(cfg.Sla.CacheTTL()),
		Bulk:        bulk,
		Dispatcher:  dispatcher,
		Logger:      logger,
	})
	assignmentService := service.NewAssignmentService(service.AssignmentDependencies{
		ItemRepo:      itemRepo,
		DirectoryRepo: directoryRepo,
		Machine:       machine,
		Bulk:          bulk,
		Dispatcher:    dispatcher,
		Logger:        logger,
	})
	corbeilleService := service.NewCorbeilleService(
		itemRepo,
		corbeille.NewSnapshotCache(redis.Client, cfg.Corbeille.SnapshotTTL(), logger),
		corbeille.Options{TreatedWindow: cfg.Corbeille.TreatedWindow()},
		logger,
	)
	statsService := service.NewStatsService(itemRepo)
	authService := service.NewAuthService(directoryRepo, tokens, logger)
	service.NewNotificationService(dispatcher, logger)

	monitor := worker.NewSLAMonitor(itemRepo, dispatcher, logger, cfg.Sla.SweepInterval(), cfg.Sla.SweepJitter())
	go monitor.Run(ctx)

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Auth:           handlers.NewAuthHandler(authService),
		WorkItems:      handlers.NewWorkItemsHandler(workItemService, assignmentService),
		Assignments:    handlers.NewAssignmentHandler(assignmentService),
		Corbeille:      handlers.NewCorbeilleHandler(corbeilleService),
		Bulk:           handlers.NewBulkHandler(workItemService),
		Stats:          handlers.NewWorkflowStatsHandler(statsService),
		AuthMiddleware: auth.NewMiddleware(tokens, directoryRepo),
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)
	cancel()

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
