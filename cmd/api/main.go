package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	httptransport "github.com/primewheels/agent-service/internal/api/http"
	"github.com/primewheels/agent-service/internal/api/http/handlers"
	"github.com/primewheels/agent-service/internal/auth"
	"github.com/primewheels/agent-service/internal/config"
	"github.com/primewheels/agent-service/internal/events"
	"github.com/primewheels/agent-service/internal/observability"
	"github.com/primewheels/agent-service/internal/persistence"
	"github.com/primewheels/agent-service/internal/ratelimit"
	"github.com/primewheels/agent-service/internal/repository"
	"github.com/primewheels/agent-service/internal/service"
	"github.com/primewheels/agent-service/internal/worker"
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

	healthDeps := map[string]handlers.Pinger{}
	var (
		applicationRepo repository.AgentApplicationRepository
		userRepo        repository.UserRepository
	)
	if pool := pg.PoolHandle(); pool != nil {
		if cfg.Postgres.RunMigrations {
			if err := persistence.RunMigrations(ctx, pool, cfg.Postgres.MigrationsDir, logger); err != nil {
				logger.Fatal("failed to run migrations", zap.Error(err))
			}
		}
		applicationRepo = repository.NewAgentApplicationRepository(pool)
		userRepo = repository.NewUserRepository(pool)
		healthDeps["postgres"] = pg
	} else {
		logger.Warn("using in-memory application store; data is lost on restart")
		applicationRepo = repository.NewMemoryAgentApplicationRepository()
		userRepo = repository.NewMemoryUserRepository()
	}

	metrics := observability.NewMetrics()
	sweepTargets := map[string]worker.Sweeper{}

	var counters ratelimit.CounterStore
	if cfg.RateLimit.Backend == "redis" {
		rdb, err := persistence.NewRedis(ctx, cfg.Redis, logger)
		if err != nil {
			logger.Fatal("redis rate limit backend unavailable", zap.Error(err))
		}
		defer rdb.Close()
		counters = ratelimit.NewRedisStore(rdb.Handle())
		healthDeps["redis"] = rdb
	} else {
		memoryCounters := ratelimit.NewMemoryStore()
		counters = memoryCounters
		sweepTargets["submissions"] = memoryCounters
	}
	submitLimiter := ratelimit.NewLimiter(counters, cfg.RateLimit.Submissions, cfg.RateLimit.Window(),
		ratelimit.WithLogger(logger.Named("ratelimit")))

	dispatcher := events.NewInMemoryDispatcher(logger)
	worker.StartNotificationWorker(dispatcher, logger, cfg.Notification)

	applications := service.NewAgentApplicationService(service.AgentApplicationDependencies{
		ApplicationRepo: applicationRepo,
		UserRepo:        userRepo,
		Dispatcher:      dispatcher,
		Metrics:         metrics,
		Logger:          logger,
	})

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTLMinutes)
	resolver := auth.NewEmailListResolver(cfg.Auth.HostEmails, cfg.Auth.AgentEmails)
	authMiddleware := auth.NewAuthMiddleware(tokens, resolver, cfg.Auth.CookieName, logger)

	throttle := httptransport.NewRequestThrottle(cfg.Throttle.RequestsPerSecond, cfg.Throttle.Burst, logger)
	if throttle != nil {
		sweepTargets["throttle"] = throttle
	}
	go worker.RunSweeper(ctx, cfg.RateLimit.SweepInterval(), logger, sweepTargets)

	app := httptransport.NewApp(cfg.App, logger, metrics)
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout(), throttle)

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, healthDeps),
		Pages:          handlers.NewAgentApplicationsPageHandler(applications, logger),
		API:            handlers.NewAgentApplicationsAPIHandler(applications),
		AuthMiddleware: authMiddleware,
		SubmitLimiter:  submitLimiter,
		Metrics:        metrics,
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
