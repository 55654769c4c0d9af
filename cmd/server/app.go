package main

import (
	"context"
	"fmt"
	"time"

	"github.com/fablecraft/backend/internal/application/export"
	"github.com/fablecraft/backend/internal/application/generation"
	identityapp "github.com/fablecraft/backend/internal/application/identity"
	projectapp "github.com/fablecraft/backend/internal/application/project"
	systemapp "github.com/fablecraft/backend/internal/application/system"
	worldbibleapp "github.com/fablecraft/backend/internal/application/worldbible"
	"github.com/fablecraft/backend/internal/infrastructure/ai"
	"github.com/fablecraft/backend/internal/infrastructure/auth"
	"github.com/fablecraft/backend/internal/infrastructure/cache"
	"github.com/fablecraft/backend/internal/infrastructure/config"
	"github.com/fablecraft/backend/internal/infrastructure/event"
	"github.com/fablecraft/backend/internal/infrastructure/logger"
	"github.com/fablecraft/backend/internal/infrastructure/monitor"
	"github.com/fablecraft/backend/internal/infrastructure/persistence"
	"github.com/fablecraft/backend/internal/infrastructure/render"
	"github.com/fablecraft/backend/internal/infrastructure/storage"
	"github.com/fablecraft/backend/internal/infrastructure/telemetry"
	"github.com/fablecraft/backend/internal/interfaces/http/handler"
	"github.com/fablecraft/backend/internal/interfaces/http/middleware"
	"github.com/fablecraft/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// credential endpoints allow this many attempts per client IP and minute
const authAttemptsPerMinute = 20

// app owns every long-lived component of the server
type app struct {
	cfg      *config.Config
	log      *zap.Logger
	db       *persistence.Database
	redis    *redis.Client
	bus      *event.InMemoryEventBus
	store    cache.ResponseStore
	monitor  *monitor.Monitor
	renderer *render.ChromeRenderer
	limiters []*middleware.RateLimiter
	engine   *gin.Engine
}

func newApp(ctx context.Context, cfg *config.Config, log *zap.Logger) (*app, error) {
	a := &app{cfg: cfg, log: log}
	ok := false
	defer func() {
		if !ok {
			a.close(context.Background())
		}
	}()

	// Database
	db, err := persistence.NewDatabase(&cfg.Database, log, logger.MapGormLogLevel(cfg.Log.Level))
	if err != nil {
		return nil, err
	}
	a.db = db
	log.Info("Database connected successfully", zap.String("driver", cfg.Database.Driver))
	if cfg.Database.Driver == "sqlite" && cfg.Database.AutoMigrate {
		if err := db.AutoMigrate(); err != nil {
			return nil, err
		}
		log.Info("SQLite schema migrated")
	}

	// Redis backs the response cache, token revocations and a health check
	var redisClient redis.UniversalClient
	var revocations auth.RevocationStore = auth.NewMemoryRevocationStore()
	if cfg.Redis.Enabled {
		client, err := cache.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		a.redis = client
		redisClient = client
		revocations = auth.NewRedisRevocationStore(client)
		log.Info("Redis connected", zap.String("addr", cfg.Redis.Addr()))
	}

	// Metrics
	var metrics *telemetry.Metrics
	if cfg.Metrics.Enabled {
		metrics = telemetry.NewMetrics(cfg.Metrics.Namespace)
		sqlDB, err := db.DB.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
		}
		if err := metrics.RegisterDB(sqlDB, cfg.Database.Driver); err != nil {
			return nil, err
		}
	}
	perf := telemetry.NewPerformanceAggregator(cfg.Monitor.PerformanceSamples, cfg.Monitor.SlowRouteThreshold)

	// Events
	a.bus = event.NewInMemoryEventBus(log, event.WithAsyncDispatch())

	// Response cache
	if cfg.Cache.Enabled {
		a.store = cache.NewResponseStore(cfg.Cache, redisClient, log)
		invalidator := cache.NewOwnerInvalidator(a.store, log)
		a.bus.Subscribe(invalidator, invalidator.EventTypes()...)
	}

	// Object storage
	var images worldbibleapp.ImageStore
	var objects projectapp.ObjectDeleter
	if cfg.Storage.Enabled {
		s3, err := storage.NewS3ImageStorage(ctx, &cfg.Storage, storage.WithLogger(log))
		if err != nil {
			return nil, err
		}
		if err := s3.EnsureBucket(ctx); err != nil {
			log.Warn("Image bucket is not reachable", zap.String("bucket", s3.Bucket()), zap.Error(err))
		}
		images, objects = s3, s3
	}

	// Repositories and services
	jwtService := auth.NewJWTService(cfg.JWT)
	projectRepo := persistence.NewGormProjectRepository(db.DB)
	userRepo := persistence.NewGormUserRepository(db.DB)
	registry := persistence.NewWorldBibleRegistry(db.DB, projectRepo, images, a.bus, log)

	authService := identityapp.NewAuthService(userRepo, jwtService, revocations, a.bus, identityapp.AuthServiceConfig{
		MaxLoginAttempts: cfg.JWT.MaxLoginAttempts,
		LockDuration:     cfg.JWT.LockDuration,
	}, log)
	projectService := projectapp.NewProjectService(projectRepo, persistence.NewGormStatsReader(db.DB), a.bus, objects, log)

	var completer generation.Completer
	var limiter generation.Limiter
	var recorder generation.Recorder
	if cfg.AI.Enabled {
		client, err := ai.NewGeminiClient(ctx, cfg.AI, log)
		if err != nil {
			return nil, err
		}
		completer = client
		limiter = ai.NewKeyedLimiter(cfg.AI.RequestsPerMinute, cfg.AI.Burst)
		log.Info("AI generation enabled", zap.String("model", client.Model()))
	}
	if metrics != nil {
		recorder = metrics
	}
	generationService := generation.NewService(completer, limiter, recorder, projectRepo, registry, log)

	var renderer export.Renderer
	if cfg.Render.Enabled {
		a.renderer = render.NewChromeRenderer(cfg.Render, log)
		renderer = a.renderer
	}
	exportService := export.NewService(projectRepo, registry, renderer, log)

	// Health monitor
	checks := []monitor.Check{monitor.NewDatabaseCheck(db), monitor.NewSystemCheck(cfg.Monitor.MemoryWarnPercent)}
	if redisClient != nil {
		checks = append(checks, monitor.NewRedisCheck(redisClient))
	}
	a.monitor = monitor.New(monitor.Config{
		Schedule:     cfg.Monitor.Schedule,
		CheckTimeout: cfg.Monitor.CheckTimeout,
		Version:      version,
	}, log, checks...)
	systemService := systemapp.NewService(a.monitor, perf, log)

	// HTTP
	middleware.SetupValidator()
	opts := router.EngineOptions{
		Config:      cfg,
		Logger:      log,
		JWT:         jwtService,
		Revocations: revocations,
		Cache:       a.store,
		Metrics:     metrics,
		Performance: perf,
	}
	if cfg.HTTP.RateLimitEnabled {
		opts.RateLimiter = middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		opts.AuthLimiter = middleware.NewRateLimiter(authAttemptsPerMinute, time.Minute)
		a.limiters = append(a.limiters, opts.RateLimiter, opts.AuthLimiter)
	}
	a.engine = router.NewEngine(router.Handlers{
		Auth:       handler.NewAuthHandler(authService),
		Project:    handler.NewProjectHandler(projectService),
		Entry:      handler.NewEntryHandler(registry),
		Generation: handler.NewGenerationHandler(generationService),
		Export:     handler.NewExportHandler(exportService),
		System:     handler.NewSystemHandler(systemService, cfg.App.Name, version),
	}, opts)

	ok = true
	return a, nil
}

// start launches the background workers
func (a *app) start(ctx context.Context) error {
	if err := a.bus.Start(ctx); err != nil {
		return err
	}
	return a.monitor.Start(ctx)
}

// close stops background work and releases connections in reverse order
func (a *app) close(ctx context.Context) {
	if a.monitor != nil {
		if err := a.monitor.Stop(ctx); err != nil {
			a.log.Warn("Health monitor did not stop cleanly", zap.Error(err))
		}
	}
	for _, l := range a.limiters {
		l.Stop()
	}
	if a.bus != nil {
		if err := a.bus.Stop(ctx); err != nil {
			a.log.Warn("Event bus did not drain", zap.Error(err))
		}
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Error("Error closing response cache", zap.Error(err))
		}
	}
	if a.renderer != nil {
		if err := a.renderer.Close(); err != nil {
			a.log.Error("Error closing renderer", zap.Error(err))
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.log.Error("Error closing redis", zap.Error(err))
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.log.Error("Error closing database", zap.Error(err))
		}
	}
}
