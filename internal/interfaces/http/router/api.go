package router

import (
	"github.com/fablecraft/backend/internal/domain/worldbible"
	"github.com/fablecraft/backend/internal/infrastructure/auth"
	"github.com/fablecraft/backend/internal/infrastructure/cache"
	"github.com/fablecraft/backend/internal/infrastructure/config"
	"github.com/fablecraft/backend/internal/infrastructure/logger"
	"github.com/fablecraft/backend/internal/infrastructure/telemetry"
	"github.com/fablecraft/backend/internal/interfaces/http/handler"
	"github.com/fablecraft/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handlers are the HTTP handlers served by the API
type Handlers struct {
	Auth       *handler.AuthHandler
	Project    *handler.ProjectHandler
	Entry      *handler.EntryHandler
	Generation *handler.GenerationHandler
	Export     *handler.ExportHandler
	System     *handler.SystemHandler
}

// EngineOptions carries the infrastructure the middleware stack needs.
// Nil members switch the matching middleware off.
type EngineOptions struct {
	Config      *config.Config
	Logger      *zap.Logger
	JWT         *auth.JWTService
	Revocations auth.RevocationStore
	Cache       cache.ResponseStore
	Metrics     *telemetry.Metrics
	Performance *telemetry.PerformanceAggregator
	RateLimiter *middleware.RateLimiter
	AuthLimiter *middleware.RateLimiter
}

// NewEngine builds the gin engine with the full middleware stack and every
// API route.
//
// Middleware order:
//  1. RequestID - assigns a request ID first so every log line carries it
//  2. Recovery - turns panics into 500s
//  3. Logger - request-scoped zap logger
//  4. Secure - security headers
//  5. CORS
//  6. BodyLimit
//  7. RateLimit - per client IP
//  8. HTTPMetrics - Prometheus and the performance report
//  9. JWT (or the development owner) on /api/v1
//  10. ResponseCache on /api/v1/projects
func NewEngine(h Handlers, opts EngineOptions) *gin.Engine {
	cfg := opts.Config
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		log.Warn("Invalid trusted proxies, trusting none", zap.Error(err))
		_ = engine.SetTrustedProxies(nil)
	}

	engine.Use(
		middleware.RequestID(),
		logger.Recovery(log),
		logger.GinMiddleware(log),
		middleware.SecureWithConfig(middleware.SecurityConfigFor(cfg.App)),
		middleware.CORSWithConfig(middleware.CORSConfigFrom(cfg.HTTP)),
		middleware.BodyLimit(cfg.HTTP.MaxBodySize),
	)
	if cfg.HTTP.RateLimitEnabled && opts.RateLimiter != nil {
		engine.Use(middleware.RateLimit(opts.RateLimiter))
	}
	engine.Use(middleware.HTTPMetrics(metricsConfig(cfg, opts)))

	engine.GET("/health", h.System.Liveness)
	if cfg.Metrics.Enabled && opts.Metrics != nil {
		engine.GET(metricsPath(cfg), gin.WrapH(opts.Metrics.Handler()))
	}

	api := NewRouter(engine, WithAPIVersion("v1"))
	api.Use(authMiddleware(cfg, opts, log))
	if cfg.Cache.Enabled && opts.Cache != nil {
		cacheCfg := middleware.ResponseCacheConfig{
			Store:      opts.Cache,
			TTL:        cfg.Cache.TTL,
			PathPrefix: api.BasePath() + "/projects",
			Logger:     log,
		}
		if opts.Metrics != nil {
			cacheCfg.Observer = opts.Metrics
		}
		api.Use(middleware.ResponseCache(cacheCfg))
	}

	api.Register(authRoutes(h.Auth, opts.AuthLimiter)).
		Register(projectRoutes(h)).
		Register(kindRoutes(h.Entry)).
		Register(systemRoutes(h.System, cfg.Monitor.PerformanceEndpoint))
	api.Setup()

	return engine
}

func metricsPath(cfg *config.Config) string {
	if cfg.Metrics.Path == "" {
		return "/metrics"
	}
	return cfg.Metrics.Path
}

// metricsConfig only sets sinks that exist; a typed nil behind the
// interfaces would be called
func metricsConfig(cfg *config.Config, opts EngineOptions) middleware.HTTPMetricsConfig {
	mc := middleware.HTTPMetricsConfig{SkipPaths: []string{metricsPath(cfg), "/health"}}
	if opts.Metrics != nil {
		mc.Observer = opts.Metrics
		mc.InFlight = opts.Metrics
	}
	if opts.Performance != nil {
		mc.Performance = opts.Performance
	}
	return mc
}

func authMiddleware(cfg *config.Config, opts EngineOptions, log *zap.Logger) gin.HandlerFunc {
	if cfg.JWT.Disabled || opts.JWT == nil {
		log.Warn("JWT authentication disabled, every request acts as the development owner",
			zap.String("owner_id", cfg.JWT.DevOwnerID))
		return middleware.DevAuthMiddleware(cfg.JWT.DevOwnerID)
	}
	jwtCfg := middleware.DefaultJWTConfig(opts.JWT)
	jwtCfg.Revocations = opts.Revocations
	jwtCfg.Logger = log
	return middleware.JWTAuthMiddlewareWithConfig(jwtCfg)
}

func authRoutes(h *handler.AuthHandler, limiter *middleware.RateLimiter) *DomainGroup {
	g := NewDomainGroup("auth", "/auth")
	credentials := []gin.HandlerFunc{}
	if limiter != nil {
		credentials = append(credentials, middleware.AuthRateLimit(limiter))
	}
	g.POST("/register", append(credentials, h.Register)...)
	g.POST("/login", append(credentials, h.Login)...)
	g.POST("/refresh", append(credentials, h.RefreshToken)...)
	g.POST("/logout", h.Logout)
	g.GET("/me", h.GetCurrentUser)
	g.PUT("/password", h.ChangePassword)
	return g
}

func projectRoutes(h Handlers) *DomainGroup {
	g := NewDomainGroup("projects", "/projects")
	g.GET("", h.Project.List).
		POST("", h.Project.Create).
		GET("/:id", h.Project.GetByID).
		PUT("/:id", h.Project.Update).
		DELETE("/:id", h.Project.Delete).
		POST("/:id/archive", h.Project.Archive).
		POST("/:id/restore", h.Project.Restore).
		GET("/:id/stats", h.Project.Stats).
		GET("/:id/export", h.Export.Export)

	for _, kind := range worldbible.AllKinds() {
		entries := g.Group(string(kind), "/:id/"+kind.PathSegment()).Use(handler.WithKind(kind))
		entries.GET("", h.Entry.List).
			POST("", h.Entry.Create).
			POST("/bulk-delete", h.Entry.BulkDelete).
			POST("/generate", h.Generation.Generate).
			POST("/names", h.Generation.Names).
			GET("/:entryId", h.Entry.GetByID).
			PUT("/:entryId", h.Entry.Update).
			DELETE("/:entryId", h.Entry.Delete).
			POST("/:entryId/image", h.Entry.PresignImage).
			POST("/:entryId/enhance", h.Generation.Enhance)
	}
	return g
}

func kindRoutes(h *handler.EntryHandler) *DomainGroup {
	return NewDomainGroup("kinds", "/kinds").GET("", h.Kinds)
}

func systemRoutes(h *handler.SystemHandler, performance bool) *DomainGroup {
	g := NewDomainGroup("system", "/system")
	g.GET("/info", h.GetSystemInfo)
	g.GET("/health", h.Health)
	if performance {
		g.GET("/performance", h.Performance)
		g.DELETE("/performance", h.ResetPerformance)
	}
	return g
}
