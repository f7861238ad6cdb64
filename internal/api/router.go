package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	echoswagger "github.com/swaggo/echo-swagger"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/channelpass/platform/internal/api/handler"
	"github.com/channelpass/platform/internal/api/middleware"
	"github.com/channelpass/platform/internal/core/domain"
	"github.com/channelpass/platform/internal/core/ports"
	"github.com/channelpass/platform/internal/core/service"
	"github.com/channelpass/platform/internal/infrastructure/config"
	mongodb "github.com/channelpass/platform/internal/infrastructure/db/mongo"
	redisdb "github.com/channelpass/platform/internal/infrastructure/db/redis"
	"github.com/channelpass/platform/internal/signal"
)

// NewRouter builds and returns the Echo instance with all routes registered.
// The audit sink and signal bus are owned by the caller; everything else is
// assembled here.
func NewRouter(cfg *config.Config, db *mongo.Database, rdb *redis.Client, bus signal.Bus, sink ports.AuditSink, log zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddleware("channelpass"))

	// --- Dependencies ---
	tiers := domain.TokenTiers{
		domain.KindStaffLink:    cfg.Tokens.StaffTTL,
		domain.KindMerchantLink: cfg.Tokens.MerchantTTL,
		domain.KindMemberLink:   cfg.Tokens.MemberTTL,
	}
	codec := service.NewTokenCodec(redisdb.NewTokenStore(rdb, nil), tiers, nil)
	sessions := redisdb.NewSessionStore(rdb)
	limiter := redisdb.NewAttemptLimiter(rdb, cfg.Limiter.Window, cfg.Limiter.Budget)

	authService := service.NewAuthService(service.AuthServiceDeps{
		Codec:      codec,
		Principals: mongodb.NewPrincipalRepository(db),
		Merchants:  mongodb.NewMerchantRepository(db),
		Sessions:   sessions,
		Bus:        bus,
		Audit:      sink,
		Limiter:    limiter,
		SessionTTL: cfg.SessionTTL,
		Log:        log,
	})

	gate := service.NewGate(nil)
	cookies := middleware.NewCookieCodec(cfg.CookieName, cfg.SessionSecret, cfg.Env == "production")
	e.Use(middleware.Session(cookies, sessions))

	authHandler := handler.NewAuthHandler(authService, cookies, cfg.BotURL, log)
	pageHandler := handler.NewPageHandler()

	// --- Auth routes ---
	e.GET("/auth/magic", authHandler.Redeem)
	e.POST("/auth/staff/login", authHandler.StaffLogin)
	e.POST("/auth/logout", authHandler.Logout)
	e.GET("/auth/session", authHandler.CurrentSession)

	issuers := service.NewRoleSet(
		domain.RoleSuperAdmin, domain.RolePlatformManager, domain.RolePlatformSupport,
		domain.RoleMerchantOwner,
	)
	e.POST("/auth/links", authHandler.IssueLink, middleware.Guard(gate, issuers))

	// --- Protected surfaces ---
	staff := service.NewRoleSet(
		domain.RoleSuperAdmin, domain.RolePlatformManager, domain.RolePlatformSupport,
	)
	admin := e.Group("/admin", middleware.Guard(gate, staff))
	admin.GET("/context", pageHandler.Context)

	dashboard := e.Group("/dashboard", middleware.Guard(gate, service.NewRoleSet(
		domain.RoleSuperAdmin, domain.RolePlatformManager, domain.RolePlatformSupport,
		domain.RoleMerchantOwner,
	)))
	dashboard.GET("/context", pageHandler.Context)

	app := e.Group("/app", middleware.Guard(gate, service.NewRoleSet(
		domain.RoleMerchantOwner, domain.RoleEndUser,
	)))
	app.GET("/context", pageHandler.Context)

	// --- Health probes, metrics, docs (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(db, rdb)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoswagger.WrapHandler)

	return e
}
