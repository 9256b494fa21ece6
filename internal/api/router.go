package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/dulytrade/portal-api/internal/api/handler"
	"github.com/dulytrade/portal-api/internal/api/middleware"
	"github.com/dulytrade/portal-api/internal/core/ports"
	"github.com/dulytrade/portal-api/internal/infrastructure/http/handlers"
	"github.com/dulytrade/portal-api/internal/infrastructure/session"
)

// Deps carries the wired services the router mounts. Mongo and Redis are
// only used by the readiness probe and may be nil in tests. Registry defaults
// to the global Prometheus registry; tests inject their own so repeated
// router construction does not collide on metric registration.
type Deps struct {
	Auth         ports.AuthService
	Callbacks    ports.CallbackService
	Sessions     ports.SessionStore
	Profiles     ports.ProfileRepository
	Cookie       *session.Cookie
	LoginLimiter *middleware.RateLimiter
	Mongo        *mongo.Database
	Redis        *redis.Client
	IdentityPing handlers.UpstreamPinger
	Registry     *prometheus.Registry
	Log          zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	var registerer prometheus.Registerer = prometheus.DefaultRegisterer
	var gatherer prometheus.Gatherer = prometheus.DefaultGatherer
	if d.Registry != nil {
		registerer = d.Registry
		gatherer = d.Registry
	}
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "portal",
		Registerer: registerer,
	}))
	e.Use(middleware.Guard(d.Sessions, d.Profiles, d.Cookie, d.Log))

	authHandler := handler.NewAuthHandler(d.Auth, d.Cookie)
	callbackHandler := handler.NewCallbackHandler(d.Callbacks, d.Cookie)

	// --- Auth API ---
	authAPI := e.Group("/api/auth")
	authAPI.POST("/logout", authHandler.Logout)
	authAPI.POST("/accept-terms", authHandler.AcceptTerms)

	// Credential endpoints sit behind the per-IP throttle.
	throttled := authAPI.Group("", d.LoginLimiter.Middleware())
	throttled.POST("/login", authHandler.Login)
	throttled.POST("/staff/login", authHandler.StaffLogin)
	throttled.POST("/signup", authHandler.Signup)
	throttled.POST("/register", authHandler.Register)

	// --- OAuth redirect target (a page route, not under /api) ---
	e.GET("/auth/callback", callbackHandler.Callback)

	// --- Observability ---
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{
		Gatherer: gatherer,
	}))

	// --- Health probes ---
	e.GET("/health", handlers.NewHealthHandler().Liveness)
	if d.Mongo != nil && d.Redis != nil {
		e.GET("/health/ready", handlers.NewHealthDependenciesHandler(d.Mongo, d.Redis, d.IdentityPing).Readiness)
	}

	return e
}
