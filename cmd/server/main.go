package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/dulytrade/portal-api/internal/api"
	"github.com/dulytrade/portal-api/internal/api/middleware"
	"github.com/dulytrade/portal-api/internal/core/ports"
	"github.com/dulytrade/portal-api/internal/core/service"
	"github.com/dulytrade/portal-api/internal/infrastructure/config"
	mongodb "github.com/dulytrade/portal-api/internal/infrastructure/db/mongo"
	redisdb "github.com/dulytrade/portal-api/internal/infrastructure/db/redis"
	"github.com/dulytrade/portal-api/internal/infrastructure/http/handlers"
	"github.com/dulytrade/portal-api/internal/infrastructure/identity/gotrue"
	"github.com/dulytrade/portal-api/internal/infrastructure/identity/local"
	"github.com/dulytrade/portal-api/internal/infrastructure/queue"
	"github.com/dulytrade/portal-api/internal/infrastructure/session"
	"github.com/dulytrade/portal-api/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		panic("config: " + err.Error())
	}

	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.Env == "development",
	})

	mongoClient, db, err := mongodb.Connect(ctx, mongodb.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("mongo connection failed")
	}
	defer func() { _ = mongoClient.Disconnect(context.Background()) }()

	rdb, err := redisdb.Connect(ctx, redisdb.Config{
		Addr: cfg.Redis.Addr,
		DB:   cfg.Redis.DB,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("redis connection failed")
	}
	defer func() { _ = rdb.Close() }()

	secret := []byte(cfg.Identity.JWTSecret)
	if len(secret) == 0 {
		log.Fatal().Msg("IDENTITY_JWT_SECRET is required")
	}

	identity, err := buildIdentity(cfg, db, secret)
	if err != nil {
		log.Fatal().Err(err).Msg("identity driver setup failed")
	}

	sessions := session.NewStore(secret, redisdb.NewRevocationList(rdb), cfg.Session.TTL, cfg.Session.RefreshWindow)
	cookie := session.NewCookie(cfg.Session.CookieName, cfg.Session.CookieSecure)

	profiles := mongodb.NewProfileRepository(db)

	recorder := queue.NewRecorder(0, mongodb.NewActivityRepository(db), log)
	recorder.Start(ctx)

	authService := service.NewAuthService(identity, profiles, sessions, recorder, log)
	callbackService := service.NewCallbackService(identity, sessions, recorder, log)

	limiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		PerMinute:       cfg.RateLimit.LoginPerMinute,
		Burst:           cfg.RateLimit.LoginBurst,
		CleanupInterval: 5 * time.Minute,
	})
	defer limiter.Stop()

	// Only the gotrue driver has an upstream worth probing.
	pinger, _ := identity.(handlers.UpstreamPinger)

	e := api.NewRouter(api.Deps{
		Auth:         authService,
		Callbacks:    callbackService,
		Sessions:     sessions,
		Profiles:     profiles,
		Cookie:       cookie,
		LoginLimiter: limiter,
		Mongo:        db,
		Redis:        rdb,
		IdentityPing: pinger,
		Log:          log,
	})

	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Str("identity_driver", cfg.Identity.Driver).Msg("server starting")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("server stopped")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
		os.Exit(1)
	}
}

// buildIdentity selects the identity backend. The local driver keeps
// credentials in mongo and is intended for development and testing.
func buildIdentity(cfg *config.Config, db *mongo.Database, secret []byte) (ports.IdentityProvider, error) {
	switch cfg.Identity.Driver {
	case "local":
		return local.New(mongodb.NewCredentialRepository(db), secret, cfg.Session.TTL), nil
	default:
		if cfg.Identity.BaseURL == "" || cfg.Identity.AnonKey == "" {
			return nil, errors.New("IDENTITY_BASE_URL and IDENTITY_ANON_KEY are required for the gotrue driver")
		}
		return gotrue.New(gotrue.Config{
			BaseURL:    cfg.Identity.BaseURL,
			AnonKey:    cfg.Identity.AnonKey,
			ServiceKey: cfg.Identity.ServiceKey,
		}), nil
	}
}
