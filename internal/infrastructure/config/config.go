package config

import (
	"context"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port     string `env:"PORT,     default=8080"`
	Env      string `env:"ENV,      default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`
	SiteURL  string `env:"SITE_URL, default=http://localhost:3000"`

	Identity  IdentityConfig
	Mongo     MongoConfig
	Redis     RedisConfig
	Session   SessionConfig
	RateLimit RateLimitConfig
}

type IdentityConfig struct {
	// Driver selects the identity backend: "gotrue" (hosted provider) or
	// "local" (mongo-backed credential store, development only).
	Driver     string `env:"IDENTITY_DRIVER, default=gotrue"`
	BaseURL    string `env:"IDENTITY_BASE_URL"`
	AnonKey    string `env:"IDENTITY_ANON_KEY"`
	ServiceKey string `env:"IDENTITY_SERVICE_KEY"`
	// JWTSecret must match the secret the provider signs session tokens with.
	JWTSecret string `env:"IDENTITY_JWT_SECRET"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=portal"`
}

type RedisConfig struct {
	Addr string `env:"REDIS_ADDR, default=localhost:6379"`
	DB   int    `env:"REDIS_DB,   default=0"`
}

type SessionConfig struct {
	CookieName    string        `env:"SESSION_COOKIE_NAME,   default=dp_session"`
	CookieSecure  bool          `env:"SESSION_COOKIE_SECURE, default=false"`
	TTL           time.Duration `env:"SESSION_TTL,           default=24h"`
	RefreshWindow time.Duration `env:"SESSION_REFRESH_WINDOW, default=1h"`
}

type RateLimitConfig struct {
	LoginPerMinute float64 `env:"RATE_LIMIT_LOGIN_PER_MINUTE, default=10"`
	LoginBurst     int     `env:"RATE_LIMIT_LOGIN_BURST,      default=10"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
