package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port       string `env:"PORT,       default=8080"`
	Env        string `env:"ENV,        default=development"`
	LogLevel   string `env:"LOG_LEVEL,  default=info"`
	CookieName string `env:"COOKIE_NAME, default=cp_session"`

	// SessionSecret signs the session cookie. Mandatory outside development.
	SessionSecret string        `env:"SESSION_SECRET"`
	SessionTTL    time.Duration `env:"SESSION_TTL, default=24h"`

	// BotURL is the Telegram deep-link base for identity verification.
	BotURL string `env:"BOT_URL, default=https://t.me/channelpass_bot"`

	Tokens  TokenConfig
	Limiter LimiterConfig
	Mongo   MongoConfig
	Redis   RedisConfig
}

// TokenConfig holds the magic-link lifetime per audience tier.
type TokenConfig struct {
	StaffTTL    time.Duration `env:"TOKEN_STAFF_TTL,    default=15m"`
	MerchantTTL time.Duration `env:"TOKEN_MERCHANT_TTL, default=1h"`
	MemberTTL   time.Duration `env:"TOKEN_MEMBER_TTL,   default=24h"`
}

type LimiterConfig struct {
	Window time.Duration `env:"LIMITER_WINDOW, default=10m"`
	Budget int           `env:"LIMITER_BUDGET, default=10"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=channelpass"`
}

type RedisConfig struct {
	Addr string `env:"REDIS_ADDR, default=localhost:6379"`
	DB   int    `env:"REDIS_DB,   default=0"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if cfg.Env != "development" && cfg.SessionSecret == "" {
		return nil, fmt.Errorf("load config: SESSION_SECRET is required in %s", cfg.Env)
	}
	return &cfg, nil
}
