package config

import (
	"context"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port      string `env:"PORT,       default=8080"`
	Env       string `env:"ENV,        default=development"`
	LogLevel  string `env:"LOG_LEVEL,  default=info"`
	PublicURL string `env:"PUBLIC_URL, default=http://localhost:8080"`

	Auth  AuthConfig
	Mail  MailConfig
	Mongo MongoConfig
	Redis RedisConfig
}

type AuthConfig struct {
	JWTSecret      string        `env:"JWT_SECRET,       required"`
	SessionTTL     time.Duration `env:"SESSION_TTL,      default=168h"`
	AccessTokenTTL time.Duration `env:"ACCESS_TOKEN_TTL, default=1h"`
	OTPTTL         time.Duration `env:"OTP_TTL,          default=24h"`
	ResetThrottle  time.Duration `env:"RESET_THROTTLE,   default=60s"`
	ResolveTimeout time.Duration `env:"RESOLVE_TIMEOUT,  default=5s"`
	LoginRate      float64       `env:"LOGIN_RATE,       default=5"`
	CookieSecure   bool          `env:"COOKIE_SECURE,    default=false"`
}

type MailConfig struct {
	From    string `env:"MAIL_FROM,    default=no-reply@jurifinder.local"`
	Workers int    `env:"MAIL_WORKERS, default=2"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=legal_vault"`
}

type RedisConfig struct {
	Addr string `env:"REDIS_ADDR, default=localhost:6379"`
	DB   int    `env:"REDIS_DB,   default=0"`
}

// Development reports whether the service runs with development defaults.
func (c *Config) Development() bool {
	return c.Env == "development"
}

// Load reads an optional .env file, then configuration from environment
// variables using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	// A missing .env is the normal case outside local development.
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}
