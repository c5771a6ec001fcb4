package config

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port         string        `env:"PORT,          default=3000"`
	Env          string        `env:"ENV,           default=development"`
	LogLevel     string        `env:"LOG_LEVEL,     default=info"`
	StoreTimeout time.Duration `env:"STORE_TIMEOUT, default=5s"`
	BcryptCost   int           `env:"BCRYPT_COST,   default=10"`

	// AuthRateLimit is login/register attempts per second per client IP.
	AuthRateLimit float64 `env:"AUTH_RATE_LIMIT, default=5"`
	AuthRateBurst int     `env:"AUTH_RATE_BURST, default=10"`

	Mongo   MongoConfig
	Redis   RedisConfig
	Session SessionConfig
	GitHub  GitHubConfig
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=dogdaycare"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR,     default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,       default=0"`
}

type SessionConfig struct {
	TTL        time.Duration `env:"SESSION_TTL,     default=24h"`
	Rolling    bool          `env:"SESSION_ROLLING, default=true"`
	CookieName string        `env:"SESSION_COOKIE,  default=daycare_session"`
	Secret     string        `env:"SESSION_SECRET"`
}

type GitHubConfig struct {
	ClientID     string `env:"GITHUB_CLIENT_ID"`
	ClientSecret string `env:"GITHUB_CLIENT_SECRET"`
	CallbackURL  string `env:"GITHUB_CALLBACK_URL, default=http://localhost:3000/auth/github/callback"`
}

// Enabled reports whether GitHub login is configured.
func (g GitHubConfig) Enabled() bool {
	return g.ClientID != "" && g.ClientSecret != ""
}

// IsDevelopment is true for local runs; it switches the logger to console
// output and drops the Secure flag from cookies.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// Load reads configuration from environment variables using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	return LoadWith(ctx, envconfig.OsLookuper())
}

// LoadWith reads configuration from an arbitrary lookuper.
func LoadWith(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
	}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Session.Secret == "" {
		if !c.IsDevelopment() {
			return errors.New("SESSION_SECRET is required outside development")
		}
		c.Session.Secret = "dev-only-session-secret"
	}
	if c.StoreTimeout <= 0 {
		return errors.New("STORE_TIMEOUT must be positive")
	}
	if c.Session.TTL <= 0 {
		return errors.New("SESSION_TTL must be positive")
	}
	return nil
}
