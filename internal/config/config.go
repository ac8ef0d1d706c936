package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds every runtime knob, resolved once at process start.
type Config struct {
	Env  string `env:"APP_ENV" envDefault:"development"`
	Addr string `env:"HTTP_ADDR" envDefault:":8080"`

	PostgresDSN string `env:"PG_DSN"`

	// Telegram login-widget verification.
	BotToken        string        `env:"TELEGRAM_BOT_TOKEN"`
	AuthMaxAge      time.Duration `env:"TELEGRAM_AUTH_MAX_AGE" envDefault:"24h"`
	AllowUnverified bool          `env:"TELEGRAM_ALLOW_UNVERIFIED" envDefault:"false"`

	// Session token issuance.
	SessionSecret string        `env:"SESSION_SECRET"`
	SessionTTL    time.Duration `env:"SESSION_TTL" envDefault:"24h"`

	StorageTimeout time.Duration `env:"STORAGE_TIMEOUT" envDefault:"5s"`

	RateBurst  int `env:"RATE_BURST" envDefault:"20"`
	RatePerSec int `env:"RATE_PER_SEC" envDefault:"10"`

	MaxBodyBytes int64 `env:"MAX_BODY_BYTES" envDefault:"65536"`
}

// Load reads an optional .env file, parses the environment and validates
// the combination. Misconfiguration is fatal for the caller: the signing
// secret and the bot token must be present before the first request.
func Load() (Config, error) {
	// .env отсутствует в проде — это не ошибка.
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if strings.TrimSpace(c.SessionSecret) == "" {
		return errors.New("SESSION_SECRET is required")
	}
	if c.AllowUnverified && c.Production() {
		return errors.New("TELEGRAM_ALLOW_UNVERIFIED cannot be combined with APP_ENV=production")
	}
	if strings.TrimSpace(c.BotToken) == "" && !c.AllowUnverified {
		return errors.New("TELEGRAM_BOT_TOKEN is required unless TELEGRAM_ALLOW_UNVERIFIED is set")
	}
	if c.SessionTTL <= 0 {
		return errors.New("SESSION_TTL must be positive")
	}
	if c.AuthMaxAge <= 0 {
		return errors.New("TELEGRAM_AUTH_MAX_AGE must be positive")
	}
	return nil
}

// Production reports whether the service runs with production hardening.
func (c Config) Production() bool {
	return strings.EqualFold(strings.TrimSpace(c.Env), "production")
}
