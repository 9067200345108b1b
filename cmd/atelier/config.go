package main

import (
	"errors"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/dmitrymomot/atelier/pkg/cache"
	"github.com/dmitrymomot/atelier/pkg/cas"
	"github.com/dmitrymomot/atelier/pkg/cookie"
	"github.com/dmitrymomot/atelier/pkg/db"
	"github.com/dmitrymomot/atelier/pkg/lifecycle"
	"github.com/dmitrymomot/atelier/pkg/logger"
	"github.com/dmitrymomot/atelier/pkg/redis"
	"github.com/dmitrymomot/atelier/pkg/storage"
	"github.com/dmitrymomot/atelier/pkg/token"
)

// BaseConfig is what every command needs.
type BaseConfig struct {
	Log logger.Config
	DB  db.Config
}

// UserConfig adds the salt that stamps program hashes.
type UserConfig struct {
	BaseConfig
	HashSalt string `env:"HASH_SALT,required,notEmpty"`
}

// ServeConfig is the full server configuration.
type ServeConfig struct {
	UserConfig

	Addr            string        `env:"HTTP_ADDR" envDefault:":8080"`
	MaxBodySize     int64         `env:"HTTP_MAX_BODY_SIZE" envDefault:"1048576"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`
	SearchLimit     int           `env:"SEARCH_LIMIT" envDefault:"50"`
	LoginRate       float64       `env:"LOGIN_RATE" envDefault:"0.2"`
	LoginBurst      int           `env:"LOGIN_BURST" envDefault:"5"`
	MetricsEnabled  bool          `env:"METRICS_ENABLED" envDefault:"true"`

	Cookie    cookie.Config
	Sentry    logger.SentryConfig
	Lifecycle lifecycle.Config
	Uploads   cas.Config
	Storage   storage.Config
	Token     token.Config
	Redis     redis.Config
	Cache     cache.Config
}

// loadConfig reads an optional .env file into the process environment and
// parses it into T. Variables already set in the environment win.
func loadConfig[T any]() (T, error) {
	var cfg T
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return cfg, err
	}
	if err := env.Parse(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
