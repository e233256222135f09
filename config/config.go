package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds the runtime settings for the bracket server and console
type Config struct {
	Addr            string        `env:"ADDR" envDefault:":8080"`
	Debug           bool          `env:"DEBUG"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"5s"`
	CookieName      string        `env:"COOKIE_NAME" envDefault:"bracket_session"`
	SessionTTL      time.Duration `env:"SESSION_TTL" envDefault:"12h"`
	SweepInterval   time.Duration `env:"SWEEP_INTERVAL" envDefault:"10m"`
}

const envPrefix = "BRACKET_"

// Load reads an optional .env file and then parses BRACKET_* environment variables.
// Variables already present in the environment win over the file
func Load(files ...string) (Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load env file: %w", err)
	}

	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: envPrefix}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.CookieName == "" {
		return Config{}, errors.New("cookie name must not be empty")
	}
	return cfg, nil
}
