package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"

	"github.com/vancomm/bingo/internal/game"
)

type KV struct {
	Backend  string `env:"BACKEND" envDefault:"sqlite"`
	Path     string `env:"PATH" envDefault:"bingo.db"`
	Table    string `env:"TABLE" envDefault:"bingo"`
	RedisURL string `env:"REDIS_URL"`
}

type Game struct {
	MaxNumber   int  `env:"MAX_NUMBER" envDefault:"75"`
	CardCount   int  `env:"CARD_COUNT" envDefault:"0"`
	StrictMarks bool `env:"STRICT_MARKS"`
}

type Assets struct {
	Dir       string   `env:"DIR"`
	Origin    string   `env:"ORIGIN"`
	CacheName string   `env:"CACHE_NAME" envDefault:"bingo-game-v1"`
	Manifest  []string `env:"MANIFEST" envSeparator:"," envDefault:"/,/index.html,/manifest.json,/favicon.ico,/logo192.png,/logo512.png"`
}

type Config struct {
	Addr        string `env:"APP_ADDR" envDefault:":8080"`
	BasePath    string `env:"APP_BASE_PATH"`
	Development bool   `env:"DEVELOPMENT"`
	LogFile     string `env:"LOG_FILE"`
	KV          KV     `envPrefix:"KV_"`
	Game        Game   `envPrefix:"BINGO_"`
	Assets      Assets `envPrefix:"ASSETS_"`
}

// Load reads the configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if cfg.KV.Backend != "sqlite" && cfg.KV.Backend != "redis" {
		return nil, fmt.Errorf("unknown KV_BACKEND %q", cfg.KV.Backend)
	}
	if cfg.KV.Backend == "redis" && cfg.KV.RedisURL == "" {
		return nil, fmt.Errorf("KV_REDIS_URL is required for the redis backend")
	}
	if err := game.ValidateMaxNumber(cfg.Game.MaxNumber); err != nil {
		return nil, fmt.Errorf("BINGO_MAX_NUMBER: %w", err)
	}
	return &cfg, nil
}
