// Package config содержит логику чтения конфигурации сервиса приёма заказов.
package config

import (
	"flag"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config содержит параметры конфигурации сервиса.
type Config struct {
	RunAddress           string        `env:"RUN_ADDRESS"`
	DatabaseURI          string        `env:"DATABASE_URI"`
	CatalogSourceAddress string        `env:"CATALOG_SOURCE_ADDRESS"`
	CatalogSyncInterval  time.Duration `env:"CATALOG_SYNC_INTERVAL" envDefault:"1m"`
	RedisURL             string        `env:"REDIS_URL"`
	CacheTTL             time.Duration `env:"CATALOG_CACHE_TTL" envDefault:"5m"`
	AuthSecret           string        `env:"AUTH_SECRET"`
	AdminLogin           string        `env:"ADMIN_LOGIN" envDefault:"admin"`
	AdminPassword        string        `env:"ADMIN_PASSWORD" envDefault:"admin123"`
	RequireSeller        bool          `env:"REQUIRE_SELLER"`
}

// Parse считывает конфигурацию из флагов командной строки и переменных окружения.
// Переменные окружения имеют приоритет над флагами.
func Parse() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	envRunAddress := cfg.RunAddress
	envDatabaseURI := cfg.DatabaseURI
	envCatalogAddress := cfg.CatalogSourceAddress
	envRedisURL := cfg.RedisURL
	envRequireSeller := cfg.RequireSeller

	flag.StringVar(&cfg.RunAddress, "a", "localhost:8080", "address and port for HTTP server")
	flag.StringVar(&cfg.DatabaseURI, "d", "", "database URI")
	flag.StringVar(&cfg.CatalogSourceAddress, "r", "", "external catalog address")
	flag.StringVar(&cfg.RedisURL, "c", "", "redis URL for catalog cache")
	flag.BoolVar(&cfg.RequireSeller, "s", false, "require seller on order submission")

	flag.Parse()

	if envRunAddress != "" {
		cfg.RunAddress = envRunAddress
	}
	if envDatabaseURI != "" {
		cfg.DatabaseURI = envDatabaseURI
	}
	if envCatalogAddress != "" {
		cfg.CatalogSourceAddress = envCatalogAddress
	}
	if envRedisURL != "" {
		cfg.RedisURL = envRedisURL
	}
	if envRequireSeller {
		cfg.RequireSeller = true
	}

	if cfg.RunAddress == "" {
		cfg.RunAddress = "localhost:8080"
	}

	return cfg, nil
}
