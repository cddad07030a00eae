package config

import (
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	// Bloque app (opcional en YAML). Si no está, queda vacío.
	App struct {
		// dev | staging | prod
		Env string `yaml:"app_env"`
		// debug | info | warn | error
		LogLevel string `yaml:"log_level"`
	} `yaml:"app"`

	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`

	Storage struct {
		// memory | postgres
		Driver   string `yaml:"driver"`
		Postgres struct {
			DSN          string `yaml:"dsn"`
			MaxOpenConns int    `yaml:"max_open_conns"`
		} `yaml:"postgres"`
	} `yaml:"storage"`

	Cache struct {
		// memory | redis
		Kind  string `yaml:"kind"`
		Redis struct {
			Addr   string `yaml:"addr"`
			DB     int    `yaml:"db"`
			Prefix string `yaml:"prefix"`
		} `yaml:"redis"`
	} `yaml:"cache"`

	OAuth struct {
		// Lifetimes en segundos; cero usa los defaults del engine.
		AccessTokenLifetime       int  `yaml:"access_token_lifetime"`
		RefreshTokenLifetime      int  `yaml:"refresh_token_lifetime"`
		AuthorizationCodeLifetime int  `yaml:"authorization_code_lifetime"`
		AllowEmptyState           bool `yaml:"allow_empty_state"`
		// Desactiva la rotación de refresh tokens (alwaysIssueNewRefreshToken).
		DisableRefreshRotation    bool `yaml:"disable_refresh_rotation"`
		// Tokens firmados (JWT) en lugar de opacos. Solo afecta al store.
		SignedTokens struct {
			Enabled bool   `yaml:"enabled"`
			Issuer  string `yaml:"issuer"`
			HS256   string `yaml:"hs256_secret"`
		} `yaml:"signed_tokens"`
	} `yaml:"oauth"`
}

func Load(path string) (*Config, error) {
	var c Config
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, err
		}
	}

	// sane defaults
	if c.App.Env == "" {
		c.App.Env = "dev"
	}
	if c.App.LogLevel == "" {
		c.App.LogLevel = "info"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = "memory"
	}
	if c.Storage.Postgres.MaxOpenConns == 0 {
		c.Storage.Postgres.MaxOpenConns = 10
	}
	if c.Cache.Kind == "" {
		c.Cache.Kind = "memory"
	}
	// Overrides por env
	c.App.Env = envOr("APP_ENV", c.App.Env)
	c.App.LogLevel = envOr("LOG_LEVEL", c.App.LogLevel)
	c.Server.Addr = envOr("SERVER_ADDR", c.Server.Addr)
	c.Storage.Driver = envOr("STORAGE_DRIVER", c.Storage.Driver)
	c.Storage.Postgres.DSN = envOr("POSTGRES_DSN", c.Storage.Postgres.DSN)
	c.Cache.Kind = envOr("CACHE_KIND", c.Cache.Kind)
	c.Cache.Redis.Addr = envOr("REDIS_ADDR", c.Cache.Redis.Addr)
	if v := os.Getenv("ACCESS_TOKEN_LIFETIME"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.OAuth.AccessTokenLifetime = n
		}
	}
	return &c, nil
}

// ---- Helpers env ----

func envOr(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}
