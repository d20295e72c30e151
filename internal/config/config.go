package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

type Config struct {
	Mode     Mode   `env:"MODE" envDefault:"offline"`
	HTTPAddr string `env:"HTTP_ADDR" envDefault:":8080"`

	DBDriver string `env:"DB_DRIVER" envDefault:"sqlite"`
	DBDSN    string `env:"DB_DSN"`

	// Base directory for the file storage tier.
	FileTierPath string `env:"FILE_TIER_PATH" envDefault:"./data"`

	AuthHMACSecret string `env:"AUTH_HMAC_SECRET" envDefault:"supersecret-dev-key"`

	AdminUser     string `env:"ADMIN_USER" envDefault:"admin"`
	AdminPassHash string `env:"ADMIN_PASS_HASH" envDefault:"$2y$12$pyZAiWaTfVtM7UElIRStvOC3gNbnp70nmQU4eYopLGBfCJr1DOvji"` // bcrypt

	CORSOriginsOnline  []string `env:"CORS_ORIGINS_ONLINE" envDefault:"https://app.mindtype.dev"`
	CORSOriginsOffline []string `env:"CORS_ORIGINS_OFFLINE" envDefault:"http://localhost:3000,http://localhost:5173"`

	// Convenience poll for activity-based session extension. Correctness
	// rests on the lazy expiry predicate, not on this interval.
	KeepAliveInterval time.Duration `env:"KEEP_ALIVE_INTERVAL" envDefault:"5m"`

	CalcCacheSize int `env:"CALC_CACHE_SIZE" envDefault:"256"`
}

// FromEnv loads configuration from environment variables.
func FromEnv() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.Mode != ModeOffline && cfg.Mode != ModeOnline {
		return Config{}, fmt.Errorf("unknown mode %q", cfg.Mode)
	}
	return cfg, nil
}

// CORSOrigins picks the origin allowlist for the active mode.
func (c Config) CORSOrigins() []string {
	if c.Mode == ModeOnline {
		return c.CORSOriginsOnline
	}
	return c.CORSOriginsOffline
}
