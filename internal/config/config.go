package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/healthid/healthid/internal/domain/healthid"
	hid "github.com/healthid/healthid/pkg/healthid"
)

type Config struct {
	Port           string        `mapstructure:"PORT"`
	Env            string        `mapstructure:"ENV"`
	LogLevel       string        `mapstructure:"LOG_LEVEL"`
	DatabaseURL    string        `mapstructure:"DATABASE_URL"`
	DBMaxConns     int32         `mapstructure:"DB_MAX_CONNS"`
	DBMinConns     int32         `mapstructure:"DB_MIN_CONNS"`
	RedisURL       string        `mapstructure:"REDIS_URL"`
	RedisCacheTTL  time.Duration `mapstructure:"REDIS_CACHE_TTL"`
	JWTSecret      string        `mapstructure:"JWT_SECRET"`
	JWTIssuer      string        `mapstructure:"JWT_ISSUER"`
	JWTAudience    string        `mapstructure:"JWT_AUDIENCE"`
	CORSOrigins    []string      `mapstructure:"CORS_ORIGINS"`
	RateLimitRPS   float64       `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst int           `mapstructure:"RATE_LIMIT_BURST"`

	DefaultState string        `mapstructure:"HEALTHID_DEFAULT_STATE"`
	MaxAttempts  int           `mapstructure:"HEALTHID_MAX_ATTEMPTS"`
	CheckTimeout time.Duration `mapstructure:"HEALTHID_CHECK_TIMEOUT"`
	BatchMax     int           `mapstructure:"HEALTHID_BATCH_MAX"`
	BatchPause   time.Duration `mapstructure:"HEALTHID_BATCH_PAUSE"`
}

var keys = []string{
	"PORT", "ENV", "LOG_LEVEL",
	"DATABASE_URL", "DB_MAX_CONNS", "DB_MIN_CONNS",
	"REDIS_URL", "REDIS_CACHE_TTL",
	"JWT_SECRET", "JWT_ISSUER", "JWT_AUDIENCE",
	"CORS_ORIGINS", "RATE_LIMIT_RPS", "RATE_LIMIT_BURST",
	"HEALTHID_DEFAULT_STATE", "HEALTHID_MAX_ATTEMPTS", "HEALTHID_CHECK_TIMEOUT",
	"HEALTHID_BATCH_MAX", "HEALTHID_BATCH_PAUSE",
}

// Load reads configuration from the environment and an optional .env file
// in the working directory. Nothing is required at load time; call Validate
// before serving.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()

	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("DB_MAX_CONNS", 10)
	v.SetDefault("DB_MIN_CONNS", 2)
	v.SetDefault("REDIS_CACHE_TTL", "10m")
	v.SetDefault("CORS_ORIGINS", "http://localhost:5173")
	v.SetDefault("RATE_LIMIT_RPS", 100)
	v.SetDefault("RATE_LIMIT_BURST", 200)
	v.SetDefault("HEALTHID_DEFAULT_STATE", hid.DefaultStateCode)
	v.SetDefault("HEALTHID_MAX_ATTEMPTS", 12)
	v.SetDefault("HEALTHID_CHECK_TIMEOUT", "1200ms")
	v.SetDefault("HEALTHID_BATCH_MAX", 1000)
	v.SetDefault("HEALTHID_BATCH_PAUSE", "2ms")

	// Unmarshal only sees env vars that are bound explicitly.
	for _, k := range keys {
		_ = v.BindEnv(k)
	}

	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.CORSOrigins == nil {
		cfg.CORSOrigins = splitList(v.GetString("CORS_ORIGINS"))
	} else {
		cfg.CORSOrigins = splitList(strings.Join(cfg.CORSOrigins, ","))
	}

	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Level parses LOG_LEVEL, falling back to info.
func (c *Config) Level() zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(c.LogLevel))
	if err != nil || c.LogLevel == "" {
		return zerolog.InfoLevel
	}
	return lvl
}

// Validate checks that the configuration is safe to run.
func (c *Config) Validate() error {
	if c.Env != "development" && c.Env != "production" {
		return fmt.Errorf("ENV must be \"development\" or \"production\", got %q", c.Env)
	}
	if c.IsProduction() && c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required in production")
	}
	if !hid.IsWellFormedStateCode(c.DefaultState) {
		return fmt.Errorf("HEALTHID_DEFAULT_STATE must be two digits, got %q", c.DefaultState)
	}
	if c.MaxAttempts <= 0 || c.MaxAttempts > healthid.MaxAttemptsLimit {
		return fmt.Errorf("HEALTHID_MAX_ATTEMPTS must be between 1 and %d, got %d", healthid.MaxAttemptsLimit, c.MaxAttempts)
	}
	if c.CheckTimeout <= 0 || c.CheckTimeout > healthid.MaxTimeout {
		return fmt.Errorf("HEALTHID_CHECK_TIMEOUT must be positive and at most %s, got %s", healthid.MaxTimeout, c.CheckTimeout)
	}
	if c.BatchMax <= 0 {
		return fmt.Errorf("HEALTHID_BATCH_MAX must be positive, got %d", c.BatchMax)
	}
	if c.DBMaxConns <= 0 || c.DBMinConns < 0 || c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("invalid pool sizing: DB_MIN_CONNS=%d DB_MAX_CONNS=%d", c.DBMinConns, c.DBMaxConns)
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst <= 0 {
		return fmt.Errorf("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive")
	}
	return nil
}
