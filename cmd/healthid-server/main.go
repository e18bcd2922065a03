package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/healthid/healthid/internal/config"
	"github.com/healthid/healthid/internal/domain/healthid"
	"github.com/healthid/healthid/internal/platform/db"
	"github.com/healthid/healthid/internal/platform/redis"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "healthid-server",
		Short:        "Universal Health ID service",
		SilenceUsage: true,
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(generateCmd())
	rootCmd.AddCommand(provisionCmd())
	rootCmd.AddCommand(verifyCmd())
	return rootCmd
}

func newLogger(cfg *config.Config, out io.Writer) zerolog.Logger {
	var logger zerolog.Logger
	if cfg.IsDev() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: out}).With().Timestamp().Logger()
	} else {
		logger = zerolog.New(out).With().Timestamp().Logger()
	}
	return logger.Level(cfg.Level())
}

// loadConfig loads and validates configuration for every subcommand.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// deps holds the optional backing services. Both pool and cache are nil when
// their URLs are not configured.
type deps struct {
	pool  *pgxpool.Pool
	cache *redis.Client
}

func openDeps(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*deps, error) {
	d := &deps{}
	if cfg.DatabaseURL != "" {
		pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
		if err != nil {
			return nil, err
		}
		d.pool = pool
		logger.Info().Msg("connected to database")
	} else {
		logger.Warn().Msg("DATABASE_URL not set; running without a registry, uniqueness is not checked remotely")
	}

	client, err := redis.New(ctx, cfg.RedisURL)
	if err != nil {
		// The cache is optional; a dead Redis must not keep the service down.
		logger.Warn().Err(err).Msg("redis unavailable, existence cache disabled")
	} else if client != nil {
		d.cache = client
		logger.Info().Msg("connected to redis")
	}
	return d, nil
}

func (d *deps) Close() {
	if d.cache != nil {
		d.cache.Close()
	}
	if d.pool != nil {
		d.pool.Close()
	}
}

// newService builds the generator and service over whatever backing
// services are available. reg may be nil to skip metrics.
func newService(cfg *config.Config, d *deps, reg prometheus.Registerer, logger zerolog.Logger) *healthid.Service {
	var repo healthid.Registry
	var dir healthid.Directory
	var cached *healthid.CachedDirectory
	if d.pool != nil {
		repo = healthid.NewRegistryPG(d.pool)
		dir = repo
	}
	if d.cache != nil && repo != nil {
		cached = healthid.NewCachedDirectory(d.cache, repo, cfg.RedisCacheTTL, logger)
		dir = cached
	}

	gen := healthid.NewGenerator(dir, logger)
	gen.SetDefaultStateCode(cfg.DefaultState)
	if reg != nil {
		gen.SetMetrics(healthid.NewMetrics(reg))
	}

	svc := healthid.NewService(repo, gen, healthid.Settings{
		MaxAttempts: cfg.MaxAttempts,
		Timeout:     cfg.CheckTimeout,
		BatchMax:    cfg.BatchMax,
		BatchPause:  cfg.BatchPause,
	}, logger)
	if cached != nil {
		svc.SetCache(cached)
	}
	return svc
}
