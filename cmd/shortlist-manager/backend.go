// cmd/shortlist-manager/backend.go
package main

import (
	"context"
	"fmt"
	"time"

	"talent-shortlist/internal/common/config"
	"talent-shortlist/internal/common/database"
	"talent-shortlist/internal/common/logger"
	"talent-shortlist/internal/shortlist"
)

// backend owns the connections behind the shortlist KV.
type backend struct {
	kv       shortlist.KV
	redis    *database.RedisClient
	postgres *database.PostgresClient
}

func (b *backend) Close() {
	if b.redis != nil {
		b.redis.Close()
	}
	if b.postgres != nil {
		b.postgres.Close()
	}
}

func openBackend(ctx context.Context, cfg *config.Config, log logger.Logger) (*backend, error) {
	switch cfg.Shortlist.Backend {
	case config.BackendRedis:
		var rc *database.RedisClient
		err := retryWithBackoff(func() error {
			var err error
			rc, err = database.NewRedis(cfg.Database.Redis)
			if err != nil {
				return err
			}
			return rc.Ping(ctx)
		}, 10, 2*time.Second, log, "Redis connection")
		if err != nil {
			return nil, err
		}
		log.Info("Redis connected successfully", nil)
		return &backend{
			kv:    shortlist.NewRedisKV(rc.Client, cfg.Shortlist.MaxUpdateRetries),
			redis: rc,
		}, nil

	case config.BackendPostgres:
		var pg *database.PostgresClient
		err := retryWithBackoff(func() error {
			var err error
			pg, err = database.NewPostgres(cfg.Database.Postgres)
			if err != nil {
				return err
			}
			return pg.Ping(ctx)
		}, 15, 2*time.Second, log, "PostgreSQL connection")
		if err != nil {
			return nil, err
		}
		kv := shortlist.NewPostgresKV(pg.DB, cfg.Database.Postgres.Table)
		if err := kv.EnsureSchema(ctx); err != nil {
			pg.Close()
			return nil, fmt.Errorf("prepare shortlist table: %w", err)
		}
		log.Info("PostgreSQL connected successfully", nil)

		b := &backend{kv: kv, postgres: pg}
		// Redis is optional here and only carries change events between instances.
		if cfg.Database.Redis.Address != "" {
			if rc, err := database.NewRedis(cfg.Database.Redis); err == nil && rc.Ping(ctx) == nil {
				b.redis = rc
			} else {
				log.Warn("Redis unavailable, change events stay local", nil)
			}
		}
		return b, nil

	case config.BackendMemory:
		log.Warn("Using in-memory shortlist; entries are lost on restart", nil)
		return &backend{kv: shortlist.NewMemoryKV()}, nil
	}
	return nil, fmt.Errorf("unknown shortlist backend %q", cfg.Shortlist.Backend)
}
