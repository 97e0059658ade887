package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/JonMunkholm/gamebook/internal/config"
	"github.com/JonMunkholm/gamebook/internal/core"
)

// Open builds the document store described by cfg: a directory or Postgres
// source, wrapped in the Redis cache when REDIS_URL is set. The returned
// close function releases every connection Open made.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger) (core.DocumentStore, func(), error) {
	if logger == nil {
		logger = slog.Default()
	}
	var (
		src     core.DocumentStore
		closers []func()
	)
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	switch cfg.Corpus.Source {
	case config.SourcePostgres:
		pool, err := OpenPool(ctx, PoolOptions{
			URL:             cfg.Database.URL,
			MaxConns:        cfg.Database.MaxConns,
			MinConns:        cfg.Database.MinConns,
			MaxConnLifetime: cfg.Database.MaxConnLifetime,
			MaxConnIdleTime: cfg.Database.MaxConnIdleTime,
		})
		if err != nil {
			return nil, nil, err
		}
		closers = append(closers, pool.Close)

		pg := NewPostgresStore(pool)
		if err := pg.EnsureSchema(ctx); err != nil {
			closeAll()
			return nil, nil, err
		}
		src = pg
		logger.Info("using postgres corpus")

	case config.SourceFS:
		dir, err := NewDirStore(cfg.Corpus.Dir)
		if err != nil {
			return nil, nil, err
		}
		src = dir
		logger.Info("using directory corpus", "dir", dir.Dir())

	default:
		return nil, nil, fmt.Errorf("unknown corpus source %q", cfg.Corpus.Source)
	}

	if cfg.Cache.Enabled() {
		client, err := NewRedisClient(ctx, cfg.Cache.RedisURL)
		if err != nil {
			closeAll()
			return nil, nil, err
		}
		closers = append(closers, func() { client.Close() })
		src = NewCachedStore(src, client, cfg.Cache.TTL, cfg.Cache.Prefix, logger)
		logger.Info("document cache enabled", "ttl", cfg.Cache.TTL, "prefix", cfg.Cache.Prefix)
	}

	return src, closeAll, nil
}
