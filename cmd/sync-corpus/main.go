// Command sync-corpus copies a directory of game documents into Postgres.
//
// Source files are only read. Every document is upserted by slug; with
// -prune, rows whose slug no longer exists in the directory are deleted.
// When REDIS_URL is set the document cache is cleared afterwards.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/JonMunkholm/gamebook/internal/config"
	"github.com/JonMunkholm/gamebook/internal/core"
	"github.com/JonMunkholm/gamebook/internal/logging"
	"github.com/JonMunkholm/gamebook/internal/store"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.LookupEnv, os.Stderr); err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintf(os.Stderr, "sync-corpus: %v\n", err)
		}
		os.Exit(1)
	}
}

// syncStats summarizes one run.
type syncStats struct {
	Copied  int64
	Skipped int64
	Pruned  int64
	Evicted int
}

func run(ctx context.Context, args []string, lookup config.LookupFunc, stderr io.Writer) error {
	cfg, err := config.LoadWith(lookup)
	if err != nil {
		return err
	}

	fs := flag.NewFlagSet("sync-corpus", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		dir      = fs.String("dir", cfg.Corpus.Dir, "corpus directory to copy")
		dbURL    = fs.String("database-url", cfg.Database.URL, "Postgres URL (default $DATABASE_URL)")
		prune    = fs.Bool("prune", false, "delete rows whose document is no longer in -dir")
		validate = fs.Bool("validate", cfg.Corpus.Validate, "skip documents that fail validation")
		dryRun   = fs.Bool("dry-run", false, "report what would be copied without writing")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *dbURL == "" && !*dryRun {
		return errors.New("DATABASE_URL or -database-url is required")
	}

	logger := logging.New(stderr, cfg.Logging.Level, cfg.Logging.Format)

	src, err := store.NewDirStore(*dir)
	if err != nil {
		return err
	}

	var dst upserter
	if !*dryRun {
		pool, err := store.OpenPool(ctx, store.PoolOptions{
			URL:             *dbURL,
			MaxConns:        cfg.Database.MaxConns,
			MinConns:        cfg.Database.MinConns,
			MaxConnLifetime: cfg.Database.MaxConnLifetime,
			MaxConnIdleTime: cfg.Database.MaxConnIdleTime,
		})
		if err != nil {
			return err
		}
		defer pool.Close()

		pg := store.NewPostgresStore(pool)
		if err := pg.EnsureSchema(ctx); err != nil {
			return err
		}
		dst = pg
	}

	stats, err := syncCorpus(ctx, src, dst, syncOptions{
		Validate: *validate,
		Prune:    *prune,
		Workers:  cfg.Database.MaxConns,
	}, logger)
	if err != nil {
		return err
	}

	if cfg.Cache.Enabled() && !*dryRun && (stats.Copied > 0 || stats.Pruned > 0) {
		client, err := store.NewRedisClient(ctx, cfg.Cache.RedisURL)
		if err != nil {
			logger.Warn("cache not cleared", "error", err)
		} else {
			defer client.Close()
			cache := store.NewCachedStore(nil, client, cfg.Cache.TTL, cfg.Cache.Prefix, logger)
			if stats.Evicted, err = cache.Invalidate(ctx); err != nil {
				logger.Warn("cache not cleared", "error", err)
			}
		}
	}

	logger.Info("sync complete",
		"dir", src.Dir(),
		"copied", stats.Copied,
		"skipped", stats.Skipped,
		"pruned", stats.Pruned,
		"cache_keys_evicted", stats.Evicted,
		"dry_run", *dryRun,
	)
	return nil
}

// upserter is the write side of the Postgres store.
type upserter interface {
	Upsert(ctx context.Context, slug, content string) error
	DeleteExcept(ctx context.Context, keep []string) (int64, error)
}

type syncOptions struct {
	Validate bool
	Prune    bool
	Workers  int
}

// syncCorpus copies every readable document of src into dst. A nil dst
// only reads and parses. Unparseable documents are skipped and never pruned
// from dst, so a broken edit does not delete the last good copy.
func syncCorpus(ctx context.Context, src core.DocumentStore, dst upserter, opts syncOptions, logger *slog.Logger) (syncStats, error) {
	var stats syncStats

	slugs, err := src.List(ctx)
	if err != nil {
		return stats, fmt.Errorf("list corpus: %w", err)
	}

	var copied, skipped atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(opts.Workers, 1))

	for _, slug := range slugs {
		g.Go(func() error {
			raw, err := src.Read(gctx, slug)
			if err != nil {
				return fmt.Errorf("read %s: %w", slug, err)
			}
			if _, err := core.ParseDocument(slug, raw, core.LoadOptions{Validate: opts.Validate}); err != nil {
				logger.Warn("skipping document", "slug", slug, "error", err)
				skipped.Add(1)
				return nil
			}
			if dst != nil {
				if err := dst.Upsert(gctx, slug, raw); err != nil {
					return err
				}
			}
			copied.Add(1)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return stats, err
	}
	stats.Copied, stats.Skipped = copied.Load(), skipped.Load()

	if opts.Prune && dst != nil {
		n, err := dst.DeleteExcept(ctx, slugs)
		if err != nil {
			return stats, err
		}
		stats.Pruned = n
	}
	return stats, nil
}
