package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/gamebook/internal/core"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS game_documents (
	slug       TEXT PRIMARY KEY,
	content    TEXT NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// PoolOptions tunes the pgx connection pool.
type PoolOptions struct {
	URL             string
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// OpenPool parses the URL, applies the pool options, connects and pings.
func OpenPool(ctx context.Context, opts PoolOptions) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}
	if opts.MaxConns > 0 {
		poolConfig.MaxConns = int32(opts.MaxConns)
	}
	if opts.MinConns > 0 {
		poolConfig.MinConns = int32(opts.MinConns)
	}
	if opts.MaxConnLifetime > 0 {
		poolConfig.MaxConnLifetime = opts.MaxConnLifetime
	}
	if opts.MaxConnIdleTime > 0 {
		poolConfig.MaxConnIdleTime = opts.MaxConnIdleTime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

// PostgresStore keeps game documents in Postgres.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// EnsureSchema creates the game_documents table if needed.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create game_documents: %w", err)
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT slug FROM game_documents ORDER BY slug`)
	if err != nil {
		return nil, fmt.Errorf("list game documents: %w", err)
	}
	slugs, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("list game documents: %w", err)
	}
	return slugs, nil
}

func (s *PostgresStore) Read(ctx context.Context, slug string) (string, error) {
	var content string
	err := s.pool.QueryRow(ctx, `SELECT content FROM game_documents WHERE slug = $1`, slug).Scan(&content)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", core.ErrDocumentNotFound
	}
	if err != nil {
		return "", fmt.Errorf("read game document %q: %w", slug, err)
	}
	return content, nil
}

// Upsert inserts or replaces one document.
func (s *PostgresStore) Upsert(ctx context.Context, slug, content string) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO game_documents (slug, content, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (slug) DO UPDATE
		SET content = EXCLUDED.content, updated_at = now()
		WHERE game_documents.content IS DISTINCT FROM EXCLUDED.content`,
		slug, content)
	if err != nil {
		return fmt.Errorf("upsert game document %q: %w", slug, err)
	}
	return nil
}

// DeleteExcept removes every document whose slug is not in keep and returns
// how many were removed.
func (s *PostgresStore) DeleteExcept(ctx context.Context, keep []string) (int64, error) {
	if keep == nil {
		keep = []string{}
	}
	tag, err := s.pool.Exec(ctx, `DELETE FROM game_documents WHERE NOT (slug = ANY($1))`, keep)
	if err != nil {
		return 0, fmt.Errorf("prune game documents: %w", err)
	}
	return tag.RowsAffected(), nil
}
