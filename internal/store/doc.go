// Package store provides core.DocumentStore implementations.
//
//   - DirStore reads *.md / *.mdx game files from a directory
//   - PostgresStore keeps documents in the game_documents table
//   - CachedStore decorates any store with a Redis read-through cache
//
// All stores are read-only from the pipeline's point of view; only the
// sync-corpus command writes, and only to Postgres.
package store
