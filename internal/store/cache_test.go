package store

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/gamebook/internal/core"
)

// countingStore records how often the wrapped store is hit.
type countingStore struct {
	mu    sync.Mutex
	docs  map[string]string
	lists int
	reads int
}

func (s *countingStore) List(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lists++
	slugs := make([]string, 0, len(s.docs))
	for slug := range s.docs {
		slugs = append(slugs, slug)
	}
	return slugs, nil
}

func (s *countingStore) Read(ctx context.Context, slug string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reads++
	doc, ok := s.docs[slug]
	if !ok {
		return "", core.ErrDocumentNotFound
	}
	return doc, nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// unreachableRedis points at a port nothing listens on.
func unreachableRedis() *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
}

func TestCachedStore_FallsThroughWhenRedisIsDown(t *testing.T) {
	next := &countingStore{docs: map[string]string{"2023-michigan": "---\n---\n"}}
	client := unreachableRedis()
	defer client.Close()

	c := NewCachedStore(next, client, time.Minute, "", quietLogger())
	ctx := context.Background()

	slugs, err := c.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"2023-michigan"}, slugs)

	doc, err := c.Read(ctx, "2023-michigan")
	require.NoError(t, err)
	assert.Equal(t, "---\n---\n", doc)

	_, err = c.Read(ctx, "missing")
	assert.ErrorIs(t, err, core.ErrDocumentNotFound)

	assert.Equal(t, 1, next.lists)
	assert.Equal(t, 2, next.reads)
}

func TestCachedStore_Keys(t *testing.T) {
	c := NewCachedStore(&countingStore{}, unreachableRedis(), time.Minute, "", nil)
	assert.Equal(t, "gamebook:slugs", c.slugsKey())
	assert.Equal(t, "gamebook:doc:2023-michigan", c.docKey("2023-michigan"))
}

// redisForTest connects to TEST_REDIS_URL or skips.
func redisForTest(t *testing.T) *redis.Client {
	t.Helper()
	url := os.Getenv("TEST_REDIS_URL")
	if url == "" {
		t.Skip("TEST_REDIS_URL not set")
	}
	client, err := NewRedisClient(context.Background(), url)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	return client
}

func TestCachedStore_Integration(t *testing.T) {
	client := redisForTest(t)
	ctx := context.Background()
	prefix := "gamebook-test:" + uuid.NewString() + ":"

	next := &countingStore{docs: map[string]string{
		"2023-michigan": "---\nopponent: Michigan\n---\n",
		"2023-indiana":  "---\nopponent: Indiana\n---\n",
	}}
	c := NewCachedStore(next, client, time.Minute, prefix, quietLogger())
	t.Cleanup(func() { _, _ = c.Invalidate(context.Background()) })

	for i := 0; i < 3; i++ {
		slugs, err := c.List(ctx)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"2023-michigan", "2023-indiana"}, slugs)

		doc, err := c.Read(ctx, "2023-michigan")
		require.NoError(t, err)
		assert.Equal(t, "---\nopponent: Michigan\n---\n", doc)
	}
	assert.Equal(t, 1, next.lists, "list should be served from cache after the first call")
	assert.Equal(t, 1, next.reads, "read should be served from cache after the first call")

	// Unknown slugs are never cached.
	_, err := c.Read(ctx, "missing")
	assert.ErrorIs(t, err, core.ErrDocumentNotFound)
	_, err = c.Read(ctx, "missing")
	assert.ErrorIs(t, err, core.ErrDocumentNotFound)
	assert.Equal(t, 3, next.reads)

	removed, err := c.Invalidate(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	_, err = c.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, next.lists)
}
