package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/gamebook/internal/config"
)

func TestOpen_Directory(t *testing.T) {
	dir := writeCorpus(t, map[string][]byte{
		"2023-michigan.md": []byte("---\nseason: 2023\n---\n"),
	})
	cfg := &config.Config{Corpus: config.CorpusConfig{Source: config.SourceFS, Dir: dir}}

	src, closeFn, err := Open(context.Background(), cfg, quietLogger())
	require.NoError(t, err)
	defer closeFn()

	assert.IsType(t, &DirStore{}, src)
	slugs, err := src.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"2023-michigan"}, slugs)
}

func TestOpen_Errors(t *testing.T) {
	tests := []struct {
		name string
		cfg  *config.Config
	}{
		{
			name: "missing directory",
			cfg:  &config.Config{Corpus: config.CorpusConfig{Source: config.SourceFS, Dir: "/does/not/exist"}},
		},
		{
			name: "bad database url",
			cfg: &config.Config{
				Corpus:   config.CorpusConfig{Source: config.SourcePostgres},
				Database: config.DatabaseConfig{URL: "postgres://%zz", MaxConns: 1},
			},
		},
		{
			name: "unknown source",
			cfg:  &config.Config{Corpus: config.CorpusConfig{Source: "s3"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Open(context.Background(), tt.cfg, quietLogger())
			assert.Error(t, err)
		})
	}
}
