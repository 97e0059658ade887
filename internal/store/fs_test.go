package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/gamebook/internal/core"
)

func writeCorpus(t *testing.T, files map[string][]byte) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, content, 0o644))
	}
	return dir
}

func TestNewDirStore(t *testing.T) {
	_, err := NewDirStore(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)

	file := filepath.Join(t.TempDir(), "game.md")
	require.NoError(t, os.WriteFile(file, []byte("---\n---\n"), 0o644))
	_, err = NewDirStore(file)
	assert.ErrorContains(t, err, "not a directory")
}

func TestDirStore_List(t *testing.T) {
	dir := writeCorpus(t, map[string][]byte{
		"2023-michigan.md":   []byte("---\n---\n"),
		"2023-indiana.mdx":   []byte("---\n---\n"),
		"2023-indiana.md":    []byte("---\n---\n"),
		"notes.txt":          []byte("not a game"),
		".draft.md":          []byte("---\n---\n"),
		"archive/old.md":     []byte("---\n---\n"),
		"2022-peach-bowl.md": []byte("---\n---\n"),
	})
	s, err := NewDirStore(dir)
	require.NoError(t, err)

	slugs, err := s.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"2022-peach-bowl", "2023-indiana", "2023-michigan"}, slugs)
}

func TestDirStore_Read(t *testing.T) {
	dir := writeCorpus(t, map[string][]byte{
		"bom.md":          append([]byte{0xEF, 0xBB, 0xBF}, []byte("---\nseason: 2023\n---\n")...),
		"mdx-only.mdx":    []byte("---\nopponent: Texas\n---\n"),
		"bad-utf8.md":     []byte{'-', '-', '-', '\n', 'x', 0xFF, '\n', '-', '-', '-', '\n'},
		"both.md":         []byte("from md"),
		"both.mdx":        []byte("from mdx"),
		"nested/inner.md": []byte("inner"),
	})
	s, err := NewDirStore(dir)
	require.NoError(t, err)
	ctx := context.Background()

	got, err := s.Read(ctx, "bom")
	require.NoError(t, err)
	assert.Equal(t, "---\nseason: 2023\n---\n", got)

	got, err = s.Read(ctx, "mdx-only")
	require.NoError(t, err)
	assert.Equal(t, "---\nopponent: Texas\n---\n", got)

	got, err = s.Read(ctx, "bad-utf8")
	require.NoError(t, err)
	assert.Equal(t, "---\nx?\n---\n", got)

	got, err = s.Read(ctx, "both")
	require.NoError(t, err)
	assert.Equal(t, "from md", got)
}

func TestDirStore_ReadUnknownSlugs(t *testing.T) {
	dir := writeCorpus(t, map[string][]byte{
		"nested/inner.md": []byte("inner"),
	})
	s, err := NewDirStore(dir)
	require.NoError(t, err)

	for _, slug := range []string{"missing", "", "nested/inner", "../secret", "..", ".hidden", `nested\inner`} {
		_, err := s.Read(context.Background(), slug)
		assert.ErrorIs(t, err, core.ErrDocumentNotFound, "slug %q", slug)
	}
}

func TestDirStore_CancelledContext(t *testing.T) {
	s, err := NewDirStore(t.TempDir())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = s.Read(ctx, "anything")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDirStore_WithLoader(t *testing.T) {
	dir := writeCorpus(t, map[string][]byte{
		"good.md":   []byte("---\nseason: 2023\ngame_type: bowl\nhome_away: neutral\nopponent: Missouri\ndate: 2023-12-29\n---\n"),
		"broken.md": []byte("no metadata"),
	})
	s, err := NewDirStore(dir)
	require.NoError(t, err)

	loader := core.NewLoader(s, 2, nil)
	items, err := loader.LoadAllAsListItems(context.Background(), core.LoadOptions{Validate: true})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "good", items[0].Slug)
	assert.Equal(t, 2023, items[0].Season)
}
