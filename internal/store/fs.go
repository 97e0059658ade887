package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/JonMunkholm/gamebook/internal/core"
)

// documentExts are tried in order; the first match wins when a slug exists
// with more than one extension.
var documentExts = []string{".md", ".mdx"}

// DirStore serves game documents from a flat directory.
type DirStore struct {
	dir string
}

// NewDirStore returns a store over dir, which must exist.
func NewDirStore(dir string) (*DirStore, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("corpus directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("corpus directory: %s is not a directory", dir)
	}
	return &DirStore{dir: dir}, nil
}

// Dir returns the corpus directory.
func (s *DirStore) Dir() string {
	return s.dir
}

// List returns the slug of every document file, sorted.
func (s *DirStore) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read corpus directory: %w", err)
	}

	seen := make(map[string]bool, len(entries))
	slugs := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		ext := filepath.Ext(e.Name())
		if !slices.Contains(documentExts, ext) {
			continue
		}
		slug := strings.TrimSuffix(e.Name(), ext)
		if !seen[slug] {
			seen[slug] = true
			slugs = append(slugs, slug)
		}
	}
	slices.Sort(slugs)
	return slugs, ctx.Err()
}

// Read returns the content of one document, with any BOM removed and invalid
// UTF-8 replaced.
func (s *DirStore) Read(ctx context.Context, slug string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if !validSlug(slug) {
		return "", core.ErrDocumentNotFound
	}

	for _, ext := range documentExts {
		f, err := os.Open(filepath.Join(s.dir, slug+ext))
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("open %s: %w", slug+ext, err)
		}
		content, err := core.ReadDocument(f)
		f.Close()
		if err != nil {
			return "", fmt.Errorf("%s: %w", slug+ext, err)
		}
		return content, nil
	}
	return "", core.ErrDocumentNotFound
}

// validSlug rejects anything that could name a file outside the directory.
func validSlug(slug string) bool {
	if slug == "" || strings.HasPrefix(slug, ".") {
		return false
	}
	if strings.ContainsAny(slug, `/\`) || strings.Contains(slug, "..") {
		return false
	}
	return !strings.ContainsRune(slug, 0)
}
