package core

// loader.go turns the documents of a DocumentStore into records.
//
// Bulk loads are lenient: a document that cannot be read, parsed or validated,
// or whose handling panics, is logged and skipped so one bad file never hides
// the rest of the corpus.
// Only a failure to enumerate the store, or a cancelled context, aborts a
// bulk load. Single-document loads surface every error.

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"
)

// DefaultLoadWorkers bounds parallel document parsing when no limit is set.
const DefaultLoadWorkers = 8

// Loader reads and parses documents from a store.
type Loader struct {
	store   DocumentStore
	workers int
	logger  *slog.Logger
}

// NewLoader creates a loader over store. workers <= 0 uses DefaultLoadWorkers;
// a nil logger uses slog.Default().
func NewLoader(store DocumentStore, workers int, logger *slog.Logger) *Loader {
	if workers <= 0 {
		workers = DefaultLoadWorkers
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{store: store, workers: workers, logger: logger}
}

// LoadAll returns every loadable record, sorted by date then slug.
func (l *Loader) LoadAll(ctx context.Context, opts LoadOptions) ([]GameRecord, error) {
	records, err := loadEach(ctx, l, func(slug, raw string) (GameRecord, error) {
		return ParseDocument(slug, raw, opts)
	})
	if err != nil {
		return nil, err
	}
	slices.SortFunc(records, func(a, b GameRecord) int {
		return compareGames(a.Frontmatter.DateValue(), b.Frontmatter.DateValue(), a.Slug, b.Slug)
	})
	return records, nil
}

// LoadAllAsListItems is LoadAll without keeping bodies around.
func (l *Loader) LoadAllAsListItems(ctx context.Context, opts LoadOptions) ([]GameListItem, error) {
	items, err := loadEach(ctx, l, func(slug, raw string) (GameListItem, error) {
		return parseListItem(slug, raw, opts)
	})
	if err != nil {
		return nil, err
	}
	SortListItems(items)
	return items, nil
}

// LoadBySlug loads one record. Unknown slugs return *NotFoundError; parse
// and validation failures are returned unchanged.
func (l *Loader) LoadBySlug(ctx context.Context, slug string, opts LoadOptions) (GameRecord, error) {
	raw, err := l.store.Read(ctx, slug)
	if err != nil {
		if errors.Is(err, ErrDocumentNotFound) {
			return GameRecord{}, &NotFoundError{Resource: "game", Key: slug}
		}
		return GameRecord{}, fmt.Errorf("read document %q: %w", slug, err)
	}
	return ParseDocument(slug, raw, opts)
}

// Seasons returns each season present in the corpus with its game count,
// in ascending order. Documents without a season are not counted.
func (l *Loader) Seasons(ctx context.Context, opts LoadOptions) ([]SeasonSummary, error) {
	items, err := l.LoadAllAsListItems(ctx, opts)
	if err != nil {
		return nil, err
	}

	counts := make(map[int]int)
	for _, item := range items {
		if item.Season != 0 {
			counts[item.Season]++
		}
	}

	seasons := make([]SeasonSummary, 0, len(counts))
	for season, games := range counts {
		seasons = append(seasons, SeasonSummary{Season: season, Games: games})
	}
	slices.SortFunc(seasons, func(a, b SeasonSummary) int {
		return cmp.Compare(a.Season, b.Season)
	})
	return seasons, nil
}

// FilterBySeason keeps the items of one season.
func FilterBySeason(items []GameListItem, season int) []GameListItem {
	var out []GameListItem
	for _, item := range items {
		if item.Season == season {
			out = append(out, item)
		}
	}
	return out
}

// SortListItems orders items by date (absent first) then slug.
func SortListItems(items []GameListItem) {
	slices.SortFunc(items, func(a, b GameListItem) int {
		return compareGames(a.GameDate, b.GameDate, a.Slug, b.Slug)
	})
}

func compareGames(dateA, dateB time.Time, slugA, slugB string) int {
	if c := dateA.Compare(dateB); c != 0 {
		return c
	}
	return cmp.Compare(slugA, slugB)
}

// loadEach lists the store and parses every document in parallel. Results
// land in per-index slots; skipped documents leave their slot empty.
func loadEach[T any](ctx context.Context, l *Loader, parse func(slug, raw string) (T, error)) ([]T, error) {
	slugs, err := l.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}

	results := make([]T, len(slugs))
	loaded := make([]bool, len(slugs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.workers)

	for i, slug := range slugs {
		g.Go(func() error {
			// A panicking store or parser costs only its own document.
			defer func() {
				if r := recover(); r != nil {
					l.logger.Error("skipping game document after panic", "slug", slug, "panic", r)
				}
			}()
			if err := gctx.Err(); err != nil {
				return err
			}

			raw, err := l.store.Read(gctx, slug)
			if err != nil {
				if isContextErr(err) {
					return err
				}
				l.logger.Warn("skipping unreadable game document", "slug", slug, "error", err)
				return nil
			}

			v, err := parse(slug, raw)
			if err != nil {
				l.logger.Warn("skipping invalid game document", "slug", slug, "error", err)
				return nil
			}
			results[i] = v
			loaded[i] = true
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := make([]T, 0, len(slugs))
	for i, ok := range loaded {
		if ok {
			out = append(out, results[i])
		}
	}
	return out, nil
}

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
