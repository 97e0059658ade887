// Package core provides the document parsing and CSV export pipeline.
// This package has no transport dependencies and can be used by any frontend.
package core

import (
	"context"
	"time"
)

// DocumentStore is the source of raw game documents.
// Implementations live in the store package (directory, Postgres, Redis cache).
type DocumentStore interface {
	// List returns the slugs of every document in the corpus.
	List(ctx context.Context) ([]string, error)
	// Read returns the raw content of one document.
	// Returns ErrDocumentNotFound if the slug is unknown.
	Read(ctx context.Context, slug string) (string, error)
}

// GameType classifies a game within a season.
type GameType string

const (
	GameRegularSeason GameType = "regular_season"
	GameBowl          GameType = "bowl"
	GamePlayoff       GameType = "playoff"
	GameChampionship  GameType = "championship"
)

// GameTypes lists the valid game types in schema order.
var GameTypes = []GameType{GameRegularSeason, GameBowl, GamePlayoff, GameChampionship}

// HomeAway describes where a game was played relative to the team.
type HomeAway string

const (
	Home    HomeAway = "home"
	Away    HomeAway = "away"
	Neutral HomeAway = "neutral"
)

// HomeAwayValues lists the valid home/away values in schema order.
var HomeAwayValues = []HomeAway{Home, Away, Neutral}

// RawMetadata is the undecoded frontmatter mapping of a document.
type RawMetadata map[string]any

// Frontmatter is the typed metadata of a game document.
//
// Every field may be absent: pointer fields are nil and string fields are
// empty when the source omitted them or, in non-validating mode, when the
// value could not be coerced.
type Frontmatter struct {
	Season     *int       `json:"season,omitempty"`
	GameType   GameType   `json:"game_type,omitempty"`
	HomeAway   HomeAway   `json:"home_away,omitempty"`
	Opponent   string     `json:"opponent,omitempty"`
	Date       *time.Time `json:"date,omitempty"`
	Attendance *int       `json:"attendance,omitempty"`
	Weather    string     `json:"weather,omitempty"`
	Location   string     `json:"location,omitempty"`
}

// SeasonValue returns the season, or 0 when absent.
func (f Frontmatter) SeasonValue() int {
	if f.Season == nil {
		return 0
	}
	return *f.Season
}

// DateValue returns the game date, or the zero time when absent.
func (f Frontmatter) DateValue() time.Time {
	if f.Date == nil {
		return time.Time{}
	}
	return *f.Date
}

// GameRecord is one parsed source document.
type GameRecord struct {
	Slug        string      `json:"slug"`
	Frontmatter Frontmatter `json:"frontmatter"`
	Body        string      `json:"body"`
	Validated   bool        `json:"validated"`
}

// ListItem returns the lightweight listing projection of the record.
func (g GameRecord) ListItem() GameListItem {
	return GameListItem{
		Slug:     g.Slug,
		GameDate: g.Frontmatter.DateValue(),
		Season:   g.Frontmatter.SeasonValue(),
		Opponent: g.Frontmatter.Opponent,
		GameType: g.Frontmatter.GameType,
	}
}

// GameListItem is the projection used for corpus-wide listings.
// GameDate marshals as an RFC 3339 timestamp.
type GameListItem struct {
	Slug     string    `json:"slug"`
	GameDate time.Time `json:"gameDate"`
	Season   int       `json:"season"`
	Opponent string    `json:"opponent"`
	GameType GameType  `json:"game_type"`
}

// SeasonSummary counts the games of one season.
type SeasonSummary struct {
	Season int `json:"season"`
	Games  int `json:"games"`
}

// StatisticalTable is a rectangular grid of cells; Rows[0] is the header.
type StatisticalTable struct {
	Rows [][]string `json:"rows"`
}

// Header returns the header row, or nil for an empty table.
func (t StatisticalTable) Header() []string {
	if len(t.Rows) == 0 {
		return nil
	}
	return t.Rows[0]
}

// Width returns the number of columns defined by the header.
func (t StatisticalTable) Width() int {
	return len(t.Header())
}

// LoadOptions controls how documents are turned into records.
type LoadOptions struct {
	// Validate runs the Schema Validator; failing documents are errors.
	Validate bool
}
