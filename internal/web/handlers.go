package web

import (
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/JonMunkholm/gamebook/internal/core"
	"github.com/JonMunkholm/gamebook/internal/logging"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

// gameDetail is the JSON body of GET /api/games/{slug}.
type gameDetail struct {
	Slug        string                  `json:"slug"`
	Frontmatter core.Frontmatter        `json:"frontmatter"`
	Validated   bool                    `json:"validated"`
	Tables      []core.StatisticalTable `json:"tables"`
}

// healthResponse is the JSON body of GET /health.
type healthResponse struct {
	Status  string                   `json:"status"`
	Time    time.Time                `json:"time"`
	Exports core.ExportLimiterStatus `json:"exports"`
}

// handleExport serves GET /api/export?type=&format=&slug=&season=.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := core.ExportRequest{
		Kind:   core.ExportKind(q.Get("type")),
		Format: core.ExportFormat(q.Get("format")),
		Slug:   q.Get("slug"),
		Season: q.Get("season"),
	}

	var dl core.CSVDownload
	err := s.deps.Limiter.Do(r.Context(), func() error {
		var err error
		dl, err = s.deps.Exporter.Export(r.Context(), req)
		return err
	})
	s.metrics.observeExport(req, err)
	if err != nil {
		respondError(w, r, err)
		return
	}

	for key, values := range dl.Headers() {
		w.Header()[key] = values
	}
	w.WriteHeader(http.StatusOK)
	if _, err := io.WriteString(w, dl.Content); err != nil {
		logging.FromContext(r.Context()).Warn("write export", "filename", dl.Filename, "error", err)
	}
}

// handleListGames serves GET /api/games, optionally filtered by ?season=.
func (s *Server) handleListGames(w http.ResponseWriter, r *http.Request) {
	season, filter, err := seasonParam(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	items, err := s.deps.Loader.LoadAllAsListItems(r.Context(), s.deps.Options)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if filter {
		items = core.FilterBySeason(items, season)
	}
	if items == nil {
		items = []core.GameListItem{}
	}

	render.JSON(w, r, items)
}

// handleGetGame serves GET /api/games/{slug} with the game's tables.
func (s *Server) handleGetGame(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	record, err := s.deps.Loader.LoadBySlug(r.Context(), slug, s.deps.Options)
	if err != nil {
		respondError(w, r, err)
		return
	}

	render.JSON(w, r, gameDetail{
		Slug:        record.Slug,
		Frontmatter: record.Frontmatter,
		Validated:   record.Validated,
		Tables:      core.CollectTables(record.Body),
	})
}

// handleListSeasons serves GET /api/seasons.
func (s *Server) handleListSeasons(w http.ResponseWriter, r *http.Request) {
	seasons, err := s.deps.Loader.Seasons(r.Context(), s.deps.Options)
	if err != nil {
		respondError(w, r, err)
		return
	}
	render.JSON(w, r, seasons)
}

// handleHealth serves GET /health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	exports := s.deps.Limiter.Status()
	render.JSON(w, r, healthResponse{
		Status:  "ok",
		Time:    time.Now().UTC(),
		Exports: exports,
	})
}

// seasonParam parses the optional season query parameter.
func seasonParam(r *http.Request) (season int, ok bool, err error) {
	raw := strings.TrimSpace(r.URL.Query().Get("season"))
	if raw == "" {
		return 0, false, nil
	}
	season, err = strconv.Atoi(raw)
	if err != nil {
		return 0, false, &core.BadRequestError{Param: "season", Message: strconv.Quote(raw) + " is not a year"}
	}
	return season, true, nil
}
