package core

import (
	"context"
	"errors"
	"strings"
	"testing"
)

const tableDoc = `---
season: 2023
game_type: bowl
home_away: neutral
opponent: Missouri
date: 2023-12-29
location: AT&T Stadium, Arlington
---
Recap text.

| Team | T |
|------|---|
| OSU  | 3 |
| MIZ  | 14 |

<table><tr><th>Player</th><th>Yds</th></tr><tr><td>Brock, "B"</td><td>30</td></tr></table>
`

func newTestExporter(docs map[string]string, opts LoadOptions) *Exporter {
	loader := NewLoader(newMemStore(docs), 2, discardLogger())
	return NewExporter(loader, opts, discardLogger())
}

func exportCorpus() map[string]string {
	docs := testCorpus()
	docs["2023-cotton-bowl"] = tableDoc
	return docs
}

func TestExport_SingleDefaultFormat(t *testing.T) {
	ex := newTestExporter(exportCorpus(), LoadOptions{Validate: true})

	dl, err := ex.Export(context.Background(), ExportRequest{Slug: "2023-cotton-bowl"})
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	want := "# Metadata\n" +
		"field,value\n" +
		"season,2023\n" +
		"game_type,bowl\n" +
		"home_away,neutral\n" +
		"opponent,Missouri\n" +
		"date,2023-12-29\n" +
		"attendance,\n" +
		"weather,\n" +
		"location,\"AT&T Stadium, Arlington\"\n" +
		"\n# Tables\n" +
		"Team,T\nOSU,3\nMIZ,14\n" +
		"\n" +
		"Player,Yds\n\"Brock, \"\"B\"\"\",30\n"
	if dl.Content != want {
		t.Errorf("Content =\n%s\nwant\n%s", dl.Content, want)
	}
	if dl.Filename != "2023-cotton-bowl.csv" {
		t.Errorf("Filename = %q", dl.Filename)
	}
	if dl.ContentType != CSVContentType {
		t.Errorf("ContentType = %q", dl.ContentType)
	}
	if want := `attachment; filename="2023-cotton-bowl.csv"`; dl.ContentDisposition != want {
		t.Errorf("ContentDisposition = %q, want %q", dl.ContentDisposition, want)
	}
}

func TestExport_SingleWithoutTables(t *testing.T) {
	ex := newTestExporter(exportCorpus(), LoadOptions{})

	dl, err := ex.Export(context.Background(), ExportRequest{Kind: ExportSingle, Format: FormatCSV, Slug: "2023-michigan"})
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if !strings.HasSuffix(dl.Content, "location,\n\n# Tables\n") {
		t.Errorf("Content = %q, want an empty tables section", dl.Content)
	}
}

func TestExport_MetadataCSV(t *testing.T) {
	ex := newTestExporter(exportCorpus(), LoadOptions{})

	dl, err := ex.Export(context.Background(), ExportRequest{Format: FormatMetadataCSV, Slug: "2023-michigan"})
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if dl.Filename != "2023-michigan-metadata.csv" {
		t.Errorf("Filename = %q", dl.Filename)
	}
	if !strings.HasPrefix(dl.Content, "field,value\nseason,2023\n") {
		t.Errorf("Content = %q", dl.Content)
	}
}

func TestExport_TablesCSV(t *testing.T) {
	ex := newTestExporter(exportCorpus(), LoadOptions{})

	dl, err := ex.Export(context.Background(), ExportRequest{Format: FormatTablesCSV, Slug: "2023-cotton-bowl"})
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	want := "Team,T\nOSU,3\nMIZ,14\n\nPlayer,Yds\n\"Brock, \"\"B\"\"\",30\n"
	if dl.Content != want {
		t.Errorf("Content = %q, want %q", dl.Content, want)
	}
	if dl.Filename != "2023-cotton-bowl-tables.csv" {
		t.Errorf("Filename = %q", dl.Filename)
	}
}

func TestExport_All(t *testing.T) {
	ex := newTestExporter(exportCorpus(), LoadOptions{Validate: true})

	dl, err := ex.Export(context.Background(), ExportRequest{Kind: ExportAll})
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	want := "slug,date,season,opponent,game_type\n" +
		"2022-peach-bowl,2022-12-31,2022,Georgia,bowl\n" +
		"2023-indiana,2023-09-02,2023,Indiana,regular_season\n" +
		"2023-michigan,2023-11-25,2023,Michigan,regular_season\n" +
		"2023-cotton-bowl,2023-12-29,2023,Missouri,bowl\n" +
		"2024-rose-bowl,2025-01-01,2024,Oregon,playoff\n"
	if dl.Content != want {
		t.Errorf("Content =\n%s\nwant\n%s", dl.Content, want)
	}
	if dl.Filename != "all-games.csv" {
		t.Errorf("Filename = %q", dl.Filename)
	}
}

func TestExport_Season(t *testing.T) {
	ex := newTestExporter(exportCorpus(), LoadOptions{Validate: true})

	dl, err := ex.Export(context.Background(), ExportRequest{Kind: ExportSeason, Season: "2023"})
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if got := strings.Count(dl.Content, "\n"); got != 4 {
		t.Errorf("line count = %d, want 4 (header + 3 games)", got)
	}
	if dl.Filename != "2023-season.csv" {
		t.Errorf("Filename = %q", dl.Filename)
	}
}

func TestExport_Errors(t *testing.T) {
	empty := newTestExporter(map[string]string{}, LoadOptions{})
	full := newTestExporter(exportCorpus(), LoadOptions{Validate: true})

	tests := []struct {
		name     string
		exporter *Exporter
		req      ExportRequest
		wantKind any
	}{
		{"unknown type", full, ExportRequest{Kind: "everything"}, &BadRequestError{}},
		{"unknown format", full, ExportRequest{Format: "xlsx", Slug: "2023-michigan"}, &BadRequestError{}},
		{"single without slug", full, ExportRequest{}, &BadRequestError{}},
		{"single unknown slug", full, ExportRequest{Slug: "nope"}, &NotFoundError{}},
		{"single malformed", full, ExportRequest{Slug: "broken"}, &MalformedDocumentError{}},
		{"single invalid", full, ExportRequest{Slug: "no-date"}, &ValidationError{}},
		{"tables-csv with zero tables", full, ExportRequest{Format: FormatTablesCSV, Slug: "2023-michigan"}, &NotFoundError{}},
		{"metadata-csv for all", full, ExportRequest{Kind: ExportAll, Format: FormatMetadataCSV}, &BadRequestError{}},
		{"tables-csv for season", full, ExportRequest{Kind: ExportSeason, Format: FormatTablesCSV, Season: "2023"}, &BadRequestError{}},
		{"season missing", full, ExportRequest{Kind: ExportSeason}, &BadRequestError{}},
		{"season not a number", full, ExportRequest{Kind: ExportSeason, Season: "abc"}, &BadRequestError{}},
		{"season with no games", full, ExportRequest{Kind: ExportSeason, Season: "1999"}, &NotFoundError{}},
		{"empty season on empty corpus", empty, ExportRequest{Kind: ExportSeason, Season: "2023"}, &NotFoundError{}},
		{"all on empty corpus", empty, ExportRequest{Kind: ExportAll}, &NotFoundError{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.exporter.Export(context.Background(), tt.req)
			if err == nil {
				t.Fatal("Export() error = nil")
			}

			var ok bool
			switch tt.wantKind.(type) {
			case *BadRequestError:
				var e *BadRequestError
				ok = errors.As(err, &e)
			case *NotFoundError:
				var e *NotFoundError
				ok = errors.As(err, &e)
			case *MalformedDocumentError:
				var e *MalformedDocumentError
				ok = errors.As(err, &e)
			case *ValidationError:
				var e *ValidationError
				ok = errors.As(err, &e)
			}
			if !ok {
				t.Errorf("Export() error = %T (%v), want %T", err, err, tt.wantKind)
			}
		})
	}
}

func TestExport_StoreFailureIsInternal(t *testing.T) {
	store := newMemStore(exportCorpus())
	store.listErr = errors.New("connection reset by peer")
	ex := NewExporter(NewLoader(store, 1, discardLogger()), LoadOptions{}, discardLogger())

	_, err := ex.Export(context.Background(), ExportRequest{Kind: ExportAll})

	var internal *InternalError
	if !errors.As(err, &internal) {
		t.Fatalf("Export() error = %v, want *InternalError", err)
	}
	if err.Error() != "internal error" {
		t.Errorf("Error() = %q, want generic message", err.Error())
	}
	if !errors.Is(err, store.listErr) {
		t.Error("cause should be kept for logging")
	}
}

// panicStore panics on Read to exercise panic recovery.
type panicStore struct{ *memStore }

func (p *panicStore) Read(ctx context.Context, slug string) (string, error) {
	panic("corrupt index")
}

func TestExport_RecoversPanic(t *testing.T) {
	store := &panicStore{memStore: newMemStore(exportCorpus())}
	ex := NewExporter(NewLoader(store, 1, discardLogger()), LoadOptions{}, discardLogger())

	_, err := ex.Export(context.Background(), ExportRequest{Slug: "2023-michigan"})

	var internal *InternalError
	if !errors.As(err, &internal) {
		t.Fatalf("Export() error = %v, want *InternalError", err)
	}
}

func TestCSVDownload_Headers(t *testing.T) {
	dl := newDownload("a,b\n", "2023-season.csv")
	h := dl.Headers()

	if got := h.Get("Content-Type"); got != "text/csv; charset=utf-8" {
		t.Errorf("Content-Type = %q", got)
	}
	if got := h.Get("Content-Disposition"); got != `attachment; filename="2023-season.csv"` {
		t.Errorf("Content-Disposition = %q", got)
	}
	if got := h.Get("Content-Length"); got != "4" {
		t.Errorf("Content-Length = %q", got)
	}
}

func TestSafeFilename(t *testing.T) {
	if got := safeFilename("we\"ird\\na/me\n.csv"); got != "weirdname.csv" {
		t.Errorf("safeFilename() = %q", got)
	}
}

func TestClientIPFromContext(t *testing.T) {
	if got := ClientIPFromContext(context.Background()); got != "" {
		t.Errorf("ClientIPFromContext(empty) = %q", got)
	}
	ctx := ContextWithClientIP(context.Background(), "203.0.113.9")
	if got := ClientIPFromContext(ctx); got != "203.0.113.9" {
		t.Errorf("ClientIPFromContext() = %q", got)
	}
}
