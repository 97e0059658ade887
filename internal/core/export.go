package core

// export.go turns an export request into a CSV download.
//
// Supported combinations:
//
//	type     format         content                                filename
//	single   csv            metadata section + tables section      {slug}.csv
//	single   metadata-csv   field,value rows                       {slug}-metadata.csv
//	single   tables-csv     tables separated by blank lines        {slug}-tables.csv
//	all      csv            listing of every game                  all-games.csv
//	season   csv            listing of one season's games          {season}-season.csv
//
// Every failure comes back as exactly one of the error types in errors.go.
// Anything unexpected, panics included, is an *InternalError.

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ExportKind selects which documents an export covers.
type ExportKind string

const (
	ExportSingle ExportKind = "single"
	ExportAll    ExportKind = "all"
	ExportSeason ExportKind = "season"
)

// ExportFormat selects the shape of the CSV content.
type ExportFormat string

const (
	FormatCSV         ExportFormat = "csv"
	FormatMetadataCSV ExportFormat = "metadata-csv"
	FormatTablesCSV   ExportFormat = "tables-csv"
)

// CSVContentType is sent with every download.
const CSVContentType = "text/csv; charset=utf-8"

// ExportRequest describes one export. Empty Kind means single and empty
// Format means csv. Season is parsed by the exporter.
type ExportRequest struct {
	Kind   ExportKind
	Format ExportFormat
	Slug   string
	Season string
}

// CSVDownload is a finished export.
type CSVDownload struct {
	Content            string
	Filename           string
	ContentType        string
	ContentDisposition string
}

// Headers returns the HTTP headers for serving the download.
func (d CSVDownload) Headers() http.Header {
	h := make(http.Header, 3)
	h.Set("Content-Type", d.ContentType)
	h.Set("Content-Disposition", d.ContentDisposition)
	h.Set("Content-Length", strconv.Itoa(len(d.Content)))
	return h
}

func newDownload(content, filename string) CSVDownload {
	filename = safeFilename(filename)
	return CSVDownload{
		Content:            content,
		Filename:           filename,
		ContentType:        CSVContentType,
		ContentDisposition: fmt.Sprintf("attachment; filename=%q", filename),
	}
}

// safeFilename drops characters that would break a Content-Disposition value.
func safeFilename(name string) string {
	return strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f || r == '"' || r == '\\' || r == '/' {
			return -1
		}
		return r
	}, name)
}

// Exporter builds CSV downloads from the corpus.
type Exporter struct {
	loader *Loader
	opts   LoadOptions
	logger *slog.Logger
}

// NewExporter creates an exporter. opts applies to every document it loads.
func NewExporter(loader *Loader, opts LoadOptions, logger *slog.Logger) *Exporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Exporter{loader: loader, opts: opts, logger: logger}
}

// Export runs one export request.
func (e *Exporter) Export(ctx context.Context, req ExportRequest) (dl CSVDownload, err error) {
	req = req.normalized()
	log := e.logger.With(
		"export_id", uuid.NewString(),
		"type", req.Kind,
		"format", req.Format,
	)
	if ip := ClientIPFromContext(ctx); ip != "" {
		log = log.With("client_ip", ip)
	}
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			log.Error("panic in export",
				"panic", r,
				"stack", string(debug.Stack()),
			)
			dl, err = CSVDownload{}, &InternalError{Op: "export", Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	dl, err = e.export(ctx, req)
	if err != nil {
		err = classifyExportError(err)
		var internal *InternalError
		if errors.As(err, &internal) {
			log.Error("export failed", "error", internal.Detail())
		} else {
			log.Info("export rejected", "error", err)
		}
		return CSVDownload{}, err
	}

	log.Info("export completed",
		"filename", dl.Filename,
		"bytes", len(dl.Content),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return dl, nil
}

func (r ExportRequest) normalized() ExportRequest {
	r.Kind = ExportKind(strings.TrimSpace(string(r.Kind)))
	r.Format = ExportFormat(strings.TrimSpace(string(r.Format)))
	r.Slug = strings.TrimSpace(r.Slug)
	r.Season = strings.TrimSpace(r.Season)
	if r.Kind == "" {
		r.Kind = ExportSingle
	}
	if r.Format == "" {
		r.Format = FormatCSV
	}
	return r
}

func (e *Exporter) export(ctx context.Context, req ExportRequest) (CSVDownload, error) {
	switch req.Format {
	case FormatCSV, FormatMetadataCSV, FormatTablesCSV:
	default:
		return CSVDownload{}, badRequest("format", "unknown export format %q (want csv, metadata-csv or tables-csv)", req.Format)
	}

	switch req.Kind {
	case ExportSingle:
		return e.exportSingle(ctx, req)
	case ExportAll, ExportSeason:
		if req.Format != FormatCSV {
			return CSVDownload{}, badRequest("format", "%s is only available for single game exports", req.Format)
		}
		return e.exportListing(ctx, req)
	default:
		return CSVDownload{}, badRequest("type", "unknown export type %q (want single, all or season)", req.Kind)
	}
}

func (e *Exporter) exportSingle(ctx context.Context, req ExportRequest) (CSVDownload, error) {
	if req.Slug == "" {
		return CSVDownload{}, badRequest("slug", "required for single game exports")
	}

	record, err := e.loader.LoadBySlug(ctx, req.Slug, e.opts)
	if err != nil {
		return CSVDownload{}, err
	}

	switch req.Format {
	case FormatMetadataCSV:
		return newDownload(MetadataToCSV(record.Frontmatter), record.Slug+"-metadata.csv"), nil

	case FormatTablesCSV:
		tables := CollectTables(record.Body)
		if len(tables) == 0 {
			return CSVDownload{}, &NotFoundError{Resource: "tables for game", Key: record.Slug}
		}
		return newDownload(TablesToCSV(tables), record.Slug+"-tables.csv"), nil

	default:
		var b strings.Builder
		b.WriteString("# Metadata\n")
		b.WriteString(MetadataToCSV(record.Frontmatter))
		b.WriteString("\n# Tables\n")
		b.WriteString(TablesToCSV(CollectTables(record.Body)))
		return newDownload(b.String(), record.Slug+".csv"), nil
	}
}

func (e *Exporter) exportListing(ctx context.Context, req ExportRequest) (CSVDownload, error) {
	season := 0
	if req.Kind == ExportSeason {
		if req.Season == "" {
			return CSVDownload{}, badRequest("season", "required for season exports")
		}
		n, err := strconv.Atoi(req.Season)
		if err != nil {
			return CSVDownload{}, badRequest("season", "%q is not a year", req.Season)
		}
		season = n
	}

	items, err := e.loader.LoadAllAsListItems(ctx, e.opts)
	if err != nil {
		return CSVDownload{}, err
	}

	if req.Kind == ExportAll {
		if len(items) == 0 {
			return CSVDownload{}, &NotFoundError{Resource: "games"}
		}
		return newDownload(ListToCSV(items), "all-games.csv"), nil
	}

	items = FilterBySeason(items, season)
	if len(items) == 0 {
		return CSVDownload{}, &NotFoundError{Resource: "games for season", Key: strconv.Itoa(season)}
	}
	return newDownload(ListToCSV(items), strconv.Itoa(season)+"-season.csv"), nil
}

// classifyExportError passes the named error kinds through and wraps
// everything else in *InternalError.
func classifyExportError(err error) error {
	var (
		badReq    *BadRequestError
		notFound  *NotFoundError
		malformed *MalformedDocumentError
		invalid   *ValidationError
		internal  *InternalError
	)
	switch {
	case errors.As(err, &badReq), errors.As(err, &notFound),
		errors.As(err, &malformed), errors.As(err, &invalid),
		errors.As(err, &internal):
		return err
	default:
		return &InternalError{Op: "export", Err: err}
	}
}
