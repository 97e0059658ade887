// Command export writes one CSV export to a file or stdout.
//
// Usage:
//
//	export -slug 2023-michigan                    # metadata + tables
//	export -slug 2023-michigan -format tables-csv -out exports/
//	export -type season -season 2023 -out 2023.csv
//	export -type all -source postgres             # reads DATABASE_URL
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/JonMunkholm/gamebook/internal/config"
	"github.com/JonMunkholm/gamebook/internal/core"
	"github.com/JonMunkholm/gamebook/internal/logging"
	"github.com/JonMunkholm/gamebook/internal/store"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.LookupEnv, os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintf(os.Stderr, "export: %s\n", core.FormatUserError(err))
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, lookup config.LookupFunc, stdout, stderr io.Writer) error {
	cfg, err := config.LoadWith(lookup)
	if err != nil {
		return err
	}

	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		kind     = fs.String("type", string(core.ExportSingle), "export type: single, all or season")
		format   = fs.String("format", string(core.FormatCSV), "single game format: csv, metadata-csv or tables-csv")
		slug     = fs.String("slug", "", "game slug for single exports")
		season   = fs.String("season", "", "season year for season exports")
		source   = fs.String("source", cfg.Corpus.Source, "corpus source: fs or postgres")
		dir      = fs.String("dir", cfg.Corpus.Dir, "corpus directory for the fs source")
		out      = fs.String("out", "", "output file or directory (default stdout)")
		validate = fs.Bool("validate", cfg.Corpus.Validate, "validate frontmatter")
		logLevel = fs.String("log-level", "warn", "log level on stderr")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg.Corpus.Source = *source
	cfg.Corpus.Dir = *dir
	cfg.Corpus.Validate = *validate
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := logging.New(stderr, *logLevel, cfg.Logging.Format)

	docs, closeStore, err := store.Open(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	opts := core.LoadOptions{Validate: cfg.Corpus.Validate}
	loader := core.NewLoader(docs, cfg.Corpus.LoadWorkers, logger)
	exporter := core.NewExporter(loader, opts, logger)

	dl, err := exporter.Export(ctx, core.ExportRequest{
		Kind:   core.ExportKind(*kind),
		Format: core.ExportFormat(*format),
		Slug:   *slug,
		Season: *season,
	})
	if err != nil {
		return err
	}

	if *out == "" || *out == "-" {
		_, err := io.WriteString(stdout, dl.Content)
		return err
	}

	path, err := outputPath(*out, dl.Filename)
	if err != nil {
		return err
	}
	if err := writeFile(path, dl.Content); err != nil {
		return err
	}
	fmt.Fprintf(stderr, "wrote %s (%d bytes)\n", path, len(dl.Content))
	return nil
}

// outputPath resolves -out: an existing directory or a path ending in a
// separator receives the download's own filename.
func outputPath(out, filename string) (string, error) {
	if strings.HasSuffix(out, "/") || strings.HasSuffix(out, string(filepath.Separator)) {
		return filepath.Join(out, filename), nil
	}
	info, err := os.Stat(out)
	switch {
	case err == nil && info.IsDir():
		return filepath.Join(out, filename), nil
	case err == nil, errors.Is(err, os.ErrNotExist):
		return out, nil
	default:
		return "", fmt.Errorf("stat %s: %w", out, err)
	}
}

func writeFile(path, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename %s: %w", tmp, err)
	}
	return nil
}
