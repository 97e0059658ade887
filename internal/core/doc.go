// Package core provides the document parsing and CSV export pipeline for
// game records.
//
// This package is the heart of gamebook, containing all domain logic
// independent of any transport or storage layer. It can be used by web
// handlers, CLI tools, or tests without modification.
//
// # Architecture
//
// The pipeline is organized as a chain of small, pure components:
//
//   - Frontmatter Parser: [SplitDocument] separates the YAML metadata block
//     from the body of a source document.
//   - Schema Validator: [ValidateFrontmatter] turns raw metadata into a typed
//     [Frontmatter] or a [ValidationError]; [DecodeFrontmatter] is the
//     best-effort, never-failing variant.
//   - Table Extractor: [ExtractTables] yields every statistical table found
//     in a body, pipe or HTML dialect, in document order.
//   - CSV Codec: [TableToCSV], [MetadataToCSV] and [ListToCSV].
//   - Corpus Loader: [Loader] reads documents from a [DocumentStore] and
//     isolates per-document failures during bulk loads.
//   - Export Orchestrator: [Exporter] resolves an [ExportRequest] into a
//     [CSVDownload].
//
// # Document Format
//
// A source document looks like:
//
//	---
//	season: 2024
//	game_type: regular_season
//	home_away: home
//	opponent: Appalachian State
//	date: 2024-09-07
//	attendance: 61204
//	---
//	Narrative prose...
//
//	| Team | 1 | 2 | 3 | 4 | T |
//	|------|---|---|---|---|---|
//	| App State | 7 | 0 | 3 | 7 | 17 |
//
// # Error Handling
//
// Every failure is one of [MalformedDocumentError], [ValidationError],
// [BadRequestError], [NotFoundError] or [InternalError]. Technical errors are
// mapped to user-friendly messages using [MapError]:
//
//   - DOC001-DOC002: Document errors (malformed, failed validation)
//   - REQ001-REQ003: Request errors (bad parameters, cancelled, timeout)
//   - NF001: Resolved to nothing (unknown slug, empty season, no tables)
//   - EXP001: Too many concurrent exports
//   - ERR000: Anything else
package core
