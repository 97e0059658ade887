package core

// csv.go renders records and tables as CSV text.
//
// Output rules:
//   - Comma delimiter, "\n" after every row including the last
//   - A field is quoted only if it contains a comma, a double quote, CR or LF
//   - Embedded double quotes are doubled
//
// encoding/csv is not used for writing: it also quotes fields that start
// with a space, which would change the bytes of otherwise plain cells.

import (
	"strconv"
	"strings"
)

const dateFormat = "2006-01-02"

// MetadataHeader and ListHeader are the fixed header rows.
var (
	MetadataHeader = []string{"field", "value"}
	ListHeader     = []string{"slug", "date", "season", "opponent", "game_type"}
)

// TableToCSV renders one table, one line per row.
func TableToCSV(table StatisticalTable) string {
	var b strings.Builder
	for _, row := range table.Rows {
		writeRow(&b, row)
	}
	return b.String()
}

// TablesToCSV renders several tables separated by a blank line.
func TablesToCSV(tables []StatisticalTable) string {
	parts := make([]string, 0, len(tables))
	for _, t := range tables {
		parts = append(parts, TableToCSV(t))
	}
	return strings.Join(parts, "\n")
}

// MetadataToCSV renders frontmatter as field,value rows in schema order.
// Absent fields have an empty value.
func MetadataToCSV(fm Frontmatter) string {
	var b strings.Builder
	writeRow(&b, MetadataHeader)
	for _, spec := range FrontmatterFields {
		writeRow(&b, []string{spec.Name, metadataValue(fm, spec.Name)})
	}
	return b.String()
}

func metadataValue(fm Frontmatter, field string) string {
	switch field {
	case "season":
		return optionalInt(fm.Season)
	case "game_type":
		return string(fm.GameType)
	case "home_away":
		return string(fm.HomeAway)
	case "opponent":
		return fm.Opponent
	case "date":
		if fm.Date == nil {
			return ""
		}
		return fm.Date.Format(dateFormat)
	case "attendance":
		return optionalInt(fm.Attendance)
	case "weather":
		return fm.Weather
	case "location":
		return fm.Location
	default:
		return ""
	}
}

// ListToCSV renders listing items under ListHeader. A zero date or season
// renders as an empty field.
func ListToCSV(items []GameListItem) string {
	var b strings.Builder
	writeRow(&b, ListHeader)
	for _, item := range items {
		date := ""
		if !item.GameDate.IsZero() {
			date = item.GameDate.Format(dateFormat)
		}
		season := ""
		if item.Season != 0 {
			season = strconv.Itoa(item.Season)
		}
		writeRow(&b, []string{item.Slug, date, season, item.Opponent, string(item.GameType)})
	}
	return b.String()
}

func optionalInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func writeRow(b *strings.Builder, fields []string) {
	for i, f := range fields {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(quoteField(f))
	}
	b.WriteByte('\n')
}

// quoteField applies the quoting rule to one field.
func quoteField(f string) string {
	if !strings.ContainsAny(f, ",\"\r\n") {
		return f
	}
	return `"` + strings.ReplaceAll(f, `"`, `""`) + `"`
}
