package core

// tables.go finds statistical tables in a document body.
//
// Two dialects are recognized:
//
//	| Team | 1 | 2 | 3 | 4 | T |        pipe tables: header line, delimiter
//	|------|---|---|---|---|---|        row, then every following non-blank
//	| OSU  | 7 | 3 | 0 | 7 | 17 |       line that contains a pipe
//
//	<table><tr><th>..</th></tr></table> HTML tables, possibly spanning lines
//
// Several HTML tables may share a line, with or without text between them.
// Anything inside a fenced code block (``` or ~~~) is skipped. Lines inside an
// HTML table are raw HTML: a fence marker there neither opens nor closes a
// code block. Rows are normalized to the header's width: short rows are padded
// with empty cells and long rows are truncated. A table whose header has no cells is dropped.

import (
	"iter"
	"regexp"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var (
	tableTagPattern  = regexp.MustCompile(`(?i)<(/?)table\b[^>]*>`)
	tableOpenPattern = regexp.MustCompile(`(?i)<table\b`)
	delimiterCell    = regexp.MustCompile(`^:?-+:?$`)
)

// ExtractTables returns the tables of body in document order.
// The sequence is lazy and can be ranged over more than once.
func ExtractTables(body string) iter.Seq[StatisticalTable] {
	return func(yield func(StatisticalTable) bool) {
		sc := newTableScanner(body)
		for {
			table, ok := sc.next()
			if !ok {
				return
			}
			if !yield(table) {
				return
			}
		}
	}
}

// CollectTables materializes ExtractTables. Never returns nil.
func CollectTables(body string) []StatisticalTable {
	tables := []StatisticalTable{}
	for t := range ExtractTables(body) {
		tables = append(tables, t)
	}
	return tables
}

type bodyLine struct {
	text  string // without the line terminator or trailing \r
	start int    // byte offset of the line in the body
}

// tableScanner walks the body line by line, one table per next call.
// col is the byte offset within lines[pos] where scanning resumes after an
// HTML table that closed mid-line.
type tableScanner struct {
	body  string
	lines []bodyLine
	pos   int
	col   int

	fenceChar byte
	fenceLen  int
}

func newTableScanner(body string) *tableScanner {
	var lines []bodyLine
	for start := 0; start < len(body); {
		end := strings.IndexByte(body[start:], '\n')
		if end < 0 {
			lines = append(lines, bodyLine{text: strings.TrimSuffix(body[start:], "\r"), start: start})
			break
		}
		lines = append(lines, bodyLine{text: strings.TrimSuffix(body[start:start+end], "\r"), start: start})
		start += end + 1
	}
	return &tableScanner{body: body, lines: lines}
}

func (s *tableScanner) next() (StatisticalTable, bool) {
	for s.pos < len(s.lines) {
		line := s.lines[s.pos]

		if s.col == 0 && s.inFence(line.text) {
			s.pos++
			continue
		}

		if loc := tableOpenPattern.FindStringIndex(line.text[s.col:]); loc != nil {
			if table, ok := s.htmlTable(line.start + s.col + loc[0]); ok {
				return table, true
			}
			continue
		}

		// The rest of a line after a closing </table> is never a pipe table.
		if s.col > 0 {
			s.pos++
			s.col = 0
			continue
		}

		start := s.pos
		if table, ok := s.pipeTable(); ok {
			return table, true
		}
		if s.pos == start {
			s.pos++
		}
	}
	return StatisticalTable{}, false
}

// inFence tracks fenced code blocks. It reports true for fence lines and for
// every line inside a fence.
func (s *tableScanner) inFence(line string) bool {
	trimmed := strings.TrimLeft(line, " \t")

	if s.fenceLen > 0 {
		if n := fenceRun(trimmed, s.fenceChar); n >= s.fenceLen && strings.TrimSpace(trimmed[n:]) == "" {
			s.fenceLen = 0
		}
		return true
	}

	for _, c := range []byte{'`', '~'} {
		if n := fenceRun(trimmed, c); n >= 3 {
			s.fenceChar, s.fenceLen = c, n
			return true
		}
	}
	return false
}

func fenceRun(s string, c byte) int {
	n := 0
	for n < len(s) && s[n] == c {
		n++
	}
	return n
}

// htmlTable parses the <table> element starting at offset and moves the
// scanner to just after the matching </table>. An element that is never
// closed is treated as text.
func (s *tableScanner) htmlTable(offset int) (StatisticalTable, bool) {
	end := matchingTableEnd(s.body, offset)
	if end < 0 {
		s.pos++
		s.col = 0
		return StatisticalTable{}, false
	}
	s.seek(end)
	return parseHTMLTable(s.body[offset:end])
}

// seek positions the scanner at body offset off. The closing '>' at off-1
// belongs to the last line starting before off.
func (s *tableScanner) seek(off int) {
	i := sort.Search(len(s.lines), func(i int) bool {
		return s.lines[i].start >= off
	}) - 1
	col := off - s.lines[i].start
	if col >= len(s.lines[i].text) {
		s.pos, s.col = i+1, 0
		return
	}
	s.pos, s.col = i, col
}

// matchingTableEnd returns the offset just past the </table> that closes the
// element opened at offset, or -1.
func matchingTableEnd(body string, offset int) int {
	depth := 0
	for _, m := range tableTagPattern.FindAllStringSubmatchIndex(body[offset:], -1) {
		if m[3] > m[2] {
			depth--
		} else {
			depth++
		}
		if depth == 0 {
			return offset + m[1]
		}
	}
	return -1
}

func parseHTMLTable(fragment string) (StatisticalTable, bool) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return StatisticalTable{}, false
	}
	table := doc.Find("table").First()
	if table.Length() == 0 {
		return StatisticalTable{}, false
	}

	var rows [][]string
	table.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		// Rows of nested tables belong to those tables.
		if !tr.Closest("table").IsSelection(table) {
			return
		}
		cells := tr.ChildrenFiltered("th, td")
		if cells.Length() == 0 {
			return
		}
		row := make([]string, 0, cells.Length())
		cells.Each(func(_ int, cell *goquery.Selection) {
			row = append(row, cellText(cell))
		})
		rows = append(rows, row)
	})

	return normalizeTable(rows)
}

// cellText returns the whitespace-collapsed text of a cell, leaving out any
// nested table.
func cellText(cell *goquery.Selection) string {
	c := cell.Clone()
	c.Find("table").Remove()
	return strings.Join(strings.Fields(c.Text()), " ")
}

// pipeTable tries to read a pipe table starting at the current line.
func (s *tableScanner) pipeTable() (StatisticalTable, bool) {
	if s.pos+1 >= len(s.lines) {
		return StatisticalTable{}, false
	}
	header := s.lines[s.pos].text
	if !strings.Contains(header, "|") || !isDelimiterRow(s.lines[s.pos+1].text) {
		return StatisticalTable{}, false
	}

	rows := [][]string{splitPipeRow(header)}
	i := s.pos + 2
	for ; i < len(s.lines); i++ {
		line := s.lines[i].text
		if strings.TrimSpace(line) == "" || !strings.Contains(line, "|") {
			break
		}
		if tableOpenPattern.MatchString(line) || isFenceStart(line) {
			break
		}
		rows = append(rows, splitPipeRow(line))
	}
	s.pos = i

	return normalizeTable(rows)
}

func isFenceStart(line string) bool {
	trimmed := strings.TrimLeft(line, " \t")
	return fenceRun(trimmed, '`') >= 3 || fenceRun(trimmed, '~') >= 3
}

// isDelimiterRow reports whether line looks like "| --- | :-: |".
func isDelimiterRow(line string) bool {
	if !strings.Contains(line, "-") {
		return false
	}
	cells := splitPipeRow(line)
	if len(cells) == 0 {
		return false
	}
	// A single delimiter cell needs a pipe to tell it apart from a rule.
	if len(cells) == 1 && !strings.Contains(line, "|") {
		return false
	}
	for _, c := range cells {
		if !delimiterCell.MatchString(c) {
			return false
		}
	}
	return true
}

// splitPipeRow splits a pipe table line into trimmed cells. Outer pipes are
// optional and \| is a literal pipe. A line with nothing between its outer
// pipes has no cells.
func splitPipeRow(line string) []string {
	line = strings.TrimSpace(line)
	line = strings.TrimPrefix(line, "|")
	if strings.HasSuffix(line, "|") && !strings.HasSuffix(line, `\|`) {
		line = line[:len(line)-1]
	}
	if strings.TrimSpace(line) == "" {
		return nil
	}

	var (
		cells []string
		cell  strings.Builder
	)
	for i := 0; i < len(line); i++ {
		switch {
		case line[i] == '\\' && i+1 < len(line) && line[i+1] == '|':
			cell.WriteByte('|')
			i++
		case line[i] == '|':
			cells = append(cells, strings.TrimSpace(cell.String()))
			cell.Reset()
		default:
			cell.WriteByte(line[i])
		}
	}
	return append(cells, strings.TrimSpace(cell.String()))
}

// normalizeTable makes rows rectangular at the header's width.
func normalizeTable(rows [][]string) (StatisticalTable, bool) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return StatisticalTable{}, false
	}
	width := len(rows[0])
	for i, row := range rows {
		switch {
		case len(row) < width:
			padded := make([]string, width)
			copy(padded, row)
			rows[i] = padded
		case len(row) > width:
			rows[i] = row[:width:width]
		}
	}
	return StatisticalTable{Rows: rows}, true
}
