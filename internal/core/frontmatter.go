package core

// frontmatter.go splits a source document into its metadata block and body.
//
// The metadata block must open on the very first line with "---" and close on
// a later line that is exactly "---" or "...". Trailing whitespace and CRLF
// line endings are tolerated on delimiter lines. The body is everything after
// the closing delimiter line; only that line's own terminator is consumed, so
// the body keeps its original line structure for table extraction.

import (
	"strings"

	"gopkg.in/yaml.v2"
)

const utf8BOM = "\ufeff"

// SplitDocument separates raw into decoded metadata and the untouched body.
// Returns a *MalformedDocumentError if the block is absent, unterminated, or
// not a YAML mapping.
func SplitDocument(raw string) (RawMetadata, string, error) {
	raw = strings.TrimPrefix(raw, utf8BOM)

	firstEnd := strings.IndexByte(raw, '\n')
	if firstEnd < 0 {
		if isOpeningDelimiter(raw) {
			return nil, "", &MalformedDocumentError{Reason: "unterminated metadata block"}
		}
		return nil, "", &MalformedDocumentError{Reason: "missing metadata block"}
	}
	if !isOpeningDelimiter(raw[:firstEnd]) {
		return nil, "", &MalformedDocumentError{Reason: "missing metadata block"}
	}

	metaStart := firstEnd + 1
	for pos := metaStart; pos <= len(raw); {
		end := strings.IndexByte(raw[pos:], '\n')
		lineEnd := len(raw)
		if end >= 0 {
			lineEnd = pos + end
		}

		if isClosingDelimiter(raw[pos:lineEnd]) {
			meta, err := decodeMetadata(raw[metaStart:pos])
			if err != nil {
				return nil, "", err
			}
			bodyStart := len(raw)
			if end >= 0 {
				bodyStart = lineEnd + 1
			}
			return meta, raw[bodyStart:], nil
		}

		if end < 0 {
			break
		}
		pos = lineEnd + 1
	}

	return nil, "", &MalformedDocumentError{Reason: "unterminated metadata block"}
}

func isOpeningDelimiter(line string) bool {
	return strings.TrimRight(line, " \t\r") == "---"
}

func isClosingDelimiter(line string) bool {
	line = strings.TrimRight(line, " \t\r")
	return line == "---" || line == "..."
}

// decodeMetadata unmarshals the YAML between the delimiters.
func decodeMetadata(block string) (RawMetadata, error) {
	meta := RawMetadata{}
	if strings.TrimSpace(block) == "" {
		return meta, nil
	}

	var decoded map[string]any
	if err := yaml.Unmarshal([]byte(block), &decoded); err != nil {
		return nil, &MalformedDocumentError{Reason: "metadata is not a YAML mapping", Err: err}
	}
	for k, v := range decoded {
		meta[k] = v
	}
	return meta, nil
}

// ParseDocument runs the Frontmatter Parser and, when opts.Validate is set,
// the Schema Validator over one document. Errors carry the slug.
func ParseDocument(slug, raw string, opts LoadOptions) (GameRecord, error) {
	meta, body, err := SplitDocument(raw)
	if err != nil {
		if m, ok := err.(*MalformedDocumentError); ok {
			m.Slug = slug
		}
		return GameRecord{}, err
	}

	record := GameRecord{Slug: slug, Body: body}
	if !opts.Validate {
		record.Frontmatter = DecodeFrontmatter(meta)
		return record, nil
	}

	fm, err := ValidateFrontmatter(meta)
	if err != nil {
		if v, ok := err.(*ValidationError); ok {
			v.Slug = slug
		}
		return GameRecord{}, err
	}
	record.Frontmatter = fm
	record.Validated = true
	return record, nil
}

// parseListItem is the cheap path used for listings: metadata only, body ignored.
func parseListItem(slug, raw string, opts LoadOptions) (GameListItem, error) {
	record, err := ParseDocument(slug, raw, opts)
	if err != nil {
		return GameListItem{}, err
	}
	return record.ListItem(), nil
}
