package core

// streaming.go provides the readers used to pull raw game documents off disk.
//
// Hand-edited game files come from many editors. Two issues show up often
// enough to handle at read time instead of in the parser:
//
//   - A UTF-8 BOM (0xEF 0xBB 0xBF) written by Windows editors, which would
//     otherwise hide the opening "---" delimiter
//   - Invalid UTF-8 from copy/paste out of PDFs and box score sites
//
// NewDocumentReader applies both transforms; ReadDocument reads a whole
// document through it with a size cap.

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"
)

// MaxDocumentSize caps how much of one source document is read.
const MaxDocumentSize = 4 << 20

// ErrDocumentTooLarge is returned when a document exceeds MaxDocumentSize.
var ErrDocumentTooLarge = errors.New("document exceeds maximum size")

// ReadDocument reads a full document from r, skipping a leading BOM and
// replacing invalid UTF-8 bytes with '?'.
func ReadDocument(r io.Reader) (string, error) {
	data, err := io.ReadAll(io.LimitReader(NewDocumentReader(r), MaxDocumentSize+1))
	if err != nil {
		return "", fmt.Errorf("read document: %w", err)
	}
	if len(data) > MaxDocumentSize {
		return "", ErrDocumentTooLarge
	}
	return string(data), nil
}

// NewDocumentReader wraps r with BOM skipping and UTF-8 sanitizing.
func NewDocumentReader(r io.Reader) io.Reader {
	return &utf8Sanitizer{src: skipBOM(r)}
}

// skipBOM peeks at the first bytes of r and discards a UTF-8 BOM.
func skipBOM(r io.Reader) io.Reader {
	br := bufio.NewReader(r)
	if head, err := br.Peek(3); err == nil && head[0] == 0xEF && head[1] == 0xBB && head[2] == 0xBF {
		_, _ = br.Discard(3)
	}
	return br
}

// utf8Sanitizer replaces invalid UTF-8 bytes with '?' as they stream through.
// A multi-byte sequence split across two reads is carried over in pending.
type utf8Sanitizer struct {
	src     io.Reader
	pending []byte
}

func (s *utf8Sanitizer) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	offset := copy(p, s.pending)
	s.pending = s.pending[:copy(s.pending, s.pending[offset:])]

	n, err := s.src.Read(p[offset:])
	n += offset
	if n == 0 {
		return 0, err
	}

	atEOF := errors.Is(err, io.EOF)
	data := p[:n]
	if asciiOnly(data) {
		return n, err
	}

	write := 0
	for read := 0; read < len(data); {
		if !atEOF && !utf8.FullRune(data[read:]) {
			s.pending = append(s.pending, data[read:]...)
			break
		}
		r, size := utf8.DecodeRune(data[read:])
		if r == utf8.RuneError && size == 1 {
			data[write] = '?'
			write++
			read++
			continue
		}
		copy(data[write:], data[read:read+size])
		write += size
		read += size
	}

	// Everything left over is pending; ask the caller to read again.
	if write == 0 && err == nil {
		return s.Read(p)
	}
	return write, err
}

func asciiOnly(data []byte) bool {
	for _, b := range data {
		if b >= utf8.RuneSelf {
			return false
		}
	}
	return true
}
