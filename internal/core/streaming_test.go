package core

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"
	"testing/iotest"
)

func TestReadDocument_BOM(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
		want  string
	}{
		{
			name:  "document with BOM",
			input: append([]byte{0xEF, 0xBB, 0xBF}, []byte("---\nseason: 2023\n---\n")...),
			want:  "---\nseason: 2023\n---\n",
		},
		{
			name:  "document without BOM",
			input: []byte("---\n---\n"),
			want:  "---\n---\n",
		},
		{
			name:  "empty document",
			input: []byte{},
			want:  "",
		},
		{
			name:  "only BOM",
			input: []byte{0xEF, 0xBB, 0xBF},
			want:  "",
		},
		{
			name:  "partial BOM is sanitized",
			input: []byte{0xEF, 0xBB, 'a', 'b'},
			want:  "??ab",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ReadDocument(bytes.NewReader(tt.input))
			if err != nil {
				t.Fatalf("ReadDocument() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("ReadDocument() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestReadDocument_InvalidUTF8(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
		want  string
	}{
		{"valid ascii", []byte("Opponent: Ohio"), "Opponent: Ohio"},
		{"valid multibyte", []byte("Estadio Azteca – México"), "Estadio Azteca – México"},
		{"lone continuation byte", []byte{'a', 0x80, 'b'}, "a?b"},
		{"invalid lead byte", []byte{0xFF, 'x'}, "?x"},
		{"truncated sequence at EOF", []byte{'a', 0xE2, 0x80}, "a??"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ReadDocument(bytes.NewReader(tt.input))
			if err != nil {
				t.Fatalf("ReadDocument() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("ReadDocument() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDocumentReader_SplitRune(t *testing.T) {
	// One byte per Read forces every multi-byte rune across read boundaries.
	input := "weather: 72°F, sunny – “clear”"
	r := NewDocumentReader(iotest.OneByteReader(strings.NewReader(input)))

	got, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if string(got) != input {
		t.Errorf("ReadAll() = %q, want %q", got, input)
	}
}

func TestReadDocument_TooLarge(t *testing.T) {
	big := strings.Repeat("a", MaxDocumentSize+1)
	_, err := ReadDocument(strings.NewReader(big))
	if !errors.Is(err, ErrDocumentTooLarge) {
		t.Errorf("ReadDocument() error = %v, want ErrDocumentTooLarge", err)
	}
}

func TestReadDocument_ReaderError(t *testing.T) {
	boom := errors.New("disk on fire")
	_, err := ReadDocument(iotest.ErrReader(boom))
	if !errors.Is(err, boom) {
		t.Errorf("ReadDocument() error = %v, want wrapped %v", err, boom)
	}
}
