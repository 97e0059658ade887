package core

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode string
	}{
		{
			name:     "nil error returns empty",
			err:      nil,
			wantCode: "",
		},
		{
			name:     "malformed document",
			err:      &MalformedDocumentError{Slug: "x", Reason: "missing metadata block"},
			wantCode: "DOC001",
		},
		{
			name:     "validation failure",
			err:      &ValidationError{MissingFields: []string{"date"}},
			wantCode: "DOC002",
		},
		{
			name:     "wrapped validation failure",
			err:      fmt.Errorf("load: %w", &ValidationError{MissingFields: []string{"date"}}),
			wantCode: "DOC002",
		},
		{
			name:     "bad request",
			err:      &BadRequestError{Param: "season", Message: "\"abc\" is not a year"},
			wantCode: "REQ001",
		},
		{
			name:     "not found",
			err:      &NotFoundError{Resource: "game", Key: "nope"},
			wantCode: "NF001",
		},
		{
			name:     "internal error hides its cause",
			err:      &InternalError{Op: "export", Err: &NotFoundError{Resource: "game"}},
			wantCode: "ERR000",
		},
		{
			name:     "too many exports",
			err:      ErrTooManyExports,
			wantCode: "EXP001",
		},
		{
			name:     "cancelled",
			err:      context.Canceled,
			wantCode: "REQ002",
		},
		{
			name:     "deadline",
			err:      fmt.Errorf("read: %w", context.DeadlineExceeded),
			wantCode: "REQ003",
		},
		{
			name:     "rate limit is case insensitive",
			err:      errors.New("Rate Limit exceeded"),
			wantCode: "RATE001",
		},
		{
			name:     "unknown error returns default",
			err:      errors.New("some random internal error"),
			wantCode: "ERR000",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapError(tt.err)
			if got.Code != tt.wantCode {
				t.Errorf("MapError() code = %q, want %q", got.Code, tt.wantCode)
			}
			if tt.err != nil && got.Message == "" {
				t.Error("MapError() message is empty")
			}
		})
	}
}

func TestMapError_NotFoundMessage(t *testing.T) {
	got := MapError(&NotFoundError{Resource: "game", Key: "2023-michigan"})
	if want := `game "2023-michigan" not found`; got.Message != want {
		t.Errorf("Message = %q, want %q", got.Message, want)
	}
}

func TestFormatUserError(t *testing.T) {
	result := FormatUserError(ErrTooManyExports)

	expected := "Too many exports in progress (Code: EXP001). Please wait a moment and try again"
	if result != expected {
		t.Errorf("FormatUserError() = %q, want %q", result, expected)
	}
	if got := FormatUserError(nil); got != "" {
		t.Errorf("FormatUserError(nil) = %q, want empty", got)
	}
}

func TestIsUserFacing(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil error is not user facing", nil, false},
		{"bad request is user facing", &BadRequestError{Message: "x"}, true},
		{"internal error is not user facing", &InternalError{Op: "x"}, false},
		{"unknown error is not user facing", errors.New("random internal error xyz"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsUserFacing(tt.err); got != tt.want {
				t.Errorf("IsUserFacing() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestValidationError_Message(t *testing.T) {
	err := &ValidationError{
		Slug:          "2023-michigan",
		MissingFields: []string{"season", "date"},
		InvalidFields: []FieldError{{Field: "game_type", Value: "Bowl", Message: "must be one of: regular_season, bowl, playoff, championship"}},
	}
	want := `validation failed for "2023-michigan": missing required field(s) season, date; ` +
		"invalid field game_type: must be one of: regular_season, bowl, playoff, championship"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestIsDocumentError(t *testing.T) {
	if !IsDocumentError(&MalformedDocumentError{}) || !IsDocumentError(&ValidationError{}) {
		t.Error("document errors not recognized")
	}
	if IsDocumentError(&NotFoundError{}) || IsDocumentError(errors.New("x")) {
		t.Error("non-document error recognized")
	}
}
