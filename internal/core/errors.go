package core

// errors.go defines the error taxonomy of the export pipeline.
//
// Each condition the pipeline can reach maps to exactly one type:
//
//	MalformedDocumentError  metadata block missing, unterminated or undecodable
//	ValidationError         metadata decoded but failed the schema
//	BadRequestError         caller supplied an unusable parameter
//	NotFoundError           a well-formed request resolved to nothing
//	InternalError           anything else; message is generic, cause is kept
//
// Use errors.As to classify. The Corpus Loader absorbs the first two during
// bulk loads; the Exporter surfaces everything else.

import (
	"errors"
	"fmt"
	"strings"
)

// ErrDocumentNotFound is returned by a DocumentStore for unknown slugs.
var ErrDocumentNotFound = errors.New("document not found")

// MalformedDocumentError reports a document whose metadata block cannot be read.
type MalformedDocumentError struct {
	Slug   string
	Reason string
	Err    error
}

func (e *MalformedDocumentError) Error() string {
	var b strings.Builder
	b.WriteString("malformed document")
	if e.Slug != "" {
		fmt.Fprintf(&b, " %q", e.Slug)
	}
	b.WriteString(": ")
	b.WriteString(e.Reason)
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *MalformedDocumentError) Unwrap() error {
	return e.Err
}

// FieldError describes one invalid frontmatter field.
type FieldError struct {
	Field   string `json:"field"`
	Value   string `json:"value,omitempty"`
	Message string `json:"message"`
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError lists every schema problem found in one document.
type ValidationError struct {
	Slug          string       `json:"slug,omitempty"`
	MissingFields []string     `json:"missingFields"`
	InvalidFields []FieldError `json:"invalidFields"`
}

func (e *ValidationError) Error() string {
	var parts []string
	if len(e.MissingFields) > 0 {
		parts = append(parts, "missing required field(s) "+strings.Join(e.MissingFields, ", "))
	}
	for _, fe := range e.InvalidFields {
		parts = append(parts, "invalid field "+fe.Error())
	}
	prefix := "validation failed"
	if e.Slug != "" {
		prefix = fmt.Sprintf("validation failed for %q", e.Slug)
	}
	return prefix + ": " + strings.Join(parts, "; ")
}

// empty reports whether no problems were recorded.
func (e *ValidationError) empty() bool {
	return len(e.MissingFields) == 0 && len(e.InvalidFields) == 0
}

// BadRequestError reports an unusable request parameter.
type BadRequestError struct {
	Param   string
	Message string
}

func (e *BadRequestError) Error() string {
	if e.Param == "" {
		return "bad request: " + e.Message
	}
	return fmt.Sprintf("bad request: %s: %s", e.Param, e.Message)
}

// NotFoundError reports a request that resolved to an empty result.
type NotFoundError struct {
	Resource string
	Key      string
}

func (e *NotFoundError) Error() string {
	if e.Key == "" {
		return e.Resource + " not found"
	}
	return fmt.Sprintf("%s %q not found", e.Resource, e.Key)
}

// InternalError hides an unexpected failure behind a generic message.
// The cause is available through Unwrap for server-side logging.
type InternalError struct {
	Op  string
	Err error
}

func (e *InternalError) Error() string {
	return "internal error"
}

func (e *InternalError) Unwrap() error {
	return e.Err
}

// Detail returns the full technical description for logs.
func (e *InternalError) Detail() string {
	if e.Err == nil {
		return e.Op
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// badRequest is shorthand for constructing a BadRequestError.
func badRequest(param, format string, args ...any) *BadRequestError {
	return &BadRequestError{Param: param, Message: fmt.Sprintf(format, args...)}
}

// IsDocumentError reports whether err is a per-document parse or schema failure.
func IsDocumentError(err error) bool {
	var malformed *MalformedDocumentError
	var invalid *ValidationError
	return errors.As(err, &malformed) || errors.As(err, &invalid)
}
