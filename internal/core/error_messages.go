package core

// error_messages.go maps pipeline errors to user-facing messages with codes.
//
// # Error Codes Reference
//
// When users encounter errors, they can quote the code to support staff.
//
//	DOC001 - Malformed document: the game file has no readable metadata block
//	         Action: Check the frontmatter delimiters (---) of the game file
//
//	DOC002 - Invalid metadata: required fields are missing or invalid
//	         Action: Fix the listed frontmatter fields
//
//	REQ001 - Bad request: a parameter is missing or not recognized
//	         Action: Check the type, format, slug and season parameters
//
//	REQ002 - Request cancelled
//	         Patterns: "context canceled"
//
//	REQ003 - Request timeout
//	         Patterns: "context deadline exceeded", "timeout"
//
//	NF001  - Not found: nothing matched the request
//	         Action: Check the slug or season
//
//	EXP001 - Exports busy: too many concurrent exports
//	         Patterns: "too many concurrent exports"
//
//	RATE001 - Rate limited
//	          Patterns: "rate limit"
//
//	ERR000 - Unknown error: check application logs for the technical error
//
// Typed errors are classified with errors.As first. Anything left over is
// matched case-insensitively against the pattern table; the first matching
// pattern wins.

import (
	"errors"
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

var errorPatterns = []errorPattern{
	{
		pattern: "too many concurrent exports",
		msg: UserMessage{
			Message: "Too many exports in progress",
			Action:  "Please wait a moment and try again",
			Code:    "EXP001",
		},
	},
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "Request was cancelled",
			Action:  "Please try again",
			Code:    "REQ002",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "Try a smaller export or try again later",
			Code:    "REQ003",
		},
	},
	{
		pattern: "timeout",
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "Try a smaller export or try again later",
			Code:    "REQ003",
		},
	},
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "RATE001",
		},
	},
}

// defaultMessage is returned when nothing matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts an error to a user-friendly message.
// InternalError always maps to ERR000 so its cause never reaches the client.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	var (
		malformed *MalformedDocumentError
		invalid   *ValidationError
		badReq    *BadRequestError
		notFound  *NotFoundError
		internal  *InternalError
	)
	switch {
	case errors.As(err, &internal):
		return defaultMessage
	case errors.As(err, &badReq):
		return UserMessage{
			Message: badReq.Error(),
			Action:  "Check the type, format, slug and season parameters",
			Code:    "REQ001",
		}
	case errors.As(err, &notFound):
		return UserMessage{
			Message: notFound.Error(),
			Action:  "Check the slug or season",
			Code:    "NF001",
		}
	case errors.As(err, &malformed):
		return UserMessage{
			Message: "The game document has no readable metadata block",
			Action:  "Check the frontmatter delimiters (---) of the game file",
			Code:    "DOC001",
		}
	case errors.As(err, &invalid):
		return UserMessage{
			Message: invalid.Error(),
			Action:  "Fix the listed frontmatter fields",
			Code:    "DOC002",
		}
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to something more specific than ERR000.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}
