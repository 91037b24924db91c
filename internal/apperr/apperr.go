// Package apperr defines the structured error taxonomy shared by all
// services. Handlers map kinds to HTTP statuses; everything else wraps
// and rewraps through here so callers can branch on Kind instead of
// string matching.
package apperr

import (
	"errors"
	"fmt"
)

type Kind int

const (
	Internal Kind = iota
	Unauthorized
	NotFound
	QuotaExceeded
	UnsupportedFileType
	InvalidConfiguration
	ModelUnavailable
	UpstreamFetchFailure
	PartialIngestionFailure
	Conflict
)

func (k Kind) String() string {
	switch k {
	case Unauthorized:
		return "unauthorized"
	case NotFound:
		return "not_found"
	case QuotaExceeded:
		return "quota_exceeded"
	case UnsupportedFileType:
		return "unsupported_file_type"
	case InvalidConfiguration:
		return "invalid_configuration"
	case ModelUnavailable:
		return "model_unavailable"
	case UpstreamFetchFailure:
		return "upstream_fetch_failure"
	case PartialIngestionFailure:
		return "partial_ingestion_failure"
	case Conflict:
		return "conflict"
	default:
		return "internal"
	}
}

// Error carries a kind and a human-readable message, optionally wrapping
// an underlying cause.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds an Error with a formatted message.
func New(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind and message to an underlying error.
func Wrap(kind Kind, err error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Err: err}
}

// KindOf extracts the kind from err, or Internal if err is not an Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Message returns the human-readable message for err.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Msg
	}
	if err != nil {
		return err.Error()
	}
	return ""
}
