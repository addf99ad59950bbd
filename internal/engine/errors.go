package engine

import (
	"errors"
	"fmt"

	"github.com/tartampluch/go-nlcep/internal/config"
)

// FailureKind is the discriminant of a ParseError. Its string value is the
// tag hosts put on the wire.
type FailureKind string

const (
	// FailureNoDateFound means the input holds no recognizable date phrase.
	FailureNoDateFound FailureKind = "no_date_found"
	// FailureInvalidDate means a recognized date names an impossible day.
	FailureInvalidDate FailureKind = "invalid_date"
)

// Sentinels for errors.Is.
var (
	ErrNoDateFound = errors.New(config.ErrNoDateFound)
	ErrInvalidDate = errors.New(config.ErrInvalidDate)
)

// ParseError is the only error Parse returns. Span and Text locate the
// offending date expression for InvalidDate and are empty for NoDateFound.
type ParseError struct {
	Kind FailureKind
	Span Span
	Text string
}

func (e *ParseError) Error() string {
	if e.Kind == FailureInvalidDate {
		return fmt.Sprintf("%s: %q at %s", config.ErrInvalidDate, e.Text, e.Span)
	}
	return config.ErrNoDateFound
}

// Unwrap exposes the sentinel matching Kind.
func (e *ParseError) Unwrap() error {
	switch e.Kind {
	case FailureNoDateFound:
		return ErrNoDateFound
	case FailureInvalidDate:
		return ErrInvalidDate
	default:
		return nil
	}
}
