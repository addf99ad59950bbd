// Package wire defines the JSON shapes hosts exchange with callers: the
// successful event, the structured failure, and the envelope around both.
package wire

import (
	"errors"
	"fmt"
	"time"

	"github.com/tartampluch/go-nlcep/internal/config"
	"github.com/tartampluch/go-nlcep/internal/engine"
)

// Failure tags besides the engine's own FailureKind values.
const (
	// TagInvalidRequest marks failures raised by a host before parsing, such
	// as an empty or oversized input.
	TagInvalidRequest = "invalid_request"
	TagUnknown        = "unknown"
)

// Localizer renders a translation key. *i18n.Translator implements it.
type Localizer interface {
	Localize(lang, key string, data map[string]any) string
}

// EventDTO is the wire form of engine.ResolvedEvent.
type EventDTO struct {
	Summary  string `json:"summary"`
	Date     string `json:"date"`
	Time     string `json:"time,omitempty"`
	Location string `json:"location,omitempty"`
}

// SpanDTO is a byte range into the submitted text.
type SpanDTO struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

func (s SpanDTO) String() string {
	return fmt.Sprintf("[%d,%d)", s.Start, s.End)
}

// FailureDTO is the wire form of a parse or request failure.
type FailureDTO struct {
	Tag     string   `json:"tag"`
	Message string   `json:"message"`
	Span    *SpanDTO `json:"span,omitempty"`
	Text    string   `json:"text,omitempty"`
}

// Result is the envelope returned by every host. Exactly one of Event and
// Error is set.
type Result struct {
	OK    bool        `json:"ok"`
	Event *EventDTO   `json:"event,omitempty"`
	Error *FailureDTO `json:"error,omitempty"`
}

// NewEvent converts a resolved event.
func NewEvent(ev engine.ResolvedEvent) EventDTO {
	dto := EventDTO{
		Summary:  ev.Summary,
		Date:     ev.Date.String(),
		Location: ev.Location,
	}
	if ev.HasTime {
		dto.Time = ev.DateTime(time.UTC).Format(config.TimeFormatHM)
	}
	return dto
}

// NewFailure converts a parse error, localizing its message into lang. Errors
// that are not *engine.ParseError are reported with the generic message.
func NewFailure(err error, loc Localizer, lang string) FailureDTO {
	var pe *engine.ParseError
	if !errors.As(err, &pe) {
		return FailureDTO{
			Tag:     TagUnknown,
			Message: localize(loc, lang, config.TKeyErrUnknown, nil, err.Error()),
		}
	}

	switch pe.Kind {
	case engine.FailureInvalidDate:
		return FailureDTO{
			Tag:     string(pe.Kind),
			Message: localize(loc, lang, config.TKeyErrInvalidDate, map[string]any{"Text": pe.Text}, pe.Error()),
			Span:    &SpanDTO{Start: pe.Span.Start, End: pe.Span.End},
			Text:    pe.Text,
		}
	default:
		return FailureDTO{
			Tag:     string(pe.Kind),
			Message: localize(loc, lang, config.TKeyErrNoDateFound, nil, pe.Error()),
		}
	}
}

// NewRequestFailure reports a request rejected before parsing.
func NewRequestFailure(reason string, loc Localizer, lang string) FailureDTO {
	return FailureDTO{
		Tag:     TagInvalidRequest,
		Message: localize(loc, lang, config.TKeyErrRequest, map[string]any{"Reason": reason}, reason),
	}
}

// FromParse wraps the outcome of engine.Parse in a Result.
func FromParse(ev engine.ResolvedEvent, err error, loc Localizer, lang string) Result {
	if err != nil {
		f := NewFailure(err, loc, lang)
		return Result{Error: &f}
	}
	dto := NewEvent(ev)
	return Result{OK: true, Event: &dto}
}

func localize(loc Localizer, lang, key string, data map[string]any, fallback string) string {
	if loc == nil {
		return fallback
	}
	return loc.Localize(lang, key, data)
}
