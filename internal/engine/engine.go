package engine

import (
	"errors"
	"log/slog"
	"strings"
	"time"

	"cloud.google.com/go/civil"

	"github.com/tartampluch/go-nlcep/internal/config"
)

// Parse extracts a calendar event from a single free-form sentence such as
// "Meeting about new duck quotas tomorrow 11:00 @ A769". Relative phrases
// are resolved against now, in now's location. The returned error, if any,
// is a *ParseError.
//
// Parse is a pure function: it keeps no state between calls and is safe for
// concurrent use.
func Parse(input string, now time.Time) (ResolvedEvent, error) {
	return parse(input, now, nil)
}

// Parser is a convenience wrapper for hosts. It supplies the reference
// instant from Clock when the caller has none and can trace the pipeline
// through Logger. The zero value uses RealClock and logs nothing.
type Parser struct {
	Clock  Clock
	Logger *slog.Logger
}

// Parse parses input relative to the parser's clock.
func (p *Parser) Parse(input string) (ResolvedEvent, error) {
	clock := p.Clock
	if clock == nil {
		clock = RealClock{}
	}
	return p.ParseAt(input, clock.Now())
}

// ParseAt parses input relative to an explicit reference instant.
func (p *Parser) ParseAt(input string, now time.Time) (ResolvedEvent, error) {
	return parse(input, now, p.Logger)
}

func parse(input string, now time.Time, logger *slog.Logger) (ResolvedEvent, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	log := logger.With(config.LogKeyComponent, config.CompEngine)
	log.Debug(config.MsgParseStarted,
		config.LogKeyInput, input,
		config.LogKeyNow, now.Format(config.FormatInstant),
	)

	// 1. Date (mandatory)
	date, ok := SelectDate(input)
	if !ok {
		err := &ParseError{Kind: FailureNoDateFound}
		log.Debug(config.MsgParseFailed, config.LogKeyKind, err.Kind)
		return ResolvedEvent{}, err
	}
	log.Debug(config.MsgDateSelected,
		config.LogKeyKind, date.Token.Kind().String(),
		config.LogKeySpan, date.Span.String(),
		config.LogKeyText, date.Span.Text(input),
	)
	spans := []Span{date.Span}

	// 2. Time (optional, outside the date)
	var tm *TimeMatch
	if t, ok := SelectTime(input, date.Span); ok {
		tm = &t
		spans = append(spans, t.Span)
		log.Debug(config.MsgTimeSelected,
			config.LogKeySpan, t.Span.String(),
			config.LogKeyText, t.Span.Text(input),
		)
	}

	// 3. Location (optional, outside date and time)
	var loc *LocationToken
	if l, ok := SelectLocation(input, spans...); ok {
		loc = &l
		log.Debug(config.MsgLocSelected,
			config.LogKeySpan, l.Span.String(),
			config.LogKeyLocation, l.Text,
		)
		spans = append(spans, l.Span)
	}

	// 4. Resolve
	res, err := Resolve(date, tm, now)
	if err != nil {
		var pe *ParseError
		if errors.As(err, &pe) {
			pe.Text = strings.Clone(pe.Span.Text(input))
		}
		log.Debug(config.MsgParseFailed, config.LogKeyError, err)
		return ResolvedEvent{}, err
	}

	// 5. Assemble
	ev := assemble(input, res, loc, spans)
	log.Debug(config.MsgParseDone,
		config.LogKeySummary, ev.Summary,
		config.LogKeyDate, ev.Date.String(),
	)
	return ev, nil
}

// DateTime combines the date and optional time into an instant in loc.
// Events without a time start at midnight.
func (e ResolvedEvent) DateTime(loc *time.Location) time.Time {
	if e.HasTime {
		return civil.DateTime{Date: e.Date, Time: e.Time}.In(loc)
	}
	return e.Date.In(loc)
}
