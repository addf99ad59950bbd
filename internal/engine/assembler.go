package engine

import (
	"slices"
	"strings"

	"cloud.google.com/go/civil"
)

// Stray punctuation left next to a removed span ("tomorrow - review",
// "Reminder: 18.11.", a dangling "@") is dropped with the surrounding
// whitespace.
const strayCutset = " \t\r\n,;:@-–—"

// A stretch after a removed span made only of these is sentence punctuation
// ("Meeting tomorrow.") and is dropped entirely. Dots are not in strayCutset
// because "18.11." left in a summary must keep them.
const trailingCutset = strayCutset + ".!?…"

// ResolvedEvent is the result of a successful parse. All strings are owned
// copies; nothing references the input after Parse returns.
type ResolvedEvent struct {
	Summary  string
	Date     civil.Date
	Time     civil.Time
	HasTime  bool
	Location string
}

// HasLocation reports whether a location was recognized.
func (e ResolvedEvent) HasLocation() bool {
	return e.Location != ""
}

// Summarize removes the accepted spans from input, trims whitespace and
// stray punctuation around each removal and collapses whitespace runs. If
// nothing is left, the collapsed input itself is the summary, so the result
// is never empty for non-blank input.
func Summarize(input string, spans ...Span) string {
	accepted := make([]Span, 0, len(spans))
	for _, s := range spans {
		if s.Len() > 0 {
			accepted = append(accepted, s)
		}
	}
	slices.SortFunc(accepted, func(a, b Span) int { return a.Start - b.Start })

	var parts []string
	prev := 0
	for i, s := range accepted {
		parts = appendPiece(parts, input[prev:s.Start], i > 0, true)
		prev = s.End
	}
	parts = appendPiece(parts, input[prev:], len(accepted) > 0, false)

	if summary := strings.Join(parts, " "); summary != "" {
		return strings.Clone(summary)
	}
	return strings.Join(strings.Fields(input), " ")
}

// appendPiece cleans one stretch of text between removed spans. afterSpan
// and beforeSpan tell which of its edges touched a removal.
func appendPiece(parts []string, piece string, afterSpan, beforeSpan bool) []string {
	if afterSpan && strings.Trim(piece, trailingCutset) == "" {
		return parts
	}
	if afterSpan {
		piece = strings.TrimLeft(piece, strayCutset)
	}
	if beforeSpan {
		piece = strings.TrimRight(piece, strayCutset)
	}
	if piece = strings.Join(strings.Fields(piece), " "); piece != "" {
		parts = append(parts, piece)
	}
	return parts
}

// assemble builds the final event from the resolved values and the spans
// every recognizer accepted.
func assemble(input string, res Resolution, loc *LocationToken, spans []Span) ResolvedEvent {
	ev := ResolvedEvent{
		Summary: Summarize(input, spans...),
		Date:    res.Date,
		Time:    res.Time,
		HasTime: res.HasTime,
	}
	if loc != nil {
		ev.Location = loc.Text
	}
	return ev
}
