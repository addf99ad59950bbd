package engine

import (
	"fmt"
	"time"

	"cloud.google.com/go/civil"
)

// DateKind tags the DateToken variants. The numeric order is also the
// tie-break priority: absolute dates are the least ambiguous.
type DateKind int

const (
	DateKindAbsolute DateKind = iota
	DateKindRelative
	DateKindWeekday
)

func (k DateKind) String() string {
	switch k {
	case DateKindAbsolute:
		return "absolute"
	case DateKindRelative:
		return "relative"
	case DateKindWeekday:
		return "weekday"
	default:
		return fmt.Sprintf("DateKind(%d)", int(k))
	}
}

// DateToken is the closed union of recognized date phrases: AbsoluteDate,
// RelativeDay and NamedWeekday. The unexported resolve method keeps the set
// closed and forces every variant to define its own resolution.
type DateToken interface {
	Kind() DateKind
	resolve(ref civil.Date) (civil.Date, bool)
}

// AbsoluteDate is a day-first numeric date such as "18.11." or "18.11.2024".
type AbsoluteDate struct {
	Day     int
	Month   time.Month
	Year    int
	HasYear bool
}

// Kind implements DateToken.
func (AbsoluteDate) Kind() DateKind { return DateKindAbsolute }

// RelativeDay is a fixed day offset from the reference date ("tomorrow" is 1).
type RelativeDay struct {
	Offset int
}

// Kind implements DateToken.
func (RelativeDay) Kind() DateKind { return DateKindRelative }

// NamedWeekday is a weekday name, optionally qualified by "next".
type NamedWeekday struct {
	Weekday time.Weekday
	Next    bool
}

// Kind implements DateToken.
func (NamedWeekday) Kind() DateKind { return DateKindWeekday }

// DateMatch is a DateToken together with the span it was read from.
type DateMatch struct {
	Span  Span
	Token DateToken
}

// TimeToken is a 24-hour time of day.
type TimeToken struct {
	Hour   int
	Minute int
}

// TimeMatch is a TimeToken together with the span it was read from.
type TimeMatch struct {
	Span  Span
	Token TimeToken
}

// LocationToken is the captured location text. Its span covers the marker
// as well as the value so that both disappear from the summary.
type LocationToken struct {
	Span Span
	Text string
}
