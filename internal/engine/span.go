package engine

import "fmt"

// Span is a half-open byte range [Start, End) into the raw input text.
type Span struct {
	Start int
	End   int
}

// Len returns the number of bytes covered by the span.
func (s Span) Len() int {
	return s.End - s.Start
}

// IsZero reports whether the span is the zero value.
func (s Span) IsZero() bool {
	return s.Start == 0 && s.End == 0
}

// Overlaps reports whether the two spans share at least one byte.
func (s Span) Overlaps(o Span) bool {
	return s.Start < o.End && o.Start < s.End
}

// Contains reports whether pos lies inside the span.
func (s Span) Contains(pos int) bool {
	return pos >= s.Start && pos < s.End
}

// Text returns the substring of input covered by the span.
func (s Span) Text(input string) string {
	return input[s.Start:s.End]
}

func (s Span) String() string {
	return fmt.Sprintf("[%d,%d)", s.Start, s.End)
}
