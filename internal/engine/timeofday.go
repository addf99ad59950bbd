package engine

import (
	"regexp"
	"strconv"
	"unicode"
	"unicode/utf8"
)

// 24-hour "H:MM", "HH:MM" and "HH:MM:SS". A leading "at " belongs to the time
// so it is never read as a location marker.
var timePattern = regexp.MustCompile(`(?i)(?:\bat\s+)?(\d{1,2}):(\d{2})(?::(\d{2}))?`)

// RecognizeTimes returns every valid time-of-day candidate that does not
// overlap one of the excluded spans. Out-of-range values such as "25:00"
// are skipped rather than reported.
func RecognizeTimes(input string, excluded ...Span) []TimeMatch {
	cands := timeCandidates(input, excluded)
	out := make([]TimeMatch, 0, len(cands))
	for _, c := range cands {
		out = append(out, TimeMatch{Span: c.span, Token: c.token})
	}
	return out
}

// SelectTime returns the earliest (then longest) time-of-day candidate
// outside the excluded spans.
func SelectTime(input string, excluded ...Span) (TimeMatch, bool) {
	c, ok := pick(timeCandidates(input, excluded))
	if !ok {
		return TimeMatch{}, false
	}
	return TimeMatch{Span: c.span, Token: c.token}, true
}

func timeCandidates(input string, excluded []Span) []candidate[TimeToken] {
	var cands []candidate[TimeToken]
	for _, m := range timePattern.FindAllStringSubmatchIndex(input, -1) {
		span := Span{Start: m[0], End: m[1]}
		if overlapsAny(span, excluded) || !clockStandsAlone(input, m[2], m[1]) {
			continue
		}
		hour, _ := strconv.Atoi(input[m[2]:m[3]])
		minute, _ := strconv.Atoi(input[m[4]:m[5]])
		if hour > 23 || minute > 59 {
			continue
		}
		if m[6] >= 0 {
			if second, _ := strconv.Atoi(input[m[6]:m[7]]); second > 59 {
				continue
			}
		}
		cands = append(cands, candidate[TimeToken]{
			span:  span,
			token: TimeToken{Hour: hour, Minute: minute},
		})
	}
	return cands
}

// clockStandsAlone rejects clock readings glued to letters, digits, dots or
// colons on either side ("A11:00", "1:00:00:00", "11:00h").
func clockStandsAlone(input string, start, end int) bool {
	if start > 0 {
		r, _ := utf8.DecodeLastRuneInString(input[:start])
		if r == ':' || r == '.' || unicode.IsLetter(r) || unicode.IsDigit(r) {
			return false
		}
	}
	if end < len(input) {
		r, _ := utf8.DecodeRuneInString(input[end:])
		if r == ':' || unicode.IsLetter(r) || unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
