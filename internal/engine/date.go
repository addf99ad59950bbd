package engine

import (
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// Day-first numeric dates: "18.11.", "18.11.2024" and "18.11.24", optionally
// "on 18.11.".
var absoluteDatePattern = regexp.MustCompile(`(?i)(?:\bon\s+)?(\d{1,2})\.(\d{1,2})\.(\d{4}|\d{2})?`)

// Two-digit years are read in this century.
const twoDigitYearBase = 2000

// Relative day vocabulary. Longer phrases overlap shorter ones ("day after
// tomorrow" contains "tomorrow"); the earliest-start rule settles it.
var relativeDayPatterns = []struct {
	pattern *regexp.Regexp
	offset  int
}{
	{regexp.MustCompile(`(?i)\b(?:the\s+)?day\s+after\s+tomorrow\b`), 2},
	{regexp.MustCompile(`(?i)\b(?:the\s+)?day\s+before\s+yesterday\b`), -2},
	{regexp.MustCompile(`(?i)\btomorrow\b`), 1},
	{regexp.MustCompile(`(?i)\b(?:today|tonight)\b`), 0},
	{regexp.MustCompile(`(?i)\byesterday\b`), -1},
}

var weekdayPattern = regexp.MustCompile(`(?i)\b(?:on\s+)?(?:(next|this)\s+)?(monday|tuesday|wednesday|thursday|friday|saturday|sunday)\b`)

// weekdayByName matches name against the English weekday names using the
// same Unicode case folding as the (?i) patterns, so "tueſday" is Tuesday.
func weekdayByName(name string) (time.Weekday, bool) {
	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		if strings.EqualFold(name, wd.String()) {
			return wd, true
		}
	}
	return 0, false
}

// RecognizeDates returns every date candidate found in input, in no
// particular order. It never fails: text without dates yields nil.
func RecognizeDates(input string) []DateMatch {
	cands := dateCandidates(input)
	out := make([]DateMatch, 0, len(cands))
	for _, c := range cands {
		out = append(out, DateMatch{Span: c.span, Token: c.token})
	}
	return out
}

// SelectDate returns the preferred date candidate: earliest start, then
// longest, then absolute over relative over weekday.
func SelectDate(input string) (DateMatch, bool) {
	c, ok := pick(dateCandidates(input))
	if !ok {
		return DateMatch{}, false
	}
	return DateMatch{Span: c.span, Token: c.token}, true
}

func dateCandidates(input string) []candidate[DateToken] {
	var cands []candidate[DateToken]
	cands = append(cands, absoluteDateCandidates(input)...)
	cands = append(cands, relativeDayCandidates(input)...)
	cands = append(cands, weekdayCandidates(input)...)
	return cands
}

func absoluteDateCandidates(input string) []candidate[DateToken] {
	var cands []candidate[DateToken]
	for _, m := range absoluteDatePattern.FindAllStringSubmatchIndex(input, -1) {
		// m[2] is where the day digits start; the optional "on " precedes it.
		if !standsAlone(input, m[2], m[1]) {
			continue
		}
		day, _ := strconv.Atoi(input[m[2]:m[3]])
		month, _ := strconv.Atoi(input[m[4]:m[5]])
		if day < 1 || day > 31 || month < 1 || month > 12 {
			continue
		}
		tok := AbsoluteDate{Day: day, Month: time.Month(month)}
		if m[6] >= 0 {
			tok.Year, _ = strconv.Atoi(input[m[6]:m[7]])
			if m[7]-m[6] == 2 {
				tok.Year += twoDigitYearBase
			}
			tok.HasYear = true
		}
		cands = append(cands, candidate[DateToken]{
			span:     Span{Start: m[0], End: m[1]},
			priority: int(DateKindAbsolute),
			token:    tok,
		})
	}
	return cands
}

func relativeDayCandidates(input string) []candidate[DateToken] {
	var cands []candidate[DateToken]
	for _, rel := range relativeDayPatterns {
		for _, m := range rel.pattern.FindAllStringIndex(input, -1) {
			cands = append(cands, candidate[DateToken]{
				span:     Span{Start: m[0], End: m[1]},
				priority: int(DateKindRelative),
				token:    RelativeDay{Offset: rel.offset},
			})
		}
	}
	return cands
}

func weekdayCandidates(input string) []candidate[DateToken] {
	var cands []candidate[DateToken]
	for _, m := range weekdayPattern.FindAllStringSubmatchIndex(input, -1) {
		wd, ok := weekdayByName(input[m[4]:m[5]])
		if !ok {
			continue
		}
		tok := NamedWeekday{Weekday: wd}
		if m[2] >= 0 {
			tok.Next = strings.EqualFold(input[m[2]:m[3]], "next")
		}
		cands = append(cands, candidate[DateToken]{
			span:     Span{Start: m[0], End: m[1]},
			priority: int(DateKindWeekday),
			token:    tok,
		})
	}
	return cands
}

// standsAlone reports whether input[start:end] is not glued to surrounding
// letters, digits or dots, so "118.11." and "v1.2.3" are not dates.
func standsAlone(input string, start, end int) bool {
	if start > 0 {
		r, _ := utf8.DecodeLastRuneInString(input[:start])
		if r == '.' || unicode.IsLetter(r) || unicode.IsDigit(r) {
			return false
		}
	}
	if end < len(input) {
		r, _ := utf8.DecodeRuneInString(input[end:])
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
