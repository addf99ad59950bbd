package engine

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Location marker priorities for the shared tie-break.
const (
	markerAt = iota
	markerWord
	markerComma
)

var locationMarkerPattern = regexp.MustCompile(`(?i)(?:(@)|\bat\b)\s+`)

// clauseBoundaries end a location capture. End of text, and the start of a
// date or time span, also end it.
const clauseBoundaries = ",;!?()\n\r"

// Characters trimmed from the tail of a captured location.
const locationTailCutset = " \t.-–—"

// SelectLocation finds a location introduced by "@", the word "at", or a
// comma directly following one of the excluded (date/time) spans. Markers
// inside excluded spans are ignored and captures never extend into them.
func SelectLocation(input string, excluded ...Span) (LocationToken, bool) {
	var cands []candidate[string]

	for _, m := range locationMarkerPattern.FindAllStringSubmatchIndex(input, -1) {
		priority := markerWord
		if m[2] >= 0 {
			priority = markerAt
		}
		if c, ok := captureLocation(input, Span{Start: m[0], End: m[1]}, priority, excluded); ok {
			cands = append(cands, c)
		}
	}

	for _, ex := range excluded {
		if ex.IsZero() {
			continue
		}
		comma, ok := commaAfter(input, ex.End)
		if !ok {
			continue
		}
		end := comma + 1
		for end < len(input) {
			r, size := utf8.DecodeRuneInString(input[end:])
			if !unicode.IsSpace(r) {
				break
			}
			end += size
		}
		// ", @ Cafe" is introduced by the explicit marker, not the comma.
		if m := locationMarkerPattern.FindStringIndex(input[end:]); m != nil && m[0] == 0 {
			continue
		}
		if c, ok := captureLocation(input, Span{Start: comma, End: end}, markerComma, excluded); ok {
			cands = append(cands, c)
		}
	}

	c, ok := pick(cands)
	if !ok {
		return LocationToken{}, false
	}
	return LocationToken{Span: c.span, Text: c.token}, true
}

// captureLocation reads the location value after marker up to the next
// clause boundary or excluded span. An empty value is not a match.
func captureLocation(input string, marker Span, priority int, excluded []Span) (candidate[string], bool) {
	if overlapsAny(marker, excluded) {
		return candidate[string]{}, false
	}

	end := len(input)
	if i := strings.IndexAny(input[marker.End:], clauseBoundaries); i >= 0 {
		end = marker.End + i
	}
	for _, ex := range excluded {
		if ex.Start >= marker.End && ex.Start < end {
			end = ex.Start
		}
	}

	value := strings.TrimRight(input[marker.End:end], locationTailCutset)
	if strings.TrimSpace(value) == "" {
		return candidate[string]{}, false
	}

	return candidate[string]{
		span:     Span{Start: marker.Start, End: marker.End + len(value)},
		priority: priority,
		token:    strings.Clone(value),
	}, true
}

// commaAfter returns the index of a comma that follows pos after optional
// whitespace.
func commaAfter(input string, pos int) (int, bool) {
	for pos < len(input) {
		r, size := utf8.DecodeRuneInString(input[pos:])
		switch {
		case r == ',':
			return pos, true
		case unicode.IsSpace(r):
			pos += size
		default:
			return 0, false
		}
	}
	return 0, false
}
