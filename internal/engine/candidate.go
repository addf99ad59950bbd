package engine

// candidate is a recognizer hit waiting for tie-break. Lower priority wins
// when two hits start at the same offset and have the same length.
type candidate[T any] struct {
	span     Span
	priority int
	token    T
}

// better reports whether a should be preferred over b: earliest start first,
// then the longer match, then the lower priority.
func better[T any](a, b candidate[T]) bool {
	if a.span.Start != b.span.Start {
		return a.span.Start < b.span.Start
	}
	if a.span.Len() != b.span.Len() {
		return a.span.Len() > b.span.Len()
	}
	return a.priority < b.priority
}

// pick applies the shared tie-break to every candidate. Ties that survive all
// three rules keep the first candidate in slice order.
func pick[T any](cands []candidate[T]) (candidate[T], bool) {
	if len(cands) == 0 {
		return candidate[T]{}, false
	}
	best := cands[0]
	for _, c := range cands[1:] {
		if better(c, best) {
			best = c
		}
	}
	return best, true
}

// overlapsAny reports whether s overlaps one of the excluded spans.
func overlapsAny(s Span, excluded []Span) bool {
	for _, ex := range excluded {
		if s.Overlaps(ex) {
			return true
		}
	}
	return false
}
