package captions

import "strings"

// minCharOverlap is the shortest suffix/prefix run treated as a
// rolling-caption continuation rather than coincidence.
const minCharOverlap = 8

// Deduplicate collapses overlapping consecutive segments. Rolling
// caption streams resend the previous line plus one new line, so two
// neighbours frequently share a prefix or a long suffix/prefix run.
// Merged segments span the union of both time ranges and keep the
// longer (or joined) text. The operation is idempotent.
func Deduplicate(segments []Segment) []Segment {
	if len(segments) < 2 {
		return segments
	}

	out := make([]Segment, 0, len(segments))
	out = append(out, segments[0])

	for _, next := range segments[1:] {
		last := &out[len(out)-1]
		if merged, ok := mergeOverlap(*last, next); ok {
			*last = merged
		} else {
			out = append(out, next)
		}
	}

	return out
}

func mergeOverlap(a, b Segment) (Segment, bool) {
	aText := strings.TrimSpace(a.Text)
	bText := strings.TrimSpace(b.Text)

	merged := Segment{Start: a.Start, End: b.End}
	if b.Start < a.Start {
		merged.Start = b.Start
	}
	if a.End > b.End {
		merged.End = a.End
	}

	switch {
	case aText == bText:
		merged.Text = aText
	case strings.HasPrefix(bText, aText):
		merged.Text = bText
	case strings.HasPrefix(aText, bText):
		merged.Text = aText
	default:
		overlap := suffixPrefixOverlap(aText, bText)
		if overlap < minCharOverlap {
			return Segment{}, false
		}
		merged.Text = aText + bText[overlap:]
	}

	return merged, true
}

// suffixPrefixOverlap returns the length of the longest suffix of a
// that is also a prefix of b.
func suffixPrefixOverlap(a, b string) int {
	max := len(a)
	if len(b) < max {
		max = len(b)
	}

	for n := max; n > 0; n-- {
		if a[len(a)-n:] == b[:n] {
			return n
		}
	}

	return 0
}
