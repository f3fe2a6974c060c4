package captions

import (
	"fmt"
	"strings"
	"time"
)

// Segment represents a single timed caption unit
type Segment struct {
	Start time.Duration
	End   time.Duration
	Text  string
}

// Transcript joins segments into transcript text. When timestamps is true,
// each line is prefixed with the segment start time formatted HH:MM:SS.
func Transcript(segments []Segment, timestamps bool) string {
	if len(segments) == 0 {
		return ""
	}

	lines := make([]string, 0, len(segments))
	for _, seg := range segments {
		text := strings.TrimSpace(seg.Text)
		if text == "" {
			continue
		}

		if timestamps {
			lines = append(lines, fmt.Sprintf("[%s] %s", FormatTimestamp(seg.Start), text))
		} else {
			lines = append(lines, text)
		}
	}

	return strings.Join(lines, "\n")
}

// FormatTimestamp formats a duration as HH:MM:SS
func FormatTimestamp(d time.Duration) string {
	if d < 0 {
		d = 0
	}

	total := int(d.Seconds())
	hours := total / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60

	return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
}
