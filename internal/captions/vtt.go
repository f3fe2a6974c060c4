package captions

import (
	"bufio"
	"bytes"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	// Cue timing line: "00:00:01.000 --> 00:00:04.000 align:start position:0%"
	vttTimingRe = regexp.MustCompile(`^((?:\d{1,2}:)?\d{1,2}:\d{2}[.,]\d{1,3})\s+-->\s+((?:\d{1,2}:)?\d{1,2}:\d{2}[.,]\d{1,3})`)

	// Inline styling such as <c>, </c.colorCCCCCC> and word-level
	// timestamps such as <00:00:01.319>
	vttTagRe = regexp.MustCompile(`<[^>]*>`)
)

// ParseVTT parses WebVTT caption data into segments. Cue identifiers,
// NOTE/STYLE blocks, cue-settings suffixes and styling tags are ignored.
// Malformed input yields an empty slice, never an error.
func ParseVTT(data []byte) []Segment {
	var segments []Segment

	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var current *Segment
	inNote := false

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if line == "" {
			if current != nil && current.Text != "" {
				segments = append(segments, *current)
			}
			current = nil
			inNote = false
			continue
		}

		if current == nil {
			if strings.HasPrefix(line, "NOTE") || strings.HasPrefix(line, "STYLE") || strings.HasPrefix(line, "REGION") {
				inNote = true
				continue
			}
			if inNote {
				continue
			}
		}

		if m := vttTimingRe.FindStringSubmatch(line); m != nil {
			start, okStart := parseVTTTimestamp(m[1])
			end, okEnd := parseVTTTimestamp(m[2])
			if !okStart || !okEnd {
				current = nil
				continue
			}
			current = &Segment{Start: start, End: end}
			continue
		}

		if current != nil {
			text := strings.TrimSpace(vttTagRe.ReplaceAllString(line, ""))
			if text == "" {
				continue
			}
			if current.Text != "" {
				current.Text += " " + text
			} else {
				current.Text = text
			}
		}
	}

	if current != nil && current.Text != "" {
		segments = append(segments, *current)
	}

	return segments
}

// parseVTTTimestamp parses "HH:MM:SS.mmm" or "MM:SS.mmm", tolerating
// "," as the decimal separator.
func parseVTTTimestamp(s string) (time.Duration, bool) {
	s = strings.ReplaceAll(s, ",", ".")

	var secPart string
	parts := strings.Split(s, ":")

	var hours, minutes int
	var err error

	switch len(parts) {
	case 3:
		if hours, err = strconv.Atoi(parts[0]); err != nil {
			return 0, false
		}
		if minutes, err = strconv.Atoi(parts[1]); err != nil {
			return 0, false
		}
		secPart = parts[2]
	case 2:
		if minutes, err = strconv.Atoi(parts[0]); err != nil {
			return 0, false
		}
		secPart = parts[1]
	default:
		return 0, false
	}

	seconds, err := strconv.ParseFloat(secPart, 64)
	if err != nil {
		return 0, false
	}

	total := time.Duration(hours)*time.Hour +
		time.Duration(minutes)*time.Minute +
		time.Duration(seconds*float64(time.Second))

	return total, true
}
