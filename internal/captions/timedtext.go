package captions

import (
	"encoding/xml"
	"html"
	"strconv"
	"strings"
	"time"
)

// timedTextDocument maps the platform's timed-text XML format:
// <transcript><text start="1.2" dur="3.4">line</text></transcript>
type timedTextDocument struct {
	XMLName xml.Name        `xml:"transcript"`
	Texts   []timedTextNode `xml:"text"`
}

type timedTextNode struct {
	Start string `xml:"start,attr"`
	Dur   string `xml:"dur,attr"`
	Body  string `xml:",chardata"`
}

// ParseTimedText parses timed-text XML caption data into segments.
// Malformed documents and documents without a caption body yield an
// empty slice, never an error; callers treat empty as "no usable
// captions" and move on to the next candidate.
func ParseTimedText(data []byte) []Segment {
	var doc timedTextDocument
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil
	}

	segments := make([]Segment, 0, len(doc.Texts))
	for _, node := range doc.Texts {
		text := strings.TrimSpace(html.UnescapeString(node.Body))
		if text == "" {
			continue
		}

		start, err := strconv.ParseFloat(node.Start, 64)
		if err != nil {
			continue
		}

		// Missing dur attributes happen on the last element of some tracks
		dur, err := strconv.ParseFloat(node.Dur, 64)
		if err != nil || dur < 0 {
			dur = 0
		}

		startD := time.Duration(start * float64(time.Second))
		segments = append(segments, Segment{
			Start: startD,
			End:   startD + time.Duration(dur*float64(time.Second)),
			Text:  text,
		})
	}

	return segments
}
