package extractor

import "strings"

// ErrorKind is the flat failure taxonomy shared across all strategies
type ErrorKind string

const (
	KindVideoUnavailable ErrorKind = "VIDEO_UNAVAILABLE"
	KindVideoPrivate     ErrorKind = "VIDEO_PRIVATE"
	KindVideoLive        ErrorKind = "VIDEO_LIVE"
	KindAgeRestricted    ErrorKind = "AGE_RESTRICTED"
	KindNoCaptions       ErrorKind = "NO_CAPTIONS"
	KindRateLimited      ErrorKind = "RATE_LIMITED"
	KindTimeout          ErrorKind = "TIMEOUT"
	KindNetworkError     ErrorKind = "NETWORK_ERROR"
	KindParseError       ErrorKind = "PARSE_ERROR"
	KindPOTokenError     ErrorKind = "PO_TOKEN_ERROR"
	KindUnknown          ErrorKind = "UNKNOWN"
)

// parserSignatures are object-model signatures of the underlying
// scraping libraries. When one of these shows up the library no longer
// matches the page structure, so the failure must short-circuit to the
// next strategy instead of being retried.
var parserSignatures = []string{
	"cannot read propert",
	"undefined is not",
	"is not a function",
	"captiontracks",
	"playerresponse",
	"playabilitystatus",
}

// classifyRule maps message substrings to an error kind. Rules are
// evaluated in order; the first match wins.
type classifyRule struct {
	kind    ErrorKind
	matches []string
}

var classifyRules = []classifyRule{
	{KindVideoLive, []string{"live", "upcoming"}},
	{KindVideoPrivate, []string{"private"}},
	{KindVideoUnavailable, []string{"unavailable", "deleted"}},
	{KindAgeRestricted, []string{"age", "sign in"}},
	{KindNoCaptions, []string{"no transcript", "no captions"}},
	{KindRateLimited, []string{"rate limit", "quota"}},
	{KindTimeout, []string{"timeout"}},
	{KindNetworkError, []string{"network", "fetch"}},
	{KindParseError, []string{"parse", "parser"}},
}

// Classify maps a free-text diagnostic message to an ErrorKind. Pure
// function; case-insensitive substring matching in a fixed priority
// order so every strategy reports consistent semantics.
func Classify(message string) ErrorKind {
	msg := strings.ToLower(message)

	for _, sig := range parserSignatures {
		if strings.Contains(msg, sig) {
			return KindParseError
		}
	}

	for _, rule := range classifyRules {
		for _, m := range rule.matches {
			if strings.Contains(msg, m) {
				return rule.kind
			}
		}
	}

	return KindUnknown
}

// terminalKinds are properties of the video itself rather than of any
// one strategy; they dominate when choosing the aggregate failure.
var terminalKinds = map[ErrorKind]bool{
	KindVideoPrivate:     true,
	KindVideoUnavailable: true,
	KindVideoLive:        true,
	KindAgeRestricted:    true,
}

// Retryable reports whether a failure kind is transient and worth
// attempting again later. Terminal video states and structural parse
// failures never clear up on their own.
func Retryable(kind ErrorKind) bool {
	switch kind {
	case KindRateLimited, KindTimeout, KindNetworkError:
		return true
	}
	return false
}

// specificity ranks failure kinds for aggregate reporting. Lower is
// more informative.
func specificity(kind ErrorKind) int {
	switch {
	case terminalKinds[kind]:
		return 0
	case kind == KindNoCaptions:
		return 1
	case kind == KindUnknown:
		return 3
	default:
		return 2
	}
}
