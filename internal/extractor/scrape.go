package extractor

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"

	"github.com/vidscribe/transcript/internal/captions"
	"github.com/vidscribe/transcript/internal/config"
	"github.com/vidscribe/transcript/internal/logging"
)

const (
	scrapeStrategyName     = "timedtext-scrape"
	scrapeStrategyPriority = 20
)

// TimedTextStrategy probes the public timed-text endpoint directly,
// without any credential or track discovery. Cheap but unreliable: the
// endpoint silently returns an empty body for most videos, so this
// backend sits between the official API and yt-dlp in the fallback
// order.
type TimedTextStrategy struct {
	base
	endpoint string
	log      *logging.Logger

	clientOnce sync.Once
	client     *http.Client
}

// NewTimedTextStrategy builds the strategy from configuration
func NewTimedTextStrategy(cfg config.ExtractorConfig, log *logging.Logger) *TimedTextStrategy {
	return &TimedTextStrategy{
		base: newBase(Descriptor{
			Name:     scrapeStrategyName,
			Timeout:  cfg.DefaultTimeout,
			Priority: scrapeStrategyPriority,
		}),
		endpoint: defaultTimedTextURL,
		log:      log.WithStrategy(scrapeStrategyName),
	}
}

// Available always reports true; the endpoint needs no credential
func (s *TimedTextStrategy) Available(ctx context.Context) bool {
	return true
}

func (s *TimedTextStrategy) httpClient() *http.Client {
	s.clientOnce.Do(func() {
		s.client = &http.Client{Timeout: s.Timeout()}
	})
	return s.client
}

// Extract tries each language candidate against the endpoint, manual
// track first, then the auto-generated variant, stopping at the first
// non-empty transcript.
func (s *TimedTextStrategy) Extract(ctx context.Context, req Request) Outcome {
	req = req.withDefaults()

	ctx, cancel := context.WithTimeout(ctx, s.effectiveTimeout(req))
	defer cancel()

	for _, candidate := range languageCandidates(req.Languages) {
		data, err := s.fetch(ctx, req.VideoID, candidate.lang, candidate.asr)
		if err != nil {
			if ctx.Err() == context.DeadlineExceeded {
				return failed(s.Name(), KindTimeout, fmt.Sprintf("timeout fetching captions for video %s", req.VideoID))
			}
			continue
		}

		segments := captions.Deduplicate(captions.ParseTimedText(data))
		if len(segments) == 0 {
			continue
		}

		transcript := captions.Transcript(segments, req.Timestamps)
		if transcript == "" {
			continue
		}

		return Outcome{
			Success:    true,
			Transcript: transcript,
			Language:   candidate.lang,
			Source:     s.Name(),
		}
	}

	return failed(s.Name(), KindNoCaptions, fmt.Sprintf("no captions found for video %s on the timed-text endpoint", req.VideoID))
}

type langCandidate struct {
	lang string
	asr  bool
}

// languageCandidates expands preferred languages into concrete probe
// targets: each language as a manual track then as an ASR track. The
// wildcard cannot be probed directly, so it expands to English.
func languageCandidates(preferred []string) []langCandidate {
	seen := make(map[string]bool)
	var out []langCandidate

	add := func(lang string) {
		if lang == "" || seen[lang] {
			return
		}
		seen[lang] = true
		out = append(out, langCandidate{lang: lang, asr: false}, langCandidate{lang: lang, asr: true})
	}

	for _, lang := range preferred {
		if lang == "*" {
			add("en")
			continue
		}
		add(lang)
	}

	if len(out) == 0 {
		add("en")
	}

	return out
}

func (s *TimedTextStrategy) fetch(ctx context.Context, videoID, lang string, asr bool) ([]byte, error) {
	query := url.Values{
		"v":    {videoID},
		"lang": {lang},
	}
	if asr {
		query.Set("kind", trackKindASR)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.endpoint+"?"+query.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.httpClient().Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}

	return io.ReadAll(io.LimitReader(resp.Body, maxResponseBodyBytes))
}
