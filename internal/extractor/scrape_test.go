package extractor

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vidscribe/transcript/internal/config"
	"github.com/vidscribe/transcript/internal/logging"
)

func newTestScrapeStrategy(t *testing.T, handler http.HandlerFunc) *TimedTextStrategy {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	s := NewTimedTextStrategy(config.ExtractorConfig{DefaultTimeout: 5 * time.Second}, logging.NewNopLogger())
	s.endpoint = server.URL
	return s
}

func TestTimedTextStrategy_AlwaysEnabled(t *testing.T) {
	s := NewTimedTextStrategy(config.ExtractorConfig{DefaultTimeout: time.Second}, logging.NewNopLogger())

	assert.True(t, s.Enabled())
	assert.True(t, s.Available(context.Background()))
}

func TestTimedTextStrategy_Success(t *testing.T) {
	s := newTestScrapeStrategy(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("lang") == "en" && r.URL.Query().Get("kind") == "" {
			fmt.Fprint(w, sampleTimedText)
			return
		}
		// Other candidates get empty bodies
	})

	outcome := s.Extract(context.Background(), Request{VideoID: testVideoID, Languages: []string{"en"}})

	require.True(t, outcome.Success, "error: %s", outcome.Error)
	assert.Equal(t, "hello world", outcome.Transcript)
	assert.Equal(t, "en", outcome.Language)
	assert.Equal(t, scrapeStrategyName, outcome.Source)
}

func TestTimedTextStrategy_FallsBackToASRVariant(t *testing.T) {
	s := newTestScrapeStrategy(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("kind") == trackKindASR {
			fmt.Fprint(w, sampleTimedText)
		}
	})

	outcome := s.Extract(context.Background(), Request{VideoID: testVideoID, Languages: []string{"en"}})

	require.True(t, outcome.Success)
	assert.Equal(t, "hello world", outcome.Transcript)
}

func TestTimedTextStrategy_Exhaustion(t *testing.T) {
	s := newTestScrapeStrategy(t, func(w http.ResponseWriter, r *http.Request) {
		// The endpoint answers every probe with an empty body
	})

	outcome := s.Extract(context.Background(), Request{VideoID: testVideoID, Languages: []string{"en", "de"}})

	require.False(t, outcome.Success)
	assert.Equal(t, KindNoCaptions, outcome.Kind)
}

func TestTimedTextStrategy_Timeout(t *testing.T) {
	s := newTestScrapeStrategy(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(2 * time.Second)
	})

	start := time.Now()
	outcome := s.Extract(context.Background(), Request{VideoID: testVideoID, Timeout: 50 * time.Millisecond})
	elapsed := time.Since(start)

	require.False(t, outcome.Success)
	assert.Equal(t, KindTimeout, outcome.Kind)
	assert.Less(t, elapsed, time.Second)
}

func TestLanguageCandidates(t *testing.T) {
	tests := []struct {
		name      string
		preferred []string
		expected  []langCandidate
	}{
		{
			"single language expands to manual and asr",
			[]string{"en"},
			[]langCandidate{{"en", false}, {"en", true}},
		},
		{
			"wildcard becomes english",
			[]string{"*"},
			[]langCandidate{{"en", false}, {"en", true}},
		},
		{
			"duplicates collapse",
			[]string{"en", "*", "en"},
			[]langCandidate{{"en", false}, {"en", true}},
		},
		{
			"order preserved",
			[]string{"de", "en"},
			[]langCandidate{{"de", false}, {"de", true}, {"en", false}, {"en", true}},
		},
		{
			"empty falls back to english",
			nil,
			[]langCandidate{{"en", false}, {"en", true}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, languageCandidates(tt.preferred))
		})
	}
}
