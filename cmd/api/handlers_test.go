package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vidscribe/transcript/internal/cache"
	"github.com/vidscribe/transcript/internal/config"
	"github.com/vidscribe/transcript/internal/extractor"
	"github.com/vidscribe/transcript/internal/logging"
	"github.com/vidscribe/transcript/internal/middleware"
	"github.com/vidscribe/transcript/pkg/models"
)

const testVideoID = "dQw4w9WgXcQ"

// stubStrategy returns a fixed outcome for every extraction and
// remembers the last request it was handed
type stubStrategy struct {
	name    string
	outcome extractor.Outcome
	lastReq extractor.Request
}

func (s *stubStrategy) Name() string                   { return s.name }
func (s *stubStrategy) Priority() int                  { return 10 }
func (s *stubStrategy) Enabled() bool                  { return true }
func (s *stubStrategy) Timeout() time.Duration         { return time.Second }
func (s *stubStrategy) Available(context.Context) bool { return true }
func (s *stubStrategy) Extract(_ context.Context, req extractor.Request) extractor.Outcome {
	s.lastReq = req
	return s.outcome
}

func setupTestAPI(t *testing.T, outcome extractor.Outcome) (*stubStrategy, *gin.Engine) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mr := miniredis.RunT(t)
	port, err := strconv.Atoi(mr.Port())
	require.NoError(t, err)

	c, err := cache.NewCache(mr.Host(), port, "", 0)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })

	log := logging.NewNopLogger()
	stub := &stubStrategy{name: "stub", outcome: outcome}
	engine := extractor.NewEngine(log, stub)

	api := &API{
		engine: engine,
		cache:  c,
		log:    log,
		cfg: &config.Config{
			Extractor: config.ExtractorConfig{
				Languages:    []string{"en", "*"},
				ProbeTimeout: time.Second,
			},
			Redis: config.RedisConfig{CacheTTL: time.Hour},
		},
		rateLimiter: middleware.NewRateLimiter(100, 100),
	}

	router := gin.New()
	router.POST("/api/v1/transcripts", api.extractTranscript)
	router.POST("/api/v1/jobs", api.createJob)
	router.GET("/api/v1/strategies", api.listStrategies)

	return stub, router
}

func postJSON(router *gin.Engine, path string, body any) *httptest.ResponseRecorder {
	data, _ := json.Marshal(body)
	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	return w
}

func TestExtractTranscriptSuccess(t *testing.T) {
	_, router := setupTestAPI(t, extractor.Outcome{
		Success:    true,
		Transcript: "hello world",
		Language:   "en",
		Source:     "stub",
	})

	w := postJSON(router, "/api/v1/transcripts", map[string]any{"video_id": testVideoID})

	assert.Equal(t, http.StatusOK, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "hello world", resp["transcript"])
	assert.Equal(t, "en", resp["language"])
	assert.Equal(t, false, resp["cached"])
}

func TestExtractTranscriptServedFromCache(t *testing.T) {
	_, router := setupTestAPI(t, extractor.Outcome{
		Success:    true,
		Transcript: "hello world",
		Language:   "en",
		Source:     "stub",
	})

	first := postJSON(router, "/api/v1/transcripts", map[string]any{"video_id": testVideoID})
	require.Equal(t, http.StatusOK, first.Code)

	second := postJSON(router, "/api/v1/transcripts", map[string]any{"video_id": testVideoID})
	require.Equal(t, http.StatusOK, second.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(second.Body.Bytes(), &resp))
	assert.Equal(t, true, resp["cached"])
	assert.Equal(t, "hello world", resp["transcript"])
}

func TestExtractTranscriptTimestampsDefaultTrue(t *testing.T) {
	stub, router := setupTestAPI(t, extractor.Outcome{
		Success:    true,
		Transcript: "[00:00:01] hello",
		Language:   "en",
		Source:     "stub",
	})

	w := postJSON(router, "/api/v1/transcripts", map[string]any{"video_id": testVideoID})

	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, stub.lastReq.Timestamps)
}

func TestExtractTranscriptTimestampsExplicitFalse(t *testing.T) {
	stub, router := setupTestAPI(t, extractor.Outcome{
		Success:    true,
		Transcript: "hello",
		Language:   "en",
		Source:     "stub",
	})

	w := postJSON(router, "/api/v1/transcripts", map[string]any{
		"video_id":   testVideoID,
		"timestamps": false,
	})

	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, stub.lastReq.Timestamps)
}

func TestIncludeTimestamps(t *testing.T) {
	on := true
	off := false

	assert.True(t, includeTimestamps(models.ExtractRequest{}))
	assert.True(t, includeTimestamps(models.ExtractRequest{Timestamps: &on}))
	assert.False(t, includeTimestamps(models.ExtractRequest{Timestamps: &off}))
}

func TestExtractTranscriptMissingVideoID(t *testing.T) {
	_, router := setupTestAPI(t, extractor.Outcome{Success: true})

	w := postJSON(router, "/api/v1/transcripts", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestExtractTranscriptInvalidVideoID(t *testing.T) {
	_, router := setupTestAPI(t, extractor.Outcome{Success: true})

	w := postJSON(router, "/api/v1/transcripts", map[string]any{"video_id": "too-short"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestExtractTranscriptFailureStatusMapping(t *testing.T) {
	tests := []struct {
		kind   extractor.ErrorKind
		status int
	}{
		{extractor.KindVideoUnavailable, http.StatusNotFound},
		{extractor.KindNoCaptions, http.StatusNotFound},
		{extractor.KindVideoPrivate, http.StatusForbidden},
		{extractor.KindAgeRestricted, http.StatusForbidden},
		{extractor.KindVideoLive, http.StatusConflict},
		{extractor.KindRateLimited, http.StatusTooManyRequests},
		{extractor.KindTimeout, http.StatusGatewayTimeout},
		{extractor.KindNetworkError, http.StatusBadGateway},
		{extractor.KindUnknown, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			_, router := setupTestAPI(t, extractor.Outcome{
				Success: false,
				Error:   "extraction failed",
				Kind:    tt.kind,
				Source:  "stub",
			})

			w := postJSON(router, "/api/v1/transcripts", map[string]any{"video_id": testVideoID})
			assert.Equal(t, tt.status, w.Code)

			var resp map[string]any
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, string(tt.kind), resp["error_type"])
		})
	}
}

func TestListStrategies(t *testing.T) {
	_, router := setupTestAPI(t, extractor.Outcome{Success: true})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/v1/strategies", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Strategies []struct {
			Name      string `json:"name"`
			Priority  int    `json:"priority"`
			Enabled   bool   `json:"enabled"`
			Available bool   `json:"available"`
		} `json:"strategies"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Strategies, 1)
	assert.Equal(t, "stub", resp.Strategies[0].Name)
	assert.Equal(t, 10, resp.Strategies[0].Priority)
	assert.True(t, resp.Strategies[0].Enabled)
	assert.True(t, resp.Strategies[0].Available)
}

func TestCreateJobInvalidVideoID(t *testing.T) {
	_, router := setupTestAPI(t, extractor.Outcome{Success: true})

	w := postJSON(router, "/api/v1/jobs", map[string]any{"video_id": "bad"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStatusForKind(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, statusForKind(extractor.KindParseError))
	assert.Equal(t, http.StatusInternalServerError, statusForKind(extractor.KindPOTokenError))
}
