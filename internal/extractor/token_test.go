package extractor

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPTokenProvider_Success(t *testing.T) {
	var received TokenRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		fmt.Fprint(w, `{"extractor_args":"youtube:po_token=web+abc123","metadata":{"client":"web"}}`)
	}))
	t.Cleanup(server.Close)

	provider := NewHTTPTokenProvider(server.URL)
	result := provider.GetToken(context.Background(), TokenRequest{
		VideoID:       testVideoID,
		CorrelationID: "corr-1",
		Client:        "web",
		Context:       "subtitles",
	})

	require.True(t, result.Success)
	assert.False(t, result.Degraded)
	assert.Equal(t, "youtube:po_token=web+abc123", result.ExtractorArgs)
	assert.Equal(t, "web", result.Metadata["client"])
	assert.Equal(t, testVideoID, received.VideoID)
}

func TestHTTPTokenProvider_DegradesOnServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(server.Close)

	provider := NewHTTPTokenProvider(server.URL)
	result := provider.GetToken(context.Background(), TokenRequest{VideoID: testVideoID})

	assert.False(t, result.Success)
	assert.True(t, result.Degraded, "server errors must degrade, not abort")
	assert.NotEmpty(t, result.Error)
}

func TestHTTPTokenProvider_DegradesWhenUnreachable(t *testing.T) {
	provider := NewHTTPTokenProvider("http://127.0.0.1:1/tokens")
	result := provider.GetToken(context.Background(), TokenRequest{VideoID: testVideoID})

	assert.False(t, result.Success)
	assert.True(t, result.Degraded)
}

func TestHTTPTokenProvider_DegradesOnMalformedResponse(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", "plain text"},
		{"missing extractor args", `{"metadata":{}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, tt.body)
			}))
			t.Cleanup(server.Close)

			provider := NewHTTPTokenProvider(server.URL)
			result := provider.GetToken(context.Background(), TokenRequest{VideoID: testVideoID})

			assert.False(t, result.Success)
			assert.True(t, result.Degraded)
		})
	}
}
