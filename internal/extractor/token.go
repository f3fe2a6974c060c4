package extractor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/vidscribe/transcript/internal/metrics"
)

// TokenRequest identifies a proof-of-origin token request
type TokenRequest struct {
	VideoID       string `json:"video_id"`
	CorrelationID string `json:"correlation_id"`
	Client        string `json:"client"`
	Context       string `json:"context"`
}

// TokenResult is the provider's answer. Degraded=true means "continue
// without the token on a fallback code path", never "abort".
type TokenResult struct {
	Success       bool
	ExtractorArgs string
	Metadata      map[string]string
	Error         string
	Degraded      bool
}

// TokenProvider supplies short-lived proof-of-origin tokens for the
// caption endpoints that demand them. Implementations never return a
// Go error; all failures are expressed as degraded results so the
// consuming strategy can fall back instead of aborting.
type TokenProvider interface {
	GetToken(ctx context.Context, req TokenRequest) TokenResult
}

const tokenRequestTimeout = 10 * time.Second

// HTTPTokenProvider fetches tokens from an external provider service
// over HTTP. The provider is a shared singleton; it serializes or
// caches issuance internally.
type HTTPTokenProvider struct {
	url    string
	client *http.Client
}

// NewHTTPTokenProvider creates a provider for the given endpoint URL
func NewHTTPTokenProvider(url string) *HTTPTokenProvider {
	return &HTTPTokenProvider{
		url:    url,
		client: &http.Client{Timeout: tokenRequestTimeout},
	}
}

type tokenResponse struct {
	ExtractorArgs string            `json:"extractor_args"`
	Metadata      map[string]string `json:"metadata"`
}

// GetToken requests a token for the given video. Every failure mode
// degrades instead of erroring.
func (p *HTTPTokenProvider) GetToken(ctx context.Context, req TokenRequest) TokenResult {
	body, err := json.Marshal(req)
	if err != nil {
		return degradedToken(fmt.Sprintf("failed to encode token request: %v", err))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(body))
	if err != nil {
		return degradedToken(fmt.Sprintf("failed to build token request: %v", err))
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return degradedToken(fmt.Sprintf("token provider unreachable: %v", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return degradedToken(fmt.Sprintf("token provider returned status %d", resp.StatusCode))
	}

	var tr tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return degradedToken(fmt.Sprintf("failed to decode token response: %v", err))
	}

	if tr.ExtractorArgs == "" {
		return degradedToken("token provider returned no extractor args")
	}

	metrics.TokenRequestsTotal.WithLabelValues("success").Inc()
	return TokenResult{
		Success:       true,
		ExtractorArgs: tr.ExtractorArgs,
		Metadata:      tr.Metadata,
	}
}

func degradedToken(message string) TokenResult {
	metrics.TokenRequestsTotal.WithLabelValues("degraded").Inc()
	return TokenResult{
		Success:  false,
		Error:    message,
		Degraded: true,
	}
}
