package extractor

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"

	"github.com/vidscribe/transcript/internal/captions"
	"github.com/vidscribe/transcript/internal/config"
	"github.com/vidscribe/transcript/internal/logging"
)

const (
	defaultAPIBaseURL    = "https://www.googleapis.com/youtube/v3"
	defaultTimedTextURL  = "https://www.youtube.com/api/timedtext"
	apiStrategyName      = "youtube-api"
	apiStrategyPriority  = 10
	trackKindASR         = "asr"
	maxResponseBodyBytes = 10 << 20
)

// YouTubeAPIStrategy extracts transcripts through the official Data API
// for video status and caption-track discovery, then pulls the track
// payloads from the public timed-text endpoint. Disabled entirely when
// no API key is configured.
type YouTubeAPIStrategy struct {
	base
	apiKey       string
	apiBaseURL   string
	timedTextURL string
	log          *logging.Logger

	clientOnce sync.Once
	client     *http.Client
}

// NewYouTubeAPIStrategy builds the strategy from configuration
func NewYouTubeAPIStrategy(cfg config.ExtractorConfig, log *logging.Logger) *YouTubeAPIStrategy {
	return &YouTubeAPIStrategy{
		base: newBase(Descriptor{
			Name:     apiStrategyName,
			Timeout:  cfg.DefaultTimeout,
			Enabled:  enabledWhen(cfg.YouTubeAPIKey != ""),
			Priority: apiStrategyPriority,
		}),
		apiKey:       cfg.YouTubeAPIKey,
		apiBaseURL:   defaultAPIBaseURL,
		timedTextURL: defaultTimedTextURL,
		log:          log.WithStrategy(apiStrategyName),
	}
}

// Available reports whether an API credential is configured
func (s *YouTubeAPIStrategy) Available(ctx context.Context) bool {
	return s.Enabled()
}

// httpClient builds the reused client lazily; read-only after first
// construction, safe for concurrent reuse.
func (s *YouTubeAPIStrategy) httpClient() *http.Client {
	s.clientOnce.Do(func() {
		s.client = &http.Client{Timeout: s.Timeout()}
	})
	return s.client
}

// Extract implements the Strategy contract
func (s *YouTubeAPIStrategy) Extract(ctx context.Context, req Request) Outcome {
	req = req.withDefaults()

	ctx, cancel := context.WithTimeout(ctx, s.effectiveTimeout(req))
	defer cancel()

	if outcome, ok := s.checkVideoStatus(ctx, req.VideoID); !ok {
		return outcome
	}

	tracks, outcome, ok := s.listCaptionTracks(ctx, req.VideoID)
	if !ok {
		return outcome
	}
	if len(tracks) == 0 {
		return failed(s.Name(), KindNoCaptions, fmt.Sprintf("no captions available for video %s", req.VideoID))
	}

	sortTracks(tracks, req.Languages)

	for _, track := range tracks {
		data, err := s.fetchTimedText(ctx, req.VideoID, track)
		if err != nil {
			if ctx.Err() == context.DeadlineExceeded {
				return failed(s.Name(), KindTimeout, fmt.Sprintf("timeout fetching captions for video %s", req.VideoID))
			}
			s.log.WithVideoID(req.VideoID).Debugf("Caption fetch for track %s/%s failed: %v", track.Language, track.Kind, err)
			continue
		}

		segments := captions.Deduplicate(captions.ParseTimedText(data))
		if len(segments) == 0 {
			// Empty parse means this track has no usable body; the
			// next candidate may still work.
			continue
		}

		transcript := captions.Transcript(segments, req.Timestamps)
		if transcript == "" {
			continue
		}

		return Outcome{
			Success:    true,
			Transcript: transcript,
			Language:   track.Language,
			Source:     s.Name(),
		}
	}

	return failed(s.Name(), KindNoCaptions, fmt.Sprintf("no caption track yielded a transcript for video %s", req.VideoID))
}

// captionTrack describes one available caption track
type captionTrack struct {
	Language string
	Kind     string // "asr" for auto-generated tracks
	Name     string
}

// videoListResponse maps the subset of videos.list we consume
type videoListResponse struct {
	Items []struct {
		Status struct {
			PrivacyStatus string `json:"privacyStatus"`
			UploadStatus  string `json:"uploadStatus"`
		} `json:"status"`
		Snippet struct {
			LiveBroadcastContent string `json:"liveBroadcastContent"`
		} `json:"snippet"`
		ContentDetails struct {
			Duration string `json:"duration"`
		} `json:"contentDetails"`
	} `json:"items"`
}

// checkVideoStatus rejects videos that can never yield captions. The
// bool result is true when extraction may proceed.
func (s *YouTubeAPIStrategy) checkVideoStatus(ctx context.Context, videoID string) (Outcome, bool) {
	query := url.Values{
		"part": {"status,snippet,contentDetails"},
		"id":   {videoID},
		"key":  {s.apiKey},
	}

	body, err := s.getJSON(ctx, s.apiBaseURL+"/videos?"+query.Encode())
	if err != nil {
		return s.requestFailure(ctx, videoID, "video metadata", err), false
	}

	var resp videoListResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return failed(s.Name(), KindParseError, fmt.Sprintf("failed to parse video metadata for %s", videoID)), false
	}

	if len(resp.Items) == 0 {
		return failed(s.Name(), KindVideoUnavailable, fmt.Sprintf("video %s not found", videoID)), false
	}

	item := resp.Items[0]
	switch {
	case item.Status.PrivacyStatus == "private":
		return failed(s.Name(), KindVideoPrivate, fmt.Sprintf("video %s is private", videoID)), false
	case item.Status.UploadStatus == "rejected" || item.Status.UploadStatus == "failed":
		return failed(s.Name(), KindVideoUnavailable, fmt.Sprintf("video %s upload was %s", videoID, item.Status.UploadStatus)), false
	case item.Snippet.LiveBroadcastContent == "live" || item.Snippet.LiveBroadcastContent == "upcoming":
		return failed(s.Name(), KindVideoLive, fmt.Sprintf("video %s is a %s broadcast", videoID, item.Snippet.LiveBroadcastContent)), false
	case item.ContentDetails.Duration == "P0D":
		// Zero duration marks an ongoing broadcast
		return failed(s.Name(), KindVideoLive, fmt.Sprintf("video %s is an ongoing broadcast", videoID)), false
	}

	return Outcome{}, true
}

// captionListResponse maps the subset of captions.list we consume
type captionListResponse struct {
	Items []struct {
		Snippet struct {
			Language  string `json:"language"`
			TrackKind string `json:"trackKind"`
			Name      string `json:"name"`
		} `json:"snippet"`
	} `json:"items"`
}

func (s *YouTubeAPIStrategy) listCaptionTracks(ctx context.Context, videoID string) ([]captionTrack, Outcome, bool) {
	query := url.Values{
		"part":    {"snippet"},
		"videoId": {videoID},
		"key":     {s.apiKey},
	}

	body, err := s.getJSON(ctx, s.apiBaseURL+"/captions?"+query.Encode())
	if err != nil {
		return nil, s.requestFailure(ctx, videoID, "caption track list", err), false
	}

	var resp captionListResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, failed(s.Name(), KindParseError, fmt.Sprintf("failed to parse caption track list for %s", videoID)), false
	}

	tracks := make([]captionTrack, 0, len(resp.Items))
	for _, item := range resp.Items {
		tracks = append(tracks, captionTrack{
			Language: item.Snippet.Language,
			Kind:     item.Snippet.TrackKind,
			Name:     item.Snippet.Name,
		})
	}

	return tracks, Outcome{}, true
}

func (s *YouTubeAPIStrategy) fetchTimedText(ctx context.Context, videoID string, track captionTrack) ([]byte, error) {
	query := url.Values{
		"v":    {videoID},
		"lang": {track.Language},
	}
	if track.Kind == trackKindASR {
		query.Set("kind", trackKindASR)
	}

	return s.getJSON(ctx, s.timedTextURL+"?"+query.Encode())
}

func (s *YouTubeAPIStrategy) getJSON(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.httpClient().Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodyBytes))
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	return body, nil
}

// requestFailure converts a transport-level error to an Outcome,
// special-casing deadline expiry and quota exhaustion before the
// shared classifier.
func (s *YouTubeAPIStrategy) requestFailure(ctx context.Context, videoID, operation string, err error) Outcome {
	if ctx.Err() == context.DeadlineExceeded {
		return failed(s.Name(), KindTimeout, fmt.Sprintf("timeout fetching %s for video %s", operation, videoID))
	}

	msg := err.Error()
	if kind := Classify(msg); kind != KindUnknown {
		return failed(s.Name(), kind, publicError(msg))
	}

	return failed(s.Name(), KindNetworkError, fmt.Sprintf("network error fetching %s for video %s: %s", operation, videoID, publicError(msg)))
}

// sortTracks orders caption tracks by extraction preference: any track
// matching an earlier entry of the preferred-language list (or the "*"
// wildcard) sorts before any non-matching track; within the same
// language bucket manually created tracks sort before auto-generated
// (ASR) ones; remaining ties keep list order.
func sortTracks(tracks []captionTrack, preferred []string) {
	sort.SliceStable(tracks, func(i, j int) bool {
		pi, pj := languageRank(tracks[i].Language, preferred), languageRank(tracks[j].Language, preferred)
		if pi != pj {
			return pi < pj
		}

		mi, mj := tracks[i].Kind != trackKindASR, tracks[j].Kind != trackKindASR
		if mi != mj {
			return mi
		}

		return false
	})
}

// languageRank returns the index of the first preferred-language entry
// matching lang; entries equal to "*" match anything. Non-matching
// languages rank after every preference.
func languageRank(lang string, preferred []string) int {
	lang = strings.ToLower(lang)
	for i, pref := range preferred {
		pref = strings.ToLower(pref)
		if pref == "*" || pref == lang || strings.HasPrefix(lang, pref+"-") {
			return i
		}
	}
	return len(preferred)
}
