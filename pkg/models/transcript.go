package models

import "time"

// TranscriptRecord is a cached extraction result
type TranscriptRecord struct {
	VideoID     string    `json:"video_id"`
	Transcript  string    `json:"transcript"`
	Language    string    `json:"language,omitempty"`
	Source      string    `json:"source"`
	Timestamps  bool      `json:"timestamps"`
	ExtractedAt time.Time `json:"extracted_at"`
}

// ExtractRequest is the HTTP request body for transcript extraction
type ExtractRequest struct {
	VideoID    string   `json:"video_id" binding:"required"`
	Languages  []string `json:"languages,omitempty"`
	Timestamps *bool    `json:"timestamps,omitempty"`
	TimeoutMs  int64    `json:"timeout_ms,omitempty"`
}

// StrategyInfo describes one registered extraction strategy
type StrategyInfo struct {
	Name      string `json:"name"`
	Priority  int    `json:"priority"`
	Enabled   bool   `json:"enabled"`
	Available bool   `json:"available"`
	TimeoutMs int64  `json:"timeout_ms"`
}
