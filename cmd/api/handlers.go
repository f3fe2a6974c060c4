package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/vidscribe/transcript/internal/cache"
	"github.com/vidscribe/transcript/internal/config"
	"github.com/vidscribe/transcript/internal/extractor"
	"github.com/vidscribe/transcript/internal/logging"
	"github.com/vidscribe/transcript/internal/metrics"
	"github.com/vidscribe/transcript/internal/middleware"
	"github.com/vidscribe/transcript/internal/queue"
	"github.com/vidscribe/transcript/pkg/models"
)

type API struct {
	engine      *extractor.Engine
	cache       *cache.Cache
	queue       *queue.Queue
	log         *logging.Logger
	cfg         *config.Config
	rateLimiter *middleware.RateLimiter
}

// extractTranscript handles synchronous transcript extraction
func (api *API) extractTranscript(c *gin.Context) {
	var req models.ExtractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if len(req.VideoID) != extractor.VideoIDLength {
		c.JSON(http.StatusBadRequest, gin.H{"error": "video_id must be an 11-character video identifier"})
		return
	}

	languages := req.Languages
	if len(languages) == 0 {
		languages = api.cfg.Extractor.Languages
	}
	timestamps := includeTimestamps(req)

	ctx := c.Request.Context()

	if cached, err := api.cache.GetTranscript(ctx, req.VideoID, languages, timestamps); err != nil {
		api.log.WithError(err).Warn("Cache lookup failed")
	} else if cached != nil {
		c.JSON(http.StatusOK, gin.H{
			"video_id":   cached.VideoID,
			"transcript": cached.Transcript,
			"language":   cached.Language,
			"source":     cached.Source,
			"cached":     true,
		})
		return
	}

	extractReq := extractor.Request{
		VideoID:    req.VideoID,
		Languages:  languages,
		Timestamps: timestamps,
		WorkDir:    api.cfg.Extractor.WorkDir,
	}
	if req.TimeoutMs > 0 {
		extractReq.Timeout = time.Duration(req.TimeoutMs) * time.Millisecond
	}

	outcome := api.engine.Extract(ctx, extractReq)

	if !outcome.Success {
		c.JSON(statusForKind(outcome.Kind), gin.H{
			"error":      outcome.Error,
			"error_type": outcome.Kind,
			"source":     outcome.Source,
		})
		return
	}

	record := &models.TranscriptRecord{
		VideoID:     req.VideoID,
		Transcript:  outcome.Transcript,
		Language:    outcome.Language,
		Source:      outcome.Source,
		Timestamps:  timestamps,
		ExtractedAt: time.Now().UTC(),
	}
	if err := api.cache.SetTranscript(ctx, record, languages, api.cfg.Redis.CacheTTL); err != nil {
		api.log.WithError(err).Warn("Failed to cache transcript")
	}

	c.JSON(http.StatusOK, gin.H{
		"video_id":   req.VideoID,
		"transcript": outcome.Transcript,
		"language":   outcome.Language,
		"source":     outcome.Source,
		"cached":     false,
	})
}

// createJob enqueues an asynchronous extraction job
func (api *API) createJob(c *gin.Context) {
	var req models.ExtractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if len(req.VideoID) != extractor.VideoIDLength {
		c.JSON(http.StatusBadRequest, gin.H{"error": "video_id must be an 11-character video identifier"})
		return
	}

	job := &models.TranscriptJob{
		ID:         uuid.New().String(),
		VideoID:    req.VideoID,
		Languages:  req.Languages,
		Timestamps: includeTimestamps(req),
		TimeoutMs:  req.TimeoutMs,
		CreatedAt:  time.Now().UTC(),
	}

	if err := api.queue.PublishJob(c.Request.Context(), job); err != nil {
		api.log.WithError(err).Error("Failed to publish job")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to enqueue job"})
		return
	}

	metrics.JobsPublishedTotal.Inc()

	c.JSON(http.StatusAccepted, gin.H{
		"job_id":   job.ID,
		"video_id": job.VideoID,
		"status":   models.JobStatusPending,
	})
}

// listStrategies reports the registered strategies and their current
// availability
func (api *API) listStrategies(c *gin.Context) {
	probeTimeout := api.cfg.Extractor.ProbeTimeout
	if probeTimeout <= 0 {
		probeTimeout = 5 * time.Second
	}
	probeCtx, cancel := context.WithTimeout(c.Request.Context(), probeTimeout)
	defer cancel()

	strategies := api.engine.Strategies()
	infos := make([]models.StrategyInfo, 0, len(strategies))
	for _, s := range strategies {
		infos = append(infos, models.StrategyInfo{
			Name:      s.Name(),
			Priority:  s.Priority(),
			Enabled:   s.Enabled(),
			Available: s.Enabled() && s.Available(probeCtx),
			TimeoutMs: s.Timeout().Milliseconds(),
		})
	}

	c.JSON(http.StatusOK, gin.H{"strategies": infos})
}

// healthCheck reports backing service health
func (api *API) healthCheck(c *gin.Context) {
	status := http.StatusOK
	overall := "healthy"
	redisStatus := "ok"
	queueStatus := "ok"

	if err := api.cache.Ping(c.Request.Context()); err != nil {
		redisStatus = "unavailable"
		status = http.StatusServiceUnavailable
		overall = "degraded"
	}

	if _, err := api.queue.GetQueueDepth(); err != nil {
		queueStatus = "unavailable"
		status = http.StatusServiceUnavailable
		overall = "degraded"
	}

	c.JSON(status, gin.H{
		"status": overall,
		"redis":  redisStatus,
		"queue":  queueStatus,
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// includeTimestamps resolves the optional timestamps field; omitting
// it means timestamped output.
func includeTimestamps(req models.ExtractRequest) bool {
	return req.Timestamps == nil || *req.Timestamps
}

// statusForKind maps an extraction failure kind to an HTTP status
func statusForKind(kind extractor.ErrorKind) int {
	switch kind {
	case extractor.KindVideoUnavailable, extractor.KindNoCaptions:
		return http.StatusNotFound
	case extractor.KindVideoPrivate, extractor.KindAgeRestricted:
		return http.StatusForbidden
	case extractor.KindVideoLive:
		return http.StatusConflict
	case extractor.KindRateLimited:
		return http.StatusTooManyRequests
	case extractor.KindTimeout:
		return http.StatusGatewayTimeout
	case extractor.KindNetworkError:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
