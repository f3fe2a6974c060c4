package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vidscribe/transcript/internal/cache"
	"github.com/vidscribe/transcript/internal/config"
	"github.com/vidscribe/transcript/internal/extractor"
	"github.com/vidscribe/transcript/internal/logging"
	"github.com/vidscribe/transcript/internal/metrics"
	"github.com/vidscribe/transcript/internal/queue"
	"github.com/vidscribe/transcript/internal/tracing"
	"github.com/vidscribe/transcript/pkg/models"
)

func main() {
	// Load configuration
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logging.NewLogger(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	// Initialize tracing
	if cfg.Tracing.Enabled {
		_, closer, err := tracing.InitTracer(cfg.Tracing.ServiceName+"-worker", cfg.Tracing.JaegerEndpoint)
		if err != nil {
			log.WithError(err).Warn("Failed to initialize tracer, continuing without tracing")
		} else {
			defer closer.Close()
		}
	}

	// Initialize cache
	c, err := cache.NewCache(cfg.Redis.Host, cfg.Redis.Port, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to Redis")
	}
	defer c.Close()

	// Initialize queue
	q, err := queue.New(cfg.Queue)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to queue")
	}
	defer q.Close()

	if err := q.SetupDeadLetterQueue(); err != nil {
		log.WithError(err).Fatal("Failed to set up dead letter queue")
	}

	engine := buildEngine(cfg.Extractor, log)

	// Metrics server
	if cfg.Metrics.Enabled {
		metricsServer := metrics.NewServer(cfg.Metrics.Port)
		go func() {
			if err := metricsServer.Start(); err != nil {
				log.WithError(err).Warn("Metrics server stopped")
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			metricsServer.Shutdown(shutdownCtx)
		}()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown gracefully
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Info("Shutting down worker gracefully...")
		cancel()
	}()

	// Track queue depth for monitoring
	go func() {
		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if depth, err := q.GetQueueDepth(); err == nil {
					metrics.QueueDepth.Set(float64(depth))
				}
			}
		}
	}()

	processor := &jobProcessor{
		engine: engine,
		cache:  c,
		queue:  q,
		log:    log,
		cfg:    cfg,
	}

	log.Info("Worker started, waiting for jobs...")
	if err := q.ConsumeJobs(ctx, func(job *models.TranscriptJob) error {
		return processor.process(ctx, job)
	}); err != nil {
		log.WithError(err).Fatal("Failed to consume jobs")
	}

	<-ctx.Done()
	log.Info("Worker stopped")
}

// buildEngine wires the extraction strategies from configuration
func buildEngine(cfg config.ExtractorConfig, log *logging.Logger) *extractor.Engine {
	var tokens extractor.TokenProvider
	if cfg.TokenProviderURL != "" {
		tokens = extractor.NewHTTPTokenProvider(cfg.TokenProviderURL)
	}

	return extractor.NewEngine(log,
		extractor.NewYouTubeAPIStrategy(cfg, log),
		extractor.NewTimedTextStrategy(cfg, log),
		extractor.NewYtDlpStrategy(cfg, tokens, log),
	)
}

type jobProcessor struct {
	engine *extractor.Engine
	cache  *cache.Cache
	queue  *queue.Queue
	log    *logging.Logger
	cfg    *config.Config
}

func (p *jobProcessor) process(ctx context.Context, job *models.TranscriptJob) error {
	log := p.log.WithJobID(job.ID).WithVideoID(job.VideoID)
	log.Info("Processing transcript job")

	languages := job.Languages
	if len(languages) == 0 {
		languages = p.cfg.Extractor.Languages
	}

	// Serve from cache when a previous job already extracted this video
	if cached, err := p.cache.GetTranscript(ctx, job.VideoID, languages, job.Timestamps); err != nil {
		log.WithError(err).Warn("Cache lookup failed")
	} else if cached != nil {
		log.Info("Transcript served from cache")
		return p.publishResult(ctx, job, extractor.Outcome{
			Success:    true,
			Transcript: cached.Transcript,
			Language:   cached.Language,
			Source:     cached.Source,
		})
	}

	req := extractor.Request{
		VideoID:    job.VideoID,
		Languages:  languages,
		Timestamps: job.Timestamps,
		WorkDir:    p.cfg.Extractor.WorkDir,
	}
	if job.TimeoutMs > 0 {
		req.Timeout = time.Duration(job.TimeoutMs) * time.Millisecond
	}

	outcome := p.engine.Extract(ctx, req)

	if outcome.Success {
		record := &models.TranscriptRecord{
			VideoID:     job.VideoID,
			Transcript:  outcome.Transcript,
			Language:    outcome.Language,
			Source:      outcome.Source,
			Timestamps:  job.Timestamps,
			ExtractedAt: time.Now().UTC(),
		}
		if err := p.cache.SetTranscript(ctx, record, languages, p.cfg.Redis.CacheTTL); err != nil {
			log.WithError(err).Warn("Failed to cache transcript")
		}

		log.WithField("source", outcome.Source).Info("Transcript extracted")
		metrics.JobsProcessedTotal.WithLabelValues("success").Inc()
		return p.publishResult(ctx, job, outcome)
	}

	log.WithField("error_type", string(outcome.Kind)).
		WithField("error", outcome.Error).
		Warn("Transcript extraction failed")

	if extractor.Retryable(outcome.Kind) && job.RetryCount < queue.MaxRetries {
		log.WithField("retry_count", job.RetryCount+1).Info("Scheduling job retry")
		metrics.JobsProcessedTotal.WithLabelValues("retried").Inc()
		return p.queue.PublishToRetryQueue(ctx, job)
	}

	if extractor.Retryable(outcome.Kind) {
		if err := p.queue.PublishToDeadLetterQueue(ctx, job, outcome.Error); err != nil {
			log.WithError(err).Error("Failed to publish to dead letter queue")
		}
	}

	metrics.JobsProcessedTotal.WithLabelValues("failed").Inc()
	return p.publishResult(ctx, job, outcome)
}

func (p *jobProcessor) publishResult(ctx context.Context, job *models.TranscriptJob, outcome extractor.Outcome) error {
	result := &models.JobResult{
		JobID:       job.ID,
		VideoID:     job.VideoID,
		Success:     outcome.Success,
		Transcript:  outcome.Transcript,
		Language:    outcome.Language,
		Source:      outcome.Source,
		Error:       outcome.Error,
		ErrorType:   string(outcome.Kind),
		CompletedAt: time.Now().UTC(),
	}

	return p.queue.PublishResult(ctx, result)
}
