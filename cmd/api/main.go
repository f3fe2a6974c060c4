package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vidscribe/transcript/internal/cache"
	"github.com/vidscribe/transcript/internal/config"
	"github.com/vidscribe/transcript/internal/extractor"
	"github.com/vidscribe/transcript/internal/logging"
	"github.com/vidscribe/transcript/internal/metrics"
	"github.com/vidscribe/transcript/internal/middleware"
	"github.com/vidscribe/transcript/internal/queue"
	"github.com/vidscribe/transcript/internal/tracing"
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
		_, closer, err := tracing.InitTracer(cfg.Tracing.ServiceName, cfg.Tracing.JaegerEndpoint)
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
		log.WithError(err).Warn("Failed to set up dead letter queue")
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

	rateLimiter := middleware.NewRateLimiter(cfg.Server.RateLimitRPS, cfg.Server.RateLimitBurst)

	api := &API{
		engine:      engine,
		cache:       c,
		queue:       q,
		log:         log,
		cfg:         cfg,
		rateLimiter: rateLimiter,
	}

	router := setupRouter(api)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in goroutine
	go func() {
		log.WithField("addr", addr).Info("Starting API server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Fatal("Server forced to shutdown")
	}

	log.Info("Server stopped")
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

func setupRouter(api *API) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	router.Use(middleware.CORS())
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(api.log))
	router.Use(middleware.RateLimit(api.rateLimiter))

	router.GET("/health", api.healthCheck)

	v1 := router.Group("/api/v1")
	{
		v1.POST("/transcripts", api.extractTranscript)
		v1.POST("/jobs", api.createJob)
		v1.GET("/strategies", api.listStrategies)
	}

	return router
}
