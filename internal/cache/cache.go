package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vidscribe/transcript/internal/metrics"
	"github.com/vidscribe/transcript/pkg/models"
)

// Cache provides transcript caching using Redis
type Cache struct {
	client *redis.Client
}

// NewCache creates a new cache instance
func NewCache(host string, port int, password string, db int) (*Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", host, port),
		Password: password,
		DB:       db,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Cache{client: client}, nil
}

// Close closes the Redis connection
func (c *Cache) Close() error {
	return c.client.Close()
}

// Ping checks the connection
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// transcriptKey builds the cache key. Language order matters to the
// extraction outcome, so it is part of the key as-is.
func transcriptKey(videoID string, languages []string, timestamps bool) string {
	langs := strings.Join(languages, ",")
	if langs == "" {
		langs = "default"
	}
	return fmt.Sprintf("transcript:%s:%s:%t", videoID, langs, timestamps)
}

// SetTranscript caches an extraction result
func (c *Cache) SetTranscript(ctx context.Context, record *models.TranscriptRecord, languages []string, ttl time.Duration) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal transcript: %w", err)
	}

	key := transcriptKey(record.VideoID, languages, record.Timestamps)
	return c.client.Set(ctx, key, data, ttl).Err()
}

// GetTranscript retrieves a cached extraction result. A cache miss
// returns (nil, nil).
func (c *Cache) GetTranscript(ctx context.Context, videoID string, languages []string, timestamps bool) (*models.TranscriptRecord, error) {
	key := transcriptKey(videoID, languages, timestamps)

	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			metrics.CacheMissesTotal.Inc()
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get transcript from cache: %w", err)
	}

	var record models.TranscriptRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal transcript: %w", err)
	}

	metrics.CacheHitsTotal.Inc()
	return &record, nil
}

// DeleteTranscripts removes every cached variant for a video
func (c *Cache) DeleteTranscripts(ctx context.Context, videoID string) error {
	pattern := fmt.Sprintf("transcript:%s:*", videoID)

	var keys []string
	iter := c.client.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan transcript keys: %w", err)
	}

	if len(keys) == 0 {
		return nil
	}

	sort.Strings(keys)
	return c.client.Del(ctx, keys...).Err()
}
