package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig
	Redis     RedisConfig
	Queue     QueueConfig
	Extractor ExtractorConfig
	Logging   LoggingConfig
	Tracing   TracingConfig
	Metrics   MetricsConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port            int
	Host            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	RateLimitRPS    int
	RateLimitBurst  int
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
	CacheTTL time.Duration
}

// QueueConfig holds message queue configuration
type QueueConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Vhost    string
}

// ExtractorConfig holds transcript extraction configuration
type ExtractorConfig struct {
	YouTubeAPIKey    string
	YtDlpPath        string
	CookiesFile      string
	SourceAddresses  []string
	TokenProviderURL string
	Languages        []string
	DefaultTimeout   time.Duration
	ProbeTimeout     time.Duration
	WorkDir          string
	Verbose          bool
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string
	Format string
	Output string
}

// TracingConfig holds distributed tracing configuration
type TracingConfig struct {
	Enabled        bool
	ServiceName    string
	JaegerEndpoint string
}

// MetricsConfig holds metrics server configuration
type MetricsConfig struct {
	Enabled bool
	Port    int
}

// Load reads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")
	viper.AutomaticEnv()

	// Set defaults
	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate checks configuration invariants that would otherwise only
// surface at extraction time.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Extractor.DefaultTimeout <= 0 {
		return fmt.Errorf("extractor default timeout must be positive")
	}
	if c.Extractor.YtDlpPath == "" {
		return fmt.Errorf("extractor yt-dlp path must not be empty")
	}
	if len(c.Extractor.Languages) == 0 {
		return fmt.Errorf("extractor languages must not be empty")
	}
	return nil
}

func setDefaults() {
	// Server defaults
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.readTimeout", "30s")
	viper.SetDefault("server.writeTimeout", "30s")
	viper.SetDefault("server.shutdownTimeout", "10s")
	viper.SetDefault("server.rateLimitRPS", 10)
	viper.SetDefault("server.rateLimitBurst", 20)

	// Redis defaults
	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("redis.cacheTTL", "24h")

	// Queue defaults
	viper.SetDefault("queue.host", "localhost")
	viper.SetDefault("queue.port", 5672)
	viper.SetDefault("queue.user", "guest")
	viper.SetDefault("queue.password", "guest")
	viper.SetDefault("queue.vhost", "/")

	// Extractor defaults
	viper.SetDefault("extractor.youtubeAPIKey", "")
	viper.SetDefault("extractor.ytDlpPath", "yt-dlp")
	viper.SetDefault("extractor.cookiesFile", "")
	viper.SetDefault("extractor.sourceAddresses", []string{})
	viper.SetDefault("extractor.tokenProviderURL", "")
	viper.SetDefault("extractor.languages", []string{"en", "*"})
	viper.SetDefault("extractor.defaultTimeout", "30s")
	viper.SetDefault("extractor.probeTimeout", "5s")
	viper.SetDefault("extractor.workDir", "/tmp/transcript")
	viper.SetDefault("extractor.verbose", false)

	// Logging defaults
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
	viper.SetDefault("logging.output", "stdout")

	// Tracing defaults
	viper.SetDefault("tracing.enabled", false)
	viper.SetDefault("tracing.serviceName", "transcript")
	viper.SetDefault("tracing.jaegerEndpoint", "http://localhost:14268/api/traces")

	// Metrics defaults
	viper.SetDefault("metrics.enabled", true)
	viper.SetDefault("metrics.port", 9090)
}
