package config

import (
	"os"
	"testing"
	"time"
)

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()

	tmpfile, err := os.CreateTemp("", "config-*.yaml")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Remove(tmpfile.Name()) })

	if _, err := tmpfile.Write([]byte(content)); err != nil {
		t.Fatal(err)
	}
	if err := tmpfile.Close(); err != nil {
		t.Fatal(err)
	}

	return tmpfile.Name()
}

func TestLoad(t *testing.T) {
	content := `
server:
  port: 9091
  host: "127.0.0.1"

extractor:
  youtubeAPIKey: "test-key"
  ytDlpPath: "/usr/local/bin/yt-dlp"
  languages: ["de", "en"]
  defaultTimeout: "45s"
  sourceAddresses: ["10.0.0.1", "10.0.0.2"]
`

	cfg, err := Load(writeTempConfig(t, content))
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Server.Port != 9091 {
		t.Errorf("Expected port 9091, got %d", cfg.Server.Port)
	}

	if cfg.Server.Host != "127.0.0.1" {
		t.Errorf("Expected host 127.0.0.1, got %s", cfg.Server.Host)
	}

	if cfg.Extractor.YouTubeAPIKey != "test-key" {
		t.Errorf("Expected API key test-key, got %s", cfg.Extractor.YouTubeAPIKey)
	}

	if cfg.Extractor.YtDlpPath != "/usr/local/bin/yt-dlp" {
		t.Errorf("Expected yt-dlp path /usr/local/bin/yt-dlp, got %s", cfg.Extractor.YtDlpPath)
	}

	if len(cfg.Extractor.Languages) != 2 || cfg.Extractor.Languages[0] != "de" {
		t.Errorf("Expected languages [de en], got %v", cfg.Extractor.Languages)
	}

	if cfg.Extractor.DefaultTimeout != 45*time.Second {
		t.Errorf("Expected default timeout 45s, got %v", cfg.Extractor.DefaultTimeout)
	}

	if len(cfg.Extractor.SourceAddresses) != 2 {
		t.Errorf("Expected 2 source addresses, got %v", cfg.Extractor.SourceAddresses)
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeTempConfig(t, "server:\n  host: localhost\n"))
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Extractor.YtDlpPath != "yt-dlp" {
		t.Errorf("Expected default yt-dlp path, got %s", cfg.Extractor.YtDlpPath)
	}

	if len(cfg.Extractor.Languages) != 2 || cfg.Extractor.Languages[1] != "*" {
		t.Errorf("Expected default languages [en *], got %v", cfg.Extractor.Languages)
	}

	if cfg.Extractor.ProbeTimeout != 5*time.Second {
		t.Errorf("Expected default probe timeout 5s, got %v", cfg.Extractor.ProbeTimeout)
	}

	if cfg.Redis.CacheTTL != 24*time.Hour {
		t.Errorf("Expected default cache TTL 24h, got %v", cfg.Redis.CacheTTL)
	}
}

func TestLoadNonExistentFile(t *testing.T) {
	_, err := Load("nonexistent.yaml")
	if err == nil {
		t.Error("Expected error when loading nonexistent file")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"bad port", func(c *Config) { c.Server.Port = 0 }, true},
		{"zero timeout", func(c *Config) { c.Extractor.DefaultTimeout = 0 }, true},
		{"empty yt-dlp path", func(c *Config) { c.Extractor.YtDlpPath = "" }, true},
		{"no languages", func(c *Config) { c.Extractor.Languages = nil }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				Server: ServerConfig{Port: 8080},
				Extractor: ExtractorConfig{
					YtDlpPath:      "yt-dlp",
					Languages:      []string{"en"},
					DefaultTimeout: 30 * time.Second,
				},
			}
			tt.mutate(cfg)

			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
