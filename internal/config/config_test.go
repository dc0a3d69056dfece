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
	t.Cleanup(func() { _ = os.Remove(tmpfile.Name()) })

	if _, err := tmpfile.Write([]byte(content)); err != nil {
		t.Fatal(err)
	}
	if err := tmpfile.Close(); err != nil {
		t.Fatal(err)
	}
	return tmpfile.Name()
}

func TestLoadAndValidate(t *testing.T) {
	path := writeTempConfig(t, `
server:
  listen_addr: ":9090"
  session_ttl: 12h

storage:
  db_path: "./data/test.db"

recorder:
  enabled: true
  interval: 2m

leaderboard:
  page_size: 25

telegram:
  bot_token: "test_token"
  chat_id: "12345"
  enabled: true

logging:
  level: "debug"
  format: "text"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.ListenAddr != ":9090" {
		t.Errorf("Unexpected listen addr: %s", cfg.Server.ListenAddr)
	}
	if cfg.Server.SessionTTL != 12*time.Hour {
		t.Errorf("Unexpected session TTL: %v", cfg.Server.SessionTTL)
	}
	if cfg.Recorder.Interval != 2*time.Minute {
		t.Errorf("Unexpected recorder interval: %v", cfg.Recorder.Interval)
	}
	if cfg.Leaderboard.PageSize != 25 {
		t.Errorf("Unexpected page size: %d", cfg.Leaderboard.PageSize)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate failed: %v", err)
	}
}

func TestLoadDefaults(t *testing.T) {
	path := writeTempConfig(t, `
logging:
  level: "info"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.ListenAddr != ":8080" {
		t.Errorf("default listen addr = %s", cfg.Server.ListenAddr)
	}
	if cfg.Server.ReadTimeout != 10*time.Second {
		t.Errorf("default read timeout = %v", cfg.Server.ReadTimeout)
	}
	if cfg.Leaderboard.PageSize != 50 {
		t.Errorf("default page size = %d", cfg.Leaderboard.PageSize)
	}
	if cfg.Telegram.Enabled {
		t.Error("telegram should default to disabled")
	}
	if !cfg.Recorder.Enabled {
		t.Error("recorder should default to enabled")
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/config.yaml"); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestValidateErrors(t *testing.T) {
	valid := func() *Config {
		path := writeTempConfig(t, `
logging:
  level: "info"
`)
		cfg, err := Load(path)
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		return cfg
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty listen addr", func(c *Config) { c.Server.ListenAddr = "" }},
		{"tiny read timeout", func(c *Config) { c.Server.ReadTimeout = time.Millisecond }},
		{"tiny session ttl", func(c *Config) { c.Server.SessionTTL = time.Second }},
		{"empty db path", func(c *Config) { c.Storage.DBPath = "" }},
		{"tiny retention", func(c *Config) { c.Storage.HistoryRetention = time.Minute }},
		{"tiny recorder interval", func(c *Config) { c.Recorder.Interval = time.Second }},
		{"zero page size", func(c *Config) { c.Leaderboard.PageSize = 0 }},
		{"huge page size", func(c *Config) { c.Leaderboard.PageSize = 1000 }},
		{"telegram enabled without token", func(c *Config) { c.Telegram.Enabled = true; c.Telegram.ChatID = "1" }},
		{"telegram enabled without chat", func(c *Config) { c.Telegram.Enabled = true; c.Telegram.BotToken = "t" }},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}
