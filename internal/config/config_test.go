package config

import (
	"os"
	"path/filepath"
	"testing"

	"postovik/internal/models"
)

func TestLoadConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
source:
  api_key: "test_key"
  feed_id: "1234567890"
telegram:
  bot_token: "test_token"
  channel_id: "@test_channel"
database:
  path: "test.db"
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0o644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Source.FeedID != "1234567890" {
		t.Errorf("expected feed_id 1234567890, got %s", cfg.Source.FeedID)
	}
	if cfg.Telegram.BotToken != "test_token" {
		t.Errorf("expected bot_token test_token, got %s", cfg.Telegram.BotToken)
	}

	// Defaults
	if cfg.Sync.PageSize != models.DefaultFetchPageSize {
		t.Errorf("expected default page size %d, got %d", models.DefaultFetchPageSize, cfg.Sync.PageSize)
	}
	if cfg.Sync.ProcessLimit != models.DefaultProcessLimit {
		t.Errorf("expected default process limit %d, got %d", models.DefaultProcessLimit, cfg.Sync.ProcessLimit)
	}
	if cfg.Enricher.Mode != "template" {
		t.Errorf("expected default enricher mode template, got %s", cfg.Enricher.Mode)
	}
	if cfg.Sync.Interval != models.DefaultSyncInterval {
		t.Errorf("expected default interval %s, got %s", models.DefaultSyncInterval, cfg.Sync.Interval)
	}
}

func TestLoadConfigExpandsEnv(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	t.Setenv("POSTOVIK_TEST_KEY", "key_from_env")

	yamlContent := `
source:
  api_key: "${POSTOVIK_TEST_KEY}"
database:
  path: "test.db"
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0o644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Source.APIKey != "key_from_env" {
		t.Errorf("expected api_key from env, got %s", cfg.Source.APIKey)
	}
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{
			name: "valid config",
			cfg: Config{
				Database: DatabaseConfig{Path: "path"},
				Enricher: EnricherConfig{Mode: "template"},
			},
			wantErr: false,
		},
		{
			name:    "missing database path",
			cfg:     Config{Enricher: EnricherConfig{Mode: "template"}},
			wantErr: true,
		},
		{
			name: "llm mode without api url",
			cfg: Config{
				Database: DatabaseConfig{Path: "path"},
				Enricher: EnricherConfig{Mode: "llm"},
			},
			wantErr: true,
		},
		{
			name: "unknown enricher mode",
			cfg: Config{
				Database: DatabaseConfig{Path: "path"},
				Enricher: EnricherConfig{Mode: "banana"},
			},
			wantErr: true,
		},
		{
			name: "negative process limit",
			cfg: Config{
				Database: DatabaseConfig{Path: "path"},
				Enricher: EnricherConfig{Mode: "template"},
				Sync:     SyncConfig{ProcessLimit: -1},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestDefaultsResolution(t *testing.T) {
	cfg := Config{
		Source:   SourceConfig{APIKey: "k", FeedID: "f"},
		Telegram: TelegramConfig{BotToken: "t", ChannelID: "@c"},
	}

	defaults := cfg.Defaults()
	if defaults[models.KeySourceAPIKey] != "k" {
		t.Errorf("unexpected SOURCE_API_KEY default: %s", defaults[models.KeySourceAPIKey])
	}
	if defaults[models.KeyMessagingChannel] != "@c" {
		t.Errorf("unexpected MESSAGING_CHANNEL_ID default: %s", defaults[models.KeyMessagingChannel])
	}
}
