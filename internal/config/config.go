package config

import (
	"errors"
	"fmt"
	"os"

	"postovik/internal/models"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App      AppConfig      `yaml:"app"`
	Source   SourceConfig   `yaml:"source"`
	Telegram TelegramConfig `yaml:"telegram"`
	Enricher EnricherConfig `yaml:"enricher"`
	Sync     SyncConfig     `yaml:"sync"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Logging  LoggingConfig  `yaml:"logging"`
	API      APIConfig      `yaml:"api"`
	Exports  ExportConfig   `yaml:"exports"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
}

// SourceConfig — доступ к блогу. Ключ и идентификатор могут быть
// переопределены через таблицу settings или в запросе на синхронизацию.
type SourceConfig struct {
	APIKey   string `yaml:"api_key"`
	FeedID   string `yaml:"feed_id"`
	Endpoint string `yaml:"endpoint"`
}

type TelegramConfig struct {
	BotToken  string `yaml:"bot_token"`
	ChannelID string `yaml:"channel_id"`
	Debug     bool   `yaml:"debug"`
}

type EnricherConfig struct {
	Mode string    `yaml:"mode"` // template | llm
	LLM  LLMConfig `yaml:"llm"`
}

type LLMConfig struct {
	APIURL         string `yaml:"api_url"`
	APIKey         string `yaml:"api_key"`
	Model          string `yaml:"model"`
	Prompt         string `yaml:"prompt"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

type SyncConfig struct {
	Interval           string `yaml:"interval"`
	PageSize           int    `yaml:"page_size"`
	ProcessLimit       int    `yaml:"process_limit"`
	CallTimeoutSeconds int    `yaml:"call_timeout_seconds"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type RedisConfig struct {
	Address    string `yaml:"address"`
	Password   string `yaml:"password"`
	DB         int    `yaml:"db"`
	TTLSeconds int    `yaml:"ttl_seconds"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
}

type APIConfig struct {
	Enabled   bool               `yaml:"enabled"`
	Port      int                `yaml:"port"`
	Auth      APIAuthConfig      `yaml:"auth"`
	RateLimit APIRateLimitConfig `yaml:"rate_limit"`
}

type APIAuthConfig struct {
	Enabled      bool           `yaml:"enabled"`
	HeaderAPIKey string         `yaml:"header_api_key"`
	APIKeys      []APIClientKey `yaml:"api_keys"`
}

type APIClientKey struct {
	Key  string `yaml:"key"`
	Name string `yaml:"name"`
}

type APIRateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

type ExportConfig struct {
	Path string `yaml:"path"`
}

func Load(configPath string) (*Config, error) {
	// .env не обязателен, переменные могут прийти из окружения
	_ = godotenv.Load(".env")

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	// Предварительная замена переменных окружения в YAML
	expandedData := []byte(os.ExpandEnv(string(data)))

	var config Config
	if err := yaml.Unmarshal(expandedData, &config); err != nil {
		return nil, err
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return errors.New("database path is required")
	}

	switch c.Enricher.Mode {
	case "template":
	case "llm":
		if c.Enricher.LLM.APIURL == "" {
			return errors.New("enricher.llm.api_url is required in llm mode")
		}
	default:
		return fmt.Errorf("unknown enricher mode: %s", c.Enricher.Mode)
	}

	if c.Sync.PageSize < 0 || c.Sync.ProcessLimit < 0 {
		return errors.New("sync.page_size and sync.process_limit must be non-negative")
	}

	// Токены источника и мессенджера здесь не проверяем: они могут
	// прийти из таблицы settings или из override конкретного запуска,
	// полнота проверяется движком перед каждым циклом.
	return nil
}

// Defaults возвращает дефолтные значения четырех обязательных ключей,
// взятые из конфига процесса (нижний приоритет в цепочке разрешения).
func (c *Config) Defaults() map[string]string {
	return map[string]string{
		models.KeySourceAPIKey:      c.Source.APIKey,
		models.KeySourceFeedID:      c.Source.FeedID,
		models.KeyMessagingBotToken: c.Telegram.BotToken,
		models.KeyMessagingChannel:  c.Telegram.ChannelID,
	}
}

func (c *Config) applyDefaults() {
	if c.Enricher.Mode == "" {
		c.Enricher.Mode = "template"
	}
	if c.Enricher.LLM.TimeoutSeconds == 0 {
		c.Enricher.LLM.TimeoutSeconds = models.DefaultCallTimeoutSeconds
	}
	if c.Sync.Interval == "" {
		c.Sync.Interval = models.DefaultSyncInterval
	}
	if c.Sync.PageSize == 0 {
		c.Sync.PageSize = models.DefaultFetchPageSize
	}
	if c.Sync.ProcessLimit == 0 {
		c.Sync.ProcessLimit = models.DefaultProcessLimit
	}
	if c.Sync.CallTimeoutSeconds == 0 {
		c.Sync.CallTimeoutSeconds = models.DefaultCallTimeoutSeconds
	}
	if c.Redis.TTLSeconds == 0 {
		c.Redis.TTLSeconds = models.DefaultSeenCacheTTL
	}
	if c.API.Enabled && c.API.Port == 0 {
		c.API.Port = 8080
	}
	if c.API.Auth.HeaderAPIKey == "" {
		c.API.Auth.HeaderAPIKey = "x-api-key"
	}
	if c.Exports.Path == "" {
		c.Exports.Path = "exports"
	}
}
