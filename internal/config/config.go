package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Signature verification modes
const (
	SignatureStrict  = "strict"
	SignatureLenient = "lenient"
)

// Store drivers
const (
	StoreMongoDB = "mongodb"
	StoreSQLite  = "sqlite"
	StoreMemory  = "memory"
)

// Notifier channels
const (
	ChannelLog      = "log"
	ChannelTelegram = "telegram"
	ChannelWebhook  = "webhook"
	ChannelNone     = "none"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig   `mapstructure:"server"`
	Store     StoreConfig    `mapstructure:"store"`
	MongoDB   MongoDBConfig  `mapstructure:"mongodb"`
	SQLite    SQLiteConfig   `mapstructure:"sqlite"`
	Provider  ProviderConfig `mapstructure:"provider"`
	Notifier  NotifierConfig `mapstructure:"notifier"`
	JWT       JWTConfig      `mapstructure:"jwt"`
	LogLevel  string         `mapstructure:"log_level"`
	LogFormat string         `mapstructure:"log_format"`
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Port            string        `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// StoreConfig selects the request store backend
type StoreConfig struct {
	Driver        string `mapstructure:"driver"`
	UpsertUnknown bool   `mapstructure:"upsert_unknown"`
}

// MongoDBConfig holds MongoDB-specific configuration
type MongoDBConfig struct {
	URI      string        `mapstructure:"uri"`
	Database string        `mapstructure:"database"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// SQLiteConfig holds SQLite-specific configuration
type SQLiteConfig struct {
	Path string `mapstructure:"path"`
}

// ProviderConfig holds the payment provider credentials and callback policy
type ProviderConfig struct {
	PartnerID             string `mapstructure:"partner_id"`
	SecretKey             string `mapstructure:"secret_key"`
	SignatureMode         string `mapstructure:"signature_mode"`
	UnknownStatusFallback string `mapstructure:"unknown_status_fallback"`
}

// NotifierConfig holds notification dispatch configuration
type NotifierConfig struct {
	Channel   string         `mapstructure:"channel"`
	Workers   int            `mapstructure:"workers"`
	QueueSize int            `mapstructure:"queue_size"`
	Timeout   time.Duration  `mapstructure:"timeout"`
	Telegram  TelegramConfig `mapstructure:"telegram"`
	Webhook   WebhookConfig  `mapstructure:"webhook"`
}

// TelegramConfig holds Telegram bot configuration
type TelegramConfig struct {
	BotToken string `mapstructure:"bot_token"`
}

// WebhookConfig holds the outbound notification webhook
type WebhookConfig struct {
	URL string `mapstructure:"url"`
}

// JWTConfig holds JWT-specific configuration
type JWTConfig struct {
	Secret    string `mapstructure:"secret"`
	ExpiresIn int    `mapstructure:"expires_in"`
}

// legacyEnv maps environment variables used by earlier deployments onto config keys.
var legacyEnv = map[string]string{
	"provider.partner_id": "GACHTHE_PARTNER_ID",
	"provider.secret_key": "GACHTHE_KEY",
	"server.port":         "PORT",
}

// Load loads configuration from .env, an optional config file and environment variables.
// When path is empty, config.yaml is looked up in "." and "./config".
func Load(path string) (*Config, error) {
	// A missing .env file is fine
	_ = godotenv.Load()

	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	for key, legacy := range legacyEnv {
		envName := strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, envName, legacy); err != nil {
			return nil, err
		}
	}

	if err := v.ReadInConfig(); err != nil {
		// It's okay if config file is not found, we'll use environment variables
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.normalize()
	return &cfg, nil
}

// setDefaults sets default values for configuration
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("store.driver", StoreMongoDB)
	v.SetDefault("store.upsert_unknown", false)
	v.SetDefault("mongodb.uri", "mongodb://localhost:27017")
	v.SetDefault("mongodb.database", "topup_callback")
	v.SetDefault("mongodb.timeout", 10*time.Second)
	v.SetDefault("sqlite.path", "topup.db")
	v.SetDefault("provider.partner_id", "")
	v.SetDefault("provider.secret_key", "")
	v.SetDefault("provider.signature_mode", SignatureStrict)
	v.SetDefault("provider.unknown_status_fallback", "unknown")
	v.SetDefault("notifier.channel", ChannelLog)
	v.SetDefault("notifier.workers", 4)
	v.SetDefault("notifier.queue_size", 256)
	v.SetDefault("notifier.timeout", 5*time.Second)
	v.SetDefault("notifier.telegram.bot_token", "")
	v.SetDefault("notifier.webhook.url", "")
	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.expires_in", 24*60*60) // 24 hours
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "json")
}

func (c *Config) normalize() {
	c.Store.Driver = strings.ToLower(strings.TrimSpace(c.Store.Driver))
	c.Provider.SignatureMode = strings.ToLower(strings.TrimSpace(c.Provider.SignatureMode))
	c.Provider.UnknownStatusFallback = strings.ToLower(strings.TrimSpace(c.Provider.UnknownStatusFallback))
	c.Notifier.Channel = strings.ToLower(strings.TrimSpace(c.Notifier.Channel))
}

// Validate reports the first configuration problem that would prevent the service from starting.
func (c *Config) Validate() error {
	if c.Provider.PartnerID == "" {
		return errors.New("provider.partner_id is required")
	}
	if c.Provider.SecretKey == "" {
		return errors.New("provider.secret_key is required")
	}
	switch c.Provider.SignatureMode {
	case SignatureStrict, SignatureLenient:
	default:
		return fmt.Errorf("provider.signature_mode: unsupported value %q", c.Provider.SignatureMode)
	}
	switch c.Provider.UnknownStatusFallback {
	case "unknown", "pending":
	default:
		return fmt.Errorf("provider.unknown_status_fallback: must be unknown or pending, got %q", c.Provider.UnknownStatusFallback)
	}
	switch c.Store.Driver {
	case StoreMongoDB:
		if c.MongoDB.URI == "" || c.MongoDB.Database == "" {
			return errors.New("mongodb.uri and mongodb.database are required for the mongodb store")
		}
	case StoreSQLite:
		if c.SQLite.Path == "" {
			return errors.New("sqlite.path is required for the sqlite store")
		}
	case StoreMemory:
	default:
		return fmt.Errorf("store.driver: unsupported value %q", c.Store.Driver)
	}
	switch c.Notifier.Channel {
	case ChannelLog, ChannelNone:
	case ChannelTelegram:
		if c.Notifier.Telegram.BotToken == "" {
			return errors.New("notifier.telegram.bot_token is required for the telegram channel")
		}
	case ChannelWebhook:
		if c.Notifier.Webhook.URL == "" {
			return errors.New("notifier.webhook.url is required for the webhook channel")
		}
	default:
		return fmt.Errorf("notifier.channel: unsupported value %q", c.Notifier.Channel)
	}
	if c.Notifier.Workers <= 0 || c.Notifier.QueueSize <= 0 {
		return errors.New("notifier.workers and notifier.queue_size must be positive")
	}
	return nil
}
