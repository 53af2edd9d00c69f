package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server     ServerConfig
	Store      StoreConfig
	Woo        WooConfig
	WordPress  WordPressConfig
	Sync       SyncConfig
	Enrichment EnrichmentConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// StoreConfig holds the product store (ERP database) configuration
type StoreConfig struct {
	Type        string `mapstructure:"type"` // "postgres" or "memory"
	PostgresURL string `mapstructure:"postgres_url"`
}

// WooConfig holds the catalog (WooCommerce) API credentials
type WooConfig struct {
	URL            string `mapstructure:"url"`
	ConsumerKey    string `mapstructure:"consumer_key"`
	ConsumerSecret string `mapstructure:"consumer_secret"`
}

// WordPressConfig holds the content/media API credentials. Username and
// AppPassword are optional; image upload is skipped without them.
type WordPressConfig struct {
	Username    string `mapstructure:"username"`
	AppPassword string `mapstructure:"app_password"`
}

// SyncConfig holds the per-run sync behavior toggles
type SyncConfig struct {
	Active             bool          `mapstructure:"active"`
	Stock              bool          `mapstructure:"stock"`
	Price              bool          `mapstructure:"price"`
	Description        bool          `mapstructure:"description"`
	Image              bool          `mapstructure:"image"`
	EnrichmentOverride bool          `mapstructure:"enrichment_override"`
	ChunkSize          int           `mapstructure:"chunk_size"`
	ChunkPause         time.Duration `mapstructure:"chunk_pause"`
	Interval           time.Duration `mapstructure:"interval"` // 0 disables the scheduled loop
}

// EnrichmentConfig holds the AI enrichment settings
type EnrichmentConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
	BaseURL string `mapstructure:"base_url"`
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/woosync/")

	v.SetEnvPrefix("WOOSYNC")
	v.AutomaticEnv()

	setDefaults(v)

	// Config file is optional; env vars and defaults are enough
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"*"})

	v.SetDefault("store.type", "postgres")

	v.SetDefault("sync.active", false)
	v.SetDefault("sync.stock", true)
	v.SetDefault("sync.price", false)
	v.SetDefault("sync.description", true)
	v.SetDefault("sync.image", true)
	v.SetDefault("sync.enrichment_override", false)
	v.SetDefault("sync.chunk_size", 50)
	v.SetDefault("sync.chunk_pause", "1s")
	v.SetDefault("sync.interval", "0")

	v.SetDefault("enrichment.enabled", false)
	v.SetDefault("enrichment.model", "gpt-3.5-turbo")
	v.SetDefault("enrichment.base_url", "https://api.openai.com/v1")
}

// validate validates the configuration
func validate(config *Config) error {
	if config.Sync.Active {
		if config.Woo.URL == "" {
			return fmt.Errorf("WooCommerce store URL is required when sync is active (set WOOSYNC_WOO_URL)")
		}
		if config.Woo.ConsumerKey == "" || config.Woo.ConsumerSecret == "" {
			return fmt.Errorf("WooCommerce consumer key and secret are required when sync is active")
		}
	}

	if config.Store.Type != "postgres" && config.Store.Type != "memory" {
		return fmt.Errorf("store type must be 'postgres' or 'memory', got: %s", config.Store.Type)
	}
	if config.Store.Type == "postgres" && config.Store.PostgresURL == "" {
		return fmt.Errorf("Postgres URL is required when store type is 'postgres'")
	}

	if config.Sync.ChunkSize <= 0 {
		return fmt.Errorf("sync chunk size must be positive, got: %d", config.Sync.ChunkSize)
	}

	if config.Enrichment.Enabled && config.Enrichment.APIKey == "" {
		return fmt.Errorf("enrichment API key is required when enrichment is enabled (set WOOSYNC_ENRICHMENT_API_KEY)")
	}

	return nil
}
