// Package config loads and validates service configuration via Viper.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Run       RunConfig       `mapstructure:"run"`
	HTTP      HTTPConfig      `mapstructure:"http"`
	Browser   BrowserConfig   `mapstructure:"browser"`
	Vision    VisionConfig    `mapstructure:"vision"`
	Store     StoreConfig     `mapstructure:"store"`
	Artifacts ArtifactsConfig `mapstructure:"artifacts"`
	History   HistoryConfig   `mapstructure:"history"`
	Notify    NotifyConfig    `mapstructure:"notify"`
	Server    ServerConfig    `mapstructure:"server"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// RunConfig governs orchestrator behavior.
type RunConfig struct {
	SourceTimeoutSeconds int `mapstructure:"source_timeout_seconds"`
}

// HTTPConfig configures the plain document fetcher.
type HTTPConfig struct {
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	UserAgent      string `mapstructure:"user_agent"`
}

// BrowserConfig configures the headless browser subsystem.
type BrowserConfig struct {
	NavTimeoutSeconds int     `mapstructure:"nav_timeout_seconds"`
	MaxParallel       int     `mapstructure:"max_parallel"`
	DomainQPS         float64 `mapstructure:"domain_qps"`
	UserAgent         string  `mapstructure:"user_agent"`
}

// VisionConfig configures the image-to-text oracle client.
type VisionConfig struct {
	Endpoint       string `mapstructure:"endpoint"`
	Model          string `mapstructure:"model"`
	MaxTokens      int    `mapstructure:"max_tokens"`
	APIKey         string `mapstructure:"api_key"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// StoreConfig sets the persisted store location.
type StoreConfig struct {
	Path string `mapstructure:"path"`
}

// ArtifactsConfig selects where captured raw documents and screenshots go.
type ArtifactsConfig struct {
	Provider  string `mapstructure:"provider"` // noop, local, gcs
	LocalDir  string `mapstructure:"local_dir"`
	GCSBucket string `mapstructure:"gcs_bucket"`
}

// HistoryConfig controls the optional append-only Postgres run log.
type HistoryConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	DSN     string `mapstructure:"dsn"`
}

// NotifyConfig controls the optional run-completion publisher.
type NotifyConfig struct {
	Provider  string `mapstructure:"provider"` // noop, pubsub
	ProjectID string `mapstructure:"project_id"`
	TopicName string `mapstructure:"topic_name"`
}

// ServerConfig controls the read-only HTTP API.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("SHOOTDASH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("shootdash")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("run.source_timeout_seconds", 180)
	v.SetDefault("http.timeout_seconds", 20)
	v.SetDefault("http.user_agent", "shooting-dashboard/1.0")
	v.SetDefault("browser.nav_timeout_seconds", 45)
	v.SetDefault("browser.max_parallel", 4)
	v.SetDefault("browser.domain_qps", 0.5)
	v.SetDefault("browser.user_agent", "shooting-dashboard/1.0")
	v.SetDefault("vision.endpoint", "https://api.anthropic.com/v1/messages")
	v.SetDefault("vision.model", "claude-sonnet-4-5")
	v.SetDefault("vision.max_tokens", 256)
	v.SetDefault("vision.timeout_seconds", 60)
	v.SetDefault("store.path", "data/shootings.json")
	v.SetDefault("artifacts.provider", "noop")
	v.SetDefault("artifacts.local_dir", "data/artifacts")
	v.SetDefault("history.enabled", false)
	v.SetDefault("notify.provider", "noop")
	v.SetDefault("server.port", 8080)
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Run.SourceTimeoutSeconds <= 0 {
		return fmt.Errorf("run.source_timeout_seconds must be > 0")
	}
	if c.HTTP.TimeoutSeconds <= 0 {
		return fmt.Errorf("http.timeout_seconds must be > 0")
	}
	if c.Store.Path == "" {
		return fmt.Errorf("store.path must be set")
	}
	switch c.Artifacts.Provider {
	case "noop", "local", "gcs":
	default:
		return fmt.Errorf("unknown artifacts provider: %s", c.Artifacts.Provider)
	}
	if c.Artifacts.Provider == "gcs" && c.Artifacts.GCSBucket == "" {
		return fmt.Errorf("artifacts.gcs_bucket must be set when artifacts provider is gcs")
	}
	switch c.Notify.Provider {
	case "noop", "pubsub":
	default:
		return fmt.Errorf("unknown notify provider: %s", c.Notify.Provider)
	}
	if c.Notify.Provider == "pubsub" && (c.Notify.ProjectID == "" || c.Notify.TopicName == "") {
		return fmt.Errorf("notify.project_id and notify.topic_name must be set when notify provider is pubsub")
	}
	if c.History.Enabled && c.History.DSN == "" {
		return fmt.Errorf("history.dsn must be set when history is enabled")
	}
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	return nil
}

// SourceTimeout converts the per-source budget to a duration.
func (c Config) SourceTimeout() time.Duration {
	return time.Duration(c.Run.SourceTimeoutSeconds) * time.Second
}

// HTTPTimeout converts the fetcher budget to a duration.
func (c Config) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTP.TimeoutSeconds) * time.Second
}

// NavTimeout converts the browser navigation budget to a duration.
func (c Config) NavTimeout() time.Duration {
	return time.Duration(c.Browser.NavTimeoutSeconds) * time.Second
}
