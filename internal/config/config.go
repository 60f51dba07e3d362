package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/karanvs/vega/internal/backtest"
	"github.com/karanvs/vega/internal/core"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig              `mapstructure:"server"`
	Logging   LoggingConfig             `mapstructure:"logging"`
	Data      DataConfig                `mapstructure:"data"`
	Results   ResultsConfig             `mapstructure:"results"`
	Backtest  backtest.Config           `mapstructure:"backtest"`
	Notifiers map[string]NotifierConfig `mapstructure:"notifiers"`
	Metrics   MetricsConfig             `mapstructure:"metrics"`
}

type ServerConfig struct {
	Host        string `mapstructure:"host"`
	Port        int    `mapstructure:"port"`
	JobTTLHours int    `mapstructure:"job_ttl_hours"`
	MaxJobs     int    `mapstructure:"max_jobs"`
}

type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// DataConfig selects where historical bars come from.
type DataConfig struct {
	Type string `mapstructure:"type"` // "csv" or "sqlite"
	Path string `mapstructure:"path"` // CSV directory or SQLite file
}

// ResultsConfig selects where finished results are archived.
type ResultsConfig struct {
	Type string   `mapstructure:"type"` // "localfs" or "s3"
	Path string   `mapstructure:"path"` // For localfs
	S3   S3Config `mapstructure:"s3"`   // For S3
}

type S3Config struct {
	Bucket    string `mapstructure:"bucket"`
	Endpoint  string `mapstructure:"endpoint"`
	Region    string `mapstructure:"region"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Prefix    string `mapstructure:"prefix"`
}

type NotifierConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	BotToken string `mapstructure:"bot_token"`
	ChatID   string `mapstructure:"chat_id"`
}

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// Load reads configuration from file
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	// Support environment variable overrides
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	// Expand environment variables in string values
	for _, key := range v.AllKeys() {
		val := v.GetString(key)
		if strings.HasPrefix(val, "${") && strings.HasSuffix(val, "}") {
			envKey := strings.TrimSuffix(strings.TrimPrefix(val, "${"), "}")
			v.Set(key, os.Getenv(envKey))
		}
	}

	cfg := Defaults()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return cfg, nil
}

// Defaults returns a config with sensible defaults
func Defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Host:        "0.0.0.0",
			Port:        8080,
			JobTTLHours: 1,
			MaxJobs:     100,
		},
		Data: DataConfig{
			Type: "csv",
			Path: "historical_data",
		},
		Results: ResultsConfig{
			Type: "localfs",
			Path: "reports/backtest",
		},
		Backtest: backtest.DefaultConfig(),
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("port must be between 1 and 65535, got %d", c.Server.Port))
	}

	switch c.Data.Type {
	case "csv", "sqlite":
	default:
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("data type must be csv or sqlite, got %q", c.Data.Type))
	}
	if c.Data.Path == "" {
		return core.WrapError(core.ErrConfigMissing,
			fmt.Errorf("data path is required"))
	}

	switch c.Results.Type {
	case "localfs":
		if c.Results.Path == "" {
			return core.WrapError(core.ErrConfigMissing,
				fmt.Errorf("results path required for localfs"))
		}
	case "s3":
		if c.Results.S3.Bucket == "" {
			return core.WrapError(core.ErrConfigMissing,
				fmt.Errorf("s3 bucket required for s3 results"))
		}
	default:
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("results type must be localfs or s3, got %q", c.Results.Type))
	}

	return c.Backtest.Validate()
}
