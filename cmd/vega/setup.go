package main

import (
	"fmt"

	"github.com/karanvs/vega/internal/backtest"
	"github.com/karanvs/vega/internal/config"
	"github.com/karanvs/vega/internal/data"
	"github.com/karanvs/vega/internal/notifier"
	"github.com/karanvs/vega/internal/notifier/telegram"
	"github.com/karanvs/vega/internal/storage/archive"
	"github.com/karanvs/vega/internal/strategy"
	macrossover "github.com/karanvs/vega/internal/strategy/ma_crossover"
	"go.uber.org/zap"
)

// loadConfig reads the config file, or falls back to defaults when no
// file was given.
func loadConfig(log *zap.Logger) (*config.Config, error) {
	if cfgFile == "" {
		log.Warn("no config file specified, using defaults")
		cfg := config.Defaults()
		return cfg, cfg.Validate()
	}

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// buildProvider constructs the configured bar source. The returned close
// function releases any underlying handles.
func buildProvider(cfg *config.Config, log *zap.Logger) (backtest.BarProvider, func() error, error) {
	switch cfg.Data.Type {
	case "sqlite":
		p, err := data.NewSQLiteProvider(cfg.Data.Path, log)
		if err != nil {
			return nil, nil, err
		}
		return p, p.Close, nil
	default:
		return data.NewCSVProvider(cfg.Data.Path, log), func() error { return nil }, nil
	}
}

// buildStore constructs the configured results archive.
func buildStore(cfg *config.Config) (archive.Storage, error) {
	if cfg.Results.Type == "s3" {
		return archive.NewS3(archive.S3Config{
			Bucket:    cfg.Results.S3.Bucket,
			Endpoint:  cfg.Results.S3.Endpoint,
			Region:    cfg.Results.S3.Region,
			AccessKey: cfg.Results.S3.AccessKey,
			SecretKey: cfg.Results.S3.SecretKey,
			Prefix:    cfg.Results.S3.Prefix,
		})
	}
	return archive.NewLocalFS(cfg.Results.Path)
}

// buildStrategies registers the built-in strategies.
func buildStrategies() *strategy.Registry {
	reg := strategy.NewRegistry()
	reg.Register(macrossover.Name, macrossover.Eval)
	return reg
}

// buildNotifiers wires enabled notifier channels from config.
func buildNotifiers(cfg *config.Config, log *zap.Logger) *notifier.Registry {
	reg := notifier.NewRegistry()

	for name, nc := range cfg.Notifiers {
		if !nc.Enabled {
			continue
		}
		switch name {
		case "telegram":
			t := telegram.New(nc.BotToken, nc.ChatID)
			if err := t.Init(notifier.Config{Type: name, Params: map[string]any{
				"bot_token": nc.BotToken,
				"chat_id":   nc.ChatID,
			}}); err != nil {
				log.Warn("skipping notifier", zap.String("notifier", name), zap.Error(err))
				continue
			}
			reg.Register(t)
		default:
			log.Warn("unknown notifier type", zap.String("notifier", name))
		}
	}
	return reg
}
