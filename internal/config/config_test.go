package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/karanvs/vega/internal/config"
	"github.com/karanvs/vega/internal/core"
)

func TestDefaults(t *testing.T) {
	cfg := config.Defaults()

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "csv", cfg.Data.Type)
	assert.Equal(t, "localfs", cfg.Results.Type)
	assert.Equal(t, "/metrics", cfg.Metrics.Path)
	assert.True(t, cfg.Metrics.Enabled)

	require.NoError(t, cfg.Validate(), "defaults must validate")
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
server:
  port: 9090
  max_jobs: 50
data:
  type: sqlite
  path: bars.db
backtest:
  initial_capital: 500000
  commission_pct: 0.001
notifiers:
  telegram:
    enabled: true
    bot_token: "test-token"
    chat_id: "12345"
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 50, cfg.Server.MaxJobs)
	assert.Equal(t, "sqlite", cfg.Data.Type)
	assert.Equal(t, "bars.db", cfg.Data.Path)
	assert.Equal(t, 500000.0, cfg.Backtest.InitialCapital)
	assert.Equal(t, 0.001, cfg.Backtest.CommissionPct)

	// Values the file does not mention keep their defaults.
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, "localfs", cfg.Results.Type)

	tg, ok := cfg.Notifiers["telegram"]
	require.True(t, ok)
	assert.True(t, tg.Enabled)
	assert.Equal(t, "test-token", tg.BotToken)
}

func TestLoad_ExpandsEnvVars(t *testing.T) {
	t.Setenv("VEGA_TEST_TOKEN", "secret-from-env")

	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
notifiers:
  telegram:
    enabled: true
    bot_token: "${VEGA_TEST_TOKEN}"
    chat_id: "12345"
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "secret-from-env", cfg.Notifiers["telegram"].BotToken)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*config.Config)
		wantErr error
	}{
		{
			name:    "bad port",
			mutate:  func(c *config.Config) { c.Server.Port = 0 },
			wantErr: core.ErrConfigInvalid,
		},
		{
			name:    "unknown data type",
			mutate:  func(c *config.Config) { c.Data.Type = "postgres" },
			wantErr: core.ErrConfigInvalid,
		},
		{
			name:    "missing data path",
			mutate:  func(c *config.Config) { c.Data.Path = "" },
			wantErr: core.ErrConfigMissing,
		},
		{
			name:    "unknown results type",
			mutate:  func(c *config.Config) { c.Results.Type = "gcs" },
			wantErr: core.ErrConfigInvalid,
		},
		{
			name: "s3 without bucket",
			mutate: func(c *config.Config) {
				c.Results.Type = "s3"
				c.Results.S3.Bucket = ""
			},
			wantErr: core.ErrConfigMissing,
		},
		{
			name:    "missing localfs results path",
			mutate:  func(c *config.Config) { c.Results.Path = "" },
			wantErr: core.ErrConfigMissing,
		},
		{
			name:    "invalid backtest settings",
			mutate:  func(c *config.Config) { c.Backtest.InitialCapital = -1 },
			wantErr: core.ErrConfigInvalid,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Defaults()
			tt.mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), tt.wantErr)
		})
	}
}

func TestValidate_S3Results(t *testing.T) {
	cfg := config.Defaults()
	cfg.Results.Type = "s3"
	cfg.Results.S3.Bucket = "vega-results"

	assert.NoError(t, cfg.Validate())
}
