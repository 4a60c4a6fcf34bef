package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(nil)
	require.NoError(t, err)

	def := DefaultConfig()
	assert.Equal(t, def.DataDir, cfg.DataDir)
	assert.Equal(t, "file", cfg.Storage.Backend)
	assert.Equal(t, time.Second, cfg.Timer.TickInterval)
	assert.True(t, cfg.UI.Enabled)
	assert.True(t, cfg.Metrics.Enabled)
	assert.False(t, cfg.Treadmill.Enabled)
	assert.Equal(t, 15*time.Second, cfg.Treadmill.ConnectTimeout)
	assert.Equal(t, filepath.Join(cfg.DataDir, "interval-split.log"), cfg.Log.File)
	assert.Equal(t, 10, cfg.Log.MaxSizeMB)
}

func TestLoad_Flags(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load([]string{
		"--data-dir", dir,
		"--storage", "memory",
		"--tick", "250ms",
		"--ui=false",
		"--http", ":8080",
		"--plan", "plan.yaml",
		"--timezone", "Asia/Seoul",
	})
	require.NoError(t, err)

	assert.Equal(t, dir, cfg.DataDir)
	assert.Equal(t, "memory", cfg.Storage.Backend)
	assert.Equal(t, 250*time.Millisecond, cfg.Timer.TickInterval)
	assert.False(t, cfg.UI.Enabled)
	assert.Equal(t, ":8080", cfg.HTTP.Address)
	assert.Equal(t, "plan.yaml", cfg.PlanFile)
	assert.Equal(t, filepath.Join(dir, "interval-split.log"), cfg.Log.File)

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "Asia/Seoul", loc.String())
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("INTERVAL_SPLIT_STORAGE_BACKEND", "badger")
	t.Setenv("INTERVAL_SPLIT_HTTP_ADDRESS", "127.0.0.1:9000")

	cfg, err := Load(nil)
	require.NoError(t, err)
	assert.Equal(t, "badger", cfg.Storage.Backend)
	assert.Equal(t, "127.0.0.1:9000", cfg.HTTP.Address)

	// flags win over the environment
	cfg, err = Load([]string{"--storage", "memory"})
	require.NoError(t, err)
	assert.Equal(t, "memory", cfg.Storage.Backend)
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "interval-split.yaml")
	content := `
data_dir: ` + dir + `
storage:
  backend: memory
timer:
  tick_interval: 500ms
treadmill:
  enabled: true
  address: "F1:22:33:44:55:66"
  connect_timeout: 5s
log:
  max_backups: 7
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load([]string{"--config", path})
	require.NoError(t, err)
	assert.Equal(t, dir, cfg.DataDir)
	assert.Equal(t, "memory", cfg.Storage.Backend)
	assert.Equal(t, 500*time.Millisecond, cfg.Timer.TickInterval)
	assert.True(t, cfg.Treadmill.Enabled)
	assert.Equal(t, "F1:22:33:44:55:66", cfg.Treadmill.Address)
	assert.Equal(t, 5*time.Second, cfg.Treadmill.ConnectTimeout)
	assert.Equal(t, 7, cfg.Log.MaxBackups)
	assert.Equal(t, 10, cfg.Log.MaxSizeMB)

	_, err = Load([]string{"--config", filepath.Join(dir, "missing.yaml")})
	assert.Error(t, err)
}

func TestLoad_HelpFlag(t *testing.T) {
	_, err := Load([]string{"--help"})
	assert.ErrorIs(t, err, pflag.ErrHelp)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"unknown backend", func(c *Config) { c.Storage.Backend = "floppy" }, "storage.backend"},
		{"zero tick", func(c *Config) { c.Timer.TickInterval = 0 }, "tick_interval"},
		{"bad timezone", func(c *Config) { c.Stats.Timezone = "Mars/Olympus" }, "stats.timezone"},
		{"treadmill without address", func(c *Config) { c.Treadmill.Enabled = true }, "treadmill.address"},
		{"nothing to run", func(c *Config) { c.UI.Enabled = false }, "nothing to run"},
		{"empty data dir", func(c *Config) { c.DataDir = "" }, "data_dir"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.ErrorIs(t, err, ErrInvalidConfig)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}

	assert.NoError(t, DefaultConfig().Validate())
}
