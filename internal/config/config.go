// Package config loads settings from flags, environment and an optional file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/lowaak/interval-split/internal/storage"
)

// EnvPrefix is prepended to every environment variable, e.g.
// INTERVAL_SPLIT_STORAGE_BACKEND
const EnvPrefix = "INTERVAL_SPLIT"

var ErrInvalidConfig = errors.New("invalid config")

type StorageConfig struct {
	Backend string `mapstructure:"backend"`
}

type TimerConfig struct {
	TickInterval time.Duration `mapstructure:"tick_interval"`
}

type StatsConfig struct {
	Timezone string `mapstructure:"timezone"` // IANA name, empty means UTC
}

type UIConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

type HTTPConfig struct {
	Address string `mapstructure:"address"` // empty disables the server
}

type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

type TreadmillConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	Address        string        `mapstructure:"address"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
}

type LogConfig struct {
	File       string `mapstructure:"file"` // empty means <data_dir>/interval-split.log
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

// Config is the full application configuration
type Config struct {
	DataDir   string          `mapstructure:"data_dir"`
	PlanFile  string          `mapstructure:"plan_file"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Timer     TimerConfig     `mapstructure:"timer"`
	Stats     StatsConfig     `mapstructure:"stats"`
	UI        UIConfig        `mapstructure:"ui"`
	HTTP      HTTPConfig      `mapstructure:"http"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Treadmill TreadmillConfig `mapstructure:"treadmill"`
	Log       LogConfig       `mapstructure:"log"`
}

func DefaultConfig() Config {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}
	return Config{
		DataDir: filepath.Join(homeDir, ".interval-split"),
		Storage: StorageConfig{Backend: storage.BackendFile},
		Timer:   TimerConfig{TickInterval: time.Second},
		UI:      UIConfig{Enabled: true},
		Metrics: MetricsConfig{Enabled: true},
		Treadmill: TreadmillConfig{
			ConnectTimeout: 15 * time.Second,
		},
		Log: LogConfig{
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
	}
}

// Load parses args (without the program name) and merges, from lowest to
// highest priority: defaults, config file, environment, flags.
func Load(args []string) (Config, error) {
	def := DefaultConfig()

	fs := pflag.NewFlagSet("interval-split", pflag.ContinueOnError)
	configFile := fs.StringP("config", "c", "", "path to a YAML config file")
	fs.String("data-dir", def.DataDir, "directory for plan, history and logs")
	fs.String("storage", def.Storage.Backend, "storage backend: "+strings.Join(storage.Backends, ", "))
	fs.StringP("plan", "p", "", "load the plan from a YAML or JSON file instead of the store")
	fs.Duration("tick", def.Timer.TickInterval, "duration of one timer second")
	fs.String("timezone", def.Stats.Timezone, "timezone for daily history grouping")
	fs.Bool("ui", def.UI.Enabled, "run the terminal UI")
	fs.String("http", def.HTTP.Address, "HTTP API listen address, empty to disable")
	fs.Bool("metrics", def.Metrics.Enabled, "expose prometheus metrics on the HTTP API")
	fs.Bool("treadmill", def.Treadmill.Enabled, "drive an FTMS treadmill over bluetooth")
	fs.String("treadmill-address", def.Treadmill.Address, "bluetooth address of the treadmill")
	fs.String("log-file", def.Log.File, "log file path")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	v := viper.New()
	setDefaults(v, def)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	bindings := map[string]string{
		"data_dir":            "data-dir",
		"storage.backend":     "storage",
		"plan_file":           "plan",
		"timer.tick_interval": "tick",
		"stats.timezone":      "timezone",
		"ui.enabled":          "ui",
		"http.address":        "http",
		"metrics.enabled":     "metrics",
		"treadmill.enabled":   "treadmill",
		"treadmill.address":   "treadmill-address",
		"log.file":            "log-file",
	}
	for key, flag := range bindings {
		if err := v.BindPFlag(key, fs.Lookup(flag)); err != nil {
			return Config{}, fmt.Errorf("bind flag %s: %w", flag, err)
		}
	}

	if *configFile != "" {
		v.SetConfigFile(*configFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", *configFile, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if cfg.Log.File == "" {
		cfg.Log.File = filepath.Join(cfg.DataDir, "interval-split.log")
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper, def Config) {
	v.SetDefault("data_dir", def.DataDir)
	v.SetDefault("plan_file", def.PlanFile)
	v.SetDefault("storage.backend", def.Storage.Backend)
	v.SetDefault("timer.tick_interval", def.Timer.TickInterval)
	v.SetDefault("stats.timezone", def.Stats.Timezone)
	v.SetDefault("ui.enabled", def.UI.Enabled)
	v.SetDefault("http.address", def.HTTP.Address)
	v.SetDefault("metrics.enabled", def.Metrics.Enabled)
	v.SetDefault("treadmill.enabled", def.Treadmill.Enabled)
	v.SetDefault("treadmill.address", def.Treadmill.Address)
	v.SetDefault("treadmill.connect_timeout", def.Treadmill.ConnectTimeout)
	v.SetDefault("log.file", def.Log.File)
	v.SetDefault("log.max_size_mb", def.Log.MaxSizeMB)
	v.SetDefault("log.max_backups", def.Log.MaxBackups)
	v.SetDefault("log.max_age_days", def.Log.MaxAgeDays)
}

// Validate reports every problem found, joined
func (c Config) Validate() error {
	var errs []error
	if c.DataDir == "" {
		errs = append(errs, errors.New("data_dir is required"))
	}
	if !slices.Contains(storage.Backends, c.Storage.Backend) {
		errs = append(errs, fmt.Errorf("storage.backend %q is not one of %s", c.Storage.Backend, strings.Join(storage.Backends, ", ")))
	}
	if c.Timer.TickInterval <= 0 {
		errs = append(errs, fmt.Errorf("timer.tick_interval must be positive, got %s", c.Timer.TickInterval))
	}
	if _, err := c.Location(); err != nil {
		errs = append(errs, err)
	}
	if c.Treadmill.Enabled && c.Treadmill.Address == "" {
		errs = append(errs, errors.New("treadmill.address is required when the treadmill is enabled"))
	}
	if c.Treadmill.ConnectTimeout <= 0 {
		errs = append(errs, errors.New("treadmill.connect_timeout must be positive"))
	}
	if !c.UI.Enabled && c.HTTP.Address == "" {
		errs = append(errs, errors.New("nothing to run: enable the UI or set http.address"))
	}
	if c.Log.MaxSizeMB <= 0 {
		errs = append(errs, errors.New("log.max_size_mb must be positive"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

// Location resolves the statistics timezone. Empty means UTC.
func (c Config) Location() (*time.Location, error) {
	if c.Stats.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Stats.Timezone)
	if err != nil {
		return nil, fmt.Errorf("stats.timezone: %w", err)
	}
	return loc, nil
}
