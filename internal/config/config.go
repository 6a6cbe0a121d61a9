package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// DefaultSourceURL is the Kaggle download endpoint of the incident dataset.
const DefaultSourceURL = "https://www.kaggle.com/api/v1/datasets/download/mohamedramadan2040/education-in-danger-incident-data-2020-to2025"

// DefaultSourceFile is the workbook name inside the Kaggle archive.
const DefaultSourceFile = "2020-2025-education-in-danger-incident-data.xlsx"

// Global configuration structure.
type Global struct {
	// Data source. SourcePath wins over SourceURL when set.
	SourcePath string `mapstructure:"source_path" yaml:"source_path"`
	SourceURL  string `mapstructure:"source_url" yaml:"source_url"`
	SourceFile string `mapstructure:"source_file" yaml:"source_file"`
	SheetName  string `mapstructure:"sheet_name" yaml:"sheet_name"`
	CacheDir   string `mapstructure:"cache_dir" yaml:"cache_dir"`

	KaggleUsername string `mapstructure:"kaggle_username" yaml:"kaggle_username"`
	KaggleKey      string `mapstructure:"kaggle_key" yaml:"kaggle_key"`

	// HTTP/Retry configuration
	HTTPTimeoutSec   int `mapstructure:"http_timeout_sec" yaml:"http_timeout_sec"`
	RetryMaxAttempts int `mapstructure:"retry_max_attempts" yaml:"retry_max_attempts"`
	RetryBaseDelayMs int `mapstructure:"retry_base_delay_ms" yaml:"retry_base_delay_ms"`
	RetryMaxDelayMs  int `mapstructure:"retry_max_delay_ms" yaml:"retry_max_delay_ms"`

	// Clustering
	Clusters      int `mapstructure:"clusters" yaml:"clusters"`
	MaxIterations int `mapstructure:"max_iterations" yaml:"max_iterations"`

	// Presentation
	DefaultCountries []string `mapstructure:"default_countries" yaml:"default_countries"`

	LogLevel  string `mapstructure:"log_level" yaml:"log_level"`
	LogFormat string `mapstructure:"log_format" yaml:"log_format"`

	ServerAddr string `mapstructure:"server_addr" yaml:"server_addr"`
	// RefreshSchedule is a cron spec for reloading the dataset while serving;
	// empty disables it.
	RefreshSchedule string `mapstructure:"refresh_schedule" yaml:"refresh_schedule"`
}

func configDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".edudanger"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.edudanger/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		dir, err := configDir()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from .env, file, env, and defaults.
// Precedence: flags (cfgFile) > env > config file > defaults.
func Load(cfgFile string) (*Global, error) {
	// .env in the working directory is optional
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix("EDUDANGER")
	v.AutomaticEnv()

	v.SetDefault("source_path", "")
	v.SetDefault("source_url", DefaultSourceURL)
	v.SetDefault("source_file", DefaultSourceFile)
	v.SetDefault("sheet_name", "")
	v.SetDefault("cache_dir", "")
	v.SetDefault("kaggle_username", "")
	v.SetDefault("kaggle_key", "")
	// HTTP/retry defaults
	v.SetDefault("http_timeout_sec", 60)
	v.SetDefault("retry_max_attempts", 3)
	v.SetDefault("retry_base_delay_ms", 500)
	v.SetDefault("retry_max_delay_ms", 4000)
	v.SetDefault("clusters", 4)
	v.SetDefault("max_iterations", 300)
	v.SetDefault("default_countries", []string{"Ukraine", "Myanmar", "OPT", "Nigeria"})
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "console")
	v.SetDefault("server_addr", ":8080")
	v.SetDefault("refresh_schedule", "")

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		dir, err := configDir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil {
		var nf viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &nf) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if c.CacheDir == "" {
		dir, err := configDir()
		if err != nil {
			return nil, err
		}
		c.CacheDir = filepath.Join(dir, "data")
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate rejects settings no command can run with.
func (c *Global) Validate() error {
	if c.Clusters < 2 {
		return fmt.Errorf("invalid config: clusters must be at least 2, got %d", c.Clusters)
	}
	if c.MaxIterations < 1 {
		return fmt.Errorf("invalid config: max_iterations must be positive, got %d", c.MaxIterations)
	}
	if c.RetryMaxDelayMs < c.RetryBaseDelayMs {
		return fmt.Errorf("invalid config: retry_max_delay_ms (%d) is below retry_base_delay_ms (%d)", c.RetryMaxDelayMs, c.RetryBaseDelayMs)
	}
	switch c.LogFormat {
	case "console", "json":
	default:
		return fmt.Errorf("invalid config: log_format %q (want console or json)", c.LogFormat)
	}
	if c.SourcePath == "" && c.SourceURL == "" {
		return errors.New("invalid config: one of source_path or source_url is required")
	}
	return nil
}
