package cmd

import (
	"fmt"
	"strconv"
	"strings"

	cfgpkg "github.com/KaramelBytes/edudanger-cli/internal/config"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set edudanger configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg == nil {
			fmt.Println("No config loaded")
			return nil
		}
		fmt.Printf("source_path: %s\n", cfg.SourcePath)
		fmt.Printf("source_url: %s\n", cfg.SourceURL)
		fmt.Printf("source_file: %s\n", cfg.SourceFile)
		if cfg.SheetName != "" {
			fmt.Printf("sheet_name: %s\n", cfg.SheetName)
		}
		fmt.Printf("cache_dir: %s\n", cfg.CacheDir)
		fmt.Printf("kaggle_username: %s\n", cfg.KaggleUsername)
		fmt.Printf("kaggle_key: %s\n", mask(cfg.KaggleKey))
		fmt.Printf("http_timeout_sec: %d\n", cfg.HTTPTimeoutSec)
		fmt.Printf("retry_max_attempts: %d\n", cfg.RetryMaxAttempts)
		fmt.Printf("retry_base_delay_ms: %d\n", cfg.RetryBaseDelayMs)
		fmt.Printf("retry_max_delay_ms: %d\n", cfg.RetryMaxDelayMs)
		fmt.Printf("clusters: %d\n", cfg.Clusters)
		fmt.Printf("max_iterations: %d\n", cfg.MaxIterations)
		fmt.Printf("default_countries: %s\n", strings.Join(cfg.DefaultCountries, ", "))
		fmt.Printf("log_level: %s\n", cfg.LogLevel)
		fmt.Printf("log_format: %s\n", cfg.LogFormat)
		fmt.Printf("server_addr: %s\n", cfg.ServerAddr)
		if cfg.RefreshSchedule != "" {
			fmt.Printf("refresh_schedule: %s\n", cfg.RefreshSchedule)
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, val := args[0], args[1]
		if cfg == nil {
			c, err := cfgpkg.Load(cfgFile)
			if err != nil {
				return err
			}
			cfg = c
		}
		positive := func(name string) (int, error) {
			i, err := strconv.Atoi(val)
			if err != nil || i < 1 {
				return 0, fmt.Errorf("invalid int for %s: %v", name, val)
			}
			return i, nil
		}
		var err error
		switch key {
		case "source_path":
			cfg.SourcePath = val
		case "source_url":
			cfg.SourceURL = val
		case "source_file":
			cfg.SourceFile = val
		case "sheet_name":
			cfg.SheetName = val
		case "cache_dir":
			cfg.CacheDir = val
		case "kaggle_username":
			cfg.KaggleUsername = val
		case "kaggle_key":
			cfg.KaggleKey = val
		case "http_timeout_sec":
			cfg.HTTPTimeoutSec, err = positive(key)
		case "retry_max_attempts":
			cfg.RetryMaxAttempts, err = positive(key)
		case "retry_base_delay_ms":
			cfg.RetryBaseDelayMs, err = positive(key)
		case "retry_max_delay_ms":
			cfg.RetryMaxDelayMs, err = positive(key)
		case "clusters":
			cfg.Clusters, err = positive(key)
		case "max_iterations":
			cfg.MaxIterations, err = positive(key)
		case "default_countries":
			var list []string
			for _, c := range strings.Split(val, ",") {
				if c = strings.TrimSpace(c); c != "" {
					list = append(list, c)
				}
			}
			cfg.DefaultCountries = list
		case "log_level":
			cfg.LogLevel = strings.ToLower(val)
		case "log_format":
			cfg.LogFormat = strings.ToLower(val)
		case "server_addr":
			cfg.ServerAddr = val
		case "refresh_schedule":
			cfg.RefreshSchedule = val
		default:
			return fmt.Errorf("unknown key: %s", key)
		}
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		if err := cfgpkg.Save(cfg, cfgFile); err != nil {
			return err
		}
		fmt.Println("✓ Saved config")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 6 {
		return "******"
	}
	return s[:3] + "****" + s[len(s)-3:]
}
