package cmd

import (
	"fmt"
	"os"
	"strings"

	cfgpkg "github.com/KaramelBytes/edudanger-cli/internal/config"
	"github.com/KaramelBytes/edudanger-cli/internal/logging"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile       string
	debug         bool
	flagSource    string
	flagSheetName string
	flagLogFormat string
	// HTTP flags (override config if set)
	flagHTTPTimeoutSec   int
	flagRetryMaxAttempts int

	// Loaded configuration
	cfg    *cfgpkg.Global
	cfgErr error

	logger = zerolog.Nop()
)

var rootCmd = &cobra.Command{
	Use:   "edudanger",
	Short: "Explore attacks on education in conflict zones",
	Long: `edudanger loads the Education in Danger incident dataset (2020-2025), cleans it,
and lets you filter, summarize, cluster and map incidents from the terminal or over HTTP.`,
	SilenceUsage: true,
}

// Execute is the entry point called by main.main()
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(loadConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.edudanger/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&flagSource, "source", "", "workbook path or download URL (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagSheetName, "sheet-name", "", "XLSX: sheet to read (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagLogFormat, "log-format", "", "log format: console | json (overrides config)")
	rootCmd.PersistentFlags().IntVar(&flagHTTPTimeoutSec, "http-timeout", 0, "HTTP client timeout in seconds (overrides config)")
	rootCmd.PersistentFlags().IntVar(&flagRetryMaxAttempts, "retry-max", 0, "max retry attempts on 429/5xx (overrides config)")
}

func loadConfig() {
	cfg, cfgErr = cfgpkg.Load(cfgFile)
	if cfgErr != nil {
		// Non-fatal: config show/set still work
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", cfgErr)
		logger = newLogger("info", "console")
		return
	}

	// Apply CLI overrides if provided
	f := rootCmd.PersistentFlags()
	if f.Changed("source") && flagSource != "" {
		if isURL(flagSource) {
			cfg.SourceURL, cfg.SourcePath = flagSource, ""
		} else {
			cfg.SourcePath = flagSource
		}
	}
	if f.Changed("sheet-name") {
		cfg.SheetName = flagSheetName
	}
	if f.Changed("log-format") && flagLogFormat != "" {
		cfg.LogFormat = flagLogFormat
	}
	if f.Changed("http-timeout") && flagHTTPTimeoutSec > 0 {
		cfg.HTTPTimeoutSec = flagHTTPTimeoutSec
	}
	if f.Changed("retry-max") && flagRetryMaxAttempts > 0 {
		cfg.RetryMaxAttempts = flagRetryMaxAttempts
	}
	logger = newLogger(cfg.LogLevel, cfg.LogFormat)
}

func newLogger(level, format string) zerolog.Logger {
	l, err := logging.New(logging.Options{Level: level, Format: format, Debug: debug})
	if err != nil {
		fmt.Fprintf(os.Stderr, "⚠ Warning: %v; using console logging\n", err)
		l, _ = logging.New(logging.Options{Debug: debug})
	}
	return l
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
