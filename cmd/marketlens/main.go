package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/marketlens/internal/app"
	"github.com/ternarybob/marketlens/internal/common"
)

var (
	// Command-line flags
	configFiles []string
	logLevel    string
	searchMode  string
	showBanner  bool

	// Global state
	config      *common.Config
	logger      arbor.ILogger
	application *app.App
)

var rootCmd = &cobra.Command{
	Use:   "marketlens",
	Short: "Market analysis pipeline",
	Long: `MarketLens runs staged market analyses: web research, a core analysis by variant,
optional enrichments, and consolidation into a fixed set of report sections.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().StringSliceVarP(&configFiles, "config", "c", nil, "Configuration file path (can be specified multiple times, later files override earlier ones)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (overrides config)")
	rootCmd.PersistentFlags().StringVar(&searchMode, "search", "", "Search mode: gemini or disabled (overrides config)")
	rootCmd.PersistentFlags().BoolVar(&showBanner, "banner", false, "Print the startup banner")

	rootCmd.AddCommand(runCmd, historyCmd, showCmd, exportCmd, deleteCmd, versionCmd)
}

// setup follows the startup order: config files, env, CLI overrides, logger, banner, app
func setup(cmd *cobra.Command, args []string) error {
	if cmd == versionCmd {
		return nil
	}

	// Auto-discover config file if not specified
	if len(configFiles) == 0 {
		if _, err := os.Stat("marketlens.toml"); err == nil {
			configFiles = append(configFiles, "marketlens.toml")
		}
	}

	var err error
	config, err = common.LoadFromFiles(configFiles...)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	common.ApplyFlagOverrides(config, logLevel, searchMode)

	logger = common.InitLogger(config)

	if showBanner {
		common.PrintBanner(config)
	}

	logger.Debug().
		Strs("config_files", configFiles).
		Str("search_mode", config.Search.Mode).
		Str("badger_path", config.Storage.Badger.Path).
		Str("log_level", config.Logging.Level).
		Str("log_file", common.LogFilePath(config.Logging)).
		Msg("Resolved configuration")

	application, err = app.New(config, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)

	if application != nil {
		if closeErr := application.Close(); closeErr != nil {
			logger.Warn().Err(closeErr).Msg("Failed to close application")
		}
	}
	if err != nil {
		os.Exit(1)
	}
}
