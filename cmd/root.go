// Package cmd defines the CLI commands for the topcv-crawler executable.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/minhtran-vn/topcv-crawler/internal/config"
	"github.com/minhtran-vn/topcv-crawler/internal/logging"
)

var cfgFile string

// newRootCmd creates and configures the root command.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "topcv-crawler",
		Short: "Harvests IT job listings from TopCV into dated datasets.",
		Long: `topcv-crawler walks TopCV search results for a configured keyword
list, extracts each listing's detail and company fields, and assembles
per-keyword and combined datasets stamped with the crawl date. Assembled
artifacts can optionally be handed to a storage uploader.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path (optional)")
	cmd.AddCommand(newCrawlCmd())
	return cmd
}

// loadConfig reads the config file named by --config (or defaults plus
// environment when unset) and builds the logger from it.
func loadConfig() (config.Config, *zap.Logger, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return config.Config{}, nil, err
	}
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, logger, nil
}

// Execute is the main entry point.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
