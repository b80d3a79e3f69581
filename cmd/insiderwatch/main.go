// insiderwatch follows SEC EDGAR for new Form 4 insider filings, decodes
// them and stores the result.
//
// Main CLI entrypoint using cobra command framework.
package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/seenimoa/insiderwatch/internal/config"
	"github.com/seenimoa/insiderwatch/internal/edgar"
	"github.com/seenimoa/insiderwatch/internal/infra"
)

// Build-time variables (set via -ldflags).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Global config and logger, set up before any subcommand runs.
var (
	cfg    *config.Config
	logger *logrus.Logger
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "insiderwatch",
	Short: "insiderwatch - SEC Form 4 insider filing watcher",
	Long: `insiderwatch polls the EDGAR latest-filings feed for Form 4
(statement of changes in beneficial ownership) filings, decodes each
submission into reporters, issuer and transactions, and stores them.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		configFile, _ := cmd.Flags().GetString("config")
		if configFile != "" {
			cfg, err = config.LoadFromFile(configFile)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
			cfg.Logging.Level = lvl
		}
		logger, err = infra.NewLogger(cfg.Logging.Level, cfg.Logging.Format, os.Stderr)
		if err != nil {
			return fmt.Errorf("failed to set up logging: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level override (debug, info, warn, error)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(decodeCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(statusCmd)
}

func newClient() *edgar.Client {
	return edgar.NewClient(edgar.ClientOptions{
		UserAgent:         cfg.EDGAR.UserAgent,
		RequestsPerSecond: cfg.EDGAR.RequestsPerSecond,
		Timeout:           cfg.EDGAR.Timeout,
		Logger:            logrus.NewEntry(logger),
	})
}

// --- Version Command ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("insiderwatch %s\n", version)
		fmt.Printf("  commit:  %s\n", commit)
		fmt.Printf("  built:   %s\n", date)
	},
}

// --- Status Command ---

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the effective configuration and where each value came from",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("═══════════════════════════════════════")
		fmt.Println("  insiderwatch - Configuration")
		fmt.Println("═══════════════════════════════════════")
		fmt.Printf("  Version: %s (%s)\n\n", version, commit)

		for _, s := range config.Describe(cfg) {
			fmt.Printf("    %-27s %-8s %s\n", s.Key, s.Source, s.Value)
		}
		fmt.Println()

		if config.UsesDefaultUserAgent(cfg) {
			fmt.Printf("  ⚠️  edgar.user_agent is the placeholder; set %s to \"Company admin@company.com\".\n",
				config.EnvVar("edgar.user_agent"))
		}
		if err := cfg.Validate(); err != nil {
			fmt.Printf("  ❌ invalid configuration:\n%v\n", err)
		} else {
			fmt.Println("  ✅ configuration is valid")
		}
		fmt.Println("═══════════════════════════════════════")
		return nil
	},
}
