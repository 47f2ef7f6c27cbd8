package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/user/lesson-harvester/pkg/config"
)

var configFile string

var rootCmd = &cobra.Command{
	Use:          "harvester",
	Short:        "harvester walks a classroom lesson catalog and exports activity links and content cards.",
	SilenceUsage: true,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configFile, "config", "", "Optional config file (yaml, toml, json or env).")
	flags.String("log-level", "", "Log level: debug, info, warn or error.")
	flags.String("log-format", "", "Log format: json or console.")
	flags.Bool("progress", false, "Show a live progress spinner on stderr.")
	flags.String("root-url", "", "Grade page the catalog walk starts from.")
	flags.Bool("headless", true, "Run the browser without a window.")
	flags.String("profile-dir", "", "Persistent browser profile directory.")
	flags.String("storage-state", "", "Cookie storage-state file to restore and save.")
	flags.String("postgres-url", "", "Store cards and skipped nodes in PostgreSQL.")
	flags.String("redis-addr", "", "Remember harvested activities in Redis.")
	flags.String("metrics-addr", "", "Serve /metrics and /api/status on this address during the run.")
	flags.String("translate-endpoint", "", "OpenAI-compatible endpoint used to fill translated_text.")
	flags.String("translate-language", "", "Target language of translated_text.")
	flags.String("diagnostics-dir", "", "Directory for the DOM and screenshot of skipped nodes.")
}

// loadConfig resolves the configuration for cmd, with its flags taking
// precedence over the environment and the config file.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(configFile, cmd.Flags())
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
