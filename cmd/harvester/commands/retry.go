package commands

import (
	"context"

	"github.com/spf13/cobra"
)

var retryLimit int

func init() {
	retryCmd.Flags().IntVar(&retryLimit, "limit", 100, "Maximum number of skipped activities to retry.")
	rootCmd.AddCommand(retryCmd)
}

var retryCmd = &cobra.Command{
	Use:   "retry",
	Short: "Re-extracts activities that earlier runs recorded as skipped (requires POSTGRES_URL).",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		a, err := newApp(cmd.Context(), cfg, appOptions{withCards: true, appendCards: true, requireSkippedStore: true})
		if err != nil {
			return err
		}
		defer a.close()

		return a.execute(cmd.Context(), func(ctx context.Context) error {
			return a.harvester.RetrySkipped(ctx, retryLimit)
		})
	},
}
