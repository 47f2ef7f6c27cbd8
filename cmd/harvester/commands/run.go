package commands

import (
	"context"

	"github.com/spf13/cobra"
)

var runAppend bool

func init() {
	runCmd.Flags().BoolVar(&runAppend, "append", false, "Append to CARDS_FILE instead of replacing it.")
	runCmd.Flags().Bool("force", false, "Re-extract activities already marked as harvested.")
	rootCmd.AddCommand(runCmd)
}

var runCmd = &cobra.Command{
	Use:   "run [root-url]",
	Short: "Walks the catalog, writes the activity links and extracts every activity's cards.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		root, err := rootURL(cfg, args)
		if err != nil {
			return err
		}

		a, err := newApp(cmd.Context(), cfg, appOptions{withCards: true, appendCards: runAppend})
		if err != nil {
			return err
		}
		defer a.close()

		return a.execute(cmd.Context(), func(ctx context.Context) error {
			return a.harvester.Run(ctx, root)
		})
	},
}
