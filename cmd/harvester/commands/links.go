package commands

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// linksOptions writes only the link list.
var linksOptions = appOptions{}

func init() {
	linksCmd.Flags().String("links-file", "", "File the activity links are written to.")
	linksCmd.Flags().String("links-format", "", "Link list format: text, python or json.")
	rootCmd.AddCommand(linksCmd)
}

var linksCmd = &cobra.Command{
	Use:   "links [root-url]",
	Short: "Walks the catalog and writes the unique activity links in discovery order.",
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

		a, err := newApp(cmd.Context(), cfg, linksOptions)
		if err != nil {
			return err
		}
		defer a.close()

		return a.execute(cmd.Context(), func(ctx context.Context) error {
			nodes, err := a.harvester.DiscoverActivities(ctx, root)
			if err != nil {
				return err
			}
			a.logger.Info("Activity links written",
				zap.Int("count", len(nodes)),
				zap.String("path", cfg.LinksFile),
				zap.String("format", cfg.LinksFormat),
			)
			return nil
		})
	},
}
