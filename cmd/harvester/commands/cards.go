package commands

import (
	"context"
	"errors"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/user/lesson-harvester/internal/adapter/filesystem"
)

var (
	cardsSeeds  string
	cardsAppend bool
)

func init() {
	cardsCmd.Flags().StringVar(&cardsSeeds, "seeds", "", "Seed file of activity URLs (text, python or json). Defaults to LINKS_FILE.")
	cardsCmd.Flags().BoolVar(&cardsAppend, "append", false, "Append to CARDS_FILE instead of replacing it.")
	cardsCmd.Flags().String("cards-file", "", "CSV file the content cards are written to.")
	rootCmd.AddCommand(cardsCmd)
}

var cardsCmd = &cobra.Command{
	Use:   "cards [activity-url...]",
	Short: "Extracts the content cards of the given activity pages.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		seeds := args
		if len(seeds) == 0 {
			path := cardsSeeds
			if path == "" {
				path = cfg.LinksFile
			}
			seeds, err = filesystem.ReadSeeds(path)
			if err != nil {
				return err
			}
		}
		if len(seeds) == 0 {
			return errors.New("no activity URLs to extract")
		}

		a, err := newApp(cmd.Context(), cfg, appOptions{withCards: true, appendCards: cardsAppend})
		if err != nil {
			return err
		}
		defer a.close()

		a.logger.Info("Extracting cards", zap.Int("seeds", len(seeds)), zap.String("path", cfg.CardsFile))
		return a.execute(cmd.Context(), func(ctx context.Context) error {
			return a.harvester.ExtractCards(ctx, seeds)
		})
	},
}
