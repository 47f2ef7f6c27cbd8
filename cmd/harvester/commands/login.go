package commands

import (
	"errors"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func init() {
	loginCmd.Flags().String("login-url", "", "Page to log in on. Defaults to the origin of ROOT_URL.")
	rootCmd.AddCommand(loginCmd)
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Opens a browser window to log in and saves the session cookies to STORAGE_STATE.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if cfg.StorageState == "" && cfg.ProfileDir == "" {
			return errors.New("login needs STORAGE_STATE or PROFILE_DIR to keep the session")
		}

		log, err := newLogger(cfg)
		if err != nil {
			return err
		}
		defer func() { _ = log.Sync() }()

		browser, err := newBrowser(cfg, log, false)
		if err != nil {
			return err
		}
		defer func() {
			if err := browser.Close(); err != nil {
				log.Warn("Failed to close browser", zap.Error(err))
			}
		}()

		session, err := newSession(browser, cfg, log).Login(cmd.Context())
		if err != nil {
			return err
		}
		log.Info("Login complete", zap.String("source", session.Source), zap.String("path", session.Path), zap.Int("cookies", session.Cookies))
		return nil
	},
}
