package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/lesson-harvester/pkg/config"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.True(t, cfg.Headless)
	assert.True(t, cfg.InteractiveLogin)
	assert.Equal(t, 120*time.Second, cfg.NavigationTimeout)
	assert.Equal(t, 1500*time.Millisecond, cfg.SettleDelay)
	assert.Equal(t, 1200, cfg.ScrollStep)
	assert.Equal(t, 8, cfg.GradeScrollRounds)
	assert.Equal(t, 14, cfg.UnitScrollRounds)
	assert.Equal(t, 10, cfg.AncestorDepth)
	assert.Equal(t, "main", cfg.ContentRegionSelector)
	assert.Equal(t, "text", cfg.LinksFormat)
	assert.Equal(t, 48*time.Hour, cfg.HarvestedTTL)
	require.NoError(t, cfg.Validate())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("ROOT_URL", "https://classroom.example.com/collection/6802a76e907aef8d98d039a8")
	t.Setenv("UNIT_SCROLL_ROUNDS", "3")
	t.Setenv("SCROLL_WAIT", "50ms")
	t.Setenv("HEADLESS", "false")
	t.Setenv("INTERACTIVE_LOGIN", "false")
	t.Setenv("USER_AGENTS", "agent-a,agent-b")

	cfg, err := config.Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, "https://classroom.example.com/collection/6802a76e907aef8d98d039a8", cfg.RootURL)
	assert.Equal(t, 3, cfg.UnitScrollRounds)
	assert.Equal(t, 50*time.Millisecond, cfg.ScrollWait)
	assert.False(t, cfg.Headless)
	assert.False(t, cfg.InteractiveLogin)
	assert.Equal(t, []string{"agent-a", "agent-b"}, cfg.UserAgents)
}

func TestLoad_FlagsWinOverEnv(t *testing.T) {
	t.Setenv("CARDS_FILE", "from-env.csv")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("cards-file", "lesson_cards.csv", "")
	flags.Int("grade-scroll-rounds", 8, "")
	require.NoError(t, flags.Parse([]string{"--cards-file", "from-flag.csv"}))

	cfg, err := config.Load("", flags)
	require.NoError(t, err)

	assert.Equal(t, "from-flag.csv", cfg.CardsFile)
	// An unchanged flag does not shadow the default.
	assert.Equal(t, 8, cfg.GradeScrollRounds)
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "harvester.yaml")
	require.NoError(t, os.WriteFile(path, []byte("LINKS_FORMAT: python\nANCESTOR_DEPTH: 4\n"), 0o600))

	cfg, err := config.Load(path, nil)
	require.NoError(t, err)

	assert.Equal(t, "python", cfg.LinksFormat)
	assert.Equal(t, 4, cfg.AncestorDepth)
}

func TestLoad_MissingConfigFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	require.Error(t, err)
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	base := func(t *testing.T) *config.Config {
		t.Helper()
		cfg, err := config.Load("", nil)
		require.NoError(t, err)
		return cfg
	}

	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"zero navigation timeout", func(c *config.Config) { c.NavigationTimeout = 0 }},
		{"negative rounds", func(c *config.Config) { c.UnitScrollRounds = -1 }},
		{"bad activity pattern", func(c *config.Config) { c.ActivityPathPattern = "(" }},
		{"empty lesson pattern", func(c *config.Config) { c.LessonLabelPattern = "" }},
		{"unknown links format", func(c *config.Config) { c.LinksFormat = "xml" }},
		{"missing card selector", func(c *config.Config) { c.CardSelector = "" }},
	}

	for i := range tests {
		tt := &tests[i]
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := base(t)
			tt.mutate(cfg)
			require.Error(t, cfg.Validate())
		})
	}
}
