package config

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds the application configuration.
type Config struct {
	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogFormat string `mapstructure:"LOG_FORMAT"`
	Progress  bool   `mapstructure:"PROGRESS"`

	RootURL        string `mapstructure:"ROOT_URL"`
	LinksFile      string `mapstructure:"LINKS_FILE"`
	LinksFormat    string `mapstructure:"LINKS_FORMAT"`
	CardsFile      string `mapstructure:"CARDS_FILE"`
	DiagnosticsDir string `mapstructure:"DIAGNOSTICS_DIR"`

	// Browser and session
	Headless         bool     `mapstructure:"HEADLESS"`
	ProfileDir       string   `mapstructure:"PROFILE_DIR"`
	StorageState     string   `mapstructure:"STORAGE_STATE"`
	InteractiveLogin bool     `mapstructure:"INTERACTIVE_LOGIN"`
	LoginURL         string   `mapstructure:"LOGIN_URL"`
	UserAgents       []string `mapstructure:"USER_AGENTS"`
	ProxyServers     []string `mapstructure:"PROXY_SERVERS"`

	// Waiting and stabilization
	NavigationTimeout      time.Duration `mapstructure:"NAVIGATION_TIMEOUT"`
	StructureTimeout       time.Duration `mapstructure:"STRUCTURE_TIMEOUT"`
	SettleDelay            time.Duration `mapstructure:"SETTLE_DELAY"`
	ScrollStep             int           `mapstructure:"SCROLL_STEP"`
	ScrollWait             time.Duration `mapstructure:"SCROLL_WAIT"`
	GradeScrollRounds      int           `mapstructure:"GRADE_SCROLL_ROUNDS"`
	UnitScrollRounds       int           `mapstructure:"UNIT_SCROLL_ROUNDS"`
	CollectionScrollRounds int           `mapstructure:"COLLECTION_SCROLL_ROUNDS"`
	ActivityScrollRounds   int           `mapstructure:"ACTIVITY_SCROLL_ROUNDS"`

	// Classification
	AncestorDepth         int    `mapstructure:"ANCESTOR_DEPTH"`
	ContentRegionSelector string `mapstructure:"CONTENT_REGION_SELECTOR"`
	ActivityPathPattern   string `mapstructure:"ACTIVITY_PATH_PATTERN"`
	CollectionPathPattern string `mapstructure:"COLLECTION_PATH_PATTERN"`
	UnitLabelPattern      string `mapstructure:"UNIT_LABEL_PATTERN"`
	LessonLabelPattern    string `mapstructure:"LESSON_LABEL_PATTERN"`

	// Extraction
	CardSelector    string `mapstructure:"CARD_SELECTOR"`
	StepSelector    string `mapstructure:"STEP_SELECTOR"`
	SectionSelector string `mapstructure:"SECTION_SELECTOR"`
	BodySelector    string `mapstructure:"BODY_SELECTOR"`
	TitleSelector   string `mapstructure:"TITLE_SELECTOR"`
	ReadySelector   string `mapstructure:"READY_SELECTOR"`

	// Optional stores
	PostgresURL   string        `mapstructure:"POSTGRES_URL"`
	RedisAddr     string        `mapstructure:"REDIS_ADDR"`
	RedisPassword string        `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int           `mapstructure:"REDIS_DB"`
	HarvestedTTL  time.Duration `mapstructure:"HARVESTED_TTL"`
	Force         bool          `mapstructure:"FORCE"`

	MetricsAddr string `mapstructure:"METRICS_ADDR"`

	// Optional translation of card body text
	TranslateEndpoint string        `mapstructure:"TRANSLATE_ENDPOINT"`
	TranslateLanguage string        `mapstructure:"TRANSLATE_LANGUAGE"`
	TranslateModel    string        `mapstructure:"TRANSLATE_MODEL"`
	TranslateAPIKey   string        `mapstructure:"TRANSLATE_API_KEY"`
	TranslateTimeout  time.Duration `mapstructure:"TRANSLATE_TIMEOUT"`
}

var defaults = map[string]any{
	"LOG_LEVEL":       "info",
	"LOG_FORMAT":      "json",
	"PROGRESS":        false,
	"LINKS_FILE":      "lesson_urls.txt",
	"LINKS_FORMAT":    "text",
	"CARDS_FILE":      "lesson_cards.csv",
	"DIAGNOSTICS_DIR": "diagnostics",

	"HEADLESS":          true,
	"STORAGE_STATE":     "storage_state.json",
	"INTERACTIVE_LOGIN": true,

	"NAVIGATION_TIMEOUT":       120 * time.Second,
	"STRUCTURE_TIMEOUT":        120 * time.Second,
	"SETTLE_DELAY":             1500 * time.Millisecond,
	"SCROLL_STEP":              1200,
	"SCROLL_WAIT":              200 * time.Millisecond,
	"GRADE_SCROLL_ROUNDS":      8,
	"UNIT_SCROLL_ROUNDS":       14,
	"COLLECTION_SCROLL_ROUNDS": 14,
	"ACTIVITY_SCROLL_ROUNDS":   4,

	"ANCESTOR_DEPTH":          10,
	"CONTENT_REGION_SELECTOR": "main",
	"ACTIVITY_PATH_PATTERN":   `(?i)^/activity/[0-9a-f]{24}(?:/|$)`,
	"COLLECTION_PATH_PATTERN": `(?i)^/collection/[0-9a-f]{24}(?:/|$)`,
	"UNIT_LABEL_PATTERN":      `(?i)\bUnit\s+(?:Zero|\d+)\b`,
	"LESSON_LABEL_PATTERN":    `(?i)\bLesson\s+\d+\s*:`,

	"CARD_SELECTOR":    ".alp-preview-miniscreen",
	"STEP_SELECTOR":    ".step-index span",
	"SECTION_SELECTOR": ".section-name-text span",
	"BODY_SELECTOR":    ".k5-note .ProseMirror",
	"TITLE_SELECTOR":   ".activity-title h1",
	"READY_SELECTOR":   ".alp-preview-miniscreen, .k5-note .ProseMirror",

	"REDIS_DB":      0,
	"HARVESTED_TTL": 48 * time.Hour,
	"FORCE":         false,

	"TRANSLATE_LANGUAGE": "Spanish",
	"TRANSLATE_TIMEOUT":  60 * time.Second,
}

// Load reads configuration from an optional config file, environment variables
// and command-line flags, in increasing order of precedence.
// Flags are looked up by their upper-snake-case key, e.g. --root-url binds ROOT_URL.
func Load(configFile string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", configFile, err)
		}
	}

	v.AutomaticEnv()
	// AutomaticEnv only resolves keys viper already knows about.
	for key := range defaults {
		_ = v.BindEnv(key)
	}
	for _, key := range []string{"ROOT_URL", "PROFILE_DIR", "LOGIN_URL", "USER_AGENTS", "PROXY_SERVERS", "POSTGRES_URL", "REDIS_ADDR", "REDIS_PASSWORD", "METRICS_ADDR", "TRANSLATE_ENDPOINT", "TRANSLATE_MODEL", "TRANSLATE_API_KEY"} {
		_ = v.BindEnv(key)
	}

	if flags != nil {
		var bindErr error
		flags.VisitAll(func(f *pflag.Flag) {
			key := strings.ToUpper(strings.ReplaceAll(f.Name, "-", "_"))
			if err := v.BindPFlag(key, f); err != nil && bindErr == nil {
				bindErr = err
			}
		})
		if bindErr != nil {
			return nil, bindErr
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	return &cfg, nil
}

// Validate checks the values that would otherwise fail deep inside a run.
func (c *Config) Validate() error {
	var errs []error

	if c.NavigationTimeout <= 0 {
		errs = append(errs, errors.New("NAVIGATION_TIMEOUT must be positive"))
	}
	if c.StructureTimeout <= 0 {
		errs = append(errs, errors.New("STRUCTURE_TIMEOUT must be positive"))
	}
	if c.SettleDelay < 0 || c.ScrollWait < 0 {
		errs = append(errs, errors.New("SETTLE_DELAY and SCROLL_WAIT must not be negative"))
	}
	for name, rounds := range map[string]int{
		"GRADE_SCROLL_ROUNDS":      c.GradeScrollRounds,
		"UNIT_SCROLL_ROUNDS":       c.UnitScrollRounds,
		"COLLECTION_SCROLL_ROUNDS": c.CollectionScrollRounds,
		"ACTIVITY_SCROLL_ROUNDS":   c.ActivityScrollRounds,
	} {
		if rounds < 0 {
			errs = append(errs, fmt.Errorf("%s must not be negative", name))
		}
	}
	if c.AncestorDepth < 0 {
		errs = append(errs, errors.New("ANCESTOR_DEPTH must not be negative"))
	}
	for name, pattern := range map[string]string{
		"ACTIVITY_PATH_PATTERN":   c.ActivityPathPattern,
		"COLLECTION_PATH_PATTERN": c.CollectionPathPattern,
		"UNIT_LABEL_PATTERN":      c.UnitLabelPattern,
		"LESSON_LABEL_PATTERN":    c.LessonLabelPattern,
	} {
		if pattern == "" {
			errs = append(errs, fmt.Errorf("%s is required", name))
			continue
		}
		if _, err := regexp.Compile(pattern); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	if c.CardSelector == "" || c.ReadySelector == "" {
		errs = append(errs, errors.New("CARD_SELECTOR and READY_SELECTOR are required"))
	}
	switch c.LinksFormat {
	case "text", "python", "json":
	default:
		errs = append(errs, fmt.Errorf("LINKS_FORMAT %q is not one of text, python, json", c.LinksFormat))
	}

	return errors.Join(errs...)
}
