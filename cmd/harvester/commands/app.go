package commands

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"regexp"
	"time"

	"github.com/briandowns/spinner"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/user/lesson-harvester/internal/adapter/chromedp_browser"
	"github.com/user/lesson-harvester/internal/adapter/filesystem"
	"github.com/user/lesson-harvester/internal/adapter/postgres"
	redis_adapter "github.com/user/lesson-harvester/internal/adapter/redis"
	"github.com/user/lesson-harvester/internal/adapter/translator"
	"github.com/user/lesson-harvester/internal/classifier"
	"github.com/user/lesson-harvester/internal/delivery/http/handler"
	"github.com/user/lesson-harvester/internal/delivery/http/router"
	"github.com/user/lesson-harvester/internal/entity"
	"github.com/user/lesson-harvester/internal/extractor"
	"github.com/user/lesson-harvester/internal/lazyload"
	"github.com/user/lesson-harvester/internal/proxy"
	"github.com/user/lesson-harvester/internal/usecase"
	"github.com/user/lesson-harvester/pkg/config"
	"github.com/user/lesson-harvester/pkg/logger"
	"github.com/user/lesson-harvester/pkg/metrics"
	"github.com/user/lesson-harvester/pkg/utils"
)

const (
	storePingTimeout = 5 * time.Second
	shutdownTimeout  = 10 * time.Second
)

type appOptions struct {
	// withCards opens CARDS_FILE. Commands that only discover links leave it untouched.
	withCards bool
	// appendCards keeps the rows already in CARDS_FILE.
	appendCards bool
	// requireSkippedStore fails startup when POSTGRES_URL is not configured.
	requireSkippedStore bool
}

// app is the wired harvester of a single command invocation.
type app struct {
	cfg       *config.Config
	logger    *zap.Logger
	runID     string
	registry  *prometheus.Registry
	metrics   *metrics.Metrics
	browser   *chromedp_browser.Browser
	progress  *usecase.Progress
	harvester usecase.Harvester
	pings     map[string]handler.PingFunc
	closers   []func() error
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	return logger.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)
}

func newApp(ctx context.Context, cfg *config.Config, opts appOptions) (_ *app, err error) {
	log, err := newLogger(cfg)
	if err != nil {
		return nil, err
	}
	runID := uuid.NewString()
	a := &app{
		cfg:      cfg,
		logger:   log.With(zap.String("run_id", runID)),
		runID:    runID,
		registry: prometheus.NewRegistry(),
		progress: usecase.NewProgress(),
		pings:    map[string]handler.PingFunc{},
	}
	defer func() {
		if err != nil {
			a.close()
		}
	}()

	a.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	a.metrics = metrics.New(a.registry)

	classifierOpts, err := classifierOptions(cfg)
	if err != nil {
		return nil, err
	}

	deps := usecase.Dependencies{
		Classifier: classifier.New(classifierOpts),
		Extractor:  extractor.New(extractorSelectors(cfg)),
		Metrics:    a.metrics,
		Logger:     a.logger,
		Progress:   a.progress,
	}

	links, err := filesystem.NewLinkWriter(cfg.LinksFile, cfg.LinksFormat)
	if err != nil {
		return nil, err
	}
	deps.Links = links

	csvCards, err := newCardWriter(cfg, opts)
	if err != nil {
		return nil, err
	}
	if csvCards != nil {
		a.closers = append(a.closers, csvCards.Close)
		deps.Cards = append(deps.Cards, csvCards)
	}

	if cfg.DiagnosticsDir != "" {
		deps.Diagnostics = filesystem.NewDiagnosticsWriter(cfg.DiagnosticsDir)
	}

	if cfg.PostgresURL != "" {
		pool, err := postgres.Connect(ctx, cfg.PostgresURL)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() error { pool.Close(); return nil })
		if err := postgres.EnsureSchema(ctx, pool); err != nil {
			return nil, err
		}
		deps.Cards = append(deps.Cards, postgres.NewCardRepo(pool))
		deps.Skipped = postgres.NewSkippedNodeRepo(pool)
		a.pings["postgres"] = pool.Ping
		a.logger.Info("PostgreSQL connection pool established")
	} else if opts.requireSkippedStore {
		return nil, fmt.Errorf("POSTGRES_URL is required: %w", usecase.ErrNoSkippedStore)
	}

	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		a.closers = append(a.closers, rdb.Close)
		pingCtx, cancel := context.WithTimeout(ctx, storePingTimeout)
		defer cancel()
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			return nil, fmt.Errorf("unable to connect to redis: %w", err)
		}
		deps.Harvested = redis_adapter.NewHarvestedRepo(rdb)
		a.pings["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
		a.logger.Info("Redis connection established")
	}

	if cfg.TranslateEndpoint != "" {
		tr, err := translator.NewChatTranslator(translator.Options{
			Endpoint: cfg.TranslateEndpoint,
			Model:    cfg.TranslateModel,
			Language: cfg.TranslateLanguage,
			APIKey:   cfg.TranslateAPIKey,
			Timeout:  cfg.TranslateTimeout,
			Retries:  2,
		})
		if err != nil {
			return nil, err
		}
		deps.Translator = tr
	}

	a.browser, err = newBrowser(cfg, a.logger, cfg.Headless && !needsLogin(cfg))
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, a.browser.Close)
	deps.Page = a.browser

	session, err := newSession(a.browser, cfg, a.logger).Bootstrap(ctx)
	if err != nil {
		return nil, fmt.Errorf("session bootstrap failed: %w", err)
	}
	a.logger.Info("Session ready", zap.String("source", session.Source), zap.Int("cookies", session.Cookies))

	a.harvester = usecase.NewHarvester(deps, harvesterOptions(cfg))
	return a, nil
}

// newCardWriter returns nil when opts does not extract cards.
func newCardWriter(cfg *config.Config, opts appOptions) (*filesystem.CSVCardWriter, error) {
	if !opts.withCards {
		return nil, nil
	}
	return filesystem.NewCSVCardWriter(cfg.CardsFile, opts.appendCards)
}

func newBrowser(cfg *config.Config, log *zap.Logger, headless bool) (*chromedp_browser.Browser, error) {
	identity := proxy.NewManager(cfg.ProxyServers, cfg.UserAgents)
	return chromedp_browser.NewBrowser(chromedp_browser.Options{
		Headless:      headless,
		ProfileDir:    cfg.ProfileDir,
		UserAgent:     identity.GetUserAgent(),
		ProxyServer:   identity.GetProxy(),
		ActionTimeout: cfg.NavigationTimeout,
	}, log)
}

func newSession(browser *chromedp_browser.Browser, cfg *config.Config, log *zap.Logger) *chromedp_browser.SessionManager {
	return chromedp_browser.NewSessionManager(browser, chromedp_browser.SessionOptions{
		StatePath:         cfg.StorageState,
		ProfileDir:        cfg.ProfileDir,
		Interactive:       cfg.InteractiveLogin,
		LoginURL:          loginURL(cfg),
		NavigationTimeout: cfg.NavigationTimeout,
	}, os.Stderr, os.Stdin, log)
}

// needsLogin reports whether bootstrap will fall through to an interactive
// login, which needs a visible browser window.
func needsLogin(cfg *config.Config) bool {
	if !cfg.InteractiveLogin || cfg.ProfileDir != "" {
		return false
	}
	if cfg.StorageState == "" {
		return true
	}
	_, err := os.Stat(cfg.StorageState)
	return errors.Is(err, fs.ErrNotExist)
}

func loginURL(cfg *config.Config) string {
	if cfg.LoginURL != "" {
		return cfg.LoginURL
	}
	return utils.Origin(cfg.RootURL)
}

// rootURL prefers the positional argument over ROOT_URL.
func rootURL(cfg *config.Config, args []string) (string, error) {
	root := cfg.RootURL
	if len(args) > 0 {
		root = args[0]
	}
	if root == "" {
		return "", errors.New("a root URL is required: pass it as an argument or set ROOT_URL")
	}
	return root, nil
}

func classifierOptions(cfg *config.Config) (classifier.Options, error) {
	activity, err := classifier.NewShape(cfg.ActivityPathPattern)
	if err != nil {
		return classifier.Options{}, fmt.Errorf("ACTIVITY_PATH_PATTERN: %w", err)
	}
	collection, err := classifier.NewShape(cfg.CollectionPathPattern)
	if err != nil {
		return classifier.Options{}, fmt.Errorf("COLLECTION_PATH_PATTERN: %w", err)
	}
	unitLabel, err := regexp.Compile(cfg.UnitLabelPattern)
	if err != nil {
		return classifier.Options{}, fmt.Errorf("UNIT_LABEL_PATTERN: %w", err)
	}
	lessonLabel, err := regexp.Compile(cfg.LessonLabelPattern)
	if err != nil {
		return classifier.Options{}, fmt.Errorf("LESSON_LABEL_PATTERN: %w", err)
	}
	return classifier.Options{
		RegionSelector: cfg.ContentRegionSelector,
		UnitLabel:      unitLabel,
		LessonLabel:    lessonLabel,
		Activity:       activity,
		Collection:     collection,
		AncestorDepth:  cfg.AncestorDepth,
	}, nil
}

func extractorSelectors(cfg *config.Config) extractor.Selectors {
	return extractor.Selectors{
		Card:    cfg.CardSelector,
		Step:    cfg.StepSelector,
		Section: cfg.SectionSelector,
		Body:    cfg.BodySelector,
		Title:   cfg.TitleSelector,
		Ready:   cfg.ReadySelector,
	}
}

func harvesterOptions(cfg *config.Config) usecase.Options {
	scroll := lazyload.Driver{Step: cfg.ScrollStep, Wait: cfg.ScrollWait}
	return usecase.Options{
		NavigationTimeout: cfg.NavigationTimeout,
		StructureTimeout:  cfg.StructureTimeout,
		SettleDelay:       cfg.SettleDelay,
		GradeScroll:       scroll.WithRounds(cfg.GradeScrollRounds),
		UnitScroll:        scroll.WithRounds(cfg.UnitScrollRounds),
		CollectionScroll:  scroll.WithRounds(cfg.CollectionScrollRounds),
		ActivityScroll:    scroll.WithRounds(cfg.ActivityScrollRounds),
		HarvestedTTL:      cfg.HarvestedTTL,
		Force:             cfg.Force,
	}
}

// execute runs fn alongside the optional metrics server and progress spinner.
// The server is shut down once fn returns.
func (a *app) execute(ctx context.Context, fn func(ctx context.Context) error) error {
	g, gctx := errgroup.WithContext(ctx)

	var server *http.Server
	if a.cfg.MetricsAddr != "" {
		h := handler.NewHandler(a.progress, a.runID, a.pings, a.logger)
		server = &http.Server{
			Addr:         a.cfg.MetricsAddr,
			Handler:      router.New(h, a.registry, a.metrics, a.logger),
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  120 * time.Second,
		}
		g.Go(func() error {
			a.logger.Info("Starting status server", zap.String("addr", a.cfg.MetricsAddr))
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("status server: %w", err)
			}
			return nil
		})
	}

	stopSpinner := a.startSpinner()
	g.Go(func() error {
		defer stopSpinner()
		err := fn(gctx)
		if server != nil {
			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
			defer cancel()
			if serr := server.Shutdown(shutdownCtx); serr != nil {
				a.logger.Warn("Status server forced to shutdown", zap.Error(serr))
			}
		}
		return err
	})

	err := g.Wait()
	a.logSummary()
	return err
}

func (a *app) startSpinner() func() {
	if !a.cfg.Progress {
		return func() {}
	}
	s := spinner.New(spinner.CharSets[9], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
	s.Start()

	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(500 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				line := progressLine(a.progress.Snapshot())
				s.Lock()
				s.Suffix = line
				s.Unlock()
			}
		}
	}()

	return func() {
		close(done)
		s.Stop()
	}
}

func progressLine(sum entity.HarvestSummary) string {
	return fmt.Sprintf(" %s  units %d  lessons %d  activities %d  extracted %d  cached %d  cards %d  skipped %d",
		sum.State, sum.UnitsFound, sum.LessonsFound, sum.ActivitiesDiscovered,
		sum.ActivitiesExtracted, sum.ActivitiesCached, sum.CardsExtracted, len(sum.Skipped))
}

func (a *app) logSummary() {
	sum := a.progress.Snapshot()
	fields := []zap.Field{
		zap.String("state", sum.State),
		zap.Int("units", sum.UnitsFound),
		zap.Int("lessons", sum.LessonsFound),
		zap.Int("activities", sum.ActivitiesDiscovered),
		zap.Int("extracted", sum.ActivitiesExtracted),
		zap.Int("cached", sum.ActivitiesCached),
		zap.Int("cards", sum.CardsExtracted),
		zap.Int("skipped", len(sum.Skipped)),
	}
	if sum.FinishedAt != nil {
		fields = append(fields, zap.Duration("elapsed", sum.FinishedAt.Sub(sum.StartedAt)))
	}
	a.logger.Info("Harvest summary", fields...)
	for _, s := range sum.Skipped {
		a.logger.Warn("Skipped node",
			zap.String("url", s.URL),
			zap.String("role", s.Role.String()),
			zap.String("kind", string(s.Kind)),
			zap.String("reason", s.Reason),
			zap.String("diagnostic", s.DiagnosticPath),
		)
	}
}

// close releases resources in reverse order of acquisition.
func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Warn("Failed to release resource", zap.Error(err))
		}
	}
	a.closers = nil
	_ = a.logger.Sync()
}
