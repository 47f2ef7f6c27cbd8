package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/user/lesson-harvester/internal/classifier"
	"github.com/user/lesson-harvester/internal/dedup"
	"github.com/user/lesson-harvester/internal/entity"
	"github.com/user/lesson-harvester/internal/extractor"
	"github.com/user/lesson-harvester/internal/lazyload"
	"github.com/user/lesson-harvester/internal/repository"
	"github.com/user/lesson-harvester/pkg/metrics"
	"github.com/user/lesson-harvester/pkg/utils"
)

var ErrNoSkippedStore = errors.New("retry requires a skipped-node store")

// Harvester walks the catalog and harvests content cards from activity pages.
type Harvester interface {
	// DiscoverActivities walks grade, units and lessons from rootURL and returns
	// the unique activity links in first-discovery order.
	DiscoverActivities(ctx context.Context, rootURL string) ([]entity.CatalogNode, error)
	// ExtractCards harvests the cards of each seed activity URL.
	ExtractCards(ctx context.Context, seeds []string) error
	// Run discovers activities from rootURL and harvests each of them.
	Run(ctx context.Context, rootURL string) error
	// RetrySkipped harvests activities recorded as skipped by earlier runs.
	RetrySkipped(ctx context.Context, limit int) error
	Progress() *Progress
}

// Options tunes timeouts and stabilization for each level of the catalog.
type Options struct {
	NavigationTimeout time.Duration
	StructureTimeout  time.Duration
	SettleDelay       time.Duration
	GradeScroll       lazyload.Driver
	UnitScroll        lazyload.Driver
	CollectionScroll  lazyload.Driver
	ActivityScroll    lazyload.Driver
	HarvestedTTL      time.Duration
	Force             bool
}

// Dependencies are the collaborators of a Harvester. Page, Classifier and
// Extractor are required; everything else may be left nil.
type Dependencies struct {
	Page        repository.Page
	Classifier  *classifier.Classifier
	Extractor   *extractor.CardExtractor
	Links       repository.LinkSink
	Cards       []repository.CardSink
	Skipped     repository.SkippedNodeRepository
	Diagnostics repository.DiagnosticsRecorder
	Harvested   repository.HarvestedRepository
	Translator  repository.Translator
	Metrics     *metrics.Metrics
	Logger      *zap.Logger
	Progress    *Progress
	Now         func() time.Time
}

type harvesterUseCase struct {
	Dependencies
	progress *Progress
	opts     Options
}

// NewHarvester creates the catalog orchestrator.
func NewHarvester(deps Dependencies, opts Options) Harvester {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Progress == nil {
		deps.Progress = NewProgress()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &harvesterUseCase{Dependencies: deps, progress: deps.Progress, opts: opts}
}

func (uc *harvesterUseCase) Progress() *Progress { return uc.progress }

func (uc *harvesterUseCase) DiscoverActivities(ctx context.Context, rootURL string) ([]entity.CatalogNode, error) {
	uc.progress.start(uc.Now())
	activities, err := uc.discover(ctx, rootURL)
	if err != nil {
		return nil, err
	}
	if uc.Links != nil {
		if err := uc.Links.WriteLinks(ctx, activities); err != nil {
			return activities, fmt.Errorf("failed to write activity links: %w", err)
		}
	}
	uc.done()
	return activities, nil
}

func (uc *harvesterUseCase) ExtractCards(ctx context.Context, seeds []string) error {
	uc.progress.start(uc.Now())
	if err := uc.extractAll(ctx, seeds); err != nil {
		return err
	}
	uc.done()
	return nil
}

func (uc *harvesterUseCase) Run(ctx context.Context, rootURL string) error {
	uc.progress.start(uc.Now())
	activities, err := uc.discover(ctx, rootURL)
	if err != nil {
		return err
	}
	if uc.Links != nil {
		if err := uc.Links.WriteLinks(ctx, activities); err != nil {
			return fmt.Errorf("failed to write activity links: %w", err)
		}
	}

	seeds := make([]string, 0, len(activities))
	for _, a := range activities {
		seeds = append(seeds, a.URL)
	}
	if err := uc.extractAll(ctx, seeds); err != nil {
		return err
	}
	uc.done()
	return nil
}

func (uc *harvesterUseCase) RetrySkipped(ctx context.Context, limit int) error {
	if uc.Skipped == nil {
		return ErrNoSkippedStore
	}
	uc.progress.start(uc.Now())
	nodes, err := uc.Skipped.FindRetryable(ctx, entity.RoleActivity, limit)
	if err != nil {
		return fmt.Errorf("failed to load skipped activities: %w", err)
	}
	uc.Logger.Info("Retrying skipped activities", zap.Int("count", len(nodes)))

	seeds := make([]string, 0, len(nodes))
	for _, n := range nodes {
		seeds = append(seeds, n.URL)
	}
	if err := uc.extractAll(ctx, seeds); err != nil {
		return err
	}
	uc.done()
	return nil
}

func (uc *harvesterUseCase) done() {
	uc.progress.finish(uc.Now())
	s := uc.progress.Snapshot()
	uc.Logger.Info("Harvest finished",
		zap.Int("units", s.UnitsFound),
		zap.Int("lessons", s.LessonsFound),
		zap.Int("activities_discovered", s.ActivitiesDiscovered),
		zap.Int("activities_extracted", s.ActivitiesExtracted),
		zap.Int("activities_cached", s.ActivitiesCached),
		zap.Int("cards", s.CardsExtracted),
		zap.Int("skipped", len(s.Skipped)),
	)
}

func (uc *harvesterUseCase) enter(s State, node entity.CatalogNode) {
	uc.progress.setState(s)
	uc.Logger.Debug("State transition", zap.String("state", string(s)), zap.String("url", node.URL), zap.String("role", node.Role.String()))
}

// discover walks the catalog depth first. Units are visited in page order and
// each unit's lessons are fully resolved before the next unit, so the global
// set records activities in first-discovery order.
func (uc *harvesterUseCase) discover(ctx context.Context, rootURL string) ([]entity.CatalogNode, error) {
	root := entity.CatalogNode{URL: utils.NormalizeURL(rootURL, rootURL), Role: entity.RoleGrade}
	if root.URL == "" {
		return nil, fmt.Errorf("%w: invalid root URL %q", repository.ErrRootNavigation, rootURL)
	}

	uc.enter(StateBootstrapping, root)
	start := uc.Now()
	snap, err := uc.load(ctx, root, uc.opts.GradeScroll, "")
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		uc.Metrics.ObserveNode(root.Role.String(), "skipped", uc.Now().Sub(start))
		return nil, fmt.Errorf("%w: %s: %w", repository.ErrRootNavigation, root.URL, err)
	}

	uc.enter(StateAtGrade, root)
	units, err := uc.Classifier.Classify(snap, entity.RoleUnit)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", repository.ErrRootNavigation, root.URL, err)
	}
	uc.Metrics.ObserveNode(root.Role.String(), "visited", uc.Now().Sub(start))
	uc.found(entity.RoleUnit, len(units))
	uc.Logger.Info("Grade loaded", zap.String("url", root.URL), zap.Int("units", len(units)))

	global := dedup.New("global")
	collections := dedup.New("collection")
	var activities []entity.CatalogNode
	admit := func(n entity.CatalogNode) {
		n.Role = entity.RoleActivity
		if global.Admit(n.URL) {
			activities = append(activities, n)
			uc.found(entity.RoleActivity, 1)
		}
	}

	for _, unit := range units {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		uc.enter(StateAtUnit, unit)
		lessons, err := uc.children(ctx, unit, uc.opts.UnitScroll, entity.RoleLesson)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			continue
		}
		uc.found(entity.RoleLesson, len(lessons))
		unlabeled := 0
		for _, l := range lessons {
			if l.Unlabeled {
				unlabeled++
			}
		}
		uc.Logger.Info("Unit loaded",
			zap.String("url", unit.URL),
			zap.String("label", unit.Label),
			zap.Int("lessons", len(lessons)),
			zap.Int("unlabeled", unlabeled),
		)

		for _, lesson := range lessons {
			if uc.Classifier.IsActivity(lesson.URL) {
				admit(lesson)
				continue
			}
			if !collections.Admit(lesson.URL) {
				continue
			}
			if err := ctx.Err(); err != nil {
				return nil, err
			}

			uc.enter(StateAtLessonOrCollection, lesson)
			items, err := uc.children(ctx, lesson, uc.opts.CollectionScroll, entity.RoleActivity)
			if err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return nil, ctxErr
				}
				continue
			}
			uc.Logger.Info("Collection loaded", zap.String("url", lesson.URL), zap.Int("activities", len(items)))
			for _, item := range items {
				admit(item)
			}
		}
	}

	uc.Logger.Info("Activity discovery finished", zap.Int("activities", len(activities)))
	return activities, nil
}

// children loads node and classifies the links of role on it. A failure is
// recorded as a skip of node and returned so the caller moves to the next sibling.
func (uc *harvesterUseCase) children(ctx context.Context, node entity.CatalogNode, driver lazyload.Driver, role entity.Role) ([]entity.CatalogNode, error) {
	start := uc.Now()
	snap, err := uc.load(ctx, node, driver, "")
	if err == nil {
		var found []entity.CatalogNode
		found, err = uc.Classifier.Classify(snap, role)
		if err == nil {
			uc.Metrics.ObserveNode(node.Role.String(), "visited", uc.Now().Sub(start))
			return found, nil
		}
	}
	if ctx.Err() == nil {
		uc.skip(ctx, node, err, uc.Now().Sub(start))
	}
	return nil, err
}

// load navigates to node, lets it settle, waits for ready when given, and
// scrolls until lazily rendered content has materialized.
func (uc *harvesterUseCase) load(ctx context.Context, node entity.CatalogNode, driver lazyload.Driver, ready string) (*entity.PageSnapshot, error) {
	if err := uc.Page.Navigate(ctx, node.URL, uc.opts.NavigationTimeout); err != nil {
		return nil, err
	}
	if uc.opts.SettleDelay > 0 {
		if err := uc.Page.Wait(ctx, uc.opts.SettleDelay); err != nil {
			return nil, err
		}
	}
	if ready != "" {
		if err := uc.Page.WaitFor(ctx, ready, uc.opts.StructureTimeout); err != nil {
			return nil, err
		}
	}
	if err := driver.Stabilize(ctx, uc.Page); err != nil {
		return nil, err
	}
	snap, err := uc.Page.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to snapshot %s: %w", node.URL, err)
	}
	if snap.URL == "" {
		snap.URL = node.URL
	}
	return snap, nil
}

func (uc *harvesterUseCase) extractAll(ctx context.Context, seeds []string) error {
	seen := dedup.New("seeds")
	var queue []entity.CatalogNode
	for _, s := range seeds {
		u := utils.NormalizeURL(s, s)
		if seen.Admit(u) {
			queue = append(queue, entity.CatalogNode{URL: u, Role: entity.RoleActivity})
		}
	}
	uc.Logger.Info("Extracting cards", zap.Int("activities", len(queue)))

	for i, node := range queue {
		if err := ctx.Err(); err != nil {
			return err
		}
		uc.enter(StateAtActivity, node)
		uc.Logger.Info("Harvesting activity", zap.String("url", node.URL), zap.Int("index", i+1), zap.Int("total", len(queue)))
		if err := uc.harvest(ctx, node); err != nil {
			return err
		}
	}
	return nil
}

// harvest extracts one activity. Node-level failures are recorded as skips and
// nil is returned; only sink failures and cancellation are returned.
func (uc *harvesterUseCase) harvest(ctx context.Context, node entity.CatalogNode) error {
	if uc.Harvested != nil {
		if uc.opts.Force {
			if err := uc.Harvested.RemoveHarvested(ctx, node.URL); err != nil {
				uc.Logger.Warn("Failed to clear harvested marker for forced harvest", zap.String("url", node.URL), zap.Error(err))
			}
		} else {
			harvested, err := uc.Harvested.IsHarvested(ctx, node.URL)
			if err != nil {
				uc.Logger.Warn("Failed to check harvested marker", zap.String("url", node.URL), zap.Error(err))
			} else if harvested {
				uc.Logger.Info("Activity harvested recently, skipping", zap.String("url", node.URL))
				uc.progress.cached()
				uc.Metrics.ObserveNode(node.Role.String(), "cached", 0)
				return nil
			}
		}
	}

	start := uc.Now()
	snap, err := uc.load(ctx, node, uc.opts.ActivityScroll, uc.Extractor.ReadySelector())
	var cards []entity.ContentCard
	if err == nil {
		cards, err = uc.Extractor.Extract(snap)
	}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		uc.skip(ctx, node, err, uc.Now().Sub(start))
		return nil
	}

	harvestedAt := uc.Now()
	for i := range cards {
		cards[i].HarvestedAt = harvestedAt
	}
	uc.translate(ctx, cards)

	for _, sink := range uc.Cards {
		if err := sink.AppendCards(ctx, cards); err != nil {
			return fmt.Errorf("failed to write cards of %s: %w", node.URL, err)
		}
	}

	uc.progress.extracted(len(cards))
	uc.Metrics.ObserveNode(node.Role.String(), "visited", uc.Now().Sub(start))
	uc.Metrics.AddCards(len(cards))
	uc.Logger.Info("Activity harvested", zap.String("url", node.URL), zap.Int("cards", len(cards)))

	if uc.Harvested != nil {
		if err := uc.Harvested.MarkHarvested(ctx, node.URL, uc.opts.HarvestedTTL); err != nil {
			uc.Logger.Warn("Failed to mark activity as harvested", zap.String("url", node.URL), zap.Error(err))
		}
	}
	if uc.Skipped != nil {
		// A previously skipped activity that now succeeded is no longer pending.
		if err := uc.Skipped.Delete(ctx, node.URL); err != nil {
			uc.Logger.Warn("Failed to delete skipped record after successful harvest", zap.String("url", node.URL), zap.Error(err))
		}
	}
	return nil
}

func (uc *harvesterUseCase) translate(ctx context.Context, cards []entity.ContentCard) {
	if uc.Translator == nil {
		return
	}
	for i := range cards {
		if cards[i].BodyText == "" {
			continue
		}
		text, err := uc.Translator.Translate(ctx, cards[i].BodyText)
		if err != nil {
			uc.Logger.Warn("Translation failed, leaving translated_text empty",
				zap.String("url", cards[i].SourceURL), zap.Int("position", cards[i].Position), zap.Error(err))
			continue
		}
		cards[i].TranslatedText = &text
	}
}

// skip converts a node failure into a recorded skip with a diagnostic capture.
func (uc *harvesterUseCase) skip(ctx context.Context, node entity.CatalogNode, cause error, elapsed time.Duration) {
	record := entity.SkippedNode{
		URL:                  node.URL,
		Role:                 node.Role,
		Kind:                 skipKind(cause),
		Reason:               cause.Error(),
		DiagnosticPath:       uc.captureDiagnostic(ctx, node),
		LastAttemptTimestamp: uc.Now(),
	}

	uc.progress.skipped(record)
	uc.Metrics.ObserveNode(node.Role.String(), "skipped", elapsed)
	uc.Logger.Warn("Node skipped",
		zap.String("url", node.URL),
		zap.String("role", node.Role.String()),
		zap.String("kind", string(record.Kind)),
		zap.String("diagnostic", record.DiagnosticPath),
		zap.Error(cause),
	)

	if uc.Skipped != nil {
		if err := uc.Skipped.SaveOrUpdate(ctx, &record); err != nil {
			uc.Logger.Error("Failed to save skipped node", zap.String("url", node.URL), zap.Error(err))
		}
	}
}

func (uc *harvesterUseCase) captureDiagnostic(ctx context.Context, node entity.CatalogNode) string {
	if uc.Diagnostics == nil {
		return ""
	}
	capture, err := uc.Page.Capture(ctx)
	if err != nil {
		uc.Logger.Warn("Failed to capture page for diagnostics", zap.String("url", node.URL), zap.Error(err))
		return ""
	}
	path, err := uc.Diagnostics.Record(ctx, node, capture)
	if err != nil {
		uc.Logger.Warn("Failed to write diagnostics", zap.String("url", node.URL), zap.Error(err))
		return ""
	}
	return path
}

func (uc *harvesterUseCase) found(role entity.Role, n int) {
	uc.progress.add(role, n)
	uc.Metrics.AddLinks(role.String(), n)
}

func skipKind(err error) entity.SkipKind {
	switch {
	case errors.Is(err, repository.ErrNavigationTimeout):
		return entity.SkipNavigationTimeout
	case errors.Is(err, repository.ErrNavigationFailed):
		return entity.SkipNavigationFailed
	case errors.Is(err, repository.ErrStructureNotFound):
		return entity.SkipStructureNotFound
	default:
		return entity.SkipExtractionFailed
	}
}
