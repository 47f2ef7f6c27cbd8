package chromedp_browser

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/user/lesson-harvester/internal/entity"
	"github.com/user/lesson-harvester/internal/repository"
)

const (
	defaultActionTimeout = 30 * time.Second
	defaultWindowWidth   = 1440
	defaultWindowHeight  = 900
)

// Options configures the Chrome instance behind a Browser.
type Options struct {
	Headless bool
	// ProfileDir is a persistent user-data dir; logins made in it survive restarts.
	ProfileDir    string
	UserAgent     string
	ProxyServer   string
	WindowWidth   int
	WindowHeight  int
	ActionTimeout time.Duration
}

// Browser is a single Chrome tab driven over the DevTools protocol.
type Browser struct {
	ctx         context.Context
	cancel      context.CancelFunc
	allocCancel context.CancelFunc
	opts        Options
	logger      *zap.Logger
}

var _ repository.Page = (*Browser)(nil)

// NewBrowser launches Chrome and opens the tab all navigation happens in.
func NewBrowser(opts Options, logger *zap.Logger) (*Browser, error) {
	if opts.WindowWidth <= 0 || opts.WindowHeight <= 0 {
		opts.WindowWidth, opts.WindowHeight = defaultWindowWidth, defaultWindowHeight
	}
	if opts.ActionTimeout <= 0 {
		opts.ActionTimeout = defaultActionTimeout
	}

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.WindowSize(opts.WindowWidth, opts.WindowHeight),
	)
	if opts.UserAgent != "" {
		allocOpts = append(allocOpts, chromedp.UserAgent(opts.UserAgent))
	}
	if opts.ProxyServer != "" {
		allocOpts = append(allocOpts, chromedp.ProxyServer(opts.ProxyServer))
	}
	if opts.ProfileDir != "" {
		allocOpts = append(allocOpts, chromedp.UserDataDir(opts.ProfileDir))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), allocOpts...)
	sugar := logger.Sugar()
	tabCtx, cancel := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(sugar.Debugf),
		chromedp.WithErrorf(sugar.Debugf),
	)

	// An empty Run starts the browser so launch errors surface here.
	if err := chromedp.Run(tabCtx); err != nil {
		cancel()
		allocCancel()
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	logger.Info("Browser launched",
		zap.Bool("headless", opts.Headless),
		zap.String("profile_dir", opts.ProfileDir),
		zap.Bool("proxy", opts.ProxyServer != ""),
	)
	return &Browser{ctx: tabCtx, cancel: cancel, allocCancel: allocCancel, opts: opts, logger: logger}, nil
}

// Close shuts the browser down.
func (b *Browser) Close() error {
	err := chromedp.Cancel(b.ctx)
	b.cancel()
	b.allocCancel()
	return err
}

// runContext derives a tab context bounded by timeout that is also cancelled
// when ctx is.
func (b *Browser) runContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	var (
		runCtx context.Context
		cancel context.CancelFunc
	)
	if timeout > 0 {
		runCtx, cancel = context.WithTimeout(b.ctx, timeout)
	} else {
		runCtx, cancel = context.WithCancel(b.ctx)
	}
	stop := context.AfterFunc(ctx, cancel)
	return runCtx, func() {
		stop()
		cancel()
	}
}

func (b *Browser) Navigate(ctx context.Context, url string, timeout time.Duration) error {
	runCtx, cancel := b.runContext(ctx, timeout)
	defer cancel()

	if err := chromedp.Run(runCtx, chromedp.Navigate(url)); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("%w: %s after %s", repository.ErrNavigationTimeout, url, timeout)
		}
		return fmt.Errorf("%w: %s: %w", repository.ErrNavigationFailed, url, err)
	}
	return nil
}

func (b *Browser) WaitFor(ctx context.Context, selector string, timeout time.Duration) error {
	runCtx, cancel := b.runContext(ctx, timeout)
	defer cancel()

	if err := chromedp.Run(runCtx, chromedp.WaitVisible(selector, chromedp.ByQuery)); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %q not visible after %s: %w", repository.ErrStructureNotFound, selector, timeout, err)
	}
	return nil
}

// Scroll dispatches a mouse-wheel event at the centre of the viewport, which
// triggers the same lazy-loading observers a user scrolling would.
func (b *Browser) Scroll(ctx context.Context, dx, dy int) error {
	runCtx, cancel := b.runContext(ctx, b.opts.ActionTimeout)
	defer cancel()

	x := float64(b.opts.WindowWidth) / 2
	y := float64(b.opts.WindowHeight) / 2
	return chromedp.Run(runCtx, chromedp.ActionFunc(func(ctx context.Context) error {
		return input.DispatchMouseEvent(input.MouseWheel, x, y).
			WithDeltaX(float64(dx)).
			WithDeltaY(float64(dy)).
			Do(ctx)
	}))
}

func (b *Browser) Wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (b *Browser) Snapshot(ctx context.Context) (*entity.PageSnapshot, error) {
	runCtx, cancel := b.runContext(ctx, b.opts.ActionTimeout)
	defer cancel()

	var location, html string
	if err := chromedp.Run(runCtx,
		chromedp.Location(&location),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	); err != nil {
		return nil, fmt.Errorf("failed to read page DOM: %w", err)
	}
	return &entity.PageSnapshot{URL: location, HTML: html}, nil
}

func (b *Browser) Capture(ctx context.Context) (*entity.PageCapture, error) {
	snap, err := b.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	runCtx, cancel := b.runContext(ctx, b.opts.ActionTimeout)
	defer cancel()

	capture := &entity.PageCapture{URL: snap.URL, HTML: snap.HTML}
	if err := chromedp.Run(runCtx, chromedp.CaptureScreenshot(&capture.Screenshot)); err != nil {
		// The DOM alone is still worth keeping.
		b.logger.Warn("Failed to capture screenshot", zap.String("url", snap.URL), zap.Error(err))
		capture.Screenshot = nil
	}
	return capture, nil
}
