package repository

import (
	"context"
	"time"

	"github.com/user/lesson-harvester/internal/entity"
)

// Page is the single browsing session the orchestrator navigates.
// Implementations are not safe for concurrent use.
type Page interface {
	// Navigate loads url, failing with ErrNavigationTimeout when it takes longer than timeout.
	Navigate(ctx context.Context, url string, timeout time.Duration) error
	// WaitFor blocks until selector is visible, failing with ErrStructureNotFound after timeout.
	WaitFor(ctx context.Context, selector string, timeout time.Duration) error
	// Scroll dispatches a wheel scroll of (dx, dy) pixels.
	Scroll(ctx context.Context, dx, dy int) error
	// Wait pauses for d.
	Wait(ctx context.Context, d time.Duration) error
	// Snapshot returns the current URL and serialized DOM.
	Snapshot(ctx context.Context) (*entity.PageSnapshot, error)
	// Capture returns a snapshot plus a screenshot for later manual inspection.
	Capture(ctx context.Context) (*entity.PageCapture, error)
}
