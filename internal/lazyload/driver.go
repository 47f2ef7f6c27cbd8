package lazyload

import (
	"context"
	"fmt"
	"time"
)

// Scroller is the part of a page the driver needs.
type Scroller interface {
	Scroll(ctx context.Context, dx, dy int) error
	Wait(ctx context.Context, d time.Duration) error
}

// Driver forces lazily rendered content to materialize by scrolling in fixed
// increments. Pages expose no "fully loaded" signal, so completion is judged by
// round count and elapsed time only; raise Rounds for stronger coverage.
type Driver struct {
	Rounds int
	Step   int
	Wait   time.Duration
}

// WithRounds returns a copy of d using a different round count.
func (d Driver) WithRounds(rounds int) Driver {
	d.Rounds = rounds
	return d
}

// Stabilize issues Rounds scroll increments of Step pixels, pausing Wait after each.
func (d Driver) Stabilize(ctx context.Context, page Scroller) error {
	for round := 0; round < d.Rounds; round++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := page.Scroll(ctx, 0, d.Step); err != nil {
			return fmt.Errorf("scroll round %d: %w", round+1, err)
		}
		if err := page.Wait(ctx, d.Wait); err != nil {
			return fmt.Errorf("wait round %d: %w", round+1, err)
		}
	}
	return nil
}
