package lazyload_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/lesson-harvester/internal/lazyload"
)

// lazyPage reveals one more item per scroll until all items are rendered.
type lazyPage struct {
	total    int
	rendered int
	scrolls  []int
	waits    []time.Duration
	failAt   int
	cancel   context.CancelFunc
}

func (p *lazyPage) Scroll(_ context.Context, _, dy int) error {
	p.scrolls = append(p.scrolls, dy)
	if p.failAt > 0 && len(p.scrolls) == p.failAt {
		return errors.New("target closed")
	}
	if p.rendered < p.total {
		p.rendered++
	}
	if p.cancel != nil && len(p.scrolls) == 2 {
		p.cancel()
	}
	return nil
}

func (p *lazyPage) Wait(_ context.Context, d time.Duration) error {
	p.waits = append(p.waits, d)
	return nil
}

func TestDriver_Stabilize(t *testing.T) {
	t.Parallel()

	t.Run("stabilizes quickly", func(t *testing.T) {
		t.Parallel()

		page := &lazyPage{total: 2}
		d := lazyload.Driver{Rounds: 5, Step: 1200, Wait: 200 * time.Millisecond}

		require.NoError(t, d.Stabilize(context.Background(), page))
		assert.Equal(t, 2, page.rendered)
		assert.Equal(t, []int{1200, 1200, 1200, 1200, 1200}, page.scrolls)
		assert.Len(t, page.waits, 5)
		assert.Equal(t, 200*time.Millisecond, page.waits[0])
	})

	t.Run("never stabilizes stays bounded", func(t *testing.T) {
		t.Parallel()

		page := &lazyPage{total: 1000}
		d := lazyload.Driver{Rounds: 3, Step: 500}

		require.NoError(t, d.Stabilize(context.Background(), page))
		assert.Equal(t, 3, page.rendered)
		assert.Len(t, page.scrolls, 3)
	})

	t.Run("zero rounds is a no-op", func(t *testing.T) {
		t.Parallel()

		page := &lazyPage{total: 1}
		require.NoError(t, lazyload.Driver{Step: 100}.Stabilize(context.Background(), page))
		assert.Empty(t, page.scrolls)
	})

	t.Run("scroll error stops", func(t *testing.T) {
		t.Parallel()

		page := &lazyPage{total: 10, failAt: 2}
		err := lazyload.Driver{Rounds: 5, Step: 100}.Stabilize(context.Background(), page)
		require.Error(t, err)
		assert.Len(t, page.scrolls, 2)
	})

	t.Run("context cancellation stops", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		page := &lazyPage{total: 10, cancel: cancel}

		err := lazyload.Driver{Rounds: 5, Step: 100}.Stabilize(ctx, page)
		require.ErrorIs(t, err, context.Canceled)
		assert.Len(t, page.scrolls, 2)
	})
}

func TestDriver_WithRounds(t *testing.T) {
	t.Parallel()

	base := lazyload.Driver{Rounds: 8, Step: 1200, Wait: time.Second}
	unit := base.WithRounds(14)

	assert.Equal(t, 14, unit.Rounds)
	assert.Equal(t, 1200, unit.Step)
	assert.Equal(t, 8, base.Rounds)
}
