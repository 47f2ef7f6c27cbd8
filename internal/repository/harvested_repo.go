package repository

import (
	"context"
	"time"
)

// HarvestedRepository remembers activity pages whose cards were already extracted.
type HarvestedRepository interface {
	// MarkHarvested marks an activity URL as harvested with a specific expiry time.
	MarkHarvested(ctx context.Context, url string, expiry time.Duration) error
	// IsHarvested checks if an activity URL has been harvested recently.
	IsHarvested(ctx context.Context, url string) (bool, error)
	// RemoveHarvested clears the marker, used when a forced re-harvest is requested.
	RemoveHarvested(ctx context.Context, url string) error
}
