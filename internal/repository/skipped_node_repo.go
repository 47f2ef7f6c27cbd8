package repository

import (
	"context"

	"github.com/user/lesson-harvester/internal/entity"
)

// SkippedNodeRepository records nodes that were skipped during a run.
type SkippedNodeRepository interface {
	// SaveOrUpdate creates or updates the record for a skipped node.
	SaveOrUpdate(ctx context.Context, node *entity.SkippedNode) error
	// FindRetryable retrieves skipped nodes of a role, oldest attempt first.
	FindRetryable(ctx context.Context, role entity.Role, limit int) ([]*entity.SkippedNode, error)
	// Delete removes a record, typically after a later successful attempt.
	Delete(ctx context.Context, url string) error
}

// DiagnosticsRecorder stores a capture of a page that could not be harvested and
// returns where it was written.
type DiagnosticsRecorder interface {
	Record(ctx context.Context, node entity.CatalogNode, capture *entity.PageCapture) (string, error)
}
