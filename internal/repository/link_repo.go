package repository

import (
	"context"

	"github.com/user/lesson-harvester/internal/entity"
)

// LinkSink writes the final, deduplicated activity link list.
type LinkSink interface {
	WriteLinks(ctx context.Context, nodes []entity.CatalogNode) error
}

// SessionProvider prepares an authenticated browsing session before a run starts.
type SessionProvider interface {
	Bootstrap(ctx context.Context) (*entity.Session, error)
}
