package repository

import (
	"context"

	"github.com/user/lesson-harvester/internal/entity"
)

// CardSink receives the cards of one activity page at a time, in page order.
type CardSink interface {
	AppendCards(ctx context.Context, cards []entity.ContentCard) error
	Close() error
}

// Translator produces translated_text for a card body.
type Translator interface {
	Translate(ctx context.Context, text string) (string, error)
}
