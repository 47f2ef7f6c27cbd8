package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/user/lesson-harvester/internal/entity"
	"github.com/user/lesson-harvester/internal/repository"
)

// CardRepoImpl stores content cards in the content_cards table.
type CardRepoImpl struct {
	db *pgxpool.Pool
}

var _ repository.CardSink = (*CardRepoImpl)(nil)

func NewCardRepo(db *pgxpool.Pool) *CardRepoImpl {
	return &CardRepoImpl{db: db}
}

// AppendCards upserts the cards of one page in a single transaction. A page
// harvested again replaces its earlier rows position by position.
func (r *CardRepoImpl) AppendCards(ctx context.Context, cards []entity.ContentCard) error {
	if len(cards) == 0 {
		return nil
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, c := range cards {
		batch.Queue(`
			INSERT INTO content_cards (source_url, position, lesson_title, step, section, body_text, translated_text, harvested_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			ON CONFLICT (source_url, position) DO UPDATE SET
				lesson_title = EXCLUDED.lesson_title,
				step = EXCLUDED.step,
				section = EXCLUDED.section,
				body_text = EXCLUDED.body_text,
				translated_text = EXCLUDED.translated_text,
				harvested_at = EXCLUDED.harvested_at;`,
			c.SourceURL, c.Position, c.LessonTitle, c.Step, c.Section, c.BodyText, c.TranslatedText, c.HarvestedAt,
		)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to insert cards of %s: %w", cards[0].SourceURL, err)
	}

	// Drop rows left over from an earlier harvest that produced more cards.
	if _, err := tx.Exec(ctx,
		`DELETE FROM content_cards WHERE source_url = $1 AND position >= $2;`,
		cards[0].SourceURL, len(cards),
	); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// FindBySource returns the stored cards of an activity page in page order.
func (r *CardRepoImpl) FindBySource(ctx context.Context, sourceURL string) ([]entity.ContentCard, error) {
	rows, err := r.db.Query(ctx, `
		SELECT source_url, position, lesson_title, step, section, body_text, translated_text, harvested_at
		FROM content_cards
		WHERE source_url = $1
		ORDER BY position ASC;`, sourceURL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cards []entity.ContentCard
	for rows.Next() {
		var c entity.ContentCard
		if err := rows.Scan(&c.SourceURL, &c.Position, &c.LessonTitle, &c.Step, &c.Section, &c.BodyText, &c.TranslatedText, &c.HarvestedAt); err != nil {
			return nil, err
		}
		cards = append(cards, c)
	}
	return cards, rows.Err()
}

// Close is a no-op; the pool is owned by the caller.
func (r *CardRepoImpl) Close() error { return nil }
