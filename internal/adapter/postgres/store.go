package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS content_cards (
	id              BIGSERIAL PRIMARY KEY,
	source_url      TEXT        NOT NULL,
	position        INTEGER     NOT NULL,
	lesson_title    TEXT        NOT NULL DEFAULT '',
	step            TEXT        NOT NULL DEFAULT '',
	section         TEXT        NOT NULL DEFAULT '',
	body_text       TEXT        NOT NULL DEFAULT '',
	translated_text TEXT,
	harvested_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	UNIQUE (source_url, position)
);

CREATE TABLE IF NOT EXISTS skipped_nodes (
	id                     BIGSERIAL PRIMARY KEY,
	url                    TEXT        NOT NULL UNIQUE,
	role                   TEXT        NOT NULL,
	kind                   TEXT        NOT NULL,
	reason                 TEXT        NOT NULL DEFAULT '',
	diagnostic_path        TEXT        NOT NULL DEFAULT '',
	last_attempt_timestamp TIMESTAMPTZ NOT NULL,
	retry_count            INTEGER     NOT NULL DEFAULT 1
);

CREATE INDEX IF NOT EXISTS skipped_nodes_role_attempt_idx ON skipped_nodes (role, last_attempt_timestamp);
`

// Connect opens a pool and verifies the server is reachable.
func Connect(ctx context.Context, connString string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to reach database: %w", err)
	}
	return pool, nil
}

// EnsureSchema creates the harvester tables when they do not exist yet.
func EnsureSchema(ctx context.Context, db *pgxpool.Pool) error {
	if _, err := db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}
