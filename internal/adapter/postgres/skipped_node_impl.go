package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/user/lesson-harvester/internal/entity"
	"github.com/user/lesson-harvester/internal/repository"
)

// SkippedNodeRepoImpl keeps skipped catalog nodes in the skipped_nodes table.
type SkippedNodeRepoImpl struct {
	db *pgxpool.Pool
}

var _ repository.SkippedNodeRepository = (*SkippedNodeRepoImpl)(nil)

func NewSkippedNodeRepo(db *pgxpool.Pool) *SkippedNodeRepoImpl {
	return &SkippedNodeRepoImpl{db: db}
}

// SaveOrUpdate creates or updates a record for a skipped node.
// It increments the retry_count on conflict.
func (r *SkippedNodeRepoImpl) SaveOrUpdate(ctx context.Context, node *entity.SkippedNode) error {
	query := `
		INSERT INTO skipped_nodes (url, role, kind, reason, diagnostic_path, last_attempt_timestamp, retry_count)
		VALUES ($1, $2, $3, $4, $5, $6, 1)
		ON CONFLICT (url) DO UPDATE SET
			role = EXCLUDED.role,
			kind = EXCLUDED.kind,
			reason = EXCLUDED.reason,
			diagnostic_path = EXCLUDED.diagnostic_path,
			last_attempt_timestamp = EXCLUDED.last_attempt_timestamp,
			retry_count = skipped_nodes.retry_count + 1
		RETURNING id, retry_count;
	`
	return r.db.QueryRow(ctx, query,
		node.URL,
		string(node.Role),
		string(node.Kind),
		node.Reason,
		node.DiagnosticPath,
		node.LastAttemptTimestamp,
	).Scan(&node.ID, &node.RetryCount)
}

// FindRetryable retrieves skipped nodes of role, oldest attempt first.
func (r *SkippedNodeRepoImpl) FindRetryable(ctx context.Context, role entity.Role, limit int) ([]*entity.SkippedNode, error) {
	query := `
		SELECT id, url, role, kind, reason, diagnostic_path, last_attempt_timestamp, retry_count
		FROM skipped_nodes
		WHERE role = $1
		ORDER BY last_attempt_timestamp ASC
		LIMIT $2;
	`
	rows, err := r.db.Query(ctx, query, string(role), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var nodes []*entity.SkippedNode
	for rows.Next() {
		var (
			n          entity.SkippedNode
			role, kind string
		)
		if err := rows.Scan(
			&n.ID,
			&n.URL,
			&role,
			&kind,
			&n.Reason,
			&n.DiagnosticPath,
			&n.LastAttemptTimestamp,
			&n.RetryCount,
		); err != nil {
			return nil, err
		}
		n.Role = entity.Role(role)
		n.Kind = entity.SkipKind(kind)
		nodes = append(nodes, &n)
	}

	return nodes, rows.Err()
}

// Delete removes a skipped node record, typically after a successful harvest.
func (r *SkippedNodeRepoImpl) Delete(ctx context.Context, url string) error {
	query := `DELETE FROM skipped_nodes WHERE url = $1;`
	_, err := r.db.Exec(ctx, query, url)
	return err
}
