package postgres_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/lesson-harvester/internal/adapter/postgres"
	"github.com/user/lesson-harvester/internal/entity"
)

// newPool connects to HARVESTER_TEST_POSTGRES_URL and skips the test when it is unset.
func newPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	connString := os.Getenv("HARVESTER_TEST_POSTGRES_URL")
	if connString == "" {
		t.Skip("HARVESTER_TEST_POSTGRES_URL not set")
	}

	ctx := context.Background()
	pool, err := postgres.Connect(ctx, connString)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, postgres.EnsureSchema(ctx, pool))
	return pool
}

func TestCardRepo_AppendCards(t *testing.T) {
	pool := newPool(t)
	ctx := context.Background()
	repo := postgres.NewCardRepo(pool)

	source := "https://learn.example.org/activity/test-" + time.Now().Format("150405.000000000")
	t.Cleanup(func() {
		_, _ = pool.Exec(context.Background(), `DELETE FROM content_cards WHERE source_url = $1`, source)
	})

	translated := "Hola"
	harvestedAt := time.Now().UTC().Truncate(time.Microsecond)
	first := []entity.ContentCard{
		{SourceURL: source, Position: 0, Step: "1", BodyText: "Hello", TranslatedText: &translated, HarvestedAt: harvestedAt},
		{SourceURL: source, Position: 1, Step: "2", BodyText: "Bye", HarvestedAt: harvestedAt},
	}
	require.NoError(t, repo.AppendCards(ctx, first))

	got, err := repo.FindBySource(ctx, source)
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.NotNil(t, got[0].TranslatedText)
	assert.Equal(t, "Hola", *got[0].TranslatedText)
	assert.Nil(t, got[1].TranslatedText)

	// A shorter re-harvest replaces the page's rows.
	require.NoError(t, repo.AppendCards(ctx, []entity.ContentCard{
		{SourceURL: source, Position: 0, Step: "1", BodyText: "Hello again", HarvestedAt: harvestedAt},
	}))
	got, err = repo.FindBySource(ctx, source)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Hello again", got[0].BodyText)
}

func TestSkippedNodeRepo(t *testing.T) {
	pool := newPool(t)
	ctx := context.Background()
	repo := postgres.NewSkippedNodeRepo(pool)

	url := "https://learn.example.org/activity/skip-" + time.Now().Format("150405.000000000")
	t.Cleanup(func() { _ = repo.Delete(context.Background(), url) })

	node := &entity.SkippedNode{
		URL:                  url,
		Role:                 entity.RoleActivity,
		Kind:                 entity.SkipNavigationTimeout,
		Reason:               "navigation timed out",
		LastAttemptTimestamp: time.Now().Add(-24 * time.Hour),
	}
	require.NoError(t, repo.SaveOrUpdate(ctx, node))
	assert.Equal(t, 1, node.RetryCount)

	node.Kind = entity.SkipStructureNotFound
	require.NoError(t, repo.SaveOrUpdate(ctx, node))
	assert.Equal(t, 2, node.RetryCount)

	nodes, err := repo.FindRetryable(ctx, entity.RoleActivity, 1000)
	require.NoError(t, err)
	var found *entity.SkippedNode
	for _, n := range nodes {
		if n.URL == url {
			found = n
		}
	}
	require.NotNil(t, found)
	assert.Equal(t, entity.SkipStructureNotFound, found.Kind)
	assert.Equal(t, 2, found.RetryCount)

	require.NoError(t, repo.Delete(ctx, url))
	nodes, err = repo.FindRetryable(ctx, entity.RoleActivity, 1000)
	require.NoError(t, err)
	for _, n := range nodes {
		assert.NotEqual(t, url, n.URL)
	}
}
