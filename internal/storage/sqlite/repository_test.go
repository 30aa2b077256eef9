package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"note-dashboard-extractor/internal/observability"
	"note-dashboard-extractor/internal/storage"
)

func openTestRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := NewRepository(filepath.Join(t.TempDir(), "test.db"), observability.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func testRow(url string, views int) *storage.ArticleRow {
	return &storage.ArticleRow{
		URL:         url,
		Title:       "title",
		PublishedAt: "2024年1月15日",
		Views:       views,
		Likes:       3,
		Comments:    1,
		TextContent: "body",
		CharCount:   4,
		CheckSum:    "abc",
	}
}

func TestUpsertArticleInsertsThenUpdates(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	isNew, isUpdated, err := repo.UpsertArticle(ctx, testRow("https://note.com/u/n/n1", 10))
	require.NoError(t, err)
	assert.True(t, isNew)
	assert.False(t, isUpdated)

	isNew, isUpdated, err = repo.UpsertArticle(ctx, testRow("https://note.com/u/n/n1", 20))
	require.NoError(t, err)
	assert.False(t, isNew)
	assert.True(t, isUpdated)

	count, err := repo.ArticleCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count, "re-crawled URLs collapse into one row")
}

func TestExistsByURL(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	exists, err := repo.ExistsByURL(ctx, "https://note.com/u/n/n1")
	require.NoError(t, err)
	assert.False(t, exists)

	_, _, err = repo.UpsertArticle(ctx, testRow("https://note.com/u/n/n1", 10))
	require.NoError(t, err)

	exists, err = repo.ExistsByURL(ctx, "https://note.com/u/n/n1")
	require.NoError(t, err)
	assert.True(t, exists)
}
