package storage

import "context"

// ArticleRow is one crawled article as persisted.
type ArticleRow struct {
	URL         string
	Title       string
	PublishedAt string
	Views       int
	Likes       int
	Comments    int
	TextContent string
	CharCount   int
	CheckSum    string
}

// Repository persists crawl results keyed by article URL. Re-crawled
// articles update their existing row, which is where cross-page duplicates
// collapse.
type Repository interface {
	// UpsertArticle saves or updates a row, returning (isNew, isUpdated, error).
	UpsertArticle(ctx context.Context, row *ArticleRow) (isNew bool, isUpdated bool, err error)

	// ExistsByURL checks whether an article has been stored before.
	ExistsByURL(ctx context.Context, url string) (bool, error)

	// ArticleCount returns the number of stored articles.
	ArticleCount(ctx context.Context) (int, error)

	Close() error
}
