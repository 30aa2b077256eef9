// Package sqlite is the embedded Repository driver. One database file per
// install; the schema is bootstrapped on open.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"note-dashboard-extractor/internal/observability"
	"note-dashboard-extractor/internal/storage"
)

type Repository struct {
	db     *sql.DB
	logger *observability.Logger
}

const schema = `
CREATE TABLE IF NOT EXISTS articles (
	url          TEXT PRIMARY KEY,
	title        TEXT NOT NULL,
	published_at TEXT NOT NULL DEFAULT '',
	views        INTEGER NOT NULL DEFAULT 0,
	likes        INTEGER NOT NULL DEFAULT 0,
	comments     INTEGER NOT NULL DEFAULT 0,
	text_content TEXT NOT NULL DEFAULT '',
	char_count   INTEGER NOT NULL DEFAULT 0,
	checksum     TEXT NOT NULL DEFAULT '',
	updated_at   TIMESTAMP NOT NULL
);`

func NewRepository(path string, logger *observability.Logger) (*Repository, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &Repository{db: db, logger: logger}, nil
}

// UpsertArticle saves or updates a row keyed by URL.
func (r *Repository) UpsertArticle(ctx context.Context, row *storage.ArticleRow) (isNew bool, isUpdated bool, err error) {
	exists, err := r.ExistsByURL(ctx, row.URL)
	if err != nil {
		return false, false, err
	}

	query := `
		INSERT INTO articles (url, title, published_at, views, likes, comments, text_content, char_count, checksum, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(url) DO UPDATE SET
			title        = excluded.title,
			published_at = excluded.published_at,
			views        = excluded.views,
			likes        = excluded.likes,
			comments     = excluded.comments,
			text_content = excluded.text_content,
			char_count   = excluded.char_count,
			checksum     = excluded.checksum,
			updated_at   = excluded.updated_at
	`

	_, err = r.db.ExecContext(ctx, query,
		row.URL,
		row.Title,
		row.PublishedAt,
		row.Views,
		row.Likes,
		row.Comments,
		row.TextContent,
		row.CharCount,
		row.CheckSum,
		time.Now().UTC(),
	)
	if err != nil {
		return false, false, fmt.Errorf("failed to upsert article: %w", err)
	}

	return !exists, exists, nil
}

// ExistsByURL checks whether an article has been stored before.
func (r *Repository) ExistsByURL(ctx context.Context, url string) (bool, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM articles WHERE url = ?`, url).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to query database: %w", err)
	}
	return count > 0, nil
}

// ArticleCount returns the number of stored articles.
func (r *Repository) ArticleCount(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM articles`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to query database: %w", err)
	}
	return count, nil
}

// Close closes the database handle.
func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}
