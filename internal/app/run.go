// Package app wires config, logging, the crawl, output generation and
// optional persistence into one run.
package app

import (
	"context"
	"errors"
	"fmt"
	"os"

	"note-dashboard-extractor/internal/checksum"
	"note-dashboard-extractor/internal/config"
	"note-dashboard-extractor/internal/observability"
	"note-dashboard-extractor/internal/processor"
	"note-dashboard-extractor/internal/scraper"
	"note-dashboard-extractor/internal/storage"
	"note-dashboard-extractor/internal/storage/sqlite"
)

// ErrNoArticles is returned when the crawl produced nothing, whether the
// account has no data or an upstream step failed.
var ErrNoArticles = errors.New("no articles extracted")

// Run executes one extraction end to end: crawl, CSV, report, console
// summary, and database upserts when storage is enabled.
func Run(ctx context.Context, cfg *config.Config, logger *observability.Logger) error {
	selectors, err := config.LoadSelectors(cfg.SelectorsFile)
	if err != nil {
		return fmt.Errorf("failed to load selectors: %w", err)
	}

	articles := scraper.New(cfg, selectors, logger).Run(ctx)
	if len(articles) == 0 {
		logger.Warn("Crawl produced no articles")
		return ErrNoArticles
	}

	proc := processor.New(articles, cfg.Output.Dir, logger)

	csvPath, err := proc.SaveCSV()
	if err != nil {
		return fmt.Errorf("failed to save CSV: %w", err)
	}

	reportPath, err := proc.WriteReport()
	if err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	proc.RenderSummary(os.Stdout)

	if cfg.Storage.Enabled {
		if err := persist(ctx, cfg, logger, articles); err != nil {
			return err
		}
	}

	logger.Info("Extraction complete",
		"articles", len(articles),
		"csv", csvPath,
		"report", reportPath,
	)
	return nil
}

// persist upserts the crawl into the local database. Duplicate URLs across
// pages collapse into one row here.
func persist(ctx context.Context, cfg *config.Config, logger *observability.Logger, articles []*scraper.Article) error {
	repo, err := sqlite.NewRepository(cfg.Storage.Path, logger)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	defer func() {
		if closeErr := repo.Close(); closeErr != nil {
			logger.Warn("Failed to close storage", "error", closeErr.Error())
		}
	}()

	gen := checksum.NewGenerator()
	saved, updated := 0, 0

	for _, a := range articles {
		row := &storage.ArticleRow{
			URL:         a.URL,
			Title:       a.Title,
			PublishedAt: a.PublishedAt,
			Views:       a.Views,
			Likes:       a.Likes,
			Comments:    a.Comments,
			TextContent: a.TextContent,
			CharCount:   a.CharCount,
			CheckSum:    gen.ArticleHash(a.URL, a.Title, a.TextContent, a.Views),
		}

		isNew, isUpdated, err := repo.UpsertArticle(ctx, row)
		if err != nil {
			logger.Error("Failed to persist article", "url", a.URL, "error", err.Error())
			continue
		}
		if isNew {
			saved++
		}
		if isUpdated {
			updated++
		}
	}

	total, err := repo.ArticleCount(ctx)
	if err != nil {
		logger.Warn("Failed to count stored articles", "error", err.Error())
	}

	logger.Info("Persistence complete", "new", saved, "updated", updated, "total", total)
	return nil
}
