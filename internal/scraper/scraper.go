// Package scraper implements the crawl over the note statistics dashboard:
// login, navigation to the stats view, pagination-driven listing extraction,
// and per-article detail enrichment. All element lookups go through the
// resolver's tiered fallback.
package scraper

import (
	"context"
	"time"

	"note-dashboard-extractor/internal/browser"
	"note-dashboard-extractor/internal/config"
	"note-dashboard-extractor/internal/observability"
	"note-dashboard-extractor/internal/resolver"
)

// crawlSession is the acquired page-automation capability. Narrowed to an
// interface so tests can run the crawl without a browser.
type crawlSession interface {
	Page() browser.Page
	Close()
}

// Scraper sequences one full crawl and owns the browser session for its
// duration.
type Scraper struct {
	cfg       *config.Config
	selectors *config.Selectors
	logger    *observability.Logger

	// newSession is swapped out by tests.
	newSession func() (crawlSession, error)
}

func New(cfg *config.Config, selectors *config.Selectors, logger *observability.Logger) *Scraper {
	return &Scraper{
		cfg:       cfg,
		selectors: selectors,
		logger:    logger,
		newSession: func() (crawlSession, error) {
			return browser.NewSession(cfg.Browser, cfg.Output.Dir, logger)
		},
	}
}

// Run executes the crawl and returns every record collected before the first
// hard failure. An empty result means either no data or an upstream failure;
// the distinction is visible only in the logs. The session is released on
// every exit path.
func (s *Scraper) Run(ctx context.Context) []*Article {
	s.logger.Info("Starting crawl")

	session, err := s.newSession()
	if err != nil {
		s.logger.Error("Failed to acquire browser session", "error", err.Error())
		return nil
	}
	defer session.Close()

	return s.crawl(ctx, session.Page())
}

func (s *Scraper) crawl(ctx context.Context, page browser.Page) []*Article {
	eng := resolver.New(page, s.logger)

	auth := NewAuthenticator(page, eng, s.cfg, s.selectors.Login, s.logger)
	if err := auth.Login(ctx); err != nil {
		s.logger.Error("Login failed, aborting crawl", "error", err.Error())
		return nil
	}

	nav := NewNavigator(page, eng, s.cfg, s.selectors.Dashboard, s.logger)
	if err := nav.Navigate(ctx); err != nil {
		s.logger.Error("Dashboard navigation failed, aborting crawl", "error", err.Error())
		return nil
	}

	listing := NewListingExtractor(page, eng, s.selectors.Listing, s.cfg.Note.BaseURL, s.logger)
	paginator := NewPaginator(eng, s.selectors.Pagination, s.cfg.GetRequestDelay(), s.logger)
	articles := paginator.Collect(ctx, listing, s.cfg.Crawl.MaxPages)

	if !s.cfg.Crawl.SkipDetails && len(articles) > 0 {
		enricher := NewEnricher(page, eng, s.selectors.Detail, s.cfg.GetRequestDelay(), s.logger)
		enricher.EnrichAll(ctx, articles, s.cfg.Crawl.MaxArticles)
	}

	s.logger.Info("Crawl finished", "articles", len(articles))
	return articles
}

// sleep pauses for the courtesy delay, returning early on context cancel.
func sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	select {
	case <-time.After(d):
	case <-ctx.Done():
	}
}
