package scraper

import (
	"context"
	"time"

	"note-dashboard-extractor/internal/config"
	"note-dashboard-extractor/internal/observability"
	"note-dashboard-extractor/internal/resolver"
)

// Paginator walks the listing pages one at a time, pausing between
// activations out of courtesy to the dashboard.
type Paginator struct {
	resolver *resolver.Engine
	sel      config.PaginationSelectors
	delay    time.Duration
	logger   *observability.Logger
}

func NewPaginator(eng *resolver.Engine, sel config.PaginationSelectors, delay time.Duration, logger *observability.Logger) *Paginator {
	return &Paginator{
		resolver: eng,
		sel:      sel,
		delay:    delay,
		logger:   logger,
	}
}

// HasNext reports whether a next-page control resolves and is enabled.
func (p *Paginator) HasNext() bool {
	el, ok := p.resolver.FindOne(p.sel.Next)
	if !ok {
		return false
	}
	enabled, err := el.Enabled()
	return err == nil && enabled
}

// Advance activates the next-page control and pauses for the courtesy delay.
func (p *Paginator) Advance(ctx context.Context) bool {
	el, ok := p.resolver.FindOne(p.sel.Next)
	if !ok {
		p.logger.Info("No next page")
		return false
	}
	if enabled, err := el.Enabled(); err != nil || !enabled {
		p.logger.Info("Next page control disabled")
		return false
	}
	if err := el.Click(); err != nil {
		p.logger.Error("Failed to activate next page control", "error", err.Error())
		return false
	}

	sleep(ctx, p.delay)
	return true
}

// Collect extracts the current page, then keeps advancing while a next page
// exists and the cap permits. maxPages <= 0 means no cap. The loop stops on
// the first failed advance even if HasNext still reports true, and on context
// cancellation, returning what was collected so far.
func (p *Paginator) Collect(ctx context.Context, extractor *ListingExtractor, maxPages int) []*Article {
	var all []*Article
	pageCount := 1

	pageArticles := extractor.ExtractPage()
	all = append(all, pageArticles...)
	p.logger.Info("Page extracted", "page", pageCount, "articles", len(pageArticles))

	for p.HasNext() && (maxPages <= 0 || pageCount < maxPages) {
		if ctx.Err() != nil {
			p.logger.Warn("Crawl cancelled, stopping pagination", "pages", pageCount)
			break
		}
		if !p.Advance(ctx) {
			break
		}
		pageCount++
		pageArticles = extractor.ExtractPage()
		all = append(all, pageArticles...)
		p.logger.Info("Page extracted", "page", pageCount, "articles", len(pageArticles))
	}

	p.logger.Info("Pagination complete", "pages", pageCount, "articles", len(all))
	return all
}
