package scraper

import (
	"context"
	"fmt"
	"strings"
	"time"

	"note-dashboard-extractor/internal/browser"
	"note-dashboard-extractor/internal/config"
	"note-dashboard-extractor/internal/normalize"
	"note-dashboard-extractor/internal/observability"
	"note-dashboard-extractor/internal/resolver"
)

// Enricher visits each article's permalink and fills in the fields the
// listing does not reliably expose: publish date, body text, and a view-count
// fallback. Every per-field step is independently recovered; a miss leaves
// the field as it was and moves on.
type Enricher struct {
	page     browser.Page
	resolver *resolver.Engine
	sel      config.DetailSelectors
	delay    time.Duration
	logger   *observability.Logger
}

func NewEnricher(page browser.Page, eng *resolver.Engine, sel config.DetailSelectors, delay time.Duration, logger *observability.Logger) *Enricher {
	return &Enricher{
		page:     page,
		resolver: eng,
		sel:      sel,
		delay:    delay,
		logger:   logger,
	}
}

// EnrichAll processes the first maxArticles records (all when maxArticles
// <= 0), applying the courtesy delay between articles regardless of how many
// fields resolved. Context cancellation stops the loop; already enriched
// records keep their data.
func (e *Enricher) EnrichAll(ctx context.Context, articles []*Article, maxArticles int) {
	targets := articles
	if maxArticles > 0 && maxArticles < len(articles) {
		targets = articles[:maxArticles]
	}

	e.logger.Info("Starting detail enrichment", "articles", len(targets))
	for i, article := range targets {
		if ctx.Err() != nil {
			e.logger.Warn("Crawl cancelled, stopping enrichment", "enriched", i)
			return
		}
		e.logger.Info(fmt.Sprintf("Fetching article details (%d/%d)", i+1, len(targets)), "title", article.Title)
		e.Enrich(ctx, article)
		sleep(ctx, e.delay)
	}
	e.logger.Info("Detail enrichment complete")
}

// Enrich fills one record in place. Title and URL are never touched. A record
// without a permalink is enrichment-ineligible and returned unchanged.
func (e *Enricher) Enrich(ctx context.Context, article *Article) {
	if article.URL == "" {
		return
	}

	if err := e.page.Navigate(article.URL); err != nil {
		e.logger.Warn("Failed to open article page", "url", article.URL, "error", err.Error())
		return
	}
	sleep(ctx, e.delay)

	e.resolvePublishedAt(article)
	e.resolveBody(article)
	if article.Views <= 0 {
		e.resolveViews(article)
	}
}

// resolvePublishedAt runs the date chain: structured candidates (text, then
// the datetime attribute), the same list via scripted query, then date-shaped
// patterns over the page text. A miss keeps the listing-provided value.
func (e *Enricher) resolvePublishedAt(article *Article) {
	date, ok := e.resolver.ResolveText(resolver.Chain{
		Candidates: e.sel.PublishedAt,
		Attribute:  "datetime",
		Script:     scriptPublishedAt(e.sel.PublishedAt),
		Patterns:   normalize.DatePatterns(),
	})
	if !ok {
		e.logger.Debug("Publish date unresolved", "url", article.URL)
		return
	}
	article.PublishedAt = date
	e.logger.Debug("Publish date resolved", "published_at", date)
}

// resolveBody runs the body chain and stores text and rune count together.
func (e *Enricher) resolveBody(article *Article) {
	body, ok := e.resolver.ResolveText(resolver.Chain{
		Candidates: e.sel.Body,
		Script:     scriptArticleBody(e.sel.Body),
	})
	if !ok {
		e.logger.Debug("Article body unresolved", "url", article.URL)
		return
	}
	article.SetText(body)
	e.logger.Debug("Article body resolved", "chars", article.CharCount)
}

// resolveViews is only reached while the listing left views at zero. The
// structured tier stops early at the first candidate whose text parses to a
// positive count; the scripted tier scans for view-keyword text with a digit;
// the pattern tier searches the page text for numeric-unit or labeled values.
func (e *Enricher) resolveViews(article *Article) {
	positive := func(text string) bool {
		return normalize.ParseCount(text) > 0
	}

	if text, ok := e.resolver.FindText(e.sel.Views, "", positive); ok {
		article.Views = normalize.ParseCount(text)
		e.logger.Debug("View count resolved from detail page", "views", article.Views)
		return
	}

	if result, ok := e.resolver.Scripted(scriptScanViews); ok {
		if text := strings.TrimSpace(result.Str()); text != "" {
			if views := normalize.ParseCount(text); views > 0 {
				article.Views = views
				e.logger.Debug("View count resolved via scripted scan", "views", views)
				return
			}
		}
	}

	if body, ok := e.resolver.BodyText(); ok {
		if match, ok := normalize.FirstMatch(body, normalize.ViewPatterns); ok {
			article.Views = normalize.ParseCount(match)
			e.logger.Debug("View count resolved via text patterns", "views", article.Views)
		}
	}
}

func scriptPublishedAt(candidates []string) string {
	return fmt.Sprintf(`() => {
		const els = %s.filter(Boolean);
		for (const el of els) {
			const text = el.textContent.trim();
			if (text) return text;
			const attr = el.getAttribute('datetime');
			if (attr) return attr;
		}
		return '';
	}`, jsSelectorList(candidates))
}

func scriptArticleBody(candidates []string) string {
	return fmt.Sprintf(`() => {
		const els = %s.filter(Boolean);
		for (const el of els) {
			const text = el.textContent.trim();
			if (text) return text;
		}
		const article = document.querySelector('article');
		if (article && article.textContent.trim()) return article.textContent.trim();
		return document.body.textContent.trim();
	}`, jsSelectorList(candidates))
}

// scriptScanViews walks every element looking for short text that combines a
// view keyword with a digit. The length guard keeps container elements from
// swallowing the match.
const scriptScanViews = `() => {
	for (const el of document.querySelectorAll('*')) {
		const text = el.textContent.trim();
		if (text.length === 0 || text.length > 50) continue;
		if ((text.includes('閲覧') || text.toLowerCase().includes('view') || text.includes('読者')) && /\d/.test(text)) {
			return text;
		}
	}
	return '';
}`
