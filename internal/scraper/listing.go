package scraper

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"note-dashboard-extractor/internal/browser"
	"note-dashboard-extractor/internal/config"
	"note-dashboard-extractor/internal/normalize"
	"note-dashboard-extractor/internal/observability"
	"note-dashboard-extractor/internal/resolver"
)

// ListingExtractor pulls article rows off the currently loaded statistics
// page. The scripted table query is the primary path; a goquery pass over the
// raw markup with fixed column positions is the fallback.
type ListingExtractor struct {
	page     browser.Page
	resolver *resolver.Engine
	sel      config.ListingSelectors
	baseURL  string
	logger   *observability.Logger
}

func NewListingExtractor(page browser.Page, eng *resolver.Engine, sel config.ListingSelectors, baseURL string, logger *observability.Logger) *ListingExtractor {
	return &ListingExtractor{
		page:     page,
		resolver: eng,
		sel:      sel,
		baseURL:  strings.TrimRight(baseURL, "/"),
		logger:   logger,
	}
}

// ExtractPage returns the articles visible on the current page. Publish date
// is left empty here; it is resolved per article during enrichment. A page
// with no extractable rows yields an empty slice and a diagnostic snapshot,
// never an error.
func (l *ListingExtractor) ExtractPage() []*Article {
	if articles := l.extractScripted(); len(articles) > 0 {
		l.logger.Info("Extracted listing rows via scripted query", "count", len(articles))
		return articles
	}

	l.logger.Warn("Scripted listing extraction yielded no rows, trying table fallback")

	articles := l.extractFromMarkup()
	if len(articles) == 0 {
		l.logger.Warn("No article rows found on page")
		l.page.Snapshot("no_articles_found")
		return nil
	}

	l.logger.Info("Extracted listing rows via table fallback", "count", len(articles))
	return articles
}

// extractScripted runs one structured query against the stats table and maps
// the row tuples into records.
func (l *ListingExtractor) extractScripted() []*Article {
	result, ok := l.resolver.Scripted(scriptExtractListing)
	if !ok {
		return nil
	}

	var articles []*Article
	for _, row := range result.Arr() {
		title := normalize.CollapseSpaces(row.Get("title").Str())
		url := normalize.CleanURL(row.Get("url").Str())
		if title == "" || url == "" {
			continue
		}

		articles = append(articles, &Article{
			Title:    title,
			URL:      url,
			Views:    normalize.ParseCount(row.Get("views").Str()),
			Likes:    normalize.ParseCount(row.Get("likes").Str()),
			Comments: normalize.ParseCount(row.Get("comments").Str()),
		})
	}
	return articles
}

// extractFromMarkup locates a stats table by ordered candidates and reads
// rows at fixed column positions. Each column is independently best-effort;
// only a missing title or link discards the row.
func (l *ListingExtractor) extractFromMarkup() []*Article {
	html, err := l.page.HTML()
	if err != nil {
		l.logger.Warn("Failed to read page markup", "error", err.Error())
		return nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		l.logger.Warn("Failed to parse page markup", "error", err.Error())
		return nil
	}

	var table *goquery.Selection
	for _, selector := range l.sel.Table {
		if found := doc.Find(selector).First(); found.Length() > 0 {
			l.logger.Debug("Stats table matched", "selector", selector)
			table = found
			break
		}
	}
	if table == nil {
		return nil
	}

	var articles []*Article
	table.Find("tbody tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() == 0 {
			return
		}

		link := cells.Eq(0).Find("a").First()
		title := normalize.CollapseSpaces(link.Text())
		href, _ := link.Attr("href")
		if title == "" || href == "" {
			return
		}

		article := &Article{
			Title: title,
			URL:   l.absoluteURL(href),
		}

		// Fixed legacy column order: date, views, likes, comments.
		article.PublishedAt = normalize.CollapseSpaces(cells.Eq(2).Text())
		article.Views = normalize.ParseCount(cells.Eq(3).Text())
		article.Likes = normalize.ParseCount(cells.Eq(4).Text())
		article.Comments = normalize.ParseCount(cells.Eq(5).Text())

		articles = append(articles, article)
	})

	return articles
}

func (l *ListingExtractor) absoluteURL(href string) string {
	href = normalize.CleanURL(href)
	if href == "" || strings.HasPrefix(href, "http") {
		return href
	}
	if !strings.HasPrefix(href, "/") {
		href = "/" + href
	}
	return l.baseURL + href
}

const scriptExtractListing = `() => {
	const articles = [];
	const table = document.querySelector('.o-statsContent__table');
	if (!table) return articles;

	const rows = table.querySelectorAll('tbody tr');
	rows.forEach(row => {
		const titleCell = row.querySelector('.o-statsContent__tableTitle');
		if (!titleCell) return;

		const titleLink = titleCell.querySelector('a');
		if (!titleLink) return;

		const stat = cls => {
			const cell = row.querySelector(cls);
			return cell ? cell.textContent.trim() : '0';
		};

		articles.push({
			title: titleLink.textContent.trim(),
			url: titleLink.href,
			views: stat('.o-statsContent__tableStat--type_view'),
			comments: stat('.o-statsContent__tableStat--type_comment'),
			likes: stat('.o-statsContent__tableStat--type_suki'),
		});
	});

	return articles;
}`
