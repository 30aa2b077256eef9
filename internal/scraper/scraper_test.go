package scraper

import (
	"context"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ysmood/gson"

	"note-dashboard-extractor/internal/browser"
	"note-dashboard-extractor/internal/config"
	"note-dashboard-extractor/internal/observability"
	"note-dashboard-extractor/internal/resolver"
)

type fakeElement struct {
	text    string
	attrs   map[string]string
	enabled bool
	onClick func()
}

func (e *fakeElement) Text() (string, error) { return e.text, nil }

func (e *fakeElement) Attribute(name string) (string, bool, error) {
	v, ok := e.attrs[name]
	return v, ok, nil
}

func (e *fakeElement) Click() error {
	if e.onClick != nil {
		e.onClick()
	}
	return nil
}

func (e *fakeElement) Input(string) error { return nil }

func (e *fakeElement) Enabled() (bool, error) { return e.enabled, nil }

type articleDetail struct {
	date     string
	body     string
	bodyText string
}

// fakeDashboard simulates the stats site: a login gate, paged listing rows
// served through the scripted table query, and detail pages keyed by URL.
type fakeDashboard struct {
	url       string
	loggedIn  bool
	noSubmit  bool
	listings  [][]map[string]interface{}
	pageIndex int
	details   map[string]articleDetail
	current   string
	snapshots []string
}

func newFakeDashboard(listings [][]map[string]interface{}) *fakeDashboard {
	return &fakeDashboard{
		listings: listings,
		details:  map[string]articleDetail{},
	}
}

func (p *fakeDashboard) Navigate(url string) error {
	p.url = url
	if _, ok := p.details[url]; ok {
		p.current = url
	} else {
		p.current = ""
	}
	return nil
}

func (p *fakeDashboard) CurrentURL() (string, error) { return p.url, nil }

func (p *fakeDashboard) Find(selector string) (browser.Element, error) {
	if strings.Contains(p.url, "/login") && !p.loggedIn {
		switch {
		case strings.Contains(selector, `type="email"`):
			return &fakeElement{enabled: true}, nil
		case strings.Contains(selector, `type="password"`):
			return &fakeElement{enabled: true}, nil
		case strings.Contains(selector, `type="submit"`):
			if p.noSubmit {
				return nil, browser.ErrNotFound
			}
			return &fakeElement{enabled: true, onClick: func() {
				p.loggedIn = true
				p.url = "https://note.com/sitesettings/stats"
			}}, nil
		}
	}

	if strings.Contains(selector, "pagination-next") || strings.Contains(selector, "次のページ") {
		if strings.Contains(p.url, "/sitesettings/stats") && p.pageIndex+1 < len(p.listings) {
			return &fakeElement{enabled: true, onClick: func() { p.pageIndex++ }}, nil
		}
		return nil, browser.ErrNotFound
	}

	return nil, browser.ErrNotFound
}

func (p *fakeDashboard) FindAll(string) ([]browser.Element, error) { return nil, nil }

func (p *fakeDashboard) WaitFor(selector string, _ time.Duration) (browser.Element, error) {
	return p.Find(selector)
}

func (p *fakeDashboard) Eval(js string) (gson.JSON, error) {
	switch {
	case strings.Contains(js, "表示期間切り替え"):
		return gson.New("already-active"), nil
	case strings.Contains(js, "o-statsContent__table"):
		if strings.Contains(p.url, "/sitesettings/stats") && p.pageIndex < len(p.listings) {
			rows := make([]interface{}, 0, len(p.listings[p.pageIndex]))
			for _, row := range p.listings[p.pageIndex] {
				rows = append(rows, row)
			}
			return gson.New(rows), nil
		}
		return gson.New([]interface{}{}), nil
	case strings.Contains(js, "getAttribute('datetime')"):
		return gson.New(p.details[p.current].date), nil
	case strings.Contains(js, "document.querySelector('article')"):
		return gson.New(p.details[p.current].body), nil
	case strings.Contains(js, "querySelectorAll('*')"):
		return gson.New(""), nil
	case strings.Contains(js, "document.body.innerText"):
		return gson.New(p.details[p.current].bodyText), nil
	case strings.Contains(js, "dispatchEvent"):
		return gson.New(false), nil
	}
	return gson.New(nil), nil
}

func (p *fakeDashboard) HTML() (string, error) { return "", nil }

func (p *fakeDashboard) Snapshot(name string) { p.snapshots = append(p.snapshots, name) }

type fakeSession struct {
	page   browser.Page
	closes int
}

func (s *fakeSession) Page() browser.Page { return s.page }

func (s *fakeSession) Close() { s.closes++ }

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.SetDefaults()
	cfg.Crawl.RequestDelayS = 0
	cfg.Crawl.TimeoutS = 1
	cfg.Credentials.Username = "user@example.com"
	cfg.Credentials.Password = "secret"
	return cfg
}

func listingRow(title, url, views, likes, comments string) map[string]interface{} {
	return map[string]interface{}{
		"title":    title,
		"url":      url,
		"views":    views,
		"likes":    likes,
		"comments": comments,
	}
}

func makeListings(perPage ...int) [][]map[string]interface{} {
	var listings [][]map[string]interface{}
	n := 0
	for _, count := range perPage {
		var page []map[string]interface{}
		for i := 0; i < count; i++ {
			n++
			page = append(page, listingRow(
				"Article "+strings.Repeat("x", n),
				"https://note.com/user/n/n"+strings.Repeat("a", n),
				"100", "10", "1",
			))
		}
		listings = append(listings, page)
	}
	return listings
}

func TestRunCollectsAllPages(t *testing.T) {
	page := newFakeDashboard(makeListings(5, 3))
	session := &fakeSession{page: page}

	cfg := testConfig()
	cfg.Crawl.SkipDetails = true

	s := New(cfg, testSelectors(), observability.NewNop())
	s.newSession = func() (crawlSession, error) { return session, nil }

	articles := s.Run(context.Background())

	require.Len(t, articles, 8)
	for _, a := range articles {
		assert.NotEmpty(t, a.Title)
		assert.NotEmpty(t, a.URL)
		assert.Equal(t, 100, a.Views)
		assert.Empty(t, a.PublishedAt, "publish date comes from enrichment, not the listing")
	}
	assert.Equal(t, 1, session.closes)
}

func TestRunLoginFailureYieldsNothing(t *testing.T) {
	// A page where no login control ever resolves.
	page := newFakeDashboard(nil)
	page.loggedIn = true // suppresses the login controls even on the login path
	session := &fakeSession{page: page}

	s := New(testConfig(), testSelectors(), observability.NewNop())
	s.newSession = func() (crawlSession, error) { return session, nil }

	articles := s.Run(context.Background())

	assert.Empty(t, articles)
	assert.Equal(t, 1, session.closes, "session must be released exactly once")
	assert.Contains(t, page.snapshots, "email_not_found")
}

func TestRunWithBuiltinSelectors(t *testing.T) {
	page := newFakeDashboard(makeListings(2))
	session := &fakeSession{page: page}

	cfg := testConfig()
	cfg.Crawl.SkipDetails = true

	s := New(cfg, config.DefaultSelectors(), observability.NewNop())
	s.newSession = func() (crawlSession, error) { return session, nil }

	articles := s.Run(context.Background())
	assert.Len(t, articles, 2)
}

func TestRunStopsOnCancelledContext(t *testing.T) {
	page := newFakeDashboard(makeListings(5, 3))
	session := &fakeSession{page: page}

	cfg := testConfig()
	cfg.Crawl.RequestDelayS = 2

	s := New(cfg, testSelectors(), observability.NewNop())
	s.newSession = func() (crawlSession, error) { return session, nil }

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	articles := s.Run(ctx)

	assert.Len(t, articles, 5, "pagination stops after the current page")
	for _, a := range articles {
		assert.Empty(t, a.TextContent, "enrichment must not run after cancellation")
	}
	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, 1, session.closes)
}

func TestRunSubmitControlMissingYieldsNothing(t *testing.T) {
	page := newFakeDashboard(makeListings(5))
	page.noSubmit = true
	session := &fakeSession{page: page}

	s := New(testConfig(), testSelectors(), observability.NewNop())
	s.newSession = func() (crawlSession, error) { return session, nil }

	articles := s.Run(context.Background())

	assert.Empty(t, articles)
	assert.Equal(t, 1, session.closes, "session must be released exactly once")
	assert.Contains(t, page.snapshots, "submit_not_found")
}

func TestRunRespectsPageCap(t *testing.T) {
	page := newFakeDashboard(makeListings(5, 3, 2))
	session := &fakeSession{page: page}

	cfg := testConfig()
	cfg.Crawl.SkipDetails = true
	cfg.Crawl.MaxPages = 2

	s := New(cfg, testSelectors(), observability.NewNop())
	s.newSession = func() (crawlSession, error) { return session, nil }

	articles := s.Run(context.Background())
	assert.Len(t, articles, 8)
}

func TestExtractPageCollapsesTitleWhitespace(t *testing.T) {
	page := newFakeDashboard([][]map[string]interface{}{{
		listingRow("ノート  タイトル\n続き", "https://note.com/user/n/nws1", "10", "1", "0"),
	}})
	page.url = "https://note.com/sitesettings/stats"

	logger := observability.NewNop()
	extractor := NewListingExtractor(page, resolver.New(page, logger), testSelectors().Listing, "https://note.com", logger)

	articles := extractor.ExtractPage()

	require.Len(t, articles, 1)
	assert.Equal(t, "ノート タイトル 続き", articles[0].Title)
}

func TestEnrichResolvesViewsFromPageText(t *testing.T) {
	page := newFakeDashboard(nil)
	url := "https://note.com/user/n/nabc123"
	page.details[url] = articleDetail{
		date:     "2024年1月15日",
		body:     "これはテスト記事の本文です。",
		bodyText: "タイトル\n閲覧数: 450\nこれはテスト記事の本文です。",
	}

	logger := observability.NewNop()
	eng := resolver.New(page, logger)
	enricher := NewEnricher(page, eng, testSelectors().Detail, 0, logger)

	article := &Article{Title: "テスト", URL: url}
	enricher.Enrich(context.Background(), article)

	assert.Equal(t, 450, article.Views)
	assert.Equal(t, "2024年1月15日", article.PublishedAt)
	assert.Equal(t, "これはテスト記事の本文です。", article.TextContent)
	assert.Equal(t, utf8.RuneCountInString(article.TextContent), article.CharCount)
}

func TestEnrichKeepsListingViews(t *testing.T) {
	page := newFakeDashboard(nil)
	url := "https://note.com/user/n/nxyz789"
	page.details[url] = articleDetail{
		body:     "body",
		bodyText: "閲覧数: 999",
	}

	logger := observability.NewNop()
	eng := resolver.New(page, logger)
	enricher := NewEnricher(page, eng, testSelectors().Detail, 0, logger)

	article := &Article{Title: "固定", URL: url, Views: 1200}
	enricher.Enrich(context.Background(), article)

	assert.Equal(t, 1200, article.Views, "a positive listing count is never overwritten")
	assert.Equal(t, "固定", article.Title)
	assert.Equal(t, url, article.URL)
}

func TestEnrichSkipsArticleWithoutURL(t *testing.T) {
	page := newFakeDashboard(nil)
	logger := observability.NewNop()
	enricher := NewEnricher(page, resolver.New(page, logger), testSelectors().Detail, 0, logger)

	article := &Article{Title: "no permalink"}
	enricher.Enrich(context.Background(), article)

	assert.Equal(t, "", page.url, "no navigation should happen")
	assert.Zero(t, article.CharCount)
}

func TestEnrichAllHonorsArticleCap(t *testing.T) {
	page := newFakeDashboard(nil)
	urls := []string{
		"https://note.com/user/n/n1",
		"https://note.com/user/n/n2",
		"https://note.com/user/n/n3",
	}
	for _, u := range urls {
		page.details[u] = articleDetail{body: "text for " + u}
	}

	logger := observability.NewNop()
	enricher := NewEnricher(page, resolver.New(page, logger), testSelectors().Detail, 0, logger)

	articles := []*Article{
		{Title: "a", URL: urls[0]},
		{Title: "b", URL: urls[1]},
		{Title: "c", URL: urls[2]},
	}
	enricher.EnrichAll(context.Background(), articles, 2)

	assert.NotEmpty(t, articles[0].TextContent)
	assert.NotEmpty(t, articles[1].TextContent)
	assert.Empty(t, articles[2].TextContent, "capped articles keep listing data only")
}

func TestSetTextCountsRunes(t *testing.T) {
	a := &Article{}
	a.SetText("こんにちは world")

	assert.Equal(t, 11, a.CharCount)
	assert.Equal(t, utf8.RuneCountInString(a.TextContent), a.CharCount)
}

// testSelectors returns a compact candidate set matching the fake dashboard.
func testSelectors() *config.Selectors {
	return &config.Selectors{
		Login: config.LoginSelectors{
			Email:    []string{`input[type="email"]`},
			Password: []string{`input[type="password"]`},
			Submit:   []string{`button[type="submit"]`},
		},
		Dashboard: config.DashboardSelectors{
			Link:        []string{`a[href*="/dashboard"]`},
			ArticlesTab: []string{`a[href*="/dashboard/notes"]`},
		},
		Listing: config.ListingSelectors{
			Table: []string{`table.o-statsContent__table`, `table`},
		},
		Pagination: config.PaginationSelectors{
			Next: []string{`.pagination-next:not(.disabled)`},
		},
		Detail: config.DetailSelectors{
			PublishedAt: []string{`time[datetime]`},
			Body:        []string{`.note-common-styles__textnote-body`},
			Views:       []string{`.view-count`},
		},
	}
}
