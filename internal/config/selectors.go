package config

import (
	"fmt"
	"log"
	"os"

	"gopkg.in/yaml.v3"
)

// Selectors holds the ordered candidate locators per dashboard area. Lists go
// from the current markup to legacy fallbacks, so lookup cost tracks
// front-end drift rather than list length. Loaded once, never mutated.
type Selectors struct {
	Login      LoginSelectors      `yaml:"login"`
	Dashboard  DashboardSelectors  `yaml:"dashboard"`
	Listing    ListingSelectors    `yaml:"listing"`
	Pagination PaginationSelectors `yaml:"pagination"`
	Detail     DetailSelectors     `yaml:"detail"`
}

type LoginSelectors struct {
	Email    []string `yaml:"email"`
	Password []string `yaml:"password"`
	Submit   []string `yaml:"submit"`
}

type DashboardSelectors struct {
	Link        []string `yaml:"link"`
	ArticlesTab []string `yaml:"articles_tab"`
}

type ListingSelectors struct {
	Table []string `yaml:"table"`
}

type PaginationSelectors struct {
	Next []string `yaml:"next"`
}

type DetailSelectors struct {
	PublishedAt []string `yaml:"published_at"`
	Body        []string `yaml:"body"`
	Views       []string `yaml:"views"`
}

// DefaultSelectors returns the built-in note.com selector sets, ordered from
// the current markup down to legacy fallbacks.
func DefaultSelectors() *Selectors {
	return &Selectors{
		Login: LoginSelectors{
			Email: []string{
				`input[type="email"]`,
				`input[name="email"]`,
				`input[placeholder="メールアドレス"]`,
				`.o-login__mail input[type="email"]`,
				`.o-login input[type="email"]`,
			},
			Password: []string{
				`input[type="password"]`,
				`input[name="password"]`,
				`input[placeholder="パスワード"]`,
				`.o-login__mail input[type="password"]`,
				`.o-login input[type="password"]`,
			},
			Submit: []string{
				`button[type="submit"]`,
				`button.n-button--primary`,
				`.o-login__button button`,
				`button.a-button[data-type="primary"]`,
				`.o-login__button .a-button`,
			},
		},
		Dashboard: DashboardSelectors{
			Link:        []string{`a[href*="/dashboard"]`, `.dashboard-link`, `a[href="/dashboard/notes"]`},
			ArticlesTab: []string{`a[href*="/dashboard/notes"]`, `.articles-tab`, `a[href="/dashboard/notes"]`},
		},
		Listing: ListingSelectors{
			Table: []string{
				`table.o-statsContent__table`,
				`table.statsTable`,
				`table.article-stats-table`,
				`.table-container table`,
				`.stats-container table`,
				`table`,
			},
		},
		Pagination: PaginationSelectors{
			Next: []string{
				`.pagination-next:not(.disabled)`,
				`.next-page:not(.disabled)`,
				`button[aria-label="次のページ"]`,
			},
		},
		Detail: DetailSelectors{
			PublishedAt: []string{
				`.o-noteContentHeader__date time`,
				`.o-noteContentHeader time`,
				`.m-article__date time`,
				`.note-common-styles__date time`,
				`time`,
				`[datetime]`,
				`.o-noteContentData__date`,
			},
			Body: []string{
				`.note-common-styles__textnote-body`,
				`.o-noteContentText`,
				`article .o-noteEmbedContainer`,
				`.m-textContent`,
				`article .note-body`,
			},
			Views: []string{
				`.o-noteContentData .viewCount`,
				`.o-noteContentData__item--views`,
				`.noteStat span[data-test='viewCount']`,
				`.viewCountText`,
				`span[title*='閲覧']`,
				`.o-noteContentStats__count`,
				`.m-noteContent__viewCount`,
				`.o-noteContentData__viewCount`,
				`span[title*='view']`,
				`.viewCount`,
				`.o-noteContentFooter .count`,
				`div[class*='viewCount']`,
			},
		},
	}
}

// LoadSelectors reads a selector override file; empty path means the built-in
// defaults.
func LoadSelectors(filePath string) (*Selectors, error) {
	if filePath == "" {
		return DefaultSelectors(), nil
	}

	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open selectors file: %w", err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			log.Printf("Warning: failed to close selectors file: %v", closeErr)
		}
	}()

	var selectors Selectors
	decoder := yaml.NewDecoder(file)
	if err := decoder.Decode(&selectors); err != nil {
		return nil, fmt.Errorf("failed to parse selectors YAML: %w", err)
	}

	if err := validateSelectors(&selectors); err != nil {
		return nil, err
	}

	return &selectors, nil
}

// validateSelectors checks the minimum set a crawl needs.
func validateSelectors(s *Selectors) error {
	if len(s.Login.Email) == 0 {
		return fmt.Errorf("login.email selectors are required")
	}
	if len(s.Login.Password) == 0 {
		return fmt.Errorf("login.password selectors are required")
	}
	if len(s.Login.Submit) == 0 {
		return fmt.Errorf("login.submit selectors are required")
	}
	if len(s.Listing.Table) == 0 {
		return fmt.Errorf("listing.table selectors are required")
	}
	if len(s.Pagination.Next) == 0 {
		return fmt.Errorf("pagination.next selectors are required")
	}
	if len(s.Detail.PublishedAt) == 0 {
		return fmt.Errorf("detail.published_at selectors are required")
	}
	if len(s.Detail.Body) == 0 {
		return fmt.Errorf("detail.body selectors are required")
	}
	if len(s.Detail.Views) == 0 {
		return fmt.Errorf("detail.views selectors are required")
	}
	return nil
}
