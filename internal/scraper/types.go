package scraper

import "unicode/utf8"

// Article is one row discovered on the stats dashboard. Created by the
// listing extractor with whatever the listing exposes, then filled in place
// by the detail enricher. Title and URL are never overwritten after creation.
type Article struct {
	Title       string
	URL         string
	PublishedAt string
	Views       int
	Likes       int
	Comments    int
	TextContent string
	CharCount   int
}

// SetText stores the body text together with its derived rune count so the
// two never drift apart.
func (a *Article) SetText(text string) {
	a.TextContent = text
	a.CharCount = utf8.RuneCountInString(text)
}
