// Package resolver locates page elements through tiered fallback: ordered
// structured candidates first, then a scripted document query, then pattern
// matching over the full page text. Misses are reported as absent values,
// never as errors; the markup this targets drifts between releases and a miss
// is the expected case, not the exceptional one.
package resolver

import (
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/ysmood/gson"

	"note-dashboard-extractor/internal/browser"
	"note-dashboard-extractor/internal/normalize"
	"note-dashboard-extractor/internal/observability"
)

type Engine struct {
	page   browser.Page
	logger *observability.Logger
}

func New(page browser.Page, logger *observability.Logger) *Engine {
	return &Engine{page: page, logger: logger}
}

// FindOne tries each candidate in order and returns the first element found.
func (e *Engine) FindOne(candidates []string) (browser.Element, bool) {
	for _, selector := range candidates {
		el, err := e.page.Find(selector)
		if err != nil {
			continue
		}
		e.logger.Debug("Candidate matched", "selector", selector)
		return el, true
	}
	return nil, false
}

// FindAll tries each candidate in order and returns the first candidate's
// non-empty element set. Sets are never merged across candidates.
func (e *Engine) FindAll(candidates []string) []browser.Element {
	for _, selector := range candidates {
		els, err := e.page.FindAll(selector)
		if err != nil || len(els) == 0 {
			continue
		}
		e.logger.Debug("Candidate matched", "selector", selector, "count", len(els))
		return els
	}
	return nil
}

// WaitForOne polls each candidate in order, giving every candidate an equal
// share of the timeout.
func (e *Engine) WaitForOne(candidates []string, timeout time.Duration) (browser.Element, bool) {
	if len(candidates) == 0 {
		return nil, false
	}
	share := timeout / time.Duration(len(candidates))
	for _, selector := range candidates {
		el, err := e.page.WaitFor(selector, share)
		if err != nil {
			continue
		}
		return el, true
	}
	return nil, false
}

// Scripted runs a scripted query against the live document. A nil result is
// treated as a miss.
func (e *Engine) Scripted(js string) (gson.JSON, bool) {
	result, err := e.page.Eval(js)
	if err != nil {
		e.logger.Debug("Scripted query failed", "error", err.Error())
		return gson.New(nil), false
	}
	if result.Nil() {
		return gson.New(nil), false
	}
	return result, true
}

// FindText walks the candidates and returns the first text that passes
// accept. When an element's text is empty and attribute is set, the attribute
// value is offered instead.
func (e *Engine) FindText(candidates []string, attribute string, accept func(string) bool) (string, bool) {
	for _, selector := range candidates {
		el, err := e.page.Find(selector)
		if err != nil {
			continue
		}

		text, err := el.Text()
		if err == nil && accept(text) {
			return text, true
		}

		if attribute == "" {
			continue
		}
		if value, ok, err := el.Attribute(attribute); err == nil && ok && accept(value) {
			return value, true
		}
	}
	return "", false
}

// Chain describes one field's full fallback route. Tiers are optional; an
// unset tier is skipped.
type Chain struct {
	// Candidates is the ordered structured-locator tier.
	Candidates []string
	// Attribute is checked on a matched candidate whose text is empty.
	Attribute string
	// Script is a scripted query returning a string; empty string is a miss.
	Script string
	// Patterns are matched against the full page text as the last tier.
	Patterns []*regexp.Regexp
}

// ResolveText runs the chain and returns the first tier's value. The
// structured tier wins over the scripted tier, which wins over patterns.
func (e *Engine) ResolveText(chain Chain) (string, bool) {
	nonEmpty := func(s string) bool { return strings.TrimSpace(s) != "" }

	if text, ok := e.FindText(chain.Candidates, chain.Attribute, nonEmpty); ok {
		return strings.TrimSpace(text), true
	}

	if chain.Script != "" {
		if result, ok := e.Scripted(chain.Script); ok {
			if text := strings.TrimSpace(result.Str()); text != "" {
				return text, true
			}
		}
	}

	if len(chain.Patterns) > 0 {
		if body, ok := e.BodyText(); ok {
			if match, ok := normalize.FirstMatch(body, chain.Patterns); ok {
				return match, true
			}
		}
	}

	return "", false
}

// BodyText returns the page's visible text, via a scripted query when the
// document is live, else by stripping the raw markup.
func (e *Engine) BodyText() (string, bool) {
	if result, ok := e.Scripted(`() => document.body.innerText`); ok {
		if text := result.Str(); text != "" {
			return text, true
		}
	}

	html, err := e.page.HTML()
	if err != nil {
		return "", false
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", false
	}
	doc.Find("script, style").Remove()
	text := doc.Text()
	if strings.TrimSpace(text) == "" {
		return "", false
	}
	return text, true
}
