package scraper

import (
	"context"
	"fmt"
	"strings"

	"note-dashboard-extractor/internal/browser"
	"note-dashboard-extractor/internal/config"
	"note-dashboard-extractor/internal/observability"
	"note-dashboard-extractor/internal/resolver"
)

// Navigator drives to the statistics view and widens the reporting period to
// all time.
type Navigator struct {
	page     browser.Page
	resolver *resolver.Engine
	cfg      *config.Config
	sel      config.DashboardSelectors
	logger   *observability.Logger
}

func NewNavigator(page browser.Page, eng *resolver.Engine, cfg *config.Config, sel config.DashboardSelectors, logger *observability.Logger) *Navigator {
	return &Navigator{
		page:     page,
		resolver: eng,
		cfg:      cfg,
		sel:      sel,
		logger:   logger,
	}
}

// Navigate goes straight to the statistics view, falling back to the
// dashboard link and articles tab when the direct route does not land there.
func (n *Navigator) Navigate(ctx context.Context) error {
	n.logger.Info("Navigating to statistics view", "url", n.cfg.StatsURL())
	if err := n.page.Navigate(n.cfg.StatsURL()); err != nil {
		n.logger.Warn("Direct navigation failed, trying dashboard links", "error", err.Error())
	}

	if !n.atStats() {
		n.clickThrough()
	}

	if !n.atStats() {
		n.page.Snapshot("dashboard_navigation_failed")
		return fmt.Errorf("failed to reach statistics view")
	}

	n.selectAllTimePeriod(ctx)

	n.logger.Info("Statistics view reached")
	return nil
}

func (n *Navigator) atStats() bool {
	url, err := n.page.CurrentURL()
	return err == nil && strings.Contains(url, n.cfg.Note.StatsPath)
}

// clickThrough is the legacy route: dashboard link, then the articles tab.
func (n *Navigator) clickThrough() {
	if link, ok := n.resolver.FindOne(n.sel.Link); ok {
		if err := link.Click(); err != nil {
			n.logger.Warn("Failed to activate dashboard link", "error", err.Error())
			return
		}
	}
	if tab, ok := n.resolver.FindOne(n.sel.ArticlesTab); ok {
		if err := tab.Click(); err != nil {
			n.logger.Warn("Failed to activate articles tab", "error", err.Error())
		}
	}
}

// selectAllTimePeriod switches the reporting window to all time. An already
// active control counts as success; a missing control is logged and ignored
// since the default window still yields data.
func (n *Navigator) selectAllTimePeriod(ctx context.Context) {
	result, ok := n.resolver.Scripted(scriptSelectAllTime)
	if !ok {
		n.logger.Warn("Period control group not found")
		return
	}

	switch result.Str() {
	case "already-active":
		n.logger.Info("All-time period already selected")
	case "clicked":
		n.logger.Info("Switched reporting period to all time")
		// Data reloads in place after the switch.
		sleep(ctx, n.cfg.GetRequestDelay())
	default:
		n.logger.Warn("All-time period control not found or not clickable")
	}
}

const scriptSelectAllTime = `() => {
	const buttons = document.querySelectorAll('ul[aria-label="表示期間切り替え"] button');
	for (const button of buttons) {
		if (button.textContent.trim() === '全期間') {
			if (button.classList.contains('is-active')) return 'already-active';
			if (!button.disabled) {
				button.click();
				return 'clicked';
			}
		}
	}
	return '';
}`
