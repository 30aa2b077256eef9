package scraper

import (
	"context"
	"fmt"
	"strings"
	"time"

	"note-dashboard-extractor/internal/browser"
	"note-dashboard-extractor/internal/config"
	"note-dashboard-extractor/internal/observability"
	"note-dashboard-extractor/internal/resolver"
)

type authState string

const (
	authNotStarted         authState = "not_started"
	authCredentialsEntered authState = "credentials_entered"
	authSubmitted          authState = "submitted"
	authConfirmed          authState = "confirmed"
	authFailed             authState = "failed"
)

// Authenticator drives the login flow: resolve the credential fields, submit,
// and confirm the location left the login path.
type Authenticator struct {
	page     browser.Page
	resolver *resolver.Engine
	cfg      *config.Config
	sel      config.LoginSelectors
	logger   *observability.Logger
	state    authState
}

func NewAuthenticator(page browser.Page, eng *resolver.Engine, cfg *config.Config, sel config.LoginSelectors, logger *observability.Logger) *Authenticator {
	return &Authenticator{
		page:     page,
		resolver: eng,
		cfg:      cfg,
		sel:      sel,
		logger:   logger,
		state:    authNotStarted,
	}
}

// Login performs the full sequence. Any missing control or confirmation
// timeout fails the crawl; there is no automatic retry with the same
// credentials.
func (a *Authenticator) Login(ctx context.Context) error {
	a.logger.Info("Navigating to login page", "url", a.cfg.LoginURL())
	if err := a.page.Navigate(a.cfg.LoginURL()); err != nil {
		a.fail("login_navigation_failed")
		return fmt.Errorf("login navigation failed: %w", err)
	}

	if !a.fillField(a.sel.Email, a.cfg.Credentials.Username, scriptFillEmail(a.cfg.Credentials.Username)) {
		a.fail("email_not_found")
		return fmt.Errorf("email field not found")
	}
	a.logger.Info("Entered account identifier")

	if !a.fillField(a.sel.Password, a.cfg.Credentials.Password, scriptFillPassword(a.cfg.Credentials.Password)) {
		a.fail("password_not_found")
		return fmt.Errorf("password field not found")
	}
	a.logger.Info("Entered account secret")
	a.state = authCredentialsEntered

	if !a.submit() {
		a.fail("submit_not_found")
		return fmt.Errorf("submit control not found")
	}
	a.state = authSubmitted
	a.logger.Info("Submitted login form")

	if !a.confirm(ctx) {
		a.fail("login_failed")
		return fmt.Errorf("login confirmation timed out")
	}

	a.state = authConfirmed
	a.logger.Info("Login confirmed")
	return nil
}

// fillField resolves an input through the structured candidates and types
// into it, falling back to a scripted fill.
func (a *Authenticator) fillField(candidates []string, value, fillScript string) bool {
	if el, ok := a.resolver.WaitForOne(candidates, a.cfg.GetTimeout()); ok {
		if err := el.Input(value); err == nil {
			return true
		}
		a.logger.Warn("Failed to type into resolved field, trying scripted fill")
	}

	result, ok := a.resolver.Scripted(fillScript)
	return ok && result.Bool()
}

func (a *Authenticator) submit() bool {
	if el, ok := a.resolver.FindOne(a.sel.Submit); ok {
		if err := el.Click(); err == nil {
			return true
		}
		a.logger.Warn("Failed to click resolved submit control, trying scripted click")
	}

	result, ok := a.resolver.Scripted(scriptClickSubmit)
	return ok && result.Bool()
}

// confirm polls the current location until it no longer matches the login
// path, bounded by the configured timeout.
func (a *Authenticator) confirm(ctx context.Context) bool {
	deadline := time.Now().Add(a.cfg.GetTimeout())
	for time.Now().Before(deadline) {
		url, err := a.page.CurrentURL()
		if err == nil && !strings.Contains(url, a.cfg.Note.LoginPath) {
			return true
		}
		select {
		case <-time.After(500 * time.Millisecond):
		case <-ctx.Done():
			return false
		}
	}
	return false
}

func (a *Authenticator) fail(snapshot string) {
	a.state = authFailed
	a.page.Snapshot(snapshot)
}

func scriptFillEmail(value string) string {
	return fillScript(`document.querySelector('input[type="email"]') ||
			document.querySelector('input[placeholder*="メール"]') ||
			document.querySelector('input[placeholder*="mail"]')`, value)
}

func scriptFillPassword(value string) string {
	return fillScript(`document.querySelector('input[type="password"]') ||
			document.querySelector('input[placeholder*="パスワード"]') ||
			document.querySelector('input[placeholder*="password"]')`, value)
}

func fillScript(lookup, value string) string {
	return fmt.Sprintf(`() => {
		const el = %s;
		if (!el) return false;
		el.focus();
		el.value = %s;
		el.dispatchEvent(new Event('input', { bubbles: true }));
		return true;
	}`, lookup, jsString(value))
}

const scriptClickSubmit = `() => {
	const el = document.querySelector('button[type="submit"]') ||
		document.querySelector('.o-login__button button') ||
		document.querySelector('button.a-button[data-type="primary"]');
	if (!el) return false;
	el.click();
	return true;
}`
