package browser

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/google/uuid"
	"github.com/ysmood/gson"

	"note-dashboard-extractor/internal/config"
	"note-dashboard-extractor/internal/observability"
)

// Session owns the launched browser for the duration of one crawl. It must
// be released via Close on every exit path.
type Session struct {
	launcher  *launcher.Launcher
	browser   *rod.Browser
	page      *rod.Page
	outputDir string
	logger    *observability.Logger
	closed    bool
}

// NewSession launches a controlled browser and opens a blank page.
func NewSession(cfg config.BrowserConfig, outputDir string, logger *observability.Logger) (*Session, error) {
	l := launcher.New().
		Headless(cfg.IsHeadless()).
		Set("no-sandbox").
		Set("disable-dev-shm-usage").
		Set("disable-gpu").
		Set("window-size", fmt.Sprintf("%d,%d", cfg.WindowWidth, cfg.WindowHeight))

	if cfg.ChromePath != "" {
		l = l.Bin(cfg.ChromePath)
	}

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	b := rod.New().ControlURL(controlURL)
	if err := b.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}

	page, err := b.Page(proto.TargetCreateTarget{})
	if err != nil {
		_ = b.Close()
		l.Kill()
		return nil, fmt.Errorf("failed to open page: %w", err)
	}

	logger.Info("Browser session started", "headless", cfg.IsHeadless())

	return &Session{
		launcher:  l,
		browser:   b,
		page:      page,
		outputDir: outputDir,
		logger:    logger,
	}, nil
}

// Page returns the session's document handle.
func (s *Session) Page() Page {
	return &rodPage{session: s, page: s.page}
}

// Close tears the browser down. Safe to call more than once.
func (s *Session) Close() {
	if s.closed {
		return
	}
	s.closed = true

	s.logger.Info("Closing browser session")
	if err := s.browser.Close(); err != nil {
		s.logger.Warn("Failed to close browser", "error", err.Error())
	}
	s.launcher.Kill()
	s.launcher.Cleanup()
}

type rodPage struct {
	session *Session
	page    *rod.Page
}

func (p *rodPage) Navigate(url string) error {
	if err := p.page.Navigate(url); err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	if err := p.page.WaitLoad(); err != nil {
		return fmt.Errorf("failed to load %s: %w", url, err)
	}
	return nil
}

func (p *rodPage) CurrentURL() (string, error) {
	info, err := p.page.Info()
	if err != nil {
		return "", fmt.Errorf("failed to read page info: %w", err)
	}
	return info.URL, nil
}

func (p *rodPage) Find(selector string) (Element, error) {
	el, err := p.page.Sleeper(rod.NotFoundSleeper).Element(selector)
	if err != nil {
		return nil, ErrNotFound
	}
	return &rodElement{el: el}, nil
}

func (p *rodPage) FindAll(selector string) ([]Element, error) {
	els, err := p.page.Elements(selector)
	if err != nil {
		return nil, ErrNotFound
	}
	out := make([]Element, 0, len(els))
	for _, el := range els {
		out = append(out, &rodElement{el: el})
	}
	return out, nil
}

func (p *rodPage) WaitFor(selector string, timeout time.Duration) (Element, error) {
	el, err := p.page.Timeout(timeout).Element(selector)
	if err != nil {
		return nil, ErrNotFound
	}
	return &rodElement{el: el}, nil
}

func (p *rodPage) Eval(js string) (gson.JSON, error) {
	obj, err := p.page.Eval(js)
	if err != nil {
		return gson.New(nil), fmt.Errorf("scripted query failed: %w", err)
	}
	return obj.Value, nil
}

func (p *rodPage) HTML() (string, error) {
	html, err := p.page.HTML()
	if err != nil {
		return "", fmt.Errorf("failed to read page HTML: %w", err)
	}
	return html, nil
}

// Snapshot writes the rendered markup under <output>/debug and a screenshot
// under <output>/screenshots. Failures are logged and swallowed.
func (p *rodPage) Snapshot(name string) {
	stamp := fmt.Sprintf("%s_%s_%s", name, time.Now().Format("20060102150405"), uuid.NewString()[:8])

	if html, err := p.page.HTML(); err == nil {
		dir := filepath.Join(p.session.outputDir, "debug")
		if err := os.MkdirAll(dir, 0o755); err == nil {
			path := filepath.Join(dir, stamp+".html")
			if err := os.WriteFile(path, []byte(html), 0o644); err != nil {
				p.session.logger.Warn("Failed to save page source", "error", err.Error())
			} else {
				p.session.logger.Info("Saved page source", "path", path)
			}
		}
	} else {
		p.session.logger.Warn("Failed to capture page source", "error", err.Error())
	}

	if shot, err := p.page.Screenshot(true, nil); err == nil {
		dir := filepath.Join(p.session.outputDir, "screenshots")
		if err := os.MkdirAll(dir, 0o755); err == nil {
			path := filepath.Join(dir, stamp+".png")
			if err := os.WriteFile(path, shot, 0o644); err != nil {
				p.session.logger.Warn("Failed to save screenshot", "error", err.Error())
			} else {
				p.session.logger.Info("Saved screenshot", "path", path)
			}
		}
	} else {
		p.session.logger.Warn("Failed to capture screenshot", "error", err.Error())
	}
}

type rodElement struct {
	el *rod.Element
}

func (e *rodElement) Text() (string, error) {
	text, err := e.el.Text()
	if err != nil {
		return "", fmt.Errorf("failed to read element text: %w", err)
	}
	return strings.TrimSpace(text), nil
}

func (e *rodElement) Attribute(name string) (string, bool, error) {
	attr, err := e.el.Attribute(name)
	if err != nil {
		return "", false, fmt.Errorf("failed to read attribute %s: %w", name, err)
	}
	if attr == nil {
		return "", false, nil
	}
	return *attr, true, nil
}

func (e *rodElement) Click() error {
	if err := e.el.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return fmt.Errorf("failed to click element: %w", err)
	}
	return nil
}

func (e *rodElement) Input(text string) error {
	if err := e.el.Input(text); err != nil {
		return fmt.Errorf("failed to type into element: %w", err)
	}
	return nil
}

func (e *rodElement) Enabled() (bool, error) {
	if attr, ok, err := e.Attribute("disabled"); err != nil {
		return false, err
	} else if ok && attr != "false" {
		return false, nil
	}
	if attr, ok, err := e.Attribute("aria-disabled"); err != nil {
		return false, err
	} else if ok && attr == "true" {
		return false, nil
	}
	if class, ok, err := e.Attribute("class"); err != nil {
		return false, err
	} else if ok && strings.Contains(class, "disabled") {
		return false, nil
	}
	return true, nil
}
