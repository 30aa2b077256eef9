// Package browser wraps the controlled-browser session behind small
// interfaces so the crawl logic can be exercised against fakes. All rod calls
// live here.
package browser

import (
	"errors"
	"time"

	"github.com/ysmood/gson"
)

// ErrNotFound reports that a locator matched nothing. Callers treat it as a
// candidate miss, not a failure.
var ErrNotFound = errors.New("element not found")

// Element is a located page element.
type Element interface {
	// Text returns the trimmed visible text.
	Text() (string, error)
	// Attribute returns the attribute value and whether it is present.
	Attribute(name string) (string, bool, error)
	Click() error
	Input(text string) error
	// Enabled reports whether the element accepts interaction.
	Enabled() (bool, error)
}

// Page is the live document the crawl operates on.
type Page interface {
	Navigate(url string) error
	CurrentURL() (string, error)
	// Find locates the first match immediately, ErrNotFound on a miss.
	Find(selector string) (Element, error)
	// FindAll locates all matches immediately; an empty slice is not an error.
	FindAll(selector string) ([]Element, error)
	// WaitFor polls for the selector until it appears or the timeout elapses.
	WaitFor(selector string, timeout time.Duration) (Element, error)
	// Eval runs a scripted query ("() => ...") against the live document.
	Eval(js string) (gson.JSON, error)
	HTML() (string, error)
	// Snapshot captures a markup dump and screenshot for offline inspection.
	// Capture failures are logged and swallowed, never escalated.
	Snapshot(name string)
}
