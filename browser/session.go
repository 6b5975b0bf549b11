package browser

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrSessionCreation is returned when the browser cannot be launched or reached.
	ErrSessionCreation = errors.New("browser session creation failed")
	// ErrTimeout is returned when a waited-for element does not appear in time.
	ErrTimeout = errors.New("timed out waiting for element")
	// ErrScrape is returned when element lookup or text/attribute retrieval fails.
	ErrScrape = errors.New("scrape failed")
)

// By selects how WaitForElement interprets its selector.
type By int

const (
	ByID By = iota
	ByCSS
)

func (b By) String() string {
	switch b {
	case ByID:
		return "id"
	case ByCSS:
		return "css"
	default:
		return "unknown"
	}
}

// Factory opens browser sessions. Every session it returns is owned by the
// caller, which must Close it.
type Factory interface {
	NewSession(ctx context.Context) (Session, error)
}

// Session is a single browser instance showing one page.
type Session interface {
	Navigate(ctx context.Context, url string) error
	// WaitForElement blocks until an element matching selector is present in
	// the DOM. It returns an error wrapping ErrTimeout if none shows up
	// within timeout.
	WaitForElement(ctx context.Context, by By, selector string, timeout time.Duration) error
	// FindElements returns every element matching the CSS selector in
	// document order. No match is not an error.
	FindElements(ctx context.Context, selector string) ([]Element, error)
	PageSource(ctx context.Context) (string, error)
	Close() error
}

// Element is a matched element. Implementations may capture its state when
// FindElements runs.
type Element interface {
	// Text returns the element's rendered text, empty if it is not rendered.
	Text(ctx context.Context) (string, error)
	// Attribute returns the named attribute and whether it is present. URL
	// attributes (href, src) are resolved against the page location.
	Attribute(ctx context.Context, name string) (string, bool, error)
}
