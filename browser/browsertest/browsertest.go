// Package browsertest provides an in-memory browser.Factory that serves
// static HTML, for tests of code that drives browser sessions.
package browsertest

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"

	"websearch/browser"
)

// Factory hands out sessions that render HTML regardless of the URL they
// navigate to. The error fields inject failures into every session.
type Factory struct {
	HTML string

	CreateErr   error
	NavigateErr error
	SourceErr   error
	TextErr     error
	CloseErr    error

	mu       sync.Mutex
	sessions []*Session
}

func NewFactory(html string) *Factory {
	return &Factory{HTML: html}
}

func (f *Factory) NewSession(_ context.Context) (browser.Session, error) {
	if f.CreateErr != nil {
		return nil, fmt.Errorf("%w: %w", browser.ErrSessionCreation, f.CreateErr)
	}

	s := &Session{factory: f}
	f.mu.Lock()
	f.sessions = append(f.sessions, s)
	f.mu.Unlock()
	return s, nil
}

// Sessions returns every session created so far.
func (f *Factory) Sessions() []*Session {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*Session(nil), f.sessions...)
}

type Session struct {
	factory *Factory

	mu     sync.Mutex
	url    *url.URL
	doc    *goquery.Document
	visits []string
	closes int
}

// URLs lists the addresses passed to Navigate, in order.
func (s *Session) URLs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.visits...)
}

// Closes reports how many times Close was called.
func (s *Session) Closes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closes
}

func (s *Session) Navigate(_ context.Context, rawURL string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.visits = append(s.visits, rawURL)
	if s.factory.NavigateErr != nil {
		return s.factory.NavigateErr
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return err
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s.factory.HTML))
	if err != nil {
		return err
	}
	s.url, s.doc = u, doc
	return nil
}

func (s *Session) document() (*goquery.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.doc == nil {
		return nil, errors.New("no page loaded")
	}
	return s.doc, nil
}

// WaitForElement returns at once when the element exists. The markup never
// changes, so otherwise it waits out the full timeout.
func (s *Session) WaitForElement(ctx context.Context, by browser.By, selector string, timeout time.Duration) error {
	doc, err := s.document()
	if err != nil {
		return err
	}

	query := selector
	if by == browser.ByID {
		query = "#" + selector
	}
	if doc.Find(query).Length() > 0 {
		return nil
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-timer.C:
		return fmt.Errorf("%w: %s %q after %s", browser.ErrTimeout, by, selector, timeout)
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Session) FindElements(_ context.Context, selector string) ([]browser.Element, error) {
	doc, err := s.document()
	if err != nil {
		return nil, err
	}

	var elements []browser.Element
	doc.Find(selector).Each(func(_ int, sel *goquery.Selection) {
		elements = append(elements, &Element{session: s, sel: sel})
	})
	return elements, nil
}

func (s *Session) PageSource(_ context.Context) (string, error) {
	if s.factory.SourceErr != nil {
		return "", s.factory.SourceErr
	}
	doc, err := s.document()
	if err != nil {
		return "", err
	}
	return doc.Html()
}

func (s *Session) Close() error {
	s.mu.Lock()
	s.closes++
	s.mu.Unlock()
	return s.factory.CloseErr
}

type Element struct {
	session *Session
	sel     *goquery.Selection
}

func (e *Element) Text(_ context.Context) (string, error) {
	if e.session.factory.TextErr != nil {
		return "", e.session.factory.TextErr
	}
	if !rendered(e.sel) {
		return "", nil
	}
	return strings.TrimSpace(e.sel.Text()), nil
}

// rendered approximates visibility from markup alone: an element is hidden
// when it or an ancestor has the hidden attribute or an inline display:none
// or visibility:hidden style.
func rendered(sel *goquery.Selection) bool {
	for n := sel; n.Length() > 0; n = n.Parent() {
		if _, ok := n.Attr("hidden"); ok {
			return false
		}
		style, _ := n.Attr("style")
		style = strings.ToLower(strings.ReplaceAll(style, " ", ""))
		if strings.Contains(style, "display:none") || strings.Contains(style, "visibility:hidden") {
			return false
		}
	}
	return true
}

func (e *Element) Attribute(_ context.Context, name string) (string, bool, error) {
	value, ok := e.sel.Attr(name)
	if !ok || (name != "href" && name != "src") {
		return value, ok, nil
	}

	ref, err := url.Parse(value)
	if err != nil {
		return value, true, nil
	}
	e.session.mu.Lock()
	base := e.session.url
	e.session.mu.Unlock()
	if base == nil {
		return value, true, nil
	}
	return base.ResolveReference(ref).String(), true, nil
}
