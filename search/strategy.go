package search

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"websearch/browser"
	"websearch/pkg/logctx"
)

// ReadyTimeout bounds the wait for a results page's ready element.
const ReadyTimeout = 5000 * time.Millisecond

// Strategy describes how to search one engine: where to go, what signals
// that results have rendered, and what to scrape.
type Strategy struct {
	Engine Engine
	URL    func(query string) string
	// ReadyID is the id of the element whose presence means results loaded.
	ReadyID string
	// TextSelectors are scraped in order; each non-empty section becomes
	// part of Result.Results.
	TextSelectors []string
	LinkSelector  string
}

// Searcher runs strategies, one fresh browser session per call.
type Searcher struct {
	factory      browser.Factory
	capture      *browser.DebugCapture
	logger       *zap.Logger
	readyTimeout time.Duration
}

func NewSearcher(factory browser.Factory, capture *browser.DebugCapture, logger *zap.Logger) *Searcher {
	return &Searcher{
		factory:      factory,
		capture:      capture,
		logger:       logger,
		readyTimeout: ReadyTimeout,
	}
}

// Run executes a single search. The session is always closed before Run
// returns; a close failure is logged and never replaces the outcome.
func (s *Searcher) Run(ctx context.Context, st Strategy, query string) (*Result, error) {
	logger := logctx.Logger(ctx, s.logger)

	session, err := s.factory.NewSession(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := session.Close(); err != nil {
			logger.Warn("Failed to close browser session", zap.Error(err))
		}
	}()

	searchURL := st.URL(query)
	logger.Info("Searching", zap.String("query", query), zap.String("url", searchURL))

	if err := session.Navigate(ctx, searchURL); err != nil {
		return nil, err
	}

	s.capture.MaybeCapture(ctx, session)

	if err := session.WaitForElement(ctx, browser.ByID, st.ReadyID, s.readyTimeout); err != nil {
		return nil, err
	}

	sections := make([]string, 0, len(st.TextSelectors))
	for _, selector := range st.TextSelectors {
		text, err := browser.ScrapeText(ctx, session, selector)
		if err != nil {
			return nil, err
		}
		if text != "" {
			sections = append(sections, text)
		}
	}

	links, err := browser.ScrapeLinks(ctx, session, st.LinkSelector)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Results: strings.Join(sections, "\n"),
		Links:   links,
	}
	logger.Debug("Found",
		zap.String("results", result.Results),
		zap.Strings("links", result.Links))
	return result, nil
}
