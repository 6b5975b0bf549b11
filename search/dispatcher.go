package search

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"go.uber.org/zap"

	"websearch/browser"
	"websearch/pkg/logctx"
)

// Dispatcher routes a Request to the strategy registered for its engine.
type Dispatcher struct {
	searcher   *Searcher
	strategies map[Engine]Strategy
	logger     *zap.Logger
}

type Option func(*Dispatcher)

// WithReadyTimeout overrides ReadyTimeout.
func WithReadyTimeout(d time.Duration) Option {
	return func(dp *Dispatcher) {
		dp.searcher.readyTimeout = d
	}
}

// WithStrategy registers st, replacing any strategy for the same engine.
func WithStrategy(st Strategy) Option {
	return func(dp *Dispatcher) {
		dp.strategies[st.Engine] = st
	}
}

func NewDispatcher(factory browser.Factory, capture *browser.DebugCapture, logger *zap.Logger, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		searcher: NewSearcher(factory, capture, logger),
		strategies: map[Engine]Strategy{
			Google.Engine:     Google,
			DuckDuckGo.Engine: DuckDuckGo,
		},
		logger: logger,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Engines returns the registered engine names, sorted.
func (d *Dispatcher) Engines() []Engine {
	engines := make([]Engine, 0, len(d.strategies))
	for engine := range d.strategies {
		engines = append(engines, engine)
	}
	slices.Sort(engines)
	return engines
}

// Dispatch runs the search described by req. Unknown engines yield
// ErrUnsupportedEngine without opening a browser. Any other failure is
// logged here and returned wrapped in ErrSearchFailed.
func (d *Dispatcher) Dispatch(ctx context.Context, req Request) (*Result, error) {
	ctx = logctx.WithEngine(ctx, string(req.Engine))
	logger := logctx.Logger(ctx, d.logger)

	st, ok := d.strategies[req.Engine]
	if !ok {
		logger.Debug("Rejected search for unsupported engine")
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedEngine, req.Engine)
	}

	// Searches are not cancelled by the caller; the ready wait is the only deadline.
	result, err := d.searcher.Run(context.WithoutCancel(ctx), st, req.Query)
	if err != nil {
		logger.Error("Search failed",
			zap.String("query", req.Query),
			zap.String("kind", errorKind(err)),
			zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrSearchFailed, err)
	}
	return result, nil
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, browser.ErrSessionCreation):
		return "session"
	case errors.Is(err, browser.ErrTimeout):
		return "timeout"
	case errors.Is(err, browser.ErrScrape):
		return "scrape"
	default:
		return "navigation"
	}
}
