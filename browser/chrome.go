package browser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

// ActionTimeout bounds every browser operation that has no deadline of its
// own, so a stuck page fails the search instead of holding the browser.
const ActionTimeout = 30 * time.Second

var edgeBinaries = []string{"microsoft-edge", "microsoft-edge-stable", "msedge"}

// ChromeFactory launches browser sessions over the Chrome DevTools Protocol.
// Chrome and Edge are started locally; any kind can attach to RemoteURL.
type ChromeFactory struct {
	opts   LaunchOptions
	logger *zap.Logger
}

func NewChromeFactory(opts LaunchOptions, logger *zap.Logger) *ChromeFactory {
	return &ChromeFactory{opts: opts, logger: logger}
}

func (f *ChromeFactory) NewSession(ctx context.Context) (Session, error) {
	f.logger.Info("Starting browser session",
		zap.String("browser", string(f.opts.Kind)),
		zap.Bool("headless", f.opts.Headless),
		zap.Bool("debug", f.opts.Debug),
		zap.Bool("remote", f.opts.RemoteURL != ""))

	// The session outlives any single operation; keep ctx values only.
	base := context.WithoutCancel(ctx)

	allocCtx, allocCancel, err := f.allocator(base)
	if err != nil {
		return nil, err
	}

	sugar := f.logger.Sugar()
	taskCtx, taskCancel := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(sugar.Debugf),
		chromedp.WithErrorf(sugar.Debugf),
	)

	// The first Run starts the browser and binds the target to taskCtx, so
	// it must not run under a derived, cancellable context.
	if err := chromedp.Run(taskCtx, f.setupActions()...); err != nil {
		taskCancel()
		allocCancel()
		return nil, fmt.Errorf("%w: start %s: %v", ErrSessionCreation, f.opts.Kind, err)
	}

	return &chromeSession{
		ctx:         taskCtx,
		taskCancel:  taskCancel,
		allocCancel: allocCancel,
	}, nil
}

// setupActions prepares a fresh tab. The language header also covers remote
// browsers, where launch flags such as --lang cannot be applied.
func (f *ChromeFactory) setupActions() []chromedp.Action {
	if f.opts.AcceptLanguage == "" {
		return nil
	}
	return []chromedp.Action{
		network.Enable(),
		network.SetExtraHTTPHeaders(network.Headers{"Accept-Language": f.opts.AcceptLanguage}),
	}
}

func (f *ChromeFactory) allocator(ctx context.Context) (context.Context, context.CancelFunc, error) {
	if f.opts.RemoteURL != "" {
		allocCtx, cancel := chromedp.NewRemoteAllocator(ctx, f.opts.RemoteURL)
		return allocCtx, cancel, nil
	}

	if f.opts.Kind == Firefox {
		return nil, nil, fmt.Errorf("%w: firefox can only be reached through ST_SELENIUM_REMOTE_URL", ErrSessionCreation)
	}

	execPath := f.opts.ExecPath
	if execPath == "" && f.opts.Kind == Edge {
		path, err := lookPath(edgeBinaries)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", ErrSessionCreation, err)
		}
		execPath = path
	}

	allocCtx, cancel := chromedp.NewExecAllocator(ctx, f.execOptions(execPath)...)
	return allocCtx, cancel, nil
}

func (f *ChromeFactory) execOptions(execPath string) []chromedp.ExecAllocatorOption {
	// Copy default options to avoid mutating the package-level slice.
	opts := make([]chromedp.ExecAllocatorOption, len(chromedp.DefaultExecAllocatorOptions))
	copy(opts, chromedp.DefaultExecAllocatorOptions[:])

	for name, value := range f.opts.Flags() {
		opts = append(opts, chromedp.Flag(name, value))
	}
	if execPath != "" {
		opts = append(opts, chromedp.ExecPath(execPath))
	}
	return opts
}

func lookPath(candidates []string) (string, error) {
	for _, name := range candidates {
		if path, err := exec.LookPath(name); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("none of %v found in PATH", candidates)
}

type chromeSession struct {
	ctx         context.Context
	taskCancel  context.CancelFunc
	allocCancel context.CancelFunc

	closeOnce sync.Once
	closeErr  error
}

// run executes actions on the session's tab. It stops when ctx ends, or
// after ActionTimeout if ctx has no deadline.
func (s *chromeSession) run(ctx context.Context, actions ...chromedp.Action) error {
	var (
		runCtx context.Context
		cancel context.CancelFunc
	)
	if _, ok := ctx.Deadline(); ok {
		runCtx, cancel = context.WithCancel(s.ctx)
	} else {
		runCtx, cancel = context.WithTimeout(s.ctx, ActionTimeout)
	}
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	err := chromedp.Run(runCtx, actions...)
	if err != nil && errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("no response after %s: %w", ActionTimeout, context.DeadlineExceeded)
	}
	return err
}

func (s *chromeSession) Navigate(ctx context.Context, url string) error {
	if err := s.run(ctx, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("navigate to %s: %w", url, err)
	}
	return nil
}

func (s *chromeSession) WaitForElement(ctx context.Context, by By, selector string, timeout time.Duration) error {
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	opt := chromedp.ByQuery
	if by == ByID {
		opt = chromedp.ByID
	}

	err := s.run(waitCtx, chromedp.WaitReady(selector, opt))
	if err == nil {
		return nil
	}
	if errors.Is(waitCtx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s %q after %s", ErrTimeout, by, selector, timeout)
	}
	return fmt.Errorf("wait for %s %q: %w", by, selector, err)
}

// snapshotJS reads every match in a single evaluation, so later reads cannot
// chase nodes the page has since removed. Elements that are not rendered
// report empty text. URL attributes are read through the DOM property to
// get them resolved against the page location.
const snapshotJS = `(() => {
	return Array.from(document.querySelectorAll(%s)).map(el => {
		const style = window.getComputedStyle(el);
		const visible = el.getClientRects().length > 0 && style.visibility !== 'hidden';
		const attrs = {};
		for (const a of el.attributes) {
			attrs[a.name] = a.value;
		}
		for (const name of ['href', 'src']) {
			if (el.hasAttribute(name) && typeof el[name] === 'string') {
				attrs[name] = el[name];
			}
		}
		return {text: visible ? el.innerText : '', attrs: attrs};
	});
})()`

type elementSnapshot struct {
	Text  string            `json:"text"`
	Attrs map[string]string `json:"attrs"`
}

func (s *chromeSession) FindElements(ctx context.Context, selector string) ([]Element, error) {
	literal, err := json.Marshal(selector)
	if err != nil {
		return nil, fmt.Errorf("encode selector %q: %w", selector, err)
	}

	var snapshots []elementSnapshot
	if err := s.run(ctx, chromedp.Evaluate(fmt.Sprintf(snapshotJS, literal), &snapshots)); err != nil {
		return nil, fmt.Errorf("query %q: %w", selector, err)
	}

	elements := make([]Element, len(snapshots))
	for i, snap := range snapshots {
		elements[i] = &chromeElement{text: snap.Text, attrs: snap.Attrs}
	}
	return elements, nil
}

func (s *chromeSession) PageSource(ctx context.Context) (string, error) {
	var html string
	if err := s.run(ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("page source: %w", err)
	}
	return html, nil
}

// Close shuts the browser down. Only the first call does any work.
func (s *chromeSession) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = chromedp.Cancel(s.ctx)
		s.taskCancel()
		s.allocCancel()
	})
	return s.closeErr
}

// chromeElement is the state of a matched element at FindElements time.
type chromeElement struct {
	text  string
	attrs map[string]string
}

func (e *chromeElement) Text(_ context.Context) (string, error) {
	return e.text, nil
}

func (e *chromeElement) Attribute(_ context.Context, name string) (string, bool, error) {
	value, ok := e.attrs[name]
	return value, ok, nil
}
