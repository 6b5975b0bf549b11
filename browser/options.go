package browser

import (
	"strings"

	"websearch/config"
)

// BrowserKind identifies the browser family to launch. Values match the
// selenium browser names so existing ST_SELENIUM_BROWSER settings keep working.
type BrowserKind string

const (
	Chrome  BrowserKind = "chrome"
	Firefox BrowserKind = "firefox"
	Edge    BrowserKind = "MicrosoftEdge"
)

// ParseBrowserKind maps a configured name to a BrowserKind, falling back to
// Chrome for empty or unknown names.
func ParseBrowserKind(name string) BrowserKind {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "firefox":
		return Firefox
	case "microsoftedge", "edge", "msedge":
		return Edge
	default:
		return Chrome
	}
}

// LaunchOptions is the per-kind launch configuration derived from config.Browser.
type LaunchOptions struct {
	Kind     BrowserKind
	Headless bool
	Debug    bool
	Args     []string
	// AcceptLanguage is sent with every request the session makes.
	AcceptLanguage string
	RemoteURL      string
	ExecPath       string
}

func NewLaunchOptions(cfg config.Browser) LaunchOptions {
	opts := LaunchOptions{
		Kind:      ParseBrowserKind(cfg.Kind),
		Headless:  cfg.Headless,
		Debug:     cfg.Debug,
		RemoteURL: cfg.RemoteURL,
		ExecPath:  cfg.ExecPath,
	}

	if opts.Headless {
		opts.Args = append(opts.Args, "--headless")
	}

	switch opts.Kind {
	case Chrome:
		opts.Args = append(opts.Args,
			"--disable-infobars",
			"--disable-gpu",
			"--no-sandbox",
			"--disable-dev-shm-usage",
			"--lang=en-GB",
		)
		opts.AcceptLanguage = "en-GB"
	case Firefox:
		// Mirrors the intl.accept_languages=en,en_US profile preference.
		opts.AcceptLanguage = "en,en-US"
	}

	return opts
}

// Flags returns the command-line switches for a locally launched browser,
// keyed by name without the leading dashes. headless is always present so
// it overrides chromedp's default.
func (o LaunchOptions) Flags() map[string]any {
	flags := map[string]any{"headless": o.Headless}
	for _, arg := range o.Args {
		name, value := flag(arg)
		flags[name] = value
	}
	return flags
}

// flag splits a "--name=value" argument into a chromedp flag name and value.
// Arguments without a value become boolean flags.
func flag(arg string) (string, any) {
	arg = strings.TrimLeft(arg, "-")
	if name, value, ok := strings.Cut(arg, "="); ok {
		return name, value
	}
	return arg, true
}
