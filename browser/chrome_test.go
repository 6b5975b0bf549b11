package browser

import (
	"context"
	"testing"

	"github.com/chromedp/chromedp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"websearch/config"
)

func TestChromeFactory_FirefoxNeedsRemote(t *testing.T) {
	f := NewChromeFactory(LaunchOptions{Kind: Firefox, Headless: true}, zaptest.NewLogger(t))

	s, err := f.NewSession(context.Background())
	require.Error(t, err)
	assert.Nil(t, s)
	assert.ErrorIs(t, err, ErrSessionCreation)
}

func TestChromeFactory_MissingBinary(t *testing.T) {
	f := NewChromeFactory(LaunchOptions{
		Kind:     Chrome,
		Headless: true,
		ExecPath: "/nonexistent/chrome-for-tests",
	}, zaptest.NewLogger(t))

	s, err := f.NewSession(context.Background())
	require.Error(t, err)
	assert.Nil(t, s)
	assert.ErrorIs(t, err, ErrSessionCreation)
}

func TestChromeFactory_ExecOptions(t *testing.T) {
	opts := LaunchOptions{Kind: Chrome, Args: []string{"--no-sandbox", "--lang=en-GB"}}
	f := NewChromeFactory(opts, zaptest.NewLogger(t))

	defaults := len(chromedp.DefaultExecAllocatorOptions)
	assert.Len(t, f.execOptions(""), defaults+len(opts.Flags()))
	assert.Len(t, f.execOptions("/usr/bin/chromium"), defaults+len(opts.Flags())+1)
	assert.Equal(t, map[string]any{"headless": false, "no-sandbox": true, "lang": "en-GB"}, opts.Flags())
}

func TestChromeFactory_SetupActions(t *testing.T) {
	logger := zaptest.NewLogger(t)

	chrome := NewChromeFactory(NewLaunchOptions(config.Browser{Kind: "chrome"}), logger)
	assert.Len(t, chrome.setupActions(), 2)

	firefox := NewChromeFactory(NewLaunchOptions(config.Browser{Kind: "firefox"}), logger)
	assert.Len(t, firefox.setupActions(), 2)

	edge := NewChromeFactory(NewLaunchOptions(config.Browser{Kind: "MicrosoftEdge"}), logger)
	assert.Empty(t, edge.setupActions())
}

func TestLookPath_NoneFound(t *testing.T) {
	_, err := lookPath([]string{"definitely-not-a-browser-binary"})
	assert.Error(t, err)
}
