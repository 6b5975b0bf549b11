package search

import (
	"errors"
	"net/url"
	"strings"
)

type Engine string

const (
	EngineGoogle     Engine = "google"
	EngineDuckDuckGo Engine = "duckduckgo"
)

var (
	// ErrUnsupportedEngine is a client error: the engine name is unknown.
	ErrUnsupportedEngine = errors.New("unsupported search engine")
	// ErrSearchFailed wraps every internal failure returned by Dispatch.
	ErrSearchFailed = errors.New("search failed")
)

type Request struct {
	Engine Engine `json:"engine"`
	Query  string `json:"query"`
}

type Result struct {
	Results string   `json:"results"`
	Links   []string `json:"links"`
}

// escapeQuery escapes s for a query string value the way JavaScript's
// encodeURIComponent does, so spaces become %20 rather than '+'.
func escapeQuery(s string) string {
	escaped := url.QueryEscape(s)
	return queryUnescaper.Replace(escaped)
}

var queryUnescaper = strings.NewReplacer(
	"+", "%20",
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)
