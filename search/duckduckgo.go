package search

// DuckDuckGo searches with safe search off (kp=-2) and no region (kl=wt-wt).
var DuckDuckGo = Strategy{
	Engine: EngineDuckDuckGo,
	URL: func(query string) string {
		return "https://duckduckgo.com/?kp=-2&kl=wt-wt&q=" + escapeQuery(query)
	},
	ReadyID:       "web_content_wrapper",
	TextSelectors: []string{`[data-result="snippet"]`},
	LinkSelector:  `[data-testid="result-title-a"]`,
}
