package search

// Google scrapes the answer box, knowledge panel and result snippets. The
// legacy snippet classes stay in the list in case the old markup returns.
var Google = Strategy{
	Engine: EngineGoogle,
	URL: func(query string) string {
		return "https://google.com/search?hl=en&q=" + escapeQuery(query)
	},
	ReadyID: "res",
	TextSelectors: []string{
		".wDYxhc",        // answer box
		".hgKElc",        // knowledge panel
		".r025kc.lVm3ye", // page snippets
		".yDYNvb.lyLwlc", // legacy snippets
	},
	LinkSelector: ".yuRUbf a",
}
