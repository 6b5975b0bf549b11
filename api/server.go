package api

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"websearch/search"
)

// Info identifies the plugin to the host.
type Info struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

var PluginInfo = Info{
	ID:          "selenium",
	Name:        "WebSearch Selenium",
	Description: "Search the web using a headless browser. Requires a WebSearch UI extension.",
}

// Dispatcher runs searches. *search.Dispatcher implements it.
type Dispatcher interface {
	Dispatch(ctx context.Context, req search.Request) (*search.Result, error)
}

// Plugin exposes the search routes to a host router.
type Plugin struct {
	dispatcher Dispatcher
	logger     *zap.Logger
}

func NewPlugin(dispatcher Dispatcher, logger *zap.Logger) *Plugin {
	return &Plugin{dispatcher: dispatcher, logger: logger}
}

func (p *Plugin) Info() Info {
	return PluginInfo
}

// Init registers the plugin routes on mux.
func (p *Plugin) Init(mux *http.ServeMux) {
	mux.Handle("POST /probe", p.middleware(http.HandlerFunc(p.ProbeHandler)))
	mux.Handle("POST /search", p.middleware(http.HandlerFunc(p.SearchHandler)))

	p.logger.Info("Plugin loaded", zap.String("id", PluginInfo.ID))
}

func (p *Plugin) Exit() {
	p.logger.Info("Plugin exited", zap.String("id", PluginInfo.ID))
}

// Mount returns a handler serving the plugin under prefix, the way the host
// exposes plugins at /api/plugins/<id>/.
func (p *Plugin) Mount(prefix string) http.Handler {
	mux := http.NewServeMux()
	p.Init(mux)

	root := http.NewServeMux()
	root.Handle(prefix+"/", http.StripPrefix(prefix, mux))
	return root
}

func (p *Plugin) middleware(next http.Handler) http.Handler {
	return RequestLogger(p.logger)(Recovery(p.logger)(next))
}
