package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"websearch/browser"
	"websearch/browser/browsertest"
	"websearch/search"
)

const prefix = "/api/plugins/selenium"

const duckDuckGoPage = `<html><body><div id="web_content_wrapper">
<a data-testid="result-title-a" href="https://go.dev/">Go</a>
<div data-result="snippet">Build simple, secure, scalable systems with Go.</div>
<a data-testid="result-title-a">no link</a>
</div></body></html>`

type dispatchFunc func(ctx context.Context, req search.Request) (*search.Result, error)

func (f dispatchFunc) Dispatch(ctx context.Context, req search.Request) (*search.Result, error) {
	return f(ctx, req)
}

func newServer(t *testing.T, d Dispatcher) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(NewPlugin(d, zaptest.NewLogger(t)).Mount(prefix))
	t.Cleanup(srv.Close)
	return srv
}

func post(t *testing.T, srv *httptest.Server, path, body string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Post(srv.URL+prefix+path, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(data)
}

func TestProbe(t *testing.T) {
	srv := newServer(t, dispatchFunc(func(context.Context, search.Request) (*search.Result, error) {
		t.Error("/probe must not dispatch")
		return nil, nil
	}))

	for _, body := range []string{"", "{}", "not json"} {
		resp, got := post(t, srv, "/probe", body)
		assert.Equal(t, http.StatusNoContent, resp.StatusCode)
		assert.Empty(t, got)
	}
}

func TestSearch_Success(t *testing.T) {
	f := browsertest.NewFactory(duckDuckGoPage)
	d := search.NewDispatcher(f, nil, zaptest.NewLogger(t), search.WithReadyTimeout(50*time.Millisecond))
	srv := newServer(t, d)

	resp, body := post(t, srv, "/search", `{"engine":"duckduckgo","query":"golang"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var result search.Result
	require.NoError(t, json.Unmarshal([]byte(body), &result))
	assert.Equal(t, "Build simple, secure, scalable systems with Go.", result.Results)
	assert.Equal(t, []string{"https://go.dev/", ""}, result.Links)
	assert.Equal(t, 1, f.Sessions()[0].Closes())
}

func TestSearch_EmptyLinksEncodeAsArray(t *testing.T) {
	srv := newServer(t, dispatchFunc(func(context.Context, search.Request) (*search.Result, error) {
		return &search.Result{}, nil
	}))

	resp, body := post(t, srv, "/search", `{"engine":"google","query":"x"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"results":"","links":[]}`, body)
}

func TestSearch_Errors(t *testing.T) {
	testCases := []struct {
		name       string
		body       string
		err        error
		wantStatus int
		wantBody   string
	}{
		{"UnknownEngine", `{"engine":"bing","query":"x"}`, nil, http.StatusBadRequest, "Invalid engine\n"},
		{"MissingEngine", `{"query":"x"}`, nil, http.StatusBadRequest, "Invalid engine\n"},
		{"EmptyBody", ``, nil, http.StatusBadRequest, "Invalid engine\n"},
		{"MalformedJSON", `{"engine":`, nil, http.StatusBadRequest, "Invalid request body\n"},
		{"NotAnObject", `["google","x"]`, nil, http.StatusBadRequest, "Invalid request body\n"},
		{"NumericEngine", `{"engine":1,"query":"x"}`, nil, http.StatusBadRequest, "Invalid engine\n"},
		{"NullEngine", `{"engine":null}`, nil, http.StatusBadRequest, "Invalid engine\n"},
		{"ObjectEngine", `{"engine":{"name":"google"},"query":{"q":1}}`, nil, http.StatusBadRequest, "Invalid engine\n"},
		{"SessionFailure", `{"engine":"google","query":"x"}`,
			errors.Join(search.ErrSearchFailed, browser.ErrSessionCreation, errors.New("chromedriver at /usr/bin missing")),
			http.StatusInternalServerError, "Internal Server Error\n"},
		{"Timeout", `{"engine":"duckduckgo","query":"x"}`,
			errors.Join(search.ErrSearchFailed, browser.ErrTimeout),
			http.StatusInternalServerError, "Internal Server Error\n"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			d := search.NewDispatcher(browsertest.NewFactory(""), nil, zaptest.NewLogger(t))
			var dispatcher Dispatcher = d
			if tc.err != nil {
				dispatcher = dispatchFunc(func(context.Context, search.Request) (*search.Result, error) {
					return nil, tc.err
				})
			}
			srv := newServer(t, dispatcher)

			resp, body := post(t, srv, "/search", tc.body)
			assert.Equal(t, tc.wantStatus, resp.StatusCode)
			assert.Equal(t, tc.wantBody, body)
			assert.NotContains(t, body, "chromedriver")
		})
	}
}

func TestSearch_UnknownEngineOpensNoSession(t *testing.T) {
	f := browsertest.NewFactory(duckDuckGoPage)
	srv := newServer(t, search.NewDispatcher(f, nil, zaptest.NewLogger(t)))

	resp, _ := post(t, srv, "/search", `{"engine":"bing","query":"x"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Empty(t, f.Sessions())
}

func TestSearch_MethodNotAllowed(t *testing.T) {
	srv := newServer(t, dispatchFunc(func(context.Context, search.Request) (*search.Result, error) {
		return &search.Result{}, nil
	}))

	resp, err := http.Get(srv.URL + prefix + "/search")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestDecodeSearchRequest(t *testing.T) {
	testCases := []struct {
		name string
		body string
		want search.Request
	}{
		{"Strings", `{"engine":"google","query":"golang"}`, search.Request{Engine: search.EngineGoogle, Query: "golang"}},
		{"NumberQuery", `{"engine":"google","query":5}`, search.Request{Engine: search.EngineGoogle, Query: "5"}},
		{"BoolQuery", `{"engine":"duckduckgo","query":true}`, search.Request{Engine: search.EngineDuckDuckGo, Query: "true"}},
		{"ArrayQuery", `{"engine":"google","query":["a", "b"]}`, search.Request{Engine: search.EngineGoogle, Query: `["a","b"]`}},
		{"NullQuery", `{"engine":"google","query":null}`, search.Request{Engine: search.EngineGoogle}},
		{"NumericEngine", `{"engine":1,"query":"x"}`, search.Request{Query: "x"}},
		{"Empty", ``, search.Request{}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := decodeSearchRequest(strings.NewReader(tc.body))
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestSearch_NumericQueryIsSearched(t *testing.T) {
	var got search.Request
	srv := newServer(t, dispatchFunc(func(_ context.Context, req search.Request) (*search.Result, error) {
		got = req
		return &search.Result{Results: "ok"}, nil
	}))

	resp, _ := post(t, srv, "/search", `{"engine":"google","query":42}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, search.Request{Engine: search.EngineGoogle, Query: "42"}, got)
}

func TestRecovery(t *testing.T) {
	srv := newServer(t, dispatchFunc(func(context.Context, search.Request) (*search.Result, error) {
		panic("boom")
	}))

	resp, body := post(t, srv, "/search", `{"engine":"google","query":"x"}`)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "Internal Server Error\n", body)
}

func TestRecovery_LogsRequestID(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	p := NewPlugin(dispatchFunc(func(context.Context, search.Request) (*search.Result, error) {
		panic("boom")
	}), zap.New(core))
	srv := httptest.NewServer(p.Mount(prefix))
	defer srv.Close()

	resp, _ := post(t, srv, "/search", `{"engine":"google","query":"x"}`)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	srv.Close()

	panics := logs.FilterMessage("panic recovered").All()
	require.Len(t, panics, 1)
	requestID, ok := panics[0].ContextMap()["request_id"].(string)
	require.True(t, ok)
	assert.NotEmpty(t, requestID)

	access := logs.FilterMessage("request").All()
	require.Len(t, access, 1)
	assert.Equal(t, requestID, access[0].ContextMap()["request_id"])
	assert.EqualValues(t, http.StatusInternalServerError, access[0].ContextMap()["status"])
}

func TestPluginInfo(t *testing.T) {
	p := NewPlugin(nil, zaptest.NewLogger(t))
	info := p.Info()
	assert.Equal(t, "selenium", info.ID)
	assert.Equal(t, "WebSearch Selenium", info.Name)
	assert.NotEmpty(t, info.Description)
	p.Exit()
}
