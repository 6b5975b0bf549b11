package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"websearch/pkg/logctx"
	"websearch/search"
)

const (
	msgInvalidEngine = "Invalid engine"
	msgInvalidBody   = "Invalid request body"
	msgInternalError = "Internal Server Error"
)

// ProbeHandler lets the host detect that the plugin is installed.
func (p *Plugin) ProbeHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

// SearchHandler handles POST /search with a JSON {engine, query} body.
func (p *Plugin) SearchHandler(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	req, err := decodeSearchRequest(r.Body)
	if err != nil {
		http.Error(w, msgInvalidBody, http.StatusBadRequest)
		return
	}

	result, err := p.dispatcher.Dispatch(r.Context(), req)
	switch {
	case errors.Is(err, search.ErrUnsupportedEngine):
		http.Error(w, msgInvalidEngine, http.StatusBadRequest)
		return
	case err != nil:
		http.Error(w, msgInternalError, http.StatusInternalServerError)
		return
	}

	if result.Links == nil {
		result.Links = []string{}
	}
	respondJSON(w, http.StatusOK, result)
	logctx.Logger(r.Context(), p.logger).Debug("Search served", zap.Int("links", len(result.Links)))
}

// searchBody accepts any JSON type for engine and query so that a wrong
// engine type is reported as an invalid engine rather than a bad body.
// Non-string queries are searched as their JSON text.
type searchBody struct {
	Engine any `json:"engine"`
	Query  any `json:"query"`
}

func decodeSearchRequest(body io.Reader) (search.Request, error) {
	var raw searchBody
	dec := json.NewDecoder(body)
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil && !errors.Is(err, io.EOF) {
		return search.Request{}, err
	}

	var req search.Request
	// A non-string engine never matches a registered one.
	if engine, ok := raw.Engine.(string); ok {
		req.Engine = search.Engine(engine)
	}

	switch q := raw.Query.(type) {
	case nil:
	case string:
		req.Query = q
	case json.Number:
		req.Query = q.String()
	case bool:
		req.Query = strconv.FormatBool(q)
	default:
		// Arrays and objects are searched as their compact JSON text.
		text, err := json.Marshal(q)
		if err != nil {
			return search.Request{}, fmt.Errorf("encode query: %w", err)
		}
		req.Query = string(text)
	}
	return req, nil
}

// respondJSON marshals before writing headers so an encoding failure still
// produces a clean 500.
func respondJSON(w http.ResponseWriter, status int, data any) {
	payload, err := json.Marshal(data)
	if err != nil {
		http.Error(w, msgInternalError, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(payload)
}
