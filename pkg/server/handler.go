package server

import (
	"errors"
	"io"
	"maps"
	"net/http"
	"strings"
	"time"

	"github.com/getstubd/stubd/internal/id"
	"github.com/getstubd/stubd/pkg/httputil"
	"github.com/getstubd/stubd/pkg/requestlog"
)

// builtinPrefix reserves a path namespace for the server's own endpoints.
const builtinPrefix = "/__stubd/"

// ServeHTTP dispatches one incoming request: capture the body, select a
// rule (incrementing its counter atomically), record the request, and write
// either the rule's canned response or the 404 fallback. Matcher failures
// never escape — the client always receives a response.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	arrival := time.Now()

	if strings.HasPrefix(r.URL.Path, builtinPrefix) {
		s.serveBuiltin(w, r)
		return
	}

	// Bound the body read so an oversized payload cannot exhaust memory.
	// MaxBytesReader errors instead of silently truncating.
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBodySize)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			s.log.Warn("request body too large", "path", r.URL.Path, "limit", s.maxBodySize)
			httputil.WriteError(w, http.StatusRequestEntityTooLarge,
				"body_too_large", "request body exceeds maximum allowed size")
			return
		}
		s.log.Warn("failed to read request body", "path", r.URL.Path, "error", err)
	}

	sel, matched := s.table.Select(r, body)

	status := http.StatusNotFound
	matchedID := ""
	if matched {
		status = sel.Response.StatusCode
		matchedID = sel.RuleID
		s.log.Debug("request matched", "method", r.Method, "path", r.URL.Path, "rule_id", matchedID)
	} else {
		s.log.Debug("request unmatched", "method", r.Method, "path", r.URL.Path)
	}

	// Record before writing the response so that a request issued after
	// this response was received always appears later in the log.
	if s.recording {
		s.record(arrival, r, body, matchedID, status)
	}

	if !matched {
		// Default response: 404, empty body.
		w.WriteHeader(http.StatusNotFound)
		return
	}

	if sel.Response.DelayMs > 0 {
		time.Sleep(time.Duration(sel.Response.DelayMs) * time.Millisecond)
	}
	for name, value := range sel.Response.Headers {
		w.Header().Set(name, value)
	}
	w.WriteHeader(status)
	if len(sel.Response.Body) > 0 {
		_, _ = w.Write(sel.Response.Body)
	}
}

// record appends an immutable snapshot of the request to the request log.
func (s *Server) record(arrival time.Time, r *http.Request, body []byte, matchedID string, status int) {
	headers := make(map[string][]string, len(r.Header))
	maps.Copy(headers, r.Header)

	s.requests.Append(&requestlog.Entry{
		ID:             id.Entry(),
		Timestamp:      arrival,
		Method:         r.Method,
		Path:           r.URL.Path,
		QueryString:    r.URL.RawQuery,
		Headers:        headers,
		Body:           body,
		RemoteAddr:     r.RemoteAddr,
		MatchedRuleID:  matchedID,
		ResponseStatus: status,
	})
}

// serveBuiltin handles the reserved /__stubd/ inspection endpoints. These
// are served outside the mount table and are not recorded.
func (s *Server) serveBuiltin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.WriteMethodNotAllowed(w)
		return
	}

	switch r.URL.Path {
	case builtinPrefix + "health":
		httputil.WriteOK(w, map[string]string{"status": "ok"})
	case builtinPrefix + "requests":
		httputil.WriteOK(w, s.requests.List())
	default:
		httputil.WriteError(w, http.StatusNotFound, "unknown_endpoint",
			"unknown built-in endpoint "+r.URL.Path)
	}
}
