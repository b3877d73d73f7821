// Package stubtest runs a stubd mock server inside a Go test. The harness
// starts a server on an ephemeral port, stops it in t.Cleanup, and reports
// expectation violations as test failures.
//
//	srv := stubtest.New(t)
//	srv.Mount(rule.New().Path("/users").JSON(users).Times(1).MustBuild())
//	client.BaseURL = srv.URL()
//	// ... exercise the code under test ...
package stubtest

import (
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/getstubd/stubd/pkg/rule"
	"github.com/getstubd/stubd/pkg/server"
)

// Harness is a mock server bound to a test's lifetime.
type Harness struct {
	t   testing.TB
	srv *server.Server
}

// New starts a mock server for the test. The server is stopped when the
// test completes; expectation violations found at stop fail the test.
func New(t testing.TB, opts ...server.Option) *Harness {
	t.Helper()

	srv := server.New(opts...)
	if err := srv.Start(); err != nil {
		t.Fatalf("failed to start mock server: %v", err)
	}
	t.Cleanup(func() {
		err := srv.Stop()
		if err != nil && !errors.Is(err, server.ErrAlreadyStopped) {
			t.Errorf("mock server shutdown: %v", err)
		}
	})

	return &Harness{t: t, srv: srv}
}

// URL returns the base URL of the running server.
func (h *Harness) URL() string {
	return h.srv.URL()
}

// Server exposes the underlying server for direct access.
func (h *Harness) Server() *server.Server {
	return h.srv
}

// Mount registers a global rule and returns its id. The rule's expectation
// is verified when the test's cleanup stops the server.
func (h *Harness) Mount(r *rule.Rule) string {
	return h.srv.Mount(r)
}

// Scoped registers a scoped rule whose guard is released in t.Cleanup; a
// violation at release fails the test. Release the returned guard earlier
// to verify mid-test.
func (h *Harness) Scoped(r *rule.Rule) *server.Guard {
	h.t.Helper()

	guard := h.srv.MountScoped(r)
	h.t.Cleanup(func() {
		if err := guard.Release(); err != nil {
			h.t.Errorf("scoped rule: %v", err)
		}
	})
	return guard
}

// Requests returns the recorded requests in arrival order.
func (h *Harness) Requests() []*Recorded {
	entries := h.srv.Requests()
	recorded := make([]*Recorded, len(entries))
	for i, e := range entries {
		recorded[i] = &Recorded{Entry: e}
	}
	return recorded
}

// LastRequest returns the most recently recorded request, failing the test
// when the log is empty.
func (h *Harness) LastRequest() *Recorded {
	h.t.Helper()

	entries := h.srv.Requests()
	if len(entries) == 0 {
		h.t.Fatalf("no requests recorded")
		return nil
	}
	return &Recorded{Entry: entries[len(entries)-1]}
}

// Reset clears the request log. Mounted rules and counters are untouched.
func (h *Harness) Reset() {
	h.srv.ClearRequests()
}

// AssertCalled asserts that at least one recorded request matches the
// method and path.
func (h *Harness) AssertCalled(t testing.TB, method, path string) {
	t.Helper()

	if h.countCalls(method, path) == 0 {
		t.Errorf("expected a %s request to %s, none recorded", method, path)
	}
}

// AssertCalledTimes asserts the exact number of recorded requests matching
// the method and path.
func (h *Harness) AssertCalledTimes(t testing.TB, method, path string, times int) {
	t.Helper()

	if got := h.countCalls(method, path); got != times {
		t.Errorf("expected %d %s request(s) to %s, recorded %d", times, method, path, got)
	}
}

// AssertNotCalled asserts that no recorded request matches the method and
// path.
func (h *Harness) AssertNotCalled(t testing.TB, method, path string) {
	t.Helper()

	if got := h.countCalls(method, path); got != 0 {
		t.Errorf("expected no %s requests to %s, recorded %d", method, path, got)
	}
}

func (h *Harness) countCalls(method, path string) int {
	count := 0
	for _, e := range h.srv.Requests() {
		if strings.EqualFold(e.Method, method) && e.Path == path {
			count++
		}
	}
	return count
}

// Get issues a GET to the mock server and returns the response, failing
// the test on transport errors. The caller owns the response body.
func (h *Harness) Get(path string) *http.Response {
	h.t.Helper()

	resp, err := http.Get(h.srv.URL() + path)
	if err != nil {
		h.t.Fatalf("GET %s: %v", path, err)
	}
	return resp
}
