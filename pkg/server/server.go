// Package server provides the programmable HTTP mock server.
//
// A Server binds a local port, matches each incoming request against its
// mounted rules, returns the canned response of the most recently mounted
// matching rule, records every request, and verifies call-count
// expectations: per rule when a scope guard is released, and for everything
// still mounted when the server stops.
//
// Paths under "/__stubd/" are reserved for the built-in inspection
// endpoints: requests there are never matched against rules and never
// recorded in the request log.
package server

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/getstubd/stubd/internal/registry"
	"github.com/getstubd/stubd/pkg/logging"
	"github.com/getstubd/stubd/pkg/requestlog"
	"github.com/getstubd/stubd/pkg/rule"
)

// DefaultDrainTimeout bounds the graceful drain of in-flight requests
// during Stop; connections still open afterwards are forcibly closed.
const DefaultDrainTimeout = 5 * time.Second

// DefaultMaxBodySize caps request bodies read for matching (10MB).
const DefaultMaxBodySize = 10 << 20

type state int

const (
	stateCreated state = iota
	stateRunning
	stateStopped
)

// Server is a programmable mock HTTP server. The "/__stubd/" path prefix
// is reserved for built-in endpoints; rules mounted on those paths are
// never selected.
type Server struct {
	host         string
	port         int
	recording    bool
	drainTimeout time.Duration
	maxBodySize  int64
	maxLogSize   int
	log          *slog.Logger

	table    *registry.Table
	requests requestlog.Store

	mu      sync.Mutex
	state   state
	httpSrv *http.Server
	addr    string
}

// Option configures a Server at construction time.
type Option func(*Server)

// WithHost sets the host to bind. Default is 127.0.0.1.
func WithHost(host string) Option {
	return func(s *Server) { s.host = host }
}

// WithPort sets the port to bind. Port 0 (the default) asks the operating
// system for a free ephemeral port.
func WithPort(port int) Option {
	return func(s *Server) { s.port = port }
}

// WithRecording toggles request recording. Recording is enabled by default;
// disable it for high-volume tests that never inspect the request log.
func WithRecording(enabled bool) Option {
	return func(s *Server) { s.recording = enabled }
}

// WithLogger sets the operational logger. Default is a no-op logger.
func WithLogger(log *slog.Logger) Option {
	return func(s *Server) {
		if log != nil {
			s.log = log
		}
	}
}

// WithDrainTimeout bounds how long Stop waits for in-flight requests.
func WithDrainTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.drainTimeout = d
		}
	}
}

// WithMaxBodySize caps the request body size read for matching.
func WithMaxBodySize(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxBodySize = n
		}
	}
}

// WithRequestLogLimit bounds the request log to the newest n entries.
// The default is an unbounded log.
func WithRequestLogLimit(n int) Option {
	return func(s *Server) { s.maxLogSize = n }
}

// New creates a mock server in the Created state. Call Start to bind the
// listen address.
func New(opts ...Option) *Server {
	s := &Server{
		host:         "127.0.0.1",
		port:         0,
		recording:    true,
		drainTimeout: DefaultDrainTimeout,
		maxBodySize:  DefaultMaxBodySize,
		log:          logging.Nop(),
		table:        registry.NewTable(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.requests = requestlog.NewInMemoryStore(s.maxLogSize)
	return s
}

// Start binds the configured address and begins serving. Returns a
// *BindError if the address cannot be bound, ErrAlreadyStarted if the
// server's lifecycle has already begun.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != stateCreated {
		return ErrAlreadyStarted
	}

	bindAddr := net.JoinHostPort(s.host, strconv.Itoa(s.port))
	ln, err := net.Listen("tcp", bindAddr)
	if err != nil {
		return &BindError{Addr: bindAddr, Err: err}
	}

	s.httpSrv = &http.Server{Handler: s}
	s.addr = ln.Addr().String()
	s.state = stateRunning

	go func() {
		if serveErr := s.httpSrv.Serve(ln); serveErr != nil && serveErr != http.ErrServerClosed {
			s.log.Error("mock server error", "error", serveErr)
		}
	}()

	s.log.Info("mock server started", "addr", s.addr)
	return nil
}

// Addr returns the resolved host:port. Valid once Start has succeeded; the
// port is the OS-assigned one when port 0 was requested.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// URL returns the base URL of the server ("http://host:port"), or the empty
// string before Start.
func (s *Server) URL() string {
	addr := s.Addr()
	if addr == "" {
		return ""
	}
	return "http://" + addr
}

// Stop stops accepting new connections, drains in-flight requests (bounded
// by the drain timeout, then forcibly closed), and verifies the expectation
// of every rule still mounted — global and unreleased scoped rules alike.
// All rules are checked; violations are aggregated into a single
// *VerificationError. Returns ErrAlreadyStopped on a second call.
func (s *Server) Stop() error {
	s.mu.Lock()
	if s.state == stateStopped {
		s.mu.Unlock()
		return ErrAlreadyStopped
	}
	httpSrv := s.httpSrv
	s.state = stateStopped
	s.mu.Unlock()

	if httpSrv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), s.drainTimeout)
		defer cancel()
		if err := httpSrv.Shutdown(ctx); err != nil {
			// Drain timeout expired with connections still open.
			s.log.Warn("drain timeout expired, closing remaining connections", "error", err)
			_ = httpSrv.Close()
		}
	}

	s.log.Info("mock server stopped", "addr", s.addr)
	return s.verifyMounted()
}

// verifySnapshot checks one rule's final call count against its
// expectation.
func verifySnapshot(snap registry.Snapshot) error {
	return rule.Verify(snap.ID, snap.Rule.Describe(), snap.Rule.Expect, snap.Calls)
}

// verifyMounted checks every rule still in the mount table. Runs only after
// the drain so that no counter can move underneath it.
func (s *Server) verifyMounted() error {
	var violations []*rule.Violation
	for _, snap := range s.table.Snapshots() {
		if err := verifySnapshot(snap); err != nil {
			violations = append(violations, err.(*rule.Violation))
		}
	}
	if len(violations) == 0 {
		return nil
	}
	return &VerificationError{Violations: violations}
}

// Mount registers a global rule: it lives until the server stops and is
// verified during shutdown. Returns the assigned rule id.
func (s *Server) Mount(r *rule.Rule) string {
	ruleID := s.table.Mount(r, rule.ScopeGlobal)
	s.log.Debug("rule mounted", "id", ruleID, "scope", rule.ScopeGlobal, "match", r.Describe())
	return ruleID
}

// MountScoped registers a scoped rule and returns its guard. The caller
// must release the guard to unmount the rule and verify its expectation;
// an unreleased scoped rule falls through to shutdown verification.
func (s *Server) MountScoped(r *rule.Rule) *Guard {
	ruleID := s.table.Mount(r, rule.ScopeScoped)
	s.log.Debug("rule mounted", "id", ruleID, "scope", rule.ScopeScoped, "match", r.Describe())
	return &Guard{srv: s, ruleID: ruleID}
}

// Unmount removes a rule by id without verification. Unknown ids are a
// no-op.
func (s *Server) Unmount(ruleID string) {
	if _, ok := s.table.Unmount(ruleID); ok {
		s.log.Debug("rule unmounted", "id", ruleID)
	}
}

// RuleCalls returns the current call count of a mounted rule.
func (s *Server) RuleCalls(ruleID string) (int, bool) {
	snap, ok := s.table.Get(ruleID)
	if !ok {
		return 0, false
	}
	return snap.Calls, true
}

// Requests returns a snapshot of the request log in arrival order. The
// snapshot never observes appends made after the call. Empty when recording
// is disabled.
func (s *Server) Requests() []*requestlog.Entry {
	return s.requests.List()
}

// ClearRequests empties the request log. Mounted rules and their counters
// are unaffected.
func (s *Server) ClearRequests() {
	s.requests.Clear()
}
