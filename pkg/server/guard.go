package server

import (
	"sync"
)

// Guard is the handle returned when a rule is mounted in scoped mode. It
// represents a caller-held obligation: releasing it unmounts the rule and
// verifies its expectation immediately.
//
// Release is intended to be deferred at the point of mounting:
//
//	guard := srv.MountScoped(r)
//	defer func() {
//	    if err := guard.Release(); err != nil {
//	        t.Error(err)
//	    }
//	}()
type Guard struct {
	srv    *Server
	ruleID string

	mu       sync.Mutex
	released bool
	result   error
}

// RuleID returns the id assigned to the guarded rule at mount time.
func (g *Guard) RuleID() string {
	return g.ruleID
}

// Release unmounts the rule and verifies its expectation against the final
// call count. Returns nil on success or a *rule.Violation. Release is
// idempotent: subsequent calls return the first call's result without
// touching any counter.
func (g *Guard) Release() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.released {
		return g.result
	}
	g.released = true

	snap, ok := g.srv.table.Unmount(g.ruleID)
	if !ok {
		// Rule already gone (explicit Unmount); nothing left to verify.
		return nil
	}
	g.srv.log.Debug("scoped rule released", "id", g.ruleID, "calls", snap.Calls)
	g.result = verifySnapshot(snap)
	return g.result
}
