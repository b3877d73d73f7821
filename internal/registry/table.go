// Package registry maintains the server's live set of mounted rules.
//
// The table preserves mount order and resolves requests in reverse mount
// order, so a test can override a broad default rule by mounting a more
// specific rule afterward. Rule selection and the winner's call-counter
// increment happen as a single atomic step under the table lock.
package registry

import (
	"net/http"
	"sync"

	"github.com/getstubd/stubd/internal/id"
	"github.com/getstubd/stubd/internal/matching"
	"github.com/getstubd/stubd/pkg/rule"
)

// Table is the ordered set of currently-mounted rules.
type Table struct {
	mu      sync.Mutex
	entries []*entry
}

type entry struct {
	id    string
	rule  *rule.Rule
	scope rule.Scope
	calls int
}

// Snapshot is the observable state of a mounted rule at a point in time.
type Snapshot struct {
	ID    string
	Scope rule.Scope
	Calls int
	Rule  *rule.Rule
}

// Selection identifies the rule chosen to respond to a request.
type Selection struct {
	RuleID   string
	Response rule.Response
}

// NewTable creates an empty mount table.
func NewTable() *Table {
	return &Table{}
}

// Mount registers a rule at the most-recently-mounted position and returns
// its assigned id. No two mounted rules share an id.
func (t *Table) Mount(r *rule.Rule, scope rule.Scope) string {
	ruleID := id.Rule()
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries = append(t.entries, &entry{id: ruleID, rule: r, scope: scope})
	return ruleID
}

// Unmount removes the rule with the given id and returns its final state.
// Once unmounted a rule is never selected again and its counter never moves.
// Unmounting an unknown id is a no-op.
func (t *Table) Unmount(ruleID string) (Snapshot, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i, e := range t.entries {
		if e.id == ruleID {
			t.entries = append(t.entries[:i], t.entries[i+1:]...)
			return snapshotOf(e), true
		}
	}
	return Snapshot{}, false
}

// Select walks the table in reverse mount order and returns the first rule
// whose combined matcher accepts the request, incrementing that rule's call
// counter in the same critical section. Returns false if no rule matches.
//
// Matchers run under the table lock; they are pure predicates over the
// request and must not call back into the table.
func (t *Table) Select(r *http.Request, body []byte) (Selection, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := len(t.entries) - 1; i >= 0; i-- {
		e := t.entries[i]
		if matching.Evaluate(e.rule.Matcher(), r, body) {
			e.calls++
			return Selection{RuleID: e.id, Response: e.rule.Response}, true
		}
	}
	return Selection{}, false
}

// Snapshots returns the state of all mounted rules in mount order.
func (t *Table) Snapshots() []Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Snapshot, len(t.entries))
	for i, e := range t.entries {
		out[i] = snapshotOf(e)
	}
	return out
}

// Get returns the state of a single mounted rule.
func (t *Table) Get(ruleID string) (Snapshot, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, e := range t.entries {
		if e.id == ruleID {
			return snapshotOf(e), true
		}
	}
	return Snapshot{}, false
}

// Len returns the number of mounted rules.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}

func snapshotOf(e *entry) Snapshot {
	return Snapshot{ID: e.id, Scope: e.scope, Calls: e.calls, Rule: e.rule}
}
