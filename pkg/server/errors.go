package server

import (
	"errors"
	"fmt"
	"strings"

	"github.com/getstubd/stubd/pkg/rule"
)

// ErrAlreadyStopped is returned by Stop on a server that has already been
// stopped. Non-fatal: the first Stop's verification result stands.
var ErrAlreadyStopped = errors.New("server already stopped")

// ErrAlreadyStarted is returned by Start on a server that is running or has
// been stopped; a server's lifecycle runs exactly once.
var ErrAlreadyStarted = errors.New("server already started")

// BindError reports that the listen address could not be bound. Fatal to
// startup, returned synchronously from Start.
type BindError struct {
	Addr string
	Err  error
}

func (e *BindError) Error() string {
	return fmt.Sprintf("bind %s: %v", e.Addr, e.Err)
}

func (e *BindError) Unwrap() error { return e.Err }

// VerificationError aggregates expectation violations found during the
// shutdown verification pass. Verification is not fail-fast: every mounted
// rule is checked and all violations are collected.
type VerificationError struct {
	Violations []*rule.Violation
}

func (e *VerificationError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "expectation verification failed for %d rule(s):", len(e.Violations))
	for _, v := range e.Violations {
		b.WriteString("\n  ")
		b.WriteString(v.Error())
	}
	return b.String()
}

// Unwrap exposes the individual violations to errors.Is/As.
func (e *VerificationError) Unwrap() []error {
	errs := make([]error, len(e.Violations))
	for i, v := range e.Violations {
		errs[i] = v
	}
	return errs
}
