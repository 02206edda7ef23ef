// Package policy holds the independent policy handlers, the fixed
// kind-to-handler registry, and the verdict merger. Handlers are a closed,
// compile-time-checked set: new policies are added by extending the registry
// wiring, never by runtime string lookup.
package policy

import (
	"github.com/dotcommander/warden/internal/models"
	"github.com/dotcommander/warden/internal/state"
)

// Mutation is a deferred session-state change requested by a handler.
// Handlers only read the state snapshot they are given; all mutations are
// applied once, at the end of the invocation, inside a single AtomicUpdate.
type Mutation func(*state.SessionState)

// Partial is one handler's contribution to the merged verdict. The zero
// value is a no-op: allow, ok severity, continue, nothing to say.
type Partial struct {
	Source          string
	Permission      models.Permission
	Severity        models.Severity
	Halt            bool
	Message         string
	InjectedContext string
	Mutations       []Mutation
}

// Handler is an independent policy unit invoked for specific event kinds.
// A handler error never aborts the invocation; the dispatcher downgrades it
// to a warn-severity partial so the failure stays visible in the verdict.
type Handler interface {
	Name() string
	Handle(ev models.Event, st state.SessionState) (Partial, error)
}
