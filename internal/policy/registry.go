package policy

import "github.com/dotcommander/warden/internal/models"

// Registry is the static mapping from event kind to an ordered list of
// handlers. It is built once per invocation and never mutated afterwards;
// lookup is pure and independent of event content.
type Registry struct {
	table map[models.Kind][]Handler
}

// NewRegistry wires the fixed handler set. Registration order is merge
// order: messages and injected context concatenate in the order below.
func NewRegistry(gate *ComplianceGate, hydrator *Hydrator, recorder *Recorder) *Registry {
	return &Registry{table: map[models.Kind][]Handler{
		models.KindSessionStart: {hydrator, recorder},
		models.KindPromptSubmit: {gate, hydrator, recorder},
		models.KindPreAction:    {gate},
		models.KindPostAction:   {gate, recorder},
		models.KindStop:         {recorder},
		models.KindSubagentStop: {recorder},
	}}
}

// HandlersFor returns the ordered handlers for a kind. Unknown kinds get none.
func (r *Registry) HandlersFor(kind models.Kind) []Handler {
	return r.table[kind]
}
