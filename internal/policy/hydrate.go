package policy

import (
	"fmt"
	"strings"

	"github.com/dotcommander/warden/internal/models"
	"github.com/dotcommander/warden/internal/state"
)

// Hydrator injects session context at session boundaries. On SessionStart it
// summarizes the session's enforcement state for the agent and marks the
// session hydrated; on PromptSubmit it nudges once if hydration never ran
// (the SessionStart hook was skipped or failed).
type Hydrator struct {
	threshold int
}

// NewHydrator builds a hydrator that reports against the given threshold.
func NewHydrator(threshold int) *Hydrator {
	if threshold < 1 {
		threshold = 1
	}
	return &Hydrator{threshold: threshold}
}

func (h *Hydrator) Name() string { return "hydrator" }

// Handle emits injected context for session boundaries.
func (h *Hydrator) Handle(ev models.Event, st state.SessionState) (Partial, error) {
	p := Partial{Source: h.Name()}

	switch ev.Kind {
	case models.KindSessionStart:
		p.InjectedContext = h.summary(st)
		p.Mutations = append(p.Mutations, func(s *state.SessionState) {
			s.HydrationPending = false
		})
	case models.KindPromptSubmit:
		if st.HydrationPending {
			p.InjectedContext = "Session context was not hydrated at start. " + h.summary(st)
			p.Mutations = append(p.Mutations, func(s *state.SessionState) {
				s.HydrationPending = false
			})
		}
	}

	return p, nil
}

func (h *Hydrator) summary(st state.SessionState) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Compliance status: %d of %d mutating actions used since last check.", st.ActivityCount, h.threshold)
	if !st.LastCheckAt.IsZero() {
		fmt.Fprintf(&b, " Last check: %s.", st.LastCheckAt.Format("2006-01-02 15:04:05 MST"))
	} else {
		b.WriteString(" No compliance check recorded yet.")
	}
	return b.String()
}
