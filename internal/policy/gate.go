package policy

import (
	"fmt"
	"time"

	"github.com/dotcommander/warden/internal/models"
	"github.com/dotcommander/warden/internal/state"
)

// GateConfig parameterizes the compliance gate.
type GateConfig struct {
	// Threshold is T: the number of mutating actions allowed per session
	// before a compliance check becomes overdue. Minimum 1.
	Threshold int
	// ComplianceAction is the action whose completion resets the counter.
	ComplianceAction string
	// MutatingActions are the actions classified as state-mutating.
	MutatingActions []string
}

// ComplianceGate enforces that a compliance check runs at least once every
// Threshold mutating actions. The property being bounded is unreviewed
// activity, not wall-clock time, so enforcement counts state-changing
// actions rather than running a timer.
//
// Per session the gate is a two-state machine over ActivityCount:
// COMPLIANT (count < T) and OVERDUE (count >= T). Mutating PostAction events
// increment the count; the designated compliance action resets it to zero.
type ComplianceGate struct {
	cfg      GateConfig
	mutating map[string]struct{}
}

// NewComplianceGate builds a gate. A threshold below 1 is clamped to 1.
func NewComplianceGate(cfg GateConfig) *ComplianceGate {
	if cfg.Threshold < 1 {
		cfg.Threshold = 1
	}
	m := make(map[string]struct{}, len(cfg.MutatingActions))
	for _, a := range cfg.MutatingActions {
		m[a] = struct{}{}
	}
	return &ComplianceGate{cfg: cfg, mutating: m}
}

func (g *ComplianceGate) Name() string { return "compliance-gate" }

// Handle evaluates one event against the gate's state machine.
func (g *ComplianceGate) Handle(ev models.Event, st state.SessionState) (Partial, error) {
	p := Partial{Source: g.Name()}

	switch ev.Kind {
	case models.KindPreAction:
		g.handlePreAction(ev, st, &p)
	case models.KindPostAction:
		g.handlePostAction(ev, st, &p)
	case models.KindPromptSubmit:
		if g.overdue(st) {
			p.Severity = models.SeverityWarn
			p.Message = g.overdueNotice(st)
		}
	}

	return p, nil
}

func (g *ComplianceGate) handlePreAction(ev models.Event, st state.SessionState, p *Partial) {
	// The compliance check itself is always permitted, that is the only
	// way out of the OVERDUE state.
	if ev.ActionName == g.cfg.ComplianceAction {
		return
	}
	if !g.overdue(st) {
		return
	}
	if g.isMutating(ev.ActionName) {
		p.Permission = models.PermissionDeny
		p.Severity = models.SeverityBlock
		p.Message = fmt.Sprintf(
			"%s denied: %s Run %s before further mutating actions.",
			ev.ActionName, g.overdueNotice(st), g.cfg.ComplianceAction,
		)
		return
	}
	// Read-only actions stay permitted while overdue, with a soft warning.
	p.Severity = models.SeverityWarn
	p.Message = g.overdueNotice(st)
}

func (g *ComplianceGate) handlePostAction(ev models.Event, st state.SessionState, p *Partial) {
	if ev.ActionName == g.cfg.ComplianceAction {
		p.Mutations = append(p.Mutations, func(s *state.SessionState) {
			s.ActivityCount = 0
			s.LastCheckAt = time.Now().UTC()
		})
		p.Message = "compliance check recorded; activity counter reset"
		return
	}

	if !g.isMutating(ev.ActionName) {
		return
	}

	p.Mutations = append(p.Mutations, func(s *state.SessionState) {
		s.ActivityCount++
	})
	// Heads-up the moment the increment crosses the threshold.
	if st.ActivityCount+1 >= g.cfg.Threshold {
		p.Message = fmt.Sprintf(
			"compliance check due: %d mutating actions since last check (threshold %d)",
			st.ActivityCount+1, g.cfg.Threshold,
		)
	}
}

func (g *ComplianceGate) overdue(st state.SessionState) bool {
	return st.ActivityCount >= g.cfg.Threshold
}

func (g *ComplianceGate) isMutating(action string) bool {
	_, ok := g.mutating[action]
	return ok
}

func (g *ComplianceGate) overdueNotice(st state.SessionState) string {
	return fmt.Sprintf(
		"compliance check overdue: %d mutating actions since last check (threshold %d).",
		st.ActivityCount, g.cfg.Threshold,
	)
}
