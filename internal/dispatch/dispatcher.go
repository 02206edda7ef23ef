// Package dispatch is the entry point of the enforcement core: it receives
// one lifecycle event, consults session state for a hard block, runs the
// registered policy handlers, merges their partial verdicts and persists the
// accumulated state mutations in one atomic write.
package dispatch

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dotcommander/warden/internal/models"
	"github.com/dotcommander/warden/internal/notify"
	"github.com/dotcommander/warden/internal/policy"
	"github.com/dotcommander/warden/internal/state"
)

// fallbackSessionID scopes events whose payload carried no session id.
// Enforcement still applies; it just pools into one shared session.
const fallbackSessionID = "unscoped"

// Auditor receives the event/verdict pair after dispatch. Fire and forget:
// audit failures are logged, never reflected in the verdict.
type Auditor interface {
	AppendVerdict(ev models.Event, v models.Verdict) (int64, error)
}

// HandlerSource yields the ordered handlers for an event kind.
// policy.Registry is the production implementation.
type HandlerSource interface {
	HandlersFor(kind models.Kind) []policy.Handler
}

// Dispatcher coordinates one invocation: state check, handlers, merge, persist.
type Dispatcher struct {
	states   *state.Store
	registry HandlerSource
	spool    *notify.Spool
	auditor  Auditor
}

// New builds a dispatcher. spool and auditor may be nil to disable the
// background-task fold-in and the audit trail respectively.
func New(states *state.Store, registry HandlerSource, spool *notify.Spool, auditor Auditor) *Dispatcher {
	return &Dispatcher{states: states, registry: registry, spool: spool, auditor: auditor}
}

// Handle dispatches one event and returns the merged verdict. It never
// returns an error: every failure mode folds into the verdict itself, so the
// host runtime always receives exactly one well-formed decision.
func (d *Dispatcher) Handle(ev models.Event) models.Verdict {
	if strings.TrimSpace(ev.SessionID) == "" {
		slog.Default().Warn("event carried no session id, using fallback scope", "kind", ev.Kind)
		ev.SessionID = fallbackSessionID
	}
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now().UTC()
	}

	st := d.states.Read(ev.SessionID)

	// Hard block short-circuits before any handler for any event kind.
	// Pending task markers stay in the spool until the block clears.
	if st.HardBlock != nil {
		v := models.Verdict{
			Permission:     models.PermissionDeny,
			ShouldContinue: false,
			ExitSeverity:   models.SeverityBlock,
			Message:        fmt.Sprintf("session hard-blocked: %s (set %s)", st.HardBlock.Reason, st.HardBlock.SetAt.Format(time.RFC3339)),
		}
		d.audit(ev, v)
		return v
	}

	var partials []policy.Partial
	if p, ok := d.collectMarkers(ev.SessionID); ok {
		partials = append(partials, p)
	}
	for _, h := range d.registry.HandlersFor(ev.Kind) {
		partials = append(partials, runHandler(h, ev, st))
	}

	v := policy.Merge(partials)

	var mutations []policy.Mutation
	for _, p := range partials {
		mutations = append(mutations, p.Mutations...)
	}
	if len(mutations) > 0 {
		if _, err := d.states.AtomicUpdate(ev.SessionID, func(s *state.SessionState) {
			for _, m := range mutations {
				m(s)
			}
		}); err != nil {
			// A failed enforcement write must not silently lose the fact that
			// enforcement was supposed to happen: escalate to block.
			slog.Default().Error("session state write failed", "session_id", ev.SessionID, "error", err)
			v.ExitSeverity = models.SeverityBlock
			v.ShouldContinue = false
			v.Message = appendSection(v.Message, fmt.Sprintf("enforcement state could not be persisted: %v", err))
		}
	}

	d.audit(ev, v)
	return v
}

// collectMarkers folds completed background-task markers into injected
// context, exactly once per marker. A spool failure degrades to a warning
// rather than losing the whole invocation.
func (d *Dispatcher) collectMarkers(sessionID string) (policy.Partial, bool) {
	if d.spool == nil {
		return policy.Partial{}, false
	}

	markers, err := d.spool.Collect(sessionID)
	if err != nil {
		return policy.Partial{
			Source:   "notifier",
			Severity: models.SeverityWarn,
			Message:  fmt.Sprintf("background-task spool unavailable: %v", err),
		}, true
	}
	if len(markers) == 0 {
		return policy.Partial{}, false
	}

	var b strings.Builder
	b.WriteString("Background tasks completed since last contact:\n")
	for _, m := range markers {
		fmt.Fprintf(&b, "- %s", m.TaskID)
		if m.Summary != "" {
			fmt.Fprintf(&b, ": %s", m.Summary)
		}
		b.WriteString("\n")
	}
	return policy.Partial{Source: "notifier", InjectedContext: strings.TrimRight(b.String(), "\n")}, true
}

// runHandler invokes one handler, converting errors and panics into a
// warn-severity partial. Partial handler failure never aborts the invocation;
// it stays visible in the merged message instead.
func runHandler(h policy.Handler, ev models.Event, st state.SessionState) (p policy.Partial) {
	defer func() {
		if r := recover(); r != nil {
			slog.Default().Error("handler panicked", "handler", h.Name(), "panic", r)
			p = policy.Partial{
				Source:   h.Name(),
				Severity: models.SeverityWarn,
				Message:  fmt.Sprintf("handler %s panicked: %v", h.Name(), r),
			}
		}
	}()

	p, err := h.Handle(ev, st)
	if err != nil {
		slog.Default().Warn("handler failed", "handler", h.Name(), "error", err)
		return policy.Partial{
			Source:   h.Name(),
			Severity: models.SeverityWarn,
			Message:  fmt.Sprintf("handler %s failed: %v", h.Name(), err),
		}
	}
	if p.Source == "" {
		p.Source = h.Name()
	}
	return p
}

func (d *Dispatcher) audit(ev models.Event, v models.Verdict) {
	if d.auditor == nil {
		return
	}
	if _, err := d.auditor.AppendVerdict(ev, v); err != nil {
		slog.Default().Warn("audit append failed", "session_id", ev.SessionID, "error", err)
	}
}

func appendSection(existing, extra string) string {
	if existing == "" {
		return extra
	}
	return existing + "\n\n" + extra
}
