package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dotcommander/warden/internal/models"
	"github.com/dotcommander/warden/internal/state"
)

func testGate(threshold int) *ComplianceGate {
	return NewComplianceGate(GateConfig{
		Threshold:        threshold,
		ComplianceAction: "ComplianceCheck",
		MutatingActions:  []string{"Write", "Edit", "Bash"},
	})
}

func apply(t *testing.T, p Partial, st state.SessionState) state.SessionState {
	t.Helper()
	for _, m := range p.Mutations {
		m(&st)
	}
	return st
}

func TestGateCounterCorrectness(t *testing.T) {
	g := testGate(7)
	st := state.SessionState{SessionID: "sess-1"}

	// T-1 mutating PostActions: still compliant.
	for i := 0; i < 6; i++ {
		p, err := g.Handle(models.Event{Kind: models.KindPostAction, ActionName: "Write"}, st)
		require.NoError(t, err)
		st = apply(t, p, st)
	}
	assert.Equal(t, 6, st.ActivityCount)

	pre, err := g.Handle(models.Event{Kind: models.KindPreAction, ActionName: "Write"}, st)
	require.NoError(t, err)
	assert.Equal(t, models.PermissionAllow, pre.Permission)

	// The T-th increment flips the session to overdue.
	p, err := g.Handle(models.Event{Kind: models.KindPostAction, ActionName: "Edit"}, st)
	require.NoError(t, err)
	assert.Contains(t, p.Message, "compliance check due")
	st = apply(t, p, st)
	assert.Equal(t, 7, st.ActivityCount)

	pre, err = g.Handle(models.Event{Kind: models.KindPreAction, ActionName: "Write"}, st)
	require.NoError(t, err)
	assert.Equal(t, models.PermissionDeny, pre.Permission)
}

func TestGateComplianceCheckResetsCounter(t *testing.T) {
	g := testGate(7)
	st := state.SessionState{SessionID: "sess-1", ActivityCount: 5}

	p, err := g.Handle(models.Event{Kind: models.KindPostAction, ActionName: "ComplianceCheck"}, st)
	require.NoError(t, err)
	st = apply(t, p, st)

	assert.Equal(t, 0, st.ActivityCount)
	assert.False(t, st.LastCheckAt.IsZero())
	assert.Contains(t, p.Message, "reset")
}

func TestGateOverdueDeniesMutatingOnly(t *testing.T) {
	g := testGate(3)
	st := state.SessionState{SessionID: "sess-1", ActivityCount: 3}

	// Mutating action: denied.
	p, err := g.Handle(models.Event{Kind: models.KindPreAction, ActionName: "Bash"}, st)
	require.NoError(t, err)
	assert.Equal(t, models.PermissionDeny, p.Permission)
	assert.Equal(t, models.SeverityBlock, p.Severity)
	assert.Contains(t, p.Message, "overdue")
	assert.Contains(t, p.Message, "ComplianceCheck")

	// Read-only action: permitted with a soft warning.
	p, err = g.Handle(models.Event{Kind: models.KindPreAction, ActionName: "Read"}, st)
	require.NoError(t, err)
	assert.Equal(t, models.PermissionAllow, p.Permission)
	assert.Equal(t, models.SeverityWarn, p.Severity)
	assert.Contains(t, p.Message, "overdue")

	// The compliance check itself is always allowed.
	p, err = g.Handle(models.Event{Kind: models.KindPreAction, ActionName: "ComplianceCheck"}, st)
	require.NoError(t, err)
	assert.Equal(t, models.PermissionAllow, p.Permission)
	assert.Equal(t, models.SeverityOK, p.Severity)
}

func TestGateReadOnlyNeverIncrements(t *testing.T) {
	g := testGate(3)
	st := state.SessionState{SessionID: "sess-1", ActivityCount: 2}

	p, err := g.Handle(models.Event{Kind: models.KindPostAction, ActionName: "Read"}, st)
	require.NoError(t, err)
	assert.Empty(t, p.Mutations)
	st = apply(t, p, st)
	assert.Equal(t, 2, st.ActivityCount)
}

func TestGateOverduePromptWarnsSoftly(t *testing.T) {
	g := testGate(3)

	p, err := g.Handle(models.Event{Kind: models.KindPromptSubmit}, state.SessionState{ActivityCount: 3})
	require.NoError(t, err)
	assert.Equal(t, models.SeverityWarn, p.Severity)
	assert.Equal(t, models.PermissionAllow, p.Permission)

	p, err = g.Handle(models.Event{Kind: models.KindPromptSubmit}, state.SessionState{ActivityCount: 2})
	require.NoError(t, err)
	assert.Equal(t, models.SeverityOK, p.Severity)
	assert.Empty(t, p.Message)
}

func TestGateThresholdClamped(t *testing.T) {
	g := NewComplianceGate(GateConfig{Threshold: 0, ComplianceAction: "Check"})
	// Threshold clamps to 1: a single unreviewed mutating action is overdue.
	assert.True(t, g.overdue(state.SessionState{ActivityCount: 1}))
	assert.False(t, g.overdue(state.SessionState{ActivityCount: 0}))
}

// Scenario from the enforcement contract: seven unreviewed mutating actions,
// then an eighth mutating PreAction must be denied.
func TestGateOverdueBlockScenario(t *testing.T) {
	g := testGate(7)
	st := state.SessionState{SessionID: "sess-1"}

	for i := 0; i < 7; i++ {
		p, err := g.Handle(models.Event{Kind: models.KindPostAction, ActionName: "Write"}, st)
		require.NoError(t, err)
		st = apply(t, p, st)
	}
	require.Equal(t, 7, st.ActivityCount)

	p, err := g.Handle(models.Event{Kind: models.KindPreAction, ActionName: "Edit"}, st)
	require.NoError(t, err)
	assert.Equal(t, models.PermissionDeny, p.Permission)
}
