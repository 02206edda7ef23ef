package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dotcommander/warden/internal/models"
)

func TestMergeEmptyIsPermissive(t *testing.T) {
	v := Merge(nil)
	assert.Equal(t, models.PermissionAllow, v.Permission)
	assert.Equal(t, models.SeverityOK, v.ExitSeverity)
	assert.True(t, v.ShouldContinue)
	assert.Empty(t, v.Message)
	assert.Empty(t, v.InjectedContext)
}

func TestMergeMostRestrictivePermissionWins(t *testing.T) {
	v := Merge([]Partial{
		{Permission: models.PermissionAllow},
		{Permission: models.PermissionDeny},
		{Permission: models.PermissionAsk},
	})
	assert.Equal(t, models.PermissionDeny, v.Permission)

	v = Merge([]Partial{
		{Permission: models.PermissionAllow},
		{Permission: models.PermissionAsk},
	})
	assert.Equal(t, models.PermissionAsk, v.Permission)
}

func TestMergeWorstSeverityWins(t *testing.T) {
	v := Merge([]Partial{
		{Severity: models.SeverityWarn},
		{Severity: models.SeverityOK},
	})
	assert.Equal(t, models.SeverityWarn, v.ExitSeverity)

	v = Merge([]Partial{
		{Severity: models.SeverityWarn},
		{Severity: models.SeverityBlock},
	})
	assert.Equal(t, models.SeverityBlock, v.ExitSeverity)
}

func TestMergeContinueIsLogicalAnd(t *testing.T) {
	v := Merge([]Partial{{}, {Halt: true}, {}})
	assert.False(t, v.ShouldContinue)

	v = Merge([]Partial{{}, {}})
	assert.True(t, v.ShouldContinue)
}

func TestMergeConcatenatesInRegistrationOrder(t *testing.T) {
	v := Merge([]Partial{
		{Source: "first", Message: "one", InjectedContext: "ctx-a"},
		{Source: "second", Message: "two"},
		{Source: "third", InjectedContext: "ctx-b"},
	})
	assert.Equal(t, "[first] one\n\n[second] two", v.Message)
	assert.Equal(t, "[first] ctx-a\n\n[third] ctx-b", v.InjectedContext)
}

func TestMergeKeepsMessagesAlongsideRestrictiveSignals(t *testing.T) {
	// No information is dropped even when merged with higher-precedence signals.
	v := Merge([]Partial{
		{Source: "gate", Permission: models.PermissionDeny, Severity: models.SeverityBlock, Message: "denied"},
		{Source: "other", Message: "still here"},
	})
	assert.Contains(t, v.Message, "denied")
	assert.Contains(t, v.Message, "still here")
}

// TestMergeMonotonicity checks that adding a restrictive partial never yields
// a less restrictive verdict than without it.
func TestMergeMonotonicity(t *testing.T) {
	bases := [][]Partial{
		nil,
		{{Permission: models.PermissionAsk}},
		{{Severity: models.SeverityWarn}, {Permission: models.PermissionAllow}},
		{{Halt: true}, {Message: "note"}},
	}
	restrictive := []Partial{
		{Permission: models.PermissionDeny},
		{Severity: models.SeverityBlock},
	}

	for _, base := range bases {
		before := Merge(base)
		for _, extra := range restrictive {
			after := Merge(append(append([]Partial{}, base...), extra))
			assert.GreaterOrEqual(t, int(after.Permission), int(before.Permission))
			assert.GreaterOrEqual(t, int(after.ExitSeverity), int(before.ExitSeverity))
			if !before.ShouldContinue {
				assert.False(t, after.ShouldContinue)
			}
		}
	}
}
