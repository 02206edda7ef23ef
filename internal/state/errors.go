package state

import (
	"fmt"

	"github.com/dotcommander/warden/internal/models"
)

// RecoverableError is an alias for models.RecoverableError, retained so
// callers can reference state.RecoverableError without importing models.
type RecoverableError = models.RecoverableError

// WriteError is returned when persisting a session record fails. Enforcement
// writes fail loud: a dispatcher that cannot record enforcement state must
// surface the failure, never silently drop it.
type WriteError struct {
	SessionID string
	Op        string
	Err       error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("session state %s failed: %v", e.Op, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

func (e *WriteError) ErrorCode() string { return "STATE_WRITE_FAILED" }

func (e *WriteError) Context() map[string]string {
	return map[string]string{
		"session_id": e.SessionID,
		"op":         e.Op,
	}
}

func (e *WriteError) SuggestedAction() string {
	return "check state directory permissions and free space, then retry"
}
