// Package state owns the durable per-session record that outlives any single
// warden invocation. All mutation goes through Store.AtomicUpdate; no other
// package writes the backing files directly.
package state

import "time"

// HardBlock is a session-wide circuit breaker set by an external audit
// process. While present, the dispatcher refuses every event at block
// severity until an explicit clear.
type HardBlock struct {
	Reason string    `json:"reason"`
	SetAt  time.Time `json:"set_at"`
}

// SessionState is the one entity with a lifecycle spanning invocations.
// Exactly one record exists per session id; it is created lazily on first
// access and never explicitly deleted.
type SessionState struct {
	SessionID        string     `json:"session_id"`
	ActivityCount    int        `json:"activity_count_since_check"`
	LastCheckAt      time.Time  `json:"last_check_at,omitzero"`
	HardBlock        *HardBlock `json:"hard_block,omitempty"`
	HydrationPending bool       `json:"hydration_pending"`
	UpdatedAt        time.Time  `json:"updated_at,omitzero"`
}

// defaultState returns the state a session has before its first write.
// A fresh session has not hydrated yet.
func defaultState(sessionID string) SessionState {
	return SessionState{
		SessionID:        sessionID,
		HydrationPending: true,
	}
}
