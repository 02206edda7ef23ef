package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// Kind identifies which lifecycle moment the host runtime is asking about.
type Kind string

const (
	KindSessionStart Kind = "SessionStart"
	KindPromptSubmit Kind = "UserPromptSubmit"
	KindPreAction    Kind = "PreToolUse"
	KindPostAction   Kind = "PostToolUse"
	KindStop         Kind = "Stop"
	KindSubagentStop Kind = "SubagentStop"
)

// Kinds lists every event kind the dispatcher accepts, in dispatch-table order.
func Kinds() []Kind {
	return []Kind{
		KindSessionStart,
		KindPromptSubmit,
		KindPreAction,
		KindPostAction,
		KindStop,
		KindSubagentStop,
	}
}

// ParseKind maps a hook_event_name string to a Kind.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds() {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown event kind: %q", s)
}

// Event is one immutable lifecycle occurrence submitted by the host runtime.
// It is read-only to warden and never persisted beyond the current invocation.
type Event struct {
	SessionID     string          `json:"session_id"`
	Kind          Kind            `json:"hook_event_name"`
	ActionName    string          `json:"tool_name,omitempty"`
	ActionPayload json.RawMessage `json:"tool_input,omitempty"`
	Prompt        string          `json:"prompt,omitempty"`
	CWD           string          `json:"cwd,omitempty"`
	Timestamp     time.Time       `json:"timestamp,omitzero"`
}
