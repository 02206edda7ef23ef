package models

import (
	"encoding/json"
	"fmt"
)

// Permission is the pre-action gate decision. The zero value is Allow so an
// empty partial verdict never restricts anything. Ordering matters: merging
// takes the maximum, so deny beats ask beats allow.
type Permission int

const (
	PermissionAllow Permission = iota
	PermissionAsk
	PermissionDeny
)

func (p Permission) String() string {
	switch p {
	case PermissionAsk:
		return "ask"
	case PermissionDeny:
		return "deny"
	default:
		return "allow"
	}
}

// MarshalJSON encodes the permission as its wire string.
func (p Permission) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.String())
}

// UnmarshalJSON decodes the wire string form.
func (p *Permission) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	switch s {
	case "allow":
		*p = PermissionAllow
	case "ask":
		*p = PermissionAsk
	case "deny":
		*p = PermissionDeny
	default:
		return fmt.Errorf("unknown permission: %q", s)
	}
	return nil
}

// Severity is the exit severity of a verdict: ok < warn < block.
// It maps one-to-one onto the process exit status (0, 1, 2).
type Severity int

const (
	SeverityOK Severity = iota
	SeverityWarn
	SeverityBlock
)

func (s Severity) String() string {
	switch s {
	case SeverityWarn:
		return "warn"
	case SeverityBlock:
		return "block"
	default:
		return "ok"
	}
}

// ExitCode returns the process exit status for this severity.
// The 0/1/2 contract is consumed by the host runtime and must not change.
func (s Severity) ExitCode() int {
	return int(s)
}

// MarshalJSON encodes the severity as its wire string.
func (s Severity) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON decodes the wire string form.
func (s *Severity) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	switch str {
	case "ok":
		*s = SeverityOK
	case "warn":
		*s = SeverityWarn
	case "block":
		*s = SeverityBlock
	default:
		return fmt.Errorf("unknown severity: %q", str)
	}
	return nil
}

// Verdict is the single merged decision returned for one Event. It is
// constructed fresh each invocation and discarded after being written out.
type Verdict struct {
	Permission      Permission `json:"permission"`
	ShouldContinue  bool       `json:"should_continue"`
	ExitSeverity    Severity   `json:"exit_severity"`
	Message         string     `json:"message,omitempty"`
	InjectedContext string     `json:"injected_context,omitempty"`
}
