// Package notify implements the background-task spool: long-running auxiliary
// work drops a completion marker file, and the next dispatched event for the
// same session folds the marker into injected context exactly once.
package notify

import (
	"encoding/json"
	"errors"
	"fmt"
	"hash/fnv"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Marker is one completed-task record waiting to be reported back into the
// event stream on the session's next contact.
type Marker struct {
	TaskID      string    `json:"task_id"`
	SessionID   string    `json:"session_id"`
	Summary     string    `json:"summary,omitempty"`
	CompletedAt time.Time `json:"completed_at"`
}

// Spool is a directory of marker files, one per completed task.
type Spool struct {
	dir string
}

// NewSpool returns a Spool rooted at dir.
func NewSpool(dir string) *Spool {
	return &Spool{dir: dir}
}

// Dir returns the backing directory.
func (s *Spool) Dir() string {
	return s.dir
}

// Post writes a completion marker. Fire and forget from the producer's point
// of view: the marker sits in the spool until the session's next event.
func (s *Spool) Post(m Marker) error {
	if strings.TrimSpace(m.SessionID) == "" {
		return errors.New("session id is required")
	}
	if strings.TrimSpace(m.TaskID) == "" {
		return errors.New("task id is required")
	}
	if m.CompletedAt.IsZero() {
		m.CompletedAt = time.Now().UTC()
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create spool dir: %w", err)
	}

	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshal marker: %w", err)
	}
	data = append(data, '\n')

	path := s.markerPath(m)
	tmp, err := os.CreateTemp(s.dir, ".marker-*")
	if err != nil {
		return fmt.Errorf("create temp marker: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("write marker: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("close marker: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("publish marker: %w", err)
	}
	return nil
}

// Collect consumes every pending marker for a session, oldest first. Each
// marker file is removed once its contents are successfully read, so a marker
// is reported at most once even when events race. Unreadable markers are
// dropped with a diagnostic rather than wedging the spool.
func (s *Spool) Collect(sessionID string) ([]Marker, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read spool dir %s: %w", s.dir, err)
	}

	prefix := encodeSpoolToken(sessionID) + "--"
	var out []Marker
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, ".json") {
			continue
		}
		path := filepath.Join(s.dir, name)
		data, err := os.ReadFile(path) //nolint:gosec // G304: names come from ReadDir on the spool dir
		if err != nil {
			continue
		}
		var m Marker
		if err := json.Unmarshal(data, &m); err != nil {
			slog.Default().Warn("dropping corrupt task marker", "path", path, "error", err)
			_ = os.Remove(path)
			continue
		}
		// The filename prefix is only a cheap pre-filter: `-` is a legal token
		// rune, so one session's encoded id can be a prefix of another's. The
		// payload is authoritative; a mismatched marker stays in the spool for
		// its own session.
		if m.SessionID != sessionID {
			continue
		}
		// Claim the marker before reporting it. A concurrent collector that
		// loses the Remove race skips the marker instead of double-reporting.
		if err := os.Remove(path); err != nil {
			continue
		}
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CompletedAt.Before(out[j].CompletedAt) })
	return out, nil
}

func (s *Spool) markerPath(m Marker) string {
	name := fmt.Sprintf("%s--%s.json", encodeSpoolToken(m.SessionID), encodeSpoolToken(m.TaskID))
	return filepath.Join(s.dir, name)
}

// encodeSpoolToken maps an opaque id onto a filename-safe token. Ids that
// survive sanitization unchanged map directly; anything else gets a hash
// suffix so distinct ids cannot collide after sanitization or truncation.
func encodeSpoolToken(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	clean := true
	for _, r := range raw {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
			clean = false
		}
	}
	out := b.String()
	if len(out) > 64 {
		out = out[:64]
		clean = false
	}
	if out == "" {
		out = "task"
		clean = false
	}
	if clean {
		return out
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(raw))
	return fmt.Sprintf("%s-%08x", out, h.Sum32())
}
