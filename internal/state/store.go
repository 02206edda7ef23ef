package state

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

// Store reads and writes session records under a single directory, one JSON
// file per session id. Writes use write-temp-then-rename so a reader never
// observes a partially written record; read-modify-write cycles hold an
// exclusive flock so concurrent invocations never lose updates.
type Store struct {
	dir string
}

// NewStore returns a Store rooted at dir. The directory is created on first write.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Dir returns the backing directory.
func (s *Store) Dir() string {
	return s.dir
}

// Read returns the current state for a session, or a default empty state if
// no record exists. A missing or damaged record must never block the whole
// system, only its own enforcement features, so Read fails open: corrupt
// records are logged and treated as absent.
func (s *Store) Read(sessionID string) SessionState {
	data, err := os.ReadFile(s.recordPath(sessionID)) //nolint:gosec // G304: path derived from trusted state dir
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			slog.Default().Warn("session state unreadable, failing open", "session_id", sessionID, "error", err)
		}
		return defaultState(sessionID)
	}

	var st SessionState
	if err := json.Unmarshal(data, &st); err != nil {
		slog.Default().Warn("session state corrupt, failing open", "session_id", sessionID, "error", err)
		return defaultState(sessionID)
	}
	st.SessionID = sessionID
	return st
}

// AtomicUpdate applies fn to the current state under an exclusive lock and
// persists the result. The updated state is returned. Lost updates under
// concurrent access are a correctness bug, so the whole read-modify-write
// cycle happens while the session lock is held.
func (s *Store) AtomicUpdate(sessionID string, fn func(*SessionState)) (SessionState, error) {
	if strings.TrimSpace(sessionID) == "" {
		return SessionState{}, errors.New("session id is required")
	}

	path := s.recordPath(sessionID)
	lock, err := lockFile(path)
	if err != nil {
		return SessionState{}, &WriteError{SessionID: sessionID, Op: "lock", Err: err}
	}
	defer unlockFile(lock)

	st := s.Read(sessionID)
	fn(&st)
	st.SessionID = sessionID
	st.UpdatedAt = time.Now().UTC()
	if st.ActivityCount < 0 {
		st.ActivityCount = 0
	}

	if err := writeFileAtomic(path, st); err != nil {
		return SessionState{}, &WriteError{SessionID: sessionID, Op: "write", Err: err}
	}
	return st, nil
}

// SetHardBlock records a hard block with the given reason. Overwrites any
// existing block; the latest reason wins.
func (s *Store) SetHardBlock(sessionID, reason string) (SessionState, error) {
	if strings.TrimSpace(reason) == "" {
		return SessionState{}, errors.New("hard block reason is required")
	}
	return s.AtomicUpdate(sessionID, func(st *SessionState) {
		st.HardBlock = &HardBlock{Reason: reason, SetAt: time.Now().UTC()}
	})
}

// ClearHardBlock removes any hard block. Clearing an unblocked session is a no-op.
func (s *Store) ClearHardBlock(sessionID string) (SessionState, error) {
	return s.AtomicUpdate(sessionID, func(st *SessionState) {
		st.HardBlock = nil
	})
}

// List returns every persisted session state, sorted by session id.
// Unreadable records are skipped, matching Read's fail-open contract.
func (s *Store) List() ([]SessionState, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read state dir %s: %w", s.dir, err)
	}

	var out []SessionState
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.dir, name)) //nolint:gosec // G304: names come from ReadDir on the state dir
		if err != nil {
			continue
		}
		var st SessionState
		if err := json.Unmarshal(data, &st); err != nil {
			continue
		}
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SessionID < out[j].SessionID })
	return out, nil
}

func (s *Store) recordPath(sessionID string) string {
	return filepath.Join(s.dir, encodeSessionID(sessionID)+".json")
}

// encodeSessionID maps an opaque session id onto a safe filename. IDs that
// survive sanitization unchanged map directly; anything else gets a hash
// suffix so distinct ids cannot collide after sanitization.
func encodeSessionID(sessionID string) string {
	var b strings.Builder
	b.Grow(len(sessionID))
	clean := true
	for _, r := range sessionID {
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
		out = "session"
		clean = false
	}
	if clean {
		return out
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(sessionID))
	return fmt.Sprintf("%s-%08x", out, h.Sum32())
}

// writeFileAtomic marshals st and renames a temp file over the record path.
func writeFileAtomic(path string, st SessionState) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}

	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal session state: %w", err)
	}
	data = append(data, '\n')

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
