package journal

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/dotcommander/warden/internal/models"
)

// maxMessageLength caps stored verdict messages. Longer messages are
// truncated at insertion; the full text already went to the host runtime.
const maxMessageLength = 4096

// Entry is one audited dispatch: the event that arrived and the verdict
// that was returned for it.
type Entry struct {
	ID         int64     `json:"id"`
	SessionID  string    `json:"session_id"`
	Kind       string    `json:"kind"`
	ActionName string    `json:"action_name,omitempty"`
	Permission string    `json:"permission"`
	Severity   string    `json:"severity"`
	Message    string    `json:"message,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// AppendVerdict records one event/verdict pair. Transient SQLITE_BUSY
// contention is retried with backoff.
func (j *Journal) AppendVerdict(ev models.Event, v models.Verdict) (int64, error) {
	msg := v.Message
	if len(msg) > maxMessageLength {
		// Back off to a rune boundary so the stored text stays valid UTF-8.
		cut := maxMessageLength
		for cut > 0 && !utf8.RuneStart(msg[cut]) {
			cut--
		}
		msg = msg[:cut]
	}

	var id int64
	err := RetryWithBackoff(func() error {
		res, err := j.db.ExecContext(context.Background(), `
			INSERT INTO events (session_id, kind, action_name, permission, severity, message, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, ev.SessionID, string(ev.Kind), ev.ActionName, v.Permission.String(), v.ExitSeverity.String(), msg, time.Now().UTC())
		if err != nil {
			return fmt.Errorf("failed to append journal entry: %w", err)
		}
		id, err = res.LastInsertId()
		return err
	})
	return id, err
}

// RecentEntries returns the newest entries, optionally scoped to one session.
// limit <= 0 means a default of 50.
func (j *Journal) RecentEntries(sessionID string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, session_id, kind, action_name, permission, severity, message, created_at
		FROM events
	`
	args := []any{}
	if sessionID != "" {
		query += ` WHERE session_id = ?`
		args = append(args, sessionID)
	}
	query += ` ORDER BY id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := j.db.QueryContext(context.Background(), query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query journal: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.SessionID, &e.Kind, &e.ActionName, &e.Permission, &e.Severity, &e.Message, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan journal entry: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
