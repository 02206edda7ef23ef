package journal

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Fact is one key/value observation a policy handler recorded about a session.
type Fact struct {
	SessionID string    `json:"session_id"`
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PersistFact upserts a session fact. Handlers call this fire-and-forget;
// the latest value for a key wins.
func (j *Journal) PersistFact(sessionID, key, value string) error {
	if sessionID == "" {
		return errors.New("session id is required")
	}
	if key == "" {
		return errors.New("fact key is required")
	}

	return RetryWithBackoff(func() error {
		_, err := j.db.ExecContext(context.Background(), `
			INSERT INTO facts (session_id, key, value, updated_at)
			VALUES (?, ?, ?, ?)
			ON CONFLICT (session_id, key) DO UPDATE SET
				value = excluded.value,
				updated_at = excluded.updated_at
		`, sessionID, key, value, time.Now().UTC())
		if err != nil {
			return fmt.Errorf("failed to persist fact: %w", err)
		}
		return nil
	})
}

// ListFacts returns all facts for a session, ordered by key.
func (j *Journal) ListFacts(sessionID string) ([]Fact, error) {
	rows, err := j.db.QueryContext(context.Background(), `
		SELECT session_id, key, value, updated_at
		FROM facts
		WHERE session_id = ?
		ORDER BY key
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query facts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Fact
	for rows.Next() {
		var f Fact
		if err := rows.Scan(&f.SessionID, &f.Key, &f.Value, &f.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan fact: %w", err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}
