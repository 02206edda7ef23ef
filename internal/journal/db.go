// Package journal is the fire-and-forget audit trail: every dispatched event
// and merged verdict is appended to a WAL-mode SQLite database, and policy
// handlers persist session facts into it. Nothing on the hook path ever reads
// the journal back synchronously; only inspection commands query it.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strconv"
	"strings"

	_ "modernc.org/sqlite"
)

// defaultBusyTimeoutMS is the SQLite busy_timeout in milliseconds.
// Override with WARDEN_BUSY_TIMEOUT_MS for environments with high contention.
const defaultBusyTimeoutMS = 5000

// Journal wraps the audit database handle.
type Journal struct {
	db *sql.DB
}

// Open opens (or creates) the journal at path, configures WAL mode and runs
// migrations. Callers must Close the returned journal.
func Open(path string) (*Journal, error) {
	// modernc.org/sqlite is strict about DSNs. Use a file: URI with mode=rwc
	// so the database can be created/written consistently across platforms.
	db, err := sql.Open("sqlite", normalizeSQLiteDSN(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}

	// Connection pool sized for a short-lived CLI invocation.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	busyTimeout := defaultBusyTimeoutMS
	if v := os.Getenv("WARDEN_BUSY_TIMEOUT_MS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			busyTimeout = parsed
		}
	}

	// Set SQLite pragmas for WAL mode and concurrent access.
	//
	// Trade-offs:
	//   busy_timeout  — blocks writers up to N ms instead of failing immediately.
	//   synchronous=NORMAL — skips fsync on every commit (WAL still provides
	//                        crash safety for committed txns).
	//   journal_mode=WAL   — concurrent readers + one writer; required when
	//                        several hook invocations land at the same time.
	pragmas := []string{
		// busy_timeout first so subsequent pragmas (including WAL) wait on locks.
		fmt.Sprintf("PRAGMA busy_timeout=%d", busyTimeout),
		"PRAGMA foreign_keys=ON",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA journal_mode=WAL",
	}

	for _, pragma := range pragmas {
		if err := RetryWithBackoff(func() error {
			_, err := db.ExecContext(context.Background(), pragma)
			return err
		}); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to set pragma %q: %w", pragma, err)
		}
	}

	if err := RetryWithBackoff(func() error { return RunMigrations(db) }); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &Journal{db: db}, nil
}

// Close closes the underlying database.
func (j *Journal) Close() error {
	return j.db.Close()
}

// DB exposes the underlying handle for diagnostics (doctor, schema version).
func (j *Journal) DB() *sql.DB {
	return j.db
}

func normalizeSQLiteDSN(path string) string {
	// Support an explicit file: DSN as-is.
	if strings.HasPrefix(path, "file:") {
		return path
	}

	// Predictable in-memory option for tests.
	if path == ":memory:" {
		return "file::memory:?cache=shared"
	}

	// mode=rwc => read/write/create. Without this, some environments open read-only.
	return "file:" + path + "?mode=rwc"
}
