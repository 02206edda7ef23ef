package journal

import (
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/dotcommander/warden/internal/models"
)

func setupTestJournal(t *testing.T) *Journal {
	t.Helper()
	j, err := Open(filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { _ = j.Close() })
	return j
}

func TestAppendAndQueryEntries(t *testing.T) {
	j := setupTestJournal(t)

	ev := models.Event{
		SessionID:  "sess-1",
		Kind:       models.KindPreAction,
		ActionName: "Write",
	}
	v := models.Verdict{
		Permission:     models.PermissionDeny,
		ShouldContinue: true,
		ExitSeverity:   models.SeverityBlock,
		Message:        "compliance check overdue",
	}

	id, err := j.AppendVerdict(ev, v)
	if err != nil {
		t.Fatalf("AppendVerdict failed: %v", err)
	}
	if id == 0 {
		t.Error("Expected non-zero entry id")
	}

	entries, err := j.RecentEntries("sess-1", 10)
	if err != nil {
		t.Fatalf("RecentEntries failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("Expected 1 entry, got %d", len(entries))
	}
	e := entries[0]
	if e.Kind != "PreToolUse" || e.ActionName != "Write" {
		t.Errorf("Unexpected entry: %+v", e)
	}
	if e.Permission != "deny" || e.Severity != "block" {
		t.Errorf("Expected deny/block, got %s/%s", e.Permission, e.Severity)
	}
}

func TestRecentEntriesScoping(t *testing.T) {
	j := setupTestJournal(t)

	for _, sid := range []string{"sess-a", "sess-b", "sess-a"} {
		if _, err := j.AppendVerdict(models.Event{SessionID: sid, Kind: models.KindStop}, models.Verdict{ShouldContinue: true}); err != nil {
			t.Fatalf("AppendVerdict failed: %v", err)
		}
	}

	all, err := j.RecentEntries("", 10)
	if err != nil {
		t.Fatalf("RecentEntries failed: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("Expected 3 entries, got %d", len(all))
	}

	scoped, err := j.RecentEntries("sess-a", 10)
	if err != nil {
		t.Fatalf("RecentEntries failed: %v", err)
	}
	if len(scoped) != 2 {
		t.Errorf("Expected 2 sess-a entries, got %d", len(scoped))
	}
	// Newest first.
	if len(scoped) == 2 && scoped[0].ID < scoped[1].ID {
		t.Error("Expected newest-first ordering")
	}
}

func TestAppendTruncatesOnRuneBoundary(t *testing.T) {
	j := setupTestJournal(t)

	// Three-byte runes that do not divide the byte cap evenly, so a naive
	// byte slice would split one mid-sequence.
	msg := strings.Repeat("€", 2000)
	if _, err := j.AppendVerdict(
		models.Event{SessionID: "sess-1", Kind: models.KindStop},
		models.Verdict{ShouldContinue: true, Message: msg},
	); err != nil {
		t.Fatalf("AppendVerdict failed: %v", err)
	}

	entries, err := j.RecentEntries("sess-1", 1)
	if err != nil {
		t.Fatalf("RecentEntries failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("Expected 1 entry, got %d", len(entries))
	}
	stored := entries[0].Message
	if len(stored) > maxMessageLength {
		t.Errorf("Expected stored message within %d bytes, got %d", maxMessageLength, len(stored))
	}
	if !utf8.ValidString(stored) {
		t.Error("Expected stored message to stay valid UTF-8")
	}
}

func TestPersistFactUpsert(t *testing.T) {
	j := setupTestJournal(t)

	if err := j.PersistFact("sess-1", "last_prompt", "fix the build"); err != nil {
		t.Fatalf("PersistFact failed: %v", err)
	}
	if err := j.PersistFact("sess-1", "last_prompt", "run the tests"); err != nil {
		t.Fatalf("PersistFact failed: %v", err)
	}
	if err := j.PersistFact("sess-1", "last_action", "Bash"); err != nil {
		t.Fatalf("PersistFact failed: %v", err)
	}

	facts, err := j.ListFacts("sess-1")
	if err != nil {
		t.Fatalf("ListFacts failed: %v", err)
	}
	if len(facts) != 2 {
		t.Fatalf("Expected 2 facts, got %d", len(facts))
	}
	if facts[0].Key != "last_action" || facts[1].Key != "last_prompt" {
		t.Errorf("Expected key-ordered facts, got %+v", facts)
	}
	if facts[1].Value != "run the tests" {
		t.Errorf("Expected upserted value, got %q", facts[1].Value)
	}
}

func TestPersistFactValidation(t *testing.T) {
	j := setupTestJournal(t)
	if err := j.PersistFact("", "k", "v"); err == nil {
		t.Error("Expected error for empty session id")
	}
	if err := j.PersistFact("sess-1", "", "v"); err == nil {
		t.Error("Expected error for empty key")
	}
}

func TestSchemaVersionCurrent(t *testing.T) {
	j := setupTestJournal(t)

	current, latest, err := SchemaVersion(j.DB())
	if err != nil {
		t.Fatalf("SchemaVersion failed: %v", err)
	}
	if latest == 0 {
		t.Error("Expected a non-zero latest migration version")
	}
	if current != latest {
		t.Errorf("Expected fully migrated journal, current=%d latest=%d", current, latest)
	}
}
