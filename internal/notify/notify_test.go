package notify

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestPostAndCollectOnce(t *testing.T) {
	s := NewSpool(t.TempDir())

	err := s.Post(Marker{SessionID: "sess-1", TaskID: "task-a", Summary: "index rebuilt"})
	if err != nil {
		t.Fatalf("Post failed: %v", err)
	}

	got, err := s.Collect("sess-1")
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("Expected 1 marker, got %d", len(got))
	}
	if got[0].TaskID != "task-a" || got[0].Summary != "index rebuilt" {
		t.Errorf("Unexpected marker: %+v", got[0])
	}
	if got[0].CompletedAt.IsZero() {
		t.Error("Expected CompletedAt to be stamped")
	}

	// Second collect must be empty: markers are consumed exactly once.
	again, err := s.Collect("sess-1")
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	if len(again) != 0 {
		t.Errorf("Expected no markers on second collect, got %d", len(again))
	}
}

func TestCollectFiltersBySession(t *testing.T) {
	s := NewSpool(t.TempDir())

	if err := s.Post(Marker{SessionID: "sess-1", TaskID: "task-a"}); err != nil {
		t.Fatalf("Post failed: %v", err)
	}
	if err := s.Post(Marker{SessionID: "sess-2", TaskID: "task-b"}); err != nil {
		t.Fatalf("Post failed: %v", err)
	}

	got, err := s.Collect("sess-1")
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	if len(got) != 1 || got[0].TaskID != "task-a" {
		t.Fatalf("Expected only sess-1 markers, got %+v", got)
	}

	other, err := s.Collect("sess-2")
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	if len(other) != 1 || other[0].TaskID != "task-b" {
		t.Fatalf("Expected sess-2 marker to survive, got %+v", other)
	}
}

func TestCollectOrdersOldestFirst(t *testing.T) {
	s := NewSpool(t.TempDir())

	base := time.Now().UTC()
	if err := s.Post(Marker{SessionID: "sess-1", TaskID: "newer", CompletedAt: base}); err != nil {
		t.Fatalf("Post failed: %v", err)
	}
	if err := s.Post(Marker{SessionID: "sess-1", TaskID: "older", CompletedAt: base.Add(-time.Minute)}); err != nil {
		t.Fatalf("Post failed: %v", err)
	}

	got, err := s.Collect("sess-1")
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	if len(got) != 2 || got[0].TaskID != "older" || got[1].TaskID != "newer" {
		t.Errorf("Expected oldest-first order, got %+v", got)
	}
}

func TestCollectMissingDir(t *testing.T) {
	s := NewSpool(filepath.Join(t.TempDir(), "missing"))
	got, err := s.Collect("sess-1")
	if err != nil {
		t.Fatalf("Collect on missing dir should not error, got %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Expected no markers, got %d", len(got))
	}
}

func TestCollectDropsCorruptMarker(t *testing.T) {
	s := NewSpool(t.TempDir())
	path := filepath.Join(s.Dir(), "sess-1--bad.json")
	if err := os.WriteFile(path, []byte("{broken"), 0o600); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	got, err := s.Collect("sess-1")
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Expected corrupt marker to be dropped, got %+v", got)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("Expected corrupt marker file to be removed")
	}
}

func TestCollectIgnoresPrefixAliasedSession(t *testing.T) {
	s := NewSpool(t.TempDir())

	// "sess" encodes to a prefix of "sess--victim"'s encoding: the filename
	// match alone would hand the marker to the wrong session.
	if err := s.Post(Marker{SessionID: "sess--victim", TaskID: "task-a", Summary: "private"}); err != nil {
		t.Fatalf("Post failed: %v", err)
	}

	got, err := s.Collect("sess")
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("Expected no markers for aliased session, got %+v", got)
	}

	// The rightful session still receives it, exactly once.
	victim, err := s.Collect("sess--victim")
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	if len(victim) != 1 || victim[0].TaskID != "task-a" {
		t.Fatalf("Expected victim's marker to survive, got %+v", victim)
	}
}

func TestCollectDistinguishesLongSessionIDs(t *testing.T) {
	s := NewSpool(t.TempDir())

	// Two ids sharing their first 64 characters must not collide after the
	// token truncation.
	base := ""
	for len(base) < 70 {
		base += "x"
	}
	a := base + "-one"
	b := base + "-two"

	if err := s.Post(Marker{SessionID: a, TaskID: "task-a"}); err != nil {
		t.Fatalf("Post failed: %v", err)
	}
	if err := s.Post(Marker{SessionID: b, TaskID: "task-b"}); err != nil {
		t.Fatalf("Post failed: %v", err)
	}

	got, err := s.Collect(a)
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	if len(got) != 1 || got[0].TaskID != "task-a" {
		t.Fatalf("Expected only the first session's marker, got %+v", got)
	}

	other, err := s.Collect(b)
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	if len(other) != 1 || other[0].TaskID != "task-b" {
		t.Fatalf("Expected the second session's marker to survive, got %+v", other)
	}
}

func TestEncodeSpoolTokenCollisions(t *testing.T) {
	// Sanitized ids that would collide byte-for-byte get distinct hash suffixes.
	if encodeSpoolToken("sess/1") == encodeSpoolToken("sess.1") {
		t.Error("Expected sanitized tokens to stay distinct")
	}
	// Clean short ids map directly.
	if encodeSpoolToken("sess-1") != "sess-1" {
		t.Errorf("Expected identity encoding, got %q", encodeSpoolToken("sess-1"))
	}
}

func TestPostValidation(t *testing.T) {
	s := NewSpool(t.TempDir())
	if err := s.Post(Marker{TaskID: "task-a"}); err == nil {
		t.Error("Expected error for missing session id")
	}
	if err := s.Post(Marker{SessionID: "sess-1"}); err == nil {
		t.Error("Expected error for missing task id")
	}
}
