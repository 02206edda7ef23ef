package output

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/dotcommander/warden/internal/models"
)

func TestWriteEnvelope(t *testing.T) {
	var buf bytes.Buffer
	err := writeEnvelope(&buf, Response{SchemaVersion: schemaVersion, Success: true, Data: map[string]any{"count": 2}})
	if err != nil {
		t.Fatalf("writeEnvelope failed: %v", err)
	}

	var parsed map[string]any
	if err := json.Unmarshal(buf.Bytes(), &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if parsed["schema_version"] != "v1" {
		t.Errorf("Expected schema_version v1, got %v", parsed["schema_version"])
	}
	if parsed["success"] != true {
		t.Error("Expected success true")
	}
	if _, ok := parsed["error"]; ok {
		t.Error("Expected error field to be omitted on success")
	}

	buf.Reset()
	if err := writeEnvelope(&buf, Response{SchemaVersion: schemaVersion, Error: errors.New("boom").Error()}); err != nil {
		t.Fatalf("writeEnvelope failed: %v", err)
	}
	if !strings.Contains(buf.String(), `"boom"`) {
		t.Errorf("Expected error text in envelope, got %s", buf.String())
	}
}

func TestWriteVerdictWireForm(t *testing.T) {
	var buf bytes.Buffer
	err := WriteVerdict(&buf, models.Verdict{
		Permission:     models.PermissionDeny,
		ShouldContinue: false,
		ExitSeverity:   models.SeverityBlock,
		Message:        "denied",
	})
	if err != nil {
		t.Fatalf("WriteVerdict failed: %v", err)
	}

	// Exactly one JSON object, snake_case fields, string enums.
	out := buf.String()
	if strings.Count(out, "\n") != 1 {
		t.Errorf("Expected a single line, got %q", out)
	}
	var parsed map[string]any
	if err := json.Unmarshal(buf.Bytes(), &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if parsed["permission"] != "deny" || parsed["exit_severity"] != "block" {
		t.Errorf("Unexpected wire form: %v", parsed)
	}
	if parsed["should_continue"] != false {
		t.Error("Expected should_continue false")
	}
}
