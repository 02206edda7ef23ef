// Package output owns the two stdout contracts: the JSON envelope that
// management commands print, and the raw verdict record that hook commands
// hand back to the host runtime.
package output

import (
	"encoding/json"
	"io"
	"os"

	"github.com/dotcommander/warden/internal/models"
)

// Response is the envelope for management-command output. Hook commands
// bypass it: their stdout is the bare verdict.
type Response struct {
	SchemaVersion string `json:"schema_version"`
	Success       bool   `json:"success"`
	Data          any    `json:"data,omitempty"`
	Error         string `json:"error,omitempty"`
}

const schemaVersion = "v1"

// PrintSuccess prints a success envelope around data.
func PrintSuccess(data any) error {
	return writeEnvelope(os.Stdout, Response{SchemaVersion: schemaVersion, Success: true, Data: data})
}

// PrintError prints a failure envelope carrying the error text.
func PrintError(err error) error {
	return writeEnvelope(os.Stdout, Response{SchemaVersion: schemaVersion, Success: false, Error: err.Error()})
}

func writeEnvelope(w io.Writer, r Response) error {
	enc := json.NewEncoder(w)
	// Compact by default; agents consume this. WARDEN_PRETTY_JSON=1 for humans.
	if v := os.Getenv("WARDEN_PRETTY_JSON"); v == "1" || v == "true" {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(r)
}

// WriteVerdict emits the verdict record for the host runtime. This is the
// invocation-boundary contract: exactly one JSON object on stdout, fields in
// snake_case, nothing else on the stream.
func WriteVerdict(w io.Writer, v models.Verdict) error {
	return json.NewEncoder(w).Encode(v)
}
