package commands

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/pflag"

	"github.com/dotcommander/warden/internal/app"
	"github.com/dotcommander/warden/internal/dispatch"
	"github.com/dotcommander/warden/internal/journal"
	"github.com/dotcommander/warden/internal/notify"
	"github.com/dotcommander/warden/internal/policy"
	"github.com/dotcommander/warden/internal/state"
)

// exitCodeError carries a verdict-derived exit status up through cobra.
type exitCodeError struct {
	code int
}

func (e exitCodeError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

type printedError struct {
	err error
}

func (e printedError) Error() string {
	// Intentionally hide the original error: the JSON error response is the output.
	return "error already printed"
}

// cmdErr logs and wraps an error after its JSON envelope has been printed.
func cmdErr(err error) error {
	if err == nil {
		return nil
	}
	attrs := []any{"error", err.Error()}
	var detailed state.RecoverableError
	if errors.As(err, &detailed) {
		attrs = append(attrs,
			"error_code", detailed.ErrorCode(),
			"suggested_action", detailed.SuggestedAction())
	}
	slog.Error("command error", attrs...)
	return printedError{err: err}
}

// sessionFlag extracts the mandatory --session flag value.
func sessionFlag(flags *pflag.FlagSet) (string, error) {
	session, _ := flags.GetString("session")
	if session == "" {
		return "", errors.New("--session is required")
	}
	return session, nil
}

// openStateStore resolves the state directory and returns the store.
func openStateStore() (*state.Store, error) {
	dir, err := app.StateDir()
	if err != nil {
		return nil, err
	}
	return state.NewStore(dir), nil
}

// openJournal opens the audit journal. Callers must Close it.
func openJournal() (*journal.Journal, error) {
	path, err := app.JournalPath()
	if err != nil {
		return nil, err
	}
	return journal.Open(path)
}

// newDispatcher wires the full dispatch pipeline from effective config.
// The journal is best-effort: if it cannot be opened, dispatch proceeds
// without audit or fact recording rather than blocking the host runtime.
func newDispatcher() (*dispatch.Dispatcher, func(), error) {
	states, err := openStateStore()
	if err != nil {
		return nil, nil, err
	}
	spoolDir, err := app.SpoolDir()
	if err != nil {
		return nil, nil, err
	}

	var (
		auditor dispatch.Auditor
		sink    policy.FactSink
		closeFn = func() {}
	)
	settings, _ := app.LoadSettings()
	if !settings.JournalDisabled {
		j, err := openJournal()
		if err != nil {
			slog.Default().Warn("journal unavailable, dispatching without audit", "error", err)
		} else {
			auditor = j
			sink = j
			closeFn = func() { _ = j.Close() }
		}
	}

	pol := app.EffectivePolicy()
	gate := policy.NewComplianceGate(policy.GateConfig{
		Threshold:        pol.ActivityThreshold,
		ComplianceAction: pol.ComplianceAction,
		MutatingActions:  pol.MutatingActions,
	})
	registry := policy.NewRegistry(gate, policy.NewHydrator(pol.ActivityThreshold), policy.NewRecorder(sink))

	d := dispatch.New(states, registry, notify.NewSpool(spoolDir), auditor)
	return d, closeFn, nil
}
