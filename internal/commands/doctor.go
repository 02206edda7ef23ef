package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/dotcommander/warden/internal/app"
	"github.com/dotcommander/warden/internal/journal"
	"github.com/dotcommander/warden/internal/output"
)

type doctorCheck struct {
	Name   string `json:"name"`
	OK     bool   `json:"ok"`
	Detail string `json:"detail,omitempty"`
}

// NewDoctorCmd creates the environment diagnostics command.
func NewDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:           "doctor",
		Short:         "Diagnose configuration, state and journal health",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			var checks []doctorCheck

			checks = append(checks, checkDir("config dir", func() (string, error) {
				dir, err := app.ConfigDir()
				if err != nil {
					return "", err
				}
				return dir, app.EnsureConfigDir()
			}))
			checks = append(checks, checkWritableDir("state dir", app.StateDir))
			checks = append(checks, checkWritableDir("spool dir", app.SpoolDir))
			checks = append(checks, checkStaleLocks())
			checks = append(checks, checkJournal())

			healthy := true
			for _, c := range checks {
				if !c.OK {
					healthy = false
				}
			}

			type resp struct {
				Healthy bool          `json:"healthy"`
				Checks  []doctorCheck `json:"checks"`
			}
			if err := output.PrintSuccess(resp{Healthy: healthy, Checks: checks}); err != nil {
				return err
			}
			if !healthy {
				return exitCodeError{code: 1}
			}
			return nil
		},
	}
}

func checkDir(name string, resolve func() (string, error)) doctorCheck {
	dir, err := resolve()
	if err != nil {
		return doctorCheck{Name: name, OK: false, Detail: err.Error()}
	}
	return doctorCheck{Name: name, OK: true, Detail: dir}
}

func checkWritableDir(name string, resolve func() (string, error)) doctorCheck {
	dir, err := resolve()
	if err != nil {
		return doctorCheck{Name: name, OK: false, Detail: err.Error()}
	}
	probe, err := os.CreateTemp(dir, ".doctor-*")
	if err != nil {
		return doctorCheck{Name: name, OK: false, Detail: fmt.Sprintf("%s not writable: %v", dir, err)}
	}
	path := probe.Name()
	_ = probe.Close()
	_ = os.Remove(path)
	return doctorCheck{Name: name, OK: true, Detail: dir}
}

// checkStaleLocks reports lock files older than an hour. Locks are held only
// for the duration of one read-modify-write, so an old one means a crashed
// invocation left its sidecar behind. Advisory flocks do not survive process
// death, so stale files are cosmetic, but they are worth surfacing.
func checkStaleLocks() doctorCheck {
	const name = "state locks"

	dir, err := app.StateDir()
	if err != nil {
		return doctorCheck{Name: name, OK: false, Detail: err.Error()}
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return doctorCheck{Name: name, OK: false, Detail: err.Error()}
	}

	stale := 0
	cutoff := time.Now().Add(-time.Hour)
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".lock") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			stale++
		}
	}

	if stale > 0 {
		return doctorCheck{Name: name, OK: true, Detail: fmt.Sprintf("%d stale lock file(s) in %s, safe to delete", stale, dir)}
	}
	return doctorCheck{Name: name, OK: true, Detail: "no stale lock files"}
}

func checkJournal() doctorCheck {
	const name = "journal"

	path, err := app.JournalPath()
	if err != nil {
		return doctorCheck{Name: name, OK: false, Detail: err.Error()}
	}
	j, err := journal.Open(path)
	if err != nil {
		return doctorCheck{Name: name, OK: false, Detail: err.Error()}
	}
	defer func() { _ = j.Close() }()

	current, latest, err := journal.SchemaVersion(j.DB())
	if err != nil {
		return doctorCheck{Name: name, OK: false, Detail: err.Error()}
	}
	if current != latest {
		return doctorCheck{
			Name: name, OK: false,
			Detail: fmt.Sprintf("schema version %d, want %d (%s)", current, latest, filepath.Base(path)),
		}
	}
	return doctorCheck{Name: name, OK: true, Detail: fmt.Sprintf("%s (schema v%d)", path, current)}
}
