package commands

import (
	"github.com/spf13/cobra"

	"github.com/dotcommander/warden/internal/app"
	"github.com/dotcommander/warden/internal/output"
)

// NewStatusCmd creates the status command: effective configuration plus a
// summary of known sessions.
func NewStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:           "status",
		Short:         "Show effective configuration and session summary",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			stateDir, err := app.StateDir()
			if err != nil {
				return cmdErr(err)
			}
			spoolDir, err := app.SpoolDir()
			if err != nil {
				return cmdErr(err)
			}
			journalPath, err := app.JournalPath()
			if err != nil {
				return cmdErr(err)
			}

			store, err := openStateStore()
			if err != nil {
				return cmdErr(err)
			}
			states, err := store.List()
			if err != nil {
				_ = output.PrintError(err)
				return cmdErr(err)
			}

			blocked := 0
			overdue := 0
			pol := app.EffectivePolicy()
			for _, st := range states {
				if st.HardBlock != nil {
					blocked++
				}
				if st.ActivityCount >= pol.ActivityThreshold {
					overdue++
				}
			}

			type resp struct {
				StateDir        string     `json:"state_dir"`
				SpoolDir        string     `json:"spool_dir"`
				JournalPath     string     `json:"journal_path"`
				Policy          app.Policy `json:"policy"`
				Sessions        int        `json:"sessions"`
				HardBlocked     int        `json:"hard_blocked"`
				ChecksOverdue   int        `json:"checks_overdue"`
			}
			return output.PrintSuccess(resp{
				StateDir:      stateDir,
				SpoolDir:      spoolDir,
				JournalPath:   journalPath,
				Policy:        pol,
				Sessions:      len(states),
				HardBlocked:   blocked,
				ChecksOverdue: overdue,
			})
		},
	}
}
