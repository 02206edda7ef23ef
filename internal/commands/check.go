package commands

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/dotcommander/warden/internal/output"
	"github.com/dotcommander/warden/internal/state"
)

// NewCheckCmd creates the compliance-check command. `check record` is the
// out-of-band equivalent of observing the designated compliance action
// complete: it resets the session's activity counter.
func NewCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Record compliance checks",
		Args:  cobra.NoArgs,
	}

	cmd.AddCommand(newCheckRecordCmd())

	return cmd
}

func newCheckRecordCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "record",
		Short:         "Record a completed compliance check for a session",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := sessionFlag(cmd.Flags())
			if err != nil {
				return err
			}

			store, err := openStateStore()
			if err != nil {
				return cmdErr(err)
			}
			st, err := store.AtomicUpdate(session, func(s *state.SessionState) {
				s.ActivityCount = 0
				s.LastCheckAt = time.Now().UTC()
			})
			if err != nil {
				_ = output.PrintError(err)
				return cmdErr(err)
			}

			type resp struct {
				SessionID     string    `json:"session_id"`
				ActivityCount int       `json:"activity_count_since_check"`
				LastCheckAt   time.Time `json:"last_check_at"`
			}
			return output.PrintSuccess(resp{
				SessionID:     st.SessionID,
				ActivityCount: st.ActivityCount,
				LastCheckAt:   st.LastCheckAt,
			})
		},
	}

	cmd.Flags().String("session", "", "Session id the check was performed for")
	_ = cmd.MarkFlagRequired("session")

	return cmd
}
