package commands

import (
	"github.com/spf13/cobra"

	"github.com/dotcommander/warden/internal/output"
	"github.com/dotcommander/warden/internal/state"
)

// NewBlockCmd creates the hard-block management command. This is the
// interface reserved for the external audit process: once a block is set,
// every event for the session is refused until an explicit clear.
func NewBlockCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "block",
		Short: "Manage session hard blocks (audit-process interface)",
		Args:  cobra.NoArgs,
	}

	cmd.AddCommand(newBlockSetCmd())
	cmd.AddCommand(newBlockClearCmd())
	cmd.AddCommand(newBlockStatusCmd())

	return cmd
}

func newBlockSetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "set",
		Short:         "Hard-block a session until explicitly cleared",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := sessionFlag(cmd.Flags())
			if err != nil {
				return err
			}
			reason, _ := cmd.Flags().GetString("reason")

			store, err := openStateStore()
			if err != nil {
				return cmdErr(err)
			}
			st, err := store.SetHardBlock(session, reason)
			if err != nil {
				_ = output.PrintError(err)
				return cmdErr(err)
			}

			type resp struct {
				SessionID string `json:"session_id"`
				Reason    string `json:"reason"`
				SetAt     string `json:"set_at"`
			}
			return output.PrintSuccess(resp{
				SessionID: st.SessionID,
				Reason:    st.HardBlock.Reason,
				SetAt:     st.HardBlock.SetAt.Format("2006-01-02T15:04:05Z07:00"),
			})
		},
	}

	cmd.Flags().String("session", "", "Session id to block")
	cmd.Flags().String("reason", "", "Reason shown on every refused event")
	_ = cmd.MarkFlagRequired("session")
	_ = cmd.MarkFlagRequired("reason")

	return cmd
}

func newBlockClearCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "clear",
		Short:         "Clear a session hard block",
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
			if _, err := store.ClearHardBlock(session); err != nil {
				_ = output.PrintError(err)
				return cmdErr(err)
			}

			type resp struct {
				SessionID string `json:"session_id"`
				Blocked   bool   `json:"blocked"`
			}
			return output.PrintSuccess(resp{SessionID: session, Blocked: false})
		},
	}

	cmd.Flags().String("session", "", "Session id to unblock")
	_ = cmd.MarkFlagRequired("session")

	return cmd
}

func newBlockStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "status",
		Short:         "Show the hard-block status of a session",
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
			st := store.Read(session)

			type resp struct {
				SessionID string           `json:"session_id"`
				Blocked   bool             `json:"blocked"`
				HardBlock *state.HardBlock `json:"hard_block,omitempty"`
			}
			return output.PrintSuccess(resp{
				SessionID: session,
				Blocked:   st.HardBlock != nil,
				HardBlock: st.HardBlock,
			})
		},
	}

	cmd.Flags().String("session", "", "Session id to inspect")
	_ = cmd.MarkFlagRequired("session")

	return cmd
}
