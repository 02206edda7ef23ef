package commands

import (
	"github.com/spf13/cobra"

	"github.com/dotcommander/warden/internal/output"
)

// NewSessionCmd creates the session state inspection command.
func NewSessionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Inspect persisted session state",
		Args:  cobra.NoArgs,
	}

	cmd.AddCommand(newSessionShowCmd())
	cmd.AddCommand(newSessionListCmd())

	return cmd
}

func newSessionShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "show",
		Short:         "Show the state record for one session",
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
			// Read fails open by contract: an unknown session shows as default.
			return output.PrintSuccess(store.Read(session))
		},
	}

	cmd.Flags().String("session", "", "Session id to show")
	_ = cmd.MarkFlagRequired("session")

	return cmd
}

func newSessionListCmd() *cobra.Command {
	return &cobra.Command{
		Use:           "list",
		Short:         "List every persisted session state",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStateStore()
			if err != nil {
				return cmdErr(err)
			}
			states, err := store.List()
			if err != nil {
				_ = output.PrintError(err)
				return cmdErr(err)
			}

			type resp struct {
				Count    int `json:"count"`
				Sessions any `json:"sessions"`
			}
			return output.PrintSuccess(resp{Count: len(states), Sessions: states})
		},
	}
}
