package commands

import (
	"github.com/spf13/cobra"

	"github.com/dotcommander/warden/internal/output"
)

// NewEventsCmd creates the audit journal inspection command.
func NewEventsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Inspect the audit journal",
		Args:  cobra.NoArgs,
	}

	cmd.AddCommand(newEventsListCmd())
	cmd.AddCommand(newFactsListCmd())

	return cmd
}

func newEventsListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "list",
		Short:         "List recent dispatched events and their verdicts",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			session, _ := cmd.Flags().GetString("session")
			limit, _ := cmd.Flags().GetInt("limit")

			j, err := openJournal()
			if err != nil {
				_ = output.PrintError(err)
				return cmdErr(err)
			}
			defer func() { _ = j.Close() }()

			entries, err := j.RecentEntries(session, limit)
			if err != nil {
				_ = output.PrintError(err)
				return cmdErr(err)
			}

			type resp struct {
				Count   int `json:"count"`
				Entries any `json:"entries"`
			}
			return output.PrintSuccess(resp{Count: len(entries), Entries: entries})
		},
	}

	cmd.Flags().String("session", "", "Limit to one session id")
	cmd.Flags().Int("limit", 50, "Maximum entries to return")

	return cmd
}

func newFactsListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "facts",
		Short:         "List recorded facts for a session",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := sessionFlag(cmd.Flags())
			if err != nil {
				return err
			}

			j, err := openJournal()
			if err != nil {
				_ = output.PrintError(err)
				return cmdErr(err)
			}
			defer func() { _ = j.Close() }()

			facts, err := j.ListFacts(session)
			if err != nil {
				_ = output.PrintError(err)
				return cmdErr(err)
			}

			type resp struct {
				Count int `json:"count"`
				Facts any `json:"facts"`
			}
			return output.PrintSuccess(resp{Count: len(facts), Facts: facts})
		},
	}

	cmd.Flags().String("session", "", "Session id to inspect")
	_ = cmd.MarkFlagRequired("session")

	return cmd
}
