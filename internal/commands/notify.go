package commands

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/dotcommander/warden/internal/app"
	"github.com/dotcommander/warden/internal/notify"
	"github.com/dotcommander/warden/internal/output"
)

// NewNotifyCmd creates the background-task notification command. Long-running
// auxiliary work posts a completion marker here; the session's next event
// folds it into injected context.
func NewNotifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "notify",
		Short: "Post background-task completion markers",
		Args:  cobra.NoArgs,
	}

	cmd.AddCommand(newNotifyPostCmd())

	return cmd
}

func newNotifyPostCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "post",
		Short:         "Record a completed background task for a session",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := sessionFlag(cmd.Flags())
			if err != nil {
				return err
			}
			taskID, _ := cmd.Flags().GetString("task")
			if taskID == "" {
				return errors.New("--task is required")
			}
			summary, _ := cmd.Flags().GetString("summary")

			spoolDir, err := app.SpoolDir()
			if err != nil {
				return cmdErr(err)
			}
			marker := notify.Marker{SessionID: session, TaskID: taskID, Summary: summary}
			if err := notify.NewSpool(spoolDir).Post(marker); err != nil {
				_ = output.PrintError(err)
				return cmdErr(err)
			}

			type resp struct {
				SessionID string `json:"session_id"`
				TaskID    string `json:"task_id"`
			}
			return output.PrintSuccess(resp{SessionID: session, TaskID: taskID})
		},
	}

	cmd.Flags().String("session", "", "Session id the task belongs to")
	cmd.Flags().String("task", "", "Task id")
	cmd.Flags().String("summary", "", "One-line completion summary")
	_ = cmd.MarkFlagRequired("session")
	_ = cmd.MarkFlagRequired("task")

	return cmd
}
