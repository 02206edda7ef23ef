package commands

import (
	"errors"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/dotcommander/warden/internal/app"
	"github.com/dotcommander/warden/internal/output"
)

// Execute runs the CLI application and returns the process exit status.
// Hook handler commands map verdict severity onto the exit code (0=ok,
// 1=warn, 2=block); every other failure exits 1.
func Execute(version string) int {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, nil)))

	root := &cobra.Command{
		Use:           "warden",
		Short:         "Lifecycle-event dispatcher and compliance gate for agent runtimes",
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			showVersion, _ := cmd.Flags().GetBool("version")
			if showVersion {
				type resp struct {
					Version string `json:"version"`
				}
				return output.PrintSuccess(resp{Version: version})
			}
			return cmd.Help()
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := app.EnsureConfigDir(); err != nil {
				return err
			}

			// Wire path flags into app-level resolvers.
			if dir, err := cmd.Flags().GetString("state-dir"); err == nil && dir != "" {
				app.SetStateDirOverride(dir)
			}
			if dir, err := cmd.Flags().GetString("spool-dir"); err == nil && dir != "" {
				app.SetSpoolDirOverride(dir)
			}
			if path, err := cmd.Flags().GetString("journal-path"); err == nil && path != "" {
				app.SetJournalPathOverride(path)
			}

			return nil
		},
	}

	root.PersistentFlags().String("state-dir", "", "Override session state directory")
	root.PersistentFlags().String("spool-dir", "", "Override background-task spool directory")
	root.PersistentFlags().String("journal-path", "", "Override audit journal path")
	root.Flags().BoolP("version", "v", false, "version for warden")

	root.AddCommand(NewHookCmd())
	root.AddCommand(NewBlockCmd())
	root.AddCommand(NewCheckCmd())
	root.AddCommand(NewNotifyCmd())
	root.AddCommand(NewSessionCmd())
	root.AddCommand(NewEventsCmd())
	root.AddCommand(NewStatusCmd())
	root.AddCommand(NewDoctorCmd())

	err := root.Execute()
	if err == nil {
		return 0
	}

	var ec exitCodeError
	if errors.As(err, &ec) {
		return ec.code
	}

	var pe printedError
	if !errors.As(err, &pe) {
		slog.Error("command failed", "error", err.Error())
	}
	return 1
}
