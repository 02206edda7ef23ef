package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/dotcommander/warden/internal/commands/hookcmd"
	"github.com/dotcommander/warden/internal/models"
	"github.com/dotcommander/warden/internal/output"
)

// maxHookStdinBytes caps stdin reads. Event payloads are small JSON objects;
// 1 MB is generous headroom that prevents unbounded allocation.
const maxHookStdinBytes = 1 << 20

// NewHookCmd creates the hook parent command.
func NewHookCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hook",
		Short: "Hook handlers and installers for agent runtimes",
		Args:  cobra.NoArgs,
	}

	cmd.AddCommand(hookcmd.NewInstallCmd())
	cmd.AddCommand(hookcmd.NewUninstallCmd())

	// Hook handler subcommands — called by the host runtime, not users.
	// Hidden from help output to reduce command surface noise.
	for _, sub := range []*cobra.Command{
		newHookEventCmd("session-start", models.KindSessionStart,
			"SessionStart hook — hydrates session context"),
		newHookEventCmd("prompt", models.KindPromptSubmit,
			"UserPromptSubmit hook — compliance reminders and context"),
		newHookEventCmd("pre-action", models.KindPreAction,
			"PreToolUse hook — permission gate for tool calls"),
		newHookEventCmd("post-action", models.KindPostAction,
			"PostToolUse hook — activity accounting"),
		newHookEventCmd("stop", models.KindStop,
			"Stop hook — session wrap-up"),
		newHookEventCmd("subagent-stop", models.KindSubagentStop,
			"SubagentStop hook — subagent wrap-up"),
		newHookHandleCmd(),
	} {
		sub.Hidden = true
		cmd.AddCommand(sub)
	}

	return cmd
}

// newHookEventCmd creates a handler subcommand bound to one event kind.
// The kind from the command wins over whatever the payload claims.
func newHookEventCmd(use string, kind models.Kind, short string) *cobra.Command {
	return &cobra.Command{
		Use:           use,
		Short:         short,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ev, err := readEventStdin(cmd.InOrStdin())
			if err != nil {
				return emitMalformed(cmd, err)
			}
			ev.Kind = kind
			return dispatchAndEmit(cmd, ev)
		},
	}
}

// newHookHandleCmd creates the generic handler for runtimes that register a
// single command: the event kind comes from the payload's hook_event_name.
func newHookHandleCmd() *cobra.Command {
	return &cobra.Command{
		Use:           "handle",
		Short:         "Generic hook handler — dispatches on hook_event_name",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ev, err := readEventStdin(cmd.InOrStdin())
			if err != nil {
				return emitMalformed(cmd, err)
			}
			kind, err := models.ParseKind(string(ev.Kind))
			if err != nil {
				return emitMalformed(cmd, err)
			}
			ev.Kind = kind
			return dispatchAndEmit(cmd, ev)
		},
	}
}

// readEventStdin parses one event record from the input stream.
func readEventStdin(r io.Reader) (models.Event, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxHookStdinBytes))
	if err != nil {
		return models.Event{}, fmt.Errorf("read event payload: %w", err)
	}
	var ev models.Event
	if err := json.Unmarshal(data, &ev); err != nil {
		return models.Event{}, fmt.Errorf("parse event payload: %w", err)
	}
	return ev, nil
}

// dispatchAndEmit runs the pipeline and writes exactly one verdict record.
// The exit status mirrors the verdict severity: 0=ok, 1=warn, 2=block.
func dispatchAndEmit(cmd *cobra.Command, ev models.Event) error {
	d, closeFn, err := newDispatcher()
	if err != nil {
		// The enforcement core could not even be assembled. Fail open at
		// warn so a broken install never wedges the host runtime.
		slog.Default().Error("dispatcher setup failed", "error", err)
		return emitVerdict(cmd, models.Verdict{
			ShouldContinue: true,
			ExitSeverity:   models.SeverityWarn,
			Message:        fmt.Sprintf("enforcement unavailable: %v", err),
		})
	}
	defer closeFn()

	return emitVerdict(cmd, d.Handle(ev))
}

// emitMalformed reports an unparseable event: empty-effect verdict at warn.
func emitMalformed(cmd *cobra.Command, err error) error {
	slog.Default().Warn("malformed event payload", "error", err)
	return emitVerdict(cmd, models.Verdict{
		ShouldContinue: true,
		ExitSeverity:   models.SeverityWarn,
		Message:        fmt.Sprintf("event payload malformed: %v", err),
	})
}

func emitVerdict(cmd *cobra.Command, v models.Verdict) error {
	if err := output.WriteVerdict(cmd.OutOrStdout(), v); err != nil {
		return err
	}
	if code := v.ExitSeverity.ExitCode(); code != 0 {
		return exitCodeError{code: code}
	}
	return nil
}
