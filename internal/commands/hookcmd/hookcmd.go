// Package hookcmd provides hook installation and uninstallation commands.
// This package is separate from the main commands package to allow independent
// evolution of hook lifecycle management.
package hookcmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/dotcommander/warden/internal/output"
)

const wardenCommandFallback = "warden"

//nolint:gochecknoglobals // sync.Once singleton cache for hook definitions; required by the sync.Once pattern
var (
	wardenHooksOnce  sync.Once
	wardenHooksCache map[string]hookEntry
)

type hookHandler struct {
	Type    string `json:"type"`
	Command string `json:"command"`
	Timeout int    `json:"timeout"`
}

type hookEntry struct {
	Matcher string        `json:"matcher"`
	Hooks   []hookHandler `json:"hooks"`
}

func claudeSettingsPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".claude", "settings.json")
}

func projectClaudeSettingsPath() string {
	wd, err := os.Getwd()
	if err != nil {
		return filepath.Join(".", ".claude", "settings.json")
	}
	return filepath.Join(wd, ".claude", "settings.json")
}

func resolveClaudeSettingsPath(projectScoped bool) string {
	if projectScoped {
		return projectClaudeSettingsPath()
	}
	return claudeSettingsPath()
}

func wardenExecutable() string {
	exe, err := os.Executable()
	if err != nil || strings.TrimSpace(exe) == "" {
		return wardenCommandFallback
	}
	return exe
}

func buildWardenHookCommand(subcommand string) string {
	exe := wardenExecutable()
	if exe == wardenCommandFallback {
		return fmt.Sprintf("warden hook %s", subcommand)
	}
	return fmt.Sprintf("%q hook %s", exe, subcommand)
}

func wardenHooks() map[string]hookEntry {
	wardenHooksOnce.Do(func() {
		wardenHooksCache = buildWardenHooks()
	})
	return wardenHooksCache
}

func buildWardenHooks() map[string]hookEntry {
	return map[string]hookEntry{
		"SessionStart": {
			Matcher: "startup|resume|clear|compact",
			Hooks: []hookHandler{{
				Type:    "command",
				Command: buildWardenHookCommand("session-start"),
				Timeout: 3000,
			}},
		},
		"UserPromptSubmit": {
			Matcher: "",
			Hooks: []hookHandler{{
				Type:    "command",
				Command: buildWardenHookCommand("prompt"),
				Timeout: 2000,
			}},
		},
		"PreToolUse": {
			Matcher: "",
			Hooks: []hookHandler{{
				Type:    "command",
				Command: buildWardenHookCommand("pre-action"),
				Timeout: 2000,
			}},
		},
		"PostToolUse": {
			Matcher: "",
			Hooks: []hookHandler{{
				Type:    "command",
				Command: buildWardenHookCommand("post-action"),
				Timeout: 2000,
			}},
		},
		"Stop": {
			Matcher: "",
			Hooks: []hookHandler{{
				Type:    "command",
				Command: buildWardenHookCommand("stop"),
				Timeout: 5000,
			}},
		},
		"SubagentStop": {
			Matcher: "",
			Hooks: []hookHandler{{
				Type:    "command",
				Command: buildWardenHookCommand("subagent-stop"),
				Timeout: 3000,
			}},
		},
	}
}

func wardenHookEventNames() []string {
	events := make([]string, 0, len(wardenHooks()))
	for name := range wardenHooks() {
		events = append(events, name)
	}
	sort.Strings(events)
	return events
}

func readSettings(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]any{}, nil
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var settings map[string]any
	if err := json.Unmarshal(data, &settings); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return settings, nil
}

func writeSettings(path string, settings map[string]any) error {
	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}
	data = append(data, '\n')

	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	return os.WriteFile(path, data, 0600)
}

// HasWardenHook checks if a hooks array already contains a warden hook command.
func HasWardenHook(entries []any) bool {
	for _, entry := range entries {
		entryMap, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		hooks, ok := entryMap["hooks"].([]any)
		if !ok {
			continue
		}
		for _, h := range hooks {
			hMap, ok := h.(map[string]any)
			if !ok {
				continue
			}
			cmd, _ := hMap["command"].(string)
			if IsWardenHookCommand(cmd) {
				return true
			}
		}
	}
	return false
}

// IsWardenHookCommand checks if a command string is a warden hook command.
func IsWardenHookCommand(command string) bool {
	cmd := strings.TrimSpace(command)
	if cmd == "" {
		return false
	}
	parts := strings.Fields(cmd)
	if len(parts) < 3 {
		return false
	}

	execToken := strings.Trim(parts[0], "\"'")
	if filepath.Base(execToken) != "warden" {
		return false
	}
	if parts[1] != "hook" {
		return false
	}

	sub := parts[2]
	switch sub {
	case "session-start", "prompt", "pre-action", "post-action", "stop",
		"subagent-stop":
		return true
	default:
		return false
	}
}

func hookEntryEqual(a, b map[string]any) bool {
	aj, _ := json.Marshal(a)
	bj, _ := json.Marshal(b)
	return string(aj) == string(bj)
}

type installOutcome int

const (
	hookInstalled installOutcome = iota
	hookUpdated
	hookSkipped
)

func upsertWardenHookEntry(existing []any, newEntry map[string]any) ([]any, installOutcome) {
	var kept []any
	hadWarden := false
	matchingWarden := false

	for _, currentEntry := range existing {
		entryObj, ok := currentEntry.(map[string]any)
		if !ok {
			kept = append(kept, currentEntry)
			continue
		}
		hooks, ok := entryObj["hooks"].([]any)
		if !ok {
			kept = append(kept, currentEntry)
			continue
		}
		isWarden := false
		for _, h := range hooks {
			hMap, ok := h.(map[string]any)
			if !ok {
				continue
			}
			cmd, _ := hMap["command"].(string)
			if IsWardenHookCommand(cmd) {
				isWarden = true
				break
			}
		}
		if isWarden {
			hadWarden = true
			if hookEntryEqual(entryObj, newEntry) {
				matchingWarden = true
			}
			continue
		}
		kept = append(kept, currentEntry)
	}

	kept = append(kept, newEntry)
	entries := kept
	if matchingWarden {
		return entries, hookSkipped
	}
	if hadWarden {
		return entries, hookUpdated
	}
	return entries, hookInstalled
}

// NewInstallCmd creates the hook install command.
//nolint:gocognit,funlen
func NewInstallCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "install",
		Short: "Install warden hooks into Claude Code settings",
		Long:  "Registers warden lifecycle hook commands in Claude Code settings.json.",
		RunE: func(cmd *cobra.Command, args []string) error {
			type result struct {
				Message   string   `json:"message"`
				Path      string   `json:"path"`
				Installed []string `json:"installed"`
				Updated   []string `json:"updated,omitempty"`
				Skipped   []string `json:"skipped"`
			}

			projectScoped, _ := cmd.Flags().GetBool("project")
			path := resolveClaudeSettingsPath(projectScoped)

			settings, err := readSettings(path)
			if err != nil {
				return err
			}

			hooksObj, _ := settings["hooks"].(map[string]any)
			if hooksObj == nil {
				hooksObj = map[string]any{}
			}

			var installed []string
			var updated []string
			var skipped []string

			for eventName, entry := range wardenHooks() {
				existing, _ := hooksObj[eventName].([]any)

				entryJSON, _ := json.Marshal(entry)
				var entryMap map[string]any
				_ = json.Unmarshal(entryJSON, &entryMap)

				entries, outcome := upsertWardenHookEntry(existing, entryMap)
				hooksObj[eventName] = entries

				switch outcome {
				case hookInstalled:
					installed = append(installed, eventName)
				case hookUpdated:
					updated = append(updated, eventName)
				case hookSkipped:
					skipped = append(skipped, eventName)
				}
			}

			settings["hooks"] = hooksObj
			if err := writeSettings(path, settings); err != nil {
				return err
			}

			sort.Strings(installed)
			sort.Strings(updated)
			sort.Strings(skipped)

			var parts []string
			if len(installed) > 0 {
				parts = append(parts, fmt.Sprintf("hooks installed (%s)", strings.Join(installed, ", ")))
			}
			if len(updated) > 0 {
				parts = append(parts, fmt.Sprintf("hooks updated (%s)", strings.Join(updated, ", ")))
			}
			if len(installed) == 0 && len(updated) == 0 {
				parts = append(parts, "hooks already installed")
			}

			return output.PrintSuccess(result{
				Message:   strings.Join(parts, "; ") + ". Run 'warden status' to verify.",
				Path:      path,
				Installed: installed,
				Updated:   updated,
				Skipped:   skipped,
			})
		},
	}

	cmd.Flags().Bool("project", false, "Install hooks in ./.claude/settings.json")

	return cmd
}

// NewUninstallCmd creates the hook uninstall command.
//nolint:gocognit,funlen
func NewUninstallCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "uninstall",
		Short: "Remove warden hooks from Claude Code settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			type result struct {
				Path    string   `json:"path"`
				Removed []string `json:"removed"`
			}

			projectScoped, _ := cmd.Flags().GetBool("project")
			path := resolveClaudeSettingsPath(projectScoped)

			settings, err := readSettings(path)
			if err != nil {
				return err
			}

			hooksObj, _ := settings["hooks"].(map[string]any)
			if hooksObj == nil {
				return output.PrintSuccess(result{Path: path, Removed: []string{}})
			}

			var removed []string

			for _, eventName := range wardenHookEventNames() {
				entries, ok := hooksObj[eventName].([]any)
				if !ok {
					continue
				}

				var kept []any
				for _, entry := range entries {
					entryMap, ok := entry.(map[string]any)
					if !ok {
						kept = append(kept, entry)
						continue
					}
					hooks, ok := entryMap["hooks"].([]any)
					if !ok {
						kept = append(kept, entry)
						continue
					}

					isWarden := false
					for _, h := range hooks {
						hMap, ok := h.(map[string]any)
						if !ok {
							continue
						}
						cmd, _ := hMap["command"].(string)
						if IsWardenHookCommand(cmd) {
							isWarden = true
							break
						}
					}

					if !isWarden {
						kept = append(kept, entry)
					}
				}

				if len(kept) != len(entries) {
					removed = append(removed, eventName)
				}

				if len(kept) == 0 {
					delete(hooksObj, eventName)
				} else {
					hooksObj[eventName] = kept
				}
			}

			settings["hooks"] = hooksObj
			if err := writeSettings(path, settings); err != nil {
				return err
			}

			return output.PrintSuccess(result{Path: path, Removed: removed})
		},
	}

	cmd.Flags().Bool("project", false, "Uninstall hooks from ./.claude/settings.json")

	return cmd
}
