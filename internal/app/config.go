package app

import (
	"os"
	"path/filepath"
)

// ConfigDir returns ~/.config/warden/ on all platforms.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "warden"), nil
}

// EnsureConfigDir creates the config directory and default config.yaml if missing.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0750); err != nil {
		return err
	}

	configFile := filepath.Join(dir, "config.yaml")
	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		return os.WriteFile(configFile, []byte(defaultConfig), 0600)
	}
	return nil
}

const defaultConfig = `# warden configuration
# Run: warden --help

# Number of mutating actions allowed per session before a compliance check
# becomes overdue. Minimum 1.
# activity_threshold: 7

# Action whose completion counts as a compliance check.
# compliance_action: ComplianceCheck

# Actions classified as state-mutating.
# mutating_actions: [Write, Edit, MultiEdit, NotebookEdit, Bash]

# Optional path overrides. Also settable via WARDEN_STATE_DIR,
# WARDEN_SPOOL_DIR, WARDEN_JOURNAL_PATH or the matching --flags.
# state_dir: ~/.config/warden/sessions
# spool_dir: ~/.config/warden/spool
# journal_path: ~/.config/warden/journal.db
`
