package app

import (
	"fmt"
	"os"
	"path/filepath"
)

// StateDir resolves the per-session state directory.
// Order of precedence:
// 1) CLI override (--state-dir)
// 2) WARDEN_STATE_DIR / config.yaml (merged by LoadSettings)
// 3) Default: ~/.config/warden/sessions
// The directory is created if missing.
func StateDir() (string, error) {
	override, _, _ := getOverrides()
	if override != "" {
		return ensureDir(override)
	}

	cfg, err := LoadSettings()
	if err != nil {
		return "", fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.StateDir != "" {
		return ensureDir(cfg.StateDir)
	}

	dir, err := ConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to determine config directory: %w", err)
	}
	return ensureDir(filepath.Join(dir, "sessions"))
}

// SpoolDir resolves the background-task marker spool directory.
// Same precedence as StateDir; default ~/.config/warden/spool.
func SpoolDir() (string, error) {
	_, override, _ := getOverrides()
	if override != "" {
		return ensureDir(override)
	}

	cfg, err := LoadSettings()
	if err != nil {
		return "", fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.SpoolDir != "" {
		return ensureDir(cfg.SpoolDir)
	}

	dir, err := ConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to determine config directory: %w", err)
	}
	return ensureDir(filepath.Join(dir, "spool"))
}

// JournalPath resolves the audit journal database path and ensures the
// parent directory exists. Default: ~/.config/warden/journal.db.
func JournalPath() (string, error) {
	_, _, override := getOverrides()
	if override != "" {
		return ensureParentDir(override)
	}

	cfg, err := LoadSettings()
	if err != nil {
		return "", fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.JournalPath != "" {
		return ensureParentDir(cfg.JournalPath)
	}

	dir, err := ConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to determine config directory: %w", err)
	}
	return ensureParentDir(filepath.Join(dir, "journal.db"))
}

func ensureDir(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return "", fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	return dir, nil
}

func ensureParentDir(path string) (string, error) {
	if _, err := ensureDir(filepath.Dir(path)); err != nil {
		return "", err
	}
	return path, nil
}
