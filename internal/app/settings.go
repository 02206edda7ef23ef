package app

import (
	"errors"
	"os"
	"path/filepath"
	"sync"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Settings represents configuration loaded from config.yaml with WARDEN_*
// environment overrides applied on top. Field names match snake_case YAML keys.
type Settings struct {
	StateDir          string   `yaml:"state_dir" env:"WARDEN_STATE_DIR"`
	SpoolDir          string   `yaml:"spool_dir" env:"WARDEN_SPOOL_DIR"`
	JournalPath       string   `yaml:"journal_path" env:"WARDEN_JOURNAL_PATH"`
	ActivityThreshold int      `yaml:"activity_threshold" env:"WARDEN_ACTIVITY_THRESHOLD"`
	ComplianceAction  string   `yaml:"compliance_action" env:"WARDEN_COMPLIANCE_ACTION"`
	MutatingActions   []string `yaml:"mutating_actions" env:"WARDEN_MUTATING_ACTIONS" envSeparator:","`
	JournalDisabled   bool     `yaml:"journal_disabled" env:"WARDEN_JOURNAL_DISABLED"`
}

// Policy holds the effective enforcement parameters consumed by the
// compliance gate. Invalid or missing config values fall back to defaults.
type Policy struct {
	ActivityThreshold int      `json:"activity_threshold"`
	ComplianceAction  string   `json:"compliance_action"`
	MutatingActions   []string `json:"mutating_actions"`
}

const (
	defaultActivityThreshold = 7
	defaultComplianceAction  = "ComplianceCheck"
)

// defaultMutatingActions lists the host-runtime tools treated as state-mutating.
func defaultMutatingActions() []string {
	return []string{"Write", "Edit", "MultiEdit", "NotebookEdit", "Bash"}
}

// EffectivePolicy returns validated enforcement parameters with defaults.
func EffectivePolicy() Policy {
	p := Policy{
		ActivityThreshold: defaultActivityThreshold,
		ComplianceAction:  defaultComplianceAction,
		MutatingActions:   defaultMutatingActions(),
	}

	s, err := LoadSettings()
	if err != nil {
		return p
	}

	if s.ActivityThreshold >= 1 {
		p.ActivityThreshold = s.ActivityThreshold
	}
	if s.ComplianceAction != "" {
		p.ComplianceAction = s.ComplianceAction
	}
	if len(s.MutatingActions) > 0 {
		p.MutatingActions = s.MutatingActions
	}

	return p
}

// settingsOnce, settings, settingsErr implement the sync.Once lazy-load singleton
// for config. The mutex-protected overrides carry CLI flags into path resolution.
//
//nolint:gochecknoglobals // sync.Once singleton + RWMutex overrides are intentional process-wide state
var (
	settingsOnce sync.Once
	settings     Settings
	settingsErr  error

	overrideMu       sync.RWMutex
	stateDirOverride string
	spoolDirOverride string
	journalOverride  string
)

// SetStateDirOverride sets a process-wide state directory override (--state-dir).
func SetStateDirOverride(path string) {
	overrideMu.Lock()
	stateDirOverride = path
	overrideMu.Unlock()
}

// SetSpoolDirOverride sets a process-wide spool directory override (--spool-dir).
func SetSpoolDirOverride(path string) {
	overrideMu.Lock()
	spoolDirOverride = path
	overrideMu.Unlock()
}

// SetJournalPathOverride sets a process-wide journal path override (--journal-path).
func SetJournalPathOverride(path string) {
	overrideMu.Lock()
	journalOverride = path
	overrideMu.Unlock()
}

func getOverrides() (stateDir, spoolDir, journal string) {
	overrideMu.RLock()
	defer overrideMu.RUnlock()
	return stateDirOverride, spoolDirOverride, journalOverride
}

// LoadSettings loads configuration once using the documented lookup order.
// Lookup order (first found wins):
// 1) ~/.config/warden/config.yaml
// 2) /etc/warden/config.yaml
// 3) ./config.yaml (lowest priority; allows repo-local overrides if desired)
// WARDEN_* environment variables are applied on top of whichever file loaded.
func LoadSettings() (Settings, error) {
	settingsOnce.Do(func() {
		settings, settingsErr = loadSettings()
	})
	return settings, settingsErr
}

func loadSettings() (Settings, error) {
	var s Settings

	dir, err := ConfigDir()
	if err != nil {
		return Settings{}, err
	}

	paths := []string{
		filepath.Join(dir, "config.yaml"),
		filepath.Join(string(os.PathSeparator), "etc", "warden", "config.yaml"),
		"config.yaml",
	}
	for _, p := range paths {
		loaded, loadErr := loadSettingsFile(p)
		if loadErr == nil {
			s = loaded
			break
		}
		if !errors.Is(loadErr, os.ErrNotExist) {
			return Settings{}, loadErr
		}
	}

	if err := env.Parse(&s); err != nil {
		return Settings{}, err
	}
	return s, nil
}

func loadSettingsFile(path string) (Settings, error) {
	b, err := os.ReadFile(path) //nolint:gosec // G304: fixed config lookup paths
	if err != nil {
		return Settings{}, err
	}

	var s Settings
	if err := yaml.Unmarshal(b, &s); err != nil {
		return Settings{}, err
	}
	return s, nil
}
