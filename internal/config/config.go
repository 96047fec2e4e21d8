package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"armature/internal/naming"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	StateDir string `toml:"state_dir"`
	LogDir   string `toml:"log_dir"`
	StepsDir   string `toml:"steps_dir"`
	RecipesDir string `toml:"recipes_dir"`
}

// Rule is one naming rule set as written in the config file.
type Rule struct {
	Template        string `toml:"template"`
	SideCenter      string `toml:"side_center"`
	SideLeft        string `toml:"side_left"`
	SideRight       string `toml:"side_right"`
	IndexPadding    int    `toml:"index_padding"`
	DescriptionCase string `toml:"description_case"`
	Extension       string `toml:"extension"`
}

// Naming holds the convention stamped onto new assembly records.
type Naming struct {
	Ctl Rule `toml:"ctl"`
	Jnt Rule `toml:"jnt"`
}

// Build contains orchestrator defaults used when the CLI flags are absent.
type Build struct {
	EndPoint      string   `toml:"end_point"`
	Mode          string   `toml:"mode"`
	Steps         []string `toml:"steps"`
	RecordHistory bool     `toml:"record_history"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for armature.
//
// Configuration sections by subsystem:
//   - Paths: state (history database), logs, custom step scripts, guide recipes
//   - Naming: control and joint naming rules for new assemblies
//   - Build: default end point, finalizer mode, extra custom steps
//   - Logging: log format and level
type Config struct {
	Paths   Paths   `toml:"paths"`
	Naming  Naming  `toml:"naming"`
	Build   Build   `toml:"build"`
	Logging Logging `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("armature.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the state and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StateDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// HistoryPath returns the build history database location.
func (c *Config) HistoryPath() string {
	return filepath.Join(c.Paths.StateDir, historyFileName)
}

// StepPath resolves a custom step path relative to the steps directory.
// Absolute and home-relative paths are only expanded.
func (c *Config) StepPath(path string) string {
	path = strings.TrimSpace(path)
	if path == "" || filepath.IsAbs(path) || strings.HasPrefix(path, "~") || c.Paths.StepsDir == "" {
		if expanded, err := expandPath(path); err == nil {
			return expanded
		}
		return path
	}
	return filepath.Join(c.Paths.StepsDir, path)
}

// Convention returns the naming convention for new assemblies.
func (c *Config) Convention() naming.Convention {
	return naming.Convention{Ctl: c.Naming.Ctl.ruleSet(), Jnt: c.Naming.Jnt.ruleSet()}
}

func (r Rule) ruleSet() naming.RuleSet {
	policy, err := naming.ParseCase(r.DescriptionCase)
	if err != nil {
		policy = naming.CaseUnchanged
	}
	return naming.RuleSet{
		Template:        r.Template,
		SideCenter:      r.SideCenter,
		SideLeft:        r.SideLeft,
		SideRight:       r.SideRight,
		IndexPadding:    r.IndexPadding,
		DescriptionCase: policy,
		Extension:       r.Extension,
	}
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
