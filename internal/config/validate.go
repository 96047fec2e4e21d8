package config

import (
	"errors"
	"fmt"
	"slices"

	"armature/internal/naming"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateNaming(); err != nil {
		return err
	}
	if err := c.validateBuild(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateNaming() error {
	sections := []struct {
		name string
		rule Rule
	}{{"naming.ctl", c.Naming.Ctl}, {"naming.jnt", c.Naming.Jnt}}
	for _, s := range sections {
		section, rule := s.name, s.rule
		if err := naming.ValidateRule(rule.Template); err != nil {
			return fmt.Errorf("%s.template: %w", section, err)
		}
		if rule.IndexPadding < 0 || rule.IndexPadding > 8 {
			return fmt.Errorf("%s.index_padding must be between 0 and 8", section)
		}
		if _, err := naming.ParseCase(rule.DescriptionCase); err != nil {
			return fmt.Errorf("%s.description_case: %w", section, err)
		}
	}
	return nil
}

func (c *Config) validateBuild() error {
	if !slices.Contains(endPoints, c.Build.EndPoint) {
		return fmt.Errorf("build.end_point must be one of %v, got %q", endPoints, c.Build.EndPoint)
	}
	if !slices.Contains(buildModes, c.Build.Mode) {
		return fmt.Errorf("build.mode must be one of %v, got %q", buildModes, c.Build.Mode)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
		return nil
	}
	return errors.New("logging.level must be one of debug, info, warn, error")
}
