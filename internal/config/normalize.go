package config

import (
	"fmt"
	"strings"

	"armature/internal/naming"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeNaming()
	c.normalizeBuild()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(strings.TrimSpace(c.Paths.StateDir)); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if c.Paths.StepsDir, err = expandPath(strings.TrimSpace(c.Paths.StepsDir)); err != nil {
		return fmt.Errorf("paths.steps_dir: %w", err)
	}
	if c.Paths.RecipesDir, err = expandPath(strings.TrimSpace(c.Paths.RecipesDir)); err != nil {
		return fmt.Errorf("paths.recipes_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeNaming() {
	defaults := naming.DefaultConvention()
	normalizeRule(&c.Naming.Ctl, defaults.Ctl)
	normalizeRule(&c.Naming.Jnt, defaults.Jnt)
}

func normalizeRule(r *Rule, fallback naming.RuleSet) {
	r.Template = strings.TrimSpace(r.Template)
	if r.Template == "" {
		r.Template = fallback.Template
	}
	r.SideCenter = strings.TrimSpace(r.SideCenter)
	r.SideLeft = strings.TrimSpace(r.SideLeft)
	r.SideRight = strings.TrimSpace(r.SideRight)
	r.Extension = strings.TrimSpace(r.Extension)
	r.DescriptionCase = strings.ToLower(strings.TrimSpace(r.DescriptionCase))
	if r.DescriptionCase == "" {
		r.DescriptionCase = string(fallback.DescriptionCase)
	}
}

func (c *Config) normalizeBuild() {
	c.Build.EndPoint = strings.ToLower(strings.TrimSpace(c.Build.EndPoint))
	if c.Build.EndPoint == "" {
		c.Build.EndPoint = defaultEndPoint
	}
	c.Build.Mode = strings.ToLower(strings.TrimSpace(c.Build.Mode))
	if c.Build.Mode == "" {
		c.Build.Mode = defaultMode
	}
	steps := c.Build.Steps[:0]
	for _, step := range c.Build.Steps {
		if step = strings.TrimSpace(step); step != "" {
			steps = append(steps, step)
		}
	}
	c.Build.Steps = steps
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
