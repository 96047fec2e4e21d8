package testsupport

import (
	"path/filepath"
	"testing"

	"armature/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.StepsDir = filepath.Join(base, "steps")

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	if err := builder.cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return builder.cfg
}

// WithEndPoint overrides the default build end point.
func WithEndPoint(phase string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Build.EndPoint = phase
	}
}

// WithMode overrides the default finalizer mode.
func WithMode(mode string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Build.Mode = mode
	}
}

// WithoutHistory disables build history recording.
func WithoutHistory() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Build.RecordHistory = false
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StateDir)
}
