// Package testsupport holds fixtures shared by package tests.
package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"livecap/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// Pacing delays are zeroed so loops run at full speed and the status API is
// disabled.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.RegistryPath = filepath.Join(base, "sources.json")
	cfgVal.Paths.LockDir = filepath.Join(base, "locks")
	cfgVal.Paths.OutputDir = filepath.Join(base, "videos")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.History.Path = filepath.Join(base, "logs", "history.db")
	cfgVal.Capture.SettleDelayMS = 0
	cfgVal.Dispatch.PollIntervalMS = 0
	cfgVal.Dispatch.StaggerDelayMS = 0
	cfgVal.API.Bind = ""

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithRegistry writes content to the config's registry path.
func WithRegistry(content string) ConfigOption {
	return func(b *configBuilder) {
		WriteRegistry(b.t, b.cfg.Paths.RegistryPath, content)
	}
}

// WithStubExecutor installs a stub capture executor that exits with code and
// points the config at it.
func WithStubExecutor(exitCode int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Capture.Executor = WriteStubExecutor(b.t, filepath.Join(b.baseDir, "bin"), exitCode)
	}
}

// WithDirectories creates the lock, output, and log directories up front.
func WithDirectories() ConfigOption {
	return func(b *configBuilder) {
		if err := b.cfg.EnsureDirectories(); err != nil {
			b.t.Fatalf("ensure directories: %v", err)
		}
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.LockDir)
}

// WriteRegistry writes a registry document, creating parent directories.
func WriteRegistry(t testing.TB, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write registry %s: %v", path, err)
	}
}
