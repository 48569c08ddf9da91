package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeCapture()
	c.normalizeDispatch()
	if err := c.normalizeHistory(); err != nil {
		return err
	}
	c.normalizeAPI()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.RegistryPath, err = expandPath(strings.TrimSpace(c.Paths.RegistryPath)); err != nil {
		return fmt.Errorf("paths.registry_path: %w", err)
	}
	if c.Paths.LockDir, err = expandPath(strings.TrimSpace(c.Paths.LockDir)); err != nil {
		return fmt.Errorf("paths.lock_dir: %w", err)
	}
	if c.Paths.OutputDir, err = expandPath(strings.TrimSpace(c.Paths.OutputDir)); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeCapture() {
	c.Capture.Executor = strings.TrimSpace(c.Capture.Executor)
	if c.Capture.Executor == "" {
		c.Capture.Executor = defaultExecutor
	}
	// Only explicit paths are expanded; bare names are resolved at startup.
	if strings.ContainsRune(c.Capture.Executor, os.PathSeparator) || strings.HasPrefix(c.Capture.Executor, "~") {
		if expanded, err := expandPath(c.Capture.Executor); err == nil {
			c.Capture.Executor = expanded
		}
	}
	if len(c.Capture.Args) == 0 {
		c.Capture.Args = DefaultCaptureArgs()
	}
	c.Capture.OutputExtension = strings.TrimPrefix(strings.TrimSpace(c.Capture.OutputExtension), ".")
	if c.Capture.OutputExtension == "" {
		c.Capture.OutputExtension = defaultOutputExtension
	}
	if c.Capture.SettleDelayMS < 0 {
		c.Capture.SettleDelayMS = 0
	}
}

func (c *Config) normalizeDispatch() {
	if c.Dispatch.PollIntervalMS <= 0 {
		c.Dispatch.PollIntervalMS = defaultPollIntervalMS
	}
	if c.Dispatch.StaggerDelayMS < 0 {
		c.Dispatch.StaggerDelayMS = 0
	}
	if c.Dispatch.MaxConcurrentJobs < 0 {
		c.Dispatch.MaxConcurrentJobs = 0
	}
}

func (c *Config) normalizeHistory() error {
	c.History.Path = strings.TrimSpace(c.History.Path)
	if c.History.Path == "" {
		c.History.Path = filepath.Join(c.Paths.LogDir, defaultHistoryFile)
		return nil
	}
	var err error
	if c.History.Path, err = expandPath(c.History.Path); err != nil {
		return fmt.Errorf("history.path: %w", err)
	}
	return nil
}

func (c *Config) normalizeAPI() {
	c.API.Bind = strings.TrimSpace(c.API.Bind)
	c.API.Token = strings.TrimSpace(c.API.Token)
	if c.API.Token == "" {
		if value, ok := os.LookupEnv("LIVECAP_API_TOKEN"); ok {
			c.API.Token = strings.TrimSpace(value)
		}
	}
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
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}
