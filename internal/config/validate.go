package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateCapture(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if err := ensureNonEmpty(map[string]string{
		"paths.registry_path": c.Paths.RegistryPath,
		"paths.lock_dir":      c.Paths.LockDir,
		"paths.output_dir":    c.Paths.OutputDir,
		"paths.log_dir":       c.Paths.LogDir,
	}); err != nil {
		return err
	}
	if filepath.Clean(c.Paths.LockDir) == filepath.Clean(c.Paths.OutputDir) {
		return errors.New("paths.lock_dir and paths.output_dir must be different directories")
	}
	return nil
}

func (c *Config) validateCapture() error {
	if strings.TrimSpace(c.Capture.Executor) == "" {
		return errors.New("capture.executor must be set")
	}
	if !argsContain(c.Capture.Args, InputPlaceholder) {
		return fmt.Errorf("capture.args must contain the %s placeholder", InputPlaceholder)
	}
	if !argsContain(c.Capture.Args, OutputPlaceholder) {
		return fmt.Errorf("capture.args must contain the %s placeholder", OutputPlaceholder)
	}
	if strings.ContainsAny(c.Capture.OutputExtension, `/\`) {
		return fmt.Errorf("capture.output_extension %q must not contain path separators", c.Capture.OutputExtension)
	}
	return nil
}

// argsContain reports whether any argument mentions the placeholder. The capture
// executor substitutes inside arguments too, so "out={output}" counts.
func argsContain(args []string, placeholder string) bool {
	return slices.ContainsFunc(args, func(arg string) bool {
		return strings.Contains(arg, placeholder)
	})
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("logging.level: unsupported value %q (use debug, info, warn, or error)", c.Logging.Level)
	}
}

func ensureNonEmpty(values map[string]string) error {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	for _, key := range keys {
		if strings.TrimSpace(values[key]) == "" {
			return fmt.Errorf("%s must be set", key)
		}
	}
	return nil
}
