package preflight

import (
	"strings"

	"livecap/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes the startup checks for cfg. executor is the resolved
// capture executor path (see deps.ResolveExecutor).
func RunAll(cfg *config.Config, executor string) []Result {
	if cfg == nil {
		return nil
	}
	results := []Result{
		CheckDirectoryAccess("Lock directory", cfg.Paths.LockDir),
		CheckDirectoryAccess("Output directory", cfg.Paths.OutputDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
		CheckReadable("Source registry", cfg.Paths.RegistryPath),
		CheckExecutable("Capture executor", executor),
	}
	return results
}

// Failures returns the checks that did not pass.
func Failures(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	return failed
}

// Summary joins failed checks into a single line for error messages.
func Summary(results []Result) string {
	parts := make([]string, 0, len(results))
	for _, r := range Failures(results) {
		parts = append(parts, r.Name+": "+r.Detail)
	}
	return strings.Join(parts, "; ")
}
