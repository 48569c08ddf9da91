package deps

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

// ResolveExecutor reports the capture executor livecap will run.
//
// A command containing a path separator is used as-is. A bare name prefers a
// binary sitting next to the livecap executable (the sidecar layout release
// bundles ship with) and falls back to PATH.
func ResolveExecutor(command string) Status {
	self, err := os.Executable()
	if err != nil {
		self = ""
	} else if resolved, evalErr := filepath.EvalSymlinks(self); evalErr == nil {
		self = resolved
	}
	return resolveExecutor(command, self)
}

func resolveExecutor(command, selfPath string) Status {
	result := Status{
		Name:        "Capture executor",
		Description: "Records live streams to disk",
	}
	command = strings.TrimSpace(command)
	if command == "" {
		result.Detail = "command not configured"
		return result
	}

	if strings.ContainsRune(command, os.PathSeparator) || strings.Contains(command, "/") {
		result.Command = command
		info, err := os.Stat(command)
		switch {
		case err != nil:
			result.Detail = fmt.Sprintf("binary %q not found", command)
		case !isExecutable(info):
			result.Detail = fmt.Sprintf("%q is not executable", command)
		default:
			result.Available = true
		}
		return result
	}

	if candidate, ok := sidecarCandidate(selfPath, command); ok {
		if info, err := os.Stat(candidate); err == nil && isExecutable(info) {
			result.Command = candidate
			result.Available = true
			return result
		}
	}

	if resolved, err := exec.LookPath(command); err == nil {
		result.Command = resolved
		result.Available = true
		return result
	}

	result.Command = command
	result.Detail = fmt.Sprintf("binary %q not found next to livecap or on PATH", command)
	return result
}

func sidecarCandidate(selfPath, name string) (string, bool) {
	if selfPath == "" {
		return "", false
	}
	if runtime.GOOS == "windows" && !strings.HasSuffix(strings.ToLower(name), ".exe") {
		name += ".exe"
	}
	return filepath.Join(filepath.Dir(selfPath), name), true
}

func isExecutable(info os.FileInfo) bool {
	if info == nil || info.IsDir() {
		return false
	}
	if runtime.GOOS == "windows" {
		return true
	}
	return info.Mode().Perm()&0o111 != 0
}
