package deps

import (
	"os"
	"path/filepath"
	"testing"
)

func writeStub(t *testing.T, path string, mode os.FileMode) {
	t.Helper()
	if err := os.WriteFile(path, []byte("#!/bin/sh\nexit 0\n"), mode); err != nil {
		t.Fatalf("write stub: %v", err)
	}
}

func TestResolveExecutorPrefersSidecar(t *testing.T) {
	tmp := t.TempDir()
	self := filepath.Join(tmp, "livecap")
	writeStub(t, self, 0o755)
	sidecar := filepath.Join(tmp, executableName("ffmpeg"))
	writeStub(t, sidecar, 0o755)

	binDir := filepath.Join(tmp, "bin")
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		t.Fatalf("mkdir bin: %v", err)
	}
	writeStub(t, filepath.Join(binDir, executableName("ffmpeg")), 0o755)
	t.Setenv("PATH", binDir)

	status := resolveExecutor("ffmpeg", self)
	if !status.Available {
		t.Fatalf("expected sidecar to be available, got detail %q", status.Detail)
	}
	if status.Command != sidecar {
		t.Fatalf("expected sidecar %q, got %q", sidecar, status.Command)
	}
}

func TestResolveExecutorPathFallback(t *testing.T) {
	tmp := t.TempDir()
	self := filepath.Join(tmp, "livecap")
	binDir := filepath.Join(tmp, "bin")
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		t.Fatalf("mkdir bin: %v", err)
	}
	onPath := filepath.Join(binDir, executableName("ffmpeg"))
	writeStub(t, onPath, 0o755)
	t.Setenv("PATH", binDir)

	status := resolveExecutor("ffmpeg", self)
	if !status.Available {
		t.Fatalf("expected PATH fallback to be available, got detail %q", status.Detail)
	}
	if status.Command != onPath {
		t.Fatalf("expected %q, got %q", onPath, status.Command)
	}
}

func TestResolveExecutorMissing(t *testing.T) {
	t.Setenv("PATH", t.TempDir())
	status := resolveExecutor("ffmpeg", "")
	if status.Available {
		t.Fatal("expected executor to be unavailable")
	}
	if status.Detail == "" {
		t.Fatal("expected detail for missing executor")
	}
}

func TestResolveExecutorExplicitPath(t *testing.T) {
	tmp := t.TempDir()
	runnable := filepath.Join(tmp, "recorder")
	writeStub(t, runnable, 0o755)
	plain := filepath.Join(tmp, "not-exec")
	writeStub(t, plain, 0o644)

	if status := resolveExecutor(runnable, ""); !status.Available || status.Command != runnable {
		t.Fatalf("expected explicit executable to resolve, got %#v", status)
	}
	if status := resolveExecutor(plain, ""); status.Available {
		t.Fatalf("expected non-executable file to be rejected, got %#v", status)
	}
	if status := resolveExecutor(filepath.Join(tmp, "absent"), ""); status.Available {
		t.Fatalf("expected absent file to be rejected, got %#v", status)
	}
}

func executableName(name string) string {
	if filepath.Separator == '\\' {
		return name + ".exe"
	}
	return name
}
