package preflight

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"livecap/internal/config"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckReadable(t *testing.T) {
	f := filepath.Join(t.TempDir(), "sources.json")
	if err := os.WriteFile(f, []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}
	if r := CheckReadable("registry", f); !r.Passed {
		t.Fatalf("expected readable file to pass: %s", r.Detail)
	}
	if r := CheckReadable("registry", filepath.Dir(f)); r.Passed {
		t.Fatal("expected directory to fail")
	}
	if r := CheckReadable("registry", ""); r.Passed || r.Detail != "not configured" {
		t.Fatalf("unexpected result for blank path: %+v", r)
	}
}

func TestCheckExecutable(t *testing.T) {
	dir := t.TempDir()
	exe := filepath.Join(dir, "ffmpeg")
	if err := os.WriteFile(exe, []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	plain := filepath.Join(dir, "plain")
	if err := os.WriteFile(plain, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if r := CheckExecutable("exec", exe); !r.Passed {
		t.Fatalf("expected executable to pass: %s", r.Detail)
	}
	if os.Geteuid() != 0 {
		if r := CheckExecutable("exec", plain); r.Passed {
			t.Fatal("expected non-executable file to fail")
		}
	}
	if r := CheckExecutable("exec", ""); r.Passed {
		t.Fatal("expected unresolved executor to fail")
	}
}

func TestRunAllReportsFailures(t *testing.T) {
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.LockDir = filepath.Join(base, "locks")
	cfg.Paths.OutputDir = filepath.Join(base, "videos")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.RegistryPath = filepath.Join(base, "sources.json")
	for _, dir := range []string{cfg.Paths.LockDir, cfg.Paths.OutputDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.WriteFile(cfg.Paths.RegistryPath, []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}

	results := RunAll(&cfg, "")
	if len(results) != 5 {
		t.Fatalf("expected 5 checks, got %d", len(results))
	}
	failed := Failures(results)
	if len(failed) != 2 {
		t.Fatalf("expected log dir and executor failures, got %+v", failed)
	}
	summary := Summary(results)
	if !strings.Contains(summary, "Log directory") || !strings.Contains(summary, "Capture executor") {
		t.Fatalf("unexpected summary %q", summary)
	}
	if RunAll(nil, "") != nil {
		t.Fatal("expected nil results for nil config")
	}
}
