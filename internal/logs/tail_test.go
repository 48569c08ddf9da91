package logs_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"livecap/internal/logs"
)

func writeLines(t *testing.T, path string, lines ...string) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	for _, line := range lines {
		if _, err := f.WriteString(line + "\n"); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
}

func TestLastReturnsTrailingLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "livecap-1.log")
	writeLines(t, path, "one", "two", "three", "four")

	lines, offset, err := logs.Last(path, 2)
	if err != nil {
		t.Fatalf("Last: %v", err)
	}
	if strings.Join(lines, ",") != "three,four" {
		t.Fatalf("unexpected lines %v", lines)
	}
	info, _ := os.Stat(path)
	if offset != info.Size() {
		t.Fatalf("offset = %d, want %d", offset, info.Size())
	}

	lines, _, err = logs.Last(path, 10)
	if err != nil || len(lines) != 4 || lines[0] != "one" {
		t.Fatalf("Last(10) = %v, %v", lines, err)
	}

	lines, offset, err = logs.Last(filepath.Join(t.TempDir(), "missing.log"), 5)
	if err != nil || len(lines) != 0 || offset != 0 {
		t.Fatalf("missing file: %v %d %v", lines, offset, err)
	}
}

func TestFollowEmitsAppendedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "livecap-1.log")
	writeLines(t, path, "old")
	_, offset, err := logs.Last(path, 0)
	if err != nil {
		t.Fatalf("Last: %v", err)
	}

	var mu sync.Mutex
	var got []string
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- logs.Follow(ctx, path, offset, 10*time.Millisecond, func(line string) {
			mu.Lock()
			got = append(got, line)
			mu.Unlock()
		})
	}()

	writeLines(t, path, "new-1", "new-2")
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		mu.Lock()
		n := len(got)
		mu.Unlock()
		if n >= 2 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Follow: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if strings.Join(got, ",") != "new-1,new-2" {
		t.Fatalf("followed lines = %v", got)
	}
}

func TestCurrentPathResolvesPointer(t *testing.T) {
	dir := t.TempDir()
	if _, err := logs.CurrentPath(dir); err == nil {
		t.Fatal("expected error without a log pointer")
	}

	target := filepath.Join(dir, "livecap-20260101T000000.000Z.log")
	writeLines(t, target, "hello")
	if err := os.Symlink(target, filepath.Join(dir, logs.CurrentLogName)); err != nil {
		t.Fatalf("symlink: %v", err)
	}
	got, err := logs.CurrentPath(dir)
	if err != nil {
		t.Fatalf("CurrentPath: %v", err)
	}
	want, _ := filepath.EvalSymlinks(target)
	if got != want {
		t.Fatalf("CurrentPath = %q, want %q", got, want)
	}
}
