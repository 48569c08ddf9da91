package daemonrun

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestAcquireInstanceIsExclusive(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "locks")

	running, err := InstanceRunning(dir)
	if err != nil || running {
		t.Fatalf("InstanceRunning before acquire = %v, %v", running, err)
	}

	first, err := AcquireInstance(dir)
	if err != nil {
		t.Fatalf("AcquireInstance: %v", err)
	}
	if filepath.Base(first.Path()) != InstanceLockName {
		t.Fatalf("unexpected lock path %q", first.Path())
	}

	if _, err := AcquireInstance(dir); !errors.Is(err, ErrInstanceRunning) {
		t.Fatalf("second acquire err = %v, want ErrInstanceRunning", err)
	}
	running, err = InstanceRunning(dir)
	if err != nil || !running {
		t.Fatalf("InstanceRunning while held = %v, %v", running, err)
	}

	if err := first.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}
	running, err = InstanceRunning(dir)
	if err != nil || running {
		t.Fatalf("InstanceRunning after release = %v, %v", running, err)
	}
}

func TestInstanceLockIsNotAMarker(t *testing.T) {
	if filepath.Ext(InstanceLockName) == ".lock" {
		t.Fatalf("instance lock %q would be swept by marker cleanup", InstanceLockName)
	}
}

func TestReadPID(t *testing.T) {
	dir := t.TempDir()
	pid, err := ReadPID(dir)
	if err != nil || pid != 0 {
		t.Fatalf("ReadPID on empty dir = %d, %v", pid, err)
	}

	if err := writePIDFile(filepath.Join(dir, PIDFileName)); err != nil {
		t.Fatalf("writePIDFile: %v", err)
	}
	pid, err = ReadPID(dir)
	if err != nil {
		t.Fatalf("ReadPID: %v", err)
	}
	if pid != os.Getpid() {
		t.Fatalf("ReadPID = %d, want %d", pid, os.Getpid())
	}

	if err := os.WriteFile(filepath.Join(dir, PIDFileName), []byte("nope"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadPID(dir); err == nil {
		t.Fatal("expected parse error for garbage pid file")
	}
}
