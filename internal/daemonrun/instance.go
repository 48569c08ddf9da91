package daemonrun

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gofrs/flock"
)

// InstanceLockName is the advisory lock file inside lock_dir. It does not end
// in .lock so marker maintenance never touches it.
const InstanceLockName = ".instance.flock"

// PIDFileName is written into log_dir while the orchestrator runs.
const PIDFileName = "livecap.pid"

// ErrInstanceRunning reports that another orchestrator holds the lock namespace.
var ErrInstanceRunning = errors.New("another livecap instance is using this lock directory")

// Instance is the process-wide lock over a lock namespace. Holding it is what
// makes every marker found at startup stale.
type Instance struct {
	path string
	lock *flock.Flock
}

// AcquireInstance takes the instance lock for lockDir without blocking.
func AcquireInstance(lockDir string) (*Instance, error) {
	if err := os.MkdirAll(lockDir, 0o755); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}
	path := filepath.Join(lockDir, InstanceLockName)
	lock := flock.New(path)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire instance lock: %w", err)
	}
	if !ok {
		return nil, ErrInstanceRunning
	}
	return &Instance{path: path, lock: lock}, nil
}

// Path returns the lock file location.
func (i *Instance) Path() string {
	return i.path
}

// Release drops the instance lock.
func (i *Instance) Release() error {
	if i == nil || i.lock == nil {
		return nil
	}
	return i.lock.Unlock()
}

// InstanceRunning reports whether some process currently holds the instance
// lock for lockDir.
func InstanceRunning(lockDir string) (bool, error) {
	path := filepath.Join(lockDir, InstanceLockName)
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	probe := flock.New(path)
	ok, err := probe.TryLock()
	if err != nil {
		return false, err
	}
	if ok {
		_ = probe.Unlock()
		return false, nil
	}
	return true, nil
}

// ReadPID returns the pid recorded in log_dir, or 0 when absent.
func ReadPID(logDir string) (int, error) {
	data, err := os.ReadFile(filepath.Join(logDir, PIDFileName))
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("parse pid file: %w", err)
	}
	return pid, nil
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}
