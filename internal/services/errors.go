package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrSetup marks failures preparing the runtime (directories, executor,
	// instance lock). Fatal before the poll loop starts.
	ErrSetup = errors.New("setup error")
	// ErrRegistry marks source registry read, parse, or validation failures.
	// Fatal to the whole process.
	ErrRegistry = errors.New("registry error")
	// ErrLockStore marks acquire, release, or clear failures on lock markers.
	ErrLockStore = errors.New("lock store error")
	// ErrCapture marks capture executor spawn failures and non-zero exits.
	ErrCapture = errors.New("capture error")
)

// Wrap builds an error message that includes component context while tagging
// it with the provided marker for later classification. The marker should be
// one of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrCapture
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// IsFatal reports whether err belongs to a class that terminates the process.
// Per-source errors (lock store, capture) never are.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrSetup) || errors.Is(err, ErrRegistry)
}

// Kind returns a short label for the error class, used in log fields and the
// capture history.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrSetup):
		return "setup"
	case errors.Is(err, ErrRegistry):
		return "registry"
	case errors.Is(err, ErrLockStore):
		return "lock_store"
	case errors.Is(err, ErrCapture):
		return "capture"
	default:
		return "unknown"
	}
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
