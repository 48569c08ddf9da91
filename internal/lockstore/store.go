package lockstore

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"livecap/internal/services"
	"livecap/internal/textutil"
)

// ErrHeld reports that a marker already exists for the requested source.
var ErrHeld = errors.New("lock marker already held")

// ErrInvalidID reports a source id that cannot name a marker file.
var ErrInvalidID = errors.New("source id is not usable as a file name")

// MarkerExt is the file extension that identifies lock markers.
const MarkerExt = ".lock"

// Store is the mutual-exclusion namespace keyed by source id.
type Store interface {
	// Exists reports whether a marker is present for id.
	Exists(id string) (bool, error)
	// Acquire creates the marker for id, failing with ErrHeld if one exists.
	Acquire(id string, meta Marker) error
	// Release removes the marker for id. Removing an absent marker succeeds.
	Release(id string) error
	// ClearAll removes every marker and returns how many were removed.
	ClearAll() (int, error)
	// List returns the current markers ordered by id.
	List() ([]Marker, error)
}

// Marker describes who created a lock. Only its existence matters for
// dispatch decisions.
type Marker struct {
	ID         string    `json:"id"`
	PID        int       `json:"pid,omitempty"`
	RunID      string    `json:"run_id,omitempty"`
	AcquiredAt time.Time `json:"acquired_at"`
	Hostname   string    `json:"hostname,omitempty"`
	Address    string    `json:"address,omitempty"`
}

// ValidateID rejects ids that are not a single safe path segment. The error
// carries ErrLockStore so callers treat it as a per-source failure.
func ValidateID(id string) error {
	if textutil.IsSafeSegment(id) {
		return nil
	}
	return services.Wrap(services.ErrLockStore, component, "validate id", fmt.Sprintf("%q", id), ErrInvalidID)
}

// ManualClearHint tells an operator how to remove markers by hand. The
// orchestrator holds the lock directory whenever this is logged, so the
// command carries --force.
func ManualClearHint(ids ...string) string {
	cmd := "livecap locks clear --force"
	if len(ids) > 0 {
		cmd += " " + strings.Join(ids, " ")
	}
	return "run '" + cmd + "' or restart livecap"
}

// NewMarker fills a marker for the current process.
func NewMarker(id, address, runID string, now time.Time) Marker {
	host, _ := os.Hostname()
	return Marker{
		ID:         id,
		PID:        os.Getpid(),
		RunID:      runID,
		AcquiredAt: now.UTC(),
		Hostname:   host,
		Address:    address,
	}
}

// Age returns how long the marker has existed relative to now.
func (m Marker) Age(now time.Time) time.Duration {
	if m.AcquiredAt.IsZero() {
		return 0
	}
	return now.Sub(m.AcquiredAt)
}
