package api

import (
	"time"

	"livecap/internal/history"
	"livecap/internal/lockstore"
)

// HealthResponse is returned by GET /api/health.
type HealthResponse struct {
	Status        string    `json:"status"`
	RunID         string    `json:"run_id,omitempty"`
	PID           int       `json:"pid"`
	StartedAt     time.Time `json:"started_at"`
	UptimeSeconds int64     `json:"uptime_seconds"`
	ActiveJobs    []string  `json:"active_jobs"`
}

// LockView is a marker with its age.
type LockView struct {
	lockstore.Marker
	AgeSeconds int64 `json:"age_seconds"`
}

// LocksResponse is returned by GET /api/locks.
type LocksResponse struct {
	Locks []LockView `json:"locks"`
}

// CapturesResponse is returned by GET /api/captures.
type CapturesResponse struct {
	Captures []history.Entry `json:"captures"`
}

// ErrorResponse carries a failure message.
type ErrorResponse struct {
	Error string `json:"error"`
}
