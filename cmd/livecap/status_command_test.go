package main

import (
	"context"
	"strings"
	"testing"
	"time"

	"livecap/internal/capture"
	"livecap/internal/history"
)

func TestStatusShowsMarkersAndHistory(t *testing.T) {
	env := setupCLITestEnv(t, `{}`)

	out, err := runCLI(t, env.configPath, "status")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "not running")
	requireContains(t, out, "No active markers")
	requireContains(t, out, "No captures recorded")

	seedMarkers(t, env.cfg.Paths.LockDir, "alpha")
	journal, err := history.Open(env.cfg.History.Path)
	if err != nil {
		t.Fatalf("history.Open: %v", err)
	}
	job := capture.Job{
		ID:         "job-1",
		SourceID:   "alpha",
		Address:    "rtmp://example.test/live/stream-9_x",
		SessionID:  "9",
		OutputPath: "/videos/alpha/alpha_2026-01-01_00-00-00.mkv",
		StartedAt:  time.Now().Add(-time.Minute),
	}
	if err := journal.Begin(context.Background(), "run-1", job); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	journal.Close()

	out, err = runCLI(t, env.configPath, "status")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "alpha")
	requireContains(t, out, history.OutcomeRunning)
	requireContains(t, out, job.OutputPath)
}

func TestStatusWithoutHistory(t *testing.T) {
	env := setupCLITestEnv(t, `{}`)
	env.cfg.History.Enabled = false
	writeTestConfig(t, env.configPath, env.cfg)

	out, err := runCLI(t, env.configPath, "status")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if strings.Contains(out, renderSectionHeader("Recent captures")) {
		t.Fatalf("history section shown while disabled:\n%s", out)
	}
}
