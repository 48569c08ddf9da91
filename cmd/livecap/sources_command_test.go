package main

import (
	"testing"
)

func TestSourcesListsRegistry(t *testing.T) {
	env := setupCLITestEnv(t, `{"news": "rtmp://example.test/live/stream-314_hd", "radio": "https://example.test/radio.m3u8"}`)
	seedMarkers(t, env.cfg.Paths.LockDir, "news")

	out, err := runCLI(t, env.configPath, "sources")
	if err != nil {
		t.Fatalf("sources: %v", err)
	}
	requireContains(t, out, "news")
	requireContains(t, out, "314")
	requireContains(t, out, "radio")
	requireContains(t, out, "unknownid")
	requireContains(t, out, "yes")
}

func TestSourcesRejectsInvalidRegistry(t *testing.T) {
	env := setupCLITestEnv(t, `{"a": "rtmp://x", "a": "rtmp://y"}`)
	if _, err := runCLI(t, env.configPath, "sources"); err == nil {
		t.Fatal("expected duplicate ids to be rejected")
	}
}

func TestSourcesReportsUnusableEntries(t *testing.T) {
	env := setupCLITestEnv(t, `{"alice": "rtmp://example.test/stream-42_a", "bad/id": "rtmp://x", "Alice": "rtmp://y", "quiet": ""}`)

	out, err := runCLI(t, env.configPath, "sources")
	if err != nil {
		t.Fatalf("per-source problems must not fail the listing: %v", err)
	}
	requireContains(t, out, "not usable as a file name")
	requireContains(t, out, "differs only by case")
	requireContains(t, out, "empty address")
	requireContains(t, out, "ok")
}
