package registry_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"livecap/internal/registry"
	"livecap/internal/services"
)

func writeRegistry(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write registry: %v", err)
	}
	return path
}

func TestFileReaderJSONKeepsFileOrder(t *testing.T) {
	path := writeRegistry(t, "stream_links.json", `{
  "zed": "http://host/live/stream-7_x.m3u8",
  "alice": "http://host/live/stream-42_abc.m3u8",
  "mike": " rtmp://host/live/mike "
}`)
	got, err := registry.NewFileReader(path).Read(context.Background())
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	want := []registry.Source{
		{ID: "zed", Address: "http://host/live/stream-7_x.m3u8"},
		{ID: "alice", Address: "http://host/live/stream-42_abc.m3u8"},
		{ID: "mike", Address: "rtmp://host/live/mike"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected sources:\n got %+v\nwant %+v", got, want)
	}
}

func TestFileReaderEmptyJSONObject(t *testing.T) {
	path := writeRegistry(t, "empty.json", `{}`)
	got, err := registry.NewFileReader(path).Read(context.Background())
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no sources, got %+v", got)
	}
}

func TestFileReaderTOMLLayouts(t *testing.T) {
	path := writeRegistry(t, "sources.toml", `
carol = "http://host/carol"

[streams.bob]
source = "http://host/stream-5_bob"

[streams.alice]
source = "http://host/stream-42_alice"
`)
	got, err := registry.NewFileReader(path).Read(context.Background())
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	want := []registry.Source{
		{ID: "alice", Address: "http://host/stream-42_alice"},
		{ID: "bob", Address: "http://host/stream-5_bob"},
		{ID: "carol", Address: "http://host/carol"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected sources:\n got %+v\nwant %+v", got, want)
	}
}

func TestFileReaderErrorsAreRegistryErrors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		want    string
	}{
		{"truncated json", "r.json", `{"alice": "http://x"`, "parse"},
		{"array json", "r.json", `["alice"]`, "JSON object"},
		{"non-string address", "r.json", `{"alice": 5}`, "address must be a string"},
		{"trailing data", "r.json", `{"alice": "x"} {}`, "trailing data"},
		{"empty document", "r.json", ``, "empty registry"},
		{"duplicate id", "r.json", `{"alice": "a", "alice": "b"}`, "duplicate id"},
		{"bad toml", "r.toml", `alice = `, "parse"},
		{"toml number", "r.toml", `alice = 3`, "address must be a string"},
		{"toml missing source", "r.toml", "[streams.alice]\nurl = \"x\"\n", "source must be a string"},
		{"toml stray table", "r.toml", "[other]\nx = \"y\"\n", "unexpected table"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			path := writeRegistry(t, tc.file, tc.content)
			_, err := registry.NewFileReader(path).Read(context.Background())
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, services.ErrRegistry) {
				t.Fatalf("expected registry error, got %v", err)
			}
			if !services.IsFatal(err) {
				t.Fatalf("registry errors must be fatal: %v", err)
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected %q in %v", tc.want, err)
			}
		})
	}
}

func TestFileReaderMissingFile(t *testing.T) {
	_, err := registry.NewFileReader(filepath.Join(t.TempDir(), "nope.json")).Read(context.Background())
	if !errors.Is(err, services.ErrRegistry) || !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected registry not-exist error, got %v", err)
	}
}

func TestFileReaderHonoursCancelledContext(t *testing.T) {
	path := writeRegistry(t, "r.json", `{"alice": "a"}`)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := registry.NewFileReader(path).Read(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestStaticReturnsCopy(t *testing.T) {
	static := registry.Static{{ID: "alice", Address: "a"}}
	got, err := static.Read(context.Background())
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	got[0].Address = "mutated"
	if static[0].Address != "a" {
		t.Fatal("Static.Read must not expose its backing slice")
	}
	if _, err := (registry.Static{{ID: "a", Address: "x"}, {ID: "a", Address: "y"}}).Read(context.Background()); !errors.Is(err, services.ErrRegistry) {
		t.Fatalf("expected duplicate ids to be a registry error, got %v", err)
	}
}

func TestFileReaderKeepsPerSourceProblems(t *testing.T) {
	path := writeRegistry(t, "r.json", `{"alice": "http://x/stream-42_a", "bad/id": "http://x", "Bob": "http://b", "bob": "http://b2", "user:1": "http://u", "quiet": "  "}`)
	got, err := registry.NewFileReader(path).Read(context.Background())
	if err != nil {
		t.Fatalf("per-source problems must not fail the read: %v", err)
	}
	var ids []string
	for _, src := range got {
		ids = append(ids, src.ID)
	}
	want := []string{"alice", "bad/id", "Bob", "bob", "user:1", "quiet"}
	if !reflect.DeepEqual(ids, want) {
		t.Fatalf("ids = %v, want %v", ids, want)
	}
}

func TestScreenRejectsEmptyAddressAndCaseCollisions(t *testing.T) {
	in := []registry.Source{
		{ID: "Bob", Address: "http://b"},
		{ID: "alice", Address: "http://a"},
		{ID: "quiet", Address: "   "},
		{ID: "bob", Address: "http://b2"},
		{ID: "bad/id", Address: "http://x"},
	}
	usable, rejected := registry.Screen(in)

	want := []registry.Source{
		{ID: "Bob", Address: "http://b"},
		{ID: "alice", Address: "http://a"},
		{ID: "bad/id", Address: "http://x"},
	}
	if !reflect.DeepEqual(usable, want) {
		t.Fatalf("usable = %+v, want %+v", usable, want)
	}
	if len(rejected) != 2 {
		t.Fatalf("expected 2 rejections, got %+v", rejected)
	}
	if rejected[0].Source.ID != "quiet" || rejected[0].Reason != "empty address" {
		t.Fatalf("unexpected first rejection %+v", rejected[0])
	}
	if rejected[1].Source.ID != "bob" || !strings.Contains(rejected[1].Reason, `"Bob"`) {
		t.Fatalf("unexpected second rejection %+v", rejected[1])
	}
}
