package services_test

import (
	"errors"
	"strings"
	"testing"

	"livecap/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrCapture, "capture", "run", "executor exited", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrCapture) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"capture", "run", "executor exited"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapWithoutMarkerDefaultsToCapture(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrCapture) {
		t.Fatalf("expected capture marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("expected default detail, got %q", err.Error())
	}
}

func TestIsFatal(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		fatal bool
	}{
		{"nil", nil, false},
		{"setup", services.Wrap(services.ErrSetup, "daemon", "mkdir", "", errors.New("denied")), true},
		{"registry", services.Wrap(services.ErrRegistry, "registry", "parse", "", errors.New("bad json")), true},
		{"lock store", services.Wrap(services.ErrLockStore, "lockstore", "acquire", "", errors.New("disk full")), false},
		{"capture", services.Wrap(services.ErrCapture, "capture", "run", "", errors.New("exit 1")), false},
		{"plain", errors.New("other"), false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := services.IsFatal(tc.err); got != tc.fatal {
				t.Fatalf("IsFatal(%v) = %v, want %v", tc.err, got, tc.fatal)
			}
		})
	}
}

func TestKind(t *testing.T) {
	if kind := services.Kind(services.Wrap(services.ErrLockStore, "lockstore", "release", "", nil)); kind != "lock_store" {
		t.Fatalf("unexpected kind %q", kind)
	}
	if kind := services.Kind(errors.New("x")); kind != "unknown" {
		t.Fatalf("unexpected kind %q", kind)
	}
	if kind := services.Kind(nil); kind != "" {
		t.Fatalf("expected empty kind for nil, got %q", kind)
	}
}
