package textutil

import "testing"

func TestSanitizeFileName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"alice", "alice"},
		{"  bob  ", "bob"},
		{"a/b\\c", "a-b-c"},
		{"what?<now>", "whatnow"},
		{"time: 10*2", "time- 10-2"},
		{"   ", ""},
	}
	for _, tc := range tests {
		if got := SanitizeFileName(tc.in); got != tc.want {
			t.Errorf("SanitizeFileName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestIsSafeSegment(t *testing.T) {
	safe := []string{"alice", "bob_2", "stream-channel", "Ünïcode"}
	for _, name := range safe {
		if !IsSafeSegment(name) {
			t.Errorf("expected %q to be safe", name)
		}
	}
	unsafe := []string{"", ".", "..", ".hidden", "a/b", "a:b", " padded", "tab\there", "q?"}
	for _, name := range unsafe {
		if IsSafeSegment(name) {
			t.Errorf("expected %q to be rejected", name)
		}
	}
}
