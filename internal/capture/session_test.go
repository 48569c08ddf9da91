package capture

import "testing"

func TestSessionID(t *testing.T) {
	tests := []struct {
		address string
		want    string
	}{
		{"https://cdn.example/live/stream-42_abc/index.m3u8", "42"},
		{"https://cdn.example/stream-7_x/stream-9_y", "7"},
		{"rtmp://host/app/stream-123", UnknownSessionID},
		{"https://cdn.example/stream-_abc", UnknownSessionID},
		{"", UnknownSessionID},
	}
	for _, tc := range tests {
		if got := SessionID(tc.address); got != tc.want {
			t.Errorf("SessionID(%q) = %q, want %q", tc.address, got, tc.want)
		}
	}
}
