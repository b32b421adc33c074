package main

import "testing"

func TestDecodeWatchKey(t *testing.T) {
	tests := []struct {
		name string
		seq  []byte
		key  string
		quit bool
	}{
		{"q", []byte{'q'}, "", true},
		{"Q", []byte{'Q'}, "", true},
		{"ctrl-c", []byte{0x03}, "", true},
		{"bare escape", []byte{0x1b}, "", true},
		{"space", []byte{' '}, " ", false},
		{"arrow right", []byte{0x1b, '[', 'C'}, "ArrowRight", false},
		{"arrow left", []byte{0x1b, '[', 'D'}, "ArrowLeft", false},
		{"arrow up", []byte{0x1b, '[', 'A'}, "ArrowUp", false},
		{"arrow down", []byte{0x1b, '[', 'B'}, "ArrowDown", false},
		{"ss3 arrow", []byte{0x1b, 'O', 'C'}, "ArrowRight", false},
		{"home", []byte{0x1b, '[', 'H'}, "Home", false},
		{"end", []byte{0x1b, '[', 'F'}, "End", false},
		{"vt home", []byte{0x1b, '[', '1', '~'}, "Home", false},
		{"vt end", []byte{0x1b, '[', '4', '~'}, "End", false},
		{"unknown letter", []byte{'x'}, "", false},
		{"unknown sequence", []byte{0x1b, '[', 'Z'}, "", false},
		{"truncated sequence", []byte{0x1b, '['}, "", false},
		{"empty", nil, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, quit := decodeWatchKey(tt.seq)
			if key != tt.key || quit != tt.quit {
				t.Fatalf("decodeWatchKey(%v) = (%q, %v), want (%q, %v)", tt.seq, key, quit, tt.key, tt.quit)
			}
		})
	}
}
