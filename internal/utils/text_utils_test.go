package utils

import (
	"testing"

	"go.uber.org/zap"
)

func TestProcessText(t *testing.T) {
	tp := NewTextProcessor(zap.NewNop())

	tests := []struct {
		name    string
		in      string
		maxSize int
		want    string
	}{
		{"unchanged", "Hello Alex", 0, "Hello Alex"},
		{"crlf folded", "a\r\nb\rc", 0, "a\nb\nc"},
		{"controls dropped", "pay\x00pal\x1b\tnow", 0, "paypal\tnow"},
		{"invalid utf8 dropped", "caf\xc3\x28e", 0, "caf(e"},
		{"truncated", "abcdefgh", 5, "abcde"},
		{"rune boundary", "naïve", 3, "na"},
		{"within limit", "abc", 5, "abc"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tp.ProcessText(tt.in, tt.maxSize); got != tt.want {
				t.Errorf("ProcessText(%q, %d) = %q, want %q", tt.in, tt.maxSize, got, tt.want)
			}
		})
	}
}
