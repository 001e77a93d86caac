package whitelist

import (
	"testing"

	"go.uber.org/zap"
)

func TestIsWhitelisted(t *testing.T) {
	c := NewChecker([]string{" Partner.Example ", "", "corp.example."}, zap.NewNop())

	tests := []struct {
		from string
		want bool
	}{
		{"billing@partner.example", true},
		{"BILLING@PARTNER.EXAMPLE", true},
		{"<billing@partner.example>", true},
		{"alerts@mail.corp.example", true},
		{"x@notpartner.example", false},
		{"x@partner.example.evil.com", false},
		{"partner.example", false},
		{"x@", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.from, func(t *testing.T) {
			if got := c.IsWhitelisted(tt.from); got != tt.want {
				t.Errorf("IsWhitelisted(%q) = %v, want %v", tt.from, got, tt.want)
			}
		})
	}
}

func TestEmptyChecker(t *testing.T) {
	if NewChecker(nil, nil).IsWhitelisted("a@b.c") {
		t.Error("an empty checker exempts nobody")
	}
}
