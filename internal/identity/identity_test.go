package identity

import (
	"regexp"
	"testing"
)

func TestSerialNumber(t *testing.T) {
	tests := []struct {
		count int
		want  string
	}{
		{0, "TCH-0001"},
		{1, "TCH-0002"},
		{41, "TCH-0042"},
		{998, "TCH-0999"},
		{9998, "TCH-9999"},
		{9999, "TCH-10000"},
	}
	for _, tt := range tests {
		if got := SerialNumber(tt.count); got != tt.want {
			t.Errorf("SerialNumber(%d) = %q, want %q", tt.count, got, tt.want)
		}
	}
}

func TestSerialNumberStrictlyIncreasing(t *testing.T) {
	prev := SerialNumber(0)
	for n := 1; n < 200; n++ {
		cur := SerialNumber(n)
		if !(len(cur) > len(prev) || (len(cur) == len(prev) && cur > prev)) {
			t.Fatalf("serial not increasing at n=%d: %q then %q", n, prev, cur)
		}
		prev = cur
	}
}

func TestNewTokenFormat(t *testing.T) {
	pattern := regexp.MustCompile(`^TCH-[0-9A-Z]{9}$`)
	for i := 0; i < 50; i++ {
		tok, err := NewToken()
		if err != nil {
			t.Fatalf("NewToken() error: %v", err)
		}
		if !pattern.MatchString(tok) {
			t.Fatalf("token %q does not match %v", tok, pattern)
		}
	}
}

func TestNewTokenUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		tok, err := NewToken()
		if err != nil {
			t.Fatalf("NewToken() error: %v", err)
		}
		if seen[tok] {
			t.Fatalf("duplicate token after %d draws: %s", i, tok)
		}
		seen[tok] = true
	}
}
