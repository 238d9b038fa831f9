package hostmatch_test

import (
	"testing"

	"webtally/internal/platform/hostmatch"
)

func TestHost(t *testing.T) {
	t.Parallel()
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"https://m.youtube.com/watch?v=1", "m.youtube.com", true},
		{"HTTP://GitHub.com:443/x", "github.com", true},
		{"docs.google.com/document", "docs.google.com", true},
		{"file:///tmp/a.html", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, ok := hostmatch.Host(tc.in)
		if got != tc.want || ok != tc.ok {
			t.Fatalf("Host(%q) = %q,%t want %q,%t", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}

func TestEitherIsBidirectionalAndWithinIsNot(t *testing.T) {
	t.Parallel()
	if !hostmatch.Either("m.youtube.com", "youtube.com") {
		t.Fatalf("host containing site must match")
	}
	if !hostmatch.Either("youtube.com", "m.youtube.com") {
		t.Fatalf("site containing host must match")
	}
	if hostmatch.Within("youtube.com", "m.youtube.com") {
		t.Fatalf("within must be one-directional")
	}
	if hostmatch.Either("", "youtube.com") || hostmatch.Within("github.com", "") {
		t.Fatalf("empty operands never match")
	}
}
