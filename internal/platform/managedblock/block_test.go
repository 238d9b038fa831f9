package managedblock_test

import (
	"testing"

	"webtally/internal/platform/managedblock"
)

var hostsBlock = managedblock.Block{Start: "# BEGIN webtally", End: "# END webtally"}

func TestReplaceAppendsThenRewritesInPlace(t *testing.T) {
	t.Parallel()
	original := "127.0.0.1 localhost\n"
	first := hostsBlock.Replace(original, "0.0.0.0 youtube.com")
	want := "127.0.0.1 localhost\n\n# BEGIN webtally\n0.0.0.0 youtube.com\n# END webtally\n"
	if first != want {
		t.Fatalf("unexpected append:\n%q\nwant\n%q", first, want)
	}

	second := hostsBlock.Replace(first, "0.0.0.0 reddit.com")
	content, ok := hostsBlock.Content(second)
	if !ok || content != "0.0.0.0 reddit.com" {
		t.Fatalf("unexpected content %q ok=%t", content, ok)
	}
	if hostsBlock.Replace(second, "0.0.0.0 reddit.com") != second {
		t.Fatalf("replace must be idempotent")
	}
}

func TestRemoveRestoresSurroundingText(t *testing.T) {
	t.Parallel()
	withBlock := hostsBlock.Replace("127.0.0.1 localhost\n", "0.0.0.0 youtube.com")
	if got := hostsBlock.Remove(withBlock); got != "127.0.0.1 localhost\n" {
		t.Fatalf("unexpected remove result: %q", got)
	}
	if got := hostsBlock.Remove("no markers"); got != "no markers" {
		t.Fatalf("remove without markers changed text: %q", got)
	}
	if got := hostsBlock.Remove(hostsBlock.Replace("", "x")); got != "" {
		t.Fatalf("expected empty text, got %q", got)
	}
}
