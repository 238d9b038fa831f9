package components_test

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"

	"webtally/internal/ui/components"
)

func TestDuration(t *testing.T) {
	t.Parallel()
	cases := map[int64]string{
		-5:   "0s",
		45:   "45s",
		750:  "12m 30s",
		3900: "1h 05m",
	}
	for in, want := range cases {
		if got := components.Duration(in); got != want {
			t.Fatalf("Duration(%d) = %q, want %q", in, got, want)
		}
	}
}

func TestBarFillsProportionally(t *testing.T) {
	t.Parallel()
	plain := lipgloss.NewStyle()
	bar := components.Bar(50, 100, 10, plain)
	if strings.Count(bar, "█") != 5 || strings.Count(bar, "░") != 5 {
		t.Fatalf("unexpected bar: %q", bar)
	}
	if bar := components.Bar(1, 1000, 10, plain); strings.Count(bar, "█") != 1 {
		t.Fatalf("non-zero value should show one cell: %q", bar)
	}
	if bar := components.Bar(0, 0, 4, plain); bar != "░░░░" {
		t.Fatalf("unexpected empty bar: %q", bar)
	}
}

func TestPaletteOpenWithKeepsPrefill(t *testing.T) {
	t.Parallel()
	p := components.NewPalette()
	p.OpenWith("block:add ")
	if !p.Visible() {
		t.Fatalf("palette should be visible")
	}
	view := p.View()
	if !strings.Contains(view, "block:add <site>") {
		t.Fatalf("expected matching hint in view: %s", view)
	}
	if strings.Contains(view, "focus:start") {
		t.Fatalf("unrelated hint shown while typing args: %s", view)
	}
}
