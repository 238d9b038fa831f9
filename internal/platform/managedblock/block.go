// Package managedblock rewrites a marker-delimited region of a text file in
// place, leaving everything outside the markers untouched.
package managedblock

import "strings"

type Block struct {
	Start string
	End   string
}

// Replace swaps the region between the markers for content, appending a new
// region when the markers are absent.
func (b Block) Replace(text, content string) string {
	region := b.Start + "\n" + content + "\n" + b.End
	if start, end, ok := b.bounds(text); ok {
		return text[:start] + region + text[end:]
	}
	switch {
	case strings.TrimSpace(text) == "":
		return region + "\n"
	case strings.HasSuffix(text, "\n"):
		return text + "\n" + region + "\n"
	default:
		return text + "\n\n" + region + "\n"
	}
}

// Remove drops the region and its markers.
func (b Block) Remove(text string) string {
	start, end, ok := b.bounds(text)
	if !ok {
		return text
	}
	rest := text[end:]
	rest = strings.TrimPrefix(rest, "\n")
	return strings.TrimRight(text[:start], "\n") + trailing(text[:start]) + rest
}

// Content returns the text between the markers.
func (b Block) Content(text string) (string, bool) {
	start, end, ok := b.bounds(text)
	if !ok {
		return "", false
	}
	inner := text[start+len(b.Start) : end-len(b.End)]
	return strings.Trim(inner, "\n"), true
}

func (b Block) bounds(text string) (int, int, bool) {
	start := strings.Index(text, b.Start)
	if start < 0 {
		return 0, 0, false
	}
	end := strings.Index(text[start:], b.End)
	if end < 0 {
		return 0, 0, false
	}
	return start, start + end + len(b.End), true
}

func trailing(prefix string) string {
	if strings.TrimSpace(prefix) == "" {
		return ""
	}
	return "\n"
}
