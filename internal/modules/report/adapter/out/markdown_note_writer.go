package out

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"webtally/internal/modules/report/domain"
	reportout "webtally/internal/modules/report/port/out"
	"webtally/internal/platform/managedblock"
	"webtally/internal/platform/markdown"
)

var reportBlock = managedblock.Block{
	Start: "<!-- webtally:report:start -->",
	End:   "<!-- webtally:report:end -->",
}

// MarkdownNoteWriter keeps one note per report day. Frontmatter keys and the
// managed block are regenerated; anything else the user wrote is preserved.
type MarkdownNoteWriter struct {
	root string
}

func NewMarkdownNoteWriter(root string) reportout.NoteWriter {
	return &MarkdownNoteWriter{root: root}
}

func (w *MarkdownNoteWriter) Path(date string) string {
	parts := strings.SplitN(date, "-", 3)
	if len(parts) != 3 {
		return filepath.Join(w.root, date+".md")
	}
	return filepath.Join(w.root, parts[0], parts[1], parts[2]+".md")
}

func (w *MarkdownNoteWriter) Write(_ context.Context, report domain.DailyReport) (string, error) {
	path := w.Path(report.Date)
	note := markdown.Note{Meta: map[string]any{}, Body: "# Report " + report.Date + "\n"}
	raw, err := os.ReadFile(path)
	switch {
	case err == nil:
		note, err = markdown.Parse(string(raw))
		if err != nil {
			return "", fmt.Errorf("parse report note: %w", err)
		}
	case !errors.Is(err, os.ErrNotExist):
		return "", fmt.Errorf("read report note: %w", err)
	}

	note.Meta["date"] = report.Date
	note.Meta["total_time"] = report.TotalTime
	note.Meta["productive_time"] = report.ProductiveTime
	note.Meta["distracting_time"] = report.DistractingTime
	note.Meta["productivity_score"] = report.ProductivityScore
	note.Meta["generated_at"] = report.GeneratedAt.Format("2006-01-02T15:04:05Z07:00")
	note.Body = reportBlock.Replace(note.Body, renderSummary(report))

	content, err := note.Render()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create report dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("write report note: %w", err)
	}
	return path, nil
}

func renderSummary(report domain.DailyReport) string {
	b := strings.Builder{}
	fmt.Fprintf(&b, "Total: %s  \n", domain.FormatDuration(report.TotalTime))
	fmt.Fprintf(&b, "Productive: %s  \n", domain.FormatDuration(report.ProductiveTime))
	fmt.Fprintf(&b, "Distracting: %s  \n", domain.FormatDuration(report.DistractingTime))
	fmt.Fprintf(&b, "Score: %d%%\n", report.ProductivityScore)
	if len(report.TopSites) == 0 {
		return strings.TrimRight(b.String(), "\n")
	}
	b.WriteString("\n| Site | Time | Category |\n|---|---|---|\n")
	for _, site := range report.TopSites {
		fmt.Fprintf(&b, "| %s | %s | %s |\n", site.Domain, domain.FormatDuration(site.TimeSpent), site.Category)
	}
	return strings.TrimRight(b.String(), "\n")
}
