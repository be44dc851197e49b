package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"github.com/dxr-dev/dxr/internal/fileutil"
)

type RunSummary struct {
	Mode        string   `json:"mode"`
	Tree        string   `json:"tree"`
	SourceDir   string   `json:"source_dir,omitempty"`
	OutputDir   string   `json:"output_dir,omitempty"`
	Files       int      `json:"files"`
	Indexed     int      `json:"indexed"`
	Unchanged   int      `json:"unchanged"`
	Skipped     int      `json:"skipped"`
	Deleted     int      `json:"deleted"`
	Rendered    int      `json:"rendered"`
	Failed      int      `json:"failed"`
	DurationMS  int64    `json:"duration_ms"`
	FailedFiles []string `json:"failed_files,omitempty"`
}

// Styles colors the human-readable summary.
type Styles struct {
	Title   lipgloss.Style
	Label   lipgloss.Style
	Value   lipgloss.Style
	Success lipgloss.Style
	Failure lipgloss.Style
	Dim     lipgloss.Style
}

func NewStyles(colorEnabled bool) *Styles {
	if !colorEnabled {
		plain := lipgloss.NewStyle()
		return &Styles{Title: plain, Label: plain, Value: plain, Success: plain, Failure: plain, Dim: plain}
	}
	return &Styles{
		Title:   lipgloss.NewStyle().Bold(true),
		Label:   lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
		Value:   lipgloss.NewStyle(),
		Success: lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true),
		Failure: lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
		Dim:     lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
	}
}

// IsColorEnabled reports whether w is a terminal and NO_COLOR is unset.
func IsColorEnabled(w io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if f, ok := w.(*os.File); ok {
		return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return false
}

func PrintRunSummary(w io.Writer, summary RunSummary, asJSON bool) error {
	if asJSON {
		return fileutil.PrintJSON(w, summary)
	}

	st := NewStyles(IsColorEnabled(w))
	status := st.Success.Render("ok")
	if summary.Failed > 0 {
		status = st.Failure.Render("failed")
	}
	fmt.Fprintf(w, "%s %s %s %s\n",
		st.Title.Render(summary.Mode),
		st.Value.Render(summary.Tree),
		status,
		st.Dim.Render(fmt.Sprintf("(%dms)", summary.DurationMS)))

	if summary.OutputDir != "" {
		fmt.Fprintf(w, "%s %s\n", st.Label.Render("output:"), summary.OutputDir)
	}

	var counts []string
	add := func(label string, n int) {
		counts = append(counts, st.Label.Render(label+"=")+st.Value.Render(fmt.Sprint(n)))
	}
	add("files", summary.Files)
	switch summary.Mode {
	case "index":
		add("indexed", summary.Indexed)
		add("unchanged", summary.Unchanged)
		add("skipped", summary.Skipped)
		add("deleted", summary.Deleted)
	case "render":
		add("rendered", summary.Rendered)
	default:
		add("indexed", summary.Indexed)
		add("unchanged", summary.Unchanged)
		add("rendered", summary.Rendered)
	}
	add("failed", summary.Failed)
	fmt.Fprintln(w, strings.Join(counts, " "))

	if len(summary.FailedFiles) > 0 {
		fmt.Fprintf(w, "%s %s\n",
			st.Failure.Render(fmt.Sprintf("failed files (%d):", len(summary.FailedFiles))),
			SummarizePaths(summary.FailedFiles, 8))
	}
	return nil
}

func SummarizePaths(paths []string, max int) string {
	if len(paths) <= max {
		return strings.Join(paths, ", ")
	}
	return fmt.Sprintf("%s ... (+%d more)", strings.Join(paths[:max], ", "), len(paths)-max)
}
