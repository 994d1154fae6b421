// Package report renders coverage summaries: a terminal table of missing
// line ranges and a self-contained HTML report.
package report

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"covrun/internal/domain"
)

// TermWriter renders the per-file missing-lines table.
type TermWriter struct{}

var (
	highStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#16A34A")).Bold(true)
	midStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#CA8A04")).Bold(true)
	lowStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#DC2626")).Bold(true)
)

func (TermWriter) WriteSummary(w io.Writer, summary domain.Summary) error {
	colorize := colorEnabled(w)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "Name\tStmts\tMiss\tCover\tMissing")
	for _, f := range summary.Files {
		_, _ = fmt.Fprintf(tw, "%s\t%d\t%d\t%s\t%s\n",
			f.File,
			f.Statements(),
			f.Missed(),
			percentCell(f.Percent(), colorize),
			domain.FormatRanges(f.MissingRanges()),
		)
	}
	_, _ = fmt.Fprintf(tw, "TOTAL\t%d\t%d\t%s\t\n",
		summary.Statements(),
		summary.Missed(),
		percentCell(summary.Percent(), colorize),
	)
	return tw.Flush()
}

func percentCell(percent float64, colorize bool) string {
	cell := fmt.Sprintf("%.0f%%", percent)
	if !colorize {
		return cell
	}
	switch {
	case percent >= 90:
		return highStyle.Render(cell)
	case percent >= 50:
		return midStyle.Render(cell)
	default:
		return lowStyle.Render(cell)
	}
}

func colorEnabled(w io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(file.Fd()) || isatty.IsCygwinTerminal(file.Fd())
}
