// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/muesli/termenv"
	"golang.org/x/term"

	"github.com/bureau-foundation/molt/lib/task"
)

// maxErrorWidth bounds the error column so one long wrapped error does
// not push the table off the screen.
const maxErrorWidth = 100

type summaryStyles struct {
	header    lipgloss.Style
	name      lipgloss.Style
	succeeded lipgloss.Style
	failed    lipgloss.Style
	cancelled lipgloss.Style
	faint     lipgloss.Style
}

// newSummaryStyles renders with colour only when w is a terminal.
func newSummaryStyles(w io.Writer) summaryStyles {
	renderer := lipgloss.NewRenderer(w)
	if file, ok := w.(*os.File); !ok || !term.IsTerminal(int(file.Fd())) {
		renderer.SetColorProfile(termenv.Ascii)
	}
	return summaryStyles{
		header:    renderer.NewStyle().Bold(true),
		name:      renderer.NewStyle().Foreground(lipgloss.Color("252")),
		succeeded: renderer.NewStyle().Foreground(lipgloss.Color("78")),
		failed:    renderer.NewStyle().Foreground(lipgloss.Color("203")).Bold(true),
		cancelled: renderer.NewStyle().Foreground(lipgloss.Color("214")),
		faint:     renderer.NewStyle().Foreground(lipgloss.Color("243")),
	}
}

func (s summaryStyles) status(status task.Status) lipgloss.Style {
	switch status {
	case task.StatusSucceeded:
		return s.succeeded
	case task.StatusFailed:
		return s.failed
	default:
		return s.cancelled
	}
}

// writeSummary prints one row per dispatched task followed by the
// names that matched no task.
func writeSummary(w io.Writer, report *task.Report) {
	styles := newSummaryStyles(w)

	rows := make([][]string, 0, len(report.Results))
	for _, result := range report.Results {
		message := ""
		if result.Err != nil {
			message = ansi.Truncate(firstLine(result.Err.Error()), maxErrorWidth, "…")
		}
		rows = append(rows, []string{
			styles.name.Render(result.Task),
			styles.status(result.Status).Render(result.Status.String()),
			styles.faint.Render(formatDuration(result.Duration)),
			message,
		})
	}

	if len(rows) > 0 {
		header := []string{
			styles.header.Render("TASK"),
			styles.header.Render("STATUS"),
			styles.header.Render("TIME"),
			styles.header.Render("ERROR"),
		}
		widths := columnWidths(append([][]string{header}, rows...))
		writeRow(w, header, widths)
		for _, row := range rows {
			writeRow(w, row, widths)
		}
	}

	for _, missing := range report.NotFound {
		line := fmt.Sprintf("no task named %q", missing.Name)
		if missing.Suggestion != "" {
			line += fmt.Sprintf(" (did you mean %q?)", missing.Suggestion)
		}
		fmt.Fprintln(w, styles.faint.Render(line))
	}
}

// columnWidths measures printable width, ignoring escape sequences
// added by styling.
func columnWidths(rows [][]string) []int {
	widths := make([]int, len(rows[0]))
	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], ansi.StringWidth(cell))
		}
	}
	return widths
}

func writeRow(w io.Writer, row []string, widths []int) {
	var line strings.Builder
	for i, cell := range row {
		line.WriteString(cell)
		if i == len(row)-1 {
			break
		}
		line.WriteString(strings.Repeat(" ", widths[i]-ansi.StringWidth(cell)+2))
	}
	fmt.Fprintln(w, strings.TrimRight(line.String(), " "))
}

func formatDuration(d time.Duration) string {
	switch {
	case d < time.Millisecond:
		return d.String()
	case d < time.Second:
		return d.Round(time.Millisecond).String()
	default:
		return d.Round(10 * time.Millisecond).String()
	}
}

func firstLine(text string) string {
	line, _, _ := strings.Cut(text, "\n")
	return line
}
