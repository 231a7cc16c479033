// File: cmd/summary.go
package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/xkilldash9x/dashverify/internal/verify"
)

// summaryWriter prints one line per script run. Colours are only emitted when
// out is a terminal that supports them.
type summaryWriter struct {
	out  io.Writer
	pass lipgloss.Style
	fail lipgloss.Style
	dim  lipgloss.Style
}

func newSummaryWriter(out io.Writer) *summaryWriter {
	r := lipgloss.NewRenderer(out)
	return &summaryWriter{
		out: out,
		pass: r.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#008000", Dark: "#55FF55"}).
			Bold(true),
		fail: r.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#D00000", Dark: "#FF5555"}).
			Bold(true),
		dim: r.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#666666", Dark: "#888888"}),
	}
}

func (w *summaryWriter) write(outcomes []outcome) {
	for _, o := range outcomes {
		w.line(o)
	}
}

func (w *summaryWriter) line(o outcome) {
	elapsed := "-"
	var written []string
	if o.result != nil {
		elapsed = o.result.Duration().Round(10 * time.Millisecond).String()
		written = o.result.Artifacts
	}

	if o.err == nil {
		fmt.Fprintf(w.out, "%s  %-18s %8s  %s\n", w.pass.Render("PASS"), o.script.Name, elapsed, lastOf(written))
		return
	}

	fmt.Fprintf(w.out, "%s  %-18s %8s  %v\n", w.fail.Render("FAIL"), o.script.Name, elapsed, o.err)
	if o.result != nil && o.result.Status == verify.StatusFailed && len(written) > 0 {
		fmt.Fprintln(w.out, "      "+w.dim.Render("evidence: "+lastOf(written)))
	}
}

func lastOf(paths []string) string {
	if len(paths) == 0 {
		return ""
	}
	return paths[len(paths)-1]
}
