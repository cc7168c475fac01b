package commands

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/muesli/termenv"

	"github.com/leapstack-labs/leaphed/internal/state"
	"github.com/leapstack-labs/leaphed/pkg/operator"
	"github.com/leapstack-labs/leaphed/pkg/verify"
)

func newTable(w io.Writer, header table.Row) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(header)
	return t
}

func position(line, column int) string {
	if line <= 0 {
		return ""
	}
	return fmt.Sprintf("%d:%d", line, column)
}

// severityStyles colors severities when w is a terminal that allows color.
type severityStyles struct {
	err, warning lipgloss.Style
}

func newSeverityStyles(w io.Writer) severityStyles {
	r := lipgloss.NewRenderer(w)
	if termenv.EnvNoColor() {
		r.SetColorProfile(termenv.Ascii)
	}
	return severityStyles{
		err:     r.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
		warning: r.NewStyle().Foreground(lipgloss.Color("11")),
	}
}

func (s severityStyles) render(severity string) string {
	if severity == "warning" {
		return s.warning.Render(severity)
	}
	return s.err.Render(severity)
}

func renderDiagnostics(w io.Writer, diags verify.Diagnostics) {
	if len(diags) == 0 {
		return
	}
	styles := newSeverityStyles(w)
	t := newTable(w, table.Row{"Severity", "Library", "Position", "Message"})
	for _, d := range diags {
		t.AppendRow(table.Row{styles.render(d.Severity()), d.Library, position(d.Line, d.Column), d.Message})
	}
	t.Render()
}

func renderRecordedDiagnostics(w io.Writer, diags []state.Diagnostic) {
	if len(diags) == 0 {
		_, _ = fmt.Fprintln(w, "(no diagnostics)")
		return
	}
	styles := newSeverityStyles(w)
	t := newTable(w, table.Row{"Severity", "Library", "Position", "Message"})
	for _, d := range diags {
		t.AppendRow(table.Row{styles.render(d.Severity), d.Library, position(d.Line, d.Column), d.Message})
	}
	t.Render()
}

func renderOperators(w io.Writer, ops []*operator.Operator) {
	t := newTable(w, table.Row{"Operator", "Signature", "Result"})
	for _, op := range ops {
		t.AppendRow(table.Row{op.Name, op.Signature.String(), op.ResultType.Name()})
	}
	t.Render()
	_, _ = fmt.Fprintf(w, "(%d overloads)\n", len(ops))
}

func renderRuns(w io.Writer, runs []*state.Run) {
	if len(runs) == 0 {
		_, _ = fmt.Fprintln(w, "(no runs)")
		return
	}
	t := newTable(w, table.Row{"ID", "Artifact", "Status", "Started", "Duration", "Errors", "Warnings"})
	for _, r := range runs {
		duration := ""
		if r.CompletedAt != nil {
			duration = r.CompletedAt.Sub(r.StartedAt).Round(time.Millisecond).String()
		}
		t.AppendRow(table.Row{
			r.ID, r.Artifact, string(r.Status),
			r.StartedAt.Local().Format(time.DateTime), duration,
			r.ErrorCount, r.WarningCount,
		})
	}
	t.Render()
}
