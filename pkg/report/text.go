package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"vulnhawk/pkg/scan"
)

// TextOptions controls the plain-text view.
type TextOptions struct {
	// Detailed adds a per-finding section after the summary.
	Detailed bool
	// Color styles severity labels for terminal output. File output
	// stays plain.
	Color bool
}

var severityStyles = map[scan.Severity]lipgloss.Style{
	scan.SeverityCritical: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#8b0000")),
	scan.SeverityHigh:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#e53935")),
	scan.SeverityMedium:   lipgloss.NewStyle().Foreground(lipgloss.Color("#fb8c00")),
	scan.SeverityLow:      lipgloss.NewStyle().Foreground(lipgloss.Color("#fdd835")),
	scan.SeverityInfo:     lipgloss.NewStyle().Foreground(lipgloss.Color("#1e88e5")),
}

// RenderText produces the human-readable console view.
func (r *Renderer) RenderText(result *scan.Result, opts TextOptions) (string, error) {
	var b strings.Builder

	label := func(sev scan.Severity) string {
		s := strings.ToUpper(sev.String())
		if opts.Color {
			return severityStyles[sev].Render(s)
		}
		return s
	}

	rule := strings.Repeat("=", 64)
	b.WriteString(rule + "\n")
	b.WriteString(" VULNERABILITY SCAN REPORT\n")
	b.WriteString(rule + "\n")
	fmt.Fprintf(&b, "Target:    %s\n", result.Target)
	fmt.Fprintf(&b, "Scan ID:   %s\n", result.ID)
	fmt.Fprintf(&b, "Status:    %s\n", result.Status)
	fmt.Fprintf(&b, "Started:   %s\n", result.StartedAt.Format(time.RFC3339))
	fmt.Fprintf(&b, "Duration:  %s\n", result.Duration.Round(time.Second))
	if result.Error != "" {
		fmt.Fprintf(&b, "Error:     %s\n", result.Error)
	}
	b.WriteString("\n")

	b.WriteString("Summary\n" + strings.Repeat("-", 64) + "\n")
	for _, sev := range scan.Severities {
		fmt.Fprintf(&b, "  %-10s %d\n", label(sev), result.Summary.Count(sev))
	}
	fmt.Fprintf(&b, "  %-10s %d\n\n", "TOTAL", result.Summary.Total)

	b.WriteString("Tools\n" + strings.Repeat("-", 64) + "\n")
	for _, inv := range result.OrderedInvocations() {
		line := fmt.Sprintf("  %-12s %-10s %d finding(s)", inv.Tool, inv.Status, len(inv.Vulnerabilities))
		if inv.Error != "" {
			line += "  (" + firstTextLine(inv.Error) + ")"
		}
		b.WriteString(line + "\n")
	}
	b.WriteString("\n")

	if !opts.Detailed {
		return b.String(), nil
	}

	b.WriteString("Findings\n" + strings.Repeat("-", 64) + "\n")
	if len(result.Vulnerabilities) == 0 {
		b.WriteString("  No vulnerabilities were found.\n")
		return b.String(), nil
	}
	for i, v := range result.Vulnerabilities {
		fmt.Fprintf(&b, "\n[%d] %s  %s  (via %s)\n", i+1, label(v.Severity), v.Title, v.Tool)
		writeTextField(&b, "URL", v.URL)
		writeTextField(&b, "Method", v.Method)
		writeTextField(&b, "Parameter", v.Parameter)
		writeTextField(&b, "Category", v.Category)
		writeTextField(&b, "CWE", v.CWE)
		if v.CVSS > 0 {
			writeTextField(&b, "CVSS", fmt.Sprintf("%.1f", v.CVSS))
		}
		writeTextField(&b, "Description", firstTextLine(v.Description))
		writeTextField(&b, "Evidence", firstTextLine(v.Evidence))
		writeTextField(&b, "Solution", firstTextLine(v.Solution))
	}
	return b.String(), nil
}

func writeTextField(b *strings.Builder, label, value string) {
	if value == "" {
		return
	}
	fmt.Fprintf(b, "    %-12s %s\n", label+":", value)
}

func firstTextLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return s
}
