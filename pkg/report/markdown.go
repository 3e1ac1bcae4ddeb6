package report

import (
	"fmt"
	"strings"
	"time"

	"vulnhawk/pkg/scan"
)

// renderMarkdown produces a GitHub-flavored document: a metadata table, the
// severity breakdown, a per-tool table and one numbered section per finding.
func (r *Renderer) renderMarkdown(result *scan.Result) (string, error) {
	var b strings.Builder

	fmt.Fprintf(&b, "# Vulnerability Scan Report\n\n")
	fmt.Fprintf(&b, "**Target:** %s\n\n", result.Target)

	b.WriteString("| | |\n|---|---|\n")
	fmt.Fprintf(&b, "| Scan ID | %s |\n", result.ID)
	fmt.Fprintf(&b, "| Status | %s |\n", result.Status)
	fmt.Fprintf(&b, "| Started | %s |\n", result.StartedAt.Format(time.RFC3339))
	fmt.Fprintf(&b, "| Duration | %s |\n", result.Duration.Round(time.Second))
	fmt.Fprintf(&b, "| Generated | %s |\n", r.now().Format(time.RFC3339))
	if result.Project != "" {
		fmt.Fprintf(&b, "| Project | %s |\n", result.Project)
	}
	if result.Error != "" {
		fmt.Fprintf(&b, "| Error | %s |\n", mdCell(result.Error))
	}
	b.WriteString("\n")

	b.WriteString("## Summary\n\n")
	b.WriteString("| Severity | Count |\n|---|---|\n")
	for _, sev := range scan.Severities {
		fmt.Fprintf(&b, "| %s %s | %d |\n",
			severityIcons[sev], strings.ToUpper(sev.String()), result.Summary.Count(sev))
	}
	fmt.Fprintf(&b, "| **Total** | **%d** |\n\n", result.Summary.Total)

	b.WriteString("## Tools\n\n")
	b.WriteString("| Tool | Status | Findings | Error |\n|---|---|---|---|\n")
	for _, inv := range result.OrderedInvocations() {
		fmt.Fprintf(&b, "| %s | %s | %d | %s |\n",
			inv.Tool, inv.Status, len(inv.Vulnerabilities), mdCell(inv.Error))
	}
	b.WriteString("\n")

	b.WriteString("## Findings\n\n")
	if len(result.Vulnerabilities) == 0 {
		b.WriteString("No vulnerabilities were found.\n")
		return b.String(), nil
	}

	for i, v := range result.Vulnerabilities {
		fmt.Fprintf(&b, "### %d. %s\n\n", i+1, v.Title)
		fmt.Fprintf(&b, "**Severity:** %s %s · **Tool:** %s\n\n",
			severityIcons[v.Severity], strings.ToUpper(v.Severity.String()), v.Tool)
		if v.Description != "" {
			fmt.Fprintf(&b, "%s\n\n", v.Description)
		}
		writeMDField(&b, "URL", v.URL)
		writeMDField(&b, "Method", v.Method)
		writeMDField(&b, "Parameter", v.Parameter)
		writeMDField(&b, "Category", v.Category)
		writeMDField(&b, "CWE", v.CWE)
		if v.CVSS > 0 {
			writeMDField(&b, "CVSS", fmt.Sprintf("%.1f", v.CVSS))
		}
		if v.Evidence != "" {
			fmt.Fprintf(&b, "\n```\n%s\n```\n", strings.TrimSpace(v.Evidence))
		}
		if v.Solution != "" {
			fmt.Fprintf(&b, "\n**Solution:** %s\n", v.Solution)
		}
		for _, ref := range v.References {
			fmt.Fprintf(&b, "- %s\n", ref)
		}
		b.WriteString("\n")
	}
	return b.String(), nil
}

func writeMDField(b *strings.Builder, label, value string) {
	if value == "" {
		return
	}
	fmt.Fprintf(b, "- **%s:** %s\n", label, mdCell(value))
}

// mdCell keeps a value renderable inside a table cell or list item.
func mdCell(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.ReplaceAll(s, "|", "\\|")
}
