package report

import (
	"fmt"
	"html"
	"strings"
	"time"

	"vulnhawk/pkg/scan"
)

// renderHTML produces a single self-contained document. Every tool- or
// user-supplied string is escaped before interpolation.
func (r *Renderer) renderHTML(result *scan.Result) (string, error) {
	var b strings.Builder
	esc := html.EscapeString

	b.WriteString("<!DOCTYPE html>\n<html lang=\"en\">\n<head>\n")
	b.WriteString("<meta charset=\"utf-8\">\n")
	fmt.Fprintf(&b, "<title>Scan Report - %s</title>\n", esc(result.Target))
	b.WriteString("<style>\n" + htmlStyle + "</style>\n</head>\n<body>\n")

	fmt.Fprintf(&b, "<h1>Vulnerability Scan Report</h1>\n")
	fmt.Fprintf(&b, "<p class=\"target\">Target: <strong>%s</strong></p>\n", esc(result.Target))
	fmt.Fprintf(&b, "<p class=\"meta\">Scan %s · status %s · generated %s</p>\n",
		esc(result.ID), esc(string(result.Status)), r.now().Format(time.RFC3339))
	if result.Error != "" {
		fmt.Fprintf(&b, "<p class=\"error\">Error: %s</p>\n", esc(result.Error))
	}

	// Summary cards
	b.WriteString("<div class=\"cards\">\n")
	writeCard(&b, "Total findings", fmt.Sprintf("%d", result.Summary.Total))
	writeCard(&b, "Duration", result.Duration.Round(time.Second).String())
	writeCard(&b, "Tools", fmt.Sprintf("%d", result.ToolCount()))
	writeCard(&b, "Status", esc(string(result.Status)))
	b.WriteString("</div>\n")

	// Severity badges
	b.WriteString("<div class=\"badges\">\n")
	for _, sev := range scan.Severities {
		fmt.Fprintf(&b, "<span class=\"badge\" style=\"background:%s\">%s %d</span>\n",
			severityColors[sev], strings.ToUpper(sev.String()), result.Summary.Count(sev))
	}
	b.WriteString("</div>\n")

	// Per-tool status table
	b.WriteString("<h2>Tools</h2>\n<table>\n<tr><th>Tool</th><th>Status</th><th>Findings</th><th>Error</th></tr>\n")
	for _, inv := range result.OrderedInvocations() {
		fmt.Fprintf(&b, "<tr><td>%s</td><td>%s</td><td>%d</td><td>%s</td></tr>\n",
			esc(inv.Tool), esc(string(inv.Status)), len(inv.Vulnerabilities), esc(inv.Error))
	}
	b.WriteString("</table>\n")

	// Vulnerability cards
	b.WriteString("<h2>Findings</h2>\n")
	if len(result.Vulnerabilities) == 0 {
		b.WriteString("<div class=\"empty\">No vulnerabilities were found.</div>\n")
	}
	for _, v := range result.Vulnerabilities {
		b.WriteString("<div class=\"vuln\">\n")
		fmt.Fprintf(&b, "<div class=\"vuln-head\"><span class=\"badge\" style=\"background:%s\">%s</span> <strong>%s</strong> <em>via %s</em></div>\n",
			severityColors[v.Severity], strings.ToUpper(v.Severity.String()), esc(v.Title), esc(v.Tool))
		if v.Description != "" {
			fmt.Fprintf(&b, "<p>%s</p>\n", esc(v.Description))
		}
		writeDetail(&b, "URL", v.URL)
		writeDetail(&b, "Method", v.Method)
		writeDetail(&b, "Parameter", v.Parameter)
		writeDetail(&b, "Category", v.Category)
		writeDetail(&b, "Evidence", v.Evidence)
		writeDetail(&b, "Solution", v.Solution)
		writeDetail(&b, "CWE", v.CWE)
		if v.CVSS > 0 {
			writeDetail(&b, "CVSS", fmt.Sprintf("%.1f", v.CVSS))
		}
		if len(v.References) > 0 {
			writeDetail(&b, "References", strings.Join(v.References, ", "))
		}
		b.WriteString("</div>\n")
	}

	b.WriteString("</body>\n</html>\n")
	return b.String(), nil
}

func writeCard(b *strings.Builder, label, value string) {
	fmt.Fprintf(b, "<div class=\"card\"><div class=\"card-value\">%s</div><div class=\"card-label\">%s</div></div>\n",
		value, label)
}

func writeDetail(b *strings.Builder, label, value string) {
	if value == "" {
		return
	}
	fmt.Fprintf(b, "<div class=\"detail\"><span class=\"detail-label\">%s:</span> %s</div>\n",
		label, html.EscapeString(value))
}

const htmlStyle = `body{font-family:system-ui,sans-serif;margin:2rem auto;max-width:60rem;color:#222}
h1{border-bottom:2px solid #ddd;padding-bottom:.5rem}
.meta{color:#666}
.error{color:#b00020;font-weight:bold}
.cards{display:flex;gap:1rem;margin:1rem 0}
.card{border:1px solid #ddd;border-radius:8px;padding:1rem;flex:1;text-align:center}
.card-value{font-size:1.6rem;font-weight:bold}
.card-label{color:#666;font-size:.85rem}
.badges{margin:1rem 0}
.badge{color:#fff;border-radius:4px;padding:.2rem .6rem;font-size:.8rem;margin-right:.4rem}
table{border-collapse:collapse;width:100%}
th,td{border:1px solid #ddd;padding:.4rem .6rem;text-align:left}
.vuln{border:1px solid #ddd;border-radius:8px;padding:1rem;margin:1rem 0}
.vuln-head{margin-bottom:.5rem}
.detail{font-size:.9rem;margin:.15rem 0}
.detail-label{color:#666}
.empty{border:1px dashed #aaa;border-radius:8px;padding:1.5rem;text-align:center;color:#2e7d32}
`
