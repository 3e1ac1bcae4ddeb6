package report

import (
	"strings"

	"vulnhawk/pkg/scan"
)

// csvColumns is the fixed header row.
var csvColumns = []string{
	"id", "title", "severity", "description", "url",
	"method", "parameter", "category", "source", "scan_id",
}

// renderCSV produces a header row plus one row per vulnerability. Every
// field is quoted and embedded quotes are doubled, so consumers never need
// to sniff quoting.
func (r *Renderer) renderCSV(result *scan.Result) (string, error) {
	var b strings.Builder

	writeCSVRow(&b, csvColumns)
	for _, v := range result.Vulnerabilities {
		writeCSVRow(&b, []string{
			v.ID,
			v.Title,
			v.Severity.String(),
			v.Description,
			v.URL,
			v.Method,
			v.Parameter,
			v.Category,
			v.Tool,
			v.ScanID,
		})
	}
	return b.String(), nil
}

func writeCSVRow(b *strings.Builder, fields []string) {
	for i, f := range fields {
		if i > 0 {
			b.WriteByte(',')
		}
		f = strings.ReplaceAll(f, "\n", " ")
		b.WriteByte('"')
		b.WriteString(strings.ReplaceAll(f, `"`, `""`))
		b.WriteByte('"')
	}
	b.WriteByte('\n')
}
