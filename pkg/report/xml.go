package report

import (
	"encoding/xml"
	"fmt"
	"time"

	"vulnhawk/pkg/scan"
)

// xmlReport is the root element of the XML encoding. Section order is
// fixed: metadata, summary, tools, vulnerabilities.
type xmlReport struct {
	XMLName         xml.Name           `xml:"scan_report"`
	Metadata        xmlMetadata        `xml:"metadata"`
	Summary         xmlSummary         `xml:"summary"`
	Tools           []xmlTool          `xml:"tools>tool"`
	Vulnerabilities []xmlVulnerability `xml:"vulnerabilities>vulnerability"`
}

type xmlMetadata struct {
	ScanID      string `xml:"scan_id"`
	Target      string `xml:"target"`
	Status      string `xml:"status"`
	StartedAt   string `xml:"started_at"`
	FinishedAt  string `xml:"finished_at,omitempty"`
	Duration    string `xml:"duration"`
	GeneratedAt string `xml:"generated_at"`
	Error       string `xml:"error,omitempty"`
}

type xmlSummary struct {
	Total    int `xml:"total"`
	Critical int `xml:"critical"`
	High     int `xml:"high"`
	Medium   int `xml:"medium"`
	Low      int `xml:"low"`
	Info     int `xml:"info"`
}

type xmlTool struct {
	Name     string `xml:"name,attr"`
	Status   string `xml:"status,attr"`
	Findings int    `xml:"findings,attr"`
	Command  string `xml:"command,omitempty"`
	Error    string `xml:"error,omitempty"`
}

type xmlVulnerability struct {
	ID          string   `xml:"id,attr"`
	Severity    string   `xml:"severity,attr"`
	Tool        string   `xml:"tool,attr"`
	Title       string   `xml:"title"`
	Description string   `xml:"description,omitempty"`
	URL         string   `xml:"url,omitempty"`
	Method      string   `xml:"method,omitempty"`
	Parameter   string   `xml:"parameter,omitempty"`
	Category    string   `xml:"category,omitempty"`
	Evidence    string   `xml:"evidence,omitempty"`
	Solution    string   `xml:"solution,omitempty"`
	References  []string `xml:"references>reference,omitempty"`
	CWE         string   `xml:"cwe,omitempty"`
	CVSS        float64  `xml:"cvss,omitempty"`
}

// renderXML encodes the result as a standalone XML document. encoding/xml
// escapes all element content, so hostile titles and payloads cannot break
// the document.
func (r *Renderer) renderXML(result *scan.Result) (string, error) {
	doc := xmlReport{
		Metadata: xmlMetadata{
			ScanID:      result.ID,
			Target:      result.Target,
			Status:      string(result.Status),
			StartedAt:   result.StartedAt.Format(time.RFC3339),
			Duration:    result.Duration.Round(time.Millisecond).String(),
			GeneratedAt: r.now().Format(time.RFC3339),
			Error:       result.Error,
		},
		Summary: xmlSummary{
			Total:    result.Summary.Total,
			Critical: result.Summary.Critical,
			High:     result.Summary.High,
			Medium:   result.Summary.Medium,
			Low:      result.Summary.Low,
			Info:     result.Summary.Info,
		},
	}
	if !result.FinishedAt.IsZero() {
		doc.Metadata.FinishedAt = result.FinishedAt.Format(time.RFC3339)
	}

	for _, inv := range result.OrderedInvocations() {
		doc.Tools = append(doc.Tools, xmlTool{
			Name:     inv.Tool,
			Status:   string(inv.Status),
			Findings: len(inv.Vulnerabilities),
			Command:  inv.Command,
			Error:    inv.Error,
		})
	}

	for _, v := range result.Vulnerabilities {
		doc.Vulnerabilities = append(doc.Vulnerabilities, xmlVulnerability{
			ID:          v.ID,
			Severity:    v.Severity.String(),
			Tool:        v.Tool,
			Title:       v.Title,
			Description: v.Description,
			URL:         v.URL,
			Method:      v.Method,
			Parameter:   v.Parameter,
			Category:    v.Category,
			Evidence:    v.Evidence,
			Solution:    v.Solution,
			References:  v.References,
			CWE:         v.CWE,
			CVSS:        v.CVSS,
		})
	}

	out, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode XML report: %w", err)
	}
	return xml.Header + string(out) + "\n", nil
}
