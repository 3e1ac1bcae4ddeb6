package report

import (
	"encoding/json"
	"fmt"
	"time"

	"vulnhawk/pkg/scan"
)

// legacyReport is the flat JSON schema. Field names are stable for
// backward compatibility with existing report consumers; do not rename.
type legacyReport struct {
	ScanID          string                     `json:"scan_id"`
	Target          string                     `json:"target"`
	Status          string                     `json:"status"`
	Error           string                     `json:"error,omitempty"`
	StartedAt       time.Time                  `json:"started_at"`
	FinishedAt      time.Time                  `json:"finished_at"`
	DurationSeconds float64                    `json:"duration_seconds"`
	Project         string                     `json:"project,omitempty"`
	Profile         string                     `json:"profile,omitempty"`
	OutputDir       string                     `json:"output_dir,omitempty"`
	Summary         scan.Summary               `json:"summary"`
	Tools           map[string]legacyToolEntry `json:"tools"`
	ToolOrder       []string                   `json:"tool_order,omitempty"`
	Vulnerabilities []scan.Vulnerability       `json:"vulnerabilities"`
}

type legacyToolEntry struct {
	Status   string `json:"status"`
	Command  string `json:"command,omitempty"`
	Error    string `json:"error,omitempty"`
	Findings int    `json:"findings"`
}

// renderJSON produces the flat legacy schema.
func (r *Renderer) renderJSON(result *scan.Result) (string, error) {
	out := legacyReport{
		ScanID:          result.ID,
		Target:          result.Target,
		Status:          string(result.Status),
		Error:           result.Error,
		StartedAt:       result.StartedAt,
		FinishedAt:      result.FinishedAt,
		DurationSeconds: result.Duration.Seconds(),
		Project:         result.Project,
		Profile:         result.Profile,
		OutputDir:       result.OutputDir,
		Summary:         result.Summary,
		Tools:           make(map[string]legacyToolEntry, len(result.Invocations)),
		ToolOrder:       result.ToolOrder,
		Vulnerabilities: vulnerabilitiesOrEmpty(result),
	}

	for name, inv := range result.Invocations {
		out.Tools[name] = legacyToolEntry{
			Status:   string(inv.Status),
			Command:  inv.Command,
			Error:    inv.Error,
			Findings: len(inv.Vulnerabilities),
		}
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode JSON report: %w", err)
	}
	return string(data) + "\n", nil
}

// enrichedReport is the versioned nested schema: display hints, a
// category-grouped index and chart-ready aggregates precomputed for UI
// consumers. It carries everything the legacy view carries.
type enrichedReport struct {
	SchemaVersion string               `json:"schema_version"`
	GeneratedAt   time.Time            `json:"generated_at"`
	Scan          enrichedScan         `json:"scan"`
	Severities    []enrichedSev        `json:"severities"`
	Tools         []enrichedTool       `json:"tools"`
	Categories    map[string][]int     `json:"categories"`
	Charts        enrichedCharts       `json:"charts"`
	Findings      []scan.Vulnerability `json:"findings"`
}

type enrichedScan struct {
	ID         string       `json:"id"`
	Target     string       `json:"target"`
	Status     string       `json:"status"`
	Error      string       `json:"error,omitempty"`
	StartedAt  time.Time    `json:"started_at"`
	FinishedAt time.Time    `json:"finished_at"`
	Duration   string       `json:"duration"`
	Project    string       `json:"project,omitempty"`
	Profile    string       `json:"profile,omitempty"`
	OutputDir  string       `json:"output_dir,omitempty"`
	Summary    scan.Summary `json:"summary"`
}

type enrichedSev struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
	Color string `json:"color"`
	Icon  string `json:"icon"`
}

type enrichedTool struct {
	Name     string `json:"name"`
	Status   string `json:"status"`
	Command  string `json:"command,omitempty"`
	Error    string `json:"error,omitempty"`
	Findings int    `json:"findings"`
}

type enrichedCharts struct {
	BySeverity map[string]int `json:"by_severity"`
	ByTool     map[string]int `json:"by_tool"`
}

// RenderEnriched produces the versioned enriched JSON schema. The legacy
// and enriched views derive from the same Result and drop nothing the other
// contains.
func (r *Renderer) RenderEnriched(result *scan.Result) (string, error) {
	out := enrichedReport{
		SchemaVersion: "2.0",
		GeneratedAt:   r.now(),
		Scan: enrichedScan{
			ID:         result.ID,
			Target:     result.Target,
			Status:     string(result.Status),
			Error:      result.Error,
			StartedAt:  result.StartedAt,
			FinishedAt: result.FinishedAt,
			Duration:   result.Duration.String(),
			Project:    result.Project,
			Profile:    result.Profile,
			OutputDir:  result.OutputDir,
			Summary:    result.Summary,
		},
		Categories: make(map[string][]int),
		Charts: enrichedCharts{
			BySeverity: make(map[string]int, len(scan.Severities)),
			ByTool:     make(map[string]int, len(result.Invocations)),
		},
		Findings: vulnerabilitiesOrEmpty(result),
	}

	for _, sev := range scan.Severities {
		out.Severities = append(out.Severities, enrichedSev{
			Name:  sev.String(),
			Count: result.Summary.Count(sev),
			Color: severityColors[sev],
			Icon:  severityIcons[sev],
		})
		out.Charts.BySeverity[sev.String()] = result.Summary.Count(sev)
	}

	for _, inv := range result.OrderedInvocations() {
		out.Tools = append(out.Tools, enrichedTool{
			Name:     inv.Tool,
			Status:   string(inv.Status),
			Command:  inv.Command,
			Error:    inv.Error,
			Findings: len(inv.Vulnerabilities),
		})
		out.Charts.ByTool[inv.Tool] = len(inv.Vulnerabilities)
	}

	for i, v := range result.Vulnerabilities {
		category := v.Category
		if category == "" {
			category = "uncategorized"
		}
		out.Categories[category] = append(out.Categories[category], i)
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode enriched JSON report: %w", err)
	}
	return string(data) + "\n", nil
}

func vulnerabilitiesOrEmpty(result *scan.Result) []scan.Vulnerability {
	if result.Vulnerabilities == nil {
		return []scan.Vulnerability{}
	}
	return result.Vulnerabilities
}
