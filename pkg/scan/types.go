// Package scan defines the canonical data model shared by the tool
// adapters, the orchestrator and the report renderer.
package scan

import (
	"sort"
	"time"
)

// AuthType enumerates the supported target authentication schemes.
type AuthType string

const (
	AuthBasic  AuthType = "basic"
	AuthDigest AuthType = "digest"
	AuthForm   AuthType = "form"
	AuthCookie AuthType = "session-cookie"
)

// Auth describes how the external tools should authenticate to the target.
type Auth struct {
	Type     AuthType `json:"type"               yaml:"type"`
	Username string   `json:"username,omitempty" yaml:"username,omitempty"`
	Password string   `json:"password,omitempty" yaml:"password,omitempty"`
	LoginURL string   `json:"login_url,omitempty" yaml:"login_url,omitempty"`
	Cookie   string   `json:"cookie,omitempty"   yaml:"cookie,omitempty"`
}

// ToolOptions carries per-tool option overrides from a request or profile.
type ToolOptions struct {
	Timeout        time.Duration `json:"timeout,omitempty"         yaml:"timeout,omitempty"         mapstructure:"timeout"`
	SeverityFilter string        `json:"severity_filter,omitempty" yaml:"severity_filter,omitempty" mapstructure:"severity_filter"`
	CrawlDepth     int           `json:"crawl_depth,omitempty"     yaml:"crawl_depth,omitempty"     mapstructure:"crawl_depth"`
	Modules        []string      `json:"modules,omitempty"         yaml:"modules,omitempty"         mapstructure:"modules"`
	ExtraArgs      []string      `json:"extra_args,omitempty"      yaml:"extra_args,omitempty"      mapstructure:"extra_args"`
}

// Request is an immutable description of one scan: the target, the tools to
// run in order, and their options. It is consumed exactly once by the
// orchestrator.
type Request struct {
	Target      string                 `json:"target"                 yaml:"target"`
	Tools       []string               `json:"tools"                  yaml:"tools"`
	ToolOptions map[string]ToolOptions `json:"tool_options,omitempty" yaml:"tool_options,omitempty"`
	Auth        *Auth                  `json:"auth,omitempty"         yaml:"auth,omitempty"`
	Headers     map[string]string      `json:"headers,omitempty"      yaml:"headers,omitempty"`
	Timeout     time.Duration          `json:"timeout,omitempty"      yaml:"timeout,omitempty"`
	OutputDir   string                 `json:"output_dir,omitempty"   yaml:"output_dir,omitempty"`
	Project     string                 `json:"project,omitempty"      yaml:"project,omitempty"`
	Profile     string                 `json:"profile,omitempty"      yaml:"profile,omitempty"`
	Parallelism int                    `json:"parallelism,omitempty"  yaml:"parallelism,omitempty"`
}

// OptionsFor returns the per-tool overrides for a tool, zero value if none.
func (r *Request) OptionsFor(tool string) ToolOptions {
	if r.ToolOptions == nil {
		return ToolOptions{}
	}
	return r.ToolOptions[tool]
}

// Vulnerability is the canonical, tool-agnostic record of one finding.
type Vulnerability struct {
	ID          string            `json:"id"`
	Title       string            `json:"title"`
	Severity    Severity          `json:"severity"`
	Description string            `json:"description,omitempty"`
	URL         string            `json:"url,omitempty"`
	Method      string            `json:"method,omitempty"`
	Parameter   string            `json:"parameter,omitempty"`
	Category    string            `json:"category,omitempty"`
	Tool        string            `json:"tool"`
	ScanID      string            `json:"scan_id,omitempty"`
	Evidence    string            `json:"evidence,omitempty"`
	Solution    string            `json:"solution,omitempty"`
	References  []string          `json:"references,omitempty"`
	CWE         string            `json:"cwe,omitempty"`
	CVSS        float64           `json:"cvss,omitempty"`
	Extra       map[string]string `json:"extra,omitempty"`
}

// InvocationStatus is the lifecycle state of one tool invocation.
//
//	pending -> skipped                      (tool unavailable, terminal)
//	pending -> running -> completed         (terminal)
//	           running -> error             (terminal, process/parse failure)
//	           running -> killed            (terminal, timeout/cancellation)
type InvocationStatus string

const (
	StatusPending   InvocationStatus = "pending"
	StatusRunning   InvocationStatus = "running"
	StatusCompleted InvocationStatus = "completed"
	StatusSkipped   InvocationStatus = "skipped"
	StatusError     InvocationStatus = "error"
	StatusKilled    InvocationStatus = "killed"
)

// ToolInvocation records one tool's execution within a scan. It is created
// by the orchestrator, mutated only by its own adapter run, and frozen once
// it reaches a terminal status.
type ToolInvocation struct {
	Tool            string           `json:"tool"`
	Command         string           `json:"command,omitempty"`
	Status          InvocationStatus `json:"status"`
	Stdout          string           `json:"stdout,omitempty"`
	Stderr          string           `json:"stderr,omitempty"`
	OutputFile      string           `json:"output_file,omitempty"`
	Vulnerabilities []Vulnerability  `json:"vulnerabilities,omitempty"`
	Error           string           `json:"error,omitempty"`
	StartedAt       time.Time        `json:"started_at,omitempty"`
	FinishedAt      time.Time        `json:"finished_at,omitempty"`
}

// ScanStatus is the overall status of a scan.
type ScanStatus string

const (
	ScanRunning   ScanStatus = "running"
	ScanCompleted ScanStatus = "completed"
	ScanFailed    ScanStatus = "failed"
)

// Summary is the severity histogram over all aggregated vulnerabilities.
// Invariant: Total equals the sum of the five buckets.
type Summary struct {
	Total    int `json:"total"`
	Critical int `json:"critical"`
	High     int `json:"high"`
	Medium   int `json:"medium"`
	Low      int `json:"low"`
	Info     int `json:"info"`
}

// Add buckets one vulnerability into the histogram.
func (s *Summary) Add(sev Severity) {
	s.Total++
	switch sev {
	case SeverityCritical:
		s.Critical++
	case SeverityHigh:
		s.High++
	case SeverityMedium:
		s.Medium++
	case SeverityLow:
		s.Low++
	default:
		s.Info++
	}
}

// Count returns the bucket value for one canonical severity.
func (s *Summary) Count(sev Severity) int {
	switch sev {
	case SeverityCritical:
		return s.Critical
	case SeverityHigh:
		return s.High
	case SeverityMedium:
		return s.Medium
	case SeverityLow:
		return s.Low
	default:
		return s.Info
	}
}

// Result is the aggregated outcome of one scan.
type Result struct {
	ID              string                     `json:"id"`
	Target          string                     `json:"target"`
	StartedAt       time.Time                  `json:"started_at"`
	FinishedAt      time.Time                  `json:"finished_at,omitempty"`
	Duration        time.Duration              `json:"duration,omitempty"`
	Invocations     map[string]*ToolInvocation `json:"invocations"`
	ToolOrder       []string                   `json:"tool_order,omitempty"`
	Vulnerabilities []Vulnerability            `json:"vulnerabilities"`
	Summary         Summary                    `json:"summary"`
	Status          ScanStatus                 `json:"status"`
	Error           string                     `json:"error,omitempty"`
	OutputDir       string                     `json:"output_dir,omitempty"`
	Project         string                     `json:"project,omitempty"`
	Profile         string                     `json:"profile,omitempty"`
}

// NewResult creates a running Result for a validated target.
func NewResult(id, target, outputDir string) *Result {
	return &Result{
		ID:          id,
		Target:      target,
		StartedAt:   time.Now(),
		Invocations: make(map[string]*ToolInvocation),
		Status:      ScanRunning,
		OutputDir:   outputDir,
	}
}

// Aggregate stamps the vulnerabilities of one invocation with their source
// and folds them into the flattened list and the histogram.
func (r *Result) Aggregate(inv *ToolInvocation) {
	for i := range inv.Vulnerabilities {
		v := inv.Vulnerabilities[i]
		v.Tool = inv.Tool
		v.ScanID = r.ID
		r.Vulnerabilities = append(r.Vulnerabilities, v)
		r.Summary.Add(v.Severity)
	}
}

// OrderedInvocations returns the invocations in request order. Results
// deserialized without a recorded order fall back to sorted tool names so
// rendering stays deterministic.
func (r *Result) OrderedInvocations() []*ToolInvocation {
	names := r.ToolOrder
	if len(names) != len(r.Invocations) {
		names = make([]string, 0, len(r.Invocations))
		for name := range r.Invocations {
			names = append(names, name)
		}
		sort.Strings(names)
	}

	invs := make([]*ToolInvocation, 0, len(names))
	for _, name := range names {
		if inv, ok := r.Invocations[name]; ok {
			invs = append(invs, inv)
		}
	}
	return invs
}

// ToolCount returns the number of tools listed on the result, including
// skipped and failed ones.
func (r *Result) ToolCount() int {
	return len(r.Invocations)
}
