// Package tools contains the per-tool adapters that translate between one
// external scanner's command line / output format and the canonical
// vulnerability model.
package tools

import (
	"time"

	"vulnhawk/pkg/runner"
	"vulnhawk/pkg/scan"
)

// Command is a fully constructed tool invocation.
type Command struct {
	Binary     string
	Args       []string
	OutputFile string
}

// String renders the command for display and for the invocation record.
func (c Command) String() string {
	s := c.Binary
	for _, a := range c.Args {
		s += " " + a
	}
	return s
}

// Adapter translates between one external tool and the canonical model.
// Implementations must be stateless: all per-run data flows through Options
// and the returned values.
type Adapter interface {
	// Name is the stable tool identifier used in requests and results.
	Name() string

	// VersionArgs is the lightweight version query used to probe
	// availability.
	VersionArgs() []string

	// MaxTimeout bounds the worst-case run time for this tool. Requested
	// timeouts above it are clamped.
	MaxTimeout() time.Duration

	// BuildCommand deterministically constructs the tool's native command
	// line. One tool's flags must never leak into another's invocation.
	BuildCommand(opts *Options) Command

	// ParseOutput reads the tool's result artifact (file or captured
	// streams) and produces canonical vulnerabilities. A malformed or
	// missing artifact is an error the caller downgrades to an empty list.
	ParseOutput(outputFile string, exec *runner.ExecResult) ([]scan.Vulnerability, error)

	// MapSeverity maps the tool-native severity representation to the
	// canonical enum. Unrecognized input maps to info.
	MapSeverity(native string) scan.Severity
}

// ToolResult is the tagged outcome of one adapter run. Adapters never
// propagate errors to the orchestrator; failures are folded in here.
type ToolResult struct {
	Tool            string
	Status          scan.InvocationStatus
	Command         string
	OutputFile      string
	Stdout          string
	Stderr          string
	Vulnerabilities []scan.Vulnerability
	Error           string
	Duration        time.Duration
}
