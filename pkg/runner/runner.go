// Package runner spawns and supervises external tool subprocesses.
package runner

import (
	"context"
	"io"
	"time"
)

// ExecResult carries the captured output of a finished subprocess.
type ExecResult struct {
	Stdout     string
	Stderr     string
	ExitCode   int
	Duration   time.Duration
	LastOutput time.Time
}

// RunOptions configures one subprocess execution.
type RunOptions struct {
	// Timeout is the per-run deadline. Zero means no deadline beyond ctx.
	Timeout time.Duration

	// Dir is the working directory for the subprocess.
	Dir string

	// Tee receives stdout lines as they are produced, so callers can mirror
	// tool output to a live console.
	Tee io.Writer

	// OnOutput is invoked for every chunk read from either stream. Used for
	// stall/progress reporting; the runner never aborts on staleness itself.
	OnOutput func(stream string, chunk []byte)
}

// CommandRunner executes a command and returns its captured output.
type CommandRunner interface {
	Run(ctx context.Context, command string, args []string, opts RunOptions) (*ExecResult, error)
}

// Prober checks whether a tool binary is present and answers a lightweight
// version query.
type Prober interface {
	Probe(ctx context.Context, command string, versionArgs []string) error
}
