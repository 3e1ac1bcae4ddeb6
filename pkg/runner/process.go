package runner

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"vulnhawk/pkg/errors"
	"vulnhawk/pkg/logger"
)

// termGracePeriod is how long a process gets to honor SIGTERM before it is
// force-killed.
const termGracePeriod = 3 * time.Second

// ProcessRunner executes one subprocess per Run call, streaming output
// incrementally and enforcing timeout and cancellation with a
// graceful-then-forced termination sequence. It never reads or writes scan
// state.
type ProcessRunner struct {
	logger *logger.Logger
}

func NewProcessRunner() *ProcessRunner {
	return &ProcessRunner{logger: logger.NewLogger(logrus.InfoLevel)}
}

// Run spawns the command and waits for it to exit, time out, or be
// cancelled. Exit code 0 yields the captured output; nonzero exit yields a
// ProcessExecutionError carrying exit code and stderr.
func (r *ProcessRunner) Run(ctx context.Context, command string, args []string, opts RunOptions) (*ExecResult, error) {
	if err := validateCommand(command); err != nil {
		return nil, err
	}
	for i, arg := range args {
		if err := validateArgument(arg); err != nil {
			return nil, fmt.Errorf("invalid argument at index %d (%s): %w", i, arg, err)
		}
	}

	r.logger.WithFields(logger.Fields{
		"command": command,
		"args":    strings.Join(args, " "),
		"timeout": opts.Timeout.String(),
	}).Info("Executing command")

	cmd := exec.Command(command, args...)
	cmd.Dir = opts.Dir

	var stdout, stderr streamBuffer
	stdout.stream = "stdout"
	stderr.stream = "stderr"
	stdout.onOutput = opts.OnOutput
	stderr.onOutput = opts.OnOutput
	stdout.tee = opts.Tee

	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return nil, &errors.ProcessExecutionError{Command: command, ExitCode: -1, Err: err}
	}

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	var timeoutC <-chan time.Time
	if opts.Timeout > 0 {
		timer := time.NewTimer(opts.Timeout)
		defer timer.Stop()
		timeoutC = timer.C
	}

	var waitErr error
	var failure error

	select {
	case waitErr = <-done:
	case <-timeoutC:
		r.terminate(cmd, done)
		failure = &errors.ProcessTimeoutError{Command: command, Timeout: opts.Timeout.String()}
	case <-ctx.Done():
		r.terminate(cmd, done)
		failure = &errors.ProcessCancelledError{Command: command}
	}

	result := &ExecResult{
		Stdout:     stdout.String(),
		Stderr:     stderr.String(),
		Duration:   time.Since(start),
		LastOutput: latest(stdout.last(), stderr.last()),
	}

	if failure != nil {
		result.ExitCode = -1
		return result, failure
	}

	if waitErr != nil {
		exitCode := -1
		if exitErr, ok := waitErr.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		}
		result.ExitCode = exitCode

		if stderr.Len() > 0 {
			r.logger.WithFields(logger.Fields{
				"command": command,
				"stderr":  stderr.String(),
			}).Error("Command stderr output")
		}
		return result, &errors.ProcessExecutionError{
			Command:  command,
			ExitCode: exitCode,
			Stderr:   stderr.String(),
			Err:      waitErr,
		}
	}

	return result, nil
}

// Probe runs a short version query to confirm the tool binary is usable.
func (r *ProcessRunner) Probe(ctx context.Context, command string, versionArgs []string) error {
	if _, err := exec.LookPath(command); err != nil {
		return errors.NewToolUnavailableError(command, err)
	}

	probeCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	// Version queries commonly exit nonzero; a spawnable binary is enough.
	if err := exec.CommandContext(probeCtx, command, versionArgs...).Run(); err != nil {
		if probeCtx.Err() != nil {
			return errors.NewToolUnavailableError(command, probeCtx.Err())
		}
		if _, ok := err.(*exec.ExitError); !ok {
			return errors.NewToolUnavailableError(command, err)
		}
	}
	return nil
}

// terminate sends SIGTERM, waits out the grace period, then force-kills.
func (r *ProcessRunner) terminate(cmd *exec.Cmd, done chan error) {
	if cmd.Process == nil {
		return
	}

	r.logger.WithFields(logger.Fields{
		"pid": cmd.Process.Pid,
	}).Warn("Terminating process")

	_ = cmd.Process.Signal(syscall.SIGTERM)

	select {
	case <-done:
		return
	case <-time.After(termGracePeriod):
	}

	r.logger.WithFields(logger.Fields{
		"pid": cmd.Process.Pid,
	}).Warn("Process ignored termination, killing")

	_ = cmd.Process.Kill()
	<-done
}

func latest(a, b time.Time) time.Time {
	if b.After(a) {
		return b
	}
	return a
}

// streamBuffer captures one output stream while recording the time of the
// last write for stall reporting.
type streamBuffer struct {
	mu         sync.Mutex
	buf        bytes.Buffer
	lastOutput time.Time
	stream     string
	tee        io.Writer
	onOutput   func(stream string, chunk []byte)
}

func (b *streamBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	b.buf.Write(p)
	b.lastOutput = time.Now()
	b.mu.Unlock()

	if b.tee != nil {
		b.tee.Write(p)
	}
	if b.onOutput != nil {
		b.onOutput(b.stream, p)
	}
	return len(p), nil
}

func (b *streamBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func (b *streamBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Len()
}

func (b *streamBuffer) last() time.Time {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastOutput
}

// validateCommand rejects empty or obviously unsafe commands.
func validateCommand(command string) error {
	if command == "" {
		return fmt.Errorf("command is empty")
	}
	if strings.ContainsAny(command, " \t\n;&|`$<>") {
		return fmt.Errorf("unsafe characters in command: %s", command)
	}
	return nil
}

// validateArgument rejects shell metacharacters that could enable command
// injection if an argument ever reaches a shell.
func validateArgument(arg string) error {
	if arg == "" {
		return nil
	}

	dangerous := []string{";", "|", "`", "\n", "\r"}
	for _, char := range dangerous {
		if strings.Contains(arg, char) {
			return fmt.Errorf("argument contains dangerous character: %s", char)
		}
	}
	return nil
}
