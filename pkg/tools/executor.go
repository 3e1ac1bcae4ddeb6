package tools

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	vherrors "vulnhawk/pkg/errors"
	"vulnhawk/pkg/logger"
	"vulnhawk/pkg/runner"
	"vulnhawk/pkg/scan"
)

// ProgressEvent reports the live state of a running tool.
type ProgressEvent struct {
	Tool      string
	Status    string // "started", "running", "completed", "failed"
	Message   string
	Timestamp time.Time
}

// Executor runs one adapter through the process runner and folds every
// failure mode into a tagged ToolResult. It is the only path by which
// adapters execute; nothing here ever returns an error to the orchestrator.
type Executor struct {
	runner   runner.CommandRunner
	logger   *logger.Logger
	progress chan ProgressEvent
}

func NewExecutor(r runner.CommandRunner) *Executor {
	return &Executor{
		runner:   r,
		logger:   logger.NewLogger(log.InfoLevel),
		progress: make(chan ProgressEvent, 100),
	}
}

// Run executes the adapter against the target described by opts.
func (e *Executor) Run(ctx context.Context, adapter Adapter, opts *Options) *ToolResult {
	command := adapter.BuildCommand(opts)
	timeout := opts.ClampTimeout(adapter.MaxTimeout())

	result := &ToolResult{
		Tool:       adapter.Name(),
		Command:    command.String(),
		OutputFile: command.OutputFile,
	}

	log.Infof("Executing command: %s", result.Command)

	e.sendProgress(ProgressEvent{
		Tool:      adapter.Name(),
		Status:    "started",
		Message:   "Running command",
		Timestamp: time.Now(),
	})

	done := make(chan bool, 1)
	go e.monitorProgress(ctx, adapter.Name(), done)

	exec, err := e.runner.Run(ctx, command.Binary, command.Args, runner.RunOptions{
		Timeout: timeout,
		Dir:     opts.OutputDir,
	})
	done <- true

	if exec != nil {
		result.Stdout = exec.Stdout
		result.Stderr = exec.Stderr
		result.Duration = exec.Duration
	}

	if err != nil {
		result.Error = err.Error()
		result.Status = statusForError(err)

		e.sendProgress(ProgressEvent{
			Tool:      adapter.Name(),
			Status:    "failed",
			Message:   err.Error(),
			Timestamp: time.Now(),
		})
		e.logger.WithTool(adapter.Name()).WithError(err).Error("Tool execution failed")
		return result
	}

	vulns, parseErr := adapter.ParseOutput(command.OutputFile, exec)
	if parseErr != nil {
		// Malformed output is not fatal: the tool ran, it just produced
		// nothing we can read.
		e.logger.WithTool(adapter.Name()).WithError(parseErr).Warn("Failed to parse tool output")
		vulns = nil
	}

	result.Status = scan.StatusCompleted
	result.Vulnerabilities = vulns

	e.sendProgress(ProgressEvent{
		Tool:      adapter.Name(),
		Status:    "completed",
		Message:   "tool completed successfully",
		Timestamp: time.Now(),
	})
	log.Infof("Tool %s completed with %d findings", adapter.Name(), len(vulns))
	return result
}

func statusForError(err error) scan.InvocationStatus {
	switch err.(type) {
	case *vherrors.ProcessTimeoutError, *vherrors.ProcessCancelledError:
		return scan.StatusKilled
	default:
		return scan.StatusError
	}
}

func (e *Executor) monitorProgress(ctx context.Context, tool string, done chan bool) {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-done:
			return
		case event := <-e.progress:
			log.Infof("Tool: %s, Status: %s, Message: %s", event.Tool, event.Status, event.Message)
		case <-ticker.C:
			e.sendProgress(ProgressEvent{
				Tool:      tool,
				Status:    "running",
				Message:   "tool is running",
				Timestamp: time.Now(),
			})
		}
	}
}

func (e *Executor) sendProgress(event ProgressEvent) {
	select {
	case e.progress <- event:
	default:
		log.Warnf("Progress channel full, dropping event for tool %s", event.Tool)
	}
}
