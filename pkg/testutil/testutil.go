// Package testutil provides testing utilities for the vulnhawk application
package testutil

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"vulnhawk/pkg/runner"
)

// MockCommandRunner implements runner.CommandRunner and runner.Prober for
// testing. Responses are keyed by "command arg arg..."; an unconfigured
// command succeeds with empty output.
type MockCommandRunner struct {
	mu        sync.RWMutex
	commands  []ExecutedCommand
	responses map[string]CommandResponse
	probes    map[string]error
}

type ExecutedCommand struct {
	Command string
	Args    []string
	Opts    runner.RunOptions
}

type CommandResponse struct {
	Result *runner.ExecResult
	Error  error
	Delay  time.Duration

	// WriteFile, when set, is written with WriteContent before the
	// response is returned, so adapters have an artifact to parse.
	WriteFile    string
	WriteContent string
}

func NewMockCommandRunner() *MockCommandRunner {
	return &MockCommandRunner{
		responses: make(map[string]CommandResponse),
		probes:    make(map[string]error),
	}
}

func (m *MockCommandRunner) Run(ctx context.Context, command string, args []string, opts runner.RunOptions) (*runner.ExecResult, error) {
	m.mu.Lock()
	m.commands = append(m.commands, ExecutedCommand{
		Command: command,
		Args:    args,
		Opts:    opts,
	})
	m.mu.Unlock()

	key := commandKey(command, args)

	m.mu.RLock()
	response, exists := m.responses[key]
	if !exists {
		// Fall back to a command-only match so callers don't have to
		// reproduce every generated argument.
		response, exists = m.responses[command]
	}
	m.mu.RUnlock()

	if !exists {
		return &runner.ExecResult{}, nil
	}

	if response.Delay > 0 {
		select {
		case <-time.After(response.Delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if response.WriteFile != "" {
		if err := os.WriteFile(response.WriteFile, []byte(response.WriteContent), 0644); err != nil {
			return nil, err
		}
	}

	result := response.Result
	if result == nil && response.Error == nil {
		result = &runner.ExecResult{}
	}
	return result, response.Error
}

// Probe reports the configured availability for a command. Unconfigured
// commands are available.
func (m *MockCommandRunner) Probe(ctx context.Context, command string, versionArgs []string) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.probes[command]
}

// SetResponse configures the outcome of one exact command line. Pass nil
// args to match on the command name alone.
func (m *MockCommandRunner) SetResponse(command string, args []string, response CommandResponse) {
	key := command
	if args != nil {
		key = commandKey(command, args)
	}
	m.mu.Lock()
	m.responses[key] = response
	m.mu.Unlock()
}

// SetProbeError marks a command unavailable.
func (m *MockCommandRunner) SetProbeError(command string, err error) {
	m.mu.Lock()
	m.probes[command] = err
	m.mu.Unlock()
}

func (m *MockCommandRunner) GetExecutedCommands() []ExecutedCommand {
	m.mu.RLock()
	defer m.mu.RUnlock()

	commands := make([]ExecutedCommand, len(m.commands))
	copy(commands, m.commands)
	return commands
}

func (m *MockCommandRunner) Reset() {
	m.mu.Lock()
	m.commands = nil
	m.responses = make(map[string]CommandResponse)
	m.probes = make(map[string]error)
	m.mu.Unlock()
}

func commandKey(command string, args []string) string {
	return command + " " + strings.Join(args, " ")
}

// CreateTestFile creates a test file with the given content
func CreateTestFile(t *testing.T, dir, filename, content string) string {
	t.Helper()

	filePath := filepath.Join(dir, filename)
	if err := os.WriteFile(filePath, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to create test file %s: %v", filePath, err)
	}

	return filePath
}

// WithTimeout creates a context with timeout for tests
func WithTimeout(t *testing.T, timeout time.Duration) (context.Context, context.CancelFunc) {
	t.Helper()
	return context.WithTimeout(context.Background(), timeout)
}
