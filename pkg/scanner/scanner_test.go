package scanner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	vherrors "vulnhawk/pkg/errors"
	"vulnhawk/pkg/history"
	"vulnhawk/pkg/runner"
	"vulnhawk/pkg/scan"
	"vulnhawk/pkg/testutil"
	"vulnhawk/pkg/tools"
)

// fakeAdapter is a registry entry whose findings are fixed up front, so
// orchestration can be tested without real tool output on disk.
type fakeAdapter struct {
	name     string
	findings []scan.Vulnerability
}

func (a *fakeAdapter) Name() string              { return a.name }
func (a *fakeAdapter) VersionArgs() []string     { return []string{"--version"} }
func (a *fakeAdapter) MaxTimeout() time.Duration { return time.Minute }

func (a *fakeAdapter) BuildCommand(opts *tools.Options) tools.Command {
	return tools.Command{Binary: a.name, Args: []string{"-u", opts.Target}}
}
func (a *fakeAdapter) ParseOutput(string, *runner.ExecResult) ([]scan.Vulnerability, error) {
	return a.findings, nil
}
func (a *fakeAdapter) MapSeverity(native string) scan.Severity {
	return scan.ParseSeverity(native)
}

type recordingNotifier struct {
	results []*scan.Result
}

func (n *recordingNotifier) ScanCompleted(_ context.Context, result *scan.Result) error {
	n.results = append(n.results, result)
	return nil
}

type recordingMetrics struct {
	tools []string
	scans int
}

func (m *recordingMetrics) ObserveTool(tool string, _ scan.InvocationStatus, _ time.Duration) {
	m.tools = append(m.tools, tool)
}
func (m *recordingMetrics) ObserveScan(*scan.Result) { m.scans++ }

func testRegistry(adapters ...tools.Adapter) *tools.Registry {
	registry := tools.NewRegistry()
	for _, a := range adapters {
		registry.Register(a)
	}
	return registry
}

func TestScanValidation(t *testing.T) {
	mock := testutil.NewMockCommandRunner()
	orchestrator := New(
		WithRunner(mock),
		WithRegistry(testRegistry(&fakeAdapter{name: "fake"})),
		WithOutputRoot(t.TempDir()),
	)

	tests := []struct {
		name    string
		req     *scan.Request
		errorIs error
	}{
		{
			name:    "no tools",
			req:     &scan.Request{Target: "http://example.com"},
			errorIs: vherrors.ErrNoToolsRequested,
		},
		{
			name:    "unknown tool",
			req:     &scan.Request{Target: "http://example.com", Tools: []string{"nessus"}},
			errorIs: vherrors.ErrToolNotFound,
		},
		{
			name: "empty target",
			req:  &scan.Request{Target: "", Tools: []string{"fake"}},
		},
		{
			name: "duplicate tool",
			req:  &scan.Request{Target: "http://example.com", Tools: []string{"fake", "fake"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := orchestrator.Scan(context.Background(), tt.req)
			require.Error(t, err)
			assert.Nil(t, result)
			if tt.errorIs != nil {
				assert.ErrorIs(t, err, tt.errorIs)
			}
			assert.Equal(t, err, orchestrator.ValidateRequest(tt.req))
		})
	}

	// Nothing was spawned for any invalid request.
	assert.Empty(t, mock.GetExecutedCommands())
}

func TestScanCompletedFlow(t *testing.T) {
	mock := testutil.NewMockCommandRunner()
	store, err := history.NewFileStore(t.TempDir())
	require.NoError(t, err)
	notifier := &recordingNotifier{}
	metrics := &recordingMetrics{}

	adapter := &fakeAdapter{
		name: "fake",
		findings: []scan.Vulnerability{
			{ID: "fake-1", Title: "Finding one", Severity: scan.SeverityHigh},
			{ID: "fake-2", Title: "Finding two", Severity: scan.SeverityInfo},
		},
	}

	orchestrator := New(
		WithRunner(mock),
		WithRegistry(testRegistry(adapter)),
		WithHistory(store),
		WithNotifier(notifier),
		WithMetrics(metrics),
		WithOutputRoot(t.TempDir()),
	)

	req := &scan.Request{Target: "example.com", Tools: []string{"fake"}}
	result, err := orchestrator.Scan(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.Equal(t, scan.ScanCompleted, result.Status)
	assert.NotEmpty(t, result.ID)
	assert.Equal(t, "http://example.com", result.Target, "bare hostnames are normalized")
	assert.Equal(t, []string{"fake"}, result.ToolOrder)

	inv := result.Invocations["fake"]
	require.NotNil(t, inv)
	assert.Equal(t, scan.StatusCompleted, inv.Status)
	assert.Len(t, inv.Vulnerabilities, 2)

	// Findings are aggregated with provenance stamped.
	require.Len(t, result.Vulnerabilities, 2)
	assert.Equal(t, "fake", result.Vulnerabilities[0].Tool)
	assert.Equal(t, result.ID, result.Vulnerabilities[0].ScanID)
	assert.Equal(t, 2, result.Summary.Total)
	assert.Equal(t, 1, result.Summary.High)

	// The tool was pointed at the normalized target.
	executed := mock.GetExecutedCommands()
	require.Len(t, executed, 1)
	assert.Equal(t, []string{"-u", "http://example.com"}, executed[0].Args)

	// Default reports plus the machine-readable record land in the scan dir.
	for _, name := range []string{"report.json", "report.html", "result.json", "scan.log"} {
		_, statErr := os.Stat(filepath.Join(result.OutputDir, name))
		assert.NoError(t, statErr, "expected %s to exist", name)
	}

	entries, err := store.Recent(0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, result.ID, entries[0].ScanID)

	require.Len(t, notifier.results, 1)
	assert.Equal(t, []string{"fake"}, metrics.tools)
	assert.Equal(t, 1, metrics.scans)
}

func TestScanSkipsUnavailableTools(t *testing.T) {
	mock := testutil.NewMockCommandRunner()
	mock.SetProbeError("absent", fmt.Errorf("executable file not found"))

	available := &fakeAdapter{
		name:     "present",
		findings: []scan.Vulnerability{{ID: "present-1", Severity: scan.SeverityLow}},
	}

	orchestrator := New(
		WithRunner(mock),
		WithRegistry(testRegistry(available, &fakeAdapter{name: "absent"})),
		WithOutputRoot(t.TempDir()),
	)

	req := &scan.Request{Target: "http://example.com", Tools: []string{"absent", "present"}}
	result, err := orchestrator.Scan(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, scan.ScanCompleted, result.Status)
	assert.Equal(t, scan.StatusSkipped, result.Invocations["absent"].Status)
	assert.Contains(t, result.Invocations["absent"].Error, "unavailable")
	assert.Equal(t, scan.StatusCompleted, result.Invocations["present"].Status)
	assert.Equal(t, 1, result.Summary.Total)

	// Only the available tool was spawned.
	executed := mock.GetExecutedCommands()
	require.Len(t, executed, 1)
	assert.Equal(t, "present", executed[0].Command)
}

func TestScanCancelled(t *testing.T) {
	mock := testutil.NewMockCommandRunner()

	orchestrator := New(
		WithRunner(mock),
		WithRegistry(testRegistry(&fakeAdapter{name: "fake"})),
		WithOutputRoot(t.TempDir()),
	)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	req := &scan.Request{Target: "http://example.com", Tools: []string{"fake"}}
	result, err := orchestrator.Scan(ctx, req)
	require.Error(t, err)
	require.NotNil(t, result, "a cancelled scan still returns its partial result")

	assert.Equal(t, scan.ScanFailed, result.Status)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, scan.StatusPending, result.Invocations["fake"].Status)
}

func TestScanParallelAggregation(t *testing.T) {
	mock := testutil.NewMockCommandRunner()

	first := &fakeAdapter{
		name:     "alpha",
		findings: []scan.Vulnerability{{ID: "alpha-1", Severity: scan.SeverityMedium}},
	}
	second := &fakeAdapter{
		name:     "beta",
		findings: []scan.Vulnerability{{ID: "beta-1", Severity: scan.SeverityCritical}},
	}

	orchestrator := New(
		WithRunner(mock),
		WithRegistry(testRegistry(first, second)),
		WithParallelism(2),
		WithOutputRoot(t.TempDir()),
	)

	req := &scan.Request{Target: "http://example.com", Tools: []string{"alpha", "beta"}}
	result, err := orchestrator.Scan(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, scan.ScanCompleted, result.Status)
	assert.Equal(t, 2, result.Summary.Total)
	assert.Equal(t, 1, result.Summary.Critical)
	assert.Equal(t, 1, result.Summary.Medium)
	assert.Len(t, mock.GetExecutedCommands(), 2)
}

func TestTools(t *testing.T) {
	orchestrator := New()
	names := orchestrator.Tools()
	assert.ElementsMatch(t, []string{"nikto", "zap", "wapiti", "nuclei", "sqlmap"}, names)
}
