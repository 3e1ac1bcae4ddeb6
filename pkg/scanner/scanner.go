// Package scanner orchestrates a scan: it validates the request, probes
// tool availability, runs the adapters, aggregates their findings and hands
// the result to the renderer and the history store.
package scanner

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	vherrors "vulnhawk/pkg/errors"
	"vulnhawk/pkg/history"
	"vulnhawk/pkg/logger"
	"vulnhawk/pkg/report"
	"vulnhawk/pkg/runner"
	"vulnhawk/pkg/scan"
	"vulnhawk/pkg/target"
	"vulnhawk/pkg/tools"
)

// Notifier is told about finished scans. Delivery failures never fail the
// scan.
type Notifier interface {
	ScanCompleted(ctx context.Context, result *scan.Result) error
}

// Metrics receives per-tool and per-scan observations.
type Metrics interface {
	ObserveTool(tool string, status scan.InvocationStatus, duration time.Duration)
	ObserveScan(result *scan.Result)
}

// Orchestrator coordinates one scan at a time per Scan call. It is safe for
// concurrent Scan calls; all per-scan state lives on the Result.
type Orchestrator struct {
	runner      runner.CommandRunner
	registry    *tools.Registry
	executor    *tools.Executor
	renderer    *report.Renderer
	history     history.Store
	notifier    Notifier
	metrics     Metrics
	parallelism int
	outputRoot  string
	logger      *logger.Logger
}

// OptFunc customizes an Orchestrator.
type OptFunc func(*Orchestrator)

func WithRunner(r runner.CommandRunner) OptFunc {
	return func(o *Orchestrator) { o.runner = r }
}

func WithRegistry(reg *tools.Registry) OptFunc {
	return func(o *Orchestrator) { o.registry = reg }
}

func WithRenderer(r *report.Renderer) OptFunc {
	return func(o *Orchestrator) { o.renderer = r }
}

func WithHistory(s history.Store) OptFunc {
	return func(o *Orchestrator) { o.history = s }
}

func WithNotifier(n Notifier) OptFunc {
	return func(o *Orchestrator) { o.notifier = n }
}

func WithMetrics(m Metrics) OptFunc {
	return func(o *Orchestrator) { o.metrics = m }
}

// WithParallelism sets the default number of tools run concurrently.
// Values below 2 keep the default sequential execution.
func WithParallelism(n int) OptFunc {
	return func(o *Orchestrator) { o.parallelism = n }
}

// WithOutputRoot sets the directory under which per-scan output directories
// are created when the request does not name one.
func WithOutputRoot(dir string) OptFunc {
	return func(o *Orchestrator) { o.outputRoot = dir }
}

// New builds an orchestrator with the default process runner and adapter
// registry, then applies the options.
func New(opts ...OptFunc) *Orchestrator {
	o := &Orchestrator{
		runner:     runner.NewProcessRunner(),
		registry:   tools.NewDefaultRegistry(),
		renderer:   report.NewRenderer(),
		outputRoot: "scans",
		logger:     logger.NewLogger(logrus.InfoLevel),
	}
	for _, opt := range opts {
		opt(o)
	}
	o.executor = tools.NewExecutor(o.runner)
	return o
}

// Tools returns the identifiers of all registered adapters.
func (o *Orchestrator) Tools() []string {
	return o.registry.Names()
}

// Scan runs the requested tools against the target and returns the
// aggregated result. Validation failures return before any subprocess is
// spawned. Per-tool failures are contained in the result; Scan itself only
// errors when the request is invalid, the output directory cannot be
// prepared, or the context is cancelled mid-scan.
func (o *Orchestrator) Scan(ctx context.Context, req *scan.Request) (*scan.Result, error) {
	tgt, adapters, err := o.validate(req)
	if err != nil {
		return nil, err
	}

	scanID := uuid.New().String()
	outputDir := req.OutputDir
	if outputDir == "" {
		outputDir = filepath.Join(o.outputRoot, "scan_"+scanID)
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	result := scan.NewResult(scanID, tgt.Normalized, outputDir)
	result.ToolOrder = req.Tools
	result.Project = req.Project
	result.Profile = req.Profile

	scanLog, err := logger.NewScanLogger(scanID, outputDir, logrus.InfoLevel)
	if err != nil {
		return nil, fmt.Errorf("failed to open scan log: %w", err)
	}
	defer scanLog.Close()

	scanLog.WithScan(scanID, result.Target).WithFields(logrus.Fields{
		"tools": req.Tools,
	}).Info("Scan started")

	// Every requested tool gets an invocation record before anything runs,
	// so skipped tools are visible in the result.
	for _, name := range req.Tools {
		result.Invocations[name] = &scan.ToolInvocation{
			Tool:   name,
			Status: scan.StatusPending,
		}
	}

	runnable := o.probe(ctx, req.Tools, adapters, result, scanLog)
	o.execute(ctx, req, runnable, adapters, result, scanLog)

	result.FinishedAt = time.Now()
	result.Duration = result.FinishedAt.Sub(result.StartedAt)

	var scanErr error
	if ctx.Err() != nil {
		result.Status = scan.ScanFailed
		result.Error = ctx.Err().Error()
		scanErr = fmt.Errorf("scan aborted: %w", ctx.Err())
	} else {
		result.Status = scan.ScanCompleted
	}

	o.finish(ctx, result, scanLog)
	return result, scanErr
}

// ValidateRequest checks a request without executing it. It returns the
// same errors Scan would return before spawning anything.
func (o *Orchestrator) ValidateRequest(req *scan.Request) error {
	_, _, err := o.validate(req)
	return err
}

// validate checks the request and resolves every tool before anything is
// executed.
func (o *Orchestrator) validate(req *scan.Request) (*target.Target, map[string]tools.Adapter, error) {
	if len(req.Tools) == 0 {
		return nil, nil, vherrors.ErrNoToolsRequested
	}

	tgt, err := target.Parse(req.Target)
	if err != nil {
		return nil, nil, err
	}

	adapters := make(map[string]tools.Adapter, len(req.Tools))
	seen := make(map[string]bool, len(req.Tools))
	for _, name := range req.Tools {
		if seen[name] {
			return nil, nil, vherrors.NewValidationError("tools", name, "tool requested more than once")
		}
		seen[name] = true

		adapter, ok := o.registry.Get(name)
		if !ok {
			return nil, nil, fmt.Errorf("%w: %s", vherrors.ErrToolNotFound, name)
		}
		adapters[name] = adapter
	}
	return tgt, adapters, nil
}

// probe marks unavailable tools skipped and returns the names that can run,
// in request order.
func (o *Orchestrator) probe(ctx context.Context, names []string, adapters map[string]tools.Adapter, result *scan.Result, scanLog *logger.ScanLogger) []string {
	prober, ok := o.runner.(runner.Prober)
	if !ok {
		return names
	}

	runnable := make([]string, 0, len(names))
	for _, name := range names {
		if err := prober.Probe(ctx, name, adapters[name].VersionArgs()); err != nil {
			unavailable := vherrors.NewToolUnavailableError(name, err)
			inv := result.Invocations[name]
			inv.Status = scan.StatusSkipped
			inv.Error = unavailable.Error()
			scanLog.LogToolError(name, unavailable)
			continue
		}
		runnable = append(runnable, name)
	}
	return runnable
}

// execute runs the tools sequentially, or through a bounded worker pool
// when parallelism is requested.
func (o *Orchestrator) execute(ctx context.Context, req *scan.Request, names []string, adapters map[string]tools.Adapter, result *scan.Result, scanLog *logger.ScanLogger) {
	workers := req.Parallelism
	if workers <= 0 {
		workers = o.parallelism
	}
	if workers <= 1 {
		for _, name := range names {
			if ctx.Err() != nil {
				return
			}
			o.runTool(ctx, req, name, adapters[name], result, scanLog, nil)
		}
		return
	}

	var mu sync.Mutex
	var wg sync.WaitGroup
	queue := make(chan string)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for name := range queue {
				o.runTool(ctx, req, name, adapters[name], result, scanLog, &mu)
			}
		}()
	}
	for _, name := range names {
		queue <- name
	}
	close(queue)
	wg.Wait()
}

// runTool executes one adapter and folds its outcome into the result. When
// mu is non-nil the result mutation is serialized for concurrent workers.
func (o *Orchestrator) runTool(ctx context.Context, req *scan.Request, name string, adapter tools.Adapter, result *scan.Result, scanLog *logger.ScanLogger, mu *sync.Mutex) {
	inv := result.Invocations[name]
	inv.Status = scan.StatusRunning
	inv.StartedAt = time.Now()

	opts := tools.NewOptions(req, name, result.ID, result.OutputDir)
	opts.Target = result.Target

	toolResult := o.executor.Run(ctx, adapter, opts)

	if mu != nil {
		mu.Lock()
		defer mu.Unlock()
	}

	inv.FinishedAt = time.Now()
	inv.Status = toolResult.Status
	inv.Command = toolResult.Command
	inv.OutputFile = toolResult.OutputFile
	inv.Stdout = toolResult.Stdout
	inv.Stderr = toolResult.Stderr
	inv.Error = toolResult.Error
	inv.Vulnerabilities = toolResult.Vulnerabilities

	if toolResult.Stdout != "" {
		scanLog.LogToolOutput(name, "stdout", toolResult.Stdout)
	}
	if toolResult.Stderr != "" {
		scanLog.LogToolOutput(name, "stderr", toolResult.Stderr)
	}
	if toolResult.Error != "" {
		scanLog.LogToolError(name, fmt.Errorf("%s", toolResult.Error))
	}

	result.Aggregate(inv)

	if o.metrics != nil {
		o.metrics.ObserveTool(name, inv.Status, toolResult.Duration)
	}
}

// finish writes the default reports, persists the result and notifies.
// None of these failures change the scan outcome; they are logged and
// dropped.
func (o *Orchestrator) finish(ctx context.Context, result *scan.Result, scanLog *logger.ScanLogger) {
	if _, err := o.renderer.WriteDefaultReports(result); err != nil {
		scanLog.WithError(err).Error("Failed to write reports")
	}

	// result.json is the full machine-readable record; `vulnhawk report`
	// re-renders from it.
	if data, err := json.MarshalIndent(result, "", "  "); err == nil {
		path := filepath.Join(result.OutputDir, "result.json")
		if err := os.WriteFile(path, data, 0644); err != nil {
			scanLog.WithError(err).Error("Failed to write result.json")
		}
	}

	if o.history != nil {
		if err := o.history.Persist(result); err != nil {
			scanLog.WithError(err).Error("Failed to persist scan history")
		}
	}

	if o.notifier != nil {
		if err := o.notifier.ScanCompleted(ctx, result); err != nil {
			scanLog.WithError(err).Error("Failed to deliver scan notification")
		}
	}

	if o.metrics != nil {
		o.metrics.ObserveScan(result)
	}

	scanLog.WithScan(result.ID, result.Target).WithFields(logrus.Fields{
		"status":   string(result.Status),
		"findings": result.Summary.Total,
		"duration": result.Duration.Round(time.Millisecond).String(),
	}).Info("Scan finished")
}
