package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// ScanLogger writes scan-scoped log output to the per-scan output directory
// in addition to the process log. Tool stdout/stderr captures are appended
// to scan.log, failures additionally to error.log.
type ScanLogger struct {
	*Logger
	scanID    string
	outputDir string
	logFile   *os.File
	errorFile *os.File
	mu        sync.Mutex
}

func NewScanLogger(scanID, outputDir string, level logrus.Level) (*ScanLogger, error) {
	baseLogger := NewLogger(level)

	logFile, err := os.OpenFile(filepath.Join(outputDir, "scan.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to create scan log file: %w", err)
	}

	errorFile, err := os.OpenFile(filepath.Join(outputDir, "error.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		logFile.Close()
		return nil, fmt.Errorf("failed to create error log file: %w", err)
	}

	fmt.Fprintf(logFile, "=== Scan %s started %s ===\n", scanID, time.Now().Format(time.RFC3339))

	baseLogger.Logger.SetOutput(io.MultiWriter(os.Stdout, logFile))

	return &ScanLogger{
		Logger:    baseLogger,
		scanID:    scanID,
		outputDir: outputDir,
		logFile:   logFile,
		errorFile: errorFile,
	}, nil
}

// LogToolOutput appends a tool's captured output to the scan log file.
func (sl *ScanLogger) LogToolOutput(toolName, stream, output string) {
	sl.mu.Lock()
	defer sl.mu.Unlock()

	fmt.Fprintf(sl.logFile, "\n--- [%s] %s (%s) ---\n%s\n--- end %s ---\n",
		time.Now().Format(time.RFC3339), toolName, stream, output, toolName)

	sl.WithFields(Fields{
		"tool":    toolName,
		"stream":  stream,
		"scan_id": sl.scanID,
	}).Debug("Tool output captured")
}

// LogToolError records a tool failure in both the scan log and error.log.
func (sl *ScanLogger) LogToolError(toolName string, err error) {
	sl.mu.Lock()
	defer sl.mu.Unlock()

	fmt.Fprintf(sl.errorFile, "[%s] [%s] tool %s: %v\n",
		time.Now().Format(time.RFC3339), sl.scanID, toolName, err)

	sl.WithTool(toolName).WithError(err).Error("Tool failed")
}

// Close flushes and closes the scan log files.
func (sl *ScanLogger) Close() error {
	sl.mu.Lock()
	defer sl.mu.Unlock()

	fmt.Fprintf(sl.logFile, "=== Scan %s finished %s ===\n", sl.scanID, time.Now().Format(time.RFC3339))
	sl.Logger.SetOutput(os.Stdout)

	errClose := sl.logFile.Close()
	if err := sl.errorFile.Close(); err != nil && errClose == nil {
		errClose = err
	}
	return errClose
}
