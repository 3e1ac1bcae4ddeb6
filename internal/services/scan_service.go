package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"vulnhawk/pkg/history"
	"vulnhawk/pkg/logger"
	"vulnhawk/pkg/scan"
	"vulnhawk/pkg/scanner"
)

// ScanService runs scans in the background for the API layer and tracks
// their live state in memory. Terminal results are also persisted through
// the orchestrator's history store.
type ScanService interface {
	StartScan(req *scan.Request) (string, error)
	GetScan(id string) (*ScanState, bool)
	ListScans() []*ScanState
	CancelScan(id string) error
	Recent(n int) ([]history.Entry, error)
	Tools() []string
}

// ScanState is the service's view of one scan.
type ScanState struct {
	ID      string          `json:"id"`
	Target  string          `json:"target"`
	Status  scan.ScanStatus `json:"status"`
	Result  *scan.Result    `json:"result,omitempty"`
	Error   string          `json:"error,omitempty"`
	Request *scan.Request   `json:"request,omitempty"`
}

type scanService struct {
	orchestrator *scanner.Orchestrator
	store        history.Store
	outputRoot   string
	logger       *logger.Logger

	mu      sync.RWMutex
	scans   map[string]*ScanState
	cancels map[string]context.CancelFunc
}

func NewScanService(orchestrator *scanner.Orchestrator, store history.Store, outputRoot string) ScanService {
	if outputRoot == "" {
		outputRoot = "scans"
	}
	return &scanService{
		orchestrator: orchestrator,
		store:        store,
		outputRoot:   outputRoot,
		logger:       logger.NewLogger(logrus.InfoLevel),
		scans:        make(map[string]*ScanState),
		cancels:      make(map[string]context.CancelFunc),
	}
}

// StartScan validates the request synchronously, then runs the scan in the
// background under the returned ID.
func (s *scanService) StartScan(req *scan.Request) (string, error) {
	// Surface validation failures to the caller instead of a background log.
	if err := s.orchestrator.ValidateRequest(req); err != nil {
		return "", err
	}

	id := uuid.New().String()
	if req.OutputDir == "" {
		req.OutputDir = filepath.Join(s.outputRoot, "scan_"+id)
	}
	if err := os.MkdirAll(req.OutputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	s.mu.Lock()
	state := &ScanState{
		ID:      id,
		Target:  req.Target,
		Status:  scan.ScanRunning,
		Request: req,
	}
	s.scans[id] = state
	s.cancels[id] = cancel
	s.mu.Unlock()

	monitorDone := make(chan struct{})
	go monitorOutputDir(ctx, id, req.OutputDir, s.logger, monitorDone)

	go func() {
		defer func() {
			cancel()
			<-monitorDone
			if r := recover(); r != nil {
				s.logger.WithFields(logger.Fields{"scan": id, "panic": r}).Error("Panic in background scan")
				s.setFailed(id, fmt.Sprintf("panic: %v", r))
			}
		}()

		result, err := s.orchestrator.Scan(ctx, req)

		s.mu.Lock()
		defer s.mu.Unlock()
		state.Result = result
		if err != nil {
			state.Status = scan.ScanFailed
			state.Error = err.Error()
			s.logger.WithFields(logger.Fields{"scan": id}).WithError(err).Error("Scan failed")
			return
		}
		state.Status = result.Status
	}()

	return id, nil
}

func (s *scanService) setFailed(id, msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if state, ok := s.scans[id]; ok {
		state.Status = scan.ScanFailed
		state.Error = msg
	}
}

// GetScan returns a snapshot of the scan's state. The live struct is
// mutated by the background goroutine under s.mu, so callers get a copy.
func (s *scanService) GetScan(id string) (*ScanState, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state, ok := s.scans[id]
	if !ok {
		return nil, false
	}
	snapshot := *state
	return &snapshot, true
}

func (s *scanService) ListScans() []*ScanState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*ScanState, 0, len(s.scans))
	for _, state := range s.scans {
		snapshot := *state
		out = append(out, &snapshot)
	}
	return out
}

// CancelScan aborts a running scan. Tools in flight receive the graceful
// termination sequence; the partial result is kept.
func (s *scanService) CancelScan(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cancel, ok := s.cancels[id]
	if !ok {
		return fmt.Errorf("scan %s not found", id)
	}
	cancel()
	delete(s.cancels, id)
	return nil
}

func (s *scanService) Recent(n int) ([]history.Entry, error) {
	if s.store == nil {
		return nil, nil
	}
	return s.store.Recent(n)
}

func (s *scanService) Tools() []string {
	return s.orchestrator.Tools()
}
