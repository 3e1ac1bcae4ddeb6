package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vulnhawk/internal/profiles"
	"vulnhawk/internal/services"
	vherrors "vulnhawk/pkg/errors"
	"vulnhawk/pkg/history"
	"vulnhawk/pkg/scan"
)

// stubScanService records calls and serves canned state.
type stubScanService struct {
	startErr    error
	startedReq  *scan.Request
	states      map[string]*services.ScanState
	cancelErr   error
	cancelledID string
}

func (s *stubScanService) StartScan(req *scan.Request) (string, error) {
	s.startedReq = req
	if s.startErr != nil {
		return "", s.startErr
	}
	return "scan-id-1", nil
}

func (s *stubScanService) GetScan(id string) (*services.ScanState, bool) {
	state, ok := s.states[id]
	return state, ok
}

func (s *stubScanService) ListScans() []*services.ScanState {
	out := make([]*services.ScanState, 0, len(s.states))
	for _, state := range s.states {
		out = append(out, state)
	}
	return out
}

func (s *stubScanService) CancelScan(id string) error {
	s.cancelledID = id
	return s.cancelErr
}

func (s *stubScanService) Recent(n int) ([]history.Entry, error) {
	return []history.Entry{{ScanID: "old-scan"}}, nil
}

func (s *stubScanService) Tools() []string {
	return []string{"nikto", "zap"}
}

func setupRouter(svc services.ScanService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	store, _ := profiles.Load("")
	h := NewScanHandler(svc, store)

	r := gin.New()
	r.POST("/api/scans", h.StartScan)
	r.GET("/api/scans/:id", h.GetScan)
	r.GET("/api/scans/:id/report", h.GetReport)
	r.DELETE("/api/scans/:id", h.CancelScan)
	r.GET("/api/tools", h.ListTools)
	return r
}

func postJSON(t *testing.T, router *gin.Engine, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest("POST", path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestStartScanAccepted(t *testing.T) {
	svc := &stubScanService{}
	router := setupRouter(svc)

	w := postJSON(t, router, "/api/scans", map[string]interface{}{
		"target": "http://example.com",
		"tools":  []string{"nikto"},
	})

	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Contains(t, w.Body.String(), "scan-id-1")
	require.NotNil(t, svc.startedReq)
	assert.Equal(t, "http://example.com", svc.startedReq.Target)
}

func TestStartScanAppliesProfile(t *testing.T) {
	svc := &stubScanService{}
	router := setupRouter(svc)

	w := postJSON(t, router, "/api/scans", map[string]interface{}{
		"target":  "http://example.com",
		"profile": "quick",
	})

	assert.Equal(t, http.StatusAccepted, w.Code)
	require.NotNil(t, svc.startedReq)
	assert.Equal(t, []string{"nuclei", "zap"}, svc.startedReq.Tools)
}

func TestStartScanBadRequests(t *testing.T) {
	tests := []struct {
		name     string
		startErr error
		body     map[string]interface{}
		wantCode int
	}{
		{
			name:     "missing target",
			body:     map[string]interface{}{"tools": []string{"nikto"}},
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "bad timeout",
			body:     map[string]interface{}{"target": "http://example.com", "timeout": "soon"},
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "unknown profile",
			body:     map[string]interface{}{"target": "http://example.com", "profile": "nope"},
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "validation failure",
			startErr: vherrors.NewValidationError("target", "x", "bad"),
			body:     map[string]interface{}{"target": "http://example.com", "tools": []string{"nikto"}},
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "unknown tool",
			startErr: fmt.Errorf("%w: nessus", vherrors.ErrToolNotFound),
			body:     map[string]interface{}{"target": "http://example.com", "tools": []string{"nessus"}},
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "internal failure",
			startErr: fmt.Errorf("disk full"),
			body:     map[string]interface{}{"target": "http://example.com", "tools": []string{"nikto"}},
			wantCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := setupRouter(&stubScanService{startErr: tt.startErr})
			w := postJSON(t, router, "/api/scans", tt.body)
			assert.Equal(t, tt.wantCode, w.Code)
		})
	}
}

func TestGetScan(t *testing.T) {
	svc := &stubScanService{states: map[string]*services.ScanState{
		"abc": {ID: "abc", Target: "http://example.com", Status: scan.ScanRunning},
	}}
	router := setupRouter(svc)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/api/scans/abc", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"running"`)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/api/scans/missing", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetReport(t *testing.T) {
	result := scan.NewResult("abc", "http://example.com", "")
	result.Status = scan.ScanCompleted

	svc := &stubScanService{states: map[string]*services.ScanState{
		"abc":     {ID: "abc", Status: scan.ScanCompleted, Result: result},
		"running": {ID: "running", Status: scan.ScanRunning},
	}}
	router := setupRouter(svc)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/api/scans/abc/report?format=csv", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/api/scans/abc/report?format=pdf", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/api/scans/running/report", nil))
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestCancelScan(t *testing.T) {
	svc := &stubScanService{}
	router := setupRouter(svc)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("DELETE", "/api/scans/abc", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "abc", svc.cancelledID)

	router = setupRouter(&stubScanService{cancelErr: fmt.Errorf("scan not found")})
	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("DELETE", "/api/scans/abc", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListTools(t *testing.T) {
	router := setupRouter(&stubScanService{})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/api/tools", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "nikto")
}
