package handlers

import (
	stderrors "errors"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"vulnhawk/internal/profiles"
	"vulnhawk/internal/services"
	vherrors "vulnhawk/pkg/errors"
	"vulnhawk/pkg/logger"
	"vulnhawk/pkg/report"
	"vulnhawk/pkg/scan"
)

type ScanHandler struct {
	scanService services.ScanService
	profiles    *profiles.Store
	renderer    *report.Renderer
	logger      *logger.Logger
}

func NewScanHandler(scanService services.ScanService, profileStore *profiles.Store) *ScanHandler {
	return &ScanHandler{
		scanService: scanService,
		profiles:    profileStore,
		renderer:    report.NewRenderer(),
		logger:      logger.NewLogger(logrus.InfoLevel),
	}
}

func (h *ScanHandler) StartScan(c *gin.Context) {
	var payload ScanRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		h.logger.WithError(err).Error("Failed to bind JSON")
		c.JSON(400, gin.H{"error": "Invalid request payload"})
		return
	}

	req, err := payload.ToScanRequest()
	if err != nil {
		c.JSON(400, gin.H{"error": err.Error()})
		return
	}
	if h.profiles != nil {
		if err := h.profiles.Apply(req); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
	}

	h.logger.WithFields(logger.Fields{"target": req.Target, "tools": req.Tools}).Info("Starting scan")
	id, err := h.scanService.StartScan(req)
	if err != nil {
		var validation *vherrors.ValidationError
		if stderrors.As(err, &validation) ||
			stderrors.Is(err, vherrors.ErrNoToolsRequested) ||
			stderrors.Is(err, vherrors.ErrToolNotFound) {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		h.logger.WithError(err).Error("Failed to start scan")
		c.JSON(500, gin.H{"error": "Failed to start scan"})
		return
	}
	c.JSON(202, ScanResponse{ScanID: id})
}

func (h *ScanHandler) GetScan(c *gin.Context) {
	state, ok := h.scanService.GetScan(c.Param("id"))
	if !ok {
		c.JSON(404, gin.H{"error": "Scan not found"})
		return
	}
	c.JSON(200, state)
}

func (h *ScanHandler) ListScans(c *gin.Context) {
	c.JSON(200, gin.H{"scans": h.scanService.ListScans()})
}

func (h *ScanHandler) CancelScan(c *gin.Context) {
	if err := h.scanService.CancelScan(c.Param("id")); err != nil {
		c.JSON(404, gin.H{"error": err.Error()})
		return
	}
	c.JSON(200, gin.H{"status": "cancelling"})
}

// GetReport renders a finished scan in the requested format
// (?format=json|html|csv|xml|markdown|text, default json).
func (h *ScanHandler) GetReport(c *gin.Context) {
	state, ok := h.scanService.GetScan(c.Param("id"))
	if !ok {
		c.JSON(404, gin.H{"error": "Scan not found"})
		return
	}
	if state.Result == nil || state.Status == scan.ScanRunning {
		c.JSON(409, gin.H{"error": "Scan still running"})
		return
	}

	format := report.Format(c.DefaultQuery("format", "json"))
	out, err := h.renderer.Render(state.Result, format)
	if err != nil {
		var unsupported *vherrors.UnsupportedFormatError
		if stderrors.As(err, &unsupported) {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		h.logger.WithError(err).Error("Failed to render report")
		c.JSON(500, gin.H{"error": "Failed to render report"})
		return
	}
	c.Data(200, contentTypeFor(format), []byte(out))
}

func (h *ScanHandler) History(c *gin.Context) {
	entries, err := h.scanService.Recent(50)
	if err != nil {
		h.logger.WithError(err).Error("Failed to load scan history")
		c.JSON(500, gin.H{"error": "Failed to load scan history"})
		return
	}
	c.JSON(200, gin.H{"history": entries})
}

func (h *ScanHandler) ListTools(c *gin.Context) {
	c.JSON(200, gin.H{"tools": h.scanService.Tools()})
}

func (h *ScanHandler) ListProfiles(c *gin.Context) {
	if h.profiles == nil {
		c.JSON(200, gin.H{"profiles": []string{}})
		return
	}
	c.JSON(200, gin.H{"profiles": h.profiles.Names()})
}

func contentTypeFor(format report.Format) string {
	switch format {
	case report.FormatJSON:
		return "application/json"
	case report.FormatHTML:
		return "text/html; charset=utf-8"
	case report.FormatCSV:
		return "text/csv"
	case report.FormatXML:
		return "application/xml"
	default:
		return "text/plain; charset=utf-8"
	}
}
