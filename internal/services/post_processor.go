package services

import (
	"context"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"vulnhawk/internal/analyst"
	"vulnhawk/internal/artifacts"
	"vulnhawk/pkg/logger"
	"vulnhawk/pkg/scan"
	"vulnhawk/pkg/scanner"
)

// PostProcessor runs the optional after-scan steps: an AI remediation
// summary, artifact upload to object storage, and downstream notifiers.
// Every step is independent; one failing never blocks the others.
type PostProcessor struct {
	analyst   *analyst.Client
	uploader  *artifacts.Store
	notifiers []scanner.Notifier
	logger    *logger.Logger
}

func NewPostProcessor(analystClient *analyst.Client, uploader *artifacts.Store, notifiers ...scanner.Notifier) *PostProcessor {
	return &PostProcessor{
		analyst:   analystClient,
		uploader:  uploader,
		notifiers: notifiers,
		logger:    logger.NewLogger(logrus.InfoLevel),
	}
}

// ScanCompleted implements scanner.Notifier.
func (p *PostProcessor) ScanCompleted(ctx context.Context, result *scan.Result) error {
	if p.analyst != nil && result.Summary.Total > 0 {
		summary, err := p.analyst.Summarize(ctx, result)
		if err != nil {
			p.logger.WithScan(result.ID, result.Target).WithError(err).Warn("Failed to generate AI summary")
		} else {
			path := filepath.Join(result.OutputDir, "summary.md")
			if err := os.WriteFile(path, []byte(summary), 0644); err != nil {
				p.logger.WithError(err).Warn("Failed to write AI summary")
			} else {
				p.logger.WithScan(result.ID, result.Target).Info("AI summary written")
			}
		}
	}

	if p.uploader != nil {
		urls, err := p.uploader.UploadScanDir(ctx, result.ID, result.OutputDir)
		if err != nil {
			p.logger.WithScan(result.ID, result.Target).WithError(err).Warn("Failed to upload scan artifacts")
		} else {
			p.logger.WithFields(logger.Fields{
				"scan_id": result.ID,
				"count":   len(urls),
			}).Info("Scan artifacts uploaded")
		}
	}

	for _, n := range p.notifiers {
		if err := n.ScanCompleted(ctx, result); err != nil {
			p.logger.WithScan(result.ID, result.Target).WithError(err).Warn("Notifier failed")
		}
	}
	return nil
}
