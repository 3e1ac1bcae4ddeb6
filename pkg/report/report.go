// Package report renders a finished scan result into the supported output
// encodings. Rendering is read-only: a Report is a derived string, never a
// persisted entity.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"vulnhawk/pkg/errors"
	"vulnhawk/pkg/logger"
	"vulnhawk/pkg/scan"
)

// Format identifies one report encoding.
type Format string

const (
	FormatJSON     Format = "json"
	FormatHTML     Format = "html"
	FormatCSV      Format = "csv"
	FormatXML      Format = "xml"
	FormatMarkdown Format = "markdown"
	FormatText     Format = "text"
)

// extensions is the fixed format -> file extension table. File extensions
// are never derived from user input.
var extensions = map[Format]string{
	FormatJSON:     "json",
	FormatHTML:     "html",
	FormatCSV:      "csv",
	FormatXML:      "xml",
	FormatMarkdown: "md",
	FormatText:     "txt",
}

// Renderer encodes scan results. The zero value is not usable; construct
// with NewRenderer.
type Renderer struct {
	logger *logger.Logger

	// now stamps generated_at fields; replaceable in tests.
	now func() time.Time
}

func NewRenderer() *Renderer {
	return &Renderer{
		logger: logger.NewLogger(logrus.InfoLevel),
		now:    time.Now,
	}
}

// Render encodes the result in one format. An unknown format yields an
// UnsupportedFormatError and no output.
func (r *Renderer) Render(result *scan.Result, format Format) (string, error) {
	switch format {
	case FormatJSON:
		return r.renderJSON(result)
	case FormatHTML:
		return r.renderHTML(result)
	case FormatCSV:
		return r.renderCSV(result)
	case FormatXML:
		return r.renderXML(result)
	case FormatMarkdown:
		return r.renderMarkdown(result)
	case FormatText:
		return r.RenderText(result, TextOptions{Detailed: true})
	default:
		return "", &errors.UnsupportedFormatError{Format: string(format)}
	}
}

// RenderMultiple encodes the result once per requested format. It fails on
// the first unsupported format without producing partial output.
func (r *Renderer) RenderMultiple(result *scan.Result, formats []Format) (map[Format]string, error) {
	reports := make(map[Format]string, len(formats))
	for _, format := range formats {
		out, err := r.Render(result, format)
		if err != nil {
			return nil, err
		}
		reports[format] = out
	}
	return reports, nil
}

// WriteReports renders each format and writes it to dir as
// report.<extension>. All formats are validated before anything is written.
func (r *Renderer) WriteReports(result *scan.Result, dir string, formats []Format) ([]string, error) {
	reports, err := r.RenderMultiple(result, formats)
	if err != nil {
		return nil, err
	}

	paths := make([]string, 0, len(formats))
	for _, format := range formats {
		path := filepath.Join(dir, "report."+extensions[format])
		if err := os.WriteFile(path, []byte(reports[format]), 0644); err != nil {
			return paths, fmt.Errorf("failed to write %s report: %w", format, err)
		}
		r.logger.WithFields(logger.Fields{
			"format": string(format),
			"path":   path,
		}).Info("Report written")
		paths = append(paths, path)
	}
	return paths, nil
}

// WriteDefaultReports writes the default on-disk reports (JSON and HTML)
// next to the tool artifacts after a completed scan.
func (r *Renderer) WriteDefaultReports(result *scan.Result) ([]string, error) {
	return r.WriteReports(result, result.OutputDir, []Format{FormatJSON, FormatHTML})
}

// severityColors is the fixed severity -> display color table shared by the
// HTML view and the enriched JSON schema.
var severityColors = map[scan.Severity]string{
	scan.SeverityCritical: "#8b0000",
	scan.SeverityHigh:     "#e53935",
	scan.SeverityMedium:   "#fb8c00",
	scan.SeverityLow:      "#fdd835",
	scan.SeverityInfo:     "#1e88e5",
}

var severityIcons = map[scan.Severity]string{
	scan.SeverityCritical: "🔥",
	scan.SeverityHigh:     "🔴",
	scan.SeverityMedium:   "🟠",
	scan.SeverityLow:      "🟡",
	scan.SeverityInfo:     "🔵",
}
