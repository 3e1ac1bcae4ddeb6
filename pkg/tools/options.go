package tools

import (
	"encoding/base64"
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"vulnhawk/pkg/scan"
)

// DefaultTimeout applies when neither the request nor a profile sets one.
const DefaultTimeout = 10 * time.Minute

// Options carries everything an adapter needs to build one invocation.
type Options struct {
	Target         string
	ScanID         string
	OutputDir      string
	Timeout        time.Duration
	SeverityFilter string
	CrawlDepth     int
	Modules        []string
	Auth           *scan.Auth
	Headers        map[string]string
	ExtraArgs      []string
}

// NewOptions merges a scan request and its per-tool overrides into the
// options for one tool invocation.
func NewOptions(req *scan.Request, tool, scanID, outputDir string) *Options {
	overrides := req.OptionsFor(tool)

	timeout := req.Timeout
	if overrides.Timeout > 0 {
		timeout = overrides.Timeout
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Options{
		Target:         req.Target,
		ScanID:         scanID,
		OutputDir:      outputDir,
		Timeout:        timeout,
		SeverityFilter: overrides.SeverityFilter,
		CrawlDepth:     overrides.CrawlDepth,
		Modules:        overrides.Modules,
		Auth:           req.Auth,
		Headers:        req.Headers,
		ExtraArgs:      overrides.ExtraArgs,
	}
}

// ClampTimeout bounds the requested timeout to a tool-specific maximum.
func (o *Options) ClampTimeout(max time.Duration) time.Duration {
	if o.Timeout <= 0 || o.Timeout > max {
		return max
	}
	return o.Timeout
}

// OutputFile returns the uniquely named artifact path for one tool run.
// Each adapter writes only to its own file under the scan output directory.
func (o *Options) OutputFile(tool, ext string) string {
	return filepath.Join(o.OutputDir, fmt.Sprintf("%s_%s.%s", tool, o.ScanID, ext))
}

// HeaderList renders custom headers as "Name: value" strings in a stable
// order for deterministic command construction.
func (o *Options) HeaderList() []string {
	if len(o.Headers) == 0 {
		return nil
	}
	keys := make([]string, 0, len(o.Headers))
	for k := range o.Headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	headers := make([]string, 0, len(keys))
	for _, k := range keys {
		headers = append(headers, fmt.Sprintf("%s: %s", k, o.Headers[k]))
	}
	return headers
}

// basicCredential renders the base64 credential for an Authorization: Basic
// header.
func basicCredential(auth *scan.Auth) string {
	return base64.StdEncoding.EncodeToString([]byte(auth.Username + ":" + auth.Password))
}
