package handlers

import (
	"time"

	"vulnhawk/pkg/scan"
)

type ScanRequest struct {
	Target      string                      `json:"target" binding:"required"`
	Tools       []string                    `json:"tools"`
	Profile     string                      `json:"profile"`
	Project     string                      `json:"project"`
	Timeout     string                      `json:"timeout"`
	Parallelism int                         `json:"parallelism"`
	Headers     map[string]string           `json:"headers"`
	Auth        *scan.Auth                  `json:"auth"`
	ToolOptions map[string]scan.ToolOptions `json:"tool_options"`
}

// ToScanRequest converts the wire payload to the internal request.
func (r *ScanRequest) ToScanRequest() (*scan.Request, error) {
	req := &scan.Request{
		Target:      r.Target,
		Tools:       r.Tools,
		Profile:     r.Profile,
		Project:     r.Project,
		Parallelism: r.Parallelism,
		Headers:     r.Headers,
		Auth:        r.Auth,
		ToolOptions: r.ToolOptions,
	}
	if r.Timeout != "" {
		d, err := time.ParseDuration(r.Timeout)
		if err != nil {
			return nil, err
		}
		req.Timeout = d
	}
	return req, nil
}

type ScanResponse struct {
	ScanID string `json:"scan_id"`
}
