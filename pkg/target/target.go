// Package target validates and normalizes scan targets.
package target

import (
	"net"
	"net/url"
	"strings"

	"vulnhawk/pkg/errors"
)

// Target is a validated network endpoint.
type Target struct {
	Raw        string `json:"raw"`
	Normalized string `json:"normalized"`
	Scheme     string `json:"scheme,omitempty"`
	Host       string `json:"host,omitempty"`
	Port       string `json:"port,omitempty"`
	Path       string `json:"path,omitempty"`
	IsIP       bool   `json:"is_ip,omitempty"`
}

// Parse validates a raw target string. HTTP and HTTPS URLs are normalized;
// bare hostnames are retried with an http:// prefix; IP literals bypass URL
// parsing but must be valid IPv4/IPv6 syntax.
func Parse(raw string) (*Target, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, errors.NewValidationError("target", raw, "target is empty")
	}

	if ip := net.ParseIP(trimmed); ip != nil {
		return &Target{
			Raw:        raw,
			Normalized: trimmed,
			Host:       trimmed,
			IsIP:       true,
		}, nil
	}

	if !strings.Contains(trimmed, "://") {
		return parseURL(raw, "http://"+trimmed)
	}
	return parseURL(raw, trimmed)
}

func parseURL(raw, candidate string) (*Target, error) {
	u, err := url.Parse(candidate)
	if err != nil {
		return nil, errors.NewValidationError("target", raw, "not a valid URL")
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, errors.NewValidationError("target", raw, "unsupported scheme "+u.Scheme+" (only http and https)")
	}
	if u.Hostname() == "" {
		return nil, errors.NewValidationError("target", raw, "missing host")
	}

	return &Target{
		Raw:        raw,
		Normalized: u.String(),
		Scheme:     u.Scheme,
		Host:       u.Hostname(),
		Port:       u.Port(),
		Path:       u.Path,
	}, nil
}

// URL returns the address external tools should be pointed at. IP literals
// are handed to the tools unchanged.
func (t *Target) URL() string {
	return t.Normalized
}
