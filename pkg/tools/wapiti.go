package tools

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"vulnhawk/pkg/errors"
	"vulnhawk/pkg/runner"
	"vulnhawk/pkg/scan"
)

const wapitiMaxTimeout = 45 * time.Minute

// WapitiAdapter drives the wapiti crawling application scanner and parses
// its category-keyed JSON report.
type WapitiAdapter struct{}

func NewWapitiAdapter() *WapitiAdapter {
	return &WapitiAdapter{}
}

func (a *WapitiAdapter) Name() string { return "wapiti" }

func (a *WapitiAdapter) VersionArgs() []string { return []string{"--version"} }

func (a *WapitiAdapter) MaxTimeout() time.Duration { return wapitiMaxTimeout }

func (a *WapitiAdapter) BuildCommand(opts *Options) Command {
	outputFile := opts.OutputFile("wapiti", "json")
	timeout := opts.ClampTimeout(a.MaxTimeout())

	args := []string{
		"-u", opts.Target,
		"-f", "json",
		"-o", outputFile,
		"--max-attack-time", fmt.Sprintf("%d", int(timeout.Seconds())),
		"--flush-session",
	}

	if opts.CrawlDepth > 0 {
		args = append(args, "-d", fmt.Sprintf("%d", opts.CrawlDepth))
	}
	if len(opts.Modules) > 0 {
		args = append(args, "-m", strings.Join(opts.Modules, ","))
	}

	if opts.Auth != nil {
		switch opts.Auth.Type {
		case scan.AuthBasic:
			args = append(args, "-a", opts.Auth.Username+"%"+opts.Auth.Password, "--auth-method", "basic")
		case scan.AuthDigest:
			args = append(args, "-a", opts.Auth.Username+"%"+opts.Auth.Password, "--auth-method", "digest")
		case scan.AuthForm:
			args = append(args, "-a", opts.Auth.Username+"%"+opts.Auth.Password, "--auth-method", "post")
			if opts.Auth.LoginURL != "" {
				args = append(args, "--auth-url", opts.Auth.LoginURL)
			}
		case scan.AuthCookie:
			args = append(args, "-H", "Cookie: "+opts.Auth.Cookie)
		}
	}

	for _, h := range opts.HeaderList() {
		args = append(args, "-H", h)
	}

	args = append(args, opts.ExtraArgs...)

	return Command{Binary: "wapiti", Args: args, OutputFile: outputFile}
}

// wapitiReport mirrors wapiti's JSON report: vulnerabilities keyed by
// category, each entry carrying the module test id, a 0-3 level and the
// attacked request.
type wapitiReport struct {
	Vulnerabilities map[string][]wapitiEntry `json:"vulnerabilities"`
	Infos           wapitiInfos              `json:"infos"`
}

type wapitiInfos struct {
	Target string `json:"target"`
}

type wapitiEntry struct {
	Module      string `json:"module"`
	Level       int    `json:"level"`
	Info        string `json:"info"`
	Method      string `json:"method"`
	Path        string `json:"path"`
	Parameter   string `json:"parameter"`
	HTTPRequest string `json:"http_request"`
	CurlCommand string `json:"curl_command"`
}

func (a *WapitiAdapter) ParseOutput(outputFile string, _ *runner.ExecResult) ([]scan.Vulnerability, error) {
	data, err := os.ReadFile(outputFile)
	if err != nil {
		return nil, errors.NewParseError(a.Name(), outputFile, err)
	}

	var report wapitiReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, errors.NewParseError(a.Name(), outputFile, err)
	}

	var vulns []scan.Vulnerability
	for category, entries := range report.Vulnerabilities {
		for i, entry := range entries {
			id := entry.Module
			if id == "" {
				id = strings.ToLower(strings.ReplaceAll(category, " ", "_"))
			}

			vulns = append(vulns, scan.Vulnerability{
				ID:          fmt.Sprintf("wapiti-%s-%d", id, i),
				Title:       category,
				Severity:    a.MapSeverity(fmt.Sprintf("%d", entry.Level)),
				Description: entry.Info,
				URL:         joinTargetPath(report.Infos.Target, entry.Path),
				Method:      entry.Method,
				Parameter:   entry.Parameter,
				Category:    category,
				Evidence:    entry.HTTPRequest,
				Extra: map[string]string{
					"curl_command": entry.CurlCommand,
				},
			})
		}
	}
	return vulns, nil
}

// MapSeverity maps wapiti's integer level: 1 low, 2 medium, 3 high,
// 0 or anything else info.
func (a *WapitiAdapter) MapSeverity(native string) scan.Severity {
	switch strings.TrimSpace(native) {
	case "3":
		return scan.SeverityHigh
	case "2":
		return scan.SeverityMedium
	case "1":
		return scan.SeverityLow
	default:
		return scan.SeverityInfo
	}
}

func joinTargetPath(target, path string) string {
	if path == "" {
		return target
	}
	if strings.Contains(path, "://") {
		return path
	}
	return strings.TrimSuffix(target, "/") + "/" + strings.TrimPrefix(path, "/")
}
