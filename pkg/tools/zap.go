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

const zapMaxTimeout = 60 * time.Minute

// ZapAdapter drives the ZAP baseline probe and parses its JSON alert
// report.
type ZapAdapter struct{}

func NewZapAdapter() *ZapAdapter {
	return &ZapAdapter{}
}

func (a *ZapAdapter) Name() string { return "zap" }

func (a *ZapAdapter) VersionArgs() []string { return []string{"-version"} }

func (a *ZapAdapter) MaxTimeout() time.Duration { return zapMaxTimeout }

func (a *ZapAdapter) BuildCommand(opts *Options) Command {
	outputFile := opts.OutputFile("zap", "json")
	timeout := opts.ClampTimeout(a.MaxTimeout())

	mins := int(timeout.Minutes())
	if mins < 1 {
		mins = 1
	}

	args := []string{
		"-t", opts.Target,
		"-J", outputFile,
		"-m", fmt.Sprintf("%d", mins),
		"-I", // do not fail on warnings; findings come from the report
	}

	// Headers (and header-based auth) go through ZAP's replacer rules.
	headers := opts.HeaderList()
	if opts.Auth != nil {
		switch opts.Auth.Type {
		case scan.AuthBasic:
			headers = append(headers, "Authorization: Basic "+basicCredential(opts.Auth))
		case scan.AuthCookie:
			headers = append(headers, "Cookie: "+opts.Auth.Cookie)
		}
	}
	for i, h := range headers {
		name, value, _ := strings.Cut(h, ": ")
		args = append(args,
			"-z", fmt.Sprintf("-config replacer.full_list(%d).description=hdr%d "+
				"-config replacer.full_list(%d).enabled=true "+
				"-config replacer.full_list(%d).matchtype=REQ_HEADER "+
				"-config replacer.full_list(%d).matchstr=%s "+
				"-config replacer.full_list(%d).replacement=%s",
				i, i, i, i, i, name, i, value))
	}

	args = append(args, opts.ExtraArgs...)

	return Command{Binary: "zap-baseline.py", Args: args, OutputFile: outputFile}
}

// zapReport mirrors the baseline JSON report: sites with nested alerts.
type zapReport struct {
	Site []zapSite `json:"site"`
}

type zapSite struct {
	Name   string     `json:"@name"`
	Alerts []zapAlert `json:"alerts"`
}

type zapAlert struct {
	PluginID  string        `json:"pluginid"`
	Alert     string        `json:"alert"`
	RiskDesc  string        `json:"riskdesc"`
	Desc      string        `json:"desc"`
	Solution  string        `json:"solution"`
	Reference string        `json:"reference"`
	CWEID     string        `json:"cweid"`
	Instances []zapInstance `json:"instances"`
}

type zapInstance struct {
	URI      string `json:"uri"`
	Method   string `json:"method"`
	Param    string `json:"param"`
	Evidence string `json:"evidence"`
}

func (a *ZapAdapter) ParseOutput(outputFile string, _ *runner.ExecResult) ([]scan.Vulnerability, error) {
	data, err := os.ReadFile(outputFile)
	if err != nil {
		return nil, errors.NewParseError(a.Name(), outputFile, err)
	}

	var report zapReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, errors.NewParseError(a.Name(), outputFile, err)
	}

	var vulns []scan.Vulnerability
	for _, site := range report.Site {
		for _, alert := range site.Alerts {
			severity := a.MapSeverity(alert.RiskDesc)
			references := splitReferences(alert.Reference)

			// One record per instance; alerts without instances still
			// surface once.
			instances := alert.Instances
			if len(instances) == 0 {
				instances = []zapInstance{{URI: site.Name}}
			}
			for _, inst := range instances {
				vulns = append(vulns, scan.Vulnerability{
					ID:          "zap-" + alert.PluginID,
					Title:       alert.Alert,
					Severity:    severity,
					Description: stripTags(alert.Desc),
					URL:         inst.URI,
					Method:      inst.Method,
					Parameter:   inst.Param,
					Category:    "Application",
					Evidence:    inst.Evidence,
					Solution:    stripTags(alert.Solution),
					References:  references,
					CWE:         cweID(alert.CWEID),
				})
			}
		}
	}
	return vulns, nil
}

// MapSeverity maps ZAP's textual risk word. Risk descriptions look like
// "High (Medium)" where the parenthesized part is confidence.
func (a *ZapAdapter) MapSeverity(native string) scan.Severity {
	word, _, _ := strings.Cut(strings.TrimSpace(native), " ")
	if strings.EqualFold(word, "informational") {
		return scan.SeverityInfo
	}
	return scan.ParseSeverity(word)
}

func splitReferences(ref string) []string {
	var refs []string
	for _, line := range strings.Split(stripTags(ref), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			refs = append(refs, line)
		}
	}
	return refs
}

func cweID(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "-1" || raw == "0" {
		return ""
	}
	return "CWE-" + raw
}

// stripTags removes the simple HTML markup ZAP embeds in descriptions.
func stripTags(s string) string {
	replacer := strings.NewReplacer("<p>", "", "</p>", "\n", "<br>", "\n", "<br/>", "\n")
	return strings.TrimSpace(replacer.Replace(s))
}
