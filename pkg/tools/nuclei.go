package tools

import (
	"bytes"
	"encoding/json"
	"os"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"vulnhawk/pkg/errors"
	"vulnhawk/pkg/runner"
	"vulnhawk/pkg/scan"
)

const nucleiMaxTimeout = 30 * time.Minute

// NucleiAdapter drives the nuclei template scanner and parses its
// newline-delimited JSON export.
type NucleiAdapter struct{}

func NewNucleiAdapter() *NucleiAdapter {
	return &NucleiAdapter{}
}

func (a *NucleiAdapter) Name() string { return "nuclei" }

func (a *NucleiAdapter) VersionArgs() []string { return []string{"-version"} }

func (a *NucleiAdapter) MaxTimeout() time.Duration { return nucleiMaxTimeout }

func (a *NucleiAdapter) BuildCommand(opts *Options) Command {
	outputFile := opts.OutputFile("nuclei", "jsonl")

	args := []string{
		"-u", opts.Target,
		"-jsonl",
		"-o", outputFile,
		"-duc",
		"-timeout", "10",
	}

	if opts.SeverityFilter != "" {
		args = append(args, "-severity", opts.SeverityFilter)
	}

	headers := opts.HeaderList()
	if opts.Auth != nil {
		switch opts.Auth.Type {
		case scan.AuthBasic:
			headers = append(headers, "Authorization: Basic "+basicCredential(opts.Auth))
		case scan.AuthCookie:
			headers = append(headers, "Cookie: "+opts.Auth.Cookie)
		}
	}
	for _, h := range headers {
		args = append(args, "-H", h)
	}

	args = append(args, opts.ExtraArgs...)

	return Command{Binary: "nuclei", Args: args, OutputFile: outputFile}
}

// nucleiResult mirrors one JSONL record of nuclei's export.
type nucleiResult struct {
	TemplateID string     `json:"template-id"`
	Info       nucleiInfo `json:"info"`
	Type       string     `json:"type"`
	Host       string     `json:"host"`
	MatchedAt  string     `json:"matched-at"`
	Request    string     `json:"request"`
}

type nucleiInfo struct {
	Name           string                `json:"name"`
	Severity       string                `json:"severity"`
	Description    string                `json:"description"`
	Tags           []string              `json:"tags"`
	Reference      []string              `json:"reference"`
	Classification *nucleiClassification `json:"classification"`
	Remediation    string                `json:"remediation"`
}

type nucleiClassification struct {
	CWEID     []string `json:"cwe-id"`
	CVSSScore float64  `json:"cvss-score"`
}

func (a *NucleiAdapter) ParseOutput(outputFile string, _ *runner.ExecResult) ([]scan.Vulnerability, error) {
	data, err := os.ReadFile(outputFile)
	if err != nil {
		return nil, errors.NewParseError(a.Name(), outputFile, err)
	}

	var vulns []scan.Vulnerability
	for _, line := range bytes.Split(data, []byte("\n")) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}

		var result nucleiResult
		if err := json.Unmarshal(line, &result); err != nil {
			log.Warnf("Failed to parse nuclei JSON line: %v", err)
			continue
		}

		vuln := scan.Vulnerability{
			ID:          "nuclei-" + result.TemplateID,
			Title:       result.Info.Name,
			Severity:    a.MapSeverity(result.Info.Severity),
			Description: result.Info.Description,
			URL:         result.MatchedAt,
			Category:    categoryFromTags(result.Info.Tags),
			Solution:    result.Info.Remediation,
			References:  result.Info.Reference,
			Extra: map[string]string{
				"template": result.TemplateID,
				"type":     result.Type,
				"host":     result.Host,
				"tags":     strings.Join(result.Info.Tags, ","),
			},
		}
		if c := result.Info.Classification; c != nil {
			if len(c.CWEID) > 0 {
				vuln.CWE = strings.ToUpper(c.CWEID[0])
			}
			vuln.CVSS = c.CVSSScore
		}
		vulns = append(vulns, vuln)
	}
	return vulns, nil
}

// MapSeverity maps nuclei's textual severity, "unknown" included, onto the
// canonical enum.
func (a *NucleiAdapter) MapSeverity(native string) scan.Severity {
	return scan.ParseSeverity(native)
}

func categoryFromTags(tags []string) string {
	if len(tags) == 0 {
		return "Template"
	}
	return tags[0]
}
