package tools

import (
	"encoding/xml"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"vulnhawk/pkg/errors"
	"vulnhawk/pkg/runner"
	"vulnhawk/pkg/scan"
)

// niktoMaxTimeout bounds a nikto run; full scans against slow servers can
// otherwise run for hours.
const niktoMaxTimeout = 30 * time.Minute

// NiktoAdapter drives the nikto web-server scanner and parses its XML
// report.
type NiktoAdapter struct{}

func NewNiktoAdapter() *NiktoAdapter {
	return &NiktoAdapter{}
}

func (a *NiktoAdapter) Name() string { return "nikto" }

func (a *NiktoAdapter) VersionArgs() []string { return []string{"-Version"} }

func (a *NiktoAdapter) MaxTimeout() time.Duration { return niktoMaxTimeout }

func (a *NiktoAdapter) BuildCommand(opts *Options) Command {
	outputFile := opts.OutputFile("nikto", "xml")
	timeout := opts.ClampTimeout(a.MaxTimeout())

	args := []string{
		"-h", opts.Target,
		"-o", outputFile,
		"-Format", "xml",
		"-maxtime", fmt.Sprintf("%ds", int(timeout.Seconds())),
		"-timeout", "10",
		"-ask", "no",
	}

	if opts.Auth != nil {
		switch opts.Auth.Type {
		case scan.AuthBasic, scan.AuthDigest:
			args = append(args, "-id", opts.Auth.Username+":"+opts.Auth.Password)
		}
	}

	args = append(args, opts.ExtraArgs...)

	return Command{Binary: "nikto", Args: args, OutputFile: outputFile}
}

// niktoRun mirrors nikto's XML report: scandetails elements with item
// children carrying id/method attributes and description/uri text elements.
type niktoRun struct {
	XMLName xml.Name       `xml:"niktoscan"`
	Details []niktoDetails `xml:"scandetails"`
}

type niktoDetails struct {
	TargetIP   string      `xml:"targetip,attr"`
	TargetHost string      `xml:"targethostname,attr"`
	Items      []niktoItem `xml:"item"`
}

type niktoItem struct {
	ID          string `xml:"id,attr"`
	Method      string `xml:"method,attr"`
	OSVDBID     string `xml:"osvdbid,attr"`
	Description string `xml:"description"`
	URI         string `xml:"uri"`
	NameLink    string `xml:"namelink"`
}

func (a *NiktoAdapter) ParseOutput(outputFile string, _ *runner.ExecResult) ([]scan.Vulnerability, error) {
	data, err := os.ReadFile(outputFile)
	if err != nil {
		return nil, errors.NewParseError(a.Name(), outputFile, err)
	}

	var run niktoRun
	if err := xml.Unmarshal(data, &run); err != nil {
		return nil, errors.NewParseError(a.Name(), outputFile, err)
	}

	var vulns []scan.Vulnerability
	for _, details := range run.Details {
		for _, item := range details.Items {
			vulns = append(vulns, scan.Vulnerability{
				ID:          "nikto-" + item.ID,
				Title:       firstLine(item.Description),
				Severity:    a.MapSeverity(item.ID),
				Description: strings.TrimSpace(item.Description),
				URL:         item.NameLink,
				Method:      item.Method,
				Category:    "Web Server",
				Extra: map[string]string{
					"uri":    item.URI,
					"osvdb":  item.OSVDBID,
					"target": details.TargetHost,
				},
			})
		}
	}
	return vulns, nil
}

// MapSeverity buckets nikto's numeric test identifiers. Nikto itself does
// not grade findings; the ID ranges separate informational banner checks
// from the injection and disclosure test families.
func (a *NiktoAdapter) MapSeverity(native string) scan.Severity {
	id, err := strconv.Atoi(strings.TrimSpace(native))
	if err != nil {
		return scan.SeverityInfo
	}

	switch {
	case id >= 600000 && id < 900000:
		return scan.SeverityHigh
	case id >= 300000 && id < 600000:
		return scan.SeverityMedium
	case id >= 100000 && id < 300000:
		return scan.SeverityLow
	default:
		return scan.SeverityInfo
	}
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	if len(s) > 120 {
		s = s[:117] + "..."
	}
	return s
}
