package tools

import (
	"fmt"
	"strings"
	"time"

	"vulnhawk/pkg/errors"
	"vulnhawk/pkg/runner"
	"vulnhawk/pkg/scan"
)

const sqlmapMaxTimeout = 30 * time.Minute

// SqlmapAdapter drives the sqlmap SQL-injection tester. Sqlmap writes its
// findings to stdout, so parsing reconstructs them from the literal
// "Parameter:", "Type:", "Title:" and "Payload:" markers.
type SqlmapAdapter struct{}

func NewSqlmapAdapter() *SqlmapAdapter {
	return &SqlmapAdapter{}
}

func (a *SqlmapAdapter) Name() string { return "sqlmap" }

func (a *SqlmapAdapter) VersionArgs() []string { return []string{"--version"} }

func (a *SqlmapAdapter) MaxTimeout() time.Duration { return sqlmapMaxTimeout }

func (a *SqlmapAdapter) BuildCommand(opts *Options) Command {
	args := []string{
		"-u", opts.Target,
		"--batch",
		"--level", "1",
		"--risk", "1",
		"--random-agent",
	}

	if opts.CrawlDepth > 0 {
		args = append(args, "--crawl", fmt.Sprintf("%d", opts.CrawlDepth))
	}

	if opts.Auth != nil {
		switch opts.Auth.Type {
		case scan.AuthBasic:
			args = append(args, "--auth-type", "Basic", "--auth-cred", opts.Auth.Username+":"+opts.Auth.Password)
		case scan.AuthDigest:
			args = append(args, "--auth-type", "Digest", "--auth-cred", opts.Auth.Username+":"+opts.Auth.Password)
		case scan.AuthCookie, scan.AuthForm:
			if opts.Auth.Cookie != "" {
				args = append(args, "--cookie", opts.Auth.Cookie)
			}
		}
	}

	if headers := opts.HeaderList(); len(headers) > 0 {
		args = append(args, "--headers", strings.Join(headers, "\\n"))
	}

	args = append(args, opts.ExtraArgs...)

	// No artifact file: findings are scraped from stdout.
	return Command{Binary: "sqlmap", Args: args}
}

// ParseOutput scans stdout (stderr as fallback) for injection point blocks.
// A block starts at "Parameter: name (place)" and each following
// Type/Title/Payload triple describes one confirmed injection.
func (a *SqlmapAdapter) ParseOutput(_ string, exec *runner.ExecResult) ([]scan.Vulnerability, error) {
	if exec == nil {
		return nil, errors.NewParseError(a.Name(), "stdout", fmt.Errorf("no captured output"))
	}

	output := exec.Stdout
	if strings.TrimSpace(output) == "" {
		output = exec.Stderr
	}

	var vulns []scan.Vulnerability
	var parameter, injType, title, payload string

	flush := func() {
		if injType == "" && title == "" {
			return
		}
		vulns = append(vulns, scan.Vulnerability{
			ID:          fmt.Sprintf("sqlmap-%d", len(vulns)+1),
			Title:       titleOrDefault(title, injType),
			Severity:    a.MapSeverity(injType),
			Description: fmt.Sprintf("SQL injection in parameter %q (%s)", parameter, injType),
			Parameter:   parameter,
			Category:    "SQL Injection",
			Evidence:    payload,
			CWE:         "CWE-89",
		})
		injType, title, payload = "", "", ""
	}

	for _, raw := range strings.Split(output, "\n") {
		line := strings.TrimSpace(raw)
		switch {
		case strings.HasPrefix(line, "Parameter:"):
			flush()
			parameter = cleanParameter(strings.TrimSpace(strings.TrimPrefix(line, "Parameter:")))
		case strings.HasPrefix(line, "Type:"):
			flush()
			injType = strings.TrimSpace(strings.TrimPrefix(line, "Type:"))
		case strings.HasPrefix(line, "Title:"):
			title = strings.TrimSpace(strings.TrimPrefix(line, "Title:"))
		case strings.HasPrefix(line, "Payload:"):
			payload = strings.TrimSpace(strings.TrimPrefix(line, "Payload:"))
		}
	}
	flush()

	return vulns, nil
}

// MapSeverity grades by injection technique. Sqlmap reports no severity of
// its own; stacked queries allow arbitrary statements, other confirmed
// techniques are graded high, anything unrecognized falls back to info.
func (a *SqlmapAdapter) MapSeverity(native string) scan.Severity {
	technique := strings.ToLower(strings.TrimSpace(native))
	switch {
	case technique == "":
		return scan.SeverityInfo
	case strings.Contains(technique, "stacked"):
		return scan.SeverityCritical
	case strings.Contains(technique, "blind"),
		strings.Contains(technique, "error-based"),
		strings.Contains(technique, "union"),
		strings.Contains(technique, "inline"):
		return scan.SeverityHigh
	default:
		return scan.SeverityInfo
	}
}

func titleOrDefault(title, injType string) string {
	if title != "" {
		return title
	}
	return injType
}

// cleanParameter strips the injection place suffix, e.g. "id (GET)" -> "id".
func cleanParameter(p string) string {
	if i := strings.IndexByte(p, '('); i > 0 {
		return strings.TrimSpace(p[:i])
	}
	return p
}
