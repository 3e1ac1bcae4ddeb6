package tools

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vulnhawk/pkg/runner"
	"vulnhawk/pkg/scan"
)

const sqlmapStdout = `sqlmap identified the following injection point(s) with a total of 58 HTTP(s) requests:
---
Parameter: id (GET)
    Type: boolean-based blind
    Title: AND boolean-based blind - WHERE or HAVING clause
    Payload: id=1 AND 6723=6723

    Type: stacked queries
    Title: PostgreSQL > 8.1 stacked queries (comment)
    Payload: id=1;SELECT PG_SLEEP(5)--
---
[INFO] the back-end DBMS is PostgreSQL
`

func TestSqlmapParseOutput(t *testing.T) {
	adapter := &SqlmapAdapter{}
	exec := &runner.ExecResult{Stdout: sqlmapStdout}

	vulns, err := adapter.ParseOutput("", exec)
	require.NoError(t, err)
	require.Len(t, vulns, 2)

	first := vulns[0]
	assert.Equal(t, "sqlmap-1", first.ID)
	assert.Equal(t, "AND boolean-based blind - WHERE or HAVING clause", first.Title)
	assert.Equal(t, scan.SeverityHigh, first.Severity)
	assert.Equal(t, "id", first.Parameter)
	assert.Equal(t, "SQL Injection", first.Category)
	assert.Equal(t, "CWE-89", first.CWE)
	assert.Equal(t, "id=1 AND 6723=6723", first.Evidence)

	second := vulns[1]
	assert.Equal(t, "sqlmap-2", second.ID)
	assert.Equal(t, scan.SeverityCritical, second.Severity)
	assert.Equal(t, "id", second.Parameter)
}

func TestSqlmapParseOutputClean(t *testing.T) {
	adapter := &SqlmapAdapter{}
	exec := &runner.ExecResult{Stdout: "[INFO] all tested parameters do not appear to be injectable\n"}

	vulns, err := adapter.ParseOutput("", exec)
	require.NoError(t, err)
	assert.Empty(t, vulns)
}

func TestSqlmapParseOutputNilExec(t *testing.T) {
	adapter := &SqlmapAdapter{}
	_, err := adapter.ParseOutput("", nil)
	assert.Error(t, err)
}

func TestSqlmapParseOutputStderrFallback(t *testing.T) {
	adapter := &SqlmapAdapter{}
	exec := &runner.ExecResult{
		Stdout: "   ",
		Stderr: "Parameter: q (POST)\nType: UNION query\nTitle: Generic UNION query\nPayload: q=x UNION ALL SELECT NULL--\n",
	}

	vulns, err := adapter.ParseOutput("", exec)
	require.NoError(t, err)
	require.Len(t, vulns, 1)
	assert.Equal(t, "q", vulns[0].Parameter)
	assert.Equal(t, scan.SeverityHigh, vulns[0].Severity)
}

func TestSqlmapMapSeverity(t *testing.T) {
	adapter := &SqlmapAdapter{}

	tests := []struct {
		native string
		want   scan.Severity
	}{
		{"stacked queries", scan.SeverityCritical},
		{"boolean-based blind", scan.SeverityHigh},
		{"error-based", scan.SeverityHigh},
		{"UNION query", scan.SeverityHigh},
		{"inline queries", scan.SeverityHigh},
		{"time-based blind", scan.SeverityHigh},
		{"something else", scan.SeverityInfo},
		{"", scan.SeverityInfo},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, adapter.MapSeverity(tt.native), "technique %q", tt.native)
	}
}

func TestSqlmapBuildCommand(t *testing.T) {
	adapter := &SqlmapAdapter{}
	opts := &Options{
		Target:     "http://example.com/product.php?id=1",
		ScanID:     "scan1",
		OutputDir:  "/tmp/out",
		CrawlDepth: 2,
		Auth:       &scan.Auth{Type: scan.AuthBasic, Username: "u", Password: "p"},
	}

	cmd := adapter.BuildCommand(opts)
	assert.Equal(t, "sqlmap", cmd.Binary)
	assert.Empty(t, cmd.OutputFile)

	line := strings.Join(cmd.Args, " ")
	assert.Contains(t, line, "-u http://example.com/product.php?id=1")
	assert.Contains(t, line, "--batch")
	assert.Contains(t, line, "--crawl 2")
	assert.Contains(t, line, "--auth-type Basic")
	assert.Contains(t, line, "--auth-cred u:p")
}

func TestCleanParameter(t *testing.T) {
	assert.Equal(t, "id", cleanParameter("id (GET)"))
	assert.Equal(t, "q", cleanParameter("q"))
	assert.Equal(t, "(weird)", cleanParameter("(weird)"))
}
