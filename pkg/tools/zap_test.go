package tools

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vulnhawk/pkg/scan"
	"vulnhawk/pkg/testutil"
)

const zapFixture = `{
  "site": [
    {
      "@name": "http://example.com",
      "alerts": [
        {
          "pluginid": "10021",
          "alert": "X-Content-Type-Options Header Missing",
          "riskdesc": "Low (Medium)",
          "desc": "<p>The Anti-MIME-Sniffing header was not set.</p>",
          "solution": "<p>Set the header.</p>",
          "reference": "<p>https://owasp.org/a</p><p>https://owasp.org/b</p>",
          "cweid": "693",
          "instances": [
            {"uri": "http://example.com/", "method": "GET", "param": "x-content-type-options", "evidence": ""},
            {"uri": "http://example.com/login", "method": "GET", "param": "x-content-type-options", "evidence": ""}
          ]
        },
        {
          "pluginid": "40012",
          "alert": "Cross Site Scripting (Reflected)",
          "riskdesc": "High (Medium)",
          "desc": "<p>XSS is possible.</p>",
          "solution": "",
          "reference": "",
          "cweid": "-1",
          "instances": []
        }
      ]
    }
  ]
}`

func TestZapParseOutput(t *testing.T) {
	adapter := &ZapAdapter{}
	path := testutil.CreateTestFile(t, t.TempDir(), "zap_scan1.json", zapFixture)

	vulns, err := adapter.ParseOutput(path, nil)
	require.NoError(t, err)
	require.Len(t, vulns, 3)

	assert.Equal(t, "zap-10021", vulns[0].ID)
	assert.Equal(t, "X-Content-Type-Options Header Missing", vulns[0].Title)
	assert.Equal(t, scan.SeverityLow, vulns[0].Severity)
	assert.Equal(t, "http://example.com/", vulns[0].URL)
	assert.Equal(t, "The Anti-MIME-Sniffing header was not set.", vulns[0].Description)
	assert.Equal(t, "CWE-693", vulns[0].CWE)
	assert.Equal(t, []string{"https://owasp.org/a", "https://owasp.org/b"}, vulns[0].References)

	// Second instance of the same alert keeps the alert identity.
	assert.Equal(t, "zap-10021", vulns[1].ID)
	assert.Equal(t, "http://example.com/login", vulns[1].URL)

	// Alerts without instances still surface once, anchored at the site.
	assert.Equal(t, "zap-40012", vulns[2].ID)
	assert.Equal(t, scan.SeverityHigh, vulns[2].Severity)
	assert.Equal(t, "http://example.com", vulns[2].URL)
	assert.Empty(t, vulns[2].CWE)
}

func TestZapMapSeverity(t *testing.T) {
	adapter := &ZapAdapter{}

	tests := []struct {
		native string
		want   scan.Severity
	}{
		{"High (Medium)", scan.SeverityHigh},
		{"Medium (High)", scan.SeverityMedium},
		{"Low (Low)", scan.SeverityLow},
		{"Informational (Medium)", scan.SeverityInfo},
		{"informational", scan.SeverityInfo},
		{"weird", scan.SeverityInfo},
		{"", scan.SeverityInfo},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, adapter.MapSeverity(tt.native), "riskdesc %q", tt.native)
	}
}

func TestZapBuildCommand(t *testing.T) {
	adapter := &ZapAdapter{}
	opts := &Options{
		Target:    "http://example.com",
		ScanID:    "scan1",
		OutputDir: "/tmp/out",
		Timeout:   5 * time.Minute,
	}

	cmd := adapter.BuildCommand(opts)
	assert.Equal(t, "zap-baseline.py", cmd.Binary)
	assert.Contains(t, cmd.OutputFile, "zap_scan1.json")

	line := strings.Join(cmd.Args, " ")
	assert.Contains(t, line, "-t http://example.com")
	assert.Contains(t, line, "-m 5")
	assert.Contains(t, line, "-I")
}

func TestZapBuildCommandHeaders(t *testing.T) {
	adapter := &ZapAdapter{}
	opts := &Options{
		Target:    "http://example.com",
		ScanID:    "scan1",
		OutputDir: "/tmp/out",
		Headers:   map[string]string{"X-Api-Key": "abc123"},
		Auth:      &scan.Auth{Type: scan.AuthCookie, Cookie: "session=tok"},
	}

	line := strings.Join(adapter.BuildCommand(opts).Args, " ")
	assert.Contains(t, line, "replacer.full_list(0).matchstr=X-Api-Key")
	assert.Contains(t, line, "replacer.full_list(0).replacement=abc123")
	assert.Contains(t, line, "replacer.full_list(1).matchstr=Cookie")
}

func TestStripTags(t *testing.T) {
	assert.Equal(t, "one\ntwo", stripTags("<p>one</p><p>two</p>"))
	assert.Equal(t, "a\nb", stripTags("a<br/>b"))
	assert.Equal(t, "plain", stripTags("plain"))
}
