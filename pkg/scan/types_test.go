package scan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummaryAddAndCount(t *testing.T) {
	var s Summary
	for _, sev := range []Severity{
		SeverityCritical, SeverityHigh, SeverityHigh,
		SeverityMedium, SeverityLow, SeverityInfo, SeverityInfo,
	} {
		s.Add(sev)
	}

	assert.Equal(t, 7, s.Total)
	assert.Equal(t, 1, s.Count(SeverityCritical))
	assert.Equal(t, 2, s.Count(SeverityHigh))
	assert.Equal(t, 1, s.Count(SeverityMedium))
	assert.Equal(t, 1, s.Count(SeverityLow))
	assert.Equal(t, 2, s.Count(SeverityInfo))

	sum := 0
	for _, sev := range Severities {
		sum += s.Count(sev)
	}
	assert.Equal(t, s.Total, sum, "histogram buckets must sum to the total")
}

func TestAggregateStampsProvenance(t *testing.T) {
	result := NewResult("scan1", "http://example.com", "/tmp/out")

	inv := &ToolInvocation{
		Tool:   "nikto",
		Status: StatusCompleted,
		Vulnerabilities: []Vulnerability{
			{ID: "nikto-1", Severity: SeverityHigh},
			{ID: "nikto-2", Severity: SeverityInfo},
		},
	}
	result.Aggregate(inv)

	require.Len(t, result.Vulnerabilities, 2)
	for _, v := range result.Vulnerabilities {
		assert.Equal(t, "nikto", v.Tool)
		assert.Equal(t, "scan1", v.ScanID)
	}
	assert.Equal(t, 2, result.Summary.Total)
	assert.Equal(t, 1, result.Summary.High)
	assert.Equal(t, 1, result.Summary.Info)
}

func TestOrderedInvocationsKeepsRequestOrder(t *testing.T) {
	result := NewResult("scan1", "http://example.com", "/tmp/out")
	result.ToolOrder = []string{"zap", "nikto"}
	result.Invocations = map[string]*ToolInvocation{
		"nikto": {Tool: "nikto"},
		"zap":   {Tool: "zap"},
	}

	invs := result.OrderedInvocations()
	require.Len(t, invs, 2)
	assert.Equal(t, "zap", invs[0].Tool)
	assert.Equal(t, "nikto", invs[1].Tool)
}

func TestOrderedInvocationsFallsBackToSortedNames(t *testing.T) {
	result := NewResult("scan1", "http://example.com", "/tmp/out")
	result.Invocations = map[string]*ToolInvocation{
		"zap":    {Tool: "zap"},
		"nikto":  {Tool: "nikto"},
		"sqlmap": {Tool: "sqlmap"},
	}

	invs := result.OrderedInvocations()
	require.Len(t, invs, 3)
	assert.Equal(t, "nikto", invs[0].Tool)
	assert.Equal(t, "sqlmap", invs[1].Tool)
	assert.Equal(t, "zap", invs[2].Tool)
}

func TestOptionsFor(t *testing.T) {
	req := &Request{
		ToolOptions: map[string]ToolOptions{
			"nuclei": {SeverityFilter: "critical"},
		},
	}

	assert.Equal(t, "critical", req.OptionsFor("nuclei").SeverityFilter)
	assert.Zero(t, req.OptionsFor("nikto"))
}
