package scan

import "testing"

func TestParseSeverity(t *testing.T) {
	tests := []struct {
		input string
		want  Severity
	}{
		{"critical", SeverityCritical},
		{"Critical", SeverityCritical},
		{"HIGH", SeverityHigh},
		{"medium", SeverityMedium},
		{"moderate", SeverityMedium},
		{" low ", SeverityLow},
		{"info", SeverityInfo},
		{"informational", SeverityInfo},
		{"unknown", SeverityInfo},
		{"", SeverityInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParseSeverity(tt.input); got != tt.want {
				t.Errorf("ParseSeverity(%q) = %s, want %s", tt.input, got, tt.want)
			}
		})
	}
}

func TestSeverityRank(t *testing.T) {
	for i := 1; i < len(Severities); i++ {
		if Severities[i-1].Rank() >= Severities[i].Rank() {
			t.Errorf("%s should rank before %s", Severities[i-1], Severities[i])
		}
	}
}
