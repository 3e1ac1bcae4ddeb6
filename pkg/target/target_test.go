package target

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vulnhawk/pkg/errors"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name       string
		raw        string
		wantErr    bool
		normalized string
		host       string
		isIP       bool
	}{
		{
			name:       "https url",
			raw:        "https://example.com/app",
			normalized: "https://example.com/app",
			host:       "example.com",
		},
		{
			name:       "url with port",
			raw:        "http://example.com:8080",
			normalized: "http://example.com:8080",
			host:       "example.com",
		},
		{
			name:       "bare hostname gets http prefix",
			raw:        "example.com",
			normalized: "http://example.com",
			host:       "example.com",
		},
		{
			name:       "ipv4 literal",
			raw:        "192.168.1.10",
			normalized: "192.168.1.10",
			host:       "192.168.1.10",
			isIP:       true,
		},
		{
			name:       "ipv6 literal",
			raw:        "::1",
			normalized: "::1",
			host:       "::1",
			isIP:       true,
		},
		{
			name:       "surrounding whitespace",
			raw:        "  http://example.com  ",
			normalized: "http://example.com",
			host:       "example.com",
		},
		{name: "empty", raw: "", wantErr: true},
		{name: "whitespace only", raw: "   ", wantErr: true},
		{name: "ftp scheme", raw: "ftp://example.com", wantErr: true},
		{name: "file scheme", raw: "file:///etc/passwd", wantErr: true},
		{name: "scheme only", raw: "http://", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				var vErr *errors.ValidationError
				assert.ErrorAs(t, err, &vErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.raw, got.Raw)
			assert.Equal(t, tt.normalized, got.Normalized)
			assert.Equal(t, tt.host, got.Host)
			assert.Equal(t, tt.isIP, got.IsIP)
			assert.Equal(t, tt.normalized, got.URL())
		})
	}
}
