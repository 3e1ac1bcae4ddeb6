package tools

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"vulnhawk/pkg/scan"
)

func TestNewOptionsDefaults(t *testing.T) {
	req := &scan.Request{Target: "http://example.com"}
	opts := NewOptions(req, "nikto", "scan1", "/tmp/out")

	assert.Equal(t, "http://example.com", opts.Target)
	assert.Equal(t, "scan1", opts.ScanID)
	assert.Equal(t, DefaultTimeout, opts.Timeout)
}

func TestNewOptionsToolOverrides(t *testing.T) {
	req := &scan.Request{
		Target:  "http://example.com",
		Timeout: 20 * time.Minute,
		ToolOptions: map[string]scan.ToolOptions{
			"wapiti": {
				Timeout:    5 * time.Minute,
				CrawlDepth: 4,
				Modules:    []string{"sql"},
				ExtraArgs:  []string{"--verbose"},
			},
		},
	}

	wapiti := NewOptions(req, "wapiti", "scan1", "/tmp/out")
	assert.Equal(t, 5*time.Minute, wapiti.Timeout)
	assert.Equal(t, 4, wapiti.CrawlDepth)
	assert.Equal(t, []string{"sql"}, wapiti.Modules)
	assert.Equal(t, []string{"--verbose"}, wapiti.ExtraArgs)

	// Other tools keep the request-level timeout.
	nikto := NewOptions(req, "nikto", "scan1", "/tmp/out")
	assert.Equal(t, 20*time.Minute, nikto.Timeout)
	assert.Zero(t, nikto.CrawlDepth)
}

func TestClampTimeout(t *testing.T) {
	tests := []struct {
		name    string
		timeout time.Duration
		max     time.Duration
		want    time.Duration
	}{
		{"within bound", 5 * time.Minute, 30 * time.Minute, 5 * time.Minute},
		{"over bound", time.Hour, 30 * time.Minute, 30 * time.Minute},
		{"unset", 0, 30 * time.Minute, 30 * time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := &Options{Timeout: tt.timeout}
			assert.Equal(t, tt.want, o.ClampTimeout(tt.max))
		})
	}
}

func TestHeaderListStableOrder(t *testing.T) {
	o := &Options{Headers: map[string]string{
		"X-Api-Key":     "k",
		"Authorization": "Bearer t",
		"Cookie":        "c",
	}}

	assert.Equal(t, []string{
		"Authorization: Bearer t",
		"Cookie: c",
		"X-Api-Key: k",
	}, o.HeaderList())
	assert.Nil(t, (&Options{}).HeaderList())
}

func TestDefaultRegistry(t *testing.T) {
	registry := NewDefaultRegistry()

	for _, name := range []string{"nikto", "zap", "wapiti", "nuclei", "sqlmap"} {
		adapter, ok := registry.Get(name)
		assert.True(t, ok, "adapter %s should be registered", name)
		assert.Equal(t, name, adapter.Name())
	}

	_, ok := registry.Get("nessus")
	assert.False(t, ok)
	assert.Len(t, registry.Names(), 5)
}
