package profiles

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vulnhawk/pkg/scan"
)

func TestLoadBuiltins(t *testing.T) {
	store, err := Load("")
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"quick", "web", "full", "injection"}, store.Names())

	full, err := store.Get("full")
	require.NoError(t, err)
	assert.Len(t, full.Tools, 5)
	assert.Equal(t, 2, full.Parallelism)

	_, err = store.Get("nonexistent")
	assert.Error(t, err)
}

func TestLoadFileOverridesBuiltins(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profiles.yaml")
	content := `profiles:
  quick:
    tools: [nuclei]
    timeout: 5m
  custom:
    tools: [nikto, nuclei]
    timeout: 15m
    tool_options:
      nuclei:
        severity_filter: "high,critical"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	store, err := Load(path)
	require.NoError(t, err)

	quick, err := store.Get("quick")
	require.NoError(t, err)
	assert.Equal(t, []string{"nuclei"}, quick.Tools)
	assert.Equal(t, 5*time.Minute, quick.Timeout)

	custom, err := store.Get("custom")
	require.NoError(t, err)
	assert.Equal(t, []string{"nikto", "nuclei"}, custom.Tools)
	assert.Equal(t, "high,critical", custom.ToolOptions["nuclei"].SeverityFilter)

	// Untouched builtins survive the merge.
	web, err := store.Get("web")
	require.NoError(t, err)
	assert.Equal(t, 30*time.Minute, web.Timeout)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestApplyRequestWins(t *testing.T) {
	store, err := Load("")
	require.NoError(t, err)

	req := &scan.Request{
		Target:  "http://example.com",
		Profile: "injection",
		Tools:   []string{"sqlmap"},
	}
	require.NoError(t, store.Apply(req))

	// Explicit tools are kept; the unset timeout comes from the profile.
	assert.Equal(t, []string{"sqlmap"}, req.Tools)
	assert.Equal(t, 30*time.Minute, req.Timeout)
	assert.Equal(t, []string{"sql", "xss", "exec"}, req.ToolOptions["wapiti"].Modules)
}

func TestApplyFillsEverythingUnset(t *testing.T) {
	store, err := Load("")
	require.NoError(t, err)

	req := &scan.Request{Target: "http://example.com", Profile: "full"}
	require.NoError(t, store.Apply(req))

	assert.Len(t, req.Tools, 5)
	assert.Equal(t, 45*time.Minute, req.Timeout)
	assert.Equal(t, 2, req.Parallelism)
}

func TestApplyNoProfileIsNoop(t *testing.T) {
	store, err := Load("")
	require.NoError(t, err)

	req := &scan.Request{Target: "http://example.com", Tools: []string{"nikto"}}
	require.NoError(t, store.Apply(req))
	assert.Equal(t, []string{"nikto"}, req.Tools)

	req.Profile = "nonexistent"
	assert.Error(t, store.Apply(req))
}
