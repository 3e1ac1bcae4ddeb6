package history

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vulnhawk/pkg/scan"
)

func resultAt(id string, started time.Time) *scan.Result {
	result := scan.NewResult(id, "http://example.com", "/tmp/scans/"+id)
	result.Status = scan.ScanCompleted
	result.StartedAt = started
	result.Duration = time.Minute
	result.ToolOrder = []string{"nikto"}
	result.Invocations = map[string]*scan.ToolInvocation{
		"nikto": {Tool: "nikto", Status: scan.StatusCompleted},
	}
	return result
}

func TestFileStorePersistAndRecent(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	base := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, store.Persist(resultAt("scan1", base)))
	require.NoError(t, store.Persist(resultAt("scan2", base.Add(time.Hour))))
	require.NoError(t, store.Persist(resultAt("scan3", base.Add(2*time.Hour))))

	entries, err := store.Recent(2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "scan3", entries[0].ScanID)
	assert.Equal(t, "scan2", entries[1].ScanID)
	assert.Equal(t, []string{"nikto"}, entries[0].Tools)
	assert.Equal(t, "completed", entries[0].Status)

	all, err := store.Recent(0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestFileStoreRecentEmpty(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	entries, err := store.Recent(10)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestFileStoreSurvivesReopen(t *testing.T) {
	dir := t.TempDir()

	store, err := NewFileStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.Persist(resultAt("scan1", time.Now())))

	reopened, err := NewFileStore(dir)
	require.NoError(t, err)
	entries, err := reopened.Recent(0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "scan1", entries[0].ScanID)
}

func TestFileStoreProjectLifecycle(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	created, err := store.CreateProject("acme", []string{"http://example.com"})
	require.NoError(t, err)
	assert.Equal(t, "acme", created.Name)

	_, err = store.CreateProject("acme", nil)
	assert.Error(t, err, "duplicate project names are rejected")

	got, err := store.GetProject("acme")
	require.NoError(t, err)
	assert.Equal(t, []string{"http://example.com"}, got.Targets)

	projects, err := store.ListProjects()
	require.NoError(t, err)
	require.Len(t, projects, 1)

	require.NoError(t, store.DeleteProject("acme"))
	_, err = store.GetProject("acme")
	assert.Error(t, err)
	assert.Error(t, store.DeleteProject("acme"))
}

func TestFileStorePersistAttachesProject(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	result := resultAt("scan1", time.Now())
	result.Project = "acme"
	require.NoError(t, store.Persist(result))

	// The project is created on first use and records the scan.
	p, err := store.GetProject("acme")
	require.NoError(t, err)
	assert.Equal(t, []string{"scan1"}, p.ScanIDs)
	assert.Equal(t, []string{"http://example.com"}, p.Targets)

	second := resultAt("scan2", time.Now())
	second.Project = "acme"
	require.NoError(t, store.Persist(second))

	p, err = store.GetProject("acme")
	require.NoError(t, err)
	assert.Equal(t, []string{"scan1", "scan2"}, p.ScanIDs)
	assert.Len(t, p.Targets, 1, "duplicate targets are not re-added")
}

func TestFileStoreDefaultsDataDir(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	store, err := NewFileStore("")
	require.NoError(t, err)
	assert.Equal(t, "vulnhawk", filepath.Base(store.Dir()))
}
