// Package history persists scan results and project records as flat JSON
// files under the user's data directory. It is the fallback store when no
// database is configured; both implement the same Store interface.
package history

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"vulnhawk/pkg/errors"
	"vulnhawk/pkg/scan"
)

const (
	historyFile  = "history.json"
	projectsFile = "projects.json"
)

// Entry is one persisted scan summary. The full Result stays in the scan's
// output directory; the history keeps just enough to list and locate it.
type Entry struct {
	ScanID      string       `json:"scan_id"`
	Target      string       `json:"target"`
	Status      string       `json:"status"`
	StartedAt   time.Time    `json:"started_at"`
	Duration    string       `json:"duration"`
	Summary     scan.Summary `json:"summary"`
	Tools       []string     `json:"tools"`
	OutputDir   string       `json:"output_dir,omitempty"`
	Project     string       `json:"project,omitempty"`
	PersistedAt time.Time    `json:"persisted_at"`
}

// Project is a named group of scans against related targets.
type Project struct {
	Name      string    `json:"name"`
	Targets   []string  `json:"targets,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	ScanIDs   []string  `json:"scan_ids,omitempty"`
}

// Store is the persistence surface the orchestrator depends on.
type Store interface {
	Persist(result *scan.Result) error
	Recent(n int) ([]Entry, error)
}

// FileStore keeps the history and project registry in JSON files. Writes
// are atomic (temp file plus rename) and serialized through a process-local
// mutex.
type FileStore struct {
	dir string
	mu  sync.Mutex
}

// NewFileStore opens (creating if needed) a file store rooted at dir. An
// empty dir resolves to <UserConfigDir>/vulnhawk.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		base, err := os.UserConfigDir()
		if err != nil {
			return nil, &errors.PersistenceError{Store: "file", Err: err}
		}
		dir = filepath.Join(base, "vulnhawk")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, &errors.PersistenceError{Store: "file", Err: fmt.Errorf("failed to create data directory: %w", err)}
	}
	return &FileStore{dir: dir}, nil
}

// Dir returns the data directory backing the store.
func (s *FileStore) Dir() string { return s.dir }

// Persist appends one scan to the history and, when the scan names a
// project, records the scan under it.
func (s *FileStore) Persist(result *scan.Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var entries []Entry
	if err := s.load(historyFile, &entries); err != nil {
		return err
	}

	entry := Entry{
		ScanID:      result.ID,
		Target:      result.Target,
		Status:      string(result.Status),
		StartedAt:   result.StartedAt,
		Duration:    result.Duration.String(),
		Summary:     result.Summary,
		OutputDir:   result.OutputDir,
		Project:     result.Project,
		PersistedAt: time.Now(),
	}
	for _, inv := range result.OrderedInvocations() {
		entry.Tools = append(entry.Tools, inv.Tool)
	}
	entries = append(entries, entry)

	if err := s.save(historyFile, entries); err != nil {
		return err
	}

	if result.Project == "" {
		return nil
	}
	return s.attachScan(result.Project, result.ID, result.Target)
}

// Recent returns the newest n entries, newest first. n <= 0 returns all.
func (s *FileStore) Recent(n int) ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var entries []Entry
	if err := s.load(historyFile, &entries); err != nil {
		return nil, err
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].StartedAt.After(entries[j].StartedAt)
	})
	if n > 0 && len(entries) > n {
		entries = entries[:n]
	}
	return entries, nil
}

// CreateProject registers a new project. Creating an existing name is an
// error; use AddTarget to grow one.
func (s *FileStore) CreateProject(name string, targets []string) (*Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	projects, err := s.loadProjects()
	if err != nil {
		return nil, err
	}
	if _, ok := projects[name]; ok {
		return nil, &errors.PersistenceError{Store: "file", Err: fmt.Errorf("project %q already exists", name)}
	}

	now := time.Now()
	p := &Project{
		Name:      name,
		Targets:   targets,
		CreatedAt: now,
		UpdatedAt: now,
	}
	projects[name] = p
	if err := s.saveProjects(projects); err != nil {
		return nil, err
	}
	return p, nil
}

// GetProject returns one project by name.
func (s *FileStore) GetProject(name string) (*Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	projects, err := s.loadProjects()
	if err != nil {
		return nil, err
	}
	p, ok := projects[name]
	if !ok {
		return nil, &errors.PersistenceError{Store: "file", Err: fmt.Errorf("project %q not found", name)}
	}
	return p, nil
}

// ListProjects returns all projects sorted by name.
func (s *FileStore) ListProjects() ([]*Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	projects, err := s.loadProjects()
	if err != nil {
		return nil, err
	}
	out := make([]*Project, 0, len(projects))
	for _, p := range projects {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// DeleteProject removes a project record. Scan history entries that
// reference it are kept.
func (s *FileStore) DeleteProject(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	projects, err := s.loadProjects()
	if err != nil {
		return err
	}
	if _, ok := projects[name]; !ok {
		return &errors.PersistenceError{Store: "file", Err: fmt.Errorf("project %q not found", name)}
	}
	delete(projects, name)
	return s.saveProjects(projects)
}

// attachScan records a scan under a project, creating the project on first
// use. Caller holds the mutex.
func (s *FileStore) attachScan(name, scanID, target string) error {
	projects, err := s.loadProjects()
	if err != nil {
		return err
	}

	p, ok := projects[name]
	if !ok {
		p = &Project{Name: name, CreatedAt: time.Now()}
		projects[name] = p
	}
	p.ScanIDs = append(p.ScanIDs, scanID)
	if !containsString(p.Targets, target) {
		p.Targets = append(p.Targets, target)
	}
	p.UpdatedAt = time.Now()
	return s.saveProjects(projects)
}

func (s *FileStore) loadProjects() (map[string]*Project, error) {
	projects := make(map[string]*Project)
	if err := s.load(projectsFile, &projects); err != nil {
		return nil, err
	}
	return projects, nil
}

func (s *FileStore) saveProjects(projects map[string]*Project) error {
	return s.save(projectsFile, projects)
}

// load reads a JSON file into v. A missing file leaves v untouched, so a
// fresh store starts empty.
func (s *FileStore) load(name string, v interface{}) error {
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return &errors.PersistenceError{Store: "file", Err: fmt.Errorf("failed to read %s: %w", name, err)}
	}
	if err := json.Unmarshal(data, v); err != nil {
		return &errors.PersistenceError{Store: "file", Err: fmt.Errorf("failed to decode %s: %w", name, err)}
	}
	return nil
}

// save writes v to a temp file in the same directory and renames it over
// the target, so readers never observe a partial file.
func (s *FileStore) save(name string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return &errors.PersistenceError{Store: "file", Err: fmt.Errorf("failed to encode %s: %w", name, err)}
	}

	tmp, err := os.CreateTemp(s.dir, name+".tmp-*")
	if err != nil {
		return &errors.PersistenceError{Store: "file", Err: err}
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return &errors.PersistenceError{Store: "file", Err: fmt.Errorf("failed to write %s: %w", name, err)}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return &errors.PersistenceError{Store: "file", Err: err}
	}
	if err := os.Rename(tmpName, filepath.Join(s.dir, name)); err != nil {
		os.Remove(tmpName)
		return &errors.PersistenceError{Store: "file", Err: fmt.Errorf("failed to replace %s: %w", name, err)}
	}
	return nil
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
