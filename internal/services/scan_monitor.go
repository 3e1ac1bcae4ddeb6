package services

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"vulnhawk/pkg/logger"
)

// monitorOutputDir watches a scan's output directory and logs artifact
// progress while the scan runs. Tool output files appear incrementally;
// updates are throttled so a chatty tool does not flood the log.
func monitorOutputDir(ctx context.Context, scanID, dir string, log *logger.Logger, done chan struct{}) {
	defer close(done)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		log.WithFields(logger.Fields{"scan": scanID}).WithError(err).Error("Failed to create artifact watcher")
		return
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		log.WithFields(logger.Fields{"scan": scanID, "dir": dir}).WithError(err).Error("Failed to watch output directory")
		return
	}

	ticker := time.NewTicker(3 * time.Second)
	defer ticker.Stop()

	seen := make(map[string]bool)
	var mu sync.Mutex
	var pending []string

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			name := filepath.Base(event.Name)
			if !isArtifact(name) {
				continue
			}
			mu.Lock()
			if !seen[name] {
				seen[name] = true
				pending = append(pending, name)
			}
			mu.Unlock()

		case <-ticker.C:
			mu.Lock()
			if len(pending) > 0 {
				log.WithFields(logger.Fields{
					"scan":      scanID,
					"artifacts": strings.Join(pending, ", "),
					"total":     len(seen),
				}).Info("New scan artifacts")
				pending = nil
			}
			mu.Unlock()

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			log.WithFields(logger.Fields{"scan": scanID, "dir": dir}).WithError(err).Error("Artifact watcher error")

		case <-ctx.Done():
			return
		}
	}
}

// isArtifact matches the files tools and the renderer write into the scan
// directory. Log files are excluded; they update on every line.
func isArtifact(name string) bool {
	if name == "scan.log" || name == "error.log" {
		return false
	}
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json", ".xml", ".html", ".csv", ".md", ".txt", ".jsonl":
		return true
	}
	return false
}
