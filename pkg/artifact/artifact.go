// Package artifact names and garbage-collects the working files of a render.
//
// One render produces three files in the temp directory that share an
// identifier: the Markdown source, the intermediate document (HTML or DOT)
// and the PNG raster. Identifiers are UUIDv7 values, so they sort by creation
// time and never collide between concurrent requests.
//
// Files are not removed when a render finishes. [Cleanup] runs at the start
// of every render and deletes anything with the [Prefix] that has outlived
// its maximum age.
package artifact

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

// Prefix is shared by every file this package creates.
const Prefix = "mindmap_"

// DefaultMaxAge is how long working files survive before Cleanup removes them.
const DefaultMaxAge = time.Hour

// Artifact is the set of working files for one render.
type Artifact struct {
	ID           string
	Dir          string
	Source       string
	Intermediate string
	Raster       string
}

// New allocates paths for a new artifact in dir, creating dir if needed.
// ext is the intermediate document extension including the dot (".html").
// No files are written.
func New(dir, ext string) (*Artifact, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generate artifact id: %w", err)
	}
	base := filepath.Join(dir, Prefix+id.String())
	return &Artifact{
		ID:           id.String(),
		Dir:          dir,
		Source:       base + ".md",
		Intermediate: base + ext,
		Raster:       base + ".png",
	}, nil
}

// Paths returns the three file paths.
func (a *Artifact) Paths() []string {
	return []string{a.Source, a.Intermediate, a.Raster}
}

// CleanupStats summarizes one Cleanup pass.
type CleanupStats struct {
	Scanned int
	Removed int
	Failed  int
}

// Cleanup deletes regular files in dir whose name starts with Prefix and
// whose modification time is strictly older than maxAge. Failures are logged
// and skipped. A missing dir is not an error.
func Cleanup(dir string, maxAge time.Duration, logger *log.Logger) CleanupStats {
	return cleanupAt(dir, maxAge, time.Now(), logger)
}

func cleanupAt(dir string, maxAge time.Duration, now time.Time, logger *log.Logger) CleanupStats {
	if logger == nil {
		logger = log.Default()
	}
	var stats CleanupStats

	entries, err := os.ReadDir(dir)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warn("scan temp dir", "dir", dir, "error", err)
		}
		return stats
	}

	for _, e := range entries {
		if !e.Type().IsRegular() || !strings.HasPrefix(e.Name(), Prefix) {
			continue
		}
		stats.Scanned++

		info, err := e.Info()
		if err != nil {
			stats.Failed++
			logger.Warn("stat temp file", "file", e.Name(), "error", err)
			continue
		}
		if now.Sub(info.ModTime()) <= maxAge {
			continue
		}

		path := filepath.Join(dir, e.Name())
		if err := os.Remove(path); err != nil {
			stats.Failed++
			logger.Warn("remove temp file", "path", path, "error", err)
			continue
		}
		stats.Removed++
		logger.Debug("removed temp file", "path", path, "age", now.Sub(info.ModTime()).Round(time.Second))
	}
	return stats
}
