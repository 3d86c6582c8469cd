package watcher

import (
	"os"
	"sort"
	"sync"

	"github.com/cespare/xxhash/v2"
)

// ChangeAnalysis describes what changed and whether a re-analysis is needed
type ChangeAnalysis struct {
	NeedAnalysis bool
	ChangedFiles []string // Content differs from the last analyzed version
	RemovedFiles []string
}

// ChangeDetector remembers a content fingerprint per file so that saves
// which leave a script byte-identical do not trigger a run
type ChangeDetector struct {
	mu     sync.Mutex
	hashes map[string]uint64
}

// NewChangeDetector creates an empty detector
func NewChangeDetector() *ChangeDetector {
	return &ChangeDetector{hashes: make(map[string]uint64)}
}

// Fingerprint hashes the file's current content
func Fingerprint(path string) (uint64, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return xxhash.Sum64(content), nil
}

// Record stores the fingerprints of files, e.g. the input of a completed run.
// Unreadable files are forgotten.
func (cd *ChangeDetector) Record(files []string) {
	cd.mu.Lock()
	defer cd.mu.Unlock()
	for _, f := range files {
		if h, err := Fingerprint(f); err == nil {
			cd.hashes[f] = h
		} else {
			delete(cd.hashes, f)
		}
	}
}

// AnalyzeChanges determines whether an event changes any analyzed input
func (cd *ChangeDetector) AnalyzeChanges(event ChangeEvent) *ChangeAnalysis {
	cd.mu.Lock()
	defer cd.mu.Unlock()

	analysis := &ChangeAnalysis{}

	switch event.Type {
	case ChangeTypeSource:
		for _, p := range event.Paths {
			h, err := Fingerprint(p)
			if err != nil {
				// Gone again before we looked
				if _, known := cd.hashes[p]; known {
					delete(cd.hashes, p)
					analysis.RemovedFiles = append(analysis.RemovedFiles, p)
				}
				continue
			}
			if old, known := cd.hashes[p]; known && old == h {
				continue
			}
			cd.hashes[p] = h
			analysis.ChangedFiles = append(analysis.ChangedFiles, p)
		}

	case ChangeTypeRemoved:
		for _, p := range event.Paths {
			// Editors save by renaming over the original
			if h, err := Fingerprint(p); err == nil {
				if old, known := cd.hashes[p]; !known || old != h {
					cd.hashes[p] = h
					analysis.ChangedFiles = append(analysis.ChangedFiles, p)
				}
				continue
			}
			delete(cd.hashes, p)
			analysis.RemovedFiles = append(analysis.RemovedFiles, p)
		}
	}

	sort.Strings(analysis.ChangedFiles)
	sort.Strings(analysis.RemovedFiles)
	analysis.NeedAnalysis = len(analysis.ChangedFiles) > 0 || len(analysis.RemovedFiles) > 0
	return analysis
}
