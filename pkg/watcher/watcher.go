package watcher

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/ritzau/unity-analyzer/pkg/finder"
	"github.com/ritzau/unity-analyzer/pkg/logging"
)

// ChangeType represents the type of file change detected
type ChangeType int

const (
	ChangeTypeSource  ChangeType = iota // A selected .cs file was written or created
	ChangeTypeRemoved                   // A selected .cs file was removed or renamed away
)

func (t ChangeType) String() string {
	switch t {
	case ChangeTypeSource:
		return "source"
	case ChangeTypeRemoved:
		return "removed"
	}
	return fmt.Sprintf("ChangeType(%d)", int(t))
}

// ChangeEvent represents a batch of file system changes
type ChangeEvent struct {
	Type      ChangeType
	Paths     []string
	Timestamp time.Time
}

// batchWindow groups the burst of events a single save produces
const batchWindow = 100 * time.Millisecond

// FileWatcher watches a Unity project for script changes. Every directory
// below the workspace is watched, except editor caches; new directories are
// picked up as they appear.
type FileWatcher struct {
	watcher   *fsnotify.Watcher
	workspace string
	matcher   *finder.Matcher
	events    chan ChangeEvent
	done      chan struct{}
}

// NewFileWatcher creates a watcher. A nil matcher selects every .cs file.
func NewFileWatcher(workspace string, matcher *finder.Matcher) (*FileWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	if matcher == nil {
		matcher = finder.NewMatcher(nil, nil)
	}

	return &FileWatcher{
		watcher:   watcher,
		workspace: workspace,
		matcher:   matcher,
		events:    make(chan ChangeEvent, 100),
		done:      make(chan struct{}),
	}, nil
}

// Start registers the directories and processes events until ctx is done.
// The Events channel is closed when processing stops.
func (fw *FileWatcher) Start(ctx context.Context) error {
	count, err := fw.watchTree(fw.workspace)
	if err != nil {
		fw.watcher.Close()
		return err
	}

	logging.Info("started watching workspace", "path", fw.workspace, "directories", count)

	go fw.processEvents(ctx)
	return nil
}

// watchTree adds root and every directory below it that is not skipped
func (fw *FileWatcher) watchTree(root string) (int, error) {
	count := 0
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			return nil // Skip entries we can't access
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && finder.SkipDir(d.Name()) {
			return filepath.SkipDir
		}
		if err := fw.watcher.Add(path); err != nil {
			logging.Warn("failed to watch directory", "path", path, "error", err)
			return nil
		}
		count++
		return nil
	})
	if err != nil {
		return count, fmt.Errorf("failed to walk workspace: %w", err)
	}
	return count, nil
}

// classify maps one fsnotify event to a change type. ok is false for events
// that do not concern a selected script.
func (fw *FileWatcher) classify(event fsnotify.Event) (ChangeType, bool) {
	rel, err := filepath.Rel(fw.workspace, event.Name)
	if err != nil || !fw.matcher.Match(rel) {
		return 0, false
	}
	switch {
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		return ChangeTypeRemoved, true
	case event.Has(fsnotify.Write), event.Has(fsnotify.Create):
		return ChangeTypeSource, true
	}
	return 0, false
}

// processEvents processes file system events and batches them by type
func (fw *FileWatcher) processEvents(ctx context.Context) {
	defer close(fw.done)
	defer close(fw.events)
	defer fw.watcher.Close()

	batches := make(map[ChangeType][]string)

	flushTimer := time.NewTimer(batchWindow)
	flushTimer.Stop()
	defer flushTimer.Stop()

	flush := func() bool {
		for _, typ := range []ChangeType{ChangeTypeSource, ChangeTypeRemoved} {
			if len(batches[typ]) == 0 {
				continue
			}
			select {
			case fw.events <- ChangeEvent{Type: typ, Paths: batches[typ], Timestamp: time.Now()}:
			case <-ctx.Done():
				return false
			}
		}
		batches = make(map[ChangeType][]string)
		return true
	}

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}

			if event.Has(fsnotify.Create) {
				fw.watchNewDir(event.Name)
			}

			typ, ok := fw.classify(event)
			if !ok {
				continue
			}
			logging.Trace("file change", "path", event.Name, "op", event.Op.String())
			batches[typ] = append(batches[typ], event.Name)
			flushTimer.Reset(batchWindow)

		case <-flushTimer.C:
			if !flush() {
				return
			}

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			logging.Error("watcher error", "error", err)
		}
	}
}

// watchNewDir starts watching path and its subdirectories if it is a new directory
func (fw *FileWatcher) watchNewDir(path string) {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() || finder.SkipDir(info.Name()) {
		return
	}
	if n, err := fw.watchTree(path); err == nil {
		logging.Debug("watching new directory", "path", path, "directories", n)
	}
}

// Events returns the channel of change events
func (fw *FileWatcher) Events() <-chan ChangeEvent {
	return fw.events
}

// Done is closed once event processing has stopped
func (fw *FileWatcher) Done() <-chan struct{} {
	return fw.done
}
