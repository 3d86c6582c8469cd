package watcher

import (
	"context"
	"sort"
	"time"

	"github.com/ritzau/unity-analyzer/pkg/logging"
)

// Debouncer batches rapid file system events to avoid excessive re-analysis.
// A batch is released after quietPeriod without new events, or maxWait after
// its first event, whichever comes first.
type Debouncer struct {
	input       <-chan ChangeEvent
	output      chan ChangeEvent
	quietPeriod time.Duration
	maxWait     time.Duration
}

// NewDebouncer creates a new event debouncer
func NewDebouncer(input <-chan ChangeEvent, quietPeriod, maxWait time.Duration) *Debouncer {
	return &Debouncer{
		input:       input,
		output:      make(chan ChangeEvent, 10),
		quietPeriod: quietPeriod,
		maxWait:     maxWait,
	}
}

// Start begins processing events with debouncing
func (d *Debouncer) Start(ctx context.Context) {
	go d.run(ctx)
}

// stopTimer stops t and drains a pending fire
func stopTimer(t *time.Timer) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
}

// run processes events and applies debouncing logic
func (d *Debouncer) run(ctx context.Context) {
	defer close(d.output)

	quiet := time.NewTimer(d.quietPeriod)
	stopTimer(quiet)
	maxWait := time.NewTimer(d.maxWait)
	stopTimer(maxWait)
	defer quiet.Stop()
	defer maxWait.Stop()

	accumulated := make(map[ChangeType]map[string]bool)
	eventCount := 0

	flush := func() {
		stopTimer(quiet)
		stopTimer(maxWait)
		if eventCount == 0 {
			return
		}

		logging.Debug("flushing accumulated events", "count", eventCount)

		// Removals last, so a file that was deleted and recreated reads as present
		for _, typ := range []ChangeType{ChangeTypeSource, ChangeTypeRemoved} {
			set := accumulated[typ]
			if len(set) == 0 {
				continue
			}
			paths := make([]string, 0, len(set))
			for p := range set {
				paths = append(paths, p)
			}
			sort.Strings(paths)

			select {
			case d.output <- ChangeEvent{Type: typ, Paths: paths, Timestamp: time.Now()}:
			case <-ctx.Done():
			}
		}

		accumulated = make(map[ChangeType]map[string]bool)
		eventCount = 0
	}

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-d.input:
			if !ok {
				flush()
				return
			}

			if accumulated[event.Type] == nil {
				accumulated[event.Type] = make(map[string]bool)
			}
			for _, p := range event.Paths {
				accumulated[event.Type][p] = true
			}
			if eventCount == 0 {
				maxWait.Reset(d.maxWait)
			}
			eventCount++

			stopTimer(quiet)
			quiet.Reset(d.quietPeriod)

		case <-quiet.C:
			flush()

		case <-maxWait.C:
			flush()
		}
	}
}

// Output returns the channel of debounced events
func (d *Debouncer) Output() <-chan ChangeEvent {
	return d.output
}
