package analysis

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ritzau/unity-analyzer/pkg/config"
	"github.com/ritzau/unity-analyzer/pkg/finder"
	"github.com/ritzau/unity-analyzer/pkg/logging"
	"github.com/ritzau/unity-analyzer/pkg/pubsub"
)

// runSteps is the number of phases reported in status events
const runSteps = 3

// Sink receives progress and results of runs. The web server implements it.
type Sink interface {
	PublishStatus(status pubsub.AnalysisStatus)
	SetResult(runID string, res *Result)
}

// Runner orchestrates repeated analysis of one workspace
type Runner struct {
	actx *config.Context
	sink Sink
	mu   sync.Mutex // Prevent concurrent analysis runs

	latestMu sync.RWMutex
	latest   *Result
}

// Options configures one run
type Options struct {
	Reason string   // e.g., "initial analysis", "Assets/Player.cs changed"
	Files  []string // Explicit input; when empty the workspace is searched
}

// NewRunner creates a runner. sink may be nil.
func NewRunner(actx *config.Context, sink Sink) *Runner {
	if actx == nil {
		actx = config.DefaultContext()
	}
	return &Runner{actx: actx, sink: sink}
}

// Latest returns the result of the last completed run, or nil
func (r *Runner) Latest() *Result {
	r.latestMu.RLock()
	defer r.latestMu.RUnlock()
	return r.latest
}

func (r *Runner) publish(runID, state, message string, step int) {
	if r.sink == nil {
		return
	}
	r.sink.PublishStatus(pubsub.AnalysisStatus{
		RunID:   runID,
		State:   state,
		Message: message,
		Step:    step,
		Total:   runSteps,
	})
}

// Run discovers the input, analyzes it and hands the result to the sink.
// Runs are serialized; an error means no result was produced.
func (r *Runner) Run(ctx context.Context, opts Options) (*Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	runID := uuid.New().String()
	ctx = logging.WithRunID(ctx, runID)
	start := time.Now()

	logging.InfoContext(ctx, "starting analysis", "reason", opts.Reason)

	// Phase 1: discovery
	files := opts.Files
	if len(files) == 0 {
		r.publish(runID, pubsub.StateDiscovering, "Discovering C# files...", 1)
		logging.InfoContext(ctx, "[1/3] discovering source files", "workspace", r.actx.Workspace)

		var err error
		files, err = finder.FindSourceFiles(r.actx.Workspace, finder.NewMatcher(r.actx.Include, r.actx.Exclude))
		if err != nil {
			logging.ErrorContext(ctx, "[1/3] could not discover files", "error", err)
			r.publish(runID, pubsub.StateError, fmt.Sprintf("Error discovering files: %v", err), 1)
			return nil, fmt.Errorf("file discovery failed: %w", err)
		}
	}
	logging.InfoContext(ctx, "[1/3] found source files", "count", len(files))

	// Phase 2: analysis
	r.publish(runID, pubsub.StateAnalyzing, fmt.Sprintf("Analyzing %d files...", len(files)), 2)
	logging.InfoContext(ctx, "[2/3] analyzing components")

	res := Analyze(ctx, r.actx, files)
	if !res.Success {
		err := ctx.Err()
		if err == nil {
			err = errors.New("analysis incomplete")
		}
		r.publish(runID, pubsub.StateError, "Analysis did not complete", 2)
		return res, fmt.Errorf("analysis failed: %w", err)
	}

	for _, d := range res.Diagnostics {
		if d.Fatal() {
			logging.WarnContext(ctx, "[2/3] file skipped", "file", d.File, "kind", string(d.Kind), "message", d.Message)
		}
	}
	logging.InfoContext(ctx, "[2/3] analysis complete",
		"components", len(res.Components),
		"edges", len(res.Graph.Edges()),
		"cycles", len(res.Cycles),
		"diagnostics", len(res.Diagnostics),
	)

	// Phase 3: publish
	r.latestMu.Lock()
	r.latest = res
	r.latestMu.Unlock()

	if r.sink != nil {
		r.sink.SetResult(runID, res)
	}
	r.publish(runID, pubsub.StateReady, "Analysis complete", 3)

	logging.InfoContext(ctx, "[3/3] complete",
		"reason", opts.Reason,
		"durationMs", time.Since(start).Milliseconds(),
	)
	return res, nil
}
