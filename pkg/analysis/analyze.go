package analysis

import (
	"context"
	"fmt"
	"os"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/ritzau/unity-analyzer/pkg/architecture"
	"github.com/ritzau/unity-analyzer/pkg/assets"
	"github.com/ritzau/unity-analyzer/pkg/component"
	"github.com/ritzau/unity-analyzer/pkg/config"
	"github.com/ritzau/unity-analyzer/pkg/cycles"
	"github.com/ritzau/unity-analyzer/pkg/extract"
	"github.com/ritzau/unity-analyzer/pkg/graph"
	"github.com/ritzau/unity-analyzer/pkg/lifecycle"
	"github.com/ritzau/unity-analyzer/pkg/logging"
	"github.com/ritzau/unity-analyzer/pkg/model"
	"github.com/ritzau/unity-analyzer/pkg/patterns"
	"github.com/ritzau/unity-analyzer/pkg/syntax"
)

// Result is the project-wide model produced by one analysis run
type Result struct {
	// Success is false only when the run itself could not complete
	// (canceled, or no parser could be created). Per-file failures are diagnostics.
	Success           bool                      `json:"success"`
	Components        []*model.Component        `json:"components"` // Sorted by name
	Graph             *graph.ComponentGraph     `json:"graph"`
	LifecycleFlows    []model.LifecycleFlow     `json:"lifecycleFlows"`
	Patterns          []model.PatternInstance   `json:"patterns"`
	ScriptableObjects []assets.ScriptableObject `json:"scriptableObjects"`
	AssetDependencies []assets.Dependency       `json:"assetDependencies"`
	TopologicalOrder  []string                  `json:"topologicalOrder"`
	HasCycle          bool                      `json:"hasCycle"`
	Cycles            []cycles.ComponentCycle   `json:"cycles"`
	Architecture      *architecture.Report      `json:"architecture"`
	Diagnostics       []model.Diagnostic        `json:"diagnostics"`
	Files             []string                  `json:"files"` // Every input file, sorted
}

// Component looks up a component by class name
func (r *Result) Component(name string) (*model.Component, bool) {
	i := sort.Search(len(r.Components), func(i int) bool {
		return r.Components[i].ClassName >= name
	})
	if i < len(r.Components) && r.Components[i].ClassName == name {
		return r.Components[i], true
	}
	return nil, false
}

// FailedFiles returns the files whose contribution was dropped
func (r *Result) FailedFiles() []string {
	var out []string
	seen := make(map[string]bool)
	for _, d := range r.Diagnostics {
		if d.Fatal() && !seen[d.File] {
			seen[d.File] = true
			out = append(out, d.File)
		}
	}
	return out
}

// fileResult is what one file contributes before the merge
type fileResult struct {
	components  []*model.Component
	objects     []assets.ScriptableObject
	deps        []assets.Dependency
	diagnostics []model.Diagnostic
}

type worker struct {
	parser     *syntax.Parser
	classifier *component.Classifier
	assets     *assets.Analyzer
}

// Analyze runs the full pipeline over files. The context is checked between
// files: once canceled no further file is started, files in flight complete,
// and the result is returned with Success false.
func Analyze(ctx context.Context, actx *config.Context, files []string) *Result {
	if actx == nil {
		actx = config.DefaultContext()
	}

	paths := sortedUnique(files)
	logging.DebugContext(ctx, "analyzing files", "count", len(paths), "workers", actx.Workers)

	results, err := processAll(ctx, actx, paths)

	res := merge(paths, results)
	res.Success = err == nil
	if err != nil {
		logging.ErrorContext(ctx, "analysis did not complete", "error", err)
	}
	return res
}

func processAll(ctx context.Context, actx *config.Context, paths []string) (map[string]*fileResult, error) {
	results := make(map[string]*fileResult, len(paths))
	if len(paths) == 0 {
		return results, nil
	}

	workers := actx.Workers
	if workers < 1 {
		workers = 1
	}
	if workers > len(paths) {
		workers = len(paths)
	}

	var mu sync.Mutex
	jobs := make(chan string)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers + 1)

	for i := 0; i < workers; i++ {
		g.Go(func() error {
			parser, err := syntax.NewParser()
			if err != nil {
				return err
			}
			defer parser.Close()

			w := &worker{
				parser:     parser,
				classifier: component.NewClassifier(actx),
				assets:     assets.NewAnalyzer(actx),
			}
			for path := range jobs {
				fr := w.process(ctx, path)
				mu.Lock()
				results[path] = fr
				mu.Unlock()
			}
			return nil
		})
	}

	g.Go(func() error {
		defer close(jobs)
		for _, path := range paths {
			select {
			case <-gctx.Done():
				return context.Cause(gctx)
			case jobs <- path:
			}
		}
		return nil
	})

	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}
	return results, err
}

// process runs the per-file stages. A panic anywhere in them drops the file
// with an ExtractFailure diagnostic.
func (w *worker) process(ctx context.Context, path string) (fr *fileResult) {
	defer func() {
		if r := recover(); r != nil {
			fr = &fileResult{diagnostics: []model.Diagnostic{{
				File:    path,
				Kind:    model.DiagnosticExtractFailure,
				Message: fmt.Sprintf("extraction aborted: %v", r),
			}}}
			logging.WarnContext(ctx, "extraction aborted", "file", path, "panic", r)
		}
	}()

	fr = &fileResult{}

	content, err := os.ReadFile(path)
	if err != nil {
		logging.WarnContext(ctx, "could not read file", "file", path, "error", err)
		fr.diagnostics = append(fr.diagnostics, model.Diagnostic{
			File:    path,
			Kind:    model.DiagnosticReadFailure,
			Message: err.Error(),
		})
		return fr
	}

	tree, err := w.parser.Parse(content)
	if err != nil {
		logging.WarnContext(ctx, "could not parse file", "file", path, "error", err)
		fr.diagnostics = append(fr.diagnostics, model.Diagnostic{
			File:    path,
			Kind:    model.DiagnosticParseFailure,
			Message: err.Error(),
		})
		return fr
	}

	if errs := tree.Errors(); len(errs) > 0 {
		logging.DebugContext(ctx, "file has syntax errors", "file", path, "count", len(errs))
		fr.diagnostics = append(fr.diagnostics, model.Diagnostic{
			File:    path,
			Kind:    model.DiagnosticSyntaxError,
			Message: fmt.Sprintf("%d syntax error(s); first: %s", len(errs), errs[0]),
			Line:    errs[0].StartLine,
		})
	}

	file := extract.Extract(path, tree)
	fr.components = w.classifier.Classify(file, tree.Source())
	fr.objects, fr.deps = w.assets.Analyze(file)

	logging.TraceContext(ctx, "processed file",
		"file", path,
		"classes", len(file.Classes),
		"components", len(fr.components))
	return fr
}

// merge combines per-file results in sorted path order and runs the
// project-wide stages.
func merge(paths []string, results map[string]*fileResult) *Result {
	res := &Result{
		Components:        []*model.Component{},
		LifecycleFlows:    []model.LifecycleFlow{},
		Patterns:          []model.PatternInstance{},
		ScriptableObjects: []assets.ScriptableObject{},
		AssetDependencies: []assets.Dependency{},
		TopologicalOrder:  []string{},
		Cycles:            []cycles.ComponentCycle{},
		Diagnostics:       []model.Diagnostic{},
		Files:             paths,
	}

	byName := make(map[string]*model.Component)
	for _, path := range paths {
		fr, ok := results[path]
		if !ok {
			continue
		}
		res.Diagnostics = append(res.Diagnostics, fr.diagnostics...)

		for _, c := range fr.components {
			if prev, dup := byName[c.ClassName]; dup {
				res.Diagnostics = append(res.Diagnostics, model.Diagnostic{
					File: c.FilePath,
					Kind: model.DiagnosticDuplicateName,
					Message: fmt.Sprintf("component %s is declared in %s and %s; using %s",
						c.ClassName, prev.FilePath, c.FilePath, c.FilePath),
					Line: c.Span.StartLine,
				})
			}
			byName[c.ClassName] = c
		}

		res.ScriptableObjects = append(res.ScriptableObjects, fr.objects...)
		res.AssetDependencies = append(res.AssetDependencies, fr.deps...)
	}

	for _, c := range byName {
		res.Components = append(res.Components, c)
	}
	sort.Slice(res.Components, func(i, j int) bool {
		return res.Components[i].ClassName < res.Components[j].ClassName
	})
	sort.SliceStable(res.ScriptableObjects, func(i, j int) bool {
		return res.ScriptableObjects[i].ClassName < res.ScriptableObjects[j].ClassName
	})
	sort.SliceStable(res.Diagnostics, func(i, j int) bool {
		return res.Diagnostics[i].File < res.Diagnostics[j].File
	})

	component.ResolveFieldReferences(res.Components)

	res.Graph = graph.Build(res.Components)
	res.HasCycle = res.Graph.HasCycle()
	res.TopologicalOrder = res.Graph.TopologicalOrder()
	res.Cycles = cycles.FindComponentCycles(res.Graph)
	res.LifecycleFlows = lifecycle.MapAll(res.Components)
	res.Patterns = patterns.Detect(res.Components)
	res.Architecture = architecture.Analyze(res.Components, res.Graph, res.Cycles, res.Patterns)

	return res
}

func sortedUnique(files []string) []string {
	out := make([]string, 0, len(files))
	seen := make(map[string]bool, len(files))
	for _, f := range files {
		if !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	}
	sort.Strings(out)
	return out
}
