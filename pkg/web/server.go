package web

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"github.com/ritzau/unity-analyzer/pkg/analysis"
	"github.com/ritzau/unity-analyzer/pkg/lifecycle"
	"github.com/ritzau/unity-analyzer/pkg/logging"
	"github.com/ritzau/unity-analyzer/pkg/model"
	"github.com/ritzau/unity-analyzer/pkg/patterns"
	"github.com/ritzau/unity-analyzer/pkg/pubsub"
)

//go:embed static/*
var staticFiles embed.FS

// ComponentDetail is the /api/components/{name} payload
type ComponentDetail struct {
	*model.Component
	Dependencies []string            `json:"dependencies"`
	Dependents   []string            `json:"dependents"`
	Lifecycle    model.LifecycleFlow `json:"lifecycle"`
	Patterns     []model.PatternKind `json:"patterns"`
	Diagnostics  []model.Diagnostic  `json:"diagnostics"`
}

// ComponentSummary is one entry of the /api/components list
type ComponentSummary struct {
	ClassName    string `json:"className"`
	FilePath     string `json:"filePath"`
	Namespace    string `json:"namespace,omitempty"`
	Complexity   int    `json:"complexity"`
	Dependencies int    `json:"dependencies"`
	Dependents   int    `json:"dependents"`
}

// Server represents the web server
type Server struct {
	router    *mux.Router
	publisher *pubsub.SSEPublisher

	mu     sync.RWMutex
	result *analysis.Result
	runID  string
}

// NewServer creates a new web server
func NewServer() *Server {
	ssePublisher := pubsub.NewSSEPublisher()

	// analysis_status: buffer last 10 events, replay only last event to new subscribers
	ssePublisher.ConfigureTopic(pubsub.TopicAnalysisStatus, pubsub.TopicConfig{
		BufferSize: 10,
		ReplayAll:  false,
	})
	ssePublisher.ConfigureTopic(pubsub.TopicModel, pubsub.TopicConfig{
		BufferSize: 1,
		ReplayAll:  false,
	})

	s := &Server{
		router:    mux.NewRouter(),
		publisher: ssePublisher,
	}
	s.setupRoutes()
	return s
}

// SetResult stores the latest model and announces it to subscribers
func (s *Server) SetResult(runID string, res *analysis.Result) {
	s.mu.Lock()
	s.result = res
	s.runID = runID
	s.mu.Unlock()

	summary := pubsub.ModelSummary{RunID: runID, Complete: res != nil && res.Success}
	if res != nil {
		summary.Files = len(res.Files)
		summary.Components = len(res.Components)
		summary.Cycles = len(res.Cycles)
		summary.Diagnostics = len(res.Diagnostics)
		if res.Graph != nil {
			summary.Edges = len(res.Graph.Edges())
		}
	}
	if err := s.publisher.Publish(pubsub.TopicModel, pubsub.StateReady, summary); err != nil {
		logging.Warn("could not publish model event", "error", err)
	}
}

// PublishStatus publishes an analysis status event
func (s *Server) PublishStatus(status pubsub.AnalysisStatus) {
	if err := s.publisher.Publish(pubsub.TopicAnalysisStatus, status.State, status); err != nil {
		logging.Warn("could not publish status event", "error", err)
	}
}

// Result returns the model currently served
func (s *Server) Result() *analysis.Result {
	res, _ := s.current()
	return res
}

func (s *Server) current() (*analysis.Result, string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.result, s.runID
}

// Handler returns the router wrapped in request logging
func (s *Server) Handler() http.Handler {
	return logging.RequestIDMiddleware(s.router)
}

func (s *Server) setupRoutes() {
	// SSE subscription endpoints
	s.router.HandleFunc("/api/subscribe/{topic}", s.handleSubscribe).Methods("GET")

	// API routes - more specific routes must come first
	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/model", s.withResult(s.handleModel)).Methods("GET")
	api.HandleFunc("/components", s.withResult(s.handleComponents)).Methods("GET")
	api.HandleFunc("/components/{name}/focused", s.withResult(s.handleComponentFocused)).Methods("GET")
	api.HandleFunc("/components/{name}", s.withResult(s.handleComponent)).Methods("GET")
	api.HandleFunc("/graph", s.withResult(s.handleGraph)).Methods("GET")
	api.HandleFunc("/cycles", s.withResult(s.handleCycles)).Methods("GET")
	api.HandleFunc("/lifecycle", s.withResult(s.handleLifecycle)).Methods("GET")
	api.HandleFunc("/lifecycle/order", s.withResult(s.handleExecutionOrder)).Methods("GET")
	api.HandleFunc("/patterns", s.withResult(s.handlePatterns)).Methods("GET")
	api.HandleFunc("/assets", s.withResult(s.handleAssets)).Methods("GET")
	api.HandleFunc("/architecture", s.withResult(s.handleArchitecture)).Methods("GET")
	api.HandleFunc("/diagnostics", s.withResult(s.handleDiagnostics)).Methods("GET")

	// Serve static files
	staticFS, err := fs.Sub(staticFiles, "static")
	if err != nil {
		logging.Fatal("embedded static files missing", "error", err)
	}
	s.router.PathPrefix("/").Handler(http.FileServer(http.FS(staticFS)))
}

type resultHandler func(w http.ResponseWriter, r *http.Request, res *analysis.Result)

// withResult answers 503 until the first run has completed
func (s *Server) withResult(h resultHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, runID := s.current()
		if res == nil {
			writeError(w, http.StatusServiceUnavailable, "analysis not available yet")
			return
		}
		w.Header().Set("X-Run-ID", runID)
		h(w, r, res)
	}
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Warn("could not encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func (s *Server) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	topic := mux.Vars(r)["topic"]
	if topic != pubsub.TopicAnalysisStatus && topic != pubsub.TopicModel {
		writeError(w, http.StatusNotFound, fmt.Sprintf("unknown topic %q", topic))
		return
	}

	sub, err := s.publisher.Subscribe(r.Context(), topic)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	defer sub.Close()

	// Set SSE headers
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	// Send initial comment to establish connection (Safari compatibility)
	fmt.Fprintf(w, ": connected\n\n")
	flusher, _ := w.(http.Flusher)
	if flusher != nil {
		flusher.Flush()
	}

	logging.DebugContext(r.Context(), "subscriber connected", "topic", topic)

	for event := range sub.Events() {
		if err := pubsub.WriteSSE(w, event); err != nil {
			logging.DebugContext(r.Context(), "subscriber went away", "topic", topic, "error", err)
			return
		}
		if flusher != nil {
			flusher.Flush()
		}
	}
}

func (s *Server) handleModel(w http.ResponseWriter, r *http.Request, res *analysis.Result) {
	writeJSON(w, res)
}

func (s *Server) handleComponents(w http.ResponseWriter, r *http.Request, res *analysis.Result) {
	list := make([]ComponentSummary, 0, len(res.Components))
	for _, c := range res.Components {
		list = append(list, ComponentSummary{
			ClassName:    c.ClassName,
			FilePath:     c.FilePath,
			Namespace:    c.Namespace,
			Complexity:   c.Complexity,
			Dependencies: len(res.Graph.Dependencies(c.ClassName)),
			Dependents:   len(res.Graph.Dependents(c.ClassName)),
		})
	}
	writeJSON(w, list)
}

func (s *Server) handleComponent(w http.ResponseWriter, r *http.Request, res *analysis.Result) {
	name := mux.Vars(r)["name"]
	c, ok := res.Component(name)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("component %q not found", name))
		return
	}

	detail := ComponentDetail{
		Component:    c,
		Dependencies: res.Graph.Dependencies(name),
		Dependents:   res.Graph.Dependents(name),
		Lifecycle:    lifecycle.Map(c),
		Patterns:     []model.PatternKind{},
		Diagnostics:  []model.Diagnostic{},
	}
	for _, p := range res.Patterns {
		for _, member := range p.Components {
			if member == name {
				detail.Patterns = append(detail.Patterns, p.Kind)
				break
			}
		}
	}
	for _, d := range res.Diagnostics {
		if d.File == c.FilePath {
			detail.Diagnostics = append(detail.Diagnostics, d)
		}
	}
	writeJSON(w, detail)
}

func (s *Server) handleComponentFocused(w http.ResponseWriter, r *http.Request, res *analysis.Result) {
	name := mux.Vars(r)["name"]
	if !res.Graph.IsComponent(name) {
		writeError(w, http.StatusNotFound, fmt.Sprintf("component %q not found", name))
		return
	}
	depth := 1
	if v := r.URL.Query().Get("depth"); v != "" {
		d, err := strconv.Atoi(v)
		if err != nil || d < 1 {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid depth %q", v))
			return
		}
		depth = d
	}
	writeJSON(w, FocusedGraph(res.Graph, name, depth))
}

func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request, res *analysis.Result) {
	writeJSON(w, res.Graph.Visualization())
}

func (s *Server) handleCycles(w http.ResponseWriter, r *http.Request, res *analysis.Result) {
	writeJSON(w, map[string]interface{}{
		"hasCycle":         res.HasCycle,
		"cycles":           res.Cycles,
		"topologicalOrder": res.TopologicalOrder,
	})
}

func (s *Server) handleLifecycle(w http.ResponseWriter, r *http.Request, res *analysis.Result) {
	phase := r.URL.Query().Get("phase")
	if phase == "" {
		writeJSON(w, res.LifecycleFlows)
		return
	}
	writeJSON(w, map[string]interface{}{
		"phase":       phase,
		"description": lifecycle.PhaseDescription(model.Phase(phase)),
		"methods":     lifecycle.MethodsInPhase(res.LifecycleFlows, model.Phase(phase)),
	})
}

func (s *Server) handleExecutionOrder(w http.ResponseWriter, r *http.Request, res *analysis.Result) {
	writeJSON(w, lifecycle.ExecutionOrder(res.LifecycleFlows))
}

func (s *Server) handlePatterns(w http.ResponseWriter, r *http.Request, res *analysis.Result) {
	if kind := r.URL.Query().Get("kind"); kind != "" {
		writeJSON(w, patterns.ByKind(res.Patterns, model.PatternKind(kind)))
		return
	}

	freq := patterns.Frequency(res.Patterns)
	kinds := make([]string, 0, len(freq))
	for k := range freq {
		kinds = append(kinds, string(k))
	}
	sort.Strings(kinds)
	writeJSON(w, map[string]interface{}{
		"instances": res.Patterns,
		"frequency": freq,
		"kinds":     kinds,
	})
}

func (s *Server) handleAssets(w http.ResponseWriter, r *http.Request, res *analysis.Result) {
	writeJSON(w, map[string]interface{}{
		"scriptableObjects": res.ScriptableObjects,
		"dependencies":      res.AssetDependencies,
	})
}

// handleArchitecture serves the whole report, or one part of it with
// ?section=clusters|dataflow|systems
func (s *Server) handleArchitecture(w http.ResponseWriter, r *http.Request, res *analysis.Result) {
	report := res.Architecture
	switch section := r.URL.Query().Get("section"); section {
	case "":
		writeJSON(w, report)
	case "clusters":
		writeJSON(w, map[string]interface{}{
			"clusters":     report.Clusters,
			"isolated":     report.Isolated,
			"highCoupling": report.HighCoupling,
		})
	case "dataflow":
		writeJSON(w, report.DataFlow)
	case "systems":
		writeJSON(w, report.Systems)
	default:
		http.Error(w, fmt.Sprintf("unknown section %q", section), http.StatusBadRequest)
	}
}

func (s *Server) handleDiagnostics(w http.ResponseWriter, r *http.Request, res *analysis.Result) {
	writeJSON(w, res.Diagnostics)
}

// Start serves until ctx is done, then shuts down gracefully
func (s *Server) Start(ctx context.Context, port int) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Info("starting web server", "url", fmt.Sprintf("http://localhost:%d", port))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	// Ends open event streams so Shutdown does not wait on them
	s.publisher.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Close releases the publisher and ends open event streams
func (s *Server) Close() error {
	return s.publisher.Close()
}
