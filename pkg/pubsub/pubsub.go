package pubsub

import (
	"context"
	"encoding/json"
	"errors"
)

// Topics published by the analyzer
const (
	TopicAnalysisStatus = "analysis_status"
	TopicModel          = "model"
)

// Analysis states carried in AnalysisStatus.State and Event.Type
const (
	StateDiscovering = "discovering"
	StateAnalyzing   = "analyzing"
	StateReady       = "ready"
	StateError       = "error"
)

// ErrClosed is returned by a publisher after Close
var ErrClosed = errors.New("publisher is closed")

// Event represents a pub/sub event
type Event struct {
	Topic   string          `json:"topic"`   // Subscription topic, e.g. "analysis_status"
	Type    string          `json:"type"`    // Event type, e.g. "discovering", "ready"
	Data    json.RawMessage `json:"data"`    // Event payload
	Version int             `json:"version"` // Version number for ordering
}

// Subscription represents a client subscription to a topic
type Subscription interface {
	// Topic returns the subscription topic
	Topic() string

	// Events returns a channel for receiving events
	Events() <-chan Event

	// Close closes the subscription
	Close() error
}

// Publisher manages pub/sub subscriptions and event publishing
type Publisher interface {
	// Subscribe creates a new subscription to a topic
	// Context cancellation will close the subscription
	Subscribe(ctx context.Context, topic string) (Subscription, error)

	// Publish sends an event to all subscribers of a topic
	Publish(topic string, eventType string, data interface{}) error

	// Close shuts down the publisher and all subscriptions
	Close() error
}

// AnalysisStatus reports the progress of one analysis run
type AnalysisStatus struct {
	RunID   string `json:"runId,omitempty"`
	State   string `json:"state"`   // discovering, analyzing, ready, error
	Message string `json:"message"` // Human-readable status message
	Step    int    `json:"step"`    // Current step number (1-based)
	Total   int    `json:"total"`   // Total number of steps
}

// ModelSummary announces that a new model is available under /api/model
type ModelSummary struct {
	RunID       string `json:"runId,omitempty"`
	Files       int    `json:"files"`
	Components  int    `json:"components"`
	Edges       int    `json:"edges"`
	Cycles      int    `json:"cycles"`
	Diagnostics int    `json:"diagnostics"`
	Complete    bool   `json:"complete"`
}
