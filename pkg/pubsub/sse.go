package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/ritzau/unity-analyzer/pkg/logging"
)

// TopicConfig configures buffering behavior for a topic
type TopicConfig struct {
	BufferSize int  // Number of events to buffer (0 = no buffering)
	ReplayAll  bool // If true, replay all buffered events; if false, only replay last event
}

// subscriberBuffer is the channel capacity of one subscription
const subscriberBuffer = 100

// SSEPublisher implements Publisher using Server-Sent Events
type SSEPublisher struct {
	mu            sync.RWMutex
	subscriptions map[string]map[*sseSubscription]bool // topic -> set of subscriptions
	version       map[string]int                       // topic -> version counter
	eventBuffer   map[string][]Event                   // topic -> ring buffer of events
	topicConfig   map[string]TopicConfig               // topic -> configuration
	closed        bool
}

// NewSSEPublisher creates a new SSE-based publisher
func NewSSEPublisher() *SSEPublisher {
	return &SSEPublisher{
		subscriptions: make(map[string]map[*sseSubscription]bool),
		version:       make(map[string]int),
		eventBuffer:   make(map[string][]Event),
		topicConfig:   make(map[string]TopicConfig),
	}
}

// ConfigureTopic sets buffering configuration for a topic
func (p *SSEPublisher) ConfigureTopic(topic string, config TopicConfig) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topicConfig[topic] = config
}

// Subscribe creates a new subscription to a topic. Buffered events are
// queued before the subscription is registered, so a replayed event always
// precedes live ones.
func (p *SSEPublisher) Subscribe(ctx context.Context, topic string) (Subscription, error) {
	p.mu.Lock()

	if p.closed {
		p.mu.Unlock()
		return nil, ErrClosed
	}

	sub := &sseSubscription{
		topic:     topic,
		events:    make(chan Event, subscriberBuffer),
		done:      make(chan struct{}),
		publisher: p,
	}

	replay := p.eventBuffer[topic]
	if !p.topicConfig[topic].ReplayAll && len(replay) > 0 {
		replay = replay[len(replay)-1:]
	}
	for _, event := range replay {
		select {
		case sub.events <- event:
		default:
			logging.Warn("could not replay event to new subscriber", "topic", topic, "version", event.Version)
		}
	}

	if p.subscriptions[topic] == nil {
		p.subscriptions[topic] = make(map[*sseSubscription]bool)
	}
	p.subscriptions[topic][sub] = true
	p.mu.Unlock()

	if len(replay) > 0 {
		logging.Debug("replayed events to new subscriber", "topic", topic, "count", len(replay))
	}

	// Close on context cancellation, or exit when closed directly
	go func() {
		select {
		case <-ctx.Done():
			sub.Close()
		case <-sub.done:
		}
	}()

	return sub, nil
}

// Publish sends an event to all subscribers of a topic
func (p *SSEPublisher) Publish(topic string, eventType string, data interface{}) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrClosed
	}

	p.version[topic]++
	event := Event{
		Topic:   topic,
		Type:    eventType,
		Data:    jsonData,
		Version: p.version[topic],
	}

	if config := p.topicConfig[topic]; config.BufferSize > 0 {
		buffer := append(p.eventBuffer[topic], event)
		if len(buffer) > config.BufferSize {
			buffer = buffer[len(buffer)-config.BufferSize:]
		}
		p.eventBuffer[topic] = buffer
	}

	// Non-blocking: a slow subscriber loses events rather than stalling the analysis
	for sub := range p.subscriptions[topic] {
		select {
		case sub.events <- event:
		default:
			logging.Warn("subscription channel full, dropping event", "topic", topic, "version", event.Version)
		}
	}

	return nil
}

// Close shuts down the publisher and all subscriptions
func (p *SSEPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true

	for _, subs := range p.subscriptions {
		for sub := range subs {
			sub.shutdown()
		}
	}
	p.subscriptions = make(map[string]map[*sseSubscription]bool)

	return nil
}

// SubscriberCount returns the number of live subscriptions to topic
func (p *SSEPublisher) SubscriberCount(topic string) int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.subscriptions[topic])
}

// unsubscribe removes a subscription and closes it (called by subscription.Close()).
// Holding the lock keeps Publish from sending on a closed channel.
func (p *SSEPublisher) unsubscribe(sub *sseSubscription) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if subs := p.subscriptions[sub.topic]; subs != nil {
		delete(subs, sub)
		if len(subs) == 0 {
			delete(p.subscriptions, sub.topic)
		}
	}
	sub.shutdown()
}

// sseSubscription implements Subscription
type sseSubscription struct {
	topic     string
	events    chan Event
	done      chan struct{}
	publisher *SSEPublisher
	closed    bool
	mu        sync.Mutex
}

// Topic returns the subscription topic
func (s *sseSubscription) Topic() string {
	return s.topic
}

// Events returns a channel for receiving events. It is closed when the
// subscription or the publisher is closed.
func (s *sseSubscription) Events() <-chan Event {
	return s.events
}

// Close closes the subscription
func (s *sseSubscription) Close() error {
	s.publisher.unsubscribe(s)
	return nil
}

// shutdown closes the channels once. Callers hold the publisher lock.
func (s *sseSubscription) shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	close(s.done)
	close(s.events)
}

// WriteSSE writes an event to an SSE response writer
// Format: "event: {type}\ndata: {json}\n\n"
func WriteSSE(w io.Writer, event Event) error {
	jsonData, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, jsonData)
	return err
}
