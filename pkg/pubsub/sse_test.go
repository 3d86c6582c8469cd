package pubsub

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func publishN(t *testing.T, pub *SSEPublisher, n int) {
	t.Helper()
	for i := 1; i <= n; i++ {
		status := AnalysisStatus{State: StateAnalyzing, Step: i, Total: n}
		if err := pub.Publish(TopicAnalysisStatus, status.State, status); err != nil {
			t.Fatalf("Failed to publish event %d: %v", i, err)
		}
	}
}

func receive(t *testing.T, sub Subscription) Event {
	t.Helper()
	select {
	case event, ok := <-sub.Events():
		if !ok {
			t.Fatal("Subscription closed unexpectedly")
		}
		return event
	case <-time.After(time.Second):
		t.Fatal("Timeout waiting for event")
	}
	return Event{}
}

func expectNone(t *testing.T, sub Subscription) {
	t.Helper()
	select {
	case event := <-sub.Events():
		t.Errorf("Received unexpected event version %d", event.Version)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestEventBuffer(t *testing.T) {
	pub := NewSSEPublisher()
	defer pub.Close()

	pub.ConfigureTopic(TopicAnalysisStatus, TopicConfig{BufferSize: 3, ReplayAll: true})
	publishN(t, pub, 5)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sub, err := pub.Subscribe(ctx, TopicAnalysisStatus)
	if err != nil {
		t.Fatalf("Failed to subscribe: %v", err)
	}
	defer sub.Close()

	// Last 3 of 5
	for want := 3; want <= 5; want++ {
		if event := receive(t, sub); event.Version != want {
			t.Errorf("Expected version %d, got %d", want, event.Version)
		}
	}
	expectNone(t, sub)
}

func TestReplayLastOnly(t *testing.T) {
	pub := NewSSEPublisher()
	defer pub.Close()

	pub.ConfigureTopic(TopicAnalysisStatus, TopicConfig{BufferSize: 5, ReplayAll: false})
	publishN(t, pub, 3)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sub, err := pub.Subscribe(ctx, TopicAnalysisStatus)
	if err != nil {
		t.Fatalf("Failed to subscribe: %v", err)
	}
	defer sub.Close()

	event := receive(t, sub)
	if event.Version != 3 {
		t.Errorf("Expected version 3, got %d", event.Version)
	}

	var status AnalysisStatus
	if err := json.Unmarshal(event.Data, &status); err != nil {
		t.Fatalf("Bad payload: %v", err)
	}
	if status.Step != 3 || status.State != StateAnalyzing {
		t.Errorf("Unexpected payload %+v", status)
	}

	expectNone(t, sub)
}

func TestNoBuffer(t *testing.T) {
	pub := NewSSEPublisher()
	defer pub.Close()

	publishN(t, pub, 3)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sub, err := pub.Subscribe(ctx, TopicAnalysisStatus)
	if err != nil {
		t.Fatalf("Failed to subscribe: %v", err)
	}
	defer sub.Close()

	expectNone(t, sub)

	if err := pub.Publish(TopicAnalysisStatus, StateReady, AnalysisStatus{State: StateReady}); err != nil {
		t.Fatalf("Failed to publish new event: %v", err)
	}
	if event := receive(t, sub); event.Version != 4 || event.Type != StateReady {
		t.Errorf("Expected ready event version 4, got %s version %d", event.Type, event.Version)
	}
}

func TestContextCancelClosesSubscription(t *testing.T) {
	pub := NewSSEPublisher()
	defer pub.Close()

	ctx, cancel := context.WithCancel(context.Background())
	sub, err := pub.Subscribe(ctx, TopicModel)
	if err != nil {
		t.Fatalf("Failed to subscribe: %v", err)
	}
	cancel()

	select {
	case _, ok := <-sub.Events():
		if ok {
			t.Error("Expected closed channel")
		}
	case <-time.After(time.Second):
		t.Fatal("Subscription not closed after cancel")
	}

	if n := pub.SubscriberCount(TopicModel); n != 0 {
		t.Errorf("Expected no subscribers, got %d", n)
	}
	// Publishing after the subscriber left must not panic
	if err := pub.Publish(TopicModel, "ready", ModelSummary{Complete: true}); err != nil {
		t.Errorf("Publish failed: %v", err)
	}
}

func TestCloseTwiceAndPublishAfterClose(t *testing.T) {
	pub := NewSSEPublisher()

	sub, err := pub.Subscribe(context.Background(), TopicModel)
	if err != nil {
		t.Fatalf("Failed to subscribe: %v", err)
	}

	if err := pub.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := pub.Close(); err != nil {
		t.Errorf("Second close failed: %v", err)
	}
	if err := sub.Close(); err != nil {
		t.Errorf("Closing a subscription after the publisher failed: %v", err)
	}

	if err := pub.Publish(TopicModel, "ready", nil); !errors.Is(err, ErrClosed) {
		t.Errorf("Expected ErrClosed, got %v", err)
	}
	if _, err := pub.Subscribe(context.Background(), TopicModel); !errors.Is(err, ErrClosed) {
		t.Errorf("Expected ErrClosed, got %v", err)
	}
}

func TestWriteSSE(t *testing.T) {
	var buf bytes.Buffer
	event := Event{Topic: TopicAnalysisStatus, Type: StateReady, Data: json.RawMessage(`{"state":"ready"}`), Version: 7}

	if err := WriteSSE(&buf, event); err != nil {
		t.Fatalf("WriteSSE failed: %v", err)
	}

	out := buf.String()
	if !strings.HasPrefix(out, "event: ready\ndata: {") || !strings.HasSuffix(out, "}\n\n") {
		t.Errorf("Unexpected frame %q", out)
	}
	if !strings.Contains(out, `"version":7`) {
		t.Errorf("Frame missing version: %q", out)
	}
}
