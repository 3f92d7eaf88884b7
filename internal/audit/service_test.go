package audit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

// blockingSink holds every write until released, to keep events queued.
type blockingSink struct {
	release chan struct{}
	mu      sync.Mutex
	events  []Event
}

func (s *blockingSink) Write(_ context.Context, event Event) error {
	<-s.release
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *blockingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

type failingSink struct{}

func (failingSink) Write(context.Context, Event) error {
	return errors.New("sink unavailable")
}

func TestService_RecordAndDrain(t *testing.T) {
	sink := NewMemorySink()
	svc := NewService(sink, nil, 16, zerolog.Nop())

	for i := 0; i < 5; i++ {
		svc.Record(Event{EntityType: "QUOTE", EntityID: "q1"})
	}
	if err := svc.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	events := sink.Events()
	if len(events) != 5 {
		t.Fatalf("Expected 5 events after drain, got %d", len(events))
	}
	for _, event := range events {
		if event.ID == "" {
			t.Error("Record should assign an event ID")
		}
		if event.OccurredAt.IsZero() {
			t.Error("Record should stamp OccurredAt")
		}
		if event.Action != ActionRuleExecution {
			t.Errorf("Default action should be %s, got %s", ActionRuleExecution, event.Action)
		}
	}
}

func TestService_PreservesExplicitFields(t *testing.T) {
	sink := NewMemorySink()
	svc := NewService(sink, nil, 4, zerolog.Nop())

	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	svc.Record(Event{ID: "evt-1", OccurredAt: at, Action: "RULE_EXECUTION", EntityType: "QUOTE", EntityID: "q1"})
	_ = svc.Close()

	events := sink.Events()
	if len(events) != 1 {
		t.Fatalf("Expected 1 event, got %d", len(events))
	}
	if events[0].ID != "evt-1" || !events[0].OccurredAt.Equal(at) {
		t.Errorf("Explicit identity fields must survive: %+v", events[0])
	}
}

func TestService_DropsWhenQueueFull(t *testing.T) {
	sink := &blockingSink{release: make(chan struct{})}
	svc := NewService(sink, nil, 2, zerolog.Nop())

	// Saturate the worker plus the queue, then some. Record must never
	// block, whatever the sink is doing.
	done := make(chan struct{})
	go func() {
		for i := 0; i < 20; i++ {
			svc.Record(Event{EntityType: "QUOTE"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Record blocked on a full queue")
	}

	close(sink.release)
	_ = svc.Close()

	if n := sink.count(); n > 20 || n == 0 {
		t.Errorf("Expected between 1 and 20 delivered events, got %d", n)
	}
}

func TestService_SinkErrorsAreSwallowed(t *testing.T) {
	svc := NewService(failingSink{}, nil, 4, zerolog.Nop())
	svc.Record(Event{EntityType: "QUOTE"})
	// A failing sink must not wedge or panic the service.
	if err := svc.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
}

func TestService_CloseIsIdempotent(t *testing.T) {
	svc := NewService(NewMemorySink(), nil, 4, zerolog.Nop())
	if err := svc.Close(); err != nil {
		t.Fatalf("First Close failed: %v", err)
	}
	if err := svc.Close(); err != nil {
		t.Fatalf("Second Close failed: %v", err)
	}
}
