package audit

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ozsure/quoting/internal/telemetry"
)

const writeTimeout = 5 * time.Second

// Service queues audit events and writes them from a background worker so
// that rule execution never blocks on audit persistence.
type Service struct {
	sink   Sink
	clock  Clock
	log    zerolog.Logger
	queue  chan Event
	stopCh chan struct{}
	done   chan struct{}
	closed int32 // atomic flag to prevent double-close
}

// NewService starts the background worker. queueSize bounds the number of
// in-flight events; when the queue is full new events are dropped with a
// log line rather than blocking the caller.
func NewService(sink Sink, clock Clock, queueSize int, log zerolog.Logger) *Service {
	if clock == nil {
		clock = SystemClock{}
	}
	if queueSize <= 0 {
		queueSize = 256
	}

	s := &Service{
		sink:   sink,
		clock:  clock,
		log:    log,
		queue:  make(chan Event, queueSize),
		stopCh: make(chan struct{}),
		done:   make(chan struct{}),
	}
	go s.worker()
	return s
}

func (s *Service) worker() {
	defer close(s.done)
	for {
		select {
		case event := <-s.queue:
			s.write(event)
		case <-s.stopCh:
			// Drain remaining events before stopping.
			for {
				select {
				case event := <-s.queue:
					s.write(event)
				default:
					return
				}
			}
		}
	}
}

func (s *Service) write(event Event) {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	if err := s.sink.Write(ctx, event); err != nil {
		s.log.Error().Err(err).
			Str("entity_type", event.EntityType).
			Str("entity_id", event.EntityID).
			Msg("audit: failed to write event")
	}
}

// Record queues an event for asynchronous persistence. Missing identity
// and timestamp fields are filled in here.
func (s *Service) Record(event Event) {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = s.clock.Now()
	}
	if event.Action == "" {
		event.Action = ActionRuleExecution
	}

	select {
	case s.queue <- event:
	default:
		telemetry.AuditDropped.Inc()
		s.log.Warn().
			Str("entity_type", event.EntityType).
			Str("entity_id", event.EntityID).
			Msg("audit: queue full, dropping event")
	}
}

// Close stops the worker after draining the queue. Safe to call more than
// once.
func (s *Service) Close() error {
	if !atomic.CompareAndSwapInt32(&s.closed, 0, 1) {
		return nil
	}
	close(s.stopCh)
	<-s.done
	return nil
}
