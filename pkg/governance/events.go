package governance

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

func newEvent(kind string, now time.Time, payload any) Event {
	return Event{
		ID:      uuid.NewString(),
		Kind:    kind,
		Time:    now,
		Payload: payload,
	}
}

// LogSink writes every event to a structured logger.
type LogSink struct {
	logger *slog.Logger
}

// NewLogSink creates a sink over the given logger.
func NewLogSink(logger *slog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

// Emit logs the event.
func (s *LogSink) Emit(event Event) {
	s.logger.Info("governance event",
		"event_id", event.ID,
		"kind", event.Kind,
		"time", event.Time,
		"payload", event.Payload,
	)
}

// Recorder keeps the most recent events in memory for the read API.
type Recorder struct {
	capacity int
	events   []Event
	mutex    sync.RWMutex
}

// NewRecorder creates a recorder that retains up to capacity events.
func NewRecorder(capacity int) *Recorder {
	return &Recorder{capacity: capacity}
}

// Emit appends the event, evicting the oldest once over capacity.
func (r *Recorder) Emit(event Event) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.events = append(r.events, event)
	if len(r.events) > r.capacity {
		r.events = r.events[len(r.events)-r.capacity:]
	}
}

// Events returns the retained events, oldest first.
func (r *Recorder) Events() []Event {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// MultiSink fans an event out to several sinks.
type MultiSink []EventSink

// Emit forwards the event to every sink.
func (m MultiSink) Emit(event Event) {
	for _, sink := range m {
		sink.Emit(event)
	}
}
