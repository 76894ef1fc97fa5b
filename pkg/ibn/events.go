package ibn

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// EventType categorizes reconcile lifecycle events.
type EventType string

const (
	EventIntentCreated     EventType = "intent.created"
	EventIntentUpdated     EventType = "intent.updated"
	EventIntentDeleted     EventType = "intent.deleted"
	EventOperationRun      EventType = "intent.operation"
	EventIntentTypeWritten EventType = "intent_type.written"
	EventIntentTypeDeleted EventType = "intent_type.deleted"
)

// Event records one remote write or operation issued during a
// reconciliation. Events are an observation channel, not a durable audit
// log: delivery is best effort and never blocks the reconcile path.
type Event struct {
	// ID is the unique identifier for this event.
	ID string `json:"id"`

	// Timestamp is when the event occurred.
	Timestamp time.Time `json:"timestamp"`

	// Type categorizes the event.
	Type EventType `json:"type"`

	// Target, IntentType and Version identify the touched resource.
	Target     string `json:"target,omitempty"`
	IntentType string `json:"intent_type,omitempty"`
	Version    int    `json:"version,omitempty"`

	// Message is a human-readable description.
	Message string `json:"message,omitempty"`
}

// EventPublisher fans reconcile events out to subscribers over buffered
// channels. A slow subscriber drops events rather than stalling writes.
type EventPublisher struct {
	mu          sync.RWMutex
	subscribers []chan Event
	bufferSize  int
	closed      bool
}

// NewEventPublisher creates a publisher with the given per-subscriber
// buffer size.
func NewEventPublisher(bufferSize int) *EventPublisher {
	if bufferSize <= 0 {
		bufferSize = 64
	}
	return &EventPublisher{bufferSize: bufferSize}
}

// Subscribe returns a channel receiving all future events. The channel
// is closed when the publisher shuts down.
func (p *EventPublisher) Subscribe() <-chan Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	ch := make(chan Event, p.bufferSize)
	if p.closed {
		close(ch)
		return ch
	}
	p.subscribers = append(p.subscribers, ch)
	return ch
}

// Publish delivers an event to every subscriber, dropping it for
// subscribers whose buffer is full.
func (p *EventPublisher) Publish(eventType EventType, target, intentType string, version int, message string) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return
	}
	event := Event{
		ID:         uuid.NewString(),
		Timestamp:  time.Now(),
		Type:       eventType,
		Target:     target,
		IntentType: intentType,
		Version:    version,
		Message:    message,
	}
	for _, ch := range p.subscribers {
		select {
		case ch <- event:
		default:
		}
	}
}

// Close shuts the publisher down and closes all subscriber channels.
func (p *EventPublisher) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	for _, ch := range p.subscribers {
		close(ch)
	}
	p.subscribers = nil
}
