package ibn

import (
	"testing"
)

func TestEventPublisher_DeliversToAllSubscribers(t *testing.T) {
	p := NewEventPublisher(4)
	a := p.Subscribe()
	b := p.Subscribe()

	p.Publish(EventIntentCreated, "10.0.0.1", "iplink", 1, "created")

	for _, ch := range []<-chan Event{a, b} {
		select {
		case ev := <-ch:
			if ev.Type != EventIntentCreated || ev.Target != "10.0.0.1" {
				t.Errorf("Unexpected event %+v", ev)
			}
			if ev.ID == "" || ev.Timestamp.IsZero() {
				t.Error("Expected ID and timestamp to be set")
			}
		default:
			t.Error("Expected event to be delivered")
		}
	}
}

func TestEventPublisher_DropsWhenBufferFull(t *testing.T) {
	p := NewEventPublisher(1)
	ch := p.Subscribe()

	p.Publish(EventIntentCreated, "a", "iplink", 1, "first")
	// Buffer is full; this must not block.
	p.Publish(EventIntentUpdated, "b", "iplink", 1, "second")

	ev := <-ch
	if ev.Target != "a" {
		t.Errorf("Expected first event kept, got %+v", ev)
	}
	select {
	case ev := <-ch:
		t.Errorf("Expected second event dropped, got %+v", ev)
	default:
	}
}

func TestEventPublisher_CloseEndsSubscriptions(t *testing.T) {
	p := NewEventPublisher(4)
	ch := p.Subscribe()

	p.Close()

	if _, ok := <-ch; ok {
		t.Error("Expected channel closed")
	}

	// Publishing and closing again are no-ops.
	p.Publish(EventIntentCreated, "a", "iplink", 1, "late")
	p.Close()

	if late := p.Subscribe(); late == nil {
		t.Error("Expected closed channel, not nil")
	}
}
