package events

import (
	"testing"
	"time"

	"github.com/wayfare/learnctl/internal/models"
)

func TestBroker_PublishDeliversToMatchingSessionOnly(t *testing.T) {
	b := NewBroker()
	defer b.Close()

	chA := b.Subscribe("a")
	defer b.Unsubscribe("a", chA)
	chB := b.Subscribe("b")
	defer b.Unsubscribe("b", chB)

	b.Publish(models.SessionEvent{Type: models.EventProgress, SessionID: "a"})

	select {
	case ev := <-chA:
		if ev.SessionID != "a" {
			t.Fatalf("unexpected session id: %s", ev.SessionID)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event on session a")
	}

	select {
	case ev := <-chB:
		t.Fatalf("unexpected event delivered to session b: %+v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestBroker_UnsubscribeClosesChannel(t *testing.T) {
	b := NewBroker()
	defer b.Close()

	ch := b.Subscribe("s")
	b.Unsubscribe("s", ch)

	_, ok := <-ch
	if ok {
		t.Fatal("expected channel to be closed after unsubscribe")
	}
}

func TestBroker_SlowSubscriberDoesNotBlockPublish(t *testing.T) {
	b := NewBroker()
	defer b.Close()

	ch := b.Subscribe("s")
	defer b.Unsubscribe("s", ch)

	for i := 0; i < clientBuffer*2; i++ {
		b.Publish(models.SessionEvent{Type: models.EventProgress, SessionID: "s"})
	}

	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("expected at least one buffered event to be deliverable")
	}
}
