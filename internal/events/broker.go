// Package events implements the Orchestrator's progress channel (§4.8): a
// single-goroutine broker that fans out models.SessionEvent values to
// per-session subscribers.
//
// Grounded on kenaz's internal/sse.Broker: one event-loop goroutine owns
// all mutable subscriber state, public methods talk to it over channels,
// and a slow or absent reader never blocks a publish (bounded per-client
// buffer, drop-oldest on overflow) — generalised here from one broadcast
// topic (note changes) to many independent topics keyed by session ID.
package events

import (
	"sync/atomic"

	"github.com/wayfare/learnctl/internal/models"
)

// clientBuffer is how many pending events a slow subscriber may queue
// before the broker starts dropping its oldest unread event.
const clientBuffer = 64

type subscribeReq struct {
	sessionID string
	ch        chan models.SessionEvent
}

type unsubscribeReq struct {
	sessionID string
	ch        chan models.SessionEvent
}

// Broker fans out session events to per-session subscriber channels.
type Broker struct {
	subscribeCh   chan subscribeReq
	unsubscribeCh chan unsubscribeReq
	publishCh     chan models.SessionEvent

	stopCh  chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
}

// NewBroker creates a broker and starts its event loop.
func NewBroker() *Broker {
	b := &Broker{
		subscribeCh:   make(chan subscribeReq),
		unsubscribeCh: make(chan unsubscribeReq),
		publishCh:     make(chan models.SessionEvent, 256),
		stopCh:        make(chan struct{}),
		stopped:       make(chan struct{}),
	}
	go b.run()
	return b
}

func (b *Broker) run() {
	defer close(b.stopped)

	subs := make(map[string]map[chan models.SessionEvent]struct{})

	deliver := func(ch chan models.SessionEvent, ev models.SessionEvent) {
		select {
		case ch <- ev:
			return
		default:
		}
		// Buffer full: drop the oldest queued event to make room, per the
		// broker's drop-oldest-on-overflow contract.
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- ev:
		default:
		}
	}

	for {
		select {
		case <-b.stopCh:
			for _, chs := range subs {
				for ch := range chs {
					close(ch)
				}
			}
			return

		case req := <-b.subscribeCh:
			if subs[req.sessionID] == nil {
				subs[req.sessionID] = make(map[chan models.SessionEvent]struct{})
			}
			subs[req.sessionID][req.ch] = struct{}{}

		case req := <-b.unsubscribeCh:
			if chs, ok := subs[req.sessionID]; ok {
				if _, ok := chs[req.ch]; ok {
					delete(chs, req.ch)
					close(req.ch)
				}
				if len(chs) == 0 {
					delete(subs, req.sessionID)
				}
			}

		case ev := <-b.publishCh:
			for ch := range subs[ev.SessionID] {
				deliver(ch, ev)
			}
		}
	}
}

// Close stops the broker loop and closes every subscriber channel.
func (b *Broker) Close() {
	if b.closed.CompareAndSwap(false, true) {
		close(b.stopCh)
	}
	<-b.stopped
}

// Subscribe returns a channel delivering every future event published for
// sessionID. The caller must eventually call Unsubscribe.
func (b *Broker) Subscribe(sessionID string) chan models.SessionEvent {
	ch := make(chan models.SessionEvent, clientBuffer)
	if b.closed.Load() {
		close(ch)
		return ch
	}
	select {
	case b.subscribeCh <- subscribeReq{sessionID: sessionID, ch: ch}:
	case <-b.stopped:
		close(ch)
	}
	return ch
}

// Unsubscribe removes ch from sessionID's subscriber set and closes it.
func (b *Broker) Unsubscribe(sessionID string, ch chan models.SessionEvent) {
	if b.closed.Load() {
		return
	}
	select {
	case b.unsubscribeCh <- unsubscribeReq{sessionID: sessionID, ch: ch}:
	case <-b.stopped:
	}
}

// Publish delivers ev to every current subscriber of ev.SessionID.
func (b *Broker) Publish(ev models.SessionEvent) {
	if b.closed.Load() {
		return
	}
	select {
	case b.publishCh <- ev:
	case <-b.stopped:
	}
}
