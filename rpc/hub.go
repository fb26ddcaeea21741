package rpc

import (
	"sync"

	"intentsim/core/events"
)

const subscriberBuffer = 64

// Envelope is the wire form of one domain event pushed to stream subscribers.
type Envelope struct {
	Event string       `json:"event"`
	Data  events.Event `json:"data"`
}

type subscriber struct {
	nickname string
	ch       chan Envelope
}

// Hub implements events.Emitter and fans every engine event out to websocket
// subscribers. Events addressed to a single participant (account updates,
// match notifications, validation errors) are only delivered to streams
// registered under that nickname; pool-wide refreshes go to everyone. Slow
// subscribers drop events rather than block the engine.
type Hub struct {
	mu   sync.Mutex
	subs map[*subscriber]struct{}
}

// NewHub constructs an empty notifier hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[*subscriber]struct{})}
}

// Subscribe registers a stream. An empty nickname receives only broadcast
// events. The returned cancel func must be called when the stream closes.
func (h *Hub) Subscribe(nickname string) (<-chan Envelope, func()) {
	sub := &subscriber{nickname: nickname, ch: make(chan Envelope, subscriberBuffer)}
	h.mu.Lock()
	h.subs[sub] = struct{}{}
	h.mu.Unlock()
	cancel := func() {
		h.mu.Lock()
		if _, ok := h.subs[sub]; ok {
			delete(h.subs, sub)
			close(sub.ch)
		}
		h.mu.Unlock()
	}
	return sub.ch, cancel
}

// Emit implements the events.Emitter interface.
func (h *Hub) Emit(event events.Event) {
	target, targeted := eventTarget(event)
	envelope := Envelope{Event: event.EventType(), Data: event}
	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.subs {
		if targeted && sub.nickname != target {
			continue
		}
		select {
		case sub.ch <- envelope:
		default:
			// Subscriber is not keeping up; drop rather than block settlement.
		}
	}
}

// eventTarget resolves the addressee of participant-scoped events. Broadcast
// events return targeted == false.
func eventTarget(event events.Event) (string, bool) {
	switch ev := event.(type) {
	case events.AccountUpdated:
		if ev.Account != nil {
			return ev.Account.Nickname, true
		}
	case events.SwapMatched:
		if ev.Intent != nil {
			return ev.Intent.Nickname, true
		}
	case events.StakingMatched:
		if ev.Intent != nil {
			return ev.Intent.Nickname, true
		}
	case events.ValidationFailed:
		return ev.Nickname, true
	}
	return "", false
}
