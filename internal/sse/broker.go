// Package sse implements a Server-Sent Events broker for collection change notifications.
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"
)

// Event types.
const (
	TypeItemCreated         = "item.created"
	TypeItemDeleted         = "item.deleted"
	TypeItemPinned          = "item.pinned"
	TypeCollectionReordered = "collection.reordered"
	TypeCollectionImported  = "collection.imported"
	TypeCollectionReplaced  = "collection.replaced"
	TypeCollectionChanged   = "collection.changed"
	TypeCollectionUpdated   = "collection.updated"
)

// Event represents an SSE event to broadcast.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// Broker fans collection change events out to SSE clients.
//
// The loop goroutine owns the client set and the throttle timestamp; public
// methods talk to it over channels.
type Broker struct {
	updatedMin time.Duration
	heartbeat  time.Duration

	joinCh  chan chan []byte
	leaveCh chan chan []byte
	eventCh chan envelope
	countCh chan chan int

	stopCh  chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
}

type envelope struct {
	event  Event
	change bool // follow with a throttled collection.updated
}

// NewBroker creates a broker. Every change event is followed by at most one
// collection.updated per throttle interval.
func NewBroker(throttle time.Duration) *Broker {
	if throttle <= 0 {
		throttle = 2 * time.Second
	}

	b := &Broker{
		updatedMin: throttle,
		heartbeat:  30 * time.Second,
		joinCh:     make(chan chan []byte),
		leaveCh:    make(chan chan []byte),
		eventCh:    make(chan envelope, 512),
		countCh:    make(chan chan int),
		stopCh:     make(chan struct{}),
		stopped:    make(chan struct{}),
	}

	go b.loop()
	return b
}

func encode(event Event) ([]byte, error) {
	payload, err := json.Marshal(event.Data)
	if err != nil {
		return nil, err
	}
	return []byte(fmt.Sprintf("event: %s\ndata: %s\n\n", event.Type, payload)), nil
}

func (b *Broker) loop() {
	defer close(b.stopped)

	clients := make(map[chan []byte]struct{})
	var lastUpdated time.Time

	send := func(event Event) {
		raw, err := encode(event)
		if err != nil {
			return
		}
		for ch := range clients {
			select {
			case ch <- raw:
			default: // client is behind; drop rather than block the loop
			}
		}
	}

	for {
		select {
		case <-b.stopCh:
			for ch := range clients {
				close(ch)
			}
			return

		case ch := <-b.joinCh:
			clients[ch] = struct{}{}

		case ch := <-b.leaveCh:
			if _, ok := clients[ch]; ok {
				delete(clients, ch)
				close(ch)
			}

		case env := <-b.eventCh:
			send(env.event)
			if !env.change {
				continue
			}
			if now := time.Now(); now.Sub(lastUpdated) >= b.updatedMin {
				lastUpdated = now
				send(Event{Type: TypeCollectionUpdated, Data: map[string]string{}})
			}

		case resp := <-b.countCh:
			resp <- len(clients)
		}
	}
}

// Close stops the loop and closes every client channel. Safe to call twice.
func (b *Broker) Close() {
	if b.closed.CompareAndSwap(false, true) {
		close(b.stopCh)
	}
	<-b.stopped
}

// Subscribe registers a client. The channel is closed when the broker stops.
func (b *Broker) Subscribe() chan []byte {
	ch := make(chan []byte, 64)
	if b.closed.Load() {
		close(ch)
		return ch
	}
	select {
	case b.joinCh <- ch:
	case <-b.stopped:
		close(ch)
	}
	return ch
}

// Unsubscribe removes a client and closes its channel.
func (b *Broker) Unsubscribe(ch chan []byte) {
	if b.closed.Load() {
		return
	}
	select {
	case b.leaveCh <- ch:
	case <-b.stopped:
	}
}

// ClientCount returns the number of connected clients.
func (b *Broker) ClientCount() int {
	if b.closed.Load() {
		return 0
	}
	resp := make(chan int, 1)
	select {
	case b.countCh <- resp:
	case <-b.stopped:
		return 0
	}
	select {
	case n := <-resp:
		return n
	case <-b.stopped:
		return 0
	}
}

func (b *Broker) enqueue(env envelope) {
	if b.closed.Load() {
		return
	}
	select {
	case b.eventCh <- env:
	case <-b.stopped:
	}
}

// Publish sends an event to all connected clients as is.
func (b *Broker) Publish(event Event) {
	b.enqueue(envelope{event: event})
}

// PublishChange broadcasts a collection change of the given type, then a
// throttled collection.updated.
func (b *Broker) PublishChange(eventType string, data map[string]any) {
	if data == nil {
		data = map[string]any{}
	}
	b.enqueue(envelope{event: Event{Type: eventType, Data: data}, change: true})
}

// ServeHTTP is the SSE endpoint handler (GET /api/events).
func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(": connected\n\n"))
	flusher.Flush()

	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	ping := time.NewTicker(b.heartbeat)
	defer ping.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ping.C:
			_, _ = w.Write([]byte(": ping\n\n"))
			flusher.Flush()
		case msg, ok := <-ch:
			if !ok {
				return
			}
			_, _ = w.Write(msg)
			flusher.Flush()
		}
	}
}
