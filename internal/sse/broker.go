// Package sse implements a Server-Sent Events broker for journal change notifications.
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/starford/dagaz/internal/models"
)

// Entry change kinds.
const (
	EntryCreated = "created"
	EntryUpdated = "updated"
	EntryDeleted = "deleted"
)

// StatsUpdated tells dashboards to refetch streaks and analytics.
const StatsUpdated = "stats.updated"

// Event represents an SSE event to broadcast.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// EntryEvent is the payload of entry.* events.
type EntryEvent struct {
	ID    int64  `json:"id"`
	Date  string `json:"date"`
	Title string `json:"title,omitempty"`
}

type entryEventReq struct {
	kind  string
	entry EntryEvent
}

// Broker manages SSE client connections and broadcasts events.
//
// A single event loop goroutine owns the client set and the stats throttle
// timestamp; public methods talk to it over channels.
type Broker struct {
	statsMin time.Duration

	subscribeCh   chan chan []byte
	unsubscribeCh chan chan []byte
	publishCh     chan Event
	entryEventCh  chan entryEventReq
	countReqCh    chan chan int

	stopCh  chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
}

// NewBroker creates a broker that emits stats.updated at most once per statsThrottle.
func NewBroker(statsThrottle time.Duration) *Broker {
	if statsThrottle <= 0 {
		statsThrottle = 2 * time.Second
	}

	b := &Broker{
		statsMin:      statsThrottle,
		subscribeCh:   make(chan chan []byte),
		unsubscribeCh: make(chan chan []byte),
		publishCh:     make(chan Event, 256),
		entryEventCh:  make(chan entryEventReq, 256),
		countReqCh:    make(chan chan int),
		stopCh:        make(chan struct{}),
		stopped:       make(chan struct{}),
	}

	go b.run()
	return b
}

func (b *Broker) run() {
	defer close(b.stopped)

	clients := make(map[chan []byte]struct{})
	var lastStats time.Time

	broadcast := func(event Event) {
		payload, err := json.Marshal(event.Data)
		if err != nil {
			return
		}
		raw := []byte(fmt.Sprintf("event: %s\ndata: %s\n\n", event.Type, payload))

		for ch := range clients {
			select {
			case ch <- raw:
			default:
				// slow client, drop
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

		case ch := <-b.subscribeCh:
			clients[ch] = struct{}{}

		case ch := <-b.unsubscribeCh:
			if _, ok := clients[ch]; ok {
				delete(clients, ch)
				close(ch)
			}

		case event := <-b.publishCh:
			broadcast(event)

		case req := <-b.entryEventCh:
			switch req.kind {
			case EntryCreated, EntryUpdated, EntryDeleted:
				broadcast(Event{Type: "entry." + req.kind, Data: req.entry})
			default:
				continue
			}

			now := time.Now()
			if now.Sub(lastStats) >= b.statsMin {
				lastStats = now
				broadcast(Event{Type: StatsUpdated, Data: map[string]string{}})
			}

		case resp := <-b.countReqCh:
			resp <- len(clients)
		}
	}
}

// Close stops the broker loop and closes all client channels.
func (b *Broker) Close() {
	if b.closed.CompareAndSwap(false, true) {
		close(b.stopCh)
	}
	<-b.stopped
}

// Subscribe adds a new client and returns its channel.
func (b *Broker) Subscribe() chan []byte {
	ch := make(chan []byte, 64)
	if b.closed.Load() {
		close(ch)
		return ch
	}

	select {
	case b.subscribeCh <- ch:
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
	case b.unsubscribeCh <- ch:
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
	case b.countReqCh <- resp:
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

// Publish sends an event to all connected clients.
func (b *Broker) Publish(event Event) {
	if b.closed.Load() {
		return
	}
	select {
	case b.publishCh <- event:
	case <-b.stopped:
	}
}

// PublishEntryEvent broadcasts entry.<kind> for e followed by a throttled
// stats.updated.
func (b *Broker) PublishEntryEvent(kind string, e *models.JournalEntry) {
	if b.closed.Load() || e == nil {
		return
	}
	req := entryEventReq{kind: kind, entry: EntryEvent{ID: e.ID, Date: models.FormatDay(e.Date), Title: e.Title}}
	select {
	case b.entryEventCh <- req:
	case <-b.stopped:
	}
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
	flusher.Flush()

	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			_, _ = w.Write(msg)
			flusher.Flush()
		}
	}
}
