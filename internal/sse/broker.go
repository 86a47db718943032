// Package sse implements a Server-Sent Events broker for real-time updates.
// Events: note.created, note.updated, note.deleted, metadata.updated
// (throttled, coalesced) and preview.ready.
//
// Every frame carries a monotonically increasing id. Reconnecting clients
// send Last-Event-ID and receive the frames they missed, as long as those
// are still held in the replay history.
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"slices"
	"strconv"
	"sync/atomic"
	"time"
)

// Event types.
const (
	TypeNoteCreated     = "note.created"
	TypeNoteUpdated     = "note.updated"
	TypeNoteDeleted     = "note.deleted"
	TypeMetadataUpdated = "metadata.updated"
	TypePreviewReady    = "preview.ready"
)

const (
	clientBuffer     = 64
	defaultHistory   = 256
	defaultKeepAlive = 25 * time.Second
	retryMillis      = 3000
)

// Event represents an SSE event to broadcast.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// MetadataChange is the payload of metadata.updated: every path that changed
// since the previous metadata event, sorted.
type MetadataChange struct {
	Paths []string `json:"paths"`
}

type noteEventReq struct {
	kind string
	path string
}

type subscribeReq struct {
	ch    chan []byte
	after uint64
}

type frame struct {
	id  uint64
	raw []byte
}

// Option configures a Broker.
type Option func(*Broker)

// WithKeepAlive sets the interval of comment pings sent to idle streams.
func WithKeepAlive(d time.Duration) Option {
	return func(b *Broker) {
		if d > 0 {
			b.keepAlive = d
		}
	}
}

// WithHistory sets how many frames are kept for Last-Event-ID replay.
// Zero disables replay.
func WithHistory(n int) Option {
	return func(b *Broker) {
		if n >= 0 {
			b.history = n
		}
	}
}

// Broker manages SSE client connections and broadcasts events.
//
// A single event loop goroutine owns the clients, the replay history and the
// metadata throttle. Public methods talk to it over channels.
type Broker struct {
	metadataMin time.Duration
	keepAlive   time.Duration
	history     int

	subscribeCh   chan subscribeReq
	unsubscribeCh chan chan []byte
	publishCh     chan Event
	noteEventCh   chan noteEventReq
	countReqCh    chan chan int

	stopCh  chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
}

// NewBroker creates a new SSE broker. metadata.updated is sent at most once
// per metadataThrottle; changes inside the window are folded into a trailing
// event.
func NewBroker(metadataThrottle time.Duration, opts ...Option) *Broker {
	if metadataThrottle <= 0 {
		metadataThrottle = 2 * time.Second
	}

	b := &Broker{
		metadataMin:   metadataThrottle,
		keepAlive:     defaultKeepAlive,
		history:       defaultHistory,
		subscribeCh:   make(chan subscribeReq),
		unsubscribeCh: make(chan chan []byte),
		publishCh:     make(chan Event, 256),
		noteEventCh:   make(chan noteEventReq, 256),
		countReqCh:    make(chan chan int),
		stopCh:        make(chan struct{}),
		stopped:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(b)
	}

	go b.run()
	return b
}

func (b *Broker) run() {
	defer close(b.stopped)

	clients := make(map[chan []byte]struct{})
	pending := make(map[string]struct{})
	var (
		nextID       uint64
		recent       []frame
		lastMetadata time.Time
		trailing     *time.Timer
		trailingC    <-chan time.Time
	)

	send := func(ch chan []byte, raw []byte) {
		select {
		case ch <- raw:
		default:
			// Client buffer full; skip to avoid blocking broker loop.
		}
	}

	broadcast := func(event Event) {
		payload, err := json.Marshal(event.Data)
		if err != nil {
			return
		}
		nextID++
		raw := fmt.Appendf(nil, "id: %d\nevent: %s\ndata: %s\n\n", nextID, event.Type, payload)

		if b.history > 0 {
			if len(recent) == b.history {
				recent = slices.Delete(recent, 0, 1)
			}
			recent = append(recent, frame{id: nextID, raw: raw})
		}
		for ch := range clients {
			send(ch, raw)
		}
	}

	flushMetadata := func(now time.Time) {
		lastMetadata = now
		paths := make([]string, 0, len(pending))
		for p := range pending {
			paths = append(paths, p)
		}
		slices.Sort(paths)
		clear(pending)
		broadcast(Event{Type: TypeMetadataUpdated, Data: MetadataChange{Paths: paths}})
	}

	defer func() {
		if trailing != nil {
			trailing.Stop()
		}
	}()

	for {
		select {
		case <-b.stopCh:
			for ch := range clients {
				close(ch)
			}
			return

		case req := <-b.subscribeCh:
			clients[req.ch] = struct{}{}
			if req.after > 0 {
				for _, f := range recent {
					if f.id > req.after {
						send(req.ch, f.raw)
					}
				}
			}

		case ch := <-b.unsubscribeCh:
			if _, ok := clients[ch]; ok {
				delete(clients, ch)
				close(ch)
			}

		case event := <-b.publishCh:
			broadcast(event)

		case req := <-b.noteEventCh:
			data := map[string]string{"path": req.path}
			switch req.kind {
			case "created":
				broadcast(Event{Type: TypeNoteCreated, Data: data})
			case "updated":
				broadcast(Event{Type: TypeNoteUpdated, Data: data})
			case "deleted":
				broadcast(Event{Type: TypeNoteDeleted, Data: data})
			}

			if req.path != "" {
				pending[req.path] = struct{}{}
			}
			now := time.Now()
			wait := b.metadataMin - now.Sub(lastMetadata)
			switch {
			case wait <= 0:
				flushMetadata(now)
			case trailingC == nil:
				trailing = time.NewTimer(wait)
				trailingC = trailing.C
			}

		case now := <-trailingC:
			trailingC = nil
			flushMetadata(now)

		case resp := <-b.countReqCh:
			resp <- len(clients)
		}
	}
}

// Close gracefully stops broker loop and closes all client channels.
func (b *Broker) Close() {
	if b.closed.CompareAndSwap(false, true) {
		close(b.stopCh)
	}
	<-b.stopped
}

// Subscribe adds a new client and returns its channel.
func (b *Broker) Subscribe() chan []byte {
	return b.SubscribeFrom(0)
}

// SubscribeFrom adds a new client and first replays every retained frame
// with an id greater than lastID. A zero lastID replays nothing.
func (b *Broker) SubscribeFrom(lastID uint64) chan []byte {
	ch := make(chan []byte, clientBuffer)
	if b.closed.Load() {
		close(ch)
		return ch
	}

	select {
	case b.subscribeCh <- subscribeReq{ch: ch, after: lastID}:
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

// PublishNoteEvent publishes a note change and schedules metadata.updated.
// An empty kind publishes only the metadata event, which is what in-session
// edits produce.
func (b *Broker) PublishNoteEvent(kind, path string) {
	if b.closed.Load() {
		return
	}
	select {
	case b.noteEventCh <- noteEventReq{kind: kind, path: path}:
	case <-b.stopped:
	}
}

// PublishPreviewReady tells clients that image previews for notePath have
// loaded and its markup should be fetched again.
func (b *Broker) PublishPreviewReady(notePath string) {
	b.Publish(Event{Type: TypePreviewReady, Data: map[string]string{"path": notePath}})
}

// lastEventID reads the resume position from the Last-Event-ID header, or
// from the lastEventId query parameter for clients that cannot set headers.
func lastEventID(r *http.Request) uint64 {
	v := r.Header.Get("Last-Event-ID")
	if v == "" {
		v = r.URL.Query().Get("lastEventId")
	}
	id, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return 0
	}
	return id
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
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, "retry: %d\n\n", retryMillis)
	flusher.Flush()

	ch := b.SubscribeFrom(lastEventID(r))
	defer b.Unsubscribe(ch)

	ping := time.NewTicker(b.keepAlive)
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
