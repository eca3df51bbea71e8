// Package feed pushes per-user events to websocket subscribers.
package feed

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"spendsense/internal/event"
)

// ErrStopped is returned when a client connects after the hub has shut down.
var ErrStopped = errors.New("feed hub stopped")

// Recorder receives feed observations.
type Recorder interface {
	FeedClients(delta int)
	FeedPublished(eventType string)
	FeedDropped(reason string)
}

type nopRecorder struct{}

func (nopRecorder) FeedClients(int)      {}
func (nopRecorder) FeedPublished(string) {}
func (nopRecorder) FeedDropped(string)   {}

const (
	clientSendBuffer = 32
	maxMessageSize   = 512
)

// Hub fans events out to the websocket clients of each uid.
// All client bookkeeping happens on the Run goroutine.
type Hub struct {
	inbox      chan event.Envelope
	register   chan *client
	unregister chan *client
	done       chan struct{}

	clients map[string]map[*client]struct{}
	nextSeq atomic.Uint64
	count   atomic.Int64

	upgrader websocket.Upgrader
	recorder Recorder
	now      func() time.Time

	WriteTimeout time.Duration
	ReadTimeout  time.Duration
	PingInterval time.Duration
}

// NewHub creates a hub whose inbox holds bufferSize pending events.
func NewHub(bufferSize int, recorder Recorder, allowedOrigins []string) *Hub {
	if bufferSize <= 0 {
		bufferSize = 256
	}
	if recorder == nil {
		recorder = nopRecorder{}
	}
	h := &Hub{
		inbox:        make(chan event.Envelope, bufferSize),
		register:     make(chan *client),
		unregister:   make(chan *client),
		done:         make(chan struct{}),
		clients:      make(map[string]map[*client]struct{}),
		recorder:     recorder,
		now:          time.Now,
		WriteTimeout: 10 * time.Second,
		ReadTimeout:  60 * time.Second,
		PingInterval: 30 * time.Second,
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(allowedOrigins),
	}
	return h
}

func originChecker(allowed []string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true // native clients send none
		}
		for _, a := range allowed {
			if a == "*" || a == origin {
				return true
			}
		}
		return false
	}
}

// Publish queues ev for delivery without blocking. A full inbox drops the event.
func (h *Hub) Publish(ev event.Event) {
	env := event.Wrap(h.nextSeq.Add(1), h.now().Unix(), ev)
	select {
	case h.inbox <- env:
		h.recorder.FeedPublished(string(env.Type))
	default:
		h.recorder.FeedDropped("inbox_full")
		slog.Warn("Feed inbox full, event dropped",
			slog.String("type", string(env.Type)),
			slog.String("uid", env.UID),
			slog.Uint64("seq", env.Seq))
	}
}

// ClientCount reports the number of connected clients.
func (h *Hub) ClientCount() int {
	return int(h.count.Load())
}

// Run is the hub's event loop. It MUST be run in a single goroutine.
func (h *Hub) Run(ctx context.Context) {
	slog.Info("📡 Feed hub started")
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			slog.Info("Feed hub stopping...")
			for _, set := range h.clients {
				for c := range set {
					h.remove(c)
				}
			}
			return
		case c := <-h.register:
			set, ok := h.clients[c.uid]
			if !ok {
				set = make(map[*client]struct{})
				h.clients[c.uid] = set
			}
			set[c] = struct{}{}
			h.count.Add(1)
			h.recorder.FeedClients(1)
		case c := <-h.unregister:
			h.remove(c)
		case env := <-h.inbox:
			h.dispatch(env)
		}
	}
}

func (h *Hub) dispatch(env event.Envelope) {
	set := h.clients[env.UID]
	if len(set) == 0 {
		return
	}
	data, err := json.Marshal(env)
	if err != nil {
		slog.Error("Failed to marshal feed event", slog.Any("error", err))
		return
	}
	for c := range set {
		select {
		case c.send <- data:
		default:
			// Slow consumer.
			h.recorder.FeedDropped("slow_client")
			slog.Warn("Feed client too slow, disconnecting", slog.String("uid", c.uid))
			h.remove(c)
		}
	}
}

func (h *Hub) remove(c *client) {
	set, ok := h.clients[c.uid]
	if !ok {
		return
	}
	if _, ok := set[c]; !ok {
		return
	}
	delete(set, c)
	if len(set) == 0 {
		delete(h.clients, c.uid)
	}
	close(c.send)
	h.count.Add(-1)
	h.recorder.FeedClients(-1)
}

// ServeWS upgrades the request and subscribes the connection to uid's events.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, uid string) error {
	select {
	case <-h.done:
		return ErrStopped
	default:
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err // Upgrade already replied to the client
	}

	c := &client{hub: h, conn: conn, uid: uid, send: make(chan []byte, clientSendBuffer)}
	select {
	case h.register <- c:
	case <-h.done:
		conn.Close()
		return ErrStopped
	}

	slog.Info("Feed client connected", slog.String("uid", uid), slog.String("remote", r.RemoteAddr))
	go c.writePump()
	go c.readPump()
	return nil
}
