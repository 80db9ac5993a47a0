package ws

import (
	"context"
	"sync"

	"github.com/gofiber/contrib/websocket"
	"go.uber.org/zap"
)

// Client is the part of a websocket connection the hub writes to.
type Client interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Subscription ties a connection to the terminal session it watches.
type Subscription struct {
	Session string
	Conn    Client
}

// Envelope is a message for every connection of Session, or for all
// connections when Session is empty. Skip, when set, is left out; it already
// has the message.
type Envelope struct {
	Session string
	Payload []byte
	Skip    Client
}

type Hub struct {
	Register   chan Subscription
	Unregister chan Subscription
	Broadcast  chan Envelope
	// Kick closes every connection of a session, e.g. after logout.
	Kick chan string

	log     *zap.Logger
	clients map[string]map[Client]bool
	mutex   sync.Mutex
	done    chan struct{}
}

func NewHub(log *zap.Logger) *Hub {
	return &Hub{
		Register:   make(chan Subscription),
		Unregister: make(chan Subscription),
		Broadcast:  make(chan Envelope, 64),
		Kick:       make(chan string, 16),
		log:        log,
		clients:    make(map[string]map[Client]bool),
		done:       make(chan struct{}),
	}
}

// Join registers sub. It reports false once the hub has stopped.
func (h *Hub) Join(sub Subscription) bool {
	select {
	case h.Register <- sub:
		return true
	case <-h.done:
		return false
	}
}

// Leave unregisters sub; after the hub has stopped it returns at once.
func (h *Hub) Leave(sub Subscription) {
	select {
	case h.Unregister <- sub:
	case <-h.done:
	}
}

// Run serves the hub until ctx is done. It must be called once.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return

		case sub := <-h.Register:
			h.mutex.Lock()
			if h.clients[sub.Session] == nil {
				h.clients[sub.Session] = make(map[Client]bool)
			}
			h.clients[sub.Session][sub.Conn] = true
			h.mutex.Unlock()
			h.log.Debug("terminal client connected", zap.String("session", sub.Session))

		case sub := <-h.Unregister:
			h.mutex.Lock()
			h.removeLocked(sub.Session, sub.Conn)
			h.mutex.Unlock()

		case session := <-h.Kick:
			h.mutex.Lock()
			for conn := range h.clients[session] {
				h.removeLocked(session, conn)
			}
			h.mutex.Unlock()

		case env := <-h.Broadcast:
			h.deliver(env)
		}
	}
}

// deliver writes env to its targets concurrently and outside the lock, so a
// slow socket only delays itself. Connections that fail are dropped.
func (h *Hub) deliver(env Envelope) {
	h.mutex.Lock()
	var targets []Subscription
	for session, conns := range h.clients {
		if env.Session != "" && env.Session != session {
			continue
		}
		for conn := range conns {
			if env.Skip != nil && conn == env.Skip {
				continue
			}
			targets = append(targets, Subscription{Session: session, Conn: conn})
		}
	}
	h.mutex.Unlock()

	failed := make(chan Subscription, len(targets))
	var wg sync.WaitGroup
	for _, t := range targets {
		wg.Add(1)
		go func(t Subscription) {
			defer wg.Done()
			if err := t.Conn.WriteMessage(websocket.TextMessage, env.Payload); err != nil {
				h.log.Warn("dropping terminal client", zap.String("session", t.Session), zap.Error(err))
				failed <- t
			}
		}(t)
	}
	wg.Wait()
	close(failed)

	h.mutex.Lock()
	defer h.mutex.Unlock()
	for t := range failed {
		h.removeLocked(t.Session, t.Conn)
	}
}

// Count reports how many connections watch session.
func (h *Hub) Count(session string) int {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return len(h.clients[session])
}

func (h *Hub) removeLocked(session string, conn Client) {
	conns, ok := h.clients[session]
	if !ok || !conns[conn] {
		return
	}
	delete(conns, conn)
	conn.Close()
	if len(conns) == 0 {
		delete(h.clients, session)
	}
}

func (h *Hub) closeAll() {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	for session, conns := range h.clients {
		for conn := range conns {
			conn.Close()
		}
		delete(h.clients, session)
	}
}
