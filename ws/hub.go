// Package ws pushes conversation and booking updates to connected users.
package ws

import (
	"context"
	"sync"

	"eventhire_backend/internal/logger"
	"eventhire_backend/internal/metrics"
)

// Envelope is the frame written to clients.
type Envelope struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

type delivery struct {
	userIDs []string
	msg     Envelope
}

// Hub tracks every open connection per user. A user may hold several
// connections (tabs, devices); each one receives the user's updates.
type Hub struct {
	clients    map[string]map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	deliver    chan delivery
	mu         sync.RWMutex
	done       chan struct{}
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		deliver:    make(chan delivery, 256),
		done:       make(chan struct{}),
	}
}

// Run owns the client registry until ctx is cancelled, then closes every
// connection.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return

		case client := <-h.register:
			h.mu.Lock()
			set, ok := h.clients[client.UserID]
			if !ok {
				set = make(map[*Client]struct{})
				h.clients[client.UserID] = set
			}
			set[client] = struct{}{}
			h.mu.Unlock()
			metrics.WebSocketConnections.Inc()
			logger.Debug("ws client registered", "user_id", client.UserID, "connections", len(set))

		case client := <-h.unregister:
			h.remove(client)

		case d := <-h.deliver:
			h.send(d)
		}
	}
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.clients[client.UserID]
	if !ok {
		return
	}
	if _, ok := set[client]; !ok {
		return
	}
	delete(set, client)
	if len(set) == 0 {
		delete(h.clients, client.UserID)
	}
	client.close()
	metrics.WebSocketConnections.Dec()
	logger.Debug("ws client unregistered", "user_id", client.UserID)
}

func (h *Hub) send(d delivery) {
	var slow []*Client
	h.mu.RLock()
	for _, userID := range d.userIDs {
		for client := range h.clients[userID] {
			select {
			case client.send <- d.msg:
			default:
				slow = append(slow, client)
			}
		}
	}
	h.mu.RUnlock()

	for _, client := range slow {
		logger.Warn("ws client too slow, disconnecting", "user_id", client.UserID)
		h.remove(client)
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for userID, set := range h.clients {
		for client := range set {
			client.close()
			metrics.WebSocketConnections.Dec()
		}
		delete(h.clients, userID)
	}
}

// attach and detach hand clients to the run loop; both give up once the
// hub has stopped.
func (h *Hub) attach(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) detach(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// NotifyUsers queues kind/payload for every connection of the given users.
// It never blocks the caller; updates are dropped when the hub is saturated
// or stopped.
func (h *Hub) NotifyUsers(userIDs []string, kind string, payload any) {
	if len(userIDs) == 0 {
		return
	}
	ids := dedupe(userIDs)
	select {
	case h.deliver <- delivery{userIDs: ids, msg: Envelope{Type: kind, Payload: payload}}:
	case <-h.done:
	default:
		logger.Warn("ws hub saturated, dropping update", "type", kind)
	}
}

// Connected reports whether userID has at least one open connection.
func (h *Hub) Connected(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID]) > 0
}

// ConnectionCount returns the number of open connections.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, set := range h.clients {
		n += len(set)
	}
	return n
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := ids[:0:0]
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
