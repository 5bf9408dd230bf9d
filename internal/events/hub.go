// Package events pushes live progress updates to WebSocket subscribers.
package events

import (
	"encoding/json"
	"log"
	"sync"
)

// sendBuffer caps how many pending events a slow client may queue before
// it gets dropped.
const sendBuffer = 32

// Event is a single update pushed to subscribers.
type Event struct {
	Type      string `json:"type"`
	ContextID string `json:"context_id,omitempty"`
	Done      int    `json:"done,omitempty"`
	Total     int    `json:"total,omitempty"`
	Stage     string `json:"stage,omitempty"`
	Detail    string `json:"detail,omitempty"`
}

// Hub fans events out to every connected subscriber.
type Hub struct {
	mu      sync.Mutex
	clients map[*client]struct{}
}

type client struct {
	send chan []byte
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{clients: map[*client]struct{}{}}
}

// Broadcast sends an event to every subscriber. Clients that cannot keep
// up are disconnected rather than blocking the sender.
func (h *Hub) Broadcast(ev Event) {
	msg, err := json.Marshal(ev)
	if err != nil {
		log.Printf("events: marshal: %v", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			close(c.send)
			delete(h.clients, c)
		}
	}
}

// AnnotationProgress returns a progress callback that broadcasts pipeline
// updates as "annotation_progress" events.
func (h *Hub) AnnotationProgress() func(contextID string, done, total int, stage string) {
	return func(contextID string, done, total int, stage string) {
		h.Broadcast(Event{
			Type:      "annotation_progress",
			ContextID: contextID,
			Done:      done,
			Total:     total,
			Stage:     stage,
		})
	}
}

// ClientCount reports how many subscribers are connected.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = struct{}{}
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		close(c.send)
		delete(h.clients, c)
	}
}
