package events

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// RegisterRoutes mounts the event stream under /api/events.
func RegisterRoutes(r chi.Router, hub *Hub) {
	r.Get("/api/events", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("events: websocket upgrade: %v", err)
			return
		}

		c := &client{send: make(chan []byte, sendBuffer)}
		hub.register(c)

		go func() {
			defer conn.Close()
			for msg := range c.send {
				if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
					log.Printf("events: websocket write: %v", err)
					return
				}
			}
		}()

		// Subscribers don't send anything meaningful. Reading keeps the
		// connection alive and detects the close.
		defer hub.unregister(c)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Printf("events: websocket read: %v", err)
				}
				return
			}
		}
	})
}
