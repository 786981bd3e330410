package server

import (
	"net/http"
	"sync"

	"recall/domain"

	"github.com/gorilla/websocket"
)

// Hub fans the store's change feed out to websocket subscribers.  Slow
// subscribers lose events rather than blocking the writer.
type Hub struct {
	mu      sync.Mutex
	clients map[chan domain.Event]bool
}

func NewHub() *Hub {
	return &Hub{
		clients: map[chan domain.Event]bool{},
	}
}

func (h *Hub) Subscribe() chan domain.Event {
	ch := make(chan domain.Event, 16)

	h.mu.Lock()
	h.clients[ch] = true
	h.mu.Unlock()

	return ch
}

func (h *Hub) Unsubscribe(ch chan domain.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.clients[ch] {
		delete(h.clients, ch)
		close(ch)
	}
}

func (h *Hub) Broadcast(e domain.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for ch := range h.clients {
		select {
		case ch <- e:
		default:
		}
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the response
		return
	}
	defer conn.Close()

	events := s.hub.Subscribe()
	defer s.hub.Unsubscribe(events)

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-closed:
			return
		case <-r.Context().Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			if err := conn.WriteJSON(event); err != nil {
				return
			}
		}
	}
}
