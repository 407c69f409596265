package debug

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
)

// client is the part of a websocket connection the hub writes to
type client interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Hub maneja las conexiones WebSocket del dashboard de debugging
type Hub struct {
	enabled    bool
	clients    map[client]bool
	broadcast  chan []byte
	register   chan client
	unregister chan client
	done       chan struct{}
	mu         sync.RWMutex
	startTime  time.Time
}

// NewHub creates a hub. A disabled hub drops every message.
func NewHub(enabled bool) *Hub {
	return &Hub{
		enabled:    enabled,
		broadcast:  make(chan []byte, 256),
		register:   make(chan client),
		unregister: make(chan client),
		done:       make(chan struct{}),
		clients:    make(map[client]bool),
		startTime:  time.Now(),
	}
}

// Run dispatches registrations and broadcasts until ctx is done. It must be
// called at most once.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for c := range h.clients {
				c.Close()
				delete(h.clients, c)
			}
			h.mu.Unlock()
			return

		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = true
			n := len(h.clients)
			h.mu.Unlock()
			log.Printf("🔌 Dashboard connected. Clients: %d", n)

		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				c.Close()
			}
			n := len(h.clients)
			h.mu.Unlock()
			log.Printf("🔌 Dashboard disconnected. Clients: %d", n)

		case message := <-h.broadcast:
			h.mu.Lock()
			for c := range h.clients {
				if err := c.WriteMessage(websocket.TextMessage, message); err != nil {
					log.Printf("[DEBUG] ⚠️  dropping dashboard client: %v", err)
					c.Close()
					delete(h.clients, c)
				}
			}
			h.mu.Unlock()
		}
	}
}

// Enabled reports whether the dashboard was turned on.
func (h *Hub) Enabled() bool {
	return h.enabled
}

// ClientCount is the number of connected dashboards.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// join registers c, or reports false once Run has returned.
func (h *Hub) join(c client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

// leave unregisters c. After Run has returned it does nothing, since Run
// already closed every client.
func (h *Hub) leave(c client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// HandleWebSocket serves one dashboard connection until it closes
func (h *Hub) HandleWebSocket(conn *websocket.Conn) {
	if !h.join(conn) {
		conn.Close()
		return
	}
	defer h.leave(conn)

	// nothing is read from the dashboard, reads only detect the close
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

// publish encodes v and queues it; a full queue drops the message.
func (h *Hub) publish(v interface{}) {
	if h == nil || !h.enabled || h.ClientCount() == 0 {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		log.Printf("[DEBUG] ⚠️  encoding dashboard message: %v", err)
		return
	}
	select {
	case h.broadcast <- data:
	default:
	}
}

// LogMessage representa un mensaje de log para el dashboard
type LogMessage struct {
	Type     string                 `json:"type"`
	Source   string                 `json:"source"`
	Level    string                 `json:"level"`
	Message  string                 `json:"message"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// SendLog sends one log line to the dashboards
func (h *Hub) SendLog(source, level, message string, metadata map[string]interface{}) {
	h.publish(LogMessage{
		Type:     "log",
		Source:   source,
		Level:    level,
		Message:  message,
		Metadata: metadata,
	})
}

// SearchMessage summarizes one completed search
type SearchMessage struct {
	Type   string      `json:"type"`
	Search SearchEvent `json:"search"`
}

type SearchEvent struct {
	ID             string `json:"id"`
	Outcome        string `json:"outcome"`
	Origin         string `json:"origin"`
	Destination    string `json:"destination"`
	Results        int    `json:"results"`
	BestMinutes    int    `json:"best_minutes,omitempty"`
	BestLine       string `json:"best_line,omitempty"`
	LinesEvaluated int    `json:"lines_evaluated"`
	Rejected       int    `json:"rejected"`
	CacheHits      int64  `json:"cache_hits"`
	DurationMillis int64  `json:"duration_ms"`
}

// SendSearch sends a search summary to the dashboards
func (h *Hub) SendSearch(ev SearchEvent) {
	h.publish(SearchMessage{Type: "search", Search: ev})
}

// StatusMessage reports upstream health
type StatusMessage struct {
	Type     string            `json:"type"`
	Uptime   int64             `json:"uptime"`
	Services map[string]string `json:"services"`
}

// SendStatus sends the upstream health map to the dashboards
func (h *Hub) SendStatus(services map[string]string) {
	h.publish(StatusMessage{
		Type:     "api_status",
		Uptime:   int64(time.Since(h.startTime).Seconds()),
		Services: services,
	})
}
