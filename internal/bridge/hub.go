package bridge

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/deskaudio/pulse"
)

// MessageType is the type of a websocket message.
type MessageType string

const (
	MessageHello MessageType = "hello"
	MessageEvent MessageType = "event"
)

// Message is sent to websocket subscribers. The first message on every
// connection is a hello carrying the subscriber ID.
type Message struct {
	Type  MessageType  `json:"type"`
	ID    string       `json:"id,omitempty"`
	Event *pulse.Event `json:"event,omitempty"`
}

const (
	writeWait   = 5 * time.Second
	sendBacklog = 64
)

type subscriber struct {
	id   uuid.UUID
	conn *websocket.Conn
	send chan []byte
	once sync.Once
}

func (s *subscriber) close() {
	s.once.Do(func() {
		close(s.send)
	})
}

// Hub manages the websocket subscribers of the event stream.
type Hub struct {
	log      *slog.Logger
	mu       sync.RWMutex
	clients  map[uuid.UUID]*subscriber
	upgrader websocket.Upgrader
}

func NewHub(log *slog.Logger) *Hub {
	return &Hub{
		log:     log,
		clients: make(map[uuid.UUID]*subscriber),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // desktop shell pages are served from file: origins
			},
		},
	}
}

// HandleWebSocket upgrades the connection and streams events to it until
// the peer goes away.
func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	sub := &subscriber{
		id:   uuid.New(),
		conn: conn,
		send: make(chan []byte, sendBacklog),
	}
	hello, _ := json.Marshal(Message{Type: MessageHello, ID: sub.id.String()})
	sub.send <- hello

	h.mu.Lock()
	h.clients[sub.id] = sub
	h.mu.Unlock()
	h.log.Debug("bridge: subscriber connected", "id", sub.id, "remote", r.RemoteAddr)

	go h.writeLoop(sub)

	// Keep connection alive until client disconnects
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	h.remove(sub)
}

func (h *Hub) writeLoop(sub *subscriber) {
	defer sub.conn.Close()
	for data := range sub.send {
		sub.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := sub.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			h.remove(sub)
			return
		}
	}
	sub.conn.SetWriteDeadline(time.Now().Add(writeWait))
	sub.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
}

// remove unregisters sub and closes its queue. Queues are only closed with
// h.mu held for writing.
func (h *Hub) remove(sub *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[sub.id] == sub {
		delete(h.clients, sub.id)
		h.log.Debug("bridge: subscriber disconnected", "id", sub.id)
	}
	sub.close()
}

// Broadcast queues msg for every subscriber. Subscribers that fall too far
// behind are disconnected.
func (h *Hub) Broadcast(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.log.Error("bridge: encode message", "error", err)
		return
	}

	var slow []*subscriber
	h.mu.RLock()
	for _, sub := range h.clients {
		select {
		case sub.send <- data:
		default:
			slow = append(slow, sub)
		}
	}
	h.mu.RUnlock()

	for _, sub := range slow {
		h.log.Warn("bridge: subscriber too slow", "id", sub.id)
		h.remove(sub)
	}
}

// ClientCount returns the number of connected subscribers.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every subscriber.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, sub := range h.clients {
		delete(h.clients, id)
		sub.close()
	}
}
