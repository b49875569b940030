package inbox

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	maxMsgSize = 4 * 1024
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// bearer token is checked before the upgrade
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Event is a realtime notification pushed to staff clients.
type Event struct {
	Type           string `json:"type"`
	ConversationID string `json:"conversation_id,omitempty"`
	Payload        any    `json:"payload,omitempty"`
}

const (
	EventNewMessage = "new_message"
	EventRead       = "read"
	EventAssigned   = "assigned"
	EventDelivery   = "delivery"
	EventTyping     = "typing"
)

type connection struct {
	userID   int64
	studioID int64
	conn     *websocket.Conn
	send     chan []byte
}

// Hub fans events out to every connected staff member of a studio. A user
// may hold several connections (one per tab).
type Hub struct {
	mu    sync.RWMutex
	conns map[*connection]struct{}
	log   *zap.Logger
}

func NewHub(log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	return &Hub{conns: make(map[*connection]struct{}), log: log}
}

func (h *Hub) register(c *connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[c] = struct{}{}
}

func (h *Hub) unregister(c *connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.conns[c]; ok {
		delete(h.conns, c)
		close(c.send)
	}
}

// Connected returns the number of open connections for studioID.
func (h *Hub) Connected(studioID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for c := range h.conns {
		if c.studioID == studioID {
			n++
		}
	}
	return n
}

// BroadcastToStudio queues e for every connection of the studio. Slow
// clients drop events rather than block the caller.
func (h *Hub) BroadcastToStudio(studioID int64, e *Event) {
	data, err := json.Marshal(e)
	if err != nil {
		h.log.Warn("inbox event not encodable", zap.String("type", e.Type), zap.Error(err))
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.conns {
		if c.studioID != studioID {
			continue
		}
		select {
		case c.send <- data:
		default:
			h.log.Debug("inbox event dropped for slow client", zap.Int64("user_id", c.userID))
		}
	}
}

// ServeWS runs the connection until the client goes away.
func (h *Hub) ServeWS(conn *websocket.Conn, userID, studioID int64) {
	c := &connection{
		userID:   userID,
		studioID: studioID,
		conn:     conn,
		send:     make(chan []byte, 256),
	}
	h.register(c)

	go h.writePump(c)
	h.readPump(c)
}

func (h *Hub) readPump(c *connection) {
	defer func() {
		h.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMsgSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Debug("inbox websocket closed", zap.Int64("user_id", c.userID), zap.Error(err))
			}
			return
		}

		var in struct {
			Type           string `json:"type"`
			ConversationID string `json:"conversation_id"`
		}
		if err := json.Unmarshal(msg, &in); err != nil {
			continue
		}
		if in.Type == EventTyping && in.ConversationID != "" {
			h.BroadcastToStudio(c.studioID, &Event{
				Type:           EventTyping,
				ConversationID: in.ConversationID,
				Payload:        map[string]int64{"user_id": c.userID},
			})
		}
	}
}

func (h *Hub) writePump(c *connection) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
