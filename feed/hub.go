package feed

import (
	"encoding/json"
	"sync"

	"github.com/emenuapi/emenu-backend/utils"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// Event types
const (
	EventMenuCreated = "menu_created"
	EventMenuUpdated = "menu_updated"
	EventMenuDeleted = "menu_deleted"
	EventDishCreated = "dish_created"
	EventDishUpdated = "dish_updated"
	EventDishDeleted = "dish_deleted"
)

type Message struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// sendBuffer is how many messages a client may fall behind before it is dropped.
const sendBuffer = 16

type client struct {
	conn   *websocket.Conn
	userID uint
	send   chan []byte
}

// writePump delivers queued messages. It owns every write to the connection
// and closes it once send is closed or a write fails.
func (c *client) writePump() {
	defer c.conn.Close()
	for payload := range c.send {
		c.conn.SetWriteDeadline(deadline())
		if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			utils.ErrorLogger.WithError(err).WithField("user_id", c.userID).Warn("Feed write failed")
			return
		}
	}
	c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"), deadline())
}

// Hub holds the websocket clients subscribed to menu changes.
type Hub struct {
	clients map[*websocket.Conn]*client
	mutex   sync.Mutex
}

func NewHub() *Hub {
	return &Hub{clients: make(map[*websocket.Conn]*client)}
}

func (h *Hub) Register(conn *websocket.Conn, userID uint) {
	c := &client{conn: conn, userID: userID, send: make(chan []byte, sendBuffer)}

	h.mutex.Lock()
	h.clients[conn] = c
	h.mutex.Unlock()

	go c.writePump()
}

func (h *Hub) Unregister(conn *websocket.Conn) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.remove(conn)
}

// remove must be called with the mutex held.
func (h *Hub) remove(conn *websocket.Conn) {
	if c, ok := h.clients[conn]; ok {
		delete(h.clients, conn)
		close(c.send)
	}
}

func (h *Hub) Clients() int {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return len(h.clients)
}

// Publish queues event for every client without waiting on the network.
// Clients whose queue is full are dropped.
func (h *Hub) Publish(event string, data interface{}) {
	if h == nil {
		return
	}

	payload, err := json.Marshal(Message{Event: event, Data: data})
	if err != nil {
		utils.ErrorLogger.WithError(err).WithField("event", event).Error("Error marshaling feed message")
		return
	}

	h.mutex.Lock()
	defer h.mutex.Unlock()

	utils.InfoLogger.WithFields(logrus.Fields{
		"event":   event,
		"clients": len(h.clients),
	}).Debug("Broadcasting feed message")

	for conn, c := range h.clients {
		select {
		case c.send <- payload:
		default:
			utils.ErrorLogger.WithField("user_id", c.userID).Warn("Dropping slow feed client")
			h.remove(conn)
		}
	}
}

// CloseAll disconnects every client, used on shutdown.
func (h *Hub) CloseAll() {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	for conn := range h.clients {
		h.remove(conn)
	}
}
