package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/cardroomlabs/cardroom/internal/engine/command"
	"github.com/cardroomlabs/cardroom/internal/engine/event"
	"github.com/cardroomlabs/cardroom/internal/engine/manager"
	"github.com/cardroomlabs/cardroom/internal/validation"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Client bridges one websocket connection to one game's event stream.
// Inbound frames are command envelopes; outbound frames are events.
type Client struct {
	id       string
	conn     *websocket.Conn
	send     chan []byte
	userID   uuid.UUID
	username string
	mgr      *manager.Manager
}

// eventFrame is the outbound wire form.
type eventFrame struct {
	Type    event.Type  `json:"type"`
	Payload event.Event `json:"payload"`
}

type errorFrame struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

// ServeWS upgrades the connection and attaches it to the game as a listener.
func ServeWS(mgr *manager.Manager, w http.ResponseWriter, r *http.Request, userID uuid.UUID, username string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("websocket upgrade failed", "error", err)
		return
	}

	c := &Client{
		id:       uuid.New().String(),
		conn:     conn,
		send:     make(chan []byte, 256),
		userID:   userID,
		username: username,
		mgr:      mgr,
	}

	uid := userID
	mgr.AddListener(manager.Listener{
		ID:      c.id,
		UserID:  &uid,
		OnEvent: c.enqueue,
	})

	go c.writePump()
	go c.readPump()
}

// enqueue hands an event to the write pump. It must never block the tick; a
// client too slow to drain its buffer loses events.
func (c *Client) enqueue(e event.Event) {
	data, err := json.Marshal(eventFrame{Type: e.EventType(), Payload: e})
	if err != nil {
		slog.Error("event marshal failed", "type", string(e.EventType()), "error", err)
		return
	}
	select {
	case c.send <- data:
	default:
		slog.Warn("dropping event for slow websocket client", "client_id", c.id)
	}
}

func (c *Client) readPump() {
	defer c.disconnect()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Warn("websocket read error", "client_id", c.id, "error", err)
			}
			return
		}

		var env command.Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			c.sendError("invalid command envelope")
			continue
		}

		cmd, err := command.DecodeFor(env, c.mgr.GameID(), c.userID)
		if err != nil {
			c.sendError(err.Error())
			continue
		}
		if err := validation.Validate(cmd); err != nil {
			c.sendError(err.Error())
			continue
		}

		c.mgr.Submit(cmd)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
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

func (c *Client) sendError(message string) {
	data, err := json.Marshal(errorFrame{Type: "error", Error: message})
	if err != nil {
		return
	}
	select {
	case c.send <- data:
	default:
	}
}

// disconnect detaches the listener and closes the socket. The send channel is
// left open: a flush snapshotted before removal may still deliver into it.
func (c *Client) disconnect() {
	c.mgr.RemoveListener(c.id)
	c.conn.Close()
}
