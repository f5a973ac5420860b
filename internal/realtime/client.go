package realtime

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 30 * time.Second
	maxMessageSize = 4096
	outboxSize     = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Client is one WebSocket connection.  rooms is guarded by the hub's lock.
type Client struct {
	id    string
	hub   *Hub
	conn  *websocket.Conn
	send  chan []byte
	done  chan struct{}
	once  sync.Once
	rooms map[string]struct{}
}

func newClient(h *Hub, conn *websocket.Conn) *Client {
	return &Client{
		id:    uuid.NewString(),
		hub:   h,
		conn:  conn,
		send:  make(chan []byte, outboxSize),
		done:  make(chan struct{}),
		rooms: make(map[string]struct{}),
	}
}

// enqueue hands a frame to the writer without blocking.  It reports false
// when the client is closed or its outbox is full.
func (c *Client) enqueue(frame []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- frame:
		return true
	default:
		return false
	}
}

func (c *Client) close() {
	c.once.Do(func() { close(c.done) })
}

// ServeWS upgrades the request and runs the connection until the client
// goes away.
func (h *Hub) ServeWS(ctx echo.Context) error {
	conn, err := upgrader.Upgrade(ctx.Response(), ctx.Request(), nil)
	if err != nil {
		// the upgrader has already written the error response
		return nil
	}
	c := newClient(h, conn)
	h.register(c)
	log.WithFields(log.Fields{"client_id": c.id, "remote": ctx.RealIP()}).Info("websocket connected")

	go c.writeLoop()
	c.readLoop()

	h.unregister(c)
	log.WithFields(log.Fields{"client_id": c.id}).Info("websocket disconnected")
	return nil
}

func (c *Client) readLoop() {
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		var in struct {
			Event string          `json:"event"`
			Data  json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(data, &in); err != nil {
			continue
		}
		switch in.Event {
		case EventJoinAuction:
			if id := auctionIDFrom(in.Data); id != "" {
				c.hub.JoinAuction(c, id)
			}
		case EventLeaveAuction:
			if id := auctionIDFrom(in.Data); id != "" {
				c.hub.LeaveAuction(c, id)
			}
		case EventPing:
			c.hub.deliver([]*Client{c}, EventPong, nil)
		}
	}
}

func (c *Client) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()
	for {
		select {
		case frame := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				c.close()
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.close()
				return
			}
		case <-c.done:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

// auctionIDFrom accepts either "id" or {"auctionId": "id"}.
func auctionIDFrom(raw json.RawMessage) string {
	var id string
	if json.Unmarshal(raw, &id) == nil {
		return id
	}
	var obj struct {
		AuctionID string `json:"auctionId"`
	}
	if json.Unmarshal(raw, &obj) == nil {
		return obj.AuctionID
	}
	return ""
}
