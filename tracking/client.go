package tracking

import (
	"fmt"
	"sync"
	"time"

	"grocery-delivery/constants"
	"grocery-delivery/logger"

	"github.com/gofiber/contrib/websocket"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period, must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	maxMessageSize = 4096

	sendBufferSize = 64
)

// Client wraps one websocket connection and its authenticated principal. Reads
// are dispatched to the relay from a single goroutine, so events from one
// partner connection stay ordered.
type Client struct {
	hub       *Hub
	conn      *websocket.Conn
	principal Principal
	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

func newClient(hub *Hub, conn *websocket.Conn, principal Principal) *Client {
	return &Client{
		hub:       hub,
		conn:      conn,
		principal: principal,
		send:      make(chan []byte, sendBufferSize),
		done:      make(chan struct{}),
	}
}

func (c *Client) Principal() Principal {
	return c.principal
}

// Deliver enqueues a frame without blocking. A full buffer means the consumer
// is not keeping up and the hub will drop it; a closed client refuses frames.
func (c *Client) Deliver(message []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- message:
		return true
	default:
		return false
	}
}

// Close signals shutdown. The send channel is never closed because the hub or
// the relay may still be delivering concurrently; the write pump watches done
// instead, closes the connection and so unblocks the read pump.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
	})
}

// run services the connection until it drops. Admins are auto-joined to the
// global live room so they see every active delivery without subscribing.
func (c *Client) run(relay *Relay) {
	if c.principal.Kind == constants.RoleAdmin {
		c.hub.Join(RoomAdminLive, c)
	}

	go c.writePump()
	c.readPump(relay)

	c.hub.LeaveAll(c)
	c.Close()
}

func (c *Client) readPump(relay *Relay) {
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warning(fmt.Sprintf("Tracking socket closed unexpectedly for user %d: %v", c.principal.UserID, err))
			}
			return
		}
		relay.Dispatch(c, message)
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
		case message := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
