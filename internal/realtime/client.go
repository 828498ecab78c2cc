package realtime

import (
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024 // 64 KB
)

// Client is the middleman between one websocket connection and the gateway.
// Outbound events go through a buffered send channel so a slow consumer never
// blocks a broadcast; events for a full buffer are dropped.
type Client struct {
	gateway *Gateway
	conn    *websocket.Conn
	send    chan OutEvent
}

func newClient(gateway *Gateway, conn *websocket.Conn) *Client {
	return &Client{
		gateway: gateway,
		conn:    conn,
		send:    make(chan OutEvent, 256),
	}
}

// deliver queues an event for this connection without blocking.
func (c *Client) deliver(event OutEvent) {
	select {
	case c.send <- event:
	default:
		c.gateway.logger.WithField("event", event.Event).Warn("Dropping event for slow websocket client")
	}
}

// readPump pumps events from the websocket connection into the gateway.
// It owns the disconnect path: when the read loop exits for any reason the
// client is unregistered exactly once.
func (c *Client) readPump() {
	defer func() {
		c.gateway.handleDisconnect(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.gateway.logger.WithError(err).Error("Failed to set read deadline")
		return
	}

	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var event Event
		if err := c.conn.ReadJSON(&event); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.gateway.logger.WithError(err).Warn("Unexpected websocket close")
			}
			break
		}

		c.gateway.dispatch(c, event)
	}
}

// writePump pumps queued events to the websocket connection and keeps the
// connection alive with pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case event, ok := <-c.send:
			if !ok {
				_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				c.gateway.logger.WithError(err).Error("Failed to set write deadline")
				return
			}
			if err := c.conn.WriteJSON(event); err != nil {
				return
			}

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// start begins reading and writing for the client.
func (c *Client) start() {
	go c.writePump()
	go c.readPump()
}
