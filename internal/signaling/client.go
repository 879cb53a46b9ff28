package signaling

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/zainsaleem101/chat-app/internal/metrics"
	"github.com/zainsaleem101/chat-app/internal/protocol"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer; enough for SDP payloads.
	maxMessageSize = 64 * 1024
)

// Client owns one websocket connection. All reads happen on readPump's
// goroutine, all writes on writePump's; everyone else talks to the client
// through enqueue.
type Client struct {
	id     string
	hub    *Hub
	conn   *websocket.Conn
	logger *zap.Logger

	send chan *protocol.Envelope
	done chan struct{}
	once sync.Once
}

func newClient(id string, hub *Hub, conn *websocket.Conn, queueSize int, logger *zap.Logger) *Client {
	return &Client{
		id:     id,
		hub:    hub,
		conn:   conn,
		logger: logger,
		send:   make(chan *protocol.Envelope, queueSize),
		done:   make(chan struct{}),
	}
}

// enqueue hands an envelope to the write pump without blocking. A full queue
// drops the message: a slow or broken peer must not stall the sender's
// critical section, and departures are announced via user-disconnected, not
// via relay errors.
func (c *Client) enqueue(env *protocol.Envelope) {
	select {
	case <-c.done:
		return
	default:
	}
	select {
	case c.send <- env:
	default:
		metrics.MessagesDroppedTotal.Inc()
		c.logger.Warn("send queue full, dropping message", zap.String("event", env.Event))
	}
}

// readPump reads envelopes off the wire and dispatches them until the
// connection dies, then runs teardown.
func (c *Client) readPump() {
	defer c.teardown()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var env protocol.Envelope
		if err := c.conn.ReadJSON(&env); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				c.logger.Warn("read failed", zap.Error(err))
			}
			return
		}
		c.hub.dispatch(c, &env)
	}
}

// writePump owns all writes to the connection, including keepalive pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case env := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(env); err != nil {
				c.logger.Debug("write failed", zap.Error(err))
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}
	}
}

// teardown runs disconnect cleanup exactly once, no matter how many paths
// observe the connection going away: further delivery stops, then the hub
// releases room membership and notifies the peer.
func (c *Client) teardown() {
	c.once.Do(func() {
		close(c.done)
		c.conn.Close()
		c.hub.handleDisconnect(c)
	})
}

// Close tears the connection down from outside the pumps.
func (c *Client) Close() { c.teardown() }
