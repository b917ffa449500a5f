// Package gateway relays entity change events to an external real-time
// observer over a persistent WebSocket connection. Delivery is best-effort:
// the relational store stays the system of record, and a gateway that is
// offline only costs a log warning.
package gateway

import (
	"sync"
	"time"

	"tradestore/config"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

type frame struct {
	Op      string `json:"op"`
	Event   string `json:"event,omitempty"`
	Channel string `json:"channel"`
	Payload any    `json:"payload,omitempty"`
}

type updatePayload struct {
	Table string         `json:"table"`
	Data  map[string]any `json:"data"`
}

// Client owns the gateway connection. All connect and send operations are
// serialized by one mutex, so concurrent callers cannot race the
// "already connected" check into duplicate connections.
type Client struct {
	url            string
	channel        string
	connectTimeout time.Duration
	logger         *zap.Logger

	mu     sync.Mutex
	conn   *websocket.Conn
	joined bool
}

func New(cfg config.GatewayConfig, logger *zap.Logger) *Client {
	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		url:            cfg.URL,
		channel:        cfg.Channel,
		connectTimeout: timeout,
		logger:         logger,
	}
}

// Notify emits an update event carrying the entity's column snapshot. A
// gateway that cannot be reached or written to produces a warning only; the
// caller always proceeds.
func (c *Client) Notify(table string, data map[string]any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.ensureSessionLocked(); err != nil {
		c.logger.Warn("event relay unavailable",
			zap.String("url", c.url), zap.Error(err))
		return
	}

	msg := frame{
		Op:      "emit",
		Event:   "update",
		Channel: c.channel,
		Payload: updatePayload{Table: table, Data: data},
	}
	// a stalled gateway must not hold the mutex past the timeout
	_ = c.conn.SetWriteDeadline(time.Now().Add(c.connectTimeout))
	if err := c.conn.WriteJSON(msg); err != nil {
		c.logger.Warn("event relay send failed",
			zap.String("table", table), zap.Error(err))
		c.resetLocked()
	}
}

// ensureSessionLocked makes sure the client is connected and has completed
// channel negotiation. The join handshake is bounded by connectTimeout; a
// dial or handshake failure leaves the client disconnected for the next
// attempt. Callers must hold c.mu.
func (c *Client) ensureSessionLocked() error {
	if c.conn != nil && c.joined {
		return nil
	}

	if c.conn == nil {
		dialer := websocket.Dialer{HandshakeTimeout: c.connectTimeout}
		conn, _, err := dialer.Dial(c.url, nil)
		if err != nil {
			return err
		}
		c.conn = conn
		c.joined = false
	}

	join := frame{Op: "join", Channel: c.channel}
	_ = c.conn.SetWriteDeadline(time.Now().Add(c.connectTimeout))
	if err := c.conn.WriteJSON(join); err != nil {
		c.resetLocked()
		return err
	}

	deadline := time.Now().Add(c.connectTimeout)
	if err := c.conn.SetReadDeadline(deadline); err != nil {
		c.resetLocked()
		return err
	}
	for !c.joined {
		var ack frame
		if err := c.conn.ReadJSON(&ack); err != nil {
			c.resetLocked()
			return err
		}
		if ack.Op == "joined" && ack.Channel == c.channel {
			c.joined = true
		}
	}
	return c.conn.SetReadDeadline(time.Time{})
}

func (c *Client) resetLocked() {
	if c.conn != nil {
		_ = c.conn.Close()
	}
	c.conn = nil
	c.joined = false
}

func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resetLocked()
}
