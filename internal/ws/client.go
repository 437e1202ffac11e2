package ws

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/coder/websocket"
	"github.com/sirupsen/logrus"
)

// Connection tuning.
const (
	writeTimeout     = 10 * time.Second
	wsReadLimit      = 4096
	clientSendBuffer = 256
	maxConnLifetime  = 4 * time.Hour
	pingInterval     = 30 * time.Second
	pingTimeout      = 10 * time.Second
	maxMissedPongs   = 2
)

// Client is one map viewer connected to the Hub. A client receives every
// event type unless it narrowed its topics with a subscribe message.
type Client struct {
	hub       *Hub
	conn      *websocket.Conn
	send      chan []byte
	log       *logrus.Entry
	topics    atomic.Pointer[map[string]struct{}]
	closeOnce sync.Once
	deadline  time.Time
}

// NewClient wraps conn for use with hub.
func NewClient(hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		hub:      hub,
		conn:     conn,
		send:     make(chan []byte, clientSendBuffer),
		log:      hub.log.WithField("component", "ws_client"),
		deadline: time.Now().Add(maxConnLifetime),
	}
}

func (c *Client) closeSend() {
	c.closeOnce.Do(func() { close(c.send) })
}

// wants reports whether the client asked for events of type eventType.
func (c *Client) wants(eventType string) bool {
	set := c.topics.Load()
	if set == nil || len(*set) == 0 {
		return true
	}

	_, ok := (*set)[eventType]

	return ok
}

// Subscribe restricts delivery to the given event types. An empty list
// restores delivery of everything.
func (c *Client) Subscribe(topics []string) {
	set := make(map[string]struct{}, len(topics))
	for _, t := range topics {
		if t != "" {
			set[t] = struct{}{}
		}
	}

	c.topics.Store(&set)
}

// enqueue hands msg to the write pump without blocking. It reports false
// when the client buffer is full.
func (c *Client) enqueue(msg []byte) bool {
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

// Resume replays buffered events after lastEventID, or sends a reset frame
// when those events have aged out of the buffer.
func (c *Client) Resume(lastEventID uint64) {
	if c.hub.ReplayEvents(c, lastEventID) {
		return
	}

	frame, err := json.Marshal(ResetMsg{
		Type:   "reset",
		Reason: "requested events no longer available, reload the map",
	})
	if err != nil {
		return
	}

	c.enqueue(frame)
}

// ReadPump consumes client frames until the connection closes, then
// unregisters the client.
func (c *Client) ReadPump(ctx context.Context) {
	defer func() {
		c.hub.Unregister(c)
		c.conn.CloseNow() //nolint:errcheck // teardown
	}()

	c.conn.SetReadLimit(wsReadLimit)

	for {
		_, data, err := c.conn.Read(ctx)
		if err != nil {
			if status := websocket.CloseStatus(err); status != -1 {
				c.log.WithField("status", status).Debug("client disconnected")
			}

			return
		}

		c.dispatch(data)
	}
}

func (c *Client) dispatch(data []byte) {
	var msg SubscribeMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		c.log.WithError(err).Debug("ignoring malformed client frame")

		return
	}

	switch msg.Type {
	case "subscribe":
		if msg.Topics != nil {
			c.Subscribe(msg.Topics)
		}

		c.Resume(msg.LastEventID)
	case "ping":
		c.enqueue([]byte(`{"type":"pong"}`))
	}
}

// WritePump drains the send queue to the socket. It keeps the connection
// alive with pings and closes it once the lifetime deadline passes.
func (c *Client) WritePump(ctx context.Context) {
	defer c.conn.CloseNow() //nolint:errcheck // teardown

	expire := time.NewTimer(time.Until(c.deadline))
	defer expire.Stop()

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	missed := 0

	for {
		select {
		case <-expire.C:
			c.log.Info("closing WebSocket: max connection lifetime exceeded")
			c.conn.Close(websocket.StatusNormalClosure, "max connection lifetime exceeded") //nolint:errcheck // best-effort

			return
		case <-ticker.C:
			if c.ping(ctx) {
				missed = 0

				continue
			}

			missed++
			if missed >= maxMissedPongs {
				c.log.WithField("missed", missed).Debug("closing: peer stopped answering pings")

				return
			}
		case msg, ok := <-c.send:
			if !ok {
				return
			}

			if err := c.write(ctx, msg); err != nil {
				c.log.WithError(err).Debug("write failed")

				return
			}
		}
	}
}

func (c *Client) ping(ctx context.Context) bool {
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	return c.conn.Ping(pingCtx) == nil
}

func (c *Client) write(ctx context.Context, msg []byte) error {
	writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	return c.conn.Write(writeCtx, websocket.MessageText, msg)
}
