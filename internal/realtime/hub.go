package realtime

import (
	"context"
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	"github.com/aura-classroom/livepoll/internal/session"
)

const (
	// PingInterval and PongWait are used for heartbeat, in seconds.
	PingInterval = 30
	PongWait     = 60

	sendBuffer = 256
	feedBuffer = 256
)

// EventPublisher mirrors broadcast events outside the process (e.g. Redis).
type EventPublisher interface {
	PublishEvent(ctx context.Context, event string, payload []byte) error
}

// Hub maintains the open connections and delivers session notifications.
// It implements session.Dispatcher.
type Hub struct {
	clients map[string]*Client
	mu      sync.RWMutex
	logger  *zap.Logger

	feed   EventPublisher
	feedCh chan WSMessage
}

// NewHub creates a hub. feed may be nil.
func NewHub(logger *zap.Logger, feed EventPublisher) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		clients: make(map[string]*Client),
		logger:  logger,
		feed:    feed,
		feedCh:  make(chan WSMessage, feedBuffer),
	}
}

// Register adds a client.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c.ID] = c
	count := len(h.clients)
	h.mu.Unlock()
	h.logger.Debug("client connected", zap.String("conn_id", c.ID), zap.Int("connections", count))
}

// Unregister removes a client and closes its send channel.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if cur, ok := h.clients[c.ID]; ok && cur == c {
		delete(h.clients, c.ID)
		close(c.send)
	}
	count := len(h.clients)
	h.mu.Unlock()
	h.logger.Debug("client disconnected", zap.String("conn_id", c.ID), zap.Int("connections", count))
}

// Count returns the number of open connections.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Dispatch delivers notes in order. It never blocks: a client whose buffer
// is full misses the message.
func (h *Hub) Dispatch(notes []session.Notification) {
	for _, n := range notes {
		data, err := json.Marshal(n.Payload)
		if err != nil {
			h.logger.Error("marshal notification", zap.String("event", n.Event), zap.Error(err))
			continue
		}
		msg := WSMessage{Event: n.Event, Data: data}
		switch n.Audience {
		case session.Everyone:
			h.broadcast(msg)
			h.publish(msg)
		default:
			h.SendTo(n.ConnID, msg)
		}
	}
}

// SendTo delivers msg to a single connection.
func (h *Hub) SendTo(connID string, msg WSMessage) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	c, ok := h.clients[connID]
	if !ok {
		return
	}
	h.enqueue(c, msg)
}

func (h *Hub) broadcast(msg WSMessage) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.clients {
		h.enqueue(c, msg)
	}
}

// enqueue must be called with h.mu held.
func (h *Hub) enqueue(c *Client, msg WSMessage) {
	select {
	case c.send <- msg:
	default:
		h.logger.Warn("client buffer full, dropping message", zap.String("conn_id", c.ID), zap.String("event", msg.Event))
	}
}

func (h *Hub) publish(msg WSMessage) {
	if h.feed == nil {
		return
	}
	select {
	case h.feedCh <- msg:
	default:
		h.logger.Warn("event feed backlog full, dropping event", zap.String("event", msg.Event))
	}
}

// Run forwards broadcast events to the feed until ctx is done. It returns
// immediately when the hub has no feed.
func (h *Hub) Run(ctx context.Context) {
	if h.feed == nil {
		return
	}
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-h.feedCh:
			if err := h.feed.PublishEvent(ctx, msg.Event, msg.Data); err != nil {
				h.logger.Warn("publish event", zap.String("event", msg.Event), zap.Error(err))
			}
		}
	}
}
