package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	// DefaultEventsChannel is the Redis channel receiving broadcast events.
	DefaultEventsChannel = "livepoll:events"
	publishTimeout       = 5 * time.Second
)

// FeedEvent is the message published to Redis for every broadcast.
type FeedEvent struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
	At    int64           `json:"at"`
}

// RedisFeed publishes broadcast events to a Redis channel so displays and
// tools outside the process can follow the class.
type RedisFeed struct {
	client  *redis.Client
	channel string
	logger  *zap.Logger
}

// NewRedisFeed creates a feed on channel (DefaultEventsChannel when empty).
func NewRedisFeed(client *redis.Client, channel string, logger *zap.Logger) *RedisFeed {
	if channel == "" {
		channel = DefaultEventsChannel
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisFeed{client: client, channel: channel, logger: logger}
}

// PublishEvent publishes one event.
func (r *RedisFeed) PublishEvent(ctx context.Context, event string, payload []byte) error {
	body, err := json.Marshal(FeedEvent{Event: event, Data: payload, At: time.Now().Unix()})
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	return r.client.Publish(ctx, r.channel, body).Err()
}

// Subscribe calls handler for each event on the channel until the returned
// cancel function is called.
func (r *RedisFeed) Subscribe(ctx context.Context, handler func(FeedEvent)) (cancel func(), err error) {
	ctx, cancelCtx := context.WithCancel(ctx)
	pubsub := r.client.Subscribe(ctx, r.channel)
	if _, err = pubsub.Receive(ctx); err != nil {
		cancelCtx()
		_ = pubsub.Close()
		return nil, fmt.Errorf("subscribe: %w", err)
	}
	ch := pubsub.Channel()
	go func() {
		defer pubsub.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var ev FeedEvent
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					r.logger.Warn("invalid feed event", zap.Error(err))
					continue
				}
				handler(ev)
			}
		}
	}()
	return cancelCtx, nil
}
