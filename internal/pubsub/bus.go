package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const formChannelPrefix = "form:"

// FormChannel is the channel carrying the live events of one form
func FormChannel(slug string) string {
	return formChannelPrefix + slug
}

// Bus fans form events out to dashboards. Every event gets a per-channel
// sequence and is kept in a stream for replay; redis pub/sub carries it to
// the websocket hub of every replica.
type Bus struct {
	rdb       *redis.Client
	log       *zap.Logger
	ctx       context.Context
	wsHub     WSHub
	streams   *Streams
	listening atomic.Bool
}

type WSHub interface {
	Publish(channel string, message map[string]interface{})
}

// envelope is the pub/sub payload; seq travels with the event so every
// replica frames it identically.
type envelope struct {
	Seq   int64                  `json:"seq"`
	Event map[string]interface{} `json:"event"`
}

func New(rdb *redis.Client, log *zap.Logger) *Bus {
	return &Bus{
		rdb:     rdb,
		log:     log,
		ctx:     context.Background(),
		streams: NewStreams(rdb, log),
	}
}

// SetWSHub sets the WebSocket hub for event broadcasting
func (b *Bus) SetWSHub(hub WSHub) {
	b.wsHub = hub
}

// GetStreams returns the streams provider
func (b *Bus) GetStreams() *Streams {
	return b.streams
}

// PublishForm publishes an event to a form's channel
func (b *Bus) PublishForm(slug string, event map[string]interface{}) error {
	return b.Publish(FormChannel(slug), event)
}

// Publish records event in the channel's stream and broadcasts it. While
// Listen is not running the local hub is fed directly.
func (b *Bus) Publish(channel string, event map[string]interface{}) error {
	seq, err := b.streams.PublishEvent(channel, event)
	if err != nil {
		b.log.Warn("Failed to publish to stream", zap.String("channel", channel), zap.Error(err))
	}

	data, err := json.Marshal(envelope{Seq: seq, Event: event})
	if err != nil {
		return err
	}
	if err := b.rdb.Publish(b.ctx, channel, data).Err(); err != nil {
		b.log.Error("Failed to publish event", zap.String("channel", channel), zap.Error(err))
		return err
	}

	if !b.listening.Load() {
		b.deliver(channel, seq, event)
	}

	b.log.Debug("Published event", zap.String("channel", channel), zap.Int64("seq", seq))
	return nil
}

// Listen relays form events published by any replica to the local hub until
// ctx is done.
func (b *Bus) Listen(ctx context.Context) error {
	sub := b.rdb.PSubscribe(ctx, formChannelPrefix+"*")
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to form channels: %w", err)
	}
	b.listening.Store(true)
	defer b.listening.Store(false)

	msgs := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return nil
			}
			b.relay(msg.Channel, []byte(msg.Payload))
		}
	}
}

func (b *Bus) relay(channel string, payload []byte) {
	var env envelope
	if err := json.Unmarshal(payload, &env); err != nil || env.Event == nil {
		b.log.Warn("Dropping malformed event", zap.String("channel", channel), zap.Error(err))
		return
	}
	b.deliver(channel, env.Seq, env.Event)
}

func (b *Bus) deliver(channel string, seq int64, event map[string]interface{}) {
	if b.wsHub != nil {
		b.wsHub.Publish(channel, wireEvent(channel, seq, event))
	}
}

// wireEvent is the websocket frame for event. Live and replayed events share
// this shape so clients can ack either by seq.
func wireEvent(channel string, seq int64, event map[string]interface{}) map[string]interface{} {
	return map[string]interface{}{
		"type":    "event",
		"channel": channel,
		"seq":     seq,
		"data":    event,
	}
}
