package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// streamMaxLen bounds each channel's replay history
const streamMaxLen = 1000

// StreamEvent represents an event stored in Redis Streams
type StreamEvent struct {
	Channel   string
	Sequence  int64
	Event     map[string]interface{}
	Timestamp time.Time
}

// Streams manages Redis Streams for event replay
type Streams struct {
	rdb *redis.Client
	log *zap.Logger
	ctx context.Context
}

// NewStreams creates a new Streams manager
func NewStreams(rdb *redis.Client, log *zap.Logger) *Streams {
	return &Streams{
		rdb: rdb,
		log: log,
		ctx: context.Background(),
	}
}

func streamKey(channel string) string { return "stream:" + channel }

func seqKey(channel string) string { return "seq:" + channel }

func ackKey(channel, connectionID string) string {
	return fmt.Sprintf("ack:%s:%s", channel, connectionID)
}

type storedEvent struct {
	Seq       int64                  `json:"seq"`
	Channel   string                 `json:"channel"`
	Timestamp time.Time              `json:"timestamp"`
	Event     map[string]interface{} `json:"event"`
}

// PublishEvent appends event to the channel's stream and returns its
// sequence number. Sequence numbers count up from 1 per channel.
func (s *Streams) PublishEvent(channel string, event map[string]interface{}) (int64, error) {
	seq, err := s.rdb.Incr(s.ctx, seqKey(channel)).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to increment sequence: %w", err)
	}

	data, err := json.Marshal(storedEvent{Seq: seq, Channel: channel, Timestamp: time.Now().UTC(), Event: event})
	if err != nil {
		return 0, fmt.Errorf("failed to marshal event: %w", err)
	}

	id, err := s.rdb.XAdd(s.ctx, &redis.XAddArgs{
		Stream: streamKey(channel),
		MaxLen: streamMaxLen,
		Approx: true,
		Values: map[string]interface{}{"data": string(data)},
	}).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to add to stream: %w", err)
	}

	s.log.Debug("Published event to stream",
		zap.String("channel", channel),
		zap.Int64("sequence", seq),
		zap.String("stream_id", id),
	)
	return seq, nil
}

// GetLastSequence gets the last acknowledged sequence for a channel and connection
func (s *Streams) GetLastSequence(channel, connectionID string) (int64, error) {
	seqStr, err := s.rdb.Get(s.ctx, ackKey(channel, connectionID)).Result()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get last sequence: %w", err)
	}
	seq, err := strconv.ParseInt(seqStr, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse sequence: %w", err)
	}
	return seq, nil
}

// AcknowledgeSequence records an acknowledgment for a sequence number
func (s *Streams) AcknowledgeSequence(channel, connectionID string, sequence int64) error {
	if err := s.rdb.Set(s.ctx, ackKey(channel, connectionID), sequence, 24*time.Hour).Err(); err != nil {
		return fmt.Errorf("failed to acknowledge sequence: %w", err)
	}
	return nil
}

// ReplayEvents returns up to limit events of channel with a sequence above
// sinceSeq, oldest first.
func (s *Streams) ReplayEvents(channel string, sinceSeq int64, limit int64) ([]StreamEvent, error) {
	msgs, err := s.rdb.XRange(s.ctx, streamKey(channel), "-", "+").Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read stream: %w", err)
	}

	events := make([]StreamEvent, 0)
	for _, msg := range msgs {
		ev, ok := decodeStreamEvent(msg.Values)
		if !ok {
			s.log.Warn("Skipping malformed stream entry", zap.String("channel", channel), zap.String("id", msg.ID))
			continue
		}
		if ev.Sequence <= sinceSeq {
			continue
		}
		events = append(events, ev)
		if limit > 0 && int64(len(events)) >= limit {
			break
		}
	}
	return events, nil
}

func decodeStreamEvent(values map[string]interface{}) (StreamEvent, bool) {
	data, ok := values["data"].(string)
	if !ok {
		return StreamEvent{}, false
	}
	var stored storedEvent
	if err := json.Unmarshal([]byte(data), &stored); err != nil || stored.Seq <= 0 {
		return StreamEvent{}, false
	}
	return StreamEvent{
		Channel:   stored.Channel,
		Sequence:  stored.Seq,
		Event:     stored.Event,
		Timestamp: stored.Timestamp,
	}, true
}
