package ws

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"situationroom/internal/metrics"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait   = 10 * time.Second
	pongWait    = 60 * time.Second
	pingPeriod  = 54 * time.Second
	sendBuffer  = 256
	replayLimit = 100
)

// StreamEvent represents an event from streams
type StreamEvent struct {
	Channel   string
	Sequence  int64
	Event     map[string]interface{}
	Timestamp time.Time
}

// StreamsProvider interface for event replay
type StreamsProvider interface {
	GetLastSequence(channel, connectionID string) (int64, error)
	AcknowledgeSequence(channel, connectionID string, sequence int64) error
	ReplayEvents(channel string, sinceSeq int64, limit int64) ([]StreamEvent, error)
}

// Authorizer decides whether a caller with role may listen on channel
type Authorizer func(role, channel string) bool

// Hub manages WebSocket connections and channel subscriptions
type Hub struct {
	mu        sync.RWMutex
	conns     map[*Conn]bool
	subs      map[string]map[*Conn]bool // channel -> connections
	publish   chan Event
	log       *zap.Logger
	streams   StreamsProvider
	authorize Authorizer
	closed    bool
}

// Conn represents a WebSocket connection
type Conn struct {
	ws     *websocket.Conn
	send   chan []byte
	hub    *Hub
	id     string
	role   string
	subs   map[string]bool // subscribed channels
	ctx    context.Context
	closed bool
}

// Event represents a message to be published
type Event struct {
	Channel string
	Message map[string]interface{}
}

// NewHub creates a new WebSocket hub. Every channel is open until an
// Authorizer is set.
func NewHub(log *zap.Logger) *Hub {
	return &Hub{
		conns:   make(map[*Conn]bool),
		subs:    make(map[string]map[*Conn]bool),
		publish: make(chan Event, sendBuffer),
		log:     log,
	}
}

// SetStreamsProvider sets the streams provider for event replay
func (h *Hub) SetStreamsProvider(provider StreamsProvider) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.streams = provider
}

// SetAuthorizer restricts which channels callers may subscribe to
func (h *Hub) SetAuthorizer(a Authorizer) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.authorize = a
}

// Run starts the hub's event loop; it returns when Close is called
func (h *Hub) Run() {
	for event := range h.publish {
		msg, err := json.Marshal(event.Message)
		if err != nil {
			h.log.Warn("Dropping unencodable event", zap.String("channel", event.Channel), zap.Error(err))
			continue
		}

		h.mu.RLock()
		targets := make([]*Conn, 0, len(h.subs[event.Channel]))
		for conn := range h.subs[event.Channel] {
			targets = append(targets, conn)
		}
		h.mu.RUnlock()

		for _, conn := range targets {
			if !conn.trySend(msg) {
				h.log.Warn("Dropping slow websocket client", zap.String("connection", conn.id))
				h.unregister(conn)
			}
		}
	}
}

// Close stops Run. Events published afterwards are dropped.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	close(h.publish)
}

// Register adds a new connection to the hub
func (h *Hub) Register(conn *Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[conn] = true
	metrics.WSConnections.Inc()
}

func (h *Hub) unregister(conn *Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.conns[conn]; !ok {
		return
	}
	delete(h.conns, conn)
	metrics.WSConnections.Dec()
	for channel := range conn.subs {
		if subs := h.subs[channel]; subs != nil {
			delete(subs, conn)
			if len(subs) == 0 {
				delete(h.subs, channel)
			}
		}
	}
	conn.closed = true
	close(conn.send)
}

// Subscribe adds a connection to a channel; false when the caller may not
func (h *Hub) Subscribe(conn *Conn, channel string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.authorize != nil && !h.authorize(conn.role, channel) {
		return false
	}
	if _, ok := h.conns[conn]; !ok {
		return false
	}
	if h.subs[channel] == nil {
		h.subs[channel] = make(map[*Conn]bool)
	}
	h.subs[channel][conn] = true
	conn.subs[channel] = true
	return true
}

// Unsubscribe removes a connection from a channel
func (h *Hub) Unsubscribe(conn *Conn, channel string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if subs := h.subs[channel]; subs != nil {
		delete(subs, conn)
		if len(subs) == 0 {
			delete(h.subs, channel)
		}
	}
	delete(conn.subs, channel)
}

func (h *Hub) subscribed(conn *Conn, channel string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return conn.subs[channel]
}

// Subscribers returns how many connections listen on channel
func (h *Hub) Subscribers(channel string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[channel])
}

// Publish sends an event to all subscribers of a channel
func (h *Hub) Publish(channel string, message map[string]interface{}) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		return
	}
	select {
	case h.publish <- Event{Channel: channel, Message: message}:
	default:
		h.log.Warn("Hub publish channel full, dropping event", zap.String("channel", channel))
	}
}

// NewConn creates a new connection. id keys acknowledgements, so a caller
// reconnecting with the same id can resume where it left off.
func NewConn(ws *websocket.Conn, hub *Hub, id, role string) *Conn {
	return &Conn{
		ws:   ws,
		send: make(chan []byte, sendBuffer),
		hub:  hub,
		id:   id,
		role: role,
		subs: make(map[string]bool),
		ctx:  context.Background(),
	}
}

// trySend queues msg without blocking; false when the buffer is full
func (c *Conn) trySend(msg []byte) bool {
	c.hub.mu.RLock()
	defer c.hub.mu.RUnlock()
	if c.closed {
		return true
	}
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

// ReadPump handles reading from the WebSocket connection
func (c *Conn) ReadPump() {
	defer func() {
		c.hub.unregister(c)
		c.ws.Close()
	}()

	c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		c.ws.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.log.Error("WebSocket error", zap.Error(err))
			}
			break
		}

		var msg clientMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			c.hub.log.Warn("Failed to parse message", zap.String("connection", c.id), zap.Error(err))
			continue
		}

		c.handleMessage(msg)
	}
}

// WritePump handles writing to the WebSocket connection
func (c *Conn) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.ws.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.ws.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.ws.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// clientMessage is a frame sent by a dashboard. Since is the last sequence
// the client has seen; nil means "from my last ack" on resume and "no
// replay" on subscribe.
type clientMessage struct {
	Type    string `json:"type"`
	Channel string `json:"channel"`
	Since   *int64 `json:"since"`
	Seq     int64  `json:"seq"`
}

type ackFrame struct {
	Type    string `json:"type"`
	Ack     string `json:"ack"`
	Channel string `json:"channel,omitempty"`
}

type eventFrame struct {
	Type    string                 `json:"type"`
	Channel string                 `json:"channel"`
	Seq     int64                  `json:"seq"`
	Data    map[string]interface{} `json:"data"`
}

func (c *Conn) handleMessage(msg clientMessage) {
	switch msg.Type {
	case "subscribe":
		if msg.Channel == "" {
			return
		}
		if !c.hub.Subscribe(c, msg.Channel) {
			c.sendAck("forbidden", msg.Channel)
			return
		}
		c.sendAck("subscribed", msg.Channel)
		if msg.Since != nil && *msg.Since >= 0 {
			c.hub.Resume(c, msg.Channel, *msg.Since)
		}
	case "unsubscribe":
		if msg.Channel != "" {
			c.hub.Unsubscribe(c, msg.Channel)
			c.sendAck("unsubscribed", msg.Channel)
		}
	case "ack":
		if msg.Channel != "" && msg.Seq > 0 {
			c.hub.Acknowledge(c, msg.Channel, msg.Seq)
		}
	case "resume":
		if msg.Channel == "" || !c.hub.subscribed(c, msg.Channel) {
			return
		}
		since := c.hub.lastAcked(c, msg.Channel)
		if msg.Since != nil {
			since = *msg.Since
		}
		if since >= 0 {
			c.hub.Resume(c, msg.Channel, since)
		}
	case "ping":
		c.sendAck("pong", "")
	default:
		c.hub.log.Warn("Unknown message type", zap.String("type", msg.Type))
	}
}

func (c *Conn) sendAck(ack, channel string) {
	msg, _ := json.Marshal(ackFrame{Type: "ack", Ack: ack, Channel: channel})
	c.trySend(msg)
}

func (h *Hub) provider() StreamsProvider {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.streams
}

// Acknowledge records an acknowledgment for a sequence number
func (h *Hub) Acknowledge(conn *Conn, channel string, sequence int64) {
	streams := h.provider()
	if streams == nil {
		return
	}
	if err := streams.AcknowledgeSequence(channel, conn.id, sequence); err != nil {
		h.log.Warn("Failed to acknowledge sequence",
			zap.String("channel", channel),
			zap.Int64("sequence", sequence),
			zap.Error(err),
		)
	}
}

func (h *Hub) lastAcked(conn *Conn, channel string) int64 {
	streams := h.provider()
	if streams == nil {
		return 0
	}
	seq, err := streams.GetLastSequence(channel, conn.id)
	if err != nil {
		h.log.Warn("Failed to read last acknowledged sequence", zap.String("channel", channel), zap.Error(err))
		return 0
	}
	return seq
}

// Resume replays events from a given sequence number
func (h *Hub) Resume(conn *Conn, channel string, sinceSeq int64) {
	streams := h.provider()
	if streams == nil {
		h.log.Warn("Streams provider not set, cannot resume")
		return
	}

	events, err := streams.ReplayEvents(channel, sinceSeq, replayLimit)
	if err != nil {
		h.log.Error("Failed to replay events",
			zap.String("channel", channel),
			zap.Int64("since", sinceSeq),
			zap.Error(err),
		)
		return
	}

	for _, event := range events {
		msg, _ := json.Marshal(eventFrame{
			Type:    "event",
			Channel: event.Channel,
			Seq:     event.Sequence,
			Data:    event.Event,
		})
		if !conn.trySend(msg) {
			h.log.Warn("Failed to send replayed event, connection buffer full")
			return
		}
	}

	h.log.Info("Resumed events",
		zap.String("channel", channel),
		zap.String("connection", conn.id),
		zap.Int64("since", sinceSeq),
		zap.Int("count", len(events)),
	)
}
