package sse

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hollowbyte/subtext-backend/internal/platform/logger"
)

type Event string

const (
	// EventChunk carries one ordered piece of mentor text.
	EventChunk Event = "MentorChunk"
	// EventDone terminates a stream; its payload carries the final
	// MentorResult metadata (including the fallback flag).
	EventDone Event = "MentorDone"
)

type Message struct {
	Channel string `json:"channel"`
	Event   Event  `json:"event"`
	Data    any    `json:"data,omitempty"`
}

type Client struct {
	ID       uuid.UUID
	Channels map[string]bool
	Outbound chan Message
	done     chan struct{}
	closed   sync.Once
}

func (c *Client) Done() <-chan struct{} { return c.done }

func (c *Client) close() {
	c.closed.Do(func() { close(c.done) })
}

// pendingTTL bounds how long an unclaimed channel backlog waits for its
// first subscriber; pendingMax caps one channel's backlog.
const (
	pendingTTL = 2 * time.Minute
	pendingMax = 256
)

type pendingBuffer struct {
	messages []Message
	expires  time.Time
}

// Hub fans messages out to subscribed clients. Each client's Outbound
// channel preserves publish order; a client that stops draining is dropped
// rather than allowed to stall the stream. Messages published to a channel
// before its first subscriber attaches are held and replayed in order on
// attach, so a stream that finishes instantly still delivers every chunk.
type Hub struct {
	mu            sync.Mutex
	log           *logger.Logger
	subscriptions map[string]map[*Client]bool
	pending       map[string]*pendingBuffer
	now           func() time.Time
}

func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		log:           log.With("component", "SSEHub"),
		subscriptions: make(map[string]map[*Client]bool),
		pending:       make(map[string]*pendingBuffer),
		now:           time.Now,
	}
}

func (h *Hub) NewClient() *Client {
	return &Client{
		ID:       uuid.New(),
		Channels: make(map[string]bool),
		Outbound: make(chan Message, 32),
		done:     make(chan struct{}),
	}
}

func (h *Hub) AddChannel(client *Client, channel string) {
	channel = strings.TrimSpace(channel)
	if channel == "" {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	client.Channels[channel] = true
	clients, ok := h.subscriptions[channel]
	if !ok {
		clients = make(map[*Client]bool)
		h.subscriptions[channel] = clients
	}
	clients[client] = true
	if buf, ok := h.pending[channel]; ok {
		for _, msg := range buf.messages {
			h.sendLocked(client, msg)
		}
		delete(h.pending, channel)
	}
	h.log.Debug("sse client subscribed", "client_id", client.ID, "channel", channel)
}

func (h *Hub) RemoveClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for ch := range client.Channels {
		if clients, ok := h.subscriptions[ch]; ok {
			delete(clients, client)
			if len(clients) == 0 {
				delete(h.subscriptions, ch)
			}
		}
	}
	client.Channels = make(map[string]bool)
	client.close()
	h.log.Debug("sse client removed", "client_id", client.ID)
}

func (h *Hub) Broadcast(msg Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	now := h.now()
	for ch, buf := range h.pending {
		if now.After(buf.expires) {
			delete(h.pending, ch)
		}
	}

	clients := h.subscriptions[msg.Channel]
	if len(clients) == 0 {
		h.stashLocked(msg, now)
		return
	}
	for client := range clients {
		h.sendLocked(client, msg)
	}
}

// stashLocked holds a message for a channel nobody has joined yet.
func (h *Hub) stashLocked(msg Message, now time.Time) {
	buf := h.pending[msg.Channel]
	if buf == nil {
		buf = &pendingBuffer{expires: now.Add(pendingTTL)}
		h.pending[msg.Channel] = buf
	}
	if len(buf.messages) >= pendingMax {
		h.log.Warn("sse pending backlog full, dropping", "channel", msg.Channel)
		return
	}
	buf.messages = append(buf.messages, msg)
}

func (h *Hub) sendLocked(client *Client, msg Message) {
	select {
	case client.Outbound <- msg:
	default:
		h.log.Warn("sse client too slow, dropping", "client_id", client.ID, "channel", msg.Channel)
		client.close()
	}
}
