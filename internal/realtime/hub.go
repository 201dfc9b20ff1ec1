package realtime

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Monetiqai/Monetiq-sub003/internal/platform/logger"
)

const (
	clientBuffer     = 32
	defaultHeartbeat = 15 * time.Second
)

// SSEClient is one open event stream. Channels is guarded by the hub lock.
type SSEClient struct {
	ID       uuid.UUID
	OwnerID  uuid.UUID
	Channels map[string]bool
	Outbound chan SSEMessage
	done     chan struct{}
	closeMu  sync.Once
}

// SSEHub routes pack events to the streams subscribed to each pack channel.
type SSEHub struct {
	log       *logger.Logger
	heartbeat time.Duration

	mu   sync.RWMutex
	subs map[string]map[*SSEClient]struct{}
}

func NewSSEHub(log *logger.Logger) *SSEHub {
	return &SSEHub{
		log:       log.With("component", "SSEHub"),
		heartbeat: defaultHeartbeat,
		subs:      map[string]map[*SSEClient]struct{}{},
	}
}

func (hub *SSEHub) NewSSEClient(ownerID uuid.UUID) *SSEClient {
	return &SSEClient{
		ID:       uuid.New(),
		OwnerID:  ownerID,
		Channels: map[string]bool{},
		Outbound: make(chan SSEMessage, clientBuffer),
		done:     make(chan struct{}),
	}
}

func (hub *SSEHub) AddChannel(client *SSEClient, channel string) {
	if channel = strings.TrimSpace(channel); channel == "" {
		return
	}
	hub.mu.Lock()
	defer hub.mu.Unlock()
	if hub.subs[channel] == nil {
		hub.subs[channel] = map[*SSEClient]struct{}{}
	}
	hub.subs[channel][client] = struct{}{}
	client.Channels[channel] = true
	hub.log.Debug("SSE client subscribed", "client_id", client.ID, "channel", channel)
}

// RemoveClient drops every subscription of client. Once it returns no
// Broadcast can reach the client.
func (hub *SSEHub) RemoveClient(client *SSEClient) {
	hub.mu.Lock()
	defer hub.mu.Unlock()
	for channel := range client.Channels {
		delete(hub.subs[channel], client)
		if len(hub.subs[channel]) == 0 {
			delete(hub.subs, channel)
		}
	}
	client.Channels = map[string]bool{}
}

func (hub *SSEHub) Subscribers(channel string) int {
	hub.mu.RLock()
	defer hub.mu.RUnlock()
	return len(hub.subs[channel])
}

// Broadcast never blocks; a client with a full buffer misses the message.
func (hub *SSEHub) Broadcast(msg SSEMessage) {
	if msg.Channel == "" {
		return
	}
	hub.mu.RLock()
	defer hub.mu.RUnlock()
	for c := range hub.subs[msg.Channel] {
		select {
		case c.Outbound <- msg:
		default:
			hub.log.Warn("Dropping SSE message; outbound buffer full", "client_id", c.ID, "event", msg.Event)
		}
	}
}

// ServeHTTP streams client's messages until the request ends or the client
// is closed. Idle streams get a comment frame every heartbeat.
func (hub *SSEHub) ServeHTTP(w http.ResponseWriter, r *http.Request, client *SSEClient) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ticker := time.NewTicker(hub.heartbeat)
	defer ticker.Stop()
	for {
		select {
		case <-r.Context().Done():
			return
		case <-client.done:
			return
		case <-ticker.C:
			_, _ = fmt.Fprint(w, ": ping\n\n")
		case msg, open := <-client.Outbound:
			if !open {
				return
			}
			if err := writeFrame(w, msg); err != nil {
				hub.log.Warn("Failed to encode SSE message", "error", err, "event", msg.Event)
				continue
			}
		}
		flusher.Flush()
	}
}

func writeFrame(w http.ResponseWriter, msg SSEMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", msg.Event, data)
	return err
}

// CloseClient unsubscribes and ends the stream. Repeated calls are no-ops.
func (hub *SSEHub) CloseClient(client *SSEClient) {
	client.closeMu.Do(func() {
		hub.RemoveClient(client)
		close(client.done)
		close(client.Outbound)
	})
}
