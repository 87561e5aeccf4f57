package realtime

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/meetingdesk-backend/internal/platform/logger"
)

type Client struct {
	ID       uuid.UUID
	Subject  string
	Channels map[string]bool
	Outbound chan ArtefactEvent
	done     chan struct{}
	once     sync.Once
}

type Hub struct {
	mu            sync.RWMutex
	log           *logger.Logger
	subscriptions map[string]map[*Client]bool
	heartbeat     time.Duration
}

func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		log:           log.With("component", "SSEHub"),
		subscriptions: make(map[string]map[*Client]bool),
		heartbeat:     15 * time.Second,
	}
}

func (hub *Hub) NewClient(subject string) *Client {
	return &Client{
		ID:       uuid.New(),
		Subject:  subject,
		Channels: make(map[string]bool),
		Outbound: make(chan ArtefactEvent, 32),
		done:     make(chan struct{}),
	}
}

func (hub *Hub) AddChannel(client *Client, channel string) {
	channel = strings.TrimSpace(channel)
	if channel == "" {
		return
	}
	hub.mu.Lock()
	defer hub.mu.Unlock()

	client.Channels[channel] = true
	clients, ok := hub.subscriptions[channel]
	if !ok {
		clients = make(map[*Client]bool)
		hub.subscriptions[channel] = clients
	}
	clients[client] = true
	hub.log.Debug("SSE client subscribed", "clientID", client.ID, "channel", channel)
}

func (hub *Hub) removeClient(client *Client) {
	hub.mu.Lock()
	defer hub.mu.Unlock()
	for ch := range client.Channels {
		if subs, ok := hub.subscriptions[ch]; ok {
			delete(subs, client)
			if len(subs) == 0 {
				delete(hub.subscriptions, ch)
			}
		}
	}
	client.Channels = make(map[string]bool)
}

// Broadcast delivers ev to subscribers of its meeting channel and of
// AllChannel. Slow clients drop events rather than block the publisher.
func (hub *Hub) Broadcast(ev ArtefactEvent) {
	hub.mu.RLock()
	defer hub.mu.RUnlock()

	seen := map[*Client]bool{}
	for _, ch := range []string{ev.Channel(), AllChannel} {
		for c := range hub.subscriptions[ch] {
			if seen[c] {
				continue
			}
			seen[c] = true
			select {
			case c.Outbound <- ev:
			default:
				hub.log.Warn("Dropping SSE event; outbound buffer full", "clientID", c.ID)
			}
		}
	}
}

func (hub *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request, client *Client) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported!", http.StatusInternalServerError)
		return
	}
	ctx := r.Context()
	heartbeat := time.NewTicker(hub.heartbeat)
	defer heartbeat.Stop()

	_, _ = fmt.Fprint(w, ": connected\n\n")
	flusher.Flush()
	for {
		select {
		case <-ctx.Done():
			hub.log.Debug("SSE client context done", "clientID", client.ID, "err", ctx.Err())
			return
		case <-client.done:
			return
		case <-heartbeat.C:
			_, _ = fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		case ev, ok := <-client.Outbound:
			if !ok {
				return
			}
			raw, err := json.Marshal(ev)
			if err != nil {
				hub.log.Warn("Failed to marshal SSE event", "error", err)
				continue
			}
			_, _ = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", EventArtefactStatus, raw)
			flusher.Flush()
		}
	}
}

// CloseClient unsubscribes client and closes its outbound channel. Safe to
// call more than once.
func (hub *Hub) CloseClient(client *Client) {
	client.once.Do(func() {
		close(client.done)
		hub.removeClient(client)
		hub.mu.Lock()
		close(client.Outbound)
		hub.mu.Unlock()
	})
}

// CloseAll disconnects every subscribed client.
func (hub *Hub) CloseAll() {
	hub.mu.RLock()
	clients := map[*Client]bool{}
	for _, subs := range hub.subscriptions {
		for c := range subs {
			clients[c] = true
		}
	}
	hub.mu.RUnlock()
	for c := range clients {
		hub.CloseClient(c)
	}
}
