package sse

import (
  "encoding/json"
  "fmt"
  "net/http"
  "strings"
  "sync"
  "time"

  "github.com/google/uuid"

  "github.com/pathforge/pathforge-backend/internal/logger"
)

type SSEEvent string

const (
  SSEEventRoadmapSaved    SSEEvent = "RoadmapSaved"
  SSEEventRoadmapDeleted  SSEEvent = "RoadmapDeleted"
  SSEEventProgressUpdated SSEEvent = "ProgressUpdated"
)

type SSEMessage struct {
  Channel string   `json:"channel"`
  Event   SSEEvent `json:"event"`
  Data    any      `json:"data,omitempty"`
}

type SSEClient struct {
  ID       uuid.UUID
  UserID   uuid.UUID
  Channels map[string]bool
  Outbound chan SSEMessage
}

type SSEHub struct {
  mu            sync.RWMutex
  log           *logger.Logger
  subscriptions map[string]map[*SSEClient]bool
}

func NewSSEHub(log *logger.Logger) *SSEHub {
  return &SSEHub{
    log:           log.With("component", "SSEHub"),
    subscriptions: make(map[string]map[*SSEClient]bool),
  }
}

func (hub *SSEHub) NewSSEClient(userID uuid.UUID) *SSEClient {
  return &SSEClient{
    ID:       uuid.New(),
    UserID:   userID,
    Channels: make(map[string]bool),
    Outbound: make(chan SSEMessage, 16),
  }
}

func (hub *SSEHub) AddChannel(client *SSEClient, channel string) {
  channel = strings.TrimSpace(channel)
  if channel == "" {
    return
  }
  hub.mu.Lock()
  defer hub.mu.Unlock()

  client.Channels[channel] = true
  clients, exists := hub.subscriptions[channel]
  if !exists {
    clients = make(map[*SSEClient]bool)
    hub.subscriptions[channel] = clients
  }
  clients[client] = true
  hub.log.Debug("SSE client subscribed", "clientID", client.ID, "channel", channel)
}

func (hub *SSEHub) RemoveClient(client *SSEClient) {
  hub.mu.Lock()
  defer hub.mu.Unlock()

  for ch := range client.Channels {
    if subMap, ok := hub.subscriptions[ch]; ok {
      delete(subMap, client)
      if len(subMap) == 0 {
        delete(hub.subscriptions, ch)
      }
    }
  }
  client.Channels = make(map[string]bool)
}

func (hub *SSEHub) Broadcast(msg SSEMessage) {
  if msg.Channel == "" {
    return
  }
  hub.mu.RLock()
  defer hub.mu.RUnlock()

  clients, ok := hub.subscriptions[msg.Channel]
  if !ok {
    return
  }
  for c := range clients {
    select {
    case c.Outbound <- msg:
    default:
      hub.log.Warn("Dropping SSE message; outbound buffer full", "clientID", c.ID)
    }
  }
}

func (hub *SSEHub) ServeHTTP(w http.ResponseWriter, r *http.Request, client *SSEClient) {
  w.Header().Set("Content-Type", "text/event-stream")
  w.Header().Set("Cache-Control", "no-cache")
  w.Header().Set("Connection", "keep-alive")
  w.Header().Set("X-Accel-Buffering", "no")

  flusher, ok := w.(http.Flusher)
  if !ok {
    http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
    return
  }

  ctx := r.Context()
  heartbeat := time.NewTicker(25 * time.Second)
  defer heartbeat.Stop()
  defer hub.RemoveClient(client)

  for {
    select {
    case <-ctx.Done():
      return
    case <-heartbeat.C:
      fmt.Fprint(w, ": ping\n\n")
      flusher.Flush()
    case msg := <-client.Outbound:
      payload, err := json.Marshal(msg.Data)
      if err != nil {
        hub.log.Warn("Failed to marshal SSE payload", "error", err)
        continue
      }
      fmt.Fprintf(w, "event: %s\ndata: %s\n\n", msg.Event, payload)
      flusher.Flush()
    }
  }
}
