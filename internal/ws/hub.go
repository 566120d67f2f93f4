package ws

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"famnet-backend/internal/logger"
	"famnet-backend/internal/models"
	"famnet-backend/internal/observability"
)

// Client is one registered websocket connection. Writes are serialized per
// connection; gorilla allows at most one concurrent writer.
type Client struct {
	conn *websocket.Conn
	info ConnInfo
	mu   sync.Mutex
}

func (c *Client) Info() ConnInfo { return c.info }

func (c *Client) write(payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, payload)
}

// Hub maintains active websocket connections grouped under string keys
// ("user_<id>" for presence sockets, "private_chat_<room>" for room sockets).
// Publishing to a group fans the envelope out to every live member.
type Hub struct {
	mu      sync.RWMutex
	groups  map[string]map[*Client]bool
	members map[*Client]map[string]bool
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		groups:  make(map[string]map[*Client]bool),
		members: make(map[*Client]map[string]bool),
	}
}

// Register wraps a connection into a Client known to the hub.
func (h *Hub) Register(conn *websocket.Conn, info ConnInfo) *Client {
	client := &Client{conn: conn, info: info}
	h.mu.Lock()
	h.members[client] = make(map[string]bool)
	h.mu.Unlock()
	return client
}

// Join subscribes the client to a group.
func (h *Hub) Join(client *Client, group string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.groups[group]; !ok {
		h.groups[group] = make(map[*Client]bool)
	}
	h.groups[group][client] = true
	if _, ok := h.members[client]; !ok {
		h.members[client] = make(map[string]bool)
	}
	h.members[client][group] = true
}

// Leave unsubscribes the client from a group.
func (h *Hub) Leave(client *Client, group string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leaveLocked(client, group)
}

func (h *Hub) leaveLocked(client *Client, group string) {
	if clients, ok := h.groups[group]; ok {
		delete(clients, client)
		if len(clients) == 0 {
			delete(h.groups, group)
		}
	}
	if groups, ok := h.members[client]; ok {
		delete(groups, group)
	}
}

// Unregister drops the client from every group it joined.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for group := range h.members[client] {
		h.leaveLocked(client, group)
	}
	delete(h.members, client)
}

// GroupSize reports how many clients are subscribed to a group.
func (h *Hub) GroupSize(group string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.groups[group])
}

// Publish fans an action envelope out to every client in the group. Dead
// connections are closed and dropped.
func (h *Hub) Publish(group, action string, results any) {
	payload, err := json.Marshal(models.OutEnvelope{Action: action, Results: results})
	if err != nil {
		logger.Log.Error("websocket envelope marshal failed", zap.String("action", action), zap.Error(err))
		return
	}

	h.mu.RLock()
	clients := make([]*Client, 0, len(h.groups[group]))
	for client := range h.groups[group] {
		clients = append(clients, client)
	}
	h.mu.RUnlock()

	for _, client := range clients {
		if err := client.write(payload); err != nil {
			logger.Log.Warn("websocket write error",
				zap.String("group", group),
				zap.String("conn_id", client.info.ConnID),
				zap.Error(err))
			client.conn.Close()
			h.Unregister(client)
			h.publishWSError(group, client, err)
		}
	}
}

// Send delivers an action envelope to a single client.
func (h *Hub) Send(client *Client, action string, results any) error {
	payload, err := json.Marshal(models.OutEnvelope{Action: action, Results: results})
	if err != nil {
		return err
	}
	return client.write(payload)
}

func (h *Hub) publishWSError(group string, client *Client, err error) {
	info := client.info
	payload := map[string]interface{}{
		"ws": map[string]interface{}{
			"kind":        info.Kind,
			"group":       group,
			"event":       "ws_error",
			"conn_id":     info.ConnID,
			"duration_ms": time.Since(info.ConnectedAt).Milliseconds(),
			"reason":      err.Error(),
		},
		"identity": map[string]interface{}{
			"user_id":   info.UserID,
			"device_id": info.DeviceID,
			"ip":        info.IP,
		},
	}

	headers := observability.BuildHeaders(info.RequestID, info.TraceID)
	_ = observability.PublishEvent(context.Background(), wsRoutingKey(info.Kind), observability.EventEnvelope{
		EventType: "ws_events",
		EventName: "ws_error",
		Payload:   payload,
	}, headers)
	observability.IncWSEvent(info.Kind, "ws_error")
}

func wsRoutingKey(kind string) string {
	if kind == "presence" {
		return "ws_events.presence"
	}
	return "ws_events.rooms"
}
