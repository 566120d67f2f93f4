package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"famnet-backend/internal/auth"
	"famnet-backend/internal/chat"
	"famnet-backend/internal/logger"
	"famnet-backend/internal/models"
	"famnet-backend/internal/observability"
	"famnet-backend/internal/repositories"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// RoomSocketHandler serves the per-room websocket. Clients receive the recent
// history on connect and exchange chat actions afterwards.
type RoomSocketHandler struct {
	hub      *Hub
	messages *chat.MessageService
	rooms    repositories.RoomRepository
	tokens   *auth.TokenManager

	actions map[string]roomAction
}

type roomAction func(ctx context.Context, client *Client, roomID, userID int, raw json.RawMessage) error

// NewRoomSocketHandler constructs a RoomSocketHandler.
func NewRoomSocketHandler(hub *Hub, messages *chat.MessageService, rooms repositories.RoomRepository, tokens *auth.TokenManager) *RoomSocketHandler {
	h := &RoomSocketHandler{hub: hub, messages: messages, rooms: rooms, tokens: tokens}
	h.actions = map[string]roomAction{
		models.ActionNewMessage:  h.handleNewMessage,
		models.ActionDeleteMsg:   h.handleDeleteMessage,
		models.ActionReadMsgs:    h.handleReadMessages,
		models.ActionTyping:      h.handleTyping,
		models.ActionStopTyping:  h.handleStopTyping,
		models.ActionPullHistory: h.handlePullHistory,
	}
	return h
}

// Handle upgrades the connection, gates on room membership and runs the
// action loop until the peer disconnects.
func (h *RoomSocketHandler) Handle(c *gin.Context) {
	roomID, err := strconv.Atoi(c.Param("room_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room id"})
		return
	}

	ctx, span := otel.Tracer("famnet-backend/ws").Start(c.Request.Context(), "ws.room.handshake")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	userID, err := h.authenticate(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	member, err := h.rooms.IsParticipant(ctx, roomID, userID)
	if err != nil || !member {
		c.JSON(http.StatusForbidden, gin.H{"error": "not authorized for room"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	info := ConnInfo{
		ConnID:      newConnID(),
		Kind:        "room",
		UserID:      userID,
		DeviceID:    observability.DeviceIDFromRequest(c.Request),
		IP:          observability.IPFromRequest(c.Request),
		RequestID:   observability.RequestIDFromRequest(c.Request),
		TraceID:     span.SpanContext().TraceID().String(),
		ConnectedAt: time.Now(),
	}
	client := h.hub.Register(conn, info)
	h.hub.Join(client, chat.RoomGroup(roomID))

	observability.IncWSActive("room")
	observability.IncWSEvent("room", "ws_connect")
	publishLifecycle(ctx, info, roomID, "ws_connect", "")

	h.pushHistory(ctx, client, roomID)

	// The request context dies as soon as this handler returns, so the read
	// loop gets a connection-lifetime context that keeps the trace linkage.
	go h.readLoop(context.WithoutCancel(ctx), client, conn, roomID, userID)
}

func (h *RoomSocketHandler) readLoop(ctx context.Context, client *Client, conn *websocket.Conn, roomID, userID int) {
	info := client.Info()
	var closeReason string
	defer func() {
		h.hub.Unregister(client)
		observability.DecWSActive("room")
		observability.IncWSEvent("room", "ws_disconnect")
		publishLifecycle(ctx, info, roomID, "ws_disconnect", closeReason)
		conn.Close()
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			closeReason = err.Error()
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				observability.IncWSEvent("room", "ws_error")
				publishLifecycle(ctx, info, roomID, "ws_error", closeReason)
			}
			return
		}

		var envelope models.Envelope
		if err := json.Unmarshal(raw, &envelope); err != nil {
			logger.Log.Debug("malformed websocket frame",
				zap.String("conn_id", info.ConnID), zap.Error(err))
			continue
		}

		handler, ok := h.actions[envelope.Action]
		if !ok {
			logger.Log.Debug("unknown websocket action",
				zap.String("action", envelope.Action), zap.String("conn_id", info.ConnID))
			continue
		}

		observability.IncWSEvent("room", envelope.Action)
		if err := handler(ctx, client, roomID, userID, envelope.Results); err != nil {
			logger.Log.Warn("websocket action failed",
				zap.String("action", envelope.Action),
				zap.Int("room_id", roomID),
				zap.Int("user_id", userID),
				zap.Error(err))
			if errors.Is(err, chat.ErrForbidden) || errors.Is(err, chat.ErrNotParticipant) {
				_ = h.hub.Send(client, "error", gin.H{"detail": err.Error()})
			}
		}
	}
}

func (h *RoomSocketHandler) pushHistory(ctx context.Context, client *Client, roomID int) {
	history, err := h.messages.History(ctx, roomID)
	if err != nil {
		logger.Log.Warn("history load failed", zap.Int("room_id", roomID), zap.Error(err))
		return
	}
	if err := h.hub.Send(client, models.ActionPullHistory, history); err != nil {
		logger.Log.Warn("history push failed", zap.Int("room_id", roomID), zap.Error(err))
	}
}

func (h *RoomSocketHandler) handleNewMessage(ctx context.Context, _ *Client, roomID, userID int, raw json.RawMessage) error {
	var payload models.NewMessagePayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return err
	}
	_, err := h.messages.Send(ctx, roomID, userID, payload.Message, payload.ReplyTo, nil)
	return err
}

func (h *RoomSocketHandler) handleDeleteMessage(ctx context.Context, _ *Client, roomID, userID int, raw json.RawMessage) error {
	var payload models.DeleteMessagePayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return err
	}
	return h.messages.Delete(ctx, userID, payload.Message)
}

func (h *RoomSocketHandler) handleReadMessages(ctx context.Context, _ *Client, roomID, userID int, raw json.RawMessage) error {
	var payload models.ReadMessagesPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return err
	}
	ids := make([]int, 0, len(payload.Messages))
	for _, m := range payload.Messages {
		ids = append(ids, m.ID)
	}
	_, err := h.messages.MarkRead(ctx, roomID, userID, ids)
	return err
}

func (h *RoomSocketHandler) handleTyping(ctx context.Context, _ *Client, roomID, userID int, raw json.RawMessage) error {
	h.messages.Typing(roomID, userID, false)
	return nil
}

func (h *RoomSocketHandler) handleStopTyping(ctx context.Context, _ *Client, roomID, userID int, raw json.RawMessage) error {
	h.messages.Typing(roomID, userID, true)
	return nil
}

// handlePullHistory answers only the requesting client; the rest of the
// room never asked for it.
func (h *RoomSocketHandler) handlePullHistory(ctx context.Context, client *Client, roomID, userID int, raw json.RawMessage) error {
	history, err := h.messages.History(ctx, roomID)
	if err != nil {
		return err
	}
	return h.hub.Send(client, models.ActionPullHistory, history)
}

func (h *RoomSocketHandler) authenticate(c *gin.Context) (int, error) {
	return authenticateRequest(c, h.tokens)
}

// authenticateRequest accepts a bearer header or, for browser websocket
// clients that cannot set headers, a token query parameter.
func authenticateRequest(c *gin.Context, tokens *auth.TokenManager) (int, error) {
	token := c.GetHeader("Authorization")
	if token != "" {
		parts := strings.SplitN(token, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			return 0, auth.ErrInvalidToken
		}
		return tokens.ValidateAccess(parts[1])
	}
	if token = c.Query("token"); token != "" {
		return tokens.ValidateAccess(token)
	}
	return 0, auth.ErrInvalidToken
}

func publishLifecycle(ctx context.Context, info ConnInfo, resourceID int, event, reason string) {
	payload := map[string]interface{}{
		"ws": map[string]interface{}{
			"kind":        info.Kind,
			"resource_id": resourceID,
			"event":       event,
			"conn_id":     info.ConnID,
			"duration_ms": time.Since(info.ConnectedAt).Milliseconds(),
			"reason":      reason,
		},
		"identity": map[string]interface{}{
			"user_id":   info.UserID,
			"device_id": info.DeviceID,
			"ip":        info.IP,
		},
	}
	headers := observability.BuildHeaders(info.RequestID, info.TraceID)
	_ = observability.PublishEvent(ctx, wsRoutingKey(info.Kind), observability.EventEnvelope{
		EventType: "ws_events",
		EventName: event,
		Payload:   payload,
	}, headers)
}
