package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
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

var errMissingDM = errors.New("missing dm target")

// PresenceSocketHandler serves the per-user presence websocket. The socket
// marks the user online for its lifetime, receives the room list on connect
// and resolves private rooms on demand.
type PresenceSocketHandler struct {
	hub    *Hub
	rooms  *chat.RoomService
	users  repositories.UserRepository
	tokens *auth.TokenManager

	actions map[string]presenceAction
}

type presenceAction func(ctx context.Context, client *Client, userID int, raw json.RawMessage) error

// NewPresenceSocketHandler constructs a PresenceSocketHandler.
func NewPresenceSocketHandler(hub *Hub, rooms *chat.RoomService, users repositories.UserRepository, tokens *auth.TokenManager) *PresenceSocketHandler {
	h := &PresenceSocketHandler{hub: hub, rooms: rooms, users: users, tokens: tokens}
	h.actions = map[string]presenceAction{
		models.ActionGetOrCreateRoom: h.handleGetOrCreateRoom,
		models.ActionPullRooms:       h.handlePullRooms,
	}
	return h
}

// Handle upgrades the connection and keeps the user online until it closes.
func (h *PresenceSocketHandler) Handle(c *gin.Context) {
	ctx, span := otel.Tracer("famnet-backend/ws").Start(c.Request.Context(), "ws.presence.handshake")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	userID, err := authenticateRequest(c, h.tokens)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	info := ConnInfo{
		ConnID:      newConnID(),
		Kind:        "presence",
		UserID:      userID,
		DeviceID:    observability.DeviceIDFromRequest(c.Request),
		IP:          observability.IPFromRequest(c.Request),
		RequestID:   observability.RequestIDFromRequest(c.Request),
		TraceID:     span.SpanContext().TraceID().String(),
		ConnectedAt: time.Now(),
	}
	client := h.hub.Register(conn, info)
	h.hub.Join(client, chat.UserGroup(userID))

	if err := h.users.SetOnline(ctx, userID, true); err != nil {
		logger.Log.Warn("set online failed", zap.Int("user_id", userID), zap.Error(err))
	}
	if err := h.users.SetLastIP(ctx, userID, info.IP); err != nil {
		logger.Log.Warn("set last ip failed", zap.Int("user_id", userID), zap.Error(err))
	}

	observability.IncWSActive("presence")
	observability.IncWSEvent("presence", "ws_connect")
	publishLifecycle(ctx, info, userID, "ws_connect", "")

	h.pushRooms(ctx, client, userID)

	// The request context dies as soon as this handler returns, so the read
	// loop gets a connection-lifetime context that keeps the trace linkage.
	go h.readLoop(context.WithoutCancel(ctx), client, conn, userID)
}

func (h *PresenceSocketHandler) readLoop(ctx context.Context, client *Client, conn *websocket.Conn, userID int) {
	info := client.Info()
	var closeReason string
	defer func() {
		h.hub.Unregister(client)
		// Another tab may still hold a presence socket for the same user.
		if h.hub.GroupSize(chat.UserGroup(userID)) == 0 {
			if err := h.users.SetOnline(context.Background(), userID, false); err != nil {
				logger.Log.Warn("set offline failed", zap.Int("user_id", userID), zap.Error(err))
			}
		}
		observability.DecWSActive("presence")
		observability.IncWSEvent("presence", "ws_disconnect")
		publishLifecycle(ctx, info, userID, "ws_disconnect", closeReason)
		conn.Close()
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			closeReason = err.Error()
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				observability.IncWSEvent("presence", "ws_error")
				publishLifecycle(ctx, info, userID, "ws_error", closeReason)
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

		observability.IncWSEvent("presence", envelope.Action)
		if err := handler(ctx, client, userID, envelope.Results); err != nil {
			logger.Log.Warn("websocket action failed",
				zap.String("action", envelope.Action),
				zap.Int("user_id", userID),
				zap.Error(err))
			_ = h.hub.Send(client, "error", gin.H{"detail": err.Error()})
		}
	}
}

func (h *PresenceSocketHandler) pushRooms(ctx context.Context, client *Client, userID int) {
	rooms, err := h.rooms.ListRooms(ctx, userID)
	if err != nil {
		logger.Log.Warn("room list load failed", zap.Int("user_id", userID), zap.Error(err))
		return
	}
	if err := h.hub.Send(client, models.ActionPullRooms, rooms); err != nil {
		logger.Log.Warn("room list push failed", zap.Int("user_id", userID), zap.Error(err))
	}
}

func (h *PresenceSocketHandler) handleGetOrCreateRoom(ctx context.Context, client *Client, userID int, raw json.RawMessage) error {
	var payload models.GetOrCreateRoomPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return err
	}
	if payload.DM == nil {
		return errMissingDM
	}

	summary, err := h.rooms.GetOrCreatePrivate(ctx, userID, *payload.DM)
	if err != nil {
		return err
	}

	if err := h.hub.Send(client, models.ActionSingleRoom, summary); err != nil {
		return err
	}
	// The counterpart's room list gains the room too.
	h.hub.Publish(chat.UserGroup(*payload.DM), models.ActionSingleRoom, summary)
	return nil
}

func (h *PresenceSocketHandler) handlePullRooms(ctx context.Context, client *Client, userID int, raw json.RawMessage) error {
	rooms, err := h.rooms.ListRooms(ctx, userID)
	if err != nil {
		return err
	}
	return h.hub.Send(client, models.ActionPullRooms, rooms)
}
