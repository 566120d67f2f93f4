package chat

import (
	"context"
	"fmt"

	"famnet-backend/internal/models"
	"famnet-backend/internal/observability"
	"famnet-backend/internal/repositories"
)

// Broadcaster pushes events to every connection joined to a group.
// Delivery is best-effort; disconnected recipients simply miss the event.
type Broadcaster interface {
	Publish(group, action string, results any)
}

// RoomGroup is the broadcast group for a room's open sockets.
func RoomGroup(roomID int) string {
	return fmt.Sprintf("private_chat_%d", roomID)
}

// UserGroup is the personal notification group for a user's sockets.
func UserGroup(userID int) string {
	return fmt.Sprintf("user_%d", userID)
}

// MessageService is the message pipeline: validation, persistence, room
// fan-out and per-recipient notification.
type MessageService struct {
	rooms    repositories.RoomRepository
	messages repositories.MessageRepository
	perms    *PermissionChecker
	hub      Broadcaster
}

// NewMessageService builds a MessageService.
func NewMessageService(rooms repositories.RoomRepository, messages repositories.MessageRepository, perms *PermissionChecker, hub Broadcaster) *MessageService {
	return &MessageService{rooms: rooms, messages: messages, perms: perms, hub: hub}
}

// historyLimit matches the window pushed on socket connect.
const historyLimit = 25

// Send validates, persists and fans out a new message. Persistence happens
// before either broadcast; the room broadcast and the personal notifications
// are independent publishes with no relative ordering.
func (s *MessageService) Send(ctx context.Context, roomID, authorID int, content string, replyTo *int, media []repositories.MediaInput) (models.Message, error) {
	if _, err := s.rooms.GetRoom(ctx, roomID); err != nil {
		return models.Message{}, err
	}
	member, err := s.rooms.IsParticipant(ctx, roomID, authorID)
	if err != nil {
		return models.Message{}, err
	}
	if !member {
		return models.Message{}, ErrNotParticipant
	}

	msg, err := s.messages.CreateMessage(ctx, roomID, authorID, content, replyTo, media)
	if err != nil {
		return models.Message{}, err
	}

	s.hub.Publish(RoomGroup(roomID), models.ActionNewMessage, msg)
	s.notifyRecipients(ctx, roomID, authorID, msg)

	_ = observability.PublishEvent(ctx, "chat_events.messages", observability.EventEnvelope{
		EventType: "chat_events",
		EventName: "message_sent",
		Payload: map[string]any{
			"room_id":    roomID,
			"message_id": msg.ID,
			"author_id":  authorID,
			"media":      len(media),
		},
	}, nil)
	observability.IncChatEvent("message_sent")

	return msg, nil
}

// notifyRecipients delivers a personal notification to every participant
// except the author. Fire-and-forget.
func (s *MessageService) notifyRecipients(ctx context.Context, roomID, authorID int, msg models.Message) {
	participants, err := s.rooms.Participants(ctx, roomID)
	if err != nil {
		return
	}
	for _, p := range participants {
		if p.ID == authorID {
			continue
		}
		s.hub.Publish(UserGroup(p.ID), models.ActionNewMessage, msg)
	}
}

// Delete removes a message if the actor passes the layered permission rule,
// then broadcasts the deletion to the room.
func (s *MessageService) Delete(ctx context.Context, actorID, messageID int) error {
	msg, err := s.messages.GetMessage(ctx, messageID)
	if err != nil {
		return err
	}

	allowed, err := s.perms.CanDelete(ctx, actorID, msg)
	if err != nil {
		return err
	}
	if !allowed {
		return ErrForbidden
	}

	if err := s.messages.DeleteMessage(ctx, messageID); err != nil {
		return err
	}

	s.hub.Publish(RoomGroup(msg.RoomID), models.ActionDeleteMsg, map[string]int{"id": messageID})
	observability.IncChatEvent("message_deleted")
	return nil
}

// MarkRead adds the user to each message's read set, returns the updated
// messages and broadcasts the new read state to the room.
func (s *MessageService) MarkRead(ctx context.Context, roomID, userID int, messageIDs []int) ([]models.Message, error) {
	member, err := s.rooms.IsParticipant(ctx, roomID, userID)
	if err != nil {
		return nil, err
	}
	if !member {
		return nil, ErrNotParticipant
	}
	if err := s.messages.MarkRead(ctx, roomID, userID, messageIDs); err != nil {
		return nil, err
	}
	msgs, err := s.messages.GetMessages(ctx, roomID, messageIDs)
	if err != nil {
		return nil, err
	}
	s.hub.Publish(RoomGroup(roomID), models.ActionReadMsgs, msgs)
	return msgs, nil
}

// History returns the latest messages for the room, newest first.
func (s *MessageService) History(ctx context.Context, roomID int) ([]models.Message, error) {
	return s.messages.ListRoomMessages(ctx, roomID, historyLimit)
}

// HistoryFor is History behind a membership gate, for callers that were not
// already admitted at connect time.
func (s *MessageService) HistoryFor(ctx context.Context, roomID, userID int) ([]models.Message, error) {
	member, err := s.rooms.IsParticipant(ctx, roomID, userID)
	if err != nil {
		return nil, err
	}
	if !member {
		return nil, ErrNotParticipant
	}
	return s.History(ctx, roomID)
}

// Typing relays an ephemeral typing signal to the room. Nothing persists.
func (s *MessageService) Typing(roomID, userID int, stopped bool) {
	action := models.ActionTyping
	if stopped {
		action = models.ActionStopTyping
	}
	s.hub.Publish(RoomGroup(roomID), action, models.TypingPayload{RoomID: roomID, UserID: userID})
}
