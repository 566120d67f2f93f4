package models

import "encoding/json"

// WS actions accepted on the chat socket.
const (
	ActionNewMessage  = "new_message"
	ActionDeleteMsg   = "delete_message"
	ActionReadMsgs    = "read_messages"
	ActionTyping      = "typing"
	ActionStopTyping  = "stop_typing"
	ActionPullHistory = "pull_history"
)

// WS actions accepted on the presence socket.
const (
	ActionGetOrCreateRoom = "get_or_create_room"
	ActionPullRooms       = "pull_rooms"
	ActionSingleRoom      = "single_room"
)

// Envelope is the wire format in both directions.
type Envelope struct {
	Action  string          `json:"action"`
	Results json.RawMessage `json:"results"`
}

// OutEnvelope carries an already-built payload to clients.
type OutEnvelope struct {
	Action  string `json:"action"`
	Results any    `json:"results"`
}

// NewMessagePayload is the results body of an inbound new_message action.
type NewMessagePayload struct {
	Message string `json:"message"`
	ReplyTo *int   `json:"reply_to,omitempty"`
}

// DeleteMessagePayload is the results body of an inbound delete_message action.
type DeleteMessagePayload struct {
	Message int `json:"message"`
}

// ReadMessagesPayload is the results body of an inbound read_messages action.
type ReadMessagesPayload struct {
	Messages []struct {
		ID int `json:"id"`
	} `json:"messages"`
}

// GetOrCreateRoomPayload asks the presence socket for a DM room.
type GetOrCreateRoomPayload struct {
	DM *int `json:"dm"`
}

// TypingPayload identifies who is typing in which room.
type TypingPayload struct {
	RoomID int `json:"room_id"`
	UserID int `json:"user_id"`
}
