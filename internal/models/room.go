package models

import "time"

// Room types.
const (
	RoomPrivate = "private"
	RoomGroup   = "group"
	RoomFamily  = "family"
)

// Room is a messaging channel. PRIVATE rooms hold exactly two participants,
// FAMILY rooms mirror their family's membership.
type Room struct {
	ID          int       `db:"id" json:"id"`
	Type        string    `db:"type" json:"type"`
	Title       *string   `db:"title" json:"title,omitempty"`
	Description *string   `db:"description" json:"description,omitempty"`
	FamilyID    *int      `db:"family_id" json:"family_id,omitempty"`
	CreatedBy   *int      `db:"created_by" json:"created_by,omitempty"`
	IsArchived  bool      `db:"is_archived" json:"is_archived"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
	IsActive    bool      `db:"is_active" json:"-"`
}

// RoomSummary is the API projection of a room including its participants.
type RoomSummary struct {
	Room
	Participants []PublicUser `json:"participants"`
}
