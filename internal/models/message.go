package models

import "time"

// Message belongs to exactly one room. The author is kept nullable so
// messages survive account deletion.
type Message struct {
	ID        int        `db:"id" json:"id"`
	RoomID    int        `db:"room_id" json:"room_id"`
	UserID    *int       `db:"user_id" json:"user_id,omitempty"`
	Content   string     `db:"content" json:"content"`
	ReplyToID *int       `db:"reply_to_id" json:"reply_to_id,omitempty"`
	IsEdited  bool       `db:"is_edited" json:"is_edited"`
	EditedAt  *time.Time `db:"edited_at" json:"edited_at,omitempty"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	IsActive  bool       `db:"is_active" json:"-"`

	HaveRead []int          `json:"have_read"`
	Media    []MessageMedia `json:"media,omitempty"`
}

// MessageMedia is a stored attachment. Rows cascade with their message.
type MessageMedia struct {
	ID        int       `db:"id" json:"id"`
	MessageID int       `db:"message_id" json:"message_id"`
	FileKey   string    `db:"file_key" json:"file_key"`
	ByteSize  int64     `db:"byte_size" json:"byte_size"`
	Extension string    `db:"extension" json:"extension"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
