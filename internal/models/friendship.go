package models

import "time"

// Friendship statuses.
const (
	FriendshipRequested = "requested"
	FriendshipAccepted  = "accepted"
	FriendshipDeclined  = "declined"
)

// Friendship is a directed edge between two users.
type Friendship struct {
	ID         int       `db:"id" json:"id"`
	FromUserID int       `db:"from_user_id" json:"from_user_id"`
	ToUserID   int       `db:"to_user_id" json:"to_user_id"`
	Status     string    `db:"status" json:"status"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
	IsActive   bool      `db:"is_active" json:"-"`
}

// FriendRequest is a pending request as seen by its recipient.
type FriendRequest struct {
	ID         int       `db:"id" json:"id"`
	FromUserID int       `db:"from_user_id" json:"from_user_id"`
	FromEmail  string    `db:"from_email" json:"from_email"`
	FromFirst  string    `db:"from_first_name" json:"from_first_name"`
	FromLast   string    `db:"from_last_name" json:"from_last_name"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
