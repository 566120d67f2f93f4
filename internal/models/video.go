package models

import "time"

// Video call statuses.
const (
	CallOngoing = "ongoing"
	CallEnded   = "ended"
)

// VideoCall is the one-per-room call session, created lazily on first join.
type VideoCall struct {
	ID        int        `db:"id" json:"id"`
	RoomID    int        `db:"room_id" json:"room_id"`
	Status    string     `db:"status" json:"status"`
	CreatedBy int        `db:"created_by" json:"created_by"`
	StartedAt time.Time  `db:"started_at" json:"started_at"`
	EndedAt   *time.Time `db:"ended_at" json:"ended_at,omitempty"`
}

// IceServer is a STUN/TURN endpoint handed to video clients.
type IceServer struct {
	ID         int     `db:"id" json:"-"`
	URLs       string  `db:"urls" json:"urls"`
	Username   *string `db:"username" json:"username,omitempty"`
	Credential *string `db:"credential" json:"credential,omitempty"`
	Priority   int     `db:"priority" json:"-"`
	IsActive   bool    `db:"is_active" json:"-"`
}
