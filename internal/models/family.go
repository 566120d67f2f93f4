package models

import "time"

// Family groups related users. Its chat room is kept in sync with membership.
type Family struct {
	ID         int       `db:"id" json:"id"`
	CreatorID  int       `db:"creator_id" json:"creator_id"`
	Name       string    `db:"name" json:"name"`
	InviteCode string    `db:"invite_code" json:"invite_code"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
	IsActive   bool      `db:"is_active" json:"-"`
}

// FamilyMember links a user to a family with a free-form relation label.
type FamilyMember struct {
	ID        int       `db:"id" json:"id"`
	FamilyID  int       `db:"family_id" json:"family_id"`
	MemberID  int       `db:"member_id" json:"member_id"`
	Relation  string    `db:"relation" json:"relation"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	IsActive  bool      `db:"is_active" json:"-"`
}
