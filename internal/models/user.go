package models

import "time"

// User is an account in the network. Email doubles as the login key.
type User struct {
	ID            int       `db:"id" json:"id"`
	Email         string    `db:"email" json:"email"`
	FirstName     string    `db:"first_name" json:"first_name"`
	LastName      string    `db:"last_name" json:"last_name"`
	PasswordHash  string    `db:"password_hash" json:"-"`
	IsOnline      bool      `db:"is_online" json:"is_online"`
	EmailVerified bool      `db:"email_verified" json:"email_verified"`
	LastIP        *string   `db:"last_ip" json:"last_ip,omitempty"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
	IsActive      bool      `db:"is_active" json:"-"`
}

// FullName falls back to the email when no name parts are set.
func (u User) FullName() string {
	if u.FirstName == "" && u.LastName == "" {
		return u.Email
	}
	return u.FirstName + " " + u.LastName
}

// Public returns the safe projection of the user.
func (u User) Public() PublicUser {
	return PublicUser{
		ID:        u.ID,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		IsOnline:  u.IsOnline,
	}
}

// PublicUser is the safe projection exposed to other users.
type PublicUser struct {
	ID        int    `db:"id" json:"id"`
	Email     string `db:"email" json:"email"`
	FirstName string `db:"first_name" json:"first_name"`
	LastName  string `db:"last_name" json:"last_name"`
	IsOnline  bool   `db:"is_online" json:"is_online"`
}
