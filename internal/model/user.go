package model

import (
	"time"
)

// User is the identity record both parties ultimately resolve to. Profile
// management is owned elsewhere; the lifecycle only reads these fields.
type User struct {
	ID        string    `db:"id" json:"id"`
	FullName  string    `db:"full_name" json:"fullName"`
	Email     string    `db:"email" json:"email"`
	Phone     *string   `db:"phone" json:"phone,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// Mentor wraps an underlying user identity with a mentor profile.
type Mentor struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"userId"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`

	User User `db:"user" json:"user"`
}

// Actor is a party performing a lifecycle operation, with its role resolved
// once at the service boundary rather than re-derived per method.
type Actor struct {
	User *User
	Role Role
}

func (a Actor) IsFounder() bool {
	return a.Role == RoleFounder
}

func (a Actor) IsMentor() bool {
	return a.Role == RoleMentor
}
