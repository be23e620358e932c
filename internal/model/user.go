package model

import "time"

type Role string

const (
	RoleStudent Role = "STUDENT"
	RoleExpert  Role = "EXPERT"
	RoleAdmin   Role = "ADMIN"
	// RoleSystem is never stored on a user; it marks automated actors.
	RoleSystem Role = "SYSTEM"
)

type User struct {
	ID          int64     `json:"id"`
	TelegramID  *int64    `json:"telegram_id,omitempty"`
	Username    string    `json:"username"`
	DisplayName string    `json:"display_name"`
	Role        Role      `json:"role"`
	CreatedAt   time.Time `json:"created_at"`
}

func (u *User) IsExpert() bool { return u.Role == RoleExpert }

// Actor is the identity a core operation runs as.
type Actor struct {
	UserID int64
	Role   Role
}

// SystemActor is used by automated paths such as auto-booking.
var SystemActor = Actor{Role: RoleSystem}

func (a Actor) IsSystem() bool { return a.Role == RoleSystem }

// ActorID returns nil for the system actor.
func (a Actor) ActorID() *int64 {
	if a.IsSystem() {
		return nil
	}
	id := a.UserID
	return &id
}
