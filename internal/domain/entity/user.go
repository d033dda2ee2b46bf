package entity

import (
	"time"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAdmin     Role = "admin"
	RoleModerator Role = "moderator"
)

func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin || r == RoleModerator
}

// CanModerate reports whether the role may run moderation transitions.
func (r Role) CanModerate() bool {
	return r == RoleAdmin || r == RoleModerator
}

type User struct {
	ID          string    `json:"id" firestore:"-"`
	Email       string    `json:"email" firestore:"email"`
	DisplayName string    `json:"display_name" firestore:"displayName"`
	Role        Role      `json:"role" firestore:"role"`
	CreatedAt   time.Time `json:"created_at" firestore:"createdAt"`
}

// Session is the caller identity handed to every use case call.
type Session struct {
	UserID string
	Email  string
	Role   Role
}

func (s Session) IsModerator() bool {
	return s.Role.CanModerate()
}
