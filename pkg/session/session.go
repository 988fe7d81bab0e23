package session

import (
	"strings"
	"time"
)

// Role is the access level the server assigns to a user.
type Role string

const (
	RoleUser       Role = "user"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "superadmin"
)

// User is the authenticated identity as reported by the server.
type User struct {
	ID        string    `json:"_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

// IsSuperAdmin reports whether the user may set or adjust the balance.
func (u User) IsSuperAdmin() bool {
	return strings.EqualFold(string(u.Role), string(RoleSuperAdmin))
}

// Session pairs a bearer token with the user it belongs to.
// A usable session has both; a zero Session means "signed out".
type Session struct {
	Token string `json:"token"`
	User  *User  `json:"user,omitempty"`
}

// New returns a session for token and user.
func New(token string, user User) Session {
	return Session{Token: token, User: &user}
}

// Valid reports whether both the token and a user with an ID are present.
func (s Session) Valid() bool {
	return s.Token != "" && s.User != nil && s.User.ID != ""
}

// IsZero reports whether the session holds nothing at all.
func (s Session) IsZero() bool {
	return s.Token == "" && s.User == nil
}

// WithUser returns a copy of s carrying a refreshed user record.
func (s Session) WithUser(user User) Session {
	s.User = &user
	return s
}
