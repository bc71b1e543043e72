// Package auth carries the authenticated actor through request handling.
// The authentication layer resolves a JWT into an Actor; the core receives
// the actor's role explicitly on every read/write call.
package auth

// Role is an actor role. The system knows exactly two.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

// Actor is the authenticated principal acting on a request.
type Actor struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Role     Role   `json:"role"`
}

// IsAdmin reports whether the actor holds the administrator role.
func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}
