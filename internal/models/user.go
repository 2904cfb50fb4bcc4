package models

// Role is the server-assigned role of an account.
type Role string

const (
	RoleUser  Role = "user"
	RoleStaff Role = "staff"
	RoleAdmin Role = "admin"
)

// IsStaff reports whether the role grants back-office access.
func (r Role) IsStaff() bool {
	return r == RoleStaff || r == RoleAdmin
}

// Identity is the externally-owned session record this client reads.
// An empty Token means the session is anonymous (public feed only).
type Identity struct {
	UserID string `json:"userId"`
	Role   Role   `json:"role"`
	Token  string `json:"token"`
}

func (i Identity) Anonymous() bool { return i.Token == "" }

// User is a directory entry as returned by the server.
type User struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email,omitempty"`
	Avatar string `json:"avatar,omitempty"`
	Role   Role   `json:"role,omitempty"`
}
