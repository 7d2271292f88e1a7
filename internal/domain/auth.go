package domain

// Role is the marketplace role resolved for an authenticated caller.
type Role string

const (
	RoleHost  Role = "host"
	RoleAgent Role = "agent"
	RoleUser  Role = "user"
)

// Identity is what the session layer knows about a caller before role
// resolution.
type Identity struct {
	UserID string
	Email  string
	Name   string
}
