package identity

// Role is the authorization role carried by an identity claim.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Identity is a verified (userId, role) claim. The core trusts it without re-verification.
type Identity struct {
	UserID string `json:"user_id"`
	Role   Role   `json:"role"`
}

// IsAdmin reports whether the identity carries the admin role.
func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}

// Anonymous is the zero identity used for unauthenticated reads.
var Anonymous = Identity{}

// IsAnonymous reports whether no user is attached.
func (i Identity) IsAnonymous() bool {
	return i.UserID == ""
}
