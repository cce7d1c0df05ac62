package identity

// Role classifies an authenticated caller.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleDoctor  Role = "doctor"
	RolePatient Role = "patient"

	// RoleSystem is never issued in a token. It identifies internal
	// callers such as the payment verifier acting on its own authority.
	RoleSystem Role = "system"
)

// Valid reports whether the role is one that may appear in a token.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleDoctor, RolePatient:
		return true
	}
	return false
}

// Actor is a verified caller identity supplied by the auth middleware. The
// core trusts it without re-verification.
type Actor struct {
	Role      Role   `json:"role"`
	SubjectID string `json:"sub"`
}

// IsAdmin reports whether the actor carries the admin role.
func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// System returns the internal platform actor.
func System() Actor {
	return Actor{Role: RoleSystem, SubjectID: "system"}
}
