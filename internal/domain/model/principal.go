package model

import "strings"

// Principal is the identity attached to a session. It is a closed union:
// every consumer must switch over both variants explicitly, so that the
// anonymous arm is always a deliberate decision rather than a fallthrough.
type Principal interface {
	isPrincipal()
}

// Authenticated is a principal resolved by the identity validator.
type Authenticated struct {
	Username string
	Role     string
}

// Anonymous is a session that presented no credential, or whose credential
// failed validation. Anonymous sessions are still allowed to connect.
type Anonymous struct{}

func (Authenticated) isPrincipal() {}
func (Anonymous) isPrincipal()     {}

// RoleAdmin is the sentinel role allowed to subscribe to everything.
const RoleAdmin = "admin"

// IsAdmin reports whether the principal carries the admin role.
// Role comparison is case-insensitive throughout the gateway.
func IsAdmin(p Principal) bool {
	auth, ok := p.(Authenticated)
	return ok && strings.EqualFold(auth.Role, RoleAdmin)
}

// DisplayName returns a loggable identity for the principal.
func DisplayName(p Principal) string {
	switch v := p.(type) {
	case Authenticated:
		return v.Username
	case Anonymous:
		return "anonymous"
	default:
		return "unknown"
	}
}
