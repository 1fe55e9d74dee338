// Package policy holds the static role to destination-prefix authorization
// table. The table is read-only at runtime; the only mutable authorization
// state in the gateway is which sessions currently hold which admitted
// subscriptions, and that lives in the registry.
package policy

import (
	"strings"

	"github.com/stadium-ops/event-gateway/internal/domain/model"
)

// rolePrefixes maps a lowercase role to the destination prefixes it may
// subscribe to. The admin role is not listed: it is a sentinel allowed
// everything, handled before the lookup.
var rolePrefixes = map[string][]string{
	"security":    {"/topic/emergency", "/topic/crowd"},
	"staff":       {"/topic/crowd"},
	"cleaning":    {"/topic/maintenance"},
	"maintenance": {"/topic/maintenance"},
}

// Table answers subscription authorization questions against the static
// role policy. The zero value is not usable; construct with NewTable.
type Table struct {
	prefixes map[string][]string
}

func NewTable() *Table {
	return &Table{prefixes: rolePrefixes}
}

// AllowRole reports whether a role may subscribe to a destination.
// Unknown roles, empty roles and empty destinations are denied.
func (t *Table) AllowRole(role, destination string) bool {
	if role == "" || destination == "" {
		return false
	}
	if strings.EqualFold(role, model.RoleAdmin) {
		return true
	}
	for _, prefix := range t.prefixes[strings.ToLower(role)] {
		if strings.HasPrefix(destination, prefix) {
			return true
		}
	}
	return false
}

// Allow resolves a principal-level decision. It matches exhaustively over
// both principal variants: anonymous sessions are admitted without a role
// check, which reproduces the behavior of the system this gateway fronts.
// See the package tests, where that arm is pinned as documented behavior.
func (t *Table) Allow(p model.Principal, destination string) bool {
	switch v := p.(type) {
	case model.Authenticated:
		return t.AllowRole(v.Role, destination)
	case model.Anonymous:
		// Known authorization gap, kept intentionally: an anonymous
		// session bypasses the role table entirely.
		return true
	default:
		return false
	}
}
