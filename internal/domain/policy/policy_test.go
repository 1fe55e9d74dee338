package policy

import (
	"testing"

	"github.com/stadium-ops/event-gateway/internal/domain/model"
	"github.com/stretchr/testify/assert"
)

func TestAllowRole(t *testing.T) {
	table := NewTable()

	cases := []struct {
		name        string
		role        string
		destination string
		want        bool
	}{
		{"admin anything", "admin", "/topic/anything", true},
		{"admin case insensitive", "ADMIN", "/topic/emergency", true},
		{"security emergency subtree", "security", "/topic/emergency/alerts", true},
		{"security crowd", "security", "/topic/crowd", true},
		{"security maintenance denied", "security", "/topic/maintenance", false},
		{"staff crowd", "staff", "/topic/crowd", true},
		{"staff emergency denied", "staff", "/topic/emergency", false},
		{"cleaning maintenance", "cleaning", "/topic/maintenance", true},
		{"cleaning crowd denied", "cleaning", "/topic/crowd", false},
		{"maintenance maintenance", "maintenance", "/topic/maintenance", true},
		{"maintenance crowd denied", "maintenance", "/topic/crowd", false},
		{"unknown role denied", "vendor", "/topic/crowd", false},
		{"empty role denied", "", "/topic/anything", false},
		{"empty destination denied", "staff", "", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, table.AllowRole(tc.role, tc.destination))
		})
	}
}

func TestAllowPrincipal(t *testing.T) {
	table := NewTable()

	t.Run("authenticated uses role table", func(t *testing.T) {
		assert.True(t, table.Allow(model.Authenticated{Username: "c1", Role: "cleaning"}, "/topic/maintenance"))
		assert.False(t, table.Allow(model.Authenticated{Username: "c1", Role: "cleaning"}, "/topic/crowd"))
	})

	t.Run("admin principal allowed everywhere", func(t *testing.T) {
		assert.True(t, table.Allow(model.Authenticated{Username: "root", Role: "Admin"}, "/topic/whatever"))
	})

	// Current behavior, kept intentionally: anonymous sessions bypass the
	// role table. Do not invert without an explicit redesign.
	t.Run("anonymous bypasses the table", func(t *testing.T) {
		assert.True(t, table.Allow(model.Anonymous{}, "/topic/emergency"))
		assert.True(t, table.Allow(model.Anonymous{}, "/topic/maintenance"))
	})
}
