package access

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/swassyman/heart/internal/contracts"
	"github.com/swassyman/heart/internal/storage"
)

func ids(props []contracts.Property) []string {
	out := make([]string, 0, len(props))
	for _, p := range props {
		out = append(out, p.ID)
	}
	return out
}

func TestVisibleProperties(t *testing.T) {
	all := storage.SampleProperties()
	tests := []struct {
		name string
		user contracts.User
		want []string
	}{
		{"buyer sees owned", contracts.User{ID: "u1", Name: "Alice Buyer", Role: contracts.RoleBuyer}, []string{"p1", "p3"}},
		{"builder sees all", contracts.User{ID: "u2", Name: "Bob Builder", Role: contracts.RoleBuilder}, []string{"p1", "p2", "p3"}},
		{"inspector sees all", contracts.User{ID: "u7", Name: "Ivy Inspector", Role: contracts.RoleInspector}, []string{"p1", "p2", "p3"}},
		{"same display name different id", contracts.User{ID: "u9", Name: "Alice Buyer", Role: contracts.RoleBuyer}, []string{}},
		{"buyer without id", contracts.User{Name: "Alice Buyer", Role: contracts.RoleBuyer}, []string{}},
		{"unknown role", contracts.User{ID: "u1", Name: "Alice Buyer", Role: "ADMIN"}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(VisibleProperties(all, tt.user)))
		})
	}
}

func TestVisibleProperties_DoesNotModifyInput(t *testing.T) {
	all := storage.SampleProperties()
	_ = VisibleProperties(all, contracts.User{ID: "u1", Role: contracts.RoleBuyer})
	assert.Equal(t, []string{"p1", "p2", "p3"}, ids(all))
}

func TestCanRecord(t *testing.T) {
	assert.True(t, CanRecord(contracts.User{Role: contracts.RoleInspector}))
	assert.False(t, CanRecord(contracts.User{Role: contracts.RoleBuilder}))
	assert.False(t, CanRecord(contracts.User{Role: contracts.RoleBuyer}))
}
