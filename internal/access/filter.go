// Package access decides which properties a user may see.
//
// Builders and inspectors see every property. Buyers see only the
// properties they own, matched on the owner id rather than the display
// name so two owners sharing a name never see each other's properties.
package access

import "github.com/swassyman/heart/internal/contracts"

// CanView reports whether user may see p. An unknown role sees nothing.
func CanView(user contracts.User, p contracts.Property) bool {
	switch user.Role {
	case contracts.RoleBuilder, contracts.RoleInspector:
		return true
	case contracts.RoleBuyer:
		return user.ID != "" && p.OwnerID == user.ID
	default:
		return false
	}
}

// VisibleProperties returns the subset of all that user may see, in input
// order. The input slice is not modified.
func VisibleProperties(all []contracts.Property, user contracts.User) []contracts.Property {
	visible := make([]contracts.Property, 0, len(all))
	for _, p := range all {
		if CanView(user, p) {
			visible = append(visible, p)
		}
	}
	return visible
}

// CanRecord reports whether user may record findings or inspections.
func CanRecord(user contracts.User) bool {
	return user.Role == contracts.RoleInspector
}
