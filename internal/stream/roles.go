package stream

import (
	"fmt"
	"slices"
	"strings"
)

// Role is a permission group of the community.
type Role string

const (
	RoleAdmin     Role = "ADMIN"
	RolePlanning  Role = "PLANNING"
	RoleStreamer  Role = "STREAMER"
	RoleTech      Role = "TECH"
	RoleModerator Role = "MODERATOR"
)

// AllRoles lists every known role in display order.
var AllRoles = []Role{RoleAdmin, RolePlanning, RoleStreamer, RoleTech, RoleModerator}

// ParseRole parses a case-insensitive role name.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	if !slices.Contains(AllRoles, r) {
		return "", fmt.Errorf("%w: unknown role %q", ErrValidation, s)
	}
	return r, nil
}

// ParseRoles parses a list of role names, skipping duplicates.
func ParseRoles(names []string) ([]Role, error) {
	var roles []Role
	for _, n := range names {
		r, err := ParseRole(n)
		if err != nil {
			return nil, err
		}
		if !slices.Contains(roles, r) {
			roles = append(roles, r)
		}
	}
	return roles, nil
}

// RoleMapping maps external (Discord) role ids to piquet roles.
type RoleMapping map[string]Role

// Resolve returns the piquet roles granted by the given external role ids.
// Unknown ids are ignored.
func (m RoleMapping) Resolve(ids []string) []Role {
	var roles []Role
	for _, id := range ids {
		r, ok := m[id]
		if ok && !slices.Contains(roles, r) {
			roles = append(roles, r)
		}
	}
	return roles
}

// Principal is the caller on whose behalf an operation runs.
// The zero value is the unauthenticated caller.
type Principal struct {
	UserID string
	Roles  []Role
}

// Authenticated reports whether the principal carries a user id.
func (p Principal) Authenticated() bool {
	return p.UserID != ""
}

// Has reports whether the principal carries role r.
func (p Principal) Has(r Role) bool {
	return hasRole(p.Roles, r)
}

// Elevated reports whether the principal may act on other users' requests.
func (p Principal) Elevated() bool {
	return p.Has(RoleAdmin) || p.Has(RolePlanning)
}

func hasRole(roles []Role, r Role) bool {
	return slices.Contains(roles, r)
}
