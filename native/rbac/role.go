package rbac

import (
	"fmt"
	"strings"
)

// Role enumerates the ledger's roles. The numeric value of each role is part
// of the persisted format: roles may be appended but never reordered or
// removed.
type Role uint8

const (
	RoleMultisig Role = iota
	RoleAdmin
	RoleBlocklister
	RoleController
	RoleMasterMinter
	RoleMinter
	RoleOwner
	RolePauser
	// RoleBlocklisted was added after the first deployment and must stay last.
	RoleBlocklisted
)

// Catalog lists every role name in discriminant order.
var Catalog = []string{
	"Multisig",
	"Admin",
	"Blocklister",
	"Controller",
	"MasterMinter",
	"Minter",
	"Owner",
	"Pauser",
	"Blocklisted",
}

// AllRoles returns every defined role in discriminant order.
func AllRoles() []Role {
	out := make([]Role, len(Catalog))
	for i := range Catalog {
		out[i] = Role(i)
	}
	return out
}

// Valid reports whether r is a defined role.
func (r Role) Valid() bool {
	return int(r) < len(Catalog)
}

func (r Role) String() string {
	if !r.Valid() {
		return fmt.Sprintf("Role(%d)", uint8(r))
	}
	return Catalog[r]
}

// Governance reports whether r is one of the roles that participate in
// multisig requests and therefore carry the Multisig marker.
func (r Role) Governance() bool {
	switch r {
	case RoleAdmin, RoleController, RoleMasterMinter, RoleOwner, RolePauser:
		return true
	default:
		return false
	}
}

// ParseRole resolves a role by name. Matching ignores case, underscores and
// dashes so "master_minter" and "MasterMinter" are equivalent.
func ParseRole(value string) (Role, error) {
	normalized := normalizeRoleName(value)
	for i, name := range Catalog {
		if normalizeRoleName(name) == normalized {
			return Role(i), nil
		}
	}
	return 0, fmt.Errorf("rbac: unknown role %q", value)
}

func normalizeRoleName(value string) string {
	replacer := strings.NewReplacer("_", "", "-", "", " ", "")
	return strings.ToLower(replacer.Replace(strings.TrimSpace(value)))
}

// MarshalText renders the role by name.
func (r Role) MarshalText() ([]byte, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("rbac: invalid role %d", uint8(r))
	}
	return []byte(r.String()), nil
}

// UnmarshalText parses a role name.
func (r *Role) UnmarshalText(text []byte) error {
	parsed, err := ParseRole(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// Set is a bitmap of roles keyed by discriminant.
type Set uint64

// Has reports whether role is present in the set.
func (s Set) Has(role Role) bool {
	return s&(1<<uint(role)) != 0
}

// With returns the set including role.
func (s Set) With(role Role) Set {
	return s | 1<<uint(role)
}

// Without returns the set excluding role.
func (s Set) Without(role Role) Set {
	return s &^ (1 << uint(role))
}

// Roles lists the members of the set in discriminant order.
func (s Set) Roles() []Role {
	var out []Role
	for i := 0; i < 64; i++ {
		if s&(1<<uint(i)) != 0 {
			out = append(out, Role(i))
		}
	}
	return out
}

// HasGovernance reports whether any governance role is present.
func (s Set) HasGovernance() bool {
	for _, role := range s.Roles() {
		if role.Governance() {
			return true
		}
	}
	return false
}
