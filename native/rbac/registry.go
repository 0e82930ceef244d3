package rbac

import (
	"bytes"
	"fmt"
	"sort"

	fterrors "fiattoken/core/errors"
)

// State is the key-value surface the registry persists through.
type State interface {
	KVGet(key []byte, out interface{}) (bool, error)
	KVPut(key []byte, value interface{}) error
	KVDelete(key []byte) error
	KVAppend(key []byte, value []byte) error
	KVRemove(key []byte, value []byte) error
	KVGetList(key []byte, out interface{}) error
}

// Registry records which accounts hold which roles. Each account owns a role
// bitmap and each role keeps a member index for enumeration.
type Registry struct {
	state State
}

// NewRegistry constructs a registry over state.
func NewRegistry(state State) *Registry {
	return &Registry{state: state}
}

func (r *Registry) withState() (State, error) {
	if r == nil || r.state == nil {
		return nil, fmt.Errorf("rbac: registry not initialised")
	}
	return r.state, nil
}

// Roles returns the set of roles held by account.
func (r *Registry) Roles(account [20]byte) (Set, error) {
	state, err := r.withState()
	if err != nil {
		return 0, err
	}
	var stored uint64
	if _, err := state.KVGet(accountRolesKey(account), &stored); err != nil {
		return 0, fmt.Errorf("rbac: load roles: %w", err)
	}
	return Set(stored), nil
}

func (r *Registry) storeRoles(state State, account [20]byte, set Set) error {
	if set == 0 {
		return state.KVDelete(accountRolesKey(account))
	}
	return state.KVPut(accountRolesKey(account), uint64(set))
}

// Has reports whether account holds role.
func (r *Registry) Has(account [20]byte, role Role) (bool, error) {
	set, err := r.Roles(account)
	if err != nil {
		return false, err
	}
	return set.Has(role), nil
}

// Grant adds role to account. Granting a held role is a no-op; the returned
// flag reports whether state changed.
func (r *Registry) Grant(account [20]byte, role Role) (bool, error) {
	state, err := r.withState()
	if err != nil {
		return false, err
	}
	if !role.Valid() {
		return false, fmt.Errorf("rbac: invalid role %d", uint8(role))
	}
	set, err := r.Roles(account)
	if err != nil {
		return false, err
	}
	if set.Has(role) {
		return false, nil
	}
	if err := r.storeRoles(state, account, set.With(role)); err != nil {
		return false, fmt.Errorf("rbac: persist roles: %w", err)
	}
	if err := state.KVAppend(roleMembersKey(role), append([]byte(nil), account[:]...)); err != nil {
		return false, fmt.Errorf("rbac: update member index: %w", err)
	}
	return true, nil
}

// Revoke removes role from account. Revoking a role that is not held is a
// no-op; the returned flag reports whether state changed.
func (r *Registry) Revoke(account [20]byte, role Role) (bool, error) {
	state, err := r.withState()
	if err != nil {
		return false, err
	}
	if !role.Valid() {
		return false, fmt.Errorf("rbac: invalid role %d", uint8(role))
	}
	set, err := r.Roles(account)
	if err != nil {
		return false, err
	}
	if !set.Has(role) {
		return false, nil
	}
	if err := r.storeRoles(state, account, set.Without(role)); err != nil {
		return false, fmt.Errorf("rbac: persist roles: %w", err)
	}
	if err := state.KVRemove(roleMembersKey(role), account[:]); err != nil {
		return false, fmt.Errorf("rbac: update member index: %w", err)
	}
	return true, nil
}

// MembersOf lists the holders of role sorted by account bytes.
func (r *Registry) MembersOf(role Role) ([][20]byte, error) {
	state, err := r.withState()
	if err != nil {
		return nil, err
	}
	var raw [][]byte
	if err := state.KVGetList(roleMembersKey(role), &raw); err != nil {
		return nil, fmt.Errorf("rbac: load member index: %w", err)
	}
	sort.Slice(raw, func(i, j int) bool { return bytes.Compare(raw[i], raw[j]) < 0 })
	out := make([][20]byte, 0, len(raw))
	for _, entry := range raw {
		if len(entry) != 20 {
			return nil, fmt.Errorf("rbac: corrupt member entry for %s", role)
		}
		var account [20]byte
		copy(account[:], entry)
		out = append(out, account)
	}
	return out, nil
}

// EnsureCatalog checks that the persisted role catalog is a prefix of
// current and extends it with any appended roles. A reordered or renamed
// role fails with ErrRoleCatalogMismatch because stored bitmaps would decode
// to different roles.
func (r *Registry) EnsureCatalog(current []string) (bool, error) {
	state, err := r.withState()
	if err != nil {
		return false, err
	}
	var stored []string
	if err := state.KVGetList(catalogKey(), &stored); err != nil {
		return false, fmt.Errorf("rbac: load catalog: %w", err)
	}
	if len(stored) > len(current) {
		return false, fmt.Errorf("%w: %d stored roles, %d known", fterrors.ErrRoleCatalogMismatch, len(stored), len(current))
	}
	for i, name := range stored {
		if current[i] != name {
			return false, fmt.Errorf("%w: discriminant %d is %q in state, %q in code", fterrors.ErrRoleCatalogMismatch, i, name, current[i])
		}
	}
	if len(stored) == len(current) {
		return false, nil
	}
	if err := state.KVPut(catalogKey(), current); err != nil {
		return false, fmt.Errorf("rbac: persist catalog: %w", err)
	}
	return true, nil
}
