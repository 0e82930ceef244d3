package fiattoken

import (
	"fiattoken/core/events"
	"fiattoken/native/rbac"
)

// grantGovernance grants role together with the Multisig marker.
func (e *Engine) grantGovernance(account [20]byte, role rbac.Role) error {
	if _, err := e.roles.Grant(account, rbac.RoleMultisig); err != nil {
		return err
	}
	_, err := e.roles.Grant(account, role)
	return err
}

// revokeGovernance revokes role and drops the Multisig marker once the
// account holds no governance role at all.
func (e *Engine) revokeGovernance(account [20]byte, role rbac.Role) error {
	if _, err := e.roles.Revoke(account, role); err != nil {
		return err
	}
	set, err := e.roles.Roles(account)
	if err != nil {
		return err
	}
	if set.HasGovernance() {
		return nil
	}
	_, err = e.roles.Revoke(account, rbac.RoleMultisig)
	return err
}

// HasRole reports whether account holds role.
func (e *Engine) HasRole(account [20]byte, role rbac.Role) (bool, error) {
	if err := e.ready(); err != nil {
		return false, err
	}
	return e.roles.Has(account, role)
}

// RolesOf returns every role held by account.
func (e *Engine) RolesOf(account [20]byte) ([]rbac.Role, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	set, err := e.roles.Roles(account)
	if err != nil {
		return nil, err
	}
	return set.Roles(), nil
}

// MembersOf lists the holders of role in a stable order.
func (e *Engine) MembersOf(role rbac.Role) ([][20]byte, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	return e.roles.MembersOf(role)
}

func (e *Engine) configureMultisigRole(role rbac.Role, account [20]byte) error {
	if err := e.grantGovernance(account, role); err != nil {
		return err
	}
	e.emit(events.RoleConfigured{Role: role.String(), Account: account})
	return nil
}

func (e *Engine) revokeMultisigRole(role rbac.Role, account [20]byte) error {
	if err := e.revokeGovernance(account, role); err != nil {
		return err
	}
	e.emit(events.RoleRevoked{Role: role.String(), Account: account})
	return nil
}
