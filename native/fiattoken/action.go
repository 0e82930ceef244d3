package fiattoken

import (
	"fmt"

	"github.com/holiman/uint256"

	fterrors "fiattoken/core/errors"
	"fiattoken/crypto"
	"fiattoken/native/rbac"
)

// ActionKind tags the privileged operations a multisig request may carry.
// The numeric values are persisted with every stored request.
type ActionKind uint8

const (
	ActionApproveForUpgrade ActionKind = iota
	ActionConfigureController
	ActionConfigureMinterAllowance
	ActionConfigureMultisigRole
	ActionDecreaseMinterAllowance
	ActionIncreaseMinterAllowance
	ActionPause
	ActionRemoveController
	ActionRemoveMinter
	ActionRevokeMultisigRole
	ActionUpdateBlocklister
	ActionUnpause
)

var actionNames = [...]string{
	ActionApproveForUpgrade:        "ApproveForUpgrade",
	ActionConfigureController:      "ConfigureController",
	ActionConfigureMinterAllowance: "ConfigureMinterAllowance",
	ActionConfigureMultisigRole:    "ConfigureMultisigRole",
	ActionDecreaseMinterAllowance:  "DecreaseMinterAllowance",
	ActionIncreaseMinterAllowance:  "IncreaseMinterAllowance",
	ActionPause:                    "Pause",
	ActionRemoveController:         "RemoveController",
	ActionRemoveMinter:             "RemoveMinter",
	ActionRevokeMultisigRole:       "RevokeMultisigRole",
	ActionUpdateBlocklister:        "UpdateBlocklister",
	ActionUnpause:                  "Unpause",
}

func (k ActionKind) String() string {
	if int(k) < len(actionNames) {
		return actionNames[k]
	}
	return fmt.Sprintf("ActionKind(%d)", uint8(k))
}

// Valid reports whether k is a known action.
func (k ActionKind) Valid() bool {
	return int(k) < len(actionNames)
}

func parseActionKind(name string) (ActionKind, error) {
	for i, candidate := range actionNames {
		if candidate == name {
			return ActionKind(i), nil
		}
	}
	return 0, fmt.Errorf("fiattoken: unknown action %q", name)
}

// Action is the immutable payload of a multisig request. Only the fields
// relevant to Kind are meaningful; use the constructors below.
type Action struct {
	Kind ActionKind
	// Controller names the controller for controller-scoped actions and
	// ConfigureController/RemoveController.
	Controller [20]byte
	// Minter is the minter bound by ConfigureController.
	Minter [20]byte
	// Account is the subject of role actions and UpdateBlocklister.
	Account [20]byte
	// Role is granted or revoked by the multisig role actions.
	Role rbac.Role
	// Amount is the absolute allowance or the delta of allowance actions.
	Amount *uint256.Int
}

func ApproveForUpgradeAction() Action { return Action{Kind: ActionApproveForUpgrade} }

func ConfigureControllerAction(controller, minter [20]byte) Action {
	return Action{Kind: ActionConfigureController, Controller: controller, Minter: minter}
}

func RemoveControllerAction(controller [20]byte) Action {
	return Action{Kind: ActionRemoveController, Controller: controller}
}

func ConfigureMinterAllowanceAction(controller [20]byte, allowance *uint256.Int) Action {
	return Action{Kind: ActionConfigureMinterAllowance, Controller: controller, Amount: allowance}
}

func IncreaseMinterAllowanceAction(controller [20]byte, increment *uint256.Int) Action {
	return Action{Kind: ActionIncreaseMinterAllowance, Controller: controller, Amount: increment}
}

func DecreaseMinterAllowanceAction(controller [20]byte, decrement *uint256.Int) Action {
	return Action{Kind: ActionDecreaseMinterAllowance, Controller: controller, Amount: decrement}
}

func RemoveMinterAction(controller [20]byte) Action {
	return Action{Kind: ActionRemoveMinter, Controller: controller}
}

func ConfigureMultisigRoleAction(role rbac.Role, account [20]byte) Action {
	return Action{Kind: ActionConfigureMultisigRole, Role: role, Account: account}
}

func RevokeMultisigRoleAction(role rbac.Role, account [20]byte) Action {
	return Action{Kind: ActionRevokeMultisigRole, Role: role, Account: account}
}

func PauseAction() Action   { return Action{Kind: ActionPause} }
func UnpauseAction() Action { return Action{Kind: ActionUnpause} }

func UpdateBlocklisterAction(newBlocklister [20]byte) Action {
	return Action{Kind: ActionUpdateBlocklister, Account: newBlocklister}
}

// RoleRequired returns the role a caller must hold to create, approve,
// execute or remove a request carrying the action. Role actions naming a role
// outside Admin, MasterMinter, Owner and Pauser fail with ErrInvalidRoleGrant.
func (a Action) RoleRequired() (rbac.Role, error) {
	switch a.Kind {
	case ActionApproveForUpgrade:
		return rbac.RoleAdmin, nil
	case ActionConfigureController, ActionRemoveController:
		return rbac.RoleMasterMinter, nil
	case ActionConfigureMinterAllowance, ActionIncreaseMinterAllowance,
		ActionDecreaseMinterAllowance, ActionRemoveMinter:
		return rbac.RoleController, nil
	case ActionPause, ActionUnpause:
		return rbac.RolePauser, nil
	case ActionUpdateBlocklister:
		return rbac.RoleOwner, nil
	case ActionConfigureMultisigRole, ActionRevokeMultisigRole:
		switch a.Role {
		case rbac.RoleAdmin:
			return rbac.RoleAdmin, nil
		case rbac.RoleMasterMinter, rbac.RoleOwner, rbac.RolePauser:
			return rbac.RoleOwner, nil
		default:
			return 0, fmt.Errorf("%w: %s cannot be managed through multisig", fterrors.ErrInvalidRoleGrant, a.Role)
		}
	default:
		return 0, fmt.Errorf("fiattoken: unknown action kind %d", uint8(a.Kind))
	}
}

// ControllerScoped reports whether the action adjusts a controller's minter
// and therefore requires the caller to control the same minter.
func (a Action) ControllerScoped() bool {
	switch a.Kind {
	case ActionConfigureMinterAllowance, ActionIncreaseMinterAllowance,
		ActionDecreaseMinterAllowance, ActionRemoveMinter:
		return true
	default:
		return false
	}
}

// Validate checks the static shape of the action before it is stored.
func (a Action) Validate() error {
	if !a.Kind.Valid() {
		return fmt.Errorf("fiattoken: unknown action kind %d", uint8(a.Kind))
	}
	if _, err := a.RoleRequired(); err != nil {
		return err
	}
	switch a.Kind {
	case ActionConfigureMinterAllowance:
		if a.Amount == nil {
			return fmt.Errorf("%w: minter allowance required", fterrors.ErrInvalidAmount)
		}
		if a.Amount.Gt(maxAmount()) {
			return fmt.Errorf("%w: allowance exceeds u128", fterrors.ErrOverflow)
		}
	case ActionIncreaseMinterAllowance, ActionDecreaseMinterAllowance:
		if a.Amount == nil || a.Amount.IsZero() {
			return fmt.Errorf("%w: %s delta must be greater than zero", fterrors.ErrInvalidAmount, a.Kind)
		}
		if a.Amount.Gt(maxAmount()) {
			return fmt.Errorf("%w: delta exceeds u128", fterrors.ErrOverflow)
		}
	}
	return nil
}

// String renders a compact human-readable description used in events and
// logs.
func (a Action) String() string {
	switch a.Kind {
	case ActionConfigureController:
		return fmt.Sprintf("%s(controller=%s, minter=%s)", a.Kind, crypto.AccountString(a.Controller), crypto.AccountString(a.Minter))
	case ActionRemoveController, ActionRemoveMinter:
		return fmt.Sprintf("%s(controller=%s)", a.Kind, crypto.AccountString(a.Controller))
	case ActionConfigureMinterAllowance, ActionIncreaseMinterAllowance, ActionDecreaseMinterAllowance:
		return fmt.Sprintf("%s(controller=%s, amount=%s)", a.Kind, crypto.AccountString(a.Controller), amountString(a.Amount))
	case ActionConfigureMultisigRole, ActionRevokeMultisigRole:
		return fmt.Sprintf("%s(role=%s, account=%s)", a.Kind, a.Role, crypto.AccountString(a.Account))
	case ActionUpdateBlocklister:
		return fmt.Sprintf("%s(account=%s)", a.Kind, crypto.AccountString(a.Account))
	default:
		return a.Kind.String()
	}
}

func amountString(v *uint256.Int) string {
	if v == nil {
		return "0"
	}
	return v.Dec()
}
