package fiattoken

import (
	"fmt"

	"github.com/holiman/uint256"

	fterrors "fiattoken/core/errors"
	"fiattoken/core/events"
	"fiattoken/crypto"
	nativecommon "fiattoken/native/common"
	"fiattoken/native/rbac"
)

func (e *Engine) controllerMinter(controller [20]byte) ([20]byte, bool, error) {
	var raw []byte
	ok, err := e.state.KVGet(controllerKey(controller), &raw)
	if err != nil {
		return [20]byte{}, false, fmt.Errorf("fiattoken: load controller: %w", err)
	}
	if !ok {
		return [20]byte{}, false, nil
	}
	if len(raw) != 20 {
		return [20]byte{}, false, fmt.Errorf("fiattoken: corrupt controller entry for %s", crypto.AccountString(controller))
	}
	var minter [20]byte
	copy(minter[:], raw)
	return minter, true, nil
}

// ControllerMinter returns the minter bound to controller.
func (e *Engine) ControllerMinter(controller [20]byte) ([20]byte, bool, error) {
	if err := e.ready(); err != nil {
		return [20]byte{}, false, err
	}
	return e.controllerMinter(controller)
}

// checkController enforces that the caller controls the same minter as the
// controller named by a controller-scoped action. Mappings are resolved at
// call time so a reassigned controller loses authority over requests it
// previously approved.
func (e *Engine) checkController(action Action, caller [20]byte) error {
	target, ok, err := e.controllerMinter(action.Controller)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: controller %s does not control a minter", fterrors.ErrNotFound, crypto.AccountString(action.Controller))
	}
	callerMinter, ok, err := e.controllerMinter(caller)
	if err != nil {
		return err
	}
	if !ok || callerMinter != target {
		return fmt.Errorf("%w: %s does not control minter %s", fterrors.ErrWrongController, crypto.AccountString(caller), crypto.AccountString(target))
	}
	return nil
}

// minterOf resolves the minter an executing controller acts on. The
// controller must hold the Controller role, must not be blocklisted and must
// be bound to a minter.
func (e *Engine) minterOf(controller [20]byte) ([20]byte, error) {
	if err := e.requireRole(controller, rbac.RoleController); err != nil {
		return [20]byte{}, err
	}
	if err := e.requireNotBlocklisted(controller); err != nil {
		return [20]byte{}, err
	}
	minter, ok, err := e.controllerMinter(controller)
	if err != nil {
		return [20]byte{}, err
	}
	if !ok {
		return [20]byte{}, fmt.Errorf("%w: %s does not control a minter", fterrors.ErrNotFound, crypto.AccountString(controller))
	}
	return minter, nil
}

func (e *Engine) loadMinterAllowance(minter [20]byte) (*uint256.Int, bool, error) {
	var raw []byte
	ok, err := e.state.KVGet(minterAllowanceKey(minter), &raw)
	if err != nil {
		return nil, false, fmt.Errorf("fiattoken: load minter allowance: %w", err)
	}
	if !ok {
		return new(uint256.Int), false, nil
	}
	return new(uint256.Int).SetBytes(raw), true, nil
}

func (e *Engine) storeMinterAllowance(minter [20]byte, allowance *uint256.Int) error {
	if err := e.state.KVPut(minterAllowanceKey(minter), allowance.Bytes()); err != nil {
		return fmt.Errorf("fiattoken: persist minter allowance: %w", err)
	}
	return nil
}

// MinterAllowance returns the remaining mint quota of minter. Minters without
// a quota report zero.
func (e *Engine) MinterAllowance(minter [20]byte) (*uint256.Int, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	allowance, _, err := e.loadMinterAllowance(minter)
	return allowance, err
}

// IsMinter reports whether minter holds the Minter role.
func (e *Engine) IsMinter(minter [20]byte) (bool, error) {
	if err := e.ready(); err != nil {
		return false, err
	}
	return e.roles.Has(minter, rbac.RoleMinter)
}

// configureMinter sets the absolute quota and keeps the Minter role in
// lockstep with it. Every allowance mutation funnels through here so exactly
// one MinterConfigured event carries the resulting value.
func (e *Engine) configureMinter(minter [20]byte, allowance *uint256.Int) error {
	if err := e.requireNotBlocklisted(minter); err != nil {
		return err
	}
	value := nativecommon.CopyAmount(allowance)
	if value.Gt(nativecommon.MaxU128) {
		return fmt.Errorf("%w: allowance exceeds u128", fterrors.ErrOverflow)
	}
	if _, err := e.roles.Grant(minter, rbac.RoleMinter); err != nil {
		return err
	}
	if err := e.storeMinterAllowance(minter, value); err != nil {
		return err
	}
	e.emit(events.MinterConfigured{Minter: minter, Allowance: nativecommon.CopyAmount(value)})
	return nil
}

func (e *Engine) increaseMinterAllowance(minter [20]byte, increment *uint256.Int) error {
	if err := e.requireNotBlocklisted(minter); err != nil {
		return err
	}
	if err := nativecommon.RequirePositive(increment); err != nil {
		return err
	}
	current, _, err := e.loadMinterAllowance(minter)
	if err != nil {
		return err
	}
	next, err := nativecommon.CheckedAdd(current, increment)
	if err != nil {
		return fmt.Errorf("minter allowance of %s: %w", crypto.AccountString(minter), err)
	}
	return e.configureMinter(minter, next)
}

func (e *Engine) decreaseMinterAllowance(minter [20]byte, decrement *uint256.Int) error {
	if err := e.requireNotBlocklisted(minter); err != nil {
		return err
	}
	if err := nativecommon.RequirePositive(decrement); err != nil {
		return err
	}
	current, _, err := e.loadMinterAllowance(minter)
	if err != nil {
		return err
	}
	next, err := nativecommon.CheckedSub(current, decrement)
	if err != nil {
		return fmt.Errorf("minter allowance of %s: %w", crypto.AccountString(minter), err)
	}
	return e.configureMinter(minter, next)
}

func (e *Engine) removeMinter(minter [20]byte) error {
	if _, err := e.roles.Revoke(minter, rbac.RoleMinter); err != nil {
		return err
	}
	if err := e.state.KVDelete(minterAllowanceKey(minter)); err != nil {
		return fmt.Errorf("fiattoken: delete minter allowance: %w", err)
	}
	e.emit(events.MinterRemoved{Minter: minter})
	return nil
}

// consumeMinterAllowance deducts amount from the minter quota. The quota is
// never restored automatically.
func (e *Engine) consumeMinterAllowance(minter [20]byte, amount *uint256.Int) error {
	current, _, err := e.loadMinterAllowance(minter)
	if err != nil {
		return err
	}
	if nativecommon.CopyAmount(amount).Gt(current) {
		return fmt.Errorf("%w: mint of %s exceeds minter allowance %s", fterrors.ErrExceedsAllowance, nativecommon.CopyAmount(amount).Dec(), current.Dec())
	}
	next, err := nativecommon.CheckedSub(current, amount)
	if err != nil {
		return err
	}
	return e.storeMinterAllowance(minter, next)
}

func (e *Engine) configureController(controller, minter [20]byte) error {
	if err := e.requireNotBlocklisted(controller); err != nil {
		return err
	}
	if err := e.requireNotBlocklisted(minter); err != nil {
		return err
	}
	if err := e.grantGovernance(controller, rbac.RoleController); err != nil {
		return err
	}
	if err := e.state.KVPut(controllerKey(controller), append([]byte(nil), minter[:]...)); err != nil {
		return fmt.Errorf("fiattoken: persist controller: %w", err)
	}
	e.emit(events.ControllerConfigured{Controller: controller, Minter: minter})
	return nil
}

func (e *Engine) removeController(controller [20]byte) error {
	_, ok, err := e.controllerMinter(controller)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: controller %s does not exist", fterrors.ErrNotFound, crypto.AccountString(controller))
	}
	if err := e.revokeGovernance(controller, rbac.RoleController); err != nil {
		return err
	}
	if err := e.state.KVDelete(controllerKey(controller)); err != nil {
		return fmt.Errorf("fiattoken: delete controller: %w", err)
	}
	e.emit(events.ControllerRemoved{Controller: controller})
	return nil
}
