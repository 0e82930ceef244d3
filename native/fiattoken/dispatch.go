package fiattoken

import (
	"fmt"

	fterrors "fiattoken/core/errors"
	"fiattoken/core/events"
	"fiattoken/native/rbac"
)

// dispatch applies an approved action on behalf of executor.
func (e *Engine) dispatch(executor [20]byte, action Action) error {
	switch action.Kind {
	case ActionApproveForUpgrade:
		return e.approveForUpgrade(executor)
	case ActionConfigureController:
		return e.configureController(action.Controller, action.Minter)
	case ActionRemoveController:
		return e.removeController(action.Controller)
	case ActionConfigureMinterAllowance:
		minter, err := e.minterOf(executor)
		if err != nil {
			return err
		}
		return e.configureMinter(minter, action.Amount)
	case ActionIncreaseMinterAllowance:
		minter, err := e.minterOf(executor)
		if err != nil {
			return err
		}
		return e.increaseMinterAllowance(minter, action.Amount)
	case ActionDecreaseMinterAllowance:
		minter, err := e.minterOf(executor)
		if err != nil {
			return err
		}
		return e.decreaseMinterAllowance(minter, action.Amount)
	case ActionRemoveMinter:
		minter, err := e.minterOf(executor)
		if err != nil {
			return err
		}
		return e.removeMinter(minter)
	case ActionConfigureMultisigRole:
		return e.configureMultisigRole(action.Role, action.Account)
	case ActionRevokeMultisigRole:
		return e.revokeMultisigRole(action.Role, action.Account)
	case ActionPause:
		return e.setPaused(executor, true)
	case ActionUnpause:
		return e.setPaused(executor, false)
	case ActionUpdateBlocklister:
		return e.updateBlocklister(action.Account)
	default:
		return fmt.Errorf("fiattoken: unknown action kind %d", uint8(action.Kind))
	}
}

func (e *Engine) approveForUpgrade(executor [20]byte) error {
	if err := e.requireNotBlocklisted(executor); err != nil {
		return err
	}
	settings, err := e.loadSettings()
	if err != nil {
		return err
	}
	settings.ApprovedForUpgrade = true
	if err := e.storeSettings(settings); err != nil {
		return err
	}
	e.emit(events.ApprovedForUpgrade{})
	return nil
}

func (e *Engine) setPaused(executor [20]byte, paused bool) error {
	settings, err := e.loadSettings()
	if err != nil {
		return err
	}
	if paused && settings.Paused {
		return fterrors.ErrPaused
	}
	if !paused && !settings.Paused {
		return fterrors.ErrNotPaused
	}
	if err := e.requireNotBlocklisted(executor); err != nil {
		return err
	}
	settings.Paused = paused
	if err := e.storeSettings(settings); err != nil {
		return err
	}
	if paused {
		e.emit(events.Paused{})
	} else {
		e.emit(events.Unpaused{})
	}
	return nil
}

func (e *Engine) updateBlocklister(newBlocklister [20]byte) error {
	settings, err := e.loadSettings()
	if err != nil {
		return err
	}
	if len(settings.Blocklister) == 20 {
		var old [20]byte
		copy(old[:], settings.Blocklister)
		if _, err := e.roles.Revoke(old, rbac.RoleBlocklister); err != nil {
			return err
		}
	}
	if _, err := e.roles.Grant(newBlocklister, rbac.RoleBlocklister); err != nil {
		return err
	}
	settings.Blocklister = append([]byte(nil), newBlocklister[:]...)
	if err := e.storeSettings(settings); err != nil {
		return err
	}
	e.emit(events.BlocklisterChanged{NewBlocklister: newBlocklister})
	return nil
}
