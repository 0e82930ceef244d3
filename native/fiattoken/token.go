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

// Mint issues amount to recipient against the caller's minter quota.
func (e *Engine) Mint(caller, to [20]byte, amount *uint256.Int) error {
	if err := e.readyBank(); err != nil {
		return err
	}
	if err := e.requireNotPaused(); err != nil {
		return err
	}
	if err := e.requireRole(caller, rbac.RoleMinter); err != nil {
		return err
	}
	if err := e.requireNotBlocklisted(caller); err != nil {
		return err
	}
	if err := e.requireNotBlocklisted(to); err != nil {
		return err
	}
	if err := nativecommon.RequirePositive(amount); err != nil {
		return err
	}
	supply, err := e.bank.TotalSupply()
	if err != nil {
		return err
	}
	if _, err := nativecommon.CheckedAdd(supply, amount); err != nil {
		return fmt.Errorf("fiattoken: mint to %s: %w", crypto.AccountString(to), err)
	}
	if err := e.consumeMinterAllowance(caller, amount); err != nil {
		return err
	}
	if err := e.bank.Mint(to, amount); err != nil {
		return err
	}
	e.emit(events.TokenMint{Owner: to, Amount: nativecommon.CopyAmount(amount)})
	return nil
}

// Burn destroys amount from the caller's own balance.
func (e *Engine) Burn(caller [20]byte, amount *uint256.Int) error {
	if err := e.readyBank(); err != nil {
		return err
	}
	if err := e.requireNotPaused(); err != nil {
		return err
	}
	if err := e.requireRole(caller, rbac.RoleMinter); err != nil {
		return err
	}
	if err := e.requireNotBlocklisted(caller); err != nil {
		return err
	}
	if err := nativecommon.RequirePositive(amount); err != nil {
		return err
	}
	balance, err := e.bank.BalanceOf(caller)
	if err != nil {
		return err
	}
	if amount.Gt(balance) {
		return fmt.Errorf("%w: burn of %s exceeds balance %s", fterrors.ErrInsufficientBalance, amount.Dec(), balance.Dec())
	}
	if err := e.bank.Burn(caller, amount); err != nil {
		return err
	}
	e.emit(events.TokenBurn{Owner: caller, Amount: nativecommon.CopyAmount(amount)})
	return nil
}

// Transfer moves amount from caller to receiver.
func (e *Engine) Transfer(caller, receiver [20]byte, amount *uint256.Int) error {
	if err := e.readyBank(); err != nil {
		return err
	}
	if err := e.requireNotPaused(); err != nil {
		return err
	}
	if err := e.requireNotBlocklisted(caller); err != nil {
		return err
	}
	if err := e.requireNotBlocklisted(receiver); err != nil {
		return err
	}
	if err := nativecommon.RequirePositive(amount); err != nil {
		return err
	}
	if caller == receiver {
		return fmt.Errorf("%w: sender and receiver must differ", fterrors.ErrInvalidAmount)
	}
	if err := e.bank.Transfer(caller, receiver, amount); err != nil {
		return err
	}
	e.emit(events.TokenTransfer{From: caller, To: receiver, Amount: nativecommon.CopyAmount(amount)})
	return nil
}

func (e *Engine) loadSpendAllowance(holder, spender [20]byte) (*uint256.Int, error) {
	var raw []byte
	ok, err := e.state.KVGet(spendAllowanceKey(holder, spender), &raw)
	if err != nil {
		return nil, fmt.Errorf("fiattoken: load allowance: %w", err)
	}
	if !ok {
		return new(uint256.Int), nil
	}
	return new(uint256.Int).SetBytes(raw), nil
}

func (e *Engine) setSpendAllowance(holder, spender [20]byte, allowance *uint256.Int) error {
	if err := e.requireNotPaused(); err != nil {
		return err
	}
	if err := e.requireNotBlocklisted(holder); err != nil {
		return err
	}
	if err := e.requireNotBlocklisted(spender); err != nil {
		return err
	}
	value := nativecommon.CopyAmount(allowance)
	if value.Gt(nativecommon.MaxU128) {
		return fmt.Errorf("%w: allowance exceeds u128", fterrors.ErrOverflow)
	}
	if err := e.state.KVPut(spendAllowanceKey(holder, spender), value.Bytes()); err != nil {
		return fmt.Errorf("fiattoken: persist allowance: %w", err)
	}
	e.emit(events.Approve{Holder: holder, Spender: spender, Allowance: nativecommon.CopyAmount(value)})
	return nil
}

// Approve sets the amount spender may move out of the caller's balance.
func (e *Engine) Approve(caller, spender [20]byte, value *uint256.Int) error {
	if err := e.ready(); err != nil {
		return err
	}
	return e.setSpendAllowance(caller, spender, value)
}

// IncreaseAllowance raises an existing spender allowance.
func (e *Engine) IncreaseAllowance(caller, spender [20]byte, increment *uint256.Int) error {
	if err := e.ready(); err != nil {
		return err
	}
	if err := nativecommon.RequirePositive(increment); err != nil {
		return err
	}
	current, err := e.existingSpendAllowance(caller, spender)
	if err != nil {
		return err
	}
	next, err := nativecommon.CheckedAdd(current, increment)
	if err != nil {
		return err
	}
	return e.setSpendAllowance(caller, spender, next)
}

// DecreaseAllowance lowers an existing spender allowance.
func (e *Engine) DecreaseAllowance(caller, spender [20]byte, decrement *uint256.Int) error {
	if err := e.ready(); err != nil {
		return err
	}
	if err := nativecommon.RequirePositive(decrement); err != nil {
		return err
	}
	current, err := e.existingSpendAllowance(caller, spender)
	if err != nil {
		return err
	}
	next, err := nativecommon.CheckedSub(current, decrement)
	if err != nil {
		return err
	}
	return e.setSpendAllowance(caller, spender, next)
}

func (e *Engine) existingSpendAllowance(holder, spender [20]byte) (*uint256.Int, error) {
	current, err := e.loadSpendAllowance(holder, spender)
	if err != nil {
		return nil, err
	}
	if current.IsZero() {
		return nil, fmt.Errorf("%w: no allowance from %s to %s to adjust", fterrors.ErrNotFound, crypto.AccountString(holder), crypto.AccountString(spender))
	}
	return current, nil
}

// Allowance returns the amount spender may still move out of holder's
// balance.
func (e *Engine) Allowance(holder, spender [20]byte) (*uint256.Int, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	return e.loadSpendAllowance(holder, spender)
}

// TransferFrom moves value from holder to recipient using the caller's
// allowance over holder.
func (e *Engine) TransferFrom(caller, from, to [20]byte, value *uint256.Int) error {
	if err := e.readyBank(); err != nil {
		return err
	}
	if err := e.requireNotPaused(); err != nil {
		return err
	}
	for _, account := range [][20]byte{caller, from, to} {
		if err := e.requireNotBlocklisted(account); err != nil {
			return err
		}
	}
	if err := nativecommon.RequirePositive(value); err != nil {
		return err
	}
	allowance, err := e.loadSpendAllowance(from, caller)
	if err != nil {
		return err
	}
	if value.Gt(allowance) {
		return fmt.Errorf("%w: transfer of %s exceeds allowance %s", fterrors.ErrExceedsAllowance, value.Dec(), allowance.Dec())
	}
	remaining, err := nativecommon.CheckedSub(allowance, value)
	if err != nil {
		return err
	}
	balance, err := e.bank.BalanceOf(from)
	if err != nil {
		return err
	}
	if value.Gt(balance) {
		return fmt.Errorf("%w: transfer of %s exceeds balance %s", fterrors.ErrInsufficientBalance, value.Dec(), balance.Dec())
	}
	if err := e.bank.Transfer(from, to, value); err != nil {
		return err
	}
	e.emit(events.TokenTransfer{From: from, To: to, Amount: nativecommon.CopyAmount(value)})
	return e.setSpendAllowance(from, caller, remaining)
}

// Blocklist marks account as blocklisted. Only the blocklister may call it.
func (e *Engine) Blocklist(caller, account [20]byte) error {
	if err := e.ready(); err != nil {
		return err
	}
	if err := e.requireRole(caller, rbac.RoleBlocklister); err != nil {
		return err
	}
	if _, err := e.roles.Grant(account, rbac.RoleBlocklisted); err != nil {
		return err
	}
	e.emit(events.Blocklist{Account: account})
	return nil
}

// Unblocklist clears the blocklist flag from account.
func (e *Engine) Unblocklist(caller, account [20]byte) error {
	if err := e.ready(); err != nil {
		return err
	}
	if err := e.requireRole(caller, rbac.RoleBlocklister); err != nil {
		return err
	}
	if _, err := e.roles.Revoke(account, rbac.RoleBlocklisted); err != nil {
		return err
	}
	e.emit(events.Unblocklist{Account: account})
	return nil
}

// IsBlocklisted reports whether account is blocklisted.
func (e *Engine) IsBlocklisted(account [20]byte) (bool, error) {
	return e.HasRole(account, rbac.RoleBlocklisted)
}

// Blocklister returns the account currently allowed to manage the blocklist.
func (e *Engine) Blocklister() ([20]byte, error) {
	if err := e.ready(); err != nil {
		return [20]byte{}, err
	}
	settings, err := e.loadSettings()
	if err != nil {
		return [20]byte{}, err
	}
	var out [20]byte
	copy(out[:], settings.Blocklister)
	return out, nil
}

// BalanceOf returns the token balance of account. Balances are not readable
// while the token is paused.
func (e *Engine) BalanceOf(account [20]byte) (*uint256.Int, error) {
	if err := e.readyBank(); err != nil {
		return nil, err
	}
	if err := e.requireNotPaused(); err != nil {
		return nil, err
	}
	return e.bank.BalanceOf(account)
}

// TotalSupply returns the amount of tokens in circulation. Like BalanceOf it
// fails while paused.
func (e *Engine) TotalSupply() (*uint256.Int, error) {
	if err := e.readyBank(); err != nil {
		return nil, err
	}
	if err := e.requireNotPaused(); err != nil {
		return nil, err
	}
	return e.bank.TotalSupply()
}

// ApprovedForUpgrade reports whether an upgrade has been approved and not
// yet consumed.
func (e *Engine) ApprovedForUpgrade() (bool, error) {
	if err := e.ready(); err != nil {
		return false, err
	}
	settings, err := e.loadSettings()
	if err != nil {
		return false, err
	}
	return settings.ApprovedForUpgrade, nil
}

// AuthorizeUpgrade consumes a pending upgrade approval. The caller must be an
// admin that is not blocklisted.
func (e *Engine) AuthorizeUpgrade(caller [20]byte) error {
	if err := e.ready(); err != nil {
		return err
	}
	if err := e.requireRole(caller, rbac.RoleAdmin); err != nil {
		return err
	}
	if err := e.requireNotBlocklisted(caller); err != nil {
		return err
	}
	settings, err := e.loadSettings()
	if err != nil {
		return err
	}
	if !settings.ApprovedForUpgrade {
		return fterrors.ErrNotApprovedForUpgrade
	}
	settings.ApprovedForUpgrade = false
	return e.storeSettings(settings)
}

// IsMultisigMember reports whether account carries the Multisig marker.
func (e *Engine) IsMultisigMember(account [20]byte) (bool, error) {
	return e.HasRole(account, rbac.RoleMultisig)
}
