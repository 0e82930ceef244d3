package bank

import (
	"fmt"

	"github.com/holiman/uint256"

	fterrors "fiattoken/core/errors"
	nativecommon "fiattoken/native/common"
)

const bankPrefix = "bank"

func balanceKey(account [20]byte) []byte {
	return []byte(fmt.Sprintf("%s/balance/%x", bankPrefix, account[:]))
}

func supplyKey() []byte {
	return []byte(bankPrefix + "/supply")
}

// State is the key-value surface the ledger persists through.
type State interface {
	KVGet(key []byte, out interface{}) (bool, error)
	KVPut(key []byte, value interface{}) error
	KVDelete(key []byte) error
}

// Ledger tracks fungible balances and the total supply. It performs no
// authorisation; callers gate every mutation.
type Ledger struct {
	state State
}

// NewLedger constructs a ledger over state.
func NewLedger(state State) *Ledger {
	return &Ledger{state: state}
}

func (l *Ledger) withState() (State, error) {
	if l == nil || l.state == nil {
		return nil, fmt.Errorf("bank: ledger not initialised")
	}
	return l.state, nil
}

func (l *Ledger) load(key []byte) (*uint256.Int, error) {
	state, err := l.withState()
	if err != nil {
		return nil, err
	}
	var raw []byte
	ok, err := state.KVGet(key, &raw)
	if err != nil {
		return nil, err
	}
	if !ok {
		return new(uint256.Int), nil
	}
	return new(uint256.Int).SetBytes(raw), nil
}

func (l *Ledger) store(key []byte, value *uint256.Int) error {
	state, err := l.withState()
	if err != nil {
		return err
	}
	if value.IsZero() {
		return state.KVDelete(key)
	}
	return state.KVPut(key, value.Bytes())
}

// BalanceOf returns the balance held by account.
func (l *Ledger) BalanceOf(account [20]byte) (*uint256.Int, error) {
	bal, err := l.load(balanceKey(account))
	if err != nil {
		return nil, fmt.Errorf("bank: load balance: %w", err)
	}
	return bal, nil
}

// TotalSupply returns the amount of tokens in circulation.
func (l *Ledger) TotalSupply() (*uint256.Int, error) {
	supply, err := l.load(supplyKey())
	if err != nil {
		return nil, fmt.Errorf("bank: load supply: %w", err)
	}
	return supply, nil
}

// Credit adds amount to the account balance.
func (l *Ledger) Credit(account [20]byte, amount *uint256.Int) error {
	bal, err := l.BalanceOf(account)
	if err != nil {
		return err
	}
	next, err := nativecommon.CheckedAdd(bal, amount)
	if err != nil {
		return fmt.Errorf("bank: credit: %w", err)
	}
	return l.store(balanceKey(account), next)
}

// Debit removes amount from the account balance.
func (l *Ledger) Debit(account [20]byte, amount *uint256.Int) error {
	bal, err := l.BalanceOf(account)
	if err != nil {
		return err
	}
	if nativecommon.CopyAmount(amount).Gt(bal) {
		return fmt.Errorf("%w: balance %s, requested %s", fterrors.ErrInsufficientBalance, bal.Dec(), nativecommon.CopyAmount(amount).Dec())
	}
	next, err := nativecommon.CheckedSub(bal, amount)
	if err != nil {
		return err
	}
	return l.store(balanceKey(account), next)
}

// Mint credits account and grows the supply.
func (l *Ledger) Mint(account [20]byte, amount *uint256.Int) error {
	supply, err := l.TotalSupply()
	if err != nil {
		return err
	}
	nextSupply, err := nativecommon.CheckedAdd(supply, amount)
	if err != nil {
		return fmt.Errorf("bank: mint: %w", err)
	}
	if err := l.Credit(account, amount); err != nil {
		return err
	}
	return l.store(supplyKey(), nextSupply)
}

// Burn debits account and shrinks the supply.
func (l *Ledger) Burn(account [20]byte, amount *uint256.Int) error {
	if err := l.Debit(account, amount); err != nil {
		return err
	}
	supply, err := l.TotalSupply()
	if err != nil {
		return err
	}
	nextSupply, err := nativecommon.CheckedSub(supply, amount)
	if err != nil {
		return fmt.Errorf("bank: burn: %w", err)
	}
	return l.store(supplyKey(), nextSupply)
}

// Transfer moves amount between accounts without touching the supply.
func (l *Ledger) Transfer(from, to [20]byte, amount *uint256.Int) error {
	if err := l.Debit(from, amount); err != nil {
		return err
	}
	return l.Credit(to, amount)
}
