package fiattoken

import (
	"testing"

	"github.com/stretchr/testify/require"

	fterrors "fiattoken/core/errors"
	"fiattoken/core/events"
	nativecommon "fiattoken/native/common"
)

func newFundedFixture(t *testing.T) *fixture {
	t.Helper()
	f := newFixture(t)
	f.bindControllers(t)
	f.pass(t, ConfigureMinterAllowanceAction(controller1, amount(1000)), controller1, controller1, controller2)
	require.NoError(t, f.engine.Mint(minter1, alice, amount(100)))
	f.recorder.Reset()
	return f
}

func TestMintChecks(t *testing.T) {
	f := newFundedFixture(t)

	require.ErrorIs(t, f.engine.Mint(alice, bob, amount(1)), fterrors.ErrUnauthorized)
	require.ErrorIs(t, f.engine.Mint(minter1, bob, amount(0)), fterrors.ErrInvalidAmount)

	require.NoError(t, f.engine.Blocklist(blocklister, bob))
	require.ErrorIs(t, f.engine.Mint(minter1, bob, amount(1)), fterrors.ErrBlocklisted)

	supply, err := f.engine.TotalSupply()
	requireAmount(t, 100, supply, err)
	allowance, err := f.engine.MinterAllowance(minter1)
	requireAmount(t, 900, allowance, err)
}

func TestMintSupplyOverflowKeepsQuota(t *testing.T) {
	f := newFundedFixture(t)
	f.pass(t, ConfigureMinterAllowanceAction(controller1, nativecommon.MaxU128), controller1, controller1, controller2)

	rest, err := nativecommon.CheckedSub(nativecommon.MaxU128, amount(100))
	require.NoError(t, err)
	require.NoError(t, f.engine.Mint(minter1, bob, rest))
	allowance, err := f.engine.MinterAllowance(minter1)
	requireAmount(t, 100, allowance, err)
	f.recorder.Reset()

	err = f.engine.Mint(minter1, bob, amount(1))
	require.ErrorIs(t, err, fterrors.ErrOverflow)
	allowance, err = f.engine.MinterAllowance(minter1)
	requireAmount(t, 100, allowance, err)
	require.Empty(t, f.recorder.Events())

	supply, err := f.engine.TotalSupply()
	require.NoError(t, err)
	require.True(t, supply.Eq(nativecommon.MaxU128))
}

func TestBalancesHiddenWhilePaused(t *testing.T) {
	f := newFundedFixture(t)
	f.pass(t, PauseAction(), pauser1, pauser1, pauser2)

	_, err := f.engine.BalanceOf(alice)
	require.ErrorIs(t, err, fterrors.ErrPaused)
	_, err = f.engine.TotalSupply()
	require.ErrorIs(t, err, fterrors.ErrPaused)

	f.pass(t, UnpauseAction(), pauser1, pauser1, pauser2)
	balance, err := f.engine.BalanceOf(alice)
	requireAmount(t, 100, balance, err)
	supply, err := f.engine.TotalSupply()
	requireAmount(t, 100, supply, err)
}

func TestBurn(t *testing.T) {
	f := newFundedFixture(t)
	require.NoError(t, f.engine.Mint(minter1, minter1, amount(40)))

	require.ErrorIs(t, f.engine.Burn(minter1, amount(41)), fterrors.ErrInsufficientBalance)
	require.NoError(t, f.engine.Burn(minter1, amount(15)))
	require.ErrorIs(t, f.engine.Burn(alice, amount(1)), fterrors.ErrUnauthorized)

	balance, err := f.engine.BalanceOf(minter1)
	requireAmount(t, 25, balance, err)
	supply, err := f.engine.TotalSupply()
	requireAmount(t, 125, supply, err)

	// burning does not restore the quota
	allowance, err := f.engine.MinterAllowance(minter1)
	requireAmount(t, 860, allowance, err)
}

func TestTransfer(t *testing.T) {
	f := newFundedFixture(t)

	require.NoError(t, f.engine.Transfer(alice, bob, amount(30)))
	balance, err := f.engine.BalanceOf(bob)
	requireAmount(t, 30, balance, err)
	require.Equal(t, []string{events.TypeTokenTransfer}, f.recorder.Types())

	require.ErrorIs(t, f.engine.Transfer(alice, bob, amount(71)), fterrors.ErrInsufficientBalance)
	require.ErrorIs(t, f.engine.Transfer(alice, alice, amount(1)), fterrors.ErrInvalidAmount)

	require.NoError(t, f.engine.Blocklist(blocklister, bob))
	require.ErrorIs(t, f.engine.Transfer(alice, bob, amount(1)), fterrors.ErrBlocklisted)
	require.ErrorIs(t, f.engine.Transfer(bob, alice, amount(1)), fterrors.ErrBlocklisted)

	require.NoError(t, f.engine.Unblocklist(blocklister, bob))
	require.NoError(t, f.engine.Transfer(bob, alice, amount(1)))
}

func TestSpendAllowance(t *testing.T) {
	f := newFundedFixture(t)

	require.ErrorIs(t, f.engine.IncreaseAllowance(alice, bob, amount(5)), fterrors.ErrNotFound)
	require.NoError(t, f.engine.Approve(alice, bob, amount(50)))
	require.NoError(t, f.engine.IncreaseAllowance(alice, bob, amount(10)))
	require.NoError(t, f.engine.DecreaseAllowance(alice, bob, amount(20)))
	require.ErrorIs(t, f.engine.DecreaseAllowance(alice, bob, amount(41)), fterrors.ErrUnderflow)

	allowance, err := f.engine.Allowance(alice, bob)
	requireAmount(t, 40, allowance, err)

	require.ErrorIs(t, f.engine.TransferFrom(bob, alice, carol, amount(41)), fterrors.ErrExceedsAllowance)
	require.NoError(t, f.engine.TransferFrom(bob, alice, carol, amount(25)))

	allowance, err = f.engine.Allowance(alice, bob)
	requireAmount(t, 15, allowance, err)
	balance, err := f.engine.BalanceOf(carol)
	requireAmount(t, 25, balance, err)
	balance, err = f.engine.BalanceOf(alice)
	requireAmount(t, 75, balance, err)

	require.NoError(t, f.engine.Blocklist(blocklister, carol))
	require.ErrorIs(t, f.engine.TransferFrom(bob, alice, carol, amount(1)), fterrors.ErrBlocklisted)
}

func TestBlocklistRequiresBlocklister(t *testing.T) {
	f := newFixture(t)

	require.ErrorIs(t, f.engine.Blocklist(owner1, alice), fterrors.ErrUnauthorized)
	require.ErrorIs(t, f.engine.Unblocklist(admin1, alice), fterrors.ErrUnauthorized)

	require.NoError(t, f.engine.Blocklist(blocklister, alice))
	require.Equal(t, []string{events.TypeBlocklist}, f.recorder.Types())
	blocked, err := f.engine.IsBlocklisted(alice)
	require.NoError(t, err)
	require.True(t, blocked)
}

func TestBlocklistedMinterCannotBeConfigured(t *testing.T) {
	f := newFixture(t)
	f.bindControllers(t)
	require.NoError(t, f.engine.Blocklist(blocklister, minter1))

	id, err := f.engine.CreateRequest(controller1, ConfigureMinterAllowanceAction(controller1, amount(10)))
	require.NoError(t, err)
	require.NoError(t, f.engine.ApproveRequest(controller1, id))
	require.NoError(t, f.engine.ApproveRequest(controller2, id))
	require.ErrorIs(t, f.engine.ExecuteRequest(controller1, id), fterrors.ErrBlocklisted)
}
