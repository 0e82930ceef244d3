package bank

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	fterrors "fiattoken/core/errors"
	"fiattoken/core/state"
	nativecommon "fiattoken/native/common"
	"fiattoken/storage"
	"fiattoken/storage/trie"
)

func newTestLedger(t *testing.T) *Ledger {
	t.Helper()
	db := storage.NewMemDB()
	t.Cleanup(db.Close)
	tr, err := trie.NewTrie(db, nil)
	require.NoError(t, err)
	return NewLedger(state.NewManager(tr))
}

func acct(b byte) [20]byte {
	var out [20]byte
	out[0] = b
	return out
}

func TestMintBurnTracksSupply(t *testing.T) {
	l := newTestLedger(t)
	require.NoError(t, l.Mint(acct(1), uint256.NewInt(100)))
	require.NoError(t, l.Mint(acct(2), uint256.NewInt(50)))

	supply, err := l.TotalSupply()
	require.NoError(t, err)
	require.Equal(t, uint64(150), supply.Uint64())

	require.NoError(t, l.Burn(acct(1), uint256.NewInt(40)))
	bal, err := l.BalanceOf(acct(1))
	require.NoError(t, err)
	require.Equal(t, uint64(60), bal.Uint64())
	supply, err = l.TotalSupply()
	require.NoError(t, err)
	require.Equal(t, uint64(110), supply.Uint64())
}

func TestBurnMoreThanBalance(t *testing.T) {
	l := newTestLedger(t)
	require.NoError(t, l.Mint(acct(1), uint256.NewInt(5)))
	err := l.Burn(acct(1), uint256.NewInt(6))
	require.ErrorIs(t, err, fterrors.ErrInsufficientBalance)
}

func TestTransferKeepsSupply(t *testing.T) {
	l := newTestLedger(t)
	require.NoError(t, l.Mint(acct(1), uint256.NewInt(10)))
	require.NoError(t, l.Transfer(acct(1), acct(2), uint256.NewInt(10)))

	from, err := l.BalanceOf(acct(1))
	require.NoError(t, err)
	require.True(t, from.IsZero())
	to, err := l.BalanceOf(acct(2))
	require.NoError(t, err)
	require.Equal(t, uint64(10), to.Uint64())
	supply, err := l.TotalSupply()
	require.NoError(t, err)
	require.Equal(t, uint64(10), supply.Uint64())
}

func TestMintOverflow(t *testing.T) {
	l := newTestLedger(t)
	require.NoError(t, l.Mint(acct(1), nativecommon.MaxU128))
	err := l.Mint(acct(2), uint256.NewInt(1))
	require.ErrorIs(t, err, fterrors.ErrOverflow)
}
