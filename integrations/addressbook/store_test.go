package addressbook

import (
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"fiattoken/crypto"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "book.db"), nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func account(b byte) [20]byte {
	var out [20]byte
	out[19] = b
	return out
}

func TestAliasNormalisation(t *testing.T) {
	store := openStore(t)
	now := time.Unix(1700, 0).UTC()

	alias, err := store.SetAlias("  Treasury ", account(1), now)
	require.NoError(t, err)
	require.Equal(t, "treasury", alias.Name)

	// Fullwidth letters fold to ASCII under NFKC.
	resolved, err := store.Resolve("ＴＲＥＡＳＵＲＹ")
	require.NoError(t, err)
	require.Equal(t, account(1), resolved)

	_, err = store.SetAlias("treasury", account(2), now)
	require.ErrorIs(t, err, ErrAliasConflict)

	again, err := store.SetAlias("TREASURY", account(1), now.Add(time.Hour))
	require.NoError(t, err)
	require.Equal(t, now, again.CreatedAt)
}

func TestResolvePassesAccountsThrough(t *testing.T) {
	store := openStore(t)
	rendered := crypto.AccountString(account(9))
	resolved, err := store.Resolve(rendered)
	require.NoError(t, err)
	require.Equal(t, account(9), resolved)

	_, err = store.Resolve("unknown")
	require.ErrorIs(t, err, ErrNotFound)

	_, err = store.SetAlias(rendered, account(9), time.Now())
	require.ErrorIs(t, err, ErrInvalidAlias)
	_, err = store.SetAlias("two words", account(9), time.Now())
	require.ErrorIs(t, err, ErrInvalidAlias)
}

func TestAliasesSortedAndRemovable(t *testing.T) {
	store := openStore(t)
	now := time.Now()
	for i, name := range []string{"ops", "cold", "hot"} {
		_, err := store.SetAlias(name, account(byte(i+1)), now)
		require.NoError(t, err)
	}
	aliases, err := store.Aliases()
	require.NoError(t, err)
	require.Len(t, aliases, 3)
	require.Equal(t, "cold", aliases[0].Name)

	require.NoError(t, store.RemoveAlias("COLD"))
	if err := store.RemoveAlias("cold"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestJournalExpiry(t *testing.T) {
	store := openStore(t)
	now := time.Unix(1700, 0).UTC()
	receipt := json.RawMessage(`{"seq":7}`)
	require.NoError(t, store.PutJournal("op-1", "mint", receipt, now, time.Minute))

	entry, ok, err := store.Journal("op-1", now.Add(30*time.Second))
	require.NoError(t, err)
	require.True(t, ok)
	require.JSONEq(t, `{"seq":7}`, string(entry.Receipt))

	_, ok, err = store.Journal("op-1", now.Add(2*time.Minute))
	require.NoError(t, err)
	require.False(t, ok)

	_, ok, err = store.Journal("op-1", now)
	require.NoError(t, err)
	require.False(t, ok)

	require.Error(t, store.PutJournal(" ", "mint", receipt, now, 0))
}
