package storage

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemDBRoundTrip(t *testing.T) {
	db := NewMemDB()
	defer db.Close()

	_, err := db.Get([]byte("missing"))
	require.True(t, errors.Is(err, ErrNotFound))

	require.NoError(t, db.Put([]byte("k"), []byte("v")))
	ok, err := db.Has([]byte("k"))
	require.NoError(t, err)
	require.True(t, ok)

	got, err := db.Get([]byte("k"))
	require.NoError(t, err)
	require.Equal(t, []byte("v"), got)

	require.NoError(t, db.Delete([]byte("k")))
	_, err = db.Get([]byte("k"))
	require.ErrorIs(t, err, ErrNotFound)
}

func TestLevelDBReopen(t *testing.T) {
	dir := t.TempDir()
	db, err := NewLevelDB(dir, LevelDBOptions{CacheMB: 8, Handles: 16})
	require.NoError(t, err)
	require.NoError(t, db.Put([]byte("head"), []byte{7}))
	require.NotNil(t, db.TrieDB())
	require.Same(t, db.TrieDB(), db.TrieDB())
	db.Close()

	reopened, err := NewLevelDB(dir, LevelDBOptions{})
	require.NoError(t, err)
	defer reopened.Close()
	got, err := reopened.Get([]byte("head"))
	require.NoError(t, err)
	require.Equal(t, []byte{7}, got)
}
