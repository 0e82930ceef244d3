package state

import (
	"testing"

	"github.com/stretchr/testify/require"

	"fiattoken/storage"
	"fiattoken/storage/trie"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	db := storage.NewMemDB()
	t.Cleanup(db.Close)
	tr, err := trie.NewTrie(db, nil)
	require.NoError(t, err)
	return NewManager(tr)
}

type sampleRecord struct {
	Name  string
	Count uint64
}

func TestManagerKVRoundTrip(t *testing.T) {
	m := newTestManager(t)

	var out sampleRecord
	ok, err := m.KVGet([]byte("sample"), &out)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, m.KVPut([]byte("sample"), sampleRecord{Name: "a", Count: 3}))
	ok, err = m.KVGet([]byte("sample"), &out)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, sampleRecord{Name: "a", Count: 3}, out)

	require.NoError(t, m.KVDelete([]byte("sample")))
	ok, err = m.KVGet([]byte("sample"), nil)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestManagerListHelpers(t *testing.T) {
	m := newTestManager(t)
	key := []byte("list")

	var list [][]byte
	require.NoError(t, m.KVGetList(key, &list))
	require.Empty(t, list)
	require.NotNil(t, list)

	require.NoError(t, m.KVAppend(key, []byte{1}))
	require.NoError(t, m.KVAppend(key, []byte{2}))
	require.NoError(t, m.KVAppend(key, []byte{1}))
	require.NoError(t, m.KVGetList(key, &list))
	require.Equal(t, [][]byte{{1}, {2}}, list)

	require.NoError(t, m.KVRemove(key, []byte{1}))
	require.NoError(t, m.KVGetList(key, &list))
	require.Equal(t, [][]byte{{2}}, list)

	require.NoError(t, m.KVRemove(key, []byte{2}))
	ok, err := m.KVGet(key, nil)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestManagerDiscardRestoresCommittedState(t *testing.T) {
	m := newTestManager(t)
	require.NoError(t, m.KVPut([]byte("a"), uint64(1)))
	root, err := m.Commit(1)
	require.NoError(t, err)
	require.Equal(t, root, m.Root())

	require.NoError(t, m.KVPut([]byte("a"), uint64(2)))
	require.NoError(t, m.KVPut([]byte("b"), uint64(5)))
	require.NotEqual(t, root, m.PendingRoot())
	require.NoError(t, m.Discard())

	var got uint64
	ok, err := m.KVGet([]byte("a"), &got)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, uint64(1), got)
	ok, err = m.KVGet([]byte("b"), nil)
	require.NoError(t, err)
	require.False(t, ok)
	require.Equal(t, root, m.PendingRoot())
}

func TestManagerRejectsEmptyKeys(t *testing.T) {
	m := newTestManager(t)
	require.Error(t, m.KVPut(nil, uint64(1)))
	_, err := m.KVGet(nil, nil)
	require.Error(t, err)
	require.Error(t, m.KVDelete(nil))
	require.Error(t, m.KVAppend(nil, []byte{1}))
}
