package storage

import (
	"errors"
	"sync"

	"github.com/ethereum/go-ethereum/core/rawdb"
	"github.com/ethereum/go-ethereum/ethdb"
	ethleveldb "github.com/ethereum/go-ethereum/ethdb/leveldb"
	"github.com/ethereum/go-ethereum/ethdb/memorydb"
	"github.com/ethereum/go-ethereum/triedb"
	"github.com/syndtr/goleveldb/leveldb/opt"
)

// ErrNotFound is returned by Get when the key is absent.
var ErrNotFound = errors.New("storage: key not found")

// Database is a generic interface for a key-value store. Both backends expose
// a trie database sharing the same underlying key space so committed state and
// raw metadata live side by side.
type Database interface {
	Put(key []byte, value []byte) error
	Get(key []byte) ([]byte, error)
	Has(key []byte) (bool, error)
	Delete(key []byte) error
	TrieDB() *triedb.Database
	Close()
}

type kvDatabase struct {
	kv ethdb.KeyValueStore

	once   sync.Once
	trieDB *triedb.Database
}

func (db *kvDatabase) Put(key []byte, value []byte) error {
	return db.kv.Put(key, value)
}

func (db *kvDatabase) Get(key []byte) ([]byte, error) {
	ok, err := db.kv.Has(key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotFound
	}
	return db.kv.Get(key)
}

func (db *kvDatabase) Has(key []byte) (bool, error) {
	return db.kv.Has(key)
}

func (db *kvDatabase) Delete(key []byte) error {
	return db.kv.Delete(key)
}

// TrieDB returns the hash-scheme trie database layered over the key-value
// store. The handle is created lazily and reused for the lifetime of the
// database.
func (db *kvDatabase) TrieDB() *triedb.Database {
	db.once.Do(func() {
		db.trieDB = triedb.NewDatabase(rawdb.NewDatabase(db.kv), triedb.HashDefaults)
	})
	return db.trieDB
}

func (db *kvDatabase) close() {
	if db.trieDB != nil {
		_ = db.trieDB.Close()
	}
	_ = db.kv.Close()
}

// --- In-Memory DB (for testing) ---

type MemDB struct {
	kvDatabase
}

func NewMemDB() *MemDB {
	return &MemDB{kvDatabase: kvDatabase{kv: memorydb.New()}}
}

// Close satisfies the Database interface for MemDB.
func (db *MemDB) Close() {
	db.close()
}

// --- Persistent DB ---

// LevelDBOptions tunes the goleveldb backend. Zero values fall back to the
// defaults below.
type LevelDBOptions struct {
	CacheMB int
	Handles int
}

const (
	defaultLevelDBCacheMB = 16
	defaultLevelDBHandles = 64
)

// LevelDB is a persistent key-value store using LevelDB.
type LevelDB struct {
	kvDatabase
}

// NewLevelDB creates or opens a LevelDB database at the specified path.
func NewLevelDB(path string, options LevelDBOptions) (*LevelDB, error) {
	cache := options.CacheMB
	if cache <= 0 {
		cache = defaultLevelDBCacheMB
	}
	handles := options.Handles
	if handles <= 0 {
		handles = defaultLevelDBHandles
	}
	db, err := ethleveldb.NewCustom(path, "", func(o *opt.Options) {
		o.OpenFilesCacheCapacity = handles
		o.BlockCacheCapacity = cache / 2 * opt.MiB
		o.WriteBuffer = cache / 4 * opt.MiB
	})
	if err != nil {
		return nil, err
	}
	return &LevelDB{kvDatabase: kvDatabase{kv: db}}, nil
}

// Close closes the database connection.
func (ldb *LevelDB) Close() {
	ldb.close()
}
