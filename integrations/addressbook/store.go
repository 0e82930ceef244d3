package addressbook

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode"

	bolt "go.etcd.io/bbolt"
	"golang.org/x/text/unicode/norm"

	"fiattoken/crypto"
)

var (
	bucketAliases = []byte("aliases")
	bucketJournal = []byte("journal")

	// ErrNotFound is returned when an alias or journal key does not exist.
	ErrNotFound = errors.New("addressbook: record not found")
	// ErrAliasConflict is returned when an alias is already bound to another account.
	ErrAliasConflict = errors.New("addressbook: alias bound to a different account")
	// ErrInvalidAlias is returned for empty aliases or aliases that parse as accounts.
	ErrInvalidAlias = errors.New("addressbook: invalid alias")
)

// Store keeps operator aliases for accounts and a journal of submitted calls
// keyed by idempotency key.
type Store struct {
	db *bolt.DB
}

// Alias binds a human readable name to an account.
type Alias struct {
	Name      string    `json:"name"`
	Account   string    `json:"account"`
	CreatedAt time.Time `json:"createdAt"`
}

// JournalEntry caches the receipt of a submitted call.
type JournalEntry struct {
	Key       string          `json:"key"`
	Method    string          `json:"method"`
	Receipt   json.RawMessage `json:"receipt"`
	StoredAt  time.Time       `json:"storedAt"`
	ExpiresAt time.Time       `json:"expiresAt"`
}

// Open initialises (and migrates) the bolt-backed store.
func Open(path string, options *bolt.Options) (*Store, error) {
	if options == nil {
		options = &bolt.Options{Timeout: time.Second}
	} else if options.Timeout == 0 {
		options.Timeout = time.Second
	}
	db, err := bolt.Open(path, 0o600, options)
	if err != nil {
		return nil, err
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{bucketAliases, bucketJournal} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close releases the underlying bolt handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// NormalizeAlias folds name to its canonical lookup form.
func NormalizeAlias(name string) (string, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return "", ErrInvalidAlias
	}
	normalized := norm.NFKC.String(strings.ToLower(trimmed))
	for _, r := range normalized {
		if unicode.IsSpace(r) || unicode.IsControl(r) {
			return "", fmt.Errorf("%w: %q contains whitespace", ErrInvalidAlias, name)
		}
	}
	if _, err := crypto.ParseAccount(normalized); err == nil {
		return "", fmt.Errorf("%w: %q is an account", ErrInvalidAlias, name)
	}
	return normalized, nil
}

// SetAlias binds name to account. Rebinding a name to the same account is a
// no-op that preserves the original timestamp.
func (s *Store) SetAlias(name string, account [20]byte, now time.Time) (Alias, error) {
	key, err := NormalizeAlias(name)
	if err != nil {
		return Alias{}, err
	}
	rendered := crypto.AccountString(account)
	var alias Alias
	err = s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(bucketAliases)
		if raw := bucket.Get([]byte(key)); raw != nil {
			var existing Alias
			if err := json.Unmarshal(raw, &existing); err != nil {
				return err
			}
			if existing.Account != rendered {
				return ErrAliasConflict
			}
			alias = existing
			return nil
		}
		alias = Alias{Name: key, Account: rendered, CreatedAt: now.UTC()}
		encoded, err := json.Marshal(alias)
		if err != nil {
			return err
		}
		return bucket.Put([]byte(key), encoded)
	})
	if err != nil {
		return Alias{}, err
	}
	return alias, nil
}

// RemoveAlias deletes name.
func (s *Store) RemoveAlias(name string) error {
	key, err := NormalizeAlias(name)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(bucketAliases)
		if bucket.Get([]byte(key)) == nil {
			return ErrNotFound
		}
		return bucket.Delete([]byte(key))
	})
}

// Aliases returns every alias ordered by name.
func (s *Store) Aliases() ([]Alias, error) {
	var out []Alias
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketAliases).ForEach(func(_, raw []byte) error {
			var alias Alias
			if err := json.Unmarshal(raw, &alias); err != nil {
				return err
			}
			out = append(out, alias)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Resolve parses value as an account, falling back to an alias lookup.
func (s *Store) Resolve(value string) ([20]byte, error) {
	if account, err := crypto.ParseAccount(strings.TrimSpace(value)); err == nil {
		return account, nil
	}
	key, err := NormalizeAlias(value)
	if err != nil {
		return [20]byte{}, err
	}
	var alias Alias
	err = s.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(bucketAliases).Get([]byte(key))
		if raw == nil {
			return ErrNotFound
		}
		return json.Unmarshal(raw, &alias)
	})
	if err != nil {
		return [20]byte{}, err
	}
	return crypto.ParseAccount(alias.Account)
}

// Journal returns the cached entry for key when it has not expired. Expired
// entries are deleted.
func (s *Store) Journal(key string, now time.Time) (JournalEntry, bool, error) {
	var entry JournalEntry
	found := false
	err := s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(bucketJournal)
		raw := bucket.Get([]byte(key))
		if raw == nil {
			return nil
		}
		if err := json.Unmarshal(raw, &entry); err != nil {
			return err
		}
		if !entry.ExpiresAt.IsZero() && now.After(entry.ExpiresAt) {
			entry = JournalEntry{}
			return bucket.Delete([]byte(key))
		}
		found = true
		return nil
	})
	if err != nil {
		return JournalEntry{}, false, err
	}
	return entry, found, nil
}

// PutJournal caches receipt under key for ttl. A zero ttl keeps the entry
// forever.
func (s *Store) PutJournal(key, method string, receipt json.RawMessage, now time.Time, ttl time.Duration) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return errors.New("addressbook: journal key required")
	}
	entry := JournalEntry{Key: key, Method: method, Receipt: receipt, StoredAt: now.UTC()}
	if ttl > 0 {
		entry.ExpiresAt = now.Add(ttl).UTC()
	}
	encoded, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketJournal).Put([]byte(key), encoded)
	})
}
