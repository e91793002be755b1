package cache

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/dgraph-io/badger/v4"
)

// ErrNotFound is returned when a cache entry doesn't exist.
var ErrNotFound = errors.New("cache entry not found")

// ErrCorrupt is returned when a stored value cannot be decoded. Callers
// treat it as a miss and delete the offending key.
var ErrCorrupt = errors.New("cache entry corrupt")

// Store wraps Badger for hash cache operations.
type Store struct {
	db *badger.DB
}

// OpenStore opens or creates a store at the given path.
func OpenStore(path string) (*Store, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil // Disable badger logging

	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close closes the store.
func (s *Store) Close() error {
	return s.db.Close()
}

// Get retrieves the entry stored under key.
func (s *Store) Get(key []byte) (*Entry, error) {
	var entry Entry

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}

		return item.Value(func(val []byte) error {
			if decErr := entry.Decode(val); decErr != nil {
				return fmt.Errorf("%w: %v", ErrCorrupt, decErr)
			}
			return nil
		})
	})

	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// Put stores an entry under key.
func (s *Store) Put(key []byte, entry *Entry) error {
	value, err := entry.Encode()
	if err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, value)
	})
}

// Delete removes an entry.
func (s *Store) Delete(key []byte) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(key)
	})
}

// DeleteBatch removes multiple entries in a single write batch.
func (s *Store) DeleteBatch(keys [][]byte) error {
	if len(keys) == 0 {
		return nil
	}

	wb := s.db.NewWriteBatch()
	defer wb.Cancel()

	for _, key := range keys {
		if err := wb.Delete(key); err != nil {
			return err
		}
	}

	return wb.Flush()
}

// DeletePathPrefix removes the entry for path and every entry below it,
// returning how many were deleted. A file path deletes just its own key;
// a directory path takes the whole subtree with it.
func (s *Store) DeletePathPrefix(path string) (int, error) {
	path = normalizePath(path)
	prefix := MakeKey(path)
	under := path + string(filepath.Separator)

	var keys [][]byte
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			key := it.Item().KeyCopy(nil)
			// The byte prefix also matches sibling paths that merely share
			// the spelling, e.g. /a/bc when deleting /a/b. Filter those out.
			p := ParseKey(key)
			if p == path || strings.HasPrefix(p, under) {
				keys = append(keys, key)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	if err := s.DeleteBatch(keys); err != nil {
		return 0, err
	}
	return len(keys), nil
}

// Count returns the number of stored entries. Only keys are read.
func (s *Store) Count() (int, error) {
	var n int
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(keyPrefix); it.ValidForPrefix(keyPrefix); it.Next() {
			n++
		}
		return nil
	})
	return n, err
}

// Each calls fn for every stored entry. Values that fail to decode are
// passed with a nil entry so the caller can collect their keys.
func (s *Store) Each(fn func(key []byte, entry *Entry)) error {
	return s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(keyPrefix); it.ValidForPrefix(keyPrefix); it.Next() {
			item := it.Item()
			key := item.KeyCopy(nil)

			var entry Entry
			err := item.Value(func(val []byte) error {
				return entry.Decode(val)
			})
			if err != nil {
				fn(key, nil)
				continue
			}
			fn(key, &entry)
		}
		return nil
	})
}

// DropAll removes every entry from the store.
func (s *Store) DropAll() error {
	return s.db.DropAll()
}
