// Package cachedb is the key-value side of the store: string keys, string
// values, namespace-prefixed colon-delimited key names ("user:<name>",
// "post:<id>", ...). Backed by badger so counters update atomically and
// prefix invalidation is an iterator walk.
package cachedb

import (
	"fmt"
	"strconv"

	badger "github.com/dgraph-io/badger/v4"
)

type CacheDB struct {
	db *badger.DB
}

// New opens the cache at path. An empty path opens an in-memory cache, which
// is what tests use.
func New(path string) (*CacheDB, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	if path == "" {
		opts = opts.WithInMemory(true)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening cache: %w", err)
	}

	return &CacheDB{db}, nil
}

func (c *CacheDB) Close() error {
	return c.db.Close()
}

// Get returns the value for key and whether it was present.
func (c *CacheDB) Get(key string) (string, bool) {
	var value string
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			value = string(val)
			return nil
		})
	})
	if err != nil {
		return "", false
	}
	return value, true
}

func (c *CacheDB) Set(key string, value string) error {
	err := c.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), []byte(value))
	})
	if err != nil {
		return fmt.Errorf("setting cache key %q: %w", key, err)
	}
	return nil
}

// Update overwrites an existing entry. Same write path as Set; kept as a
// separate name so call sites read as patches rather than inserts.
func (c *CacheDB) Update(key string, value string) error {
	return c.Set(key, value)
}

func (c *CacheDB) Remove(key string) error {
	err := c.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
	if err != nil {
		return fmt.Errorf("removing cache key %q: %w", key, err)
	}
	return nil
}

// RemovePrefix deletes every key starting with prefix and returns how many
// entries went away.
func (c *CacheDB) RemovePrefix(prefix string) (int, error) {
	removed := 0
	err := c.db.Update(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(prefix)

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			key := it.Item().KeyCopy(nil)
			if err := txn.Delete(key); err != nil {
				return err
			}
			removed++
		}
		return nil
	})
	if err != nil {
		return removed, fmt.Errorf("removing cache prefix %q: %w", prefix, err)
	}
	return removed, nil
}

// Incr adds one to the integer counter at key, creating it at 1 when absent.
// The read-modify-write runs inside a single transaction.
func (c *CacheDB) Incr(key string) (int64, error) {
	return c.add(key, 1)
}

// Decr subtracts one from the counter at key, stopping at zero.
func (c *CacheDB) Decr(key string) (int64, error) {
	return c.add(key, -1)
}

func (c *CacheDB) add(key string, delta int64) (int64, error) {
	var next int64
	err := c.db.Update(func(txn *badger.Txn) error {
		current := int64(0)

		item, err := txn.Get([]byte(key))
		if err == nil {
			err = item.Value(func(val []byte) error {
				parsed, perr := strconv.ParseInt(string(val), 10, 64)
				if perr != nil {
					return fmt.Errorf("corrupt counter value %q: %w", string(val), perr)
				}
				current = parsed
				return nil
			})
			if err != nil {
				return err
			}
		} else if err != badger.ErrKeyNotFound {
			return err
		}

		next = current + delta
		if next < 0 {
			next = 0
		}
		return txn.Set([]byte(key), []byte(strconv.FormatInt(next, 10)))
	})
	if err != nil {
		return 0, fmt.Errorf("adjusting cache counter %q: %w", key, err)
	}
	return next, nil
}
