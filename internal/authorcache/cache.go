// Package authorcache maintains a persistent bidirectional mapping between
// author ids and display names, backed by Badger.
package authorcache

import (
	"errors"
	"fmt"
	"strconv"

	badger "github.com/dgraph-io/badger/v4"
)

// Cache maps author ids to names and back.
type Cache struct {
	db *badger.DB
}

// Open opens (or creates) the cache at dir.
func Open(dir string) (*Cache, error) {
	opts := badger.DefaultOptions(dir).WithLoggingLevel(badger.ERROR)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open author cache: %w", err)
	}
	return &Cache{db: db}, nil
}

func idKey(id int64) []byte {
	return []byte("author:id:" + strconv.FormatInt(id, 10))
}

func nameKey(name string) []byte {
	return []byte("author:name:" + name)
}

// Put records both directions of the id/name mapping. A later Put for the
// same id overwrites the name, leaving the old reverse entry to age out.
func (c *Cache) Put(id int64, name string) error {
	err := c.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(idKey(id), []byte(name)); err != nil {
			return err
		}
		return txn.Set(nameKey(name), []byte(strconv.FormatInt(id, 10)))
	})
	if err != nil {
		return fmt.Errorf("failed to cache author %d: %w", id, err)
	}
	return nil
}

// NameByID returns the cached name for id. The second return is false when
// the id has never been seen.
func (c *Cache) NameByID(id int64) (string, bool, error) {
	var name string
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(idKey(id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			name = string(val)
			return nil
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to look up author %d: %w", id, err)
	}
	return name, true, nil
}

// IDByName returns the cached id for name. The second return is false when
// the name has never been seen.
func (c *Cache) IDByName(name string) (int64, bool, error) {
	var id int64
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(nameKey(name))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			parsed, perr := strconv.ParseInt(string(val), 10, 64)
			if perr != nil {
				return perr
			}
			id = parsed
			return nil
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to look up author %q: %w", name, err)
	}
	return id, true, nil
}

// Close closes the underlying database.
func (c *Cache) Close() error {
	return c.db.Close()
}
