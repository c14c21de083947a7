// Marquee - Movie Metadata Aggregation and Recommendations
// Copyright 2026 Marquee Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/marquee-app/marquee

package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// BadgerStore is a Store backed by an embedded BadgerDB. Entry TTLs are
// enforced by Badger against the wall clock.
type BadgerStore struct {
	db    *badger.DB
	owned bool
}

// OpenBadgerStore opens (or creates) a Badger database at dir.
func OpenBadgerStore(dir string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger at %s: %w", dir, err)
	}
	return &BadgerStore{db: db, owned: true}, nil
}

// NewBadgerStore wraps an already open database. Close leaves db open.
func NewBadgerStore(db *badger.DB) *BadgerStore {
	return &BadgerStore{db: db}
}

// Get implements Store.
func (b *BadgerStore) Get(_ context.Context, key string) ([]byte, error) {
	var out []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("badger get: %w", err)
		}
		out, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Set implements Store.
func (b *BadgerStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	return b.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry([]byte(key), value)
		if ttl > 0 {
			entry = entry.WithTTL(ttl)
		}
		if err := txn.SetEntry(entry); err != nil {
			return fmt.Errorf("badger set: %w", err)
		}
		return nil
	})
}

// Delete implements Store.
func (b *BadgerStore) Delete(_ context.Context, keys ...string) error {
	return b.db.Update(func(txn *badger.Txn) error {
		for _, k := range keys {
			if err := txn.Delete([]byte(k)); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
				return fmt.Errorf("badger delete: %w", err)
			}
		}
		return nil
	})
}

// DeletePrefix implements Store.
func (b *BadgerStore) DeletePrefix(_ context.Context, prefix string) error {
	var keys [][]byte
	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		p := []byte(prefix)
		for it.Seek(p); it.ValidForPrefix(p); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("badger scan: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}

	wb := b.db.NewWriteBatch()
	defer wb.Cancel()
	for _, k := range keys {
		if err := wb.Delete(k); err != nil {
			return fmt.Errorf("badger delete: %w", err)
		}
	}
	return wb.Flush()
}

// Close implements Store.
func (b *BadgerStore) Close() error {
	if !b.owned {
		return nil
	}
	return b.db.Close()
}

var _ Store = (*BadgerStore)(nil)
