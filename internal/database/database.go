// Parcelario - Forest Parcel Mapping and Species Distribution Backend
// Copyright 2026 A. Morales (agroforestal)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/agroforestal/parcelario

// Package database provides the BadgerDB-backed persistence layer for
// Parcelario. All record types (users, parcels, WMS layers) share one
// key-prefixed keyspace:
//
//	user:id:<uuid>        -> User JSON
//	user:name:<username>  -> user UUID
//	parcel:<ownerID>:<uuid> -> Parcel JSON
//	wmslayer:<uuid>       -> WMSLayer JSON
//
// Parcel keys embed the owner UUID so a prefix scan over
// "parcel:<ownerID>:" yields exactly one user's parcels; ownership
// isolation falls out of the key layout rather than a filter.
package database

import (
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/agroforestal/parcelario/internal/config"
)

// Storage key prefixes.
const (
	userIDKeyPrefix   = "user:id:"
	userNameKeyPrefix = "user:name:"
	parcelKeyPrefix   = "parcel:"
	wmsLayerKeyPrefix = "wmslayer:"
)

// Sentinel errors returned by the store.
var (
	ErrNotFound   = errors.New("record not found")
	ErrUserExists = errors.New("username already taken")
)

// DB wraps a BadgerDB instance with record-level operations.
type DB struct {
	db *badger.DB
}

// New opens the store described by cfg. The returned DB must be closed
// with Close to flush pending writes.
func New(cfg config.DatabaseConfig) (*DB, error) {
	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts.Logger = nil // Suppress BadgerDB logs; zerolog covers operational logging

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger db: %w", err)
	}

	return &DB{db: db}, nil
}

// NewInMemory opens an ephemeral store. Intended for tests.
func NewInMemory() (*DB, error) {
	return New(config.DatabaseConfig{InMemory: true})
}

// Close closes the underlying BadgerDB.
func (d *DB) Close() error {
	return d.db.Close()
}

// RunGC runs one round of BadgerDB value-log garbage collection.
// badger.ErrNoRewrite means there was nothing to collect and is not an
// error for callers.
func (d *DB) RunGC() error {
	err := d.db.RunValueLogGC(0.5)
	if errors.Is(err, badger.ErrNoRewrite) || errors.Is(err, badger.ErrGCInMemoryMode) {
		return nil
	}
	return err
}

// countPrefix counts keys under a prefix without prefetching values.
func (d *DB) countPrefix(prefix string) (int, error) {
	count := 0

	err := d.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		p := []byte(prefix)
		for it.Seek(p); it.ValidForPrefix(p); it.Next() {
			count++
		}
		return nil
	})

	return count, err
}
