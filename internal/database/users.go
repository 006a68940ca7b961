// Parcelario - Forest Parcel Mapping and Species Distribution Backend
// Copyright 2026 A. Morales (agroforestal)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/agroforestal/parcelario

package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/agroforestal/parcelario/internal/metrics"
	"github.com/agroforestal/parcelario/internal/models"
)

// CreateUser stores a new user. The username index and the user record
// are written in one transaction; a concurrent registration of the same
// username fails with ErrUserExists.
func (d *DB) CreateUser(ctx context.Context, username, passwordHash string) (*models.User, error) {
	user := &models.User{
		ID:           uuid.New().String(),
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}

	data, err := json.Marshal(user)
	if err != nil {
		return nil, fmt.Errorf("marshal user: %w", err)
	}

	start := time.Now()
	err = d.db.Update(func(txn *badger.Txn) error {
		nameKey := []byte(userNameKeyPrefix + username)
		_, err := txn.Get(nameKey)
		if err == nil {
			return ErrUserExists
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("check username: %w", err)
		}

		idKey := []byte(userIDKeyPrefix + user.ID)
		if err := txn.Set(idKey, data); err != nil {
			return fmt.Errorf("set user: %w", err)
		}
		if err := txn.Set(nameKey, []byte(user.ID)); err != nil {
			return fmt.Errorf("set username index: %w", err)
		}
		return nil
	})
	metrics.RecordStoreOperation("set", "user", time.Since(start), err)
	if err != nil {
		return nil, err
	}

	return user, nil
}

// GetUserByID retrieves a user by UUID.
func (d *DB) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User

	err := d.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(userIDKeyPrefix + id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("get user: %w", err)
		}

		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &user)
		})
	})
	if err != nil {
		return nil, err
	}

	return &user, nil
}

// GetUserByUsername resolves a username through the index and returns
// the full user record.
func (d *DB) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User

	start := time.Now()
	err := d.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(userNameKeyPrefix + username))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("get username index: %w", err)
		}

		var userID string
		if err := item.Value(func(val []byte) error {
			userID = string(val)
			return nil
		}); err != nil {
			return err
		}

		userItem, err := txn.Get([]byte(userIDKeyPrefix + userID))
		if errors.Is(err, badger.ErrKeyNotFound) {
			// Index points at a deleted record; treat as absent
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("get user: %w", err)
		}

		return userItem.Value(func(val []byte) error {
			return json.Unmarshal(val, &user)
		})
	})
	metrics.RecordStoreOperation("get", "user", time.Since(start), err)
	if err != nil {
		return nil, err
	}

	return &user, nil
}

// CountUsers returns the number of registered users.
func (d *DB) CountUsers(ctx context.Context) (int, error) {
	return d.countPrefix(userIDKeyPrefix)
}
