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

// SaveParcel persists a new parcel for the given owner and returns the
// stored record with its assigned ID. Duplicate names are allowed; each
// save creates a distinct record.
func (d *DB) SaveParcel(ctx context.Context, ownerID string, req *models.ParcelRequest) (*models.Parcel, error) {
	parcel := &models.Parcel{
		ID:          uuid.New().String(),
		OwnerID:     ownerID,
		Name:        req.Name,
		Geometry:    req.Geometry,
		ParcelInfo:  req.ParcelInfo,
		Query:       req.Query,
		Trees:       req.Trees,
		Convergence: req.Convergence,
		Flight:      req.Flight,
		CreatedAt:   time.Now().UTC(),
	}

	data, err := json.Marshal(parcel)
	if err != nil {
		return nil, fmt.Errorf("marshal parcel: %w", err)
	}

	start := time.Now()
	err = d.db.Update(func(txn *badger.Txn) error {
		key := []byte(parcelKeyPrefix + ownerID + ":" + parcel.ID)
		return txn.Set(key, data)
	})
	metrics.RecordStoreOperation("set", "parcel", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("set parcel: %w", err)
	}

	return parcel, nil
}

// ListParcelsByOwner returns all parcels saved by the given owner.
// Returns an empty slice, never nil, when the owner has no parcels.
func (d *DB) ListParcelsByOwner(ctx context.Context, ownerID string) ([]models.Parcel, error) {
	parcels := []models.Parcel{}

	start := time.Now()
	err := d.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(parcelKeyPrefix + ownerID + ":")
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()

			var parcel models.Parcel
			err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &parcel)
			})
			if err != nil {
				return fmt.Errorf("unmarshal parcel %s: %w", item.Key(), err)
			}
			parcels = append(parcels, parcel)
		}
		return nil
	})
	metrics.RecordStoreOperation("list", "parcel", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("list parcels: %w", err)
	}

	return parcels, nil
}

// GetParcel retrieves one parcel by owner and ID.
func (d *DB) GetParcel(ctx context.Context, ownerID, id string) (*models.Parcel, error) {
	var parcel models.Parcel

	err := d.db.View(func(txn *badger.Txn) error {
		key := []byte(parcelKeyPrefix + ownerID + ":" + id)
		item, err := txn.Get(key)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("get parcel: %w", err)
		}

		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &parcel)
		})
	})
	if err != nil {
		return nil, err
	}

	return &parcel, nil
}

// CountParcelsByOwner returns the number of parcels the owner has saved.
func (d *DB) CountParcelsByOwner(ctx context.Context, ownerID string) (int, error) {
	return d.countPrefix(parcelKeyPrefix + ownerID + ":")
}
