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

// SaveWMSLayer persists a WMS layer bookmark. The URL must already be
// normalized by the caller. Layers live in a single shared keyspace;
// every authenticated user sees the full catalog.
func (d *DB) SaveWMSLayer(ctx context.Context, ownerID, name, url string) (*models.WMSLayer, error) {
	layer := &models.WMSLayer{
		ID:        uuid.New().String(),
		OwnerID:   ownerID,
		Name:      name,
		URL:       url,
		CreatedAt: time.Now().UTC(),
	}

	data, err := json.Marshal(layer)
	if err != nil {
		return nil, fmt.Errorf("marshal wms layer: %w", err)
	}

	start := time.Now()
	err = d.db.Update(func(txn *badger.Txn) error {
		key := []byte(wmsLayerKeyPrefix + layer.ID)
		return txn.Set(key, data)
	})
	metrics.RecordStoreOperation("set", "wms_layer", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("set wms layer: %w", err)
	}

	return layer, nil
}

// ListWMSLayers returns every saved WMS layer regardless of owner.
// Returns an empty slice, never nil, when the catalog is empty.
func (d *DB) ListWMSLayers(ctx context.Context) ([]models.WMSLayer, error) {
	layers := []models.WMSLayer{}

	start := time.Now()
	err := d.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(wmsLayerKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()

			var layer models.WMSLayer
			err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &layer)
			})
			if err != nil {
				return fmt.Errorf("unmarshal wms layer %s: %w", item.Key(), err)
			}
			layers = append(layers, layer)
		}
		return nil
	})
	metrics.RecordStoreOperation("list", "wms_layer", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("list wms layers: %w", err)
	}

	return layers, nil
}

// GetWMSLayer retrieves one layer by ID.
func (d *DB) GetWMSLayer(ctx context.Context, id string) (*models.WMSLayer, error) {
	var layer models.WMSLayer

	err := d.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(wmsLayerKeyPrefix + id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("get wms layer: %w", err)
		}

		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &layer)
		})
	})
	if err != nil {
		return nil, err
	}

	return &layer, nil
}

// CountWMSLayers returns the size of the shared layer catalog.
func (d *DB) CountWMSLayers(ctx context.Context) (int, error) {
	return d.countPrefix(wmsLayerKeyPrefix)
}
