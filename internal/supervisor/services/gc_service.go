// Parcelario - Forest Parcel Mapping and Species Distribution Backend
// Copyright 2026 A. Morales (agroforestal)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/agroforestal/parcelario

package services

import (
	"context"
	"time"

	"github.com/agroforestal/parcelario/internal/logging"
)

// ValueLogGC matches the store's garbage collection hook without
// importing the database package.
//
// Satisfied by *database.DB.
type ValueLogGC interface {
	RunGC() error
}

// StoreGCService runs BadgerDB value-log garbage collection on a fixed
// interval as a supervised service.
type StoreGCService struct {
	store    ValueLogGC
	interval time.Duration
	name     string
}

// NewStoreGCService creates a new store GC service wrapper.
func NewStoreGCService(store ValueLogGC, interval time.Duration) *StoreGCService {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	return &StoreGCService{
		store:    store,
		interval: interval,
		name:     "store-gc",
	}
}

// Serve implements suture.Service. A failed GC round is logged and
// retried on the next tick rather than crashing the service; the value
// log grows until a round succeeds.
func (s *StoreGCService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := s.store.RunGC(); err != nil {
				logging.Warn().Err(err).Msg("Badger value log GC failed")
			}
		}
	}
}

// String implements fmt.Stringer for supervisor log messages.
func (s *StoreGCService) String() string {
	return s.name
}
