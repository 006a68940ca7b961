// Parcelario - Forest Parcel Mapping and Species Distribution Backend
// Copyright 2026 A. Morales (agroforestal)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/agroforestal/parcelario

package database

import (
	"context"
	"errors"
	"testing"

	"github.com/goccy/go-json"

	"github.com/agroforestal/parcelario/internal/models"
)

// newTestDB opens an in-memory store that is closed when the test ends.
func newTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := NewInMemory()
	if err != nil {
		t.Fatalf("NewInMemory() failed: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("Close() failed: %v", err)
		}
	})
	return db
}

func TestCreateUser(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	ctx := context.Background()

	user, err := db.CreateUser(ctx, "maria", "$2a$12$fakehash")
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	if user.ID == "" {
		t.Error("CreateUser() returned empty ID")
	}
	if user.Username != "maria" {
		t.Errorf("Username = %q, want maria", user.Username)
	}
	if user.CreatedAt.IsZero() {
		t.Error("CreatedAt should be set")
	}
}

func TestCreateUserDuplicateUsername(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	ctx := context.Background()

	if _, err := db.CreateUser(ctx, "maria", "hash1"); err != nil {
		t.Fatalf("first CreateUser() failed: %v", err)
	}

	_, err := db.CreateUser(ctx, "maria", "hash2")
	if !errors.Is(err, ErrUserExists) {
		t.Errorf("second CreateUser() = %v, want ErrUserExists", err)
	}
}

func TestGetUserByUsername(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	ctx := context.Background()

	created, err := db.CreateUser(ctx, "pablo", "hash")
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}

	got, err := db.GetUserByUsername(ctx, "pablo")
	if err != nil {
		t.Fatalf("GetUserByUsername() failed: %v", err)
	}
	if got.ID != created.ID {
		t.Errorf("ID = %q, want %q", got.ID, created.ID)
	}
	if got.PasswordHash != "hash" {
		t.Errorf("PasswordHash = %q, want hash", got.PasswordHash)
	}

	_, err = db.GetUserByUsername(ctx, "nobody")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("GetUserByUsername(nobody) = %v, want ErrNotFound", err)
	}
}

func TestGetUserByID(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	ctx := context.Background()

	created, err := db.CreateUser(ctx, "ana", "hash")
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}

	got, err := db.GetUserByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetUserByID() failed: %v", err)
	}
	if got.Username != "ana" {
		t.Errorf("Username = %q, want ana", got.Username)
	}

	_, err = db.GetUserByID(ctx, "missing-id")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("GetUserByID(missing) = %v, want ErrNotFound", err)
	}
}

func TestSaveParcelRoundTrip(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	ctx := context.Background()

	geometry := json.RawMessage(`{"type":"Polygon","coordinates":[[[0,0],[1,0],[1,1],[0,0]]]}`)
	req := &models.ParcelRequest{
		Name:     "Monte Alto",
		Geometry: geometry,
		Trees:    json.RawMessage(`[{"species":"Quercus ilex","count":40}]`),
	}

	saved, err := db.SaveParcel(ctx, "owner-1", req)
	if err != nil {
		t.Fatalf("SaveParcel() failed: %v", err)
	}
	if saved.ID == "" {
		t.Error("SaveParcel() returned empty ID")
	}
	if saved.OwnerID != "owner-1" {
		t.Errorf("OwnerID = %q, want owner-1", saved.OwnerID)
	}

	got, err := db.GetParcel(ctx, "owner-1", saved.ID)
	if err != nil {
		t.Fatalf("GetParcel() failed: %v", err)
	}
	if got.Name != "Monte Alto" {
		t.Errorf("Name = %q, want Monte Alto", got.Name)
	}
	if string(got.Geometry) != string(geometry) {
		t.Errorf("Geometry = %s, want %s", got.Geometry, geometry)
	}
}

func TestListParcelsOwnershipIsolation(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := db.SaveParcel(ctx, "alice", &models.ParcelRequest{Name: "finca"}); err != nil {
			t.Fatalf("SaveParcel(alice) failed: %v", err)
		}
	}
	if _, err := db.SaveParcel(ctx, "bob", &models.ParcelRequest{Name: "finca"}); err != nil {
		t.Fatalf("SaveParcel(bob) failed: %v", err)
	}

	aliceParcels, err := db.ListParcelsByOwner(ctx, "alice")
	if err != nil {
		t.Fatalf("ListParcelsByOwner(alice) failed: %v", err)
	}
	if len(aliceParcels) != 3 {
		t.Errorf("alice has %d parcels, want 3", len(aliceParcels))
	}
	for _, p := range aliceParcels {
		if p.OwnerID != "alice" {
			t.Errorf("parcel %s has owner %q, want alice", p.ID, p.OwnerID)
		}
	}

	bobParcels, err := db.ListParcelsByOwner(ctx, "bob")
	if err != nil {
		t.Fatalf("ListParcelsByOwner(bob) failed: %v", err)
	}
	if len(bobParcels) != 1 {
		t.Errorf("bob has %d parcels, want 1", len(bobParcels))
	}
}

func TestListParcelsEmptyOwner(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)

	parcels, err := db.ListParcelsByOwner(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("ListParcelsByOwner() failed: %v", err)
	}
	if parcels == nil {
		t.Error("ListParcelsByOwner() returned nil, want empty slice")
	}
	if len(parcels) != 0 {
		t.Errorf("got %d parcels, want 0", len(parcels))
	}
}

func TestSaveParcelDuplicateNamesAllowed(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	ctx := context.Background()

	first, err := db.SaveParcel(ctx, "owner", &models.ParcelRequest{Name: "La Dehesa"})
	if err != nil {
		t.Fatalf("first SaveParcel() failed: %v", err)
	}
	second, err := db.SaveParcel(ctx, "owner", &models.ParcelRequest{Name: "La Dehesa"})
	if err != nil {
		t.Fatalf("second SaveParcel() failed: %v", err)
	}
	if first.ID == second.ID {
		t.Error("duplicate-name saves should produce distinct IDs")
	}

	count, err := db.CountParcelsByOwner(ctx, "owner")
	if err != nil {
		t.Fatalf("CountParcelsByOwner() failed: %v", err)
	}
	if count != 2 {
		t.Errorf("count = %d, want 2", count)
	}
}

func TestWMSLayersGloballyVisible(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	ctx := context.Background()

	if _, err := db.SaveWMSLayer(ctx, "alice", "Catastro", "https://ovc.catastro.meh.es/Cartografia/WMS/ServidorWMS.aspx"); err != nil {
		t.Fatalf("SaveWMSLayer(alice) failed: %v", err)
	}
	if _, err := db.SaveWMSLayer(ctx, "bob", "PNOA", "https://www.ign.es/wms-inspire/pnoa-ma"); err != nil {
		t.Fatalf("SaveWMSLayer(bob) failed: %v", err)
	}

	// The catalog is shared: both layers visible without owner filtering
	layers, err := db.ListWMSLayers(ctx)
	if err != nil {
		t.Fatalf("ListWMSLayers() failed: %v", err)
	}
	if len(layers) != 2 {
		t.Errorf("got %d layers, want 2", len(layers))
	}

	count, err := db.CountWMSLayers(ctx)
	if err != nil {
		t.Fatalf("CountWMSLayers() failed: %v", err)
	}
	if count != 2 {
		t.Errorf("count = %d, want 2", count)
	}
}

func TestGetWMSLayer(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	ctx := context.Background()

	saved, err := db.SaveWMSLayer(ctx, "", "SigPac", "https://sigpac.mapa.gob.es/fega/ServiciosVisorSigpac/wms")
	if err != nil {
		t.Fatalf("SaveWMSLayer() failed: %v", err)
	}

	got, err := db.GetWMSLayer(ctx, saved.ID)
	if err != nil {
		t.Fatalf("GetWMSLayer() failed: %v", err)
	}
	if got.Name != "SigPac" {
		t.Errorf("Name = %q, want SigPac", got.Name)
	}
	if got.OwnerID != "" {
		t.Errorf("OwnerID = %q, want empty (anonymous save)", got.OwnerID)
	}

	_, err = db.GetWMSLayer(ctx, "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("GetWMSLayer(missing) = %v, want ErrNotFound", err)
	}
}

func TestRunGCInMemory(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)

	// In-memory mode has no value log to rewrite; RunGC must still be a no-op success
	if err := db.RunGC(); err != nil {
		t.Errorf("RunGC() failed: %v", err)
	}
}
