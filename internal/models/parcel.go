// Parcelario - Forest Parcel Mapping and Species Distribution Backend
// Copyright 2026 A. Morales (agroforestal)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/agroforestal/parcelario

// Package models defines the persisted and wire-level data types for
// Parcelario: parcels, WMS layers, users, and the API response envelopes.
package models

import (
	"time"

	"github.com/goccy/go-json"
)

// Parcel is a saved forest parcel. The geometry and analysis fields are
// stored as opaque JSON documents; the server never interprets their
// structure, it only rounds them through storage for the owning user.
type Parcel struct {
	// ID is the server-assigned UUID.
	ID string `json:"id"`

	// OwnerID is the UUID of the user who saved the parcel. Parcels are
	// only ever visible to their owner.
	OwnerID string `json:"userId"`

	// Name is the user-chosen label. Duplicate names are permitted; the
	// ID is the identity.
	Name string `json:"name" validate:"required"`

	// Geometry is the parcel boundary, typically a GeoJSON document.
	Geometry json.RawMessage `json:"geometry,omitempty"`

	// ParcelInfo holds cadastral metadata captured at save time.
	ParcelInfo json.RawMessage `json:"parcelaInfo,omitempty"`

	// Query holds the analysis query the parcel was saved from.
	Query json.RawMessage `json:"query,omitempty"`

	// Trees holds the per-tree inventory attached to the parcel.
	Trees json.RawMessage `json:"arboles,omitempty"`

	// Convergence holds convergence-analysis results.
	Convergence json.RawMessage `json:"convergencia,omitempty"`

	// Flight holds drone-flight metadata.
	Flight json.RawMessage `json:"vuelo,omitempty"`

	// CreatedAt is the server-side save timestamp.
	CreatedAt time.Time `json:"createdAt"`
}

// ParcelRequest is the client body for saving a parcel. OwnerID never
// comes from the body; it is bound from the authenticated token.
type ParcelRequest struct {
	Name        string          `json:"name" validate:"required"`
	Geometry    json.RawMessage `json:"geometry,omitempty"`
	ParcelInfo  json.RawMessage `json:"parcelaInfo,omitempty"`
	Query       json.RawMessage `json:"query,omitempty"`
	Trees       json.RawMessage `json:"arboles,omitempty"`
	Convergence json.RawMessage `json:"convergencia,omitempty"`
	Flight      json.RawMessage `json:"vuelo,omitempty"`
}
