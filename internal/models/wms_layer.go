// Parcelario - Forest Parcel Mapping and Species Distribution Backend
// Copyright 2026 A. Morales (agroforestal)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/agroforestal/parcelario

package models

import "time"

// WMSLayer is a saved Web Map Service bookmark. Layers record who saved
// them, but every authenticated user can list the full collection; the
// catalog is a shared resource.
type WMSLayer struct {
	// ID is the server-assigned UUID.
	ID string `json:"id"`

	// OwnerID records who saved the layer. Optional; it does not
	// restrict visibility.
	OwnerID string `json:"userId,omitempty"`

	// Name is the display label for the layer.
	Name string `json:"name" validate:"required"`

	// URL is the normalized WMS base endpoint. Normalization happens
	// before save so stored URLs are stable and idempotent.
	URL string `json:"url" validate:"required"`

	// CreatedAt is the server-side save timestamp.
	CreatedAt time.Time `json:"createdAt"`
}

// WMSLayerRequest is the client body for saving a WMS layer. LayerName
// is optional; when present and the URL lacks a LAYERS parameter,
// normalization appends it.
type WMSLayerRequest struct {
	Name      string `json:"name" validate:"required"`
	URL       string `json:"url" validate:"required"`
	LayerName string `json:"layerName,omitempty"`
}
