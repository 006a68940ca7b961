// Parcelario - Forest Parcel Mapping and Species Distribution Backend
// Copyright 2026 A. Morales (agroforestal)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/agroforestal/parcelario

package models

// StatusResponse is the generic success/failure envelope used by the
// parcel, WMS, and auth-gate endpoints.
//
//	{"success": true, "message": "Parcela guardada correctamente"}
//	{"success": false, "message": "Invalid or expired token"}
type StatusResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	// Error carries the underlying error text on 5xx responses.
	Error string `json:"error,omitempty"`
}

// AuthResponse is returned by register and login on success.
type AuthResponse struct {
	Success bool   `json:"success"`
	Token   string `json:"token"`
	UserID  string `json:"userId"`
}

// ParcelListResponse is returned by the parcel list endpoint.
type ParcelListResponse struct {
	Success bool     `json:"success"`
	Parcels []Parcel `json:"parcels"`
}

// WMSLayerListResponse is returned by the WMS layer list endpoint.
type WMSLayerListResponse struct {
	Success bool       `json:"success"`
	Layers  []WMSLayer `json:"layers"`
}

// ErrorResponse is the envelope used by the species-distribution proxy,
// which reports failures without the success flag.
//
//	{"error": "No taxonKey found for species", "details": "..."}
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// HealthResponse is returned by the health endpoint.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}
