// Parcelario - Forest Parcel Mapping and Species Distribution Backend
// Copyright 2026 A. Morales (agroforestal)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/agroforestal/parcelario

// Package api provides HTTP routing and handlers using Chi router.
package api

import (
	"net/http"

	"github.com/goccy/go-json"

	"github.com/agroforestal/parcelario/internal/logging"
	"github.com/agroforestal/parcelario/internal/models"
)

// writeJSON writes a JSON response with proper headers.
func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		logging.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// respondStatus writes the {success, message} envelope used by the
// parcel and WMS layer endpoints.
func respondStatus(w http.ResponseWriter, statusCode int, success bool, message string) {
	writeJSON(w, statusCode, models.StatusResponse{
		Success: success,
		Message: message,
	})
}

// respondStatusError writes the {success, message, error} envelope for
// storage failures, carrying the underlying error text.
func respondStatusError(w http.ResponseWriter, statusCode int, message string, err error) {
	writeJSON(w, statusCode, models.StatusResponse{
		Success: false,
		Message: message,
		Error:   err.Error(),
	})
}
